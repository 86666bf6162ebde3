package main

import "github.com/joho/godotenv"

func main() {
	// Missing .env is fine, the environment may already be set.
	_ = godotenv.Load()

	Execute()
}
