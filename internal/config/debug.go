package config

import "os"

func IsDebug() bool {
	return os.Getenv("DIALOG_DEBUG") == "1"
}
