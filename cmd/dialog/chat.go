package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sandevgo/dialogkit/internal/config"
	"github.com/sandevgo/dialogkit/internal/service/dialog"
	"github.com/sandevgo/dialogkit/internal/service/retriever"
	"github.com/sandevgo/dialogkit/internal/storage/sqlite"
	"github.com/sandevgo/dialogkit/pkg/log"
)

var (
	chatSession string
	chatDataset string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Opens an interactive prompt. Each message is answered from the knowledge
base and recorded in the session history. Type "q" to quit.

Without --session a fresh session is created; pass an existing id to
continue a previous conversation.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()
		logger := log.FromCtx(ctx)

		db := openDatabase(ctx)
		defer db.Close()

		sessions := sqlite.NewSessionRepo(db)
		sessionID, err := sessions.GetOrCreate(ctx, chatSession)
		if err != nil {
			return fmt.Errorf("failed to open session: %w", err)
		}

		history, err := sqlite.NewHistory(ctx, db, sessionID)
		if err != nil {
			return fmt.Errorf("failed to open history: %w", err)
		}
		defer history.Close()

		dialogCfg := config.NewDialogConfig(ctx)
		embedder, _ := newEmbeddingClient(ctx)

		search, err := retriever.New(sqlite.NewContentRepo(db), embedder, retriever.Config{
			TopK:      dialogCfg.TopK,
			Threshold: dialogCfg.Threshold,
		})
		if err != nil {
			return err
		}

		dataset := chatDataset
		if dataset == "" {
			dataset = dialogCfg.Dataset
		}

		pipeline, err := dialog.NewPipeline(history, search, newChatClient(ctx), dialog.Config{
			SystemPrompt:     dialogCfg.SystemPrompt,
			FallbackMessage:  dialogCfg.FallbackMessage,
			Dataset:          dataset,
			MemoryWindow:     dialogCfg.MemoryWindow,
			MaxContextTokens: dialogCfg.MaxContextTokens,
			PersistFallback:  dialogCfg.PersistFallback,
		})
		if err != nil {
			return err
		}

		logger.Info().Str("session", sessionID).Msg("chat session ready")
		fmt.Printf("Session %s. Type your message, or \"q\" to quit.\n\n", sessionID)

		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("You: ")
			if !scanner.Scan() {
				break
			}
			input := strings.TrimSpace(scanner.Text())
			if input == "" {
				continue
			}
			if input == "q" {
				break
			}

			res, err := pipeline.Run(ctx, input)
			if err != nil {
				logger.Error().Err(err).Msg("failed to answer")
				fmt.Println("Something went wrong, please try again.")
				continue
			}
			fmt.Printf("Bot: %s\n\n", res.Text)
		}

		return scanner.Err()
	},
}

func init() {
	chatCmd.Flags().StringVarP(&chatSession, "session", "s", "", "session id to continue (default: new session)")
	chatCmd.Flags().StringVar(&chatDataset, "dataset", "", "restrict retrieval to one dataset")
	rootCmd.AddCommand(chatCmd)
}
