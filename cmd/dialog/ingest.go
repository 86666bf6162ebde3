package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/sandevgo/dialogkit/internal/service/ingest"
	"github.com/sandevgo/dialogkit/internal/storage/sqlite"
	"github.com/sandevgo/dialogkit/pkg/log"
)

var (
	ingestFile    string
	ingestDataset string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Import knowledge-base content from a CSV file",
	Long: `Reads question/content pairs from a CSV file, embeds them and stores
them in the content index. Rows already present are skipped, so the
same file can be imported again after edits.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		db := openDatabase(ctx)
		defer db.Close()

		f, err := os.Open(ingestFile)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", ingestFile, err)
		}
		defer f.Close()

		embedder, embCfg := newEmbeddingClient(ctx)
		loader := ingest.NewLoader(sqlite.NewContentRepo(db), embedder, embCfg.Dimension)

		res, err := loader.LoadCSV(ctx, f, ingestDataset)
		if err != nil {
			return err
		}

		log.FromCtx(ctx).Info().
			Int("inserted", res.Inserted).
			Int("skipped", res.Skipped).
			Msg("import complete")
		fmt.Printf("Imported %d rows (%d duplicates skipped).\n", res.Inserted, res.Skipped)
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestFile, "file", "f", "", "path to the CSV file (required)")
	ingestCmd.Flags().StringVar(&ingestDataset, "dataset", "", "dataset tag for the imported rows")
	_ = ingestCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(ingestCmd)
}
