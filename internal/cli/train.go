package cli

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/polyglotml/wordgram"
)

func (c *CLI) newTrainCommand() *cobra.Command {
	var (
		store     string
		batchSize int
		patience  int
	)

	cmd := &cobra.Command{
		Use:   "train <manifest.yaml>",
		Short: "Train embeddings on the corpora declared in a manifest",
		Args:  cobra.ExactArgs(1),
		Example: `  wordgram train train.yaml --store models/multi
  wordgram train train.yaml --patience 5 -v`,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := wordgram.LoadManifest(args[0])
			if err != nil {
				return err
			}
			if store != "" {
				m.Trainer.StorePrefix = store
			}
			if batchSize > 0 {
				m.Trainer.BatchSize = batchSize
			}
			if patience > 0 {
				m.Trainer.Patience = patience
			}

			start := time.Now()
			state, err := wordgram.Train(cmd.Context(), m, slog.Default())
			if err != nil {
				return err
			}
			slog.Info("done",
				"epochs", state.Epoch,
				"best_nll", state.BestNLL,
				"duration", time.Since(start))
			return nil
		},
	}

	cmd.Flags().StringVar(&store, "store", "", "Override the manifest's model store prefix")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "Override the manifest's batch size")
	cmd.Flags().IntVar(&patience, "patience", 0, "Override the manifest's early-stopping patience")
	return cmd
}
