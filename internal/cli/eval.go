package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/polyglotml/wordgram"
)

func (c *CLI) newEvalCommand() *cobra.Command {
	var store string

	cmd := &cobra.Command{
		Use:   "eval <manifest.yaml>",
		Short: "Score the best checkpoint against the manifest's dev corpora",
		Args:  cobra.ExactArgs(1),
		Example: `  wordgram eval train.yaml
  wordgram eval train.yaml --store models/multi`,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := wordgram.LoadManifest(args[0])
			if err != nil {
				return err
			}
			if store != "" {
				m.Trainer.StorePrefix = store
			}
			nll, err := wordgram.Evaluate(m, slog.Default())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "dev NLL: %.6f\n", nll)
			return nil
		},
	}

	cmd.Flags().StringVar(&store, "store", "", "Override the manifest's model store prefix")
	return cmd
}
