package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/polyglotml/wordgram"
)

func (c *CLI) newEncodeCommand() *cobra.Command {
	var (
		store string
		lang  int
	)

	cmd := &cobra.Command{
		Use:   "encode <word>...",
		Short: "Print embedding vectors for words using the best checkpoint",
		Args:  cobra.MinimumNArgs(1),
		Example: `  wordgram encode --store models/multi hello world
  wordgram encode --store models/multi --lang 1 bonjour`,
		RunE: func(cmd *cobra.Command, args []string) error {
			model, _, err := wordgram.LoadModel(store)
			if err != nil {
				return err
			}
			rows := model.Encode(args, lang)
			for i, row := range rows {
				parts := make([]string, len(row))
				for j, v := range row {
					parts[j] = fmt.Sprintf("%.6f", v)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", args[i], strings.Join(parts, " "))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&store, "store", "wordgram", "Model store prefix")
	cmd.Flags().IntVar(&lang, "lang", 0, "Language id (manifest declaration order)")
	return cmd
}
