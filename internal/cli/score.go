package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/dendro/pkg/distmatrix"
	"github.com/matzehuels/dendro/pkg/export"
	"github.com/matzehuels/dendro/pkg/score"
)

// scoreCommand creates the score command for rescoring saved trees.
func (c *CLI) scoreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "score [matrix] [tree.json]",
		Short: "Rescore a saved tree against a distance matrix",
		Long: `Rescore a saved tree against a distance matrix.

The score command recomputes the quartet score of a previously saved tree
from scratch. Use it to check a result produced elsewhere (for example by
an external solver) or to score the same tree against a different matrix
with the same labels.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := distmatrix.ReadFile(args[0])
			if err != nil {
				return err
			}
			if err := m.Validate(); err != nil {
				return err
			}

			doc, err := export.ReadFile(args[1])
			if err != nil {
				return err
			}
			tree, err := doc.Tree()
			if err != nil {
				return err
			}

			p := newProgress(c.Logger)
			s, err := score.Score(tree, m)
			if err != nil {
				return err
			}
			p.done("Scored tree")

			printSuccess("Scored %s against %s", args[1], args[0])
			printScore(s)
			if doc.Score != s {
				printWarning("saved score was %g", doc.Score)
			}
			return nil
		},
	}
}
