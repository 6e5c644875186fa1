// Package candidates provides the candidates command, which lists scored
// pairs without deciding anything.
package candidates

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/ghostmerge/internal/appcontext"
	"github.com/agentstation/ghostmerge/internal/cmd/output"
	"github.com/agentstation/ghostmerge/internal/cmd/table"
	"github.com/agentstation/ghostmerge/pkg/constants"
)

// Flags holds the candidates command flags.
type Flags struct {
	Left  string
	Right string
	Floor float64
	Limit int
}

// NewCommand creates the candidates command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "candidates -a LEFT -b RIGHT",
		GroupID: "inspect",
		Short:   "List scored pairs between two collections",
		Long: `Candidates scores every left/right pair with the configured weights and
lists those at or above --floor, best first. Nothing is merged; use it to
tune thresholds before a merge.`,
		Example: `  ghostmerge candidates -a a.json -b b.json
  ghostmerge candidates -a a.json -b b.json --floor 0.5 --limit 20 -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := app.Client()
			if err != nil {
				return err
			}
			left, right, err := client.Load(flags.Left, flags.Right)
			if err != nil {
				return err
			}
			list, err := client.Candidates(cmd.Context(), left, right, flags.Floor)
			if err != nil {
				return err
			}
			if flags.Limit > 0 && len(list) > flags.Limit {
				list = list[:flags.Limit]
			}
			app.Logger().Debug().Int("pairs", len(list)).Float64("floor", flags.Floor).Msg("Scored candidates")
			return output.Write(cmd.OutOrStdout(), app.OutputFormat(), table.CandidatesToTableData(list, left, right), list)
		},
	}

	cmd.Flags().StringVarP(&flags.Left, "left", "a", "", "left collection")
	cmd.Flags().StringVarP(&flags.Right, "right", "b", "", "right collection")
	cmd.Flags().Float64Var(&flags.Floor, "floor", constants.DefaultCandidateFloor, "lowest score listed")
	cmd.Flags().IntVar(&flags.Limit, "limit", 0, "list at most this many pairs (0 lists all)")
	_ = cmd.MarkFlagRequired("left")
	_ = cmd.MarkFlagRequired("right")

	return cmd
}
