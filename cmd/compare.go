package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kilianp07/chargeplan/app"
	"github.com/kilianp07/chargeplan/pkg/export"
)

func newCompareCmd(root *rootOptions) *cobra.Command {
	flags := &runFlags{}
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare the heuristic allocation with the LP relaxation bound",
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.withPlanner(cmd, flags.prepare(cmd), func(ctx context.Context, p *app.Planner) error {
				req, err := p.LoadRequest(flags.dataset)
				if err != nil {
					return err
				}
				out, err := p.Compare(ctx, req)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if flags.json {
					return export.WriteJSON(w, out.Comparison)
				}
				return printComparison(w, out.RunID, out.Comparison, out.Files)
			})
		},
	}
	flags.register(cmd)
	return cmd
}
