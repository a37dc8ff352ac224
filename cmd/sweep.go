package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kilianp07/chargeplan/app"
	"github.com/kilianp07/chargeplan/config"
	"github.com/kilianp07/chargeplan/pkg/export"
)

func newSweepCmd(root *rootOptions) *cobra.Command {
	flags := &runFlags{}
	var start, end, step float64
	var bound bool
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run the allocation over a range of budgets",
		RunE: func(cmd *cobra.Command, args []string) error {
			var budgets []float64
			var withBound bool
			prepare := func(cfg *config.Config) error {
				fl := cmd.Flags()
				if fl.Changed("start") {
					cfg.Sweep.Start = start
				}
				if fl.Changed("end") {
					cfg.Sweep.End = end
				}
				if fl.Changed("step") {
					cfg.Sweep.Step = step
				}
				if fl.Changed("bound") {
					cfg.Sweep.Bound = bound
				}
				var err error
				if budgets, err = cfg.Sweep.Budgets(); err != nil {
					return err
				}
				withBound = cfg.Sweep.Bound
				return flags.prepare(cmd)(cfg)
			}
			return root.withPlanner(cmd, prepare, func(ctx context.Context, p *app.Planner) error {
				req, err := p.LoadRequest(flags.dataset)
				if err != nil {
					return err
				}
				out, err := p.Sweep(ctx, req, budgets, withBound)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if flags.json {
					return export.WriteJSON(w, out.Points)
				}
				return printSweep(w, out.RunID, out.Points, out.Files)
			})
		},
	}
	flags.register(cmd)
	fl := cmd.Flags()
	fl.Float64Var(&start, "start", 0, "first budget")
	fl.Float64Var(&end, "end", 0, "last budget (inclusive)")
	fl.Float64Var(&step, "step", 1, "budget increment")
	fl.BoolVar(&bound, "bound", false, "also compute the LP relaxation bound at every budget")
	return cmd
}
