package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kilianp07/chargeplan/app"
	"github.com/kilianp07/chargeplan/config"
	"github.com/kilianp07/chargeplan/core/allocation"
	"github.com/kilianp07/chargeplan/pkg/export"
)

// runFlags are the allocation overrides shared by allocate, sweep and compare.
type runFlags struct {
	dataset      string
	budget       float64
	policy       string
	distribution string
	capacity     float64
	maxPerSite   int
	partial      bool
	json         bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.dataset, "dataset", "", "demand model file (yaml or json)")
	fl.Float64Var(&f.budget, "budget", 0, "budget value (chargers or money)")
	fl.StringVar(&f.policy, "policy", "", "budget policy: count or cost")
	fl.StringVar(&f.distribution, "distribution", "", "distribution policy: priority or proportional")
	fl.Float64Var(&f.capacity, "capacity", 0, "trips served per charger")
	fl.IntVar(&f.maxPerSite, "max-per-site", 0, "maximum chargers per site")
	fl.BoolVar(&f.partial, "partial", false, "allow one extra charger for a fractional remainder")
	fl.BoolVar(&f.json, "json", false, "print JSON instead of a table")
}

// apply copies the flags the user set onto the allocation config.
func (f *runFlags) apply(cmd *cobra.Command, cfg *allocation.Config) error {
	fl := cmd.Flags()
	if fl.Changed("budget") {
		cfg.BudgetValue = f.budget
	}
	if fl.Changed("policy") {
		p, err := allocation.ParseBudgetPolicy(f.policy)
		if err != nil {
			return err
		}
		cfg.BudgetPolicy = p
	}
	if fl.Changed("distribution") {
		d, err := allocation.ParseDistributionPolicy(f.distribution)
		if err != nil {
			return err
		}
		cfg.DistributionPolicy = d
	}
	if fl.Changed("capacity") {
		cfg.CapacityPerCharger = f.capacity
	}
	if fl.Changed("max-per-site") {
		cfg.MaxChargersPerSite = f.maxPerSite
	}
	if fl.Changed("partial") {
		cfg.AllowPartialCharger = f.partial
	}
	return nil
}

func (f *runFlags) prepare(cmd *cobra.Command) func(*config.Config) error {
	return func(cfg *config.Config) error {
		if err := f.apply(cmd, &cfg.Allocation); err != nil {
			return err
		}
		cfg.Allocation = cfg.Allocation.WithDefaults()
		return cfg.Allocation.Validate()
	}
}

func newAllocateCmd(root *rootOptions) *cobra.Command {
	flags := &runFlags{}
	cmd := &cobra.Command{
		Use:   "allocate",
		Short: "Allocate chargers for one budget and print the coverage report",
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.withPlanner(cmd, flags.prepare(cmd), func(ctx context.Context, p *app.Planner) error {
				req, err := p.LoadRequest(flags.dataset)
				if err != nil {
					return err
				}
				out, err := p.Allocate(ctx, req)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if flags.json {
					return export.WriteJSON(w, out.Report)
				}
				return printReport(w, out.RunID, out.Report, out.Files)
			})
		},
	}
	flags.register(cmd)
	return cmd
}
