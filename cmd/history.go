package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/chargeplan/app"
	"github.com/kilianp07/chargeplan/core/allocation"
	"github.com/kilianp07/chargeplan/core/runlog"
	"github.com/kilianp07/chargeplan/pkg/export"
)

func newHistoryCmd(root *rootOptions) *cobra.Command {
	var since time.Duration
	var policy, kind string
	var limit int
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored planning runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := runlog.Query{Kind: kind, Limit: limit}
			if since > 0 {
				q.Start = time.Now().Add(-since)
			}
			if policy != "" {
				p, err := allocation.ParseBudgetPolicy(policy)
				if err != nil {
					return err
				}
				q.Policy = p
			}
			return root.withPlanner(cmd, nil, func(ctx context.Context, p *app.Planner) error {
				recs, err := p.History(ctx, q)
				if err != nil {
					return err
				}
				if asJSON {
					return export.WriteJSON(cmd.OutOrStdout(), recs)
				}
				return printHistory(cmd.OutOrStdout(), recs)
			})
		},
	}
	fl := cmd.Flags()
	fl.DurationVar(&since, "since", 0, "only runs newer than this duration (e.g. 24h)")
	fl.StringVar(&policy, "policy", "", "filter by budget policy")
	fl.StringVar(&kind, "kind", "", "filter by run kind: allocate, sweep or compare")
	fl.IntVar(&limit, "limit", 20, "maximum number of runs, most recent kept")
	fl.BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}
