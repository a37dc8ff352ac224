package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/chargeplan/core/synthetic"
	"github.com/kilianp07/chargeplan/infra/dataset"
)

func newGenerateCmd() *cobra.Command {
	var p synthetic.Params
	var out string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic hub and residential demand model",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := synthetic.Generate(p)
			if err != nil {
				return err
			}
			name := fmt.Sprintf("synthetic-%d-%d-seed%d", p.Areas, p.Sites, p.Seed)
			if err := dataset.Save(out, name, m); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %d areas, %d sites, %d trips\n",
				out, len(m.Areas), len(m.Sites), len(m.Trips))
			return err
		},
	}
	fl := cmd.Flags()
	fl.IntVar(&p.Areas, "areas", 20, "number of areas")
	fl.IntVar(&p.Sites, "sites", 10, "number of candidate sites")
	fl.Int64Var(&p.Seed, "seed", 1, "random seed")
	fl.StringVar(&out, "out", "demand.yaml", "output file (yaml or json)")
	return cmd
}
