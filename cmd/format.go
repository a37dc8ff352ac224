package cmd

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/kilianp07/chargeplan/core/runlog"
	"github.com/kilianp07/chargeplan/core/solver"
	"github.com/kilianp07/chargeplan/core/sweep"
	"github.com/kilianp07/chargeplan/pkg/export"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func printFiles(w io.Writer, files []string) {
	for _, f := range files {
		fmt.Fprintf(w, "exported %s\n", f)
	}
}

func printReport(w io.Writer, runID string, r export.Report, files []string) error {
	cov := r.Coverage
	fmt.Fprintf(w, "run %s\n", runID)
	fmt.Fprintf(w, "policy %s/%s, budget %g, used %g, remaining %g\n",
		r.Config.BudgetPolicy, r.Config.DistributionPolicy, r.Config.BudgetValue, r.BudgetUsed, r.BudgetRemaining)
	if r.HaltedAt != "" {
		fmt.Fprintf(w, "budget exhausted at %s\n", r.HaltedAt)
	}
	fmt.Fprintf(w, "%d chargers at %d sites, %.2f of %.2f trips covered (%.2f%%)\n\n",
		r.ChargersBuilt, r.StationsBuilt, cov.DemandCovered, cov.TotalDemand, cov.CoveragePercent)

	tw := newTable(w)
	fmt.Fprintln(tw, "RANK\tSITE\tTRAFFIC\tCHARGERS\tSERVED")
	for _, s := range r.Sites {
		if s.Chargers == 0 {
			continue
		}
		fmt.Fprintf(tw, "%d\t%s\t%.2f\t%d\t%.2f\n", s.Rank, s.Site, s.Traffic, s.Chargers, s.Served)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	tw = newTable(w)
	fmt.Fprintln(tw, "CLASS\tAREAS\tDEMAND\tMEAN DEMAND\tSERVED\tMEAN SERVED")
	for _, c := range []struct {
		name  string
		count int
		td    float64
		md    float64
		ts    float64
		ms    float64
	}{
		{"fully covered", cov.Fully.Count, cov.Fully.TotalDemand, cov.Fully.MeanDemand, cov.Fully.TotalServed, cov.Fully.MeanServed},
		{"partially covered", cov.Partial.Count, cov.Partial.TotalDemand, cov.Partial.MeanDemand, cov.Partial.TotalServed, cov.Partial.MeanServed},
		{"not covered", cov.NotCovered.Count, cov.NotCovered.TotalDemand, cov.NotCovered.MeanDemand, cov.NotCovered.TotalServed, cov.NotCovered.MeanServed},
	} {
		fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.2f\t%.2f\t%.2f\n", c.name, c.count, c.td, c.md, c.ts, c.ms)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	printFiles(w, files)
	return nil
}

func printSweep(w io.Writer, runID string, points []sweep.Point, files []string) error {
	fmt.Fprintf(w, "run %s\n", runID)
	tw := newTable(w)
	fmt.Fprintln(tw, "BUDGET\tUSED\tSTATIONS\tCHARGERS\tCOVERED\tCOVERAGE %\tBOUND %")
	for _, p := range points {
		bound := "-"
		if p.Bounded {
			bound = strconv.FormatFloat(p.BoundPercent, 'f', 2, 64)
		}
		fmt.Fprintf(tw, "%g\t%g\t%d\t%d\t%.2f\t%.2f\t%s\n",
			p.Budget, p.BudgetUsed, p.Stations, p.Chargers, p.DemandCovered, p.CoveragePercent, bound)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	printFiles(w, files)
	return nil
}

func printComparison(w io.Writer, runID string, c solver.Comparison, files []string) error {
	fmt.Fprintf(w, "run %s\n", runID)
	fmt.Fprintf(w, "heuristic covers %.2f, bound %.2f, gap %.2f (%.2f points)\n\n",
		c.HeuristicCovered, c.SolverCovered, c.Gap, c.GapPercent)
	tw := newTable(w)
	fmt.Fprintln(tw, "SITE\tHEURISTIC\tBOUND\tDELTA")
	for _, d := range c.Sites {
		fmt.Fprintf(tw, "%s\t%d\t%.2f\t%+.2f\n", d.Site, d.Heuristic, d.Solver, d.Delta)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(w)
	tw = newTable(w)
	fmt.Fprintln(tw, "AREA\tHEURISTIC SAT\tBOUND SAT\tDELTA")
	for _, d := range c.Areas {
		fmt.Fprintf(tw, "%s\t%.3f\t%.3f\t%+.3f\n", d.Area, d.Heuristic, d.Solver, d.Delta)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	printFiles(w, files)
	return nil
}

func printHistory(w io.Writer, recs []runlog.RunRecord) error {
	if len(recs) == 0 {
		_, err := fmt.Fprintln(w, "no runs")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "TIME\tID\tKIND\tPOLICY\tBUDGET\tCHARGERS\tCOVERAGE %\tDATASET")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%g\t%d\t%.2f\t%s\n",
			r.Timestamp.Format("2006-01-02 15:04:05"), r.ID, r.Kind, r.Config.BudgetPolicy,
			r.Config.BudgetValue, r.Allocation.Total(), r.Coverage.CoveragePercent, r.Dataset)
	}
	return tw.Flush()
}
