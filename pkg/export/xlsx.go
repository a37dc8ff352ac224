package export

import (
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/kilianp07/chargeplan/core/sweep"
)

type sheet struct {
	name   string
	header []string
	rows   [][]any
}

// writeWorkbook fills one sheet per entry. The first entry takes over the
// default sheet so it stays active.
func writeWorkbook(w io.Writer, sheets []sheet) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, sh := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sh.name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(sh.name); err != nil {
			return err
		}
		header := make([]any, len(sh.header))
		for j, h := range sh.header {
			header[j] = h
		}
		if err := f.SetSheetRow(sh.name, "A1", &header); err != nil {
			return err
		}
		for r, row := range sh.rows {
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(sh.name, cell, &row); err != nil {
				return err
			}
		}
	}
	return f.Write(w)
}

// WriteReportXLSX writes a workbook with Summary, Sites, Areas and Served sheets.
func WriteReportXLSX(w io.Writer, r Report) error {
	summary := sheet{name: "Summary", header: []string{"metric", "value"}, rows: [][]any{
		{"budget_policy", string(r.Config.BudgetPolicy)},
		{"budget_value", r.Config.BudgetValue},
		{"distribution_policy", string(r.Config.DistributionPolicy)},
		{"budget_used", r.BudgetUsed},
		{"budget_remaining", r.BudgetRemaining},
		{"stations_built", r.StationsBuilt},
		{"chargers_built", r.ChargersBuilt},
		{"halted_at", r.HaltedAt},
		{"total_demand", r.Coverage.TotalDemand},
		{"demand_covered", r.Coverage.DemandCovered},
		{"coverage_percent", r.Coverage.CoveragePercent},
		{"fully_covered", r.Coverage.Fully.Count},
		{"partially_covered", r.Coverage.Partial.Count},
		{"not_covered", r.Coverage.NotCovered.Count},
	}}
	sites := sheet{name: "Sites", header: siteHeader}
	for _, s := range r.Sites {
		sites.rows = append(sites.rows, []any{s.Rank, s.Site, s.Traffic, s.Chargers, s.Served})
	}
	areas := sheet{name: "Areas", header: areaHeader}
	for _, a := range r.Areas {
		areas.rows = append(areas.rows, []any{a.Area, a.Demand, a.Served, a.Saturation, a.Class})
	}
	served := sheet{name: "Served", header: servedHeader}
	for _, s := range r.Served {
		served.rows = append(served.rows, []any{s.Site, s.Area, s.Volume})
	}
	return writeWorkbook(w, []sheet{summary, sites, areas, served})
}

// WriteSweepXLSX writes the sweep points on a single Sweep sheet.
func WriteSweepXLSX(w io.Writer, points []sweep.Point) error {
	sh := sheet{name: "Sweep", header: sweepHeader}
	for _, p := range points {
		row := []any{p.Budget, p.BudgetUsed, p.Stations, p.Chargers, p.DemandCovered, p.CoveragePercent, p.HaltedAt}
		if p.Bounded {
			row = append(row, p.BoundCovered, p.BoundPercent)
		}
		sh.rows = append(sh.rows, row)
	}
	return writeWorkbook(w, []sheet{sh})
}
