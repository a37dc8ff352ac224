// Package export writes allocation reports, sweep points and solver
// comparisons as CSV, JSON, XLSX workbooks and HTML charts.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kilianp07/chargeplan/core/allocation"
	"github.com/kilianp07/chargeplan/core/coverage"
	"github.com/kilianp07/chargeplan/core/model"
	"github.com/kilianp07/chargeplan/core/solver"
	"github.com/kilianp07/chargeplan/core/sweep"
)

// ErrUnsupportedFormat is returned for unknown export formats.
var ErrUnsupportedFormat = errors.New("export: unsupported format")

// Format is an output format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
	FormatHTML Format = "html"
)

// ParseFormats normalises and validates a list of format names.
func ParseFormats(names []string) ([]Format, error) {
	out := make([]Format, 0, len(names))
	seen := make(map[Format]bool, len(names))
	for _, n := range names {
		f := Format(strings.ToLower(strings.TrimSpace(n)))
		switch f {
		case FormatCSV, FormatJSON, FormatXLSX, FormatHTML:
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, n)
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out, nil
}

// SiteRow is one ranked site of an allocation.
type SiteRow struct {
	Rank     int     `json:"rank"`
	Site     string  `json:"site"`
	Traffic  float64 `json:"traffic"`
	Chargers int     `json:"chargers"`
	Served   float64 `json:"served"`
}

// AreaRow is the coverage of one area.
type AreaRow struct {
	Area       string  `json:"area"`
	Demand     float64 `json:"demand"`
	Served     float64 `json:"served"`
	Saturation float64 `json:"saturation"`
	Class      string  `json:"class"`
}

// ServedRow is the volume served on one site to area relation.
type ServedRow struct {
	Site   string  `json:"site"`
	Area   string  `json:"area"`
	Volume float64 `json:"volume"`
}

// Report is the tabular view of an allocation run.
type Report struct {
	Name            string            `json:"name,omitempty"`
	Config          allocation.Config `json:"config"`
	BudgetUsed      float64           `json:"budget_used"`
	BudgetRemaining float64           `json:"budget_remaining"`
	StationsBuilt   int               `json:"stations_built"`
	ChargersBuilt   int               `json:"chargers_built"`
	HaltedAt        string            `json:"halted_at,omitempty"`
	Coverage        coverage.Report   `json:"coverage"`
	Sites           []SiteRow         `json:"sites"`
	Areas           []AreaRow         `json:"areas"`
	Served          []ServedRow       `json:"served"`
}

// NewReport flattens res. Sites follow rank order, areas and served
// relations follow model order.
func NewReport(name string, m *model.DemandModel, res allocation.Result) Report {
	r := Report{
		Name:            name,
		Config:          res.Config,
		BudgetUsed:      res.BudgetUsed,
		BudgetRemaining: res.BudgetRemaining,
		StationsBuilt:   res.StationsBuilt,
		ChargersBuilt:   res.ChargersBuilt,
		HaltedAt:        res.HaltedAt,
		Coverage:        res.Coverage,
	}
	bySite := res.Served.BySite()
	for i, rs := range res.Order {
		r.Sites = append(r.Sites, SiteRow{
			Rank:     i + 1,
			Site:     rs.ID,
			Traffic:  rs.Traffic,
			Chargers: res.Allocation[rs.ID],
			Served:   bySite[rs.ID],
		})
	}
	if m == nil {
		return r
	}
	byArea := res.Served.ByArea()
	sat := coverage.Saturation(m, res.Served)
	for _, a := range m.Areas {
		r.Areas = append(r.Areas, AreaRow{
			Area:       a.ID,
			Demand:     a.Demand,
			Served:     byArea[a.ID],
			Saturation: sat[a.ID],
			Class:      coverage.Classify(byArea[a.ID], a.Demand).String(),
		})
	}
	for _, e := range m.Edges() {
		if v := res.Served.Get(e.Site, e.Area); v > 0 {
			r.Served = append(r.Served, ServedRow{Site: e.Site, Area: e.Area, Volume: v})
		}
	}
	return r
}

// WriteJSON writes v to w as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func ff(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

var (
	siteHeader   = []string{"rank", "site", "traffic", "chargers", "served"}
	areaHeader   = []string{"area", "demand", "served", "saturation", "class"}
	servedHeader = []string{"site", "area", "volume"}
	sweepHeader  = []string{"budget", "budget_used", "stations", "chargers", "demand_covered", "coverage_percent", "halted_at", "bound_covered", "bound_percent"}
	deltaHeader  = []string{"site", "heuristic", "solver", "delta"}
)

func siteRecords(rows []SiteRow) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = []string{strconv.Itoa(r.Rank), r.Site, ff(r.Traffic), strconv.Itoa(r.Chargers), ff(r.Served)}
	}
	return out
}

func areaRecords(rows []AreaRow) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = []string{r.Area, ff(r.Demand), ff(r.Served), ff(r.Saturation), r.Class}
	}
	return out
}

func servedRecords(rows []ServedRow) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = []string{r.Site, r.Area, ff(r.Volume)}
	}
	return out
}

func sweepRecords(points []sweep.Point) [][]string {
	out := make([][]string, len(points))
	for i, p := range points {
		bc, bp := "", ""
		if p.Bounded {
			bc, bp = ff(p.BoundCovered), ff(p.BoundPercent)
		}
		out[i] = []string{ff(p.Budget), ff(p.BudgetUsed), strconv.Itoa(p.Stations), strconv.Itoa(p.Chargers),
			ff(p.DemandCovered), ff(p.CoveragePercent), p.HaltedAt, bc, bp}
	}
	return out
}

// WriteSitesCSV writes the per-site allocation.
func WriteSitesCSV(w io.Writer, r Report) error {
	return writeCSV(w, siteHeader, siteRecords(r.Sites))
}

// WriteAreasCSV writes the per-area coverage.
func WriteAreasCSV(w io.Writer, r Report) error {
	return writeCSV(w, areaHeader, areaRecords(r.Areas))
}

// WriteServedCSV writes the served site to area volumes.
func WriteServedCSV(w io.Writer, r Report) error {
	return writeCSV(w, servedHeader, servedRecords(r.Served))
}

// WriteSweepCSV writes one line per sweep point. Bound columns are empty for
// points without a solver bound.
func WriteSweepCSV(w io.Writer, points []sweep.Point) error {
	return writeCSV(w, sweepHeader, sweepRecords(points))
}

// WriteComparisonCSV writes the per-site charger deltas.
func WriteComparisonCSV(w io.Writer, cmp solver.Comparison) error {
	rows := make([][]string, len(cmp.Sites))
	for i, d := range cmp.Sites {
		rows[i] = []string{d.Site, strconv.Itoa(d.Heuristic), ff(d.Solver), ff(d.Delta)}
	}
	return writeCSV(w, deltaHeader, rows)
}
