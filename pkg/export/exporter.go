package export

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/kilianp07/chargeplan/core/solver"
	"github.com/kilianp07/chargeplan/core/sweep"
)

// Exporter writes run outputs into Dir in every configured format. Formats
// that do not apply to an output are skipped.
type Exporter struct {
	Dir     string
	Formats []Format
}

// New validates formats and returns an Exporter writing into dir.
func New(dir string, formats []string) (*Exporter, error) {
	fs, err := ParseFormats(formats)
	if err != nil {
		return nil, err
	}
	return &Exporter{Dir: dir, Formats: fs}, nil
}

// Enabled reports whether the exporter writes anything.
func (e *Exporter) Enabled() bool { return e != nil && e.Dir != "" && len(e.Formats) > 0 }

func (e *Exporter) has(f Format) bool { return slices.Contains(e.Formats, f) }

// Report writes an allocation report and returns the created paths.
func (e *Exporter) Report(name string, r Report) ([]string, error) {
	if !e.Enabled() {
		return nil, nil
	}
	var files []string
	if e.has(FormatJSON) {
		files = append(files, name+".json")
		if err := e.write(name+".json", func(w io.Writer) error { return WriteJSON(w, r) }); err != nil {
			return nil, err
		}
	}
	if e.has(FormatCSV) {
		outputs := []struct {
			suffix string
			fn     func(io.Writer, Report) error
		}{
			{"_sites.csv", WriteSitesCSV},
			{"_areas.csv", WriteAreasCSV},
			{"_served.csv", WriteServedCSV},
		}
		for _, o := range outputs {
			files = append(files, name+o.suffix)
			if err := e.write(name+o.suffix, func(w io.Writer) error { return o.fn(w, r) }); err != nil {
				return nil, err
			}
		}
	}
	if e.has(FormatXLSX) {
		files = append(files, name+".xlsx")
		if err := e.write(name+".xlsx", func(w io.Writer) error { return WriteReportXLSX(w, r) }); err != nil {
			return nil, err
		}
	}
	return e.paths(files), nil
}

// Sweep writes sweep points and, for html, the coverage chart.
func (e *Exporter) Sweep(name string, points []sweep.Point) ([]string, error) {
	if !e.Enabled() {
		return nil, nil
	}
	outputs := map[Format]func(io.Writer) error{
		FormatJSON: func(w io.Writer) error { return WriteJSON(w, points) },
		FormatCSV:  func(w io.Writer) error { return WriteSweepCSV(w, points) },
		FormatXLSX: func(w io.Writer) error { return WriteSweepXLSX(w, points) },
		FormatHTML: func(w io.Writer) error { return WriteSweepChart(w, name, points) },
	}
	var files []string
	for _, f := range e.Formats {
		file := name + "." + string(f)
		if err := e.write(file, outputs[f]); err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return e.paths(files), nil
}

// Comparison writes a heuristic versus solver comparison as json and csv.
func (e *Exporter) Comparison(name string, cmp solver.Comparison) ([]string, error) {
	if !e.Enabled() {
		return nil, nil
	}
	var files []string
	if e.has(FormatJSON) {
		files = append(files, name+".json")
		if err := e.write(name+".json", func(w io.Writer) error { return WriteJSON(w, cmp) }); err != nil {
			return nil, err
		}
	}
	if e.has(FormatCSV) {
		files = append(files, name+".csv")
		if err := e.write(name+".csv", func(w io.Writer) error { return WriteComparisonCSV(w, cmp) }); err != nil {
			return nil, err
		}
	}
	return e.paths(files), nil
}

func (e *Exporter) paths(files []string) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = filepath.Join(e.Dir, f)
	}
	return out
}

func (e *Exporter) write(file string, fn func(io.Writer) error) error {
	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(e.Dir, file))
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	if err := fn(bw); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
