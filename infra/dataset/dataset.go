// Package dataset reads and writes demand models as YAML or JSON files.
//
//	areas:
//	  - id: A1
//	    demand: 100
//	sites: [S1, S2]
//	trips:
//	  - {site: S1, area: A1, volume: 80}
package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/chargeplan/core/model"
)

// ErrUnsupportedFormat is returned for file extensions other than yaml, yml and json.
var ErrUnsupportedFormat = errors.New("dataset: unsupported format")

// Format of a dataset file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// File is the on-disk shape of a demand model.
type File struct {
	Name  string           `json:"name,omitempty" yaml:"name,omitempty"`
	Areas []model.Area     `json:"areas" yaml:"areas"`
	Sites []string         `json:"sites" yaml:"sites"`
	Trips []model.TripEdge `json:"trips" yaml:"trips"`
}

// FormatOf derives the format from the file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// Load reads the demand model stored at path.
func Load(path string) (*model.DemandModel, error) {
	f, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := Decode(bytes.NewReader(data), f)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}
	return m, nil
}

// Decode parses a demand model. Shape violations wrap model.ErrInvalidDemand.
func Decode(r io.Reader, f Format) (*model.DemandModel, error) {
	var file File
	switch f {
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %v", model.ErrInvalidDemand, err)
		}
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %v", model.ErrInvalidDemand, err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
	return file.Model()
}

// Model validates the file and builds the indexed demand model.
func (f File) Model() (*model.DemandModel, error) {
	return model.NewDemandModel(f.Areas, f.Sites, f.Trips)
}

// FromModel converts m back into its file shape. Trips keep site then area order.
func FromModel(name string, m *model.DemandModel) File {
	if m == nil {
		return File{Name: name}
	}
	return File{
		Name:  name,
		Areas: append([]model.Area(nil), m.Areas...),
		Sites: append([]string(nil), m.Sites...),
		Trips: m.Edges(),
	}
}

// Encode writes f in the given format.
func Encode(w io.Writer, f Format, file File) error {
	switch f {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(file); err != nil {
			return err
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(file)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
}

// Save writes m to path, creating parent directories.
func Save(path, name string, m *model.DemandModel) error {
	f, err := FormatOf(path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	var buf bytes.Buffer
	if err := Encode(&buf, f, FromModel(name, m)); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
