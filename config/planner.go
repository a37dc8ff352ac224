package config

import (
	"fmt"

	"github.com/kilianp07/chargeplan/core/solver"
	"github.com/kilianp07/chargeplan/core/sweep"
	"github.com/kilianp07/chargeplan/pkg/export"
)

// DatasetConfig locates the demand model file.
type DatasetConfig struct {
	Path string `json:"path"`
}

// SolverConfig tunes the LP relaxation bound.
type SolverConfig struct {
	MaxVariables int `json:"max_variables"`
}

func (c *SolverConfig) SetDefaults() {
	if c.MaxVariables == 0 {
		c.MaxVariables = solver.DefaultMaxVariables
	}
}

func (c SolverConfig) Validate() error {
	if c.MaxVariables < 0 {
		return fmt.Errorf("solver.max_variables must be positive")
	}
	return nil
}

// SweepConfig describes the budgets of a sweep. Bound also runs the solver
// at every point.
type SweepConfig struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Step  float64 `json:"step"`
	Bound bool    `json:"bound"`
}

func (c *SweepConfig) SetDefaults() {
	if c.Step == 0 {
		c.Step = 1
	}
}

func (c SweepConfig) Validate() error {
	if c.Start == 0 && c.End == 0 {
		return nil
	}
	_, err := c.Budgets()
	return err
}

// Budgets expands the range into the list of budgets.
func (c SweepConfig) Budgets() ([]float64, error) {
	return sweep.Budgets(c.Start, c.End, c.Step)
}

// ExportConfig selects where and how run outputs are written. An empty Dir
// disables export.
type ExportConfig struct {
	Dir     string   `json:"dir"`
	Formats []string `json:"formats"`
}

func (c ExportConfig) Validate() error {
	_, err := export.ParseFormats(c.Formats)
	return err
}
