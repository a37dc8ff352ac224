package scenarios

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/chargeplan/core/allocation"
	"github.com/kilianp07/chargeplan/core/model"
	"github.com/kilianp07/chargeplan/infra/dataset"
)

// Expected is the outcome a scenario pins down.
type Expected struct {
	Chargers         map[string]int `yaml:"chargers"`
	DemandCovered    float64        `yaml:"demand_covered"`
	FullyCovered     int            `yaml:"fully_covered"`
	PartiallyCovered int            `yaml:"partially_covered"`
	NotCovered       int            `yaml:"not_covered"`
	HaltedAt         string         `yaml:"halted_at,omitempty"`
}

// Scenario is a demand model, an allocation config and the expected result.
type Scenario struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description,omitempty"`
	Demand      dataset.File      `yaml:"demand"`
	Config      allocation.Config `yaml:"config"`
	Expected    Expected          `yaml:"expected"`
}

// Model builds the demand model of the scenario.
func (s *Scenario) Model() (*model.DemandModel, error) {
	return s.Demand.Model()
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}
