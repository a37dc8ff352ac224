package metrics

import "github.com/kilianp07/chargeplan/core/factory"

// Config lists the sinks run events are recorded to.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks" yaml:"sinks"`
}
