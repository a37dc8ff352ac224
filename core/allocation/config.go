package allocation

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidConfiguration is returned before any allocation begins when the
// configuration cannot drive a run.
var ErrInvalidConfiguration = errors.New("invalid allocation configuration")

// BudgetPolicy selects how the budget bounds the allocation.
type BudgetPolicy string

const (
	// BudgetCount caps the total number of chargers.
	BudgetCount BudgetPolicy = "count"
	// BudgetCost caps the money spent on stations and chargers.
	BudgetCost BudgetPolicy = "cost"
)

// DistributionPolicy selects how a site's capacity is spread across areas.
type DistributionPolicy string

const (
	// DistributePriority serves areas by descending trip volume.
	DistributePriority DistributionPolicy = "priority"
	// DistributeProportional splits capacity by trip share, capped by the
	// area's remaining demand.
	DistributeProportional DistributionPolicy = "proportional"
)

// ParseBudgetPolicy converts a name into a BudgetPolicy.
func ParseBudgetPolicy(s string) (BudgetPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "count", "chargers":
		return BudgetCount, nil
	case "cost", "money":
		return BudgetCost, nil
	}
	return "", fmt.Errorf("%w: unknown budget policy %q", ErrInvalidConfiguration, s)
}

// ParseDistributionPolicy converts a name into a DistributionPolicy.
func ParseDistributionPolicy(s string) (DistributionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "priority", "priority-greedy", "greedy":
		return DistributePriority, nil
	case "proportional":
		return DistributeProportional, nil
	}
	return "", fmt.Errorf("%w: unknown distribution policy %q", ErrInvalidConfiguration, s)
}

// Config holds the recognised options of an allocation run.
type Config struct {
	CapacityPerCharger float64            `json:"capacity_per_charger" yaml:"capacity_per_charger" validate:"gt=0"`
	MaxChargersPerSite int                `json:"max_chargers_per_site" yaml:"max_chargers_per_site" validate:"gte=1"`
	BudgetPolicy       BudgetPolicy       `json:"budget_policy" yaml:"budget_policy" validate:"oneof=count cost"`
	BudgetValue        float64            `json:"budget_value" yaml:"budget_value" validate:"gte=0"`
	StationCost        float64            `json:"station_cost" yaml:"station_cost" validate:"gte=0"`
	ChargerCost        float64            `json:"charger_cost" yaml:"charger_cost" validate:"gte=0"`
	DistributionPolicy DistributionPolicy `json:"distribution_policy" yaml:"distribution_policy" validate:"oneof=priority proportional"`
	// AllowPartialCharger adds one charger on top of the fully utilised ones
	// under the count policy so a fractional remainder can be served.
	AllowPartialCharger bool `json:"allow_partial_charger" yaml:"allow_partial_charger"`
}

// WithDefaults fills empty policy names and normalises aliases.
func (c Config) WithDefaults() Config {
	if p, err := ParseBudgetPolicy(string(c.BudgetPolicy)); err == nil {
		c.BudgetPolicy = p
	}
	if p, err := ParseDistributionPolicy(string(c.DistributionPolicy)); err == nil {
		c.DistributionPolicy = p
	}
	return c
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(configRules, Config{})
	return v
}

func configRules(sl validator.StructLevel) {
	finiteRules(sl)
	costPolicyRules(sl)
}

// finiteRules rejects infinite amounts, which pass the range tags.
func finiteRules(sl validator.StructLevel) {
	c := sl.Current().Interface().(Config)
	for _, f := range []struct {
		v          float64
		tag, field string
	}{
		{c.CapacityPerCharger, "capacity_per_charger", "CapacityPerCharger"},
		{c.BudgetValue, "budget_value", "BudgetValue"},
		{c.StationCost, "station_cost", "StationCost"},
		{c.ChargerCost, "charger_cost", "ChargerCost"},
	} {
		if math.IsInf(f.v, 0) {
			sl.ReportError(f.v, f.tag, f.field, "finite", "")
		}
	}
}

// costPolicyRules requires a positive per-charger cost when money bounds the
// run.
func costPolicyRules(sl validator.StructLevel) {
	c := sl.Current().Interface().(Config)
	if c.BudgetPolicy == BudgetCost && !(c.ChargerCost > 0) {
		sl.ReportError(c.ChargerCost, "charger_cost", "ChargerCost", "required_for_cost", "")
	}
}

// Validate checks the configuration. Errors wrap ErrInvalidConfiguration.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfiguration, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gt":
		return fmt.Sprintf("%s must be > %s (got %v)", fe.Field(), fe.Param(), fe.Value())
	case "gte":
		return fmt.Sprintf("%s must be >= %s (got %v)", fe.Field(), fe.Param(), fe.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s] (got %q)", fe.Field(), fe.Param(), fe.Value())
	case "finite":
		return fmt.Sprintf("%s must be finite (got %v)", fe.Field(), fe.Value())
	case "required_for_cost":
		return fmt.Sprintf("%s must be > 0 under the cost budget policy", fe.Field())
	}
	return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
}
