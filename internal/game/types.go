// types.go
package game

import (
	"math"

	"github.com/xtding233/enhance-sim/internal/enhance"
)

// RawProfile is a rules profile as loaded from YAML. Pointer fields stay nil
// when the file leaves them out, so layers can be merged.
type RawProfile struct {
	Version string         `yaml:"version"`
	Rules   RulesConfig    `yaml:"rules"`
	Limits  *LimitsConfig  `yaml:"limits,omitempty"`
	Filters *FiltersConfig `yaml:"filters,omitempty"`
	Cost    *CostConfig    `yaml:"cost,omitempty"`
	Search  *SearchConfig  `yaml:"search,omitempty"`
	Notes   string         `yaml:"notes,omitempty"`
}

type RulesConfig struct {
	Milestones      []int `yaml:"milestones"`
	MaxGrade        *int  `yaml:"max_grade"`
	SessionMaxGrade *int  `yaml:"session_max_grade"`
	ComboSlots      *int  `yaml:"combo_slots"`
}

// Range bounds a request parameter; Default is used when the caller sends nothing.
type Range struct {
	Min     *float64 `yaml:"min"`
	Max     *float64 `yaml:"max"`
	Default *float64 `yaml:"default"`
}

type LimitsConfig struct {
	Trials   *Range `yaml:"trials,omitempty"`
	Attempts *Range `yaml:"attempts,omitempty"`
	Cost     *Range `yaml:"cost,omitempty"`
}

type FiltersConfig struct {
	ShipClass   string `yaml:"ship_class"`
	Bow         *bool  `yaml:"bow"`
	Side        *bool  `yaml:"side"`
	Stern       *bool  `yaml:"stern"`
	Remodel     *bool  `yaml:"remodel"`
	Inheritance *bool  `yaml:"inheritance"`
}

type CostConfig struct {
	Attempt *float64 `yaml:"attempt"`
	Retry   *float64 `yaml:"retry"`
}

type SearchConfig struct {
	BatchSize *int `yaml:"batch_size"`
}

// Bounds is a normalized Range.
type Bounds struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Default float64 `json:"default"`
}

// Clamp returns v limited to [Min, Max]; nil, NaN and ±Inf mean Default.
func (b Bounds) Clamp(v *float64) float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return b.Default
	}
	return min(max(*v, b.Min), b.Max)
}

// ClampInt is Clamp for integer parameters; fractions are truncated.
func (b Bounds) ClampInt(v *int) int {
	if v == nil {
		return int(b.Default)
	}
	f := float64(*v)
	return int(b.Clamp(&f))
}

// Settings are the normalized parameters consumed by the service layer.
type Settings struct {
	Profile     string          `json:"profile"`
	Version     string          `json:"version"`
	Rules       enhance.Rules   `json:"rules"`
	Trials      Bounds          `json:"trials"`
	Attempts    Bounds          `json:"attempts"`
	Cost        Bounds          `json:"cost"`
	Filters     enhance.Filters `json:"filters"`
	AttemptCost float64         `json:"attemptCost"`
	RetryCost   float64         `json:"retryCost"`
	BatchSize   int             `json:"batchSize"`
}
