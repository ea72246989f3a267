// resolve.go
package game

import (
	"errors"
	"fmt"

	"github.com/xtding233/enhance-sim/internal/catalog"
	"github.com/xtding233/enhance-sim/internal/enhance"
)

var ErrInvalidProfile = errors.New("profile validation failed")

// Resolver turns a profile name into validated engine settings.
type Resolver interface {
	// Returns merged RawProfile and normalized Settings
	Resolve(profile string) (RawProfile, Settings, error)
}

// Resolve loads, validates and normalizes profile.
func (l *Loader) Resolve(profile string) (RawProfile, Settings, error) {
	raw, err := l.LoadMerged(profile)
	if err != nil {
		return RawProfile{}, Settings{}, err
	}
	if err := ValidateRaw(raw); err != nil {
		return raw, Settings{}, fmt.Errorf("profile %s: %w", orDefault(profile), err)
	}
	return raw, Normalize(orDefault(profile), raw), nil
}

func orDefault(profile string) string {
	if profile == "" {
		return DefaultProfile
	}
	return profile
}

// Normalize fills every unset field of a validated profile from the built-in
// rules and returns the settings the service runs with.
func Normalize(name string, raw RawProfile) Settings {
	rules := enhance.DefaultRules()
	if len(raw.Rules.Milestones) > 0 {
		rules.Milestones = append([]int(nil), raw.Rules.Milestones...)
	}
	rules.MaxGrade = deref(raw.Rules.MaxGrade, rules.MaxGrade)
	rules.SessionMaxGrade = deref(raw.Rules.SessionMaxGrade, min(rules.SessionMaxGrade, rules.MaxGrade))
	rules.ComboSlots = deref(raw.Rules.ComboSlots, rules.ComboSlots)

	s := Settings{
		Profile:   name,
		Version:   raw.Version,
		Rules:     rules,
		Trials:    Bounds{Min: 50, Max: 200000, Default: 3000},
		Attempts:  Bounds{Min: 1, Max: 100, Default: 100},
		Cost:      Bounds{Min: 0, Max: 1e9, Default: 0},
		Filters:   enhance.DefaultFilters(),
		BatchSize: enhance.DefaultBatchSize,
	}
	if raw.Limits != nil {
		s.Trials = bounds(raw.Limits.Trials, s.Trials)
		s.Attempts = bounds(raw.Limits.Attempts, s.Attempts)
		s.Cost = bounds(raw.Limits.Cost, s.Cost)
	}
	if f := raw.Filters; f != nil {
		if f.ShipClass != "" {
			s.Filters.ShipClass = catalog.ShipClass(f.ShipClass)
		}
		s.Filters.Bow = deref(f.Bow, s.Filters.Bow)
		s.Filters.Side = deref(f.Side, s.Filters.Side)
		s.Filters.Stern = deref(f.Stern, s.Filters.Stern)
		s.Filters.Remodel = deref(f.Remodel, s.Filters.Remodel)
		s.Filters.Inheritance = deref(f.Inheritance, s.Filters.Inheritance)
	}
	if raw.Cost != nil {
		s.AttemptCost = s.Cost.Clamp(raw.Cost.Attempt)
		s.RetryCost = s.Cost.Clamp(raw.Cost.Retry)
	}
	if raw.Search != nil {
		s.BatchSize = deref(raw.Search.BatchSize, s.BatchSize)
	}
	return s
}

func bounds(r *Range, def Bounds) Bounds {
	if r == nil {
		return def
	}
	return Bounds{
		Min:     deref(r.Min, def.Min),
		Max:     deref(r.Max, def.Max),
		Default: deref(r.Default, def.Default),
	}
}

func deref[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}
