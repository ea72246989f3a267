package service

import (
	"errors"
	"fmt"

	"github.com/xtding233/enhance-sim/internal/catalog"
	"github.com/xtding233/enhance-sim/internal/enhance"
	"github.com/xtding233/enhance-sim/internal/game"
	"github.com/xtding233/enhance-sim/internal/pricing"
)

// FilterInput overrides the profile's default filters field by field.
type FilterInput struct {
	ShipClass   *string `json:"shipClass,omitempty"`
	Bow         *bool   `json:"bow,omitempty"`
	Side        *bool   `json:"side,omitempty"`
	Stern       *bool   `json:"stern,omitempty"`
	Remodel     *bool   `json:"remodel,omitempty"`
	Inheritance *bool   `json:"inheritance,omitempty"`
}

// TargetInput selects options by id, by short code count, or as a combo preset
// such as "가가승". All three forms combine.
type TargetInput struct {
	Combo string         `json:"combo,omitempty"`
	IDs   []int          `json:"ids,omitempty"`
	Codes map[string]int `json:"codes,omitempty"`
}

type PoolRequest struct {
	Filters  FilterInput `json:"filters"`
	Acquired []int       `json:"acquired,omitempty"` // option ids in acquisition order
}

type PoolResponse struct {
	Pool   []catalog.Option    `json:"pool"`
	Size   int                 `json:"size"`
	Chains []enhance.ChainStep `json:"chains"`
}

type RollRequest struct {
	Filters  FilterInput `json:"filters"`
	Acquired []int       `json:"acquired,omitempty"`
	Seed     *uint64     `json:"seed,omitempty"`
}

type RollResponse struct {
	Draw  *enhance.Draw `json:"draw,omitempty"`
	Empty bool          `json:"empty"`
}

type RunRequest struct {
	Filters           FilterInput `json:"filters"`
	Target            TargetInput `json:"target"`
	Fixed             []int       `json:"fixed,omitempty"` // current build: options already on the ship
	StopWhenTargetMet bool        `json:"stopWhenTargetMet"`
	Seed              *uint64     `json:"seed,omitempty"`
}

type RunResponse struct {
	Run     enhance.RunResult    `json:"run"`
	Summary enhance.ComboSummary `json:"summary"`
}

type SearchRequest struct {
	Filters     FilterInput `json:"filters"`
	Target      TargetInput `json:"target"`
	Fixed       []int       `json:"fixed,omitempty"`
	MaxAttempts *int        `json:"maxAttempts,omitempty"`
	KeepHistory bool        `json:"keepHistory"`
	Seed        *uint64     `json:"seed,omitempty"`
}

type PredictRequest struct {
	Filters     FilterInput `json:"filters"`
	Target      TargetInput `json:"target"`
	Fixed       []int       `json:"fixed,omitempty"`
	Trials      *int        `json:"trials,omitempty"`
	MaxAttempts *int        `json:"maxAttempts,omitempty"`
	AttemptCost *float64    `json:"attemptCost,omitempty"`
	RetryCost   *float64    `json:"retryCost,omitempty"`
	Seed        *uint64     `json:"seed,omitempty"`
}

type RankRequest struct {
	PredictRequest
	Metric string `json:"metric,omitempty"`
	// Strategies defaults to every bow/side/stern/remodel combination.
	Strategies []enhance.Strategy `json:"strategies,omitempty"`
}

type CreateSessionRequest struct {
	Filters FilterInput `json:"filters"`
	Fixed   []int       `json:"fixed,omitempty"`
	Seed    *uint64     `json:"seed,omitempty"`
}

func (f FilterInput) apply(base enhance.Filters) enhance.Filters {
	if f.ShipClass != nil {
		base.ShipClass = catalog.ShipClass(*f.ShipClass)
	}
	set := func(dst *bool, v *bool) {
		if v != nil {
			*dst = *v
		}
	}
	set(&base.Bow, f.Bow)
	set(&base.Side, f.Side)
	set(&base.Stern, f.Stern)
	set(&base.Remodel, f.Remodel)
	set(&base.Inheritance, f.Inheritance)
	return base
}

func (f FilterInput) validate() error {
	if f.ShipClass == nil {
		return nil
	}
	switch catalog.ShipClass(*f.ShipClass) {
	case catalog.ShipAny, catalog.ShipSail, catalog.ShipGalley:
		return nil
	}
	return fmt.Errorf("%w: ship class %q", ErrInvalidInput, *f.ShipClass)
}

func (t TargetInput) resolve(cat *catalog.Catalog) (enhance.Target, error) {
	ids := make([]catalog.OptionID, 0, len(t.IDs))
	for _, id := range t.IDs {
		if _, ok := cat.Lookup(catalog.OptionID(id)); !ok {
			return enhance.Target{}, fmt.Errorf("%w: %d", ErrUnknownOption, id)
		}
		ids = append(ids, catalog.OptionID(id))
	}
	codes := map[catalog.ShortCode]int{}
	for code, n := range enhance.ParseCombo(cat, t.Combo).Codes {
		codes[code] += n
	}
	for code, n := range t.Codes {
		c := catalog.ShortCode(code)
		if !cat.IsCode(c) {
			return enhance.Target{}, fmt.Errorf("%w: code %q", ErrInvalidInput, code)
		}
		codes[c] += n
	}
	return enhance.NewTarget(ids, codes), nil
}

// requiredTarget is resolve plus ErrNoTarget for an empty selection.
func (t TargetInput) requiredTarget(cat *catalog.Catalog) (enhance.Target, error) {
	tg, err := t.resolve(cat)
	if err != nil {
		return enhance.Target{}, err
	}
	if tg.Empty() {
		return enhance.Target{}, ErrNoTarget
	}
	return tg, nil
}

// history maps ids to acquisitions at consecutive milestones; pool sizes are
// unknown and recorded as 1.
func history(e *enhance.Engine, ids []int) ([]enhance.Acquisition, error) {
	milestones := e.Rules().Milestones
	if len(ids) > len(milestones) {
		return nil, fmt.Errorf("%w: %d options for %d milestones", ErrTooManyFixed, len(ids), len(milestones))
	}
	out := make([]enhance.Acquisition, 0, len(ids))
	seen := map[int]bool{}
	for i, id := range ids {
		o, ok := e.Catalog().Lookup(catalog.OptionID(id))
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnknownOption, id)
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: option %d listed twice", ErrInvalidInput, id)
		}
		seen[id] = true
		out = append(out, enhance.Acquisition{Milestone: milestones[i], Option: o, PoolSize: 1})
	}
	return out, nil
}

// fixedBuild is history for a current build: at most Rules.MaxFixed options,
// each with a short code.
func fixedBuild(e *enhance.Engine, ids []int) ([]enhance.Acquisition, error) {
	seed, err := history(e, ids)
	if err != nil {
		return nil, err
	}
	for i, a := range seed {
		if err := e.CheckFixed(a.Option, i); err != nil {
			return nil, fixedErr(err)
		}
	}
	return seed, nil
}

func fixedErr(err error) error {
	if errors.Is(err, enhance.ErrFixedLimit) {
		return fmt.Errorf("%w: %w", ErrTooManyFixed, err)
	}
	return fmt.Errorf("%w: %w", ErrInvalidInput, err)
}

func costModel(s game.Settings, attempt, retry *float64) pricing.CostModel {
	a := s.AttemptCost
	if attempt != nil {
		a = s.Cost.Clamp(attempt)
	}
	r := s.RetryCost
	if retry != nil {
		r = s.Cost.Clamp(retry)
	}
	// Clamp maps non-finite input to the default and profiles reject it, so
	// both values are finite and >= 0 here
	m, _ := pricing.NewCostModel(a, r)
	return m
}

func rng(seed *uint64) enhance.RandomSource {
	if seed != nil {
		return enhance.NewSeededRNG(*seed)
	}
	return enhance.DefaultRNG()
}

func factory(seed *uint64) enhance.SourceFactory {
	if seed != nil {
		return enhance.SeededFactory(*seed)
	}
	return enhance.DefaultFactory()
}
