package enhance

import (
	"slices"
	"sync"

	"github.com/xtding233/enhance-sim/internal/catalog"
)

// Rules fixes the enhancement track: draws happen at Milestones, a run ends at MaxGrade.
type Rules struct {
	Milestones []int `json:"milestones" yaml:"milestones"`
	MaxGrade   int   `json:"maxGrade" yaml:"max_grade"`
	ComboSlots int   `json:"comboSlots" yaml:"combo_slots"`

	// SessionMaxGrade caps manual sessions, which stop short of MaxGrade.
	SessionMaxGrade int `json:"sessionMaxGrade" yaml:"session_max_grade"`
}

// DefaultRules mirrors the live game: draws at grades 1, 3 and 6, terminal grade 8.
func DefaultRules() Rules {
	return Rules{Milestones: []int{1, 3, 6}, MaxGrade: 8, ComboSlots: 3, SessionMaxGrade: 6}
}

// Filters selects which optional categories may drop. Pure value.
type Filters struct {
	ShipClass   catalog.ShipClass `json:"shipClass"`
	Bow         bool              `json:"bow"`
	Side        bool              `json:"side"`
	Stern       bool              `json:"stern"`
	Remodel     bool              `json:"remodel"`
	Inheritance bool              `json:"inheritance"`
}

// DefaultFilters: sailing ship, inheritance on, every other toggle off.
func DefaultFilters() Filters {
	return Filters{ShipClass: catalog.ShipSail, Inheritance: true}
}

func (f Filters) normalized() Filters {
	if f.ShipClass == catalog.ShipAny {
		f.ShipClass = catalog.ShipSail
	}
	return f
}

// Acquisition is one successful draw. PoolSize fixes its probability at 1/PoolSize.
type Acquisition struct {
	Milestone int            `json:"milestone"`
	Option    catalog.Option `json:"option"`
	PoolSize  int            `json:"poolSize"`
}

// RunResult is the outcome of one simulated enhancement session.
type RunResult struct {
	FinalGrade    int           `json:"finalGrade"`
	Acquisitions  []Acquisition `json:"acquisitions"`
	TargetMatched bool          `json:"targetMatched"`
}

// RunConfig configures SimulateRun.
type RunConfig struct {
	Filters           Filters
	Target            Target
	StopWhenTargetMet bool
	// Seed holds options the ship already carries. Milestones up to the last
	// seeded one are not drawn again.
	Seed []Acquisition
}

// Draw is the result of a single roll.
type Draw struct {
	Option   catalog.Option `json:"option"`
	PoolSize int            `json:"poolSize"`
}

// Engine evaluates enhancement runs against a read-only catalog and rule set.
// It holds no state between calls and is safe for concurrent use.
type Engine struct {
	cat       *catalog.Catalog
	options   []catalog.Option
	rules     Rules
	milestone map[int]bool

	comboOnce sync.Once
	combos    []string
}

// NewEngine builds an engine. Zero-valued rule fields fall back to DefaultRules.
func NewEngine(cat *catalog.Catalog, rules Rules) *Engine {
	def := DefaultRules()
	if len(rules.Milestones) == 0 {
		rules.Milestones = def.Milestones
	}
	if rules.MaxGrade <= 0 {
		rules.MaxGrade = def.MaxGrade
	}
	if rules.ComboSlots <= 0 {
		rules.ComboSlots = def.ComboSlots
	}
	if rules.SessionMaxGrade <= 0 || rules.SessionMaxGrade > rules.MaxGrade {
		rules.SessionMaxGrade = min(def.SessionMaxGrade, rules.MaxGrade)
	}
	rules.Milestones = slices.Clone(rules.Milestones)
	slices.Sort(rules.Milestones)
	rules.Milestones = slices.Compact(rules.Milestones)

	e := &Engine{
		cat:       cat,
		options:   cat.Options(),
		rules:     rules,
		milestone: make(map[int]bool, len(rules.Milestones)),
	}
	for _, m := range rules.Milestones {
		e.milestone[m] = true
	}
	return e
}

// Catalog returns the catalog the engine draws from.
func (e *Engine) Catalog() *catalog.Catalog { return e.cat }

// Rules returns a copy of the engine's rules.
func (e *Engine) Rules() Rules {
	r := e.rules
	r.Milestones = slices.Clone(r.Milestones)
	return r
}

// Pool lists the options eligible for the next draw, in catalog order.
// It is pure: the same history and filters always give the same pool.
func (e *Engine) Pool(acquired []Acquisition, filters Filters) []catalog.Option {
	filters = filters.normalized()
	used := make(map[catalog.OptionID]bool, len(acquired))
	for _, a := range acquired {
		used[a.Option.ID] = true
	}
	pool := make([]catalog.Option, 0, len(e.options))
	for _, o := range e.options {
		if used[o.ID] {
			continue
		}
		if o.Requires != 0 && !used[o.Requires] {
			continue
		}
		if !categoryEnabled(o.Category, filters) {
			continue
		}
		if o.Class != catalog.ShipAny && o.Class != filters.ShipClass {
			continue
		}
		pool = append(pool, o)
	}
	return pool
}

func categoryEnabled(c catalog.Category, f Filters) bool {
	switch c {
	case catalog.CategoryBow:
		return f.Bow
	case catalog.CategorySide:
		return f.Side
	case catalog.CategoryStern:
		return f.Stern
	case catalog.CategoryRemodel:
		return f.Remodel
	case catalog.CategoryInheritance:
		return f.Inheritance
	default:
		return true
	}
}

// Roll draws one option uniformly from the current pool.
// ok is false when nothing is eligible.
func (e *Engine) Roll(acquired []Acquisition, filters Filters, rng RandomSource) (Draw, bool) {
	pool := e.Pool(acquired, filters)
	if len(pool) == 0 {
		return Draw{}, false
	}
	return Draw{Option: pool[pick(rng, len(pool))], PoolSize: len(pool)}, true
}

func pick(rng RandomSource, n int) int {
	i := int(rng.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

// SimulateRun advances one session from grade 0 to MaxGrade, drawing once per
// milestone. An empty pool skips the milestone; the grade still advances.
func (e *Engine) SimulateRun(cfg RunConfig, rng RandomSource) RunResult {
	acquired := make([]Acquisition, 0, len(e.rules.Milestones)+len(cfg.Seed))
	acquired = append(acquired, cfg.Seed...)
	grade := 0
	for _, a := range cfg.Seed {
		grade = max(grade, a.Milestone)
	}
	matched := len(acquired) > 0 && cfg.Target.SatisfiedBy(acquired)
	if matched && cfg.StopWhenTargetMet {
		return RunResult{FinalGrade: grade, Acquisitions: acquired, TargetMatched: true}
	}

	for next := grade + 1; next <= e.rules.MaxGrade; next++ {
		grade = next
		if !e.milestone[grade] {
			continue
		}
		d, ok := e.Roll(acquired, cfg.Filters, rng)
		if !ok {
			continue
		}
		acquired = append(acquired, Acquisition{Milestone: grade, Option: d.Option, PoolSize: d.PoolSize})
		matched = cfg.Target.SatisfiedBy(acquired)
		if matched && cfg.StopWhenTargetMet {
			break
		}
	}
	if !matched && cfg.Target.Empty() {
		matched = true
	}
	return RunResult{FinalGrade: grade, Acquisitions: acquired, TargetMatched: matched}
}
