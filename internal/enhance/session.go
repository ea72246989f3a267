package enhance

import (
	"errors"
	"fmt"

	"github.com/xtding233/enhance-sim/internal/catalog"
)

var (
	ErrSessionStarted = errors.New("session already enhanced past its fixed options")
	ErrUnknownOption  = errors.New("unknown option id")
	ErrDuplicateFixed = errors.New("option already fixed in this session")
	ErrNoMilestone    = errors.New("no milestone left to fix an option at")
	ErrFixedLimit     = errors.New("too many fixed options")
	ErrUncodedFixed   = errors.New("only options with a short code can be fixed")
)

// MaxFixed is how many leading milestones a current build may preset. The
// last milestone is always drawn.
func (r Rules) MaxFixed() int { return max(len(r.Milestones)-1, 0) }

// CheckFixed reports whether o may join a current build that already has n
// fixed options.
func (e *Engine) CheckFixed(o catalog.Option, n int) error {
	if limit := e.rules.MaxFixed(); n >= limit {
		return fmt.Errorf("%w: at most %d", ErrFixedLimit, limit)
	}
	if o.Code == "" {
		return fmt.Errorf("%w: %d", ErrUncodedFixed, o.ID)
	}
	return nil
}

// Session is a manually driven enhancement: one milestone per Enhance call,
// up to the rules' SessionMaxGrade. Not safe for concurrent use.
type Session struct {
	engine  *Engine
	rng     RandomSource
	started bool

	Filters  Filters       `json:"filters"`
	Grade    int           `json:"grade"`
	Acquired []Acquisition `json:"acquired"`
	Carriers int           `json:"carriers"` // resets used so far
	Fixed    int           `json:"fixed"`    // leading acquisitions that were preset, not rolled
}

// SessionStep is what a single Enhance call did.
type SessionStep struct {
	Grade    int   `json:"grade"`
	Draw     *Draw `json:"draw,omitempty"`
	Empty    bool  `json:"empty"`    // milestone reached with nothing eligible
	Complete bool  `json:"complete"` // no milestone left below the cap
}

// NewSession starts a session at grade 0. rng is required.
func (e *Engine) NewSession(filters Filters, rng RandomSource) *Session {
	return &Session{engine: e, rng: rng, Filters: filters, Acquired: []Acquisition{}}
}

// Fix presets the option obtained at the next milestone, as when a player
// enters a ship that already carries options. Fixed options count as drawn
// from a pool of one.
func (s *Session) Fix(id catalog.OptionID) error {
	if s.started {
		return ErrSessionStarted
	}
	o, ok := s.engine.cat.Lookup(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownOption, id)
	}
	for _, a := range s.Acquired {
		if a.Option.ID == id {
			return fmt.Errorf("%w: %d", ErrDuplicateFixed, id)
		}
	}
	if err := s.engine.CheckFixed(o, s.Fixed); err != nil {
		return err
	}
	next, ok := s.nextMilestone()
	if !ok {
		return ErrNoMilestone
	}
	s.Grade = next
	s.Acquired = append(s.Acquired, Acquisition{Milestone: next, Option: o, PoolSize: 1})
	s.Fixed++
	return nil
}

func (s *Session) nextMilestone() (int, bool) {
	for _, m := range s.engine.rules.Milestones {
		if m > s.Grade && m <= s.engine.rules.SessionMaxGrade {
			return m, true
		}
	}
	return 0, false
}

// CanEnhance reports whether another milestone is reachable.
func (s *Session) CanEnhance() bool {
	_, ok := s.nextMilestone()
	return ok
}

// Enhance jumps to the next milestone and draws there.
func (s *Session) Enhance() SessionStep {
	next, ok := s.nextMilestone()
	if !ok {
		return SessionStep{Grade: s.Grade, Complete: true}
	}
	s.Grade = next
	s.started = true
	d, ok := s.engine.Roll(s.Acquired, s.Filters, s.rng)
	if !ok {
		return SessionStep{Grade: next, Empty: true, Complete: !s.CanEnhance()}
	}
	s.Acquired = append(s.Acquired, Acquisition{Milestone: next, Option: d.Option, PoolSize: d.PoolSize})
	return SessionStep{Grade: next, Draw: &d, Complete: !s.CanEnhance()}
}

// UseCarrier spends one reset: back to grade 0 with nothing acquired,
// fixed options included.
func (s *Session) UseCarrier() {
	s.Carriers++
	s.clear()
}

// Reset clears the session including the carrier count.
func (s *Session) Reset() {
	s.Carriers = 0
	s.clear()
}

func (s *Session) clear() {
	s.Grade = 0
	s.Acquired = []Acquisition{}
	s.Fixed = 0
	s.started = false
}

// SetFilters replaces the filters used by later draws.
func (s *Session) SetFilters(f Filters) { s.Filters = f }

// Pool is the pool the next Enhance call would draw from.
func (s *Session) Pool() []catalog.Option {
	return s.engine.Pool(s.Acquired, s.Filters)
}

// Chains reports chain progress for the current history.
func (s *Session) Chains() []ChainStep {
	return s.engine.ChainProgress(s.Acquired, s.Filters)
}

// Summary renders the current history in combo notation.
func (s *Session) Summary() ComboSummary {
	return Summarize(s.Acquired)
}
