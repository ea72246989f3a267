package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xtding233/enhance-sim/internal/catalog"
	"github.com/xtding233/enhance-sim/internal/enhance"
	"github.com/xtding233/enhance-sim/internal/logger"
	"github.com/xtding233/enhance-sim/internal/pricing"
)

// SessionView is what clients see of an interactive session.
type SessionView struct {
	ID          string                `json:"id"`
	Filters     enhance.Filters       `json:"filters"`
	Grade       int                   `json:"grade"`
	MaxGrade    int                   `json:"maxGrade"`
	Acquired    []enhance.Acquisition `json:"acquired"`
	Fixed       int                   `json:"fixed"`
	Carriers    int                   `json:"carriers"`
	CarrierCost decimal.Decimal       `json:"carrierCost"`
	CanEnhance  bool                  `json:"canEnhance"`
	Pool        []catalog.Option      `json:"pool"`
	Chains      []enhance.ChainStep   `json:"chains"`
	Summary     enhance.ComboSummary  `json:"summary"`
	LastStep    *enhance.SessionStep  `json:"lastStep,omitempty"`
}

type sessionEntry struct {
	mu       sync.Mutex
	sess     *enhance.Session
	maxGrade int
	cost     pricing.CostModel

	lastUsed time.Time // guarded by sessionStore.mu
}

func (en *sessionEntry) view(id string, step *enhance.SessionStep) SessionView {
	s := en.sess
	return SessionView{
		ID:          id,
		Filters:     s.Filters,
		Grade:       s.Grade,
		MaxGrade:    en.maxGrade,
		Acquired:    append([]enhance.Acquisition{}, s.Acquired...),
		Fixed:       s.Fixed,
		Carriers:    s.Carriers,
		CarrierCost: en.cost.CarrierCost(s.Carriers),
		CanEnhance:  s.CanEnhance(),
		Pool:        s.Pool(),
		Chains:      s.Chains(),
		Summary:     s.Summary(),
		LastStep:    step,
	}
}

type sessionStore struct {
	limit int
	ttl   time.Duration
	now   func() time.Time

	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

func newSessionStore(limit int, ttl time.Duration) *sessionStore {
	return &sessionStore{limit: limit, ttl: ttl, now: time.Now, sessions: make(map[string]*sessionEntry)}
}

// purge drops sessions idle for longer than the TTL. Caller holds mu.
func (st *sessionStore) purge(now time.Time) {
	for id, en := range st.sessions {
		if now.Sub(en.lastUsed) > st.ttl {
			delete(st.sessions, id)
		}
	}
}

// add stores en under a new id unless the store is full.
func (st *sessionStore) add(en *sessionEntry) (id string, n int, err error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	now := st.now()
	st.purge(now)
	if len(st.sessions) >= st.limit {
		return "", len(st.sessions), fmt.Errorf("%w: %d sessions open", ErrTooMany, st.limit)
	}
	id = uuid.NewString()
	en.lastUsed = now
	st.sessions[id] = en
	return id, len(st.sessions), nil
}

// get returns a live session and marks it used.
func (st *sessionStore) get(id string) (*sessionEntry, int, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	now := st.now()
	st.purge(now)
	en, ok := st.sessions[id]
	if !ok {
		return nil, len(st.sessions), fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	en.lastUsed = now
	return en, len(st.sessions), nil
}

func (s *Service) trackSessions(n int) {
	if s.metrics != nil {
		s.metrics.SessionsActive.Set(float64(n))
	}
}

// CreateSession opens an interactive session, optionally with options the
// ship already carries fixed at the first milestones.
func (s *Service) CreateSession(ctx context.Context, req CreateSessionRequest) (SessionView, error) {
	settings, e := s.current()
	if err := req.Filters.validate(); err != nil {
		return SessionView{}, err
	}
	sess := e.NewSession(req.Filters.apply(settings.Filters), rng(req.Seed))
	for _, id := range req.Fixed {
		if err := sess.Fix(catalog.OptionID(id)); err != nil {
			return SessionView{}, fixedErr(err)
		}
	}
	en := &sessionEntry{
		sess:     sess,
		maxGrade: e.Rules().SessionMaxGrade,
		cost:     costModel(settings, nil, nil),
	}

	id, n, err := s.sessions.add(en)
	s.trackSessions(n)
	if err != nil {
		return SessionView{}, err
	}
	logger.Debug(ctx, "session created", "id", id, "fixed", len(req.Fixed))
	return en.view(id, nil), nil
}

// Session returns a session's state.
func (s *Service) Session(id string) (SessionView, error) {
	return s.withSession(id, func(en *sessionEntry) *enhance.SessionStep { return nil })
}

// Enhance advances a session to its next milestone.
func (s *Service) Enhance(id string) (SessionView, error) {
	return s.withSession(id, func(en *sessionEntry) *enhance.SessionStep {
		step := en.sess.Enhance()
		return &step
	})
}

// UseCarrier resets a session to grade 0 and counts the carrier.
func (s *Service) UseCarrier(id string) (SessionView, error) {
	return s.withSession(id, func(en *sessionEntry) *enhance.SessionStep {
		en.sess.UseCarrier()
		return nil
	})
}

// ResetSession clears a session including its carrier count.
func (s *Service) ResetSession(id string) (SessionView, error) {
	return s.withSession(id, func(en *sessionEntry) *enhance.SessionStep {
		en.sess.Reset()
		return nil
	})
}

func (s *Service) withSession(id string, fn func(*sessionEntry) *enhance.SessionStep) (SessionView, error) {
	en, n, err := s.sessions.get(id)
	s.trackSessions(n)
	if err != nil {
		return SessionView{}, err
	}
	en.mu.Lock()
	defer en.mu.Unlock()
	step := fn(en)
	return en.view(id, step), nil
}

// DeleteSession drops a session.
func (s *Service) DeleteSession(id string) error {
	st := s.sessions
	st.mu.Lock()
	_, ok := st.sessions[id]
	delete(st.sessions, id)
	n := len(st.sessions)
	st.mu.Unlock()
	s.trackSessions(n)
	if !ok {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return nil
}
