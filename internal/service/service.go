// Package service is the application layer shared by the HTTP API, the gRPC
// server and the CLI: it clamps request parameters to the active rules
// profile, resolves targets and randomness, and runs the engine.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/xtding233/enhance-sim/internal/catalog"
	"github.com/xtding233/enhance-sim/internal/enhance"
	"github.com/xtding233/enhance-sim/internal/game"
	"github.com/xtding233/enhance-sim/internal/logger"
	"github.com/xtding233/enhance-sim/internal/metrics"
)

var (
	ErrNoTarget      = errors.New("no target option selected")
	ErrNotFound      = errors.New("not found")
	ErrTooMany       = errors.New("too many active jobs")
	ErrUnknownOption = enhance.ErrUnknownOption
	ErrTooManyFixed  = errors.New("too many fixed options")
	ErrInvalidInput  = errors.New("invalid input")
)

// Options tunes resource limits. Zero values pick sane defaults.
type Options struct {
	MaxSessions   int
	MaxSearches   int
	SearchTTL     time.Duration // how long a finished search stays queryable
	SessionTTL    time.Duration // idle time after which a session is dropped
	PredictBudget time.Duration // 0: predictions run to completion
	Metrics       *metrics.Metrics
}

// Service is safe for concurrent use.
type Service struct {
	resolver game.Resolver
	profile  string
	opts     Options
	metrics  *metrics.Metrics

	mu       sync.RWMutex
	settings game.Settings
	engine   *enhance.Engine

	searches *searchStore
	sessions *sessionStore
}

// New resolves profile and builds the engine for it.
func New(resolver game.Resolver, profile string, opts Options) (*Service, error) {
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = 1000
	}
	if opts.MaxSearches <= 0 {
		opts.MaxSearches = 100
	}
	if opts.SearchTTL <= 0 {
		opts.SearchTTL = 10 * time.Minute
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 30 * time.Minute
	}
	s := &Service{
		resolver: resolver,
		profile:  profile,
		opts:     opts,
		metrics:  opts.Metrics,
	}
	s.searches = newSearchStore(opts.MaxSearches, opts.SearchTTL)
	s.sessions = newSessionStore(opts.MaxSessions, opts.SessionTTL)
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-resolves the profile. Running searches and open sessions keep
// the engine they started with.
func (s *Service) Reload() error {
	_, settings, err := s.resolver.Resolve(s.profile)
	if err != nil {
		return err
	}
	engine := enhance.NewEngine(catalog.Default(), settings.Rules)
	s.mu.Lock()
	s.settings = settings
	s.engine = engine
	s.mu.Unlock()
	logger.Info(context.Background(), "rules profile loaded",
		"profile", settings.Profile, "version", settings.Version, "milestones", settings.Rules.Milestones)
	return nil
}

// Settings returns the active profile settings.
func (s *Service) Settings() game.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

func (s *Service) current() (game.Settings, *enhance.Engine) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings, s.engine
}

// Catalog lists every option in catalog order.
func (s *Service) Catalog() []catalog.Option {
	_, e := s.current()
	return e.Catalog().Options()
}

// Close cancels running searches.
func (s *Service) Close() {
	s.searches.cancelAll()
}
