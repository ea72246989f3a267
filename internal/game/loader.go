package game

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var embeddedDefault []byte

// DefaultProfile is the name of the base layer.
const DefaultProfile = "default"

var ErrBadProfileName = errors.New("invalid profile name")

// Paths helper for profile files.
type Paths struct {
	BaseDir string // base directory, e.g., /opt/app/rules
}

func (p Paths) DefaultPath() string {
	return p.ProfilePath(DefaultProfile)
}
func (p Paths) ProfilePath(name string) string {
	return filepath.Join(p.BaseDir, "profiles", name+".yaml")
}

// Loader reads YAML profiles and merges embedded default → default.yaml → profile.
type Loader struct {
	paths Paths

	mu    sync.RWMutex
	cache map[string]RawProfile // key: profile name
}

// NewLoader creates a profile loader. An empty baseDir serves the embedded default only.
func NewLoader(baseDir string) *Loader {
	return &Loader{
		paths: Paths{BaseDir: baseDir},
		cache: make(map[string]RawProfile),
	}
}

// Paths returns the files the loader reads, for the watcher.
func (l *Loader) Paths() Paths { return l.paths }

// LoadMerged loads and merges the layers for profile ("" means default).
// It returns the merged RawProfile (without normalization).
func (l *Loader) LoadMerged(profile string) (RawProfile, error) {
	if profile == "" {
		profile = DefaultProfile
	}
	if strings.ContainsAny(profile, `/\.`) {
		return RawProfile{}, fmt.Errorf("%w: %q", ErrBadProfileName, profile)
	}

	l.mu.RLock()
	if cfg, ok := l.cache[profile]; ok {
		l.mu.RUnlock()
		return cfg, nil
	}
	l.mu.RUnlock()

	var base RawProfile
	if err := yaml.Unmarshal(embeddedDefault, &base); err != nil {
		return RawProfile{}, fmt.Errorf("embedded default: %w", err)
	}
	merged := base
	if l.paths.BaseDir != "" {
		defCfg, _, err := readYAML(l.paths.DefaultPath())
		if err != nil {
			return RawProfile{}, fmt.Errorf("read default: %w", err)
		}
		merged = mergeRaw(merged, defCfg)
		if profile != DefaultProfile {
			cfg, found, err := readYAML(l.paths.ProfilePath(profile))
			if err != nil {
				return RawProfile{}, fmt.Errorf("read profile %s: %w", profile, err)
			}
			if !found {
				return RawProfile{}, fmt.Errorf("profile %s: %w", profile, os.ErrNotExist)
			}
			merged = mergeRaw(merged, cfg)
		}
	} else if profile != DefaultProfile {
		return RawProfile{}, fmt.Errorf("profile %s: %w", profile, os.ErrNotExist)
	}

	l.mu.Lock()
	l.cache[profile] = merged
	l.mu.Unlock()
	return merged, nil
}

// Invalidate clears loader's cache. Call after hot-reload detects changes.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = make(map[string]RawProfile)
}

// readYAML loads a YAML file into RawProfile. Missing files return a zero
// profile and found=false, no error.
func readYAML(path string) (cfg RawProfile, found bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return RawProfile{}, false, nil
		}
		return RawProfile{}, false, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return RawProfile{}, true, err
	}
	return cfg, true, nil
}

// mergeRaw performs a deep merge: 'b' overrides 'a' where non-zero/non-nil.
// Slices (milestones) are replaced, not appended.
func mergeRaw(a, b RawProfile) RawProfile {
	out := a
	if b.Version != "" {
		out.Version = b.Version
	}
	if b.Notes != "" {
		out.Notes = b.Notes
	}

	// rules
	if len(b.Rules.Milestones) > 0 {
		out.Rules.Milestones = append([]int(nil), b.Rules.Milestones...)
	}
	out.Rules.MaxGrade = pick(out.Rules.MaxGrade, b.Rules.MaxGrade)
	out.Rules.SessionMaxGrade = pick(out.Rules.SessionMaxGrade, b.Rules.SessionMaxGrade)
	out.Rules.ComboSlots = pick(out.Rules.ComboSlots, b.Rules.ComboSlots)

	// limits
	switch {
	case out.Limits == nil && b.Limits != nil:
		c := *b.Limits
		out.Limits = &c
	case out.Limits != nil && b.Limits != nil:
		c := *out.Limits
		c.Trials = mergeRange(c.Trials, b.Limits.Trials)
		c.Attempts = mergeRange(c.Attempts, b.Limits.Attempts)
		c.Cost = mergeRange(c.Cost, b.Limits.Cost)
		out.Limits = &c
	}

	// filters
	switch {
	case out.Filters == nil && b.Filters != nil:
		c := *b.Filters
		out.Filters = &c
	case out.Filters != nil && b.Filters != nil:
		c := *out.Filters
		if b.Filters.ShipClass != "" {
			c.ShipClass = b.Filters.ShipClass
		}
		c.Bow = pick(c.Bow, b.Filters.Bow)
		c.Side = pick(c.Side, b.Filters.Side)
		c.Stern = pick(c.Stern, b.Filters.Stern)
		c.Remodel = pick(c.Remodel, b.Filters.Remodel)
		c.Inheritance = pick(c.Inheritance, b.Filters.Inheritance)
		out.Filters = &c
	}

	// cost
	switch {
	case out.Cost == nil && b.Cost != nil:
		c := *b.Cost
		out.Cost = &c
	case out.Cost != nil && b.Cost != nil:
		c := *out.Cost
		c.Attempt = pick(c.Attempt, b.Cost.Attempt)
		c.Retry = pick(c.Retry, b.Cost.Retry)
		out.Cost = &c
	}

	// search
	switch {
	case out.Search == nil && b.Search != nil:
		c := *b.Search
		out.Search = &c
	case out.Search != nil && b.Search != nil:
		c := *out.Search
		c.BatchSize = pick(c.BatchSize, b.Search.BatchSize)
		out.Search = &c
	}
	return out
}

func mergeRange(a, b *Range) *Range {
	switch {
	case b == nil:
		return a
	case a == nil:
		c := *b
		return &c
	}
	c := *a
	c.Min = pick(c.Min, b.Min)
	c.Max = pick(c.Max, b.Max)
	c.Default = pick(c.Default, b.Default)
	return &c
}

// pick returns override when set, else base.
func pick[T any](base, override *T) *T {
	if override != nil {
		return override
	}
	return base
}
