package game

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func writeProfile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, "profiles", name+".yaml")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestEmbeddedDefault(t *testing.T) {
	l := NewLoader("")
	_, s, err := l.Resolve("")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(s.Rules.Milestones, []int{1, 3, 6}) || s.Rules.MaxGrade != 8 || s.Rules.SessionMaxGrade != 6 {
		t.Fatalf("unexpected rules %+v", s.Rules)
	}
	if s.Trials != (Bounds{Min: 50, Max: 200000, Default: 3000}) || s.Attempts != (Bounds{Min: 1, Max: 100, Default: 100}) {
		t.Fatalf("unexpected limits %+v %+v", s.Trials, s.Attempts)
	}
	if s.Filters.ShipClass != "sail" || !s.Filters.Inheritance || s.Filters.Remodel {
		t.Fatalf("unexpected filters %+v", s.Filters)
	}
	if s.BatchSize != 100 || s.Profile != DefaultProfile {
		t.Fatalf("unexpected settings %+v", s)
	}
	if _, _, err := l.Resolve("event"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("named profile without a base dir: %v", err)
	}
}

func TestProfileLayering(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "default", "cost:\n  attempt: 10\n")
	writeProfile(t, dir, "galley", `
version: galley-1
filters:
  ship_class: galley
  remodel: true
cost:
  retry: 250
limits:
  attempts: {max: 50, default: 50}
`)
	l := NewLoader(dir)
	_, s, err := l.Resolve("galley")
	if err != nil {
		t.Fatal(err)
	}
	if s.Version != "galley-1" || s.Filters.ShipClass != "galley" || !s.Filters.Remodel || !s.Filters.Inheritance {
		t.Fatalf("profile not layered: %+v", s)
	}
	if s.AttemptCost != 10 || s.RetryCost != 250 {
		t.Fatalf("cost layers: attempt=%v retry=%v", s.AttemptCost, s.RetryCost)
	}
	if s.Attempts != (Bounds{Min: 1, Max: 50, Default: 50}) {
		t.Fatalf("attempt bounds %+v", s.Attempts)
	}

	if _, _, err := l.Resolve("../etc"); !errors.Is(err, ErrBadProfileName) {
		t.Fatalf("path traversal: %v", err)
	}
}

func TestValidateRawCollectsErrors(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "broken", `
rules:
  milestones: [0, 3, 3, 12]
  max_grade: 8
  combo_slots: 0
limits:
  trials: {min: 500, max: 100}
filters:
  ship_class: submarine
cost:
  attempt: -1
search:
  batch_size: 0
`)
	_, _, err := NewLoader(dir).Resolve("broken")
	if !errors.Is(err, ErrInvalidProfile) {
		t.Fatalf("want ErrInvalidProfile, got %v", err)
	}
	for _, want := range []string{
		"rules.milestones[0]", "duplicates grade 3", "rules.milestones[3] must be <= max_grade",
		"combo_slots", "limits.trials.min must be <= max", "ship_class", "cost.attempt", "batch_size",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestValidateRawRejectsNonFinite(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "nan", `
cost:
  attempt: .inf
  retry: .nan
limits:
  cost: {max: .inf}
`)
	_, _, err := NewLoader(dir).Resolve("nan")
	if !errors.Is(err, ErrInvalidProfile) {
		t.Fatalf("want ErrInvalidProfile, got %v", err)
	}
	for _, want := range []string{"cost.attempt must be a finite number", "cost.retry must be a finite number", "limits.cost bounds"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestBoundsClamp(t *testing.T) {
	b := Bounds{Min: 50, Max: 200000, Default: 3000}
	low, high := 1.0, 1e7
	if b.Clamp(nil) != 3000 || b.Clamp(&low) != 50 || b.Clamp(&high) != 200000 {
		t.Fatalf("float clamp broken")
	}
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if got := b.Clamp(&v); got != 3000 {
			t.Fatalf("Clamp(%v) = %v, want the default", v, got)
		}
	}
	n := 120
	a := Bounds{Min: 1, Max: 100, Default: 100}
	if a.ClampInt(&n) != 100 || a.ClampInt(nil) != 100 {
		t.Fatalf("int clamp broken")
	}
}

func TestWatchLoaderInvalidates(t *testing.T) {
	dir := t.TempDir()
	path := writeProfile(t, dir, "event", "cost:\n  retry: 1\n")
	l := NewLoader(dir)
	if _, s, err := l.Resolve("event"); err != nil || s.RetryCost != 1 {
		t.Fatalf("initial load: %v %+v", err, s)
	}

	changed := make(chan string, 8)
	w, err := WatchLoader(l, func(p string) { changed <- p })
	if err != nil {
		t.Fatal(err)
	}
	w.Start()
	defer w.Stop()

	if err := os.WriteFile(path, []byte("cost:\n  retry: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case p := <-changed:
		if filepath.Base(p) != "event.yaml" {
			t.Fatalf("unexpected path %s", p)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change event")
	}
	if _, s, err := l.Resolve("event"); err != nil || s.RetryCost != 2 {
		t.Fatalf("reload: %v %+v", err, s)
	}
}
