package enhance

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/xtding233/enhance-sim/internal/catalog"
)

func TestGenerateFilterStrategies(t *testing.T) {
	base := Filters{ShipClass: catalog.ShipGalley, Inheritance: true}
	strategies := GenerateFilterStrategies(base)
	if len(strategies) != 16 {
		t.Fatalf("want 16 strategies, got %d", len(strategies))
	}
	names := map[string]bool{}
	filters := map[Filters]bool{}
	for _, s := range strategies {
		names[s.Name] = true
		filters[s.Filters] = true
		if s.Filters.ShipClass != catalog.ShipGalley || !s.Filters.Inheritance {
			t.Fatalf("base fields not carried over: %+v", s)
		}
	}
	if len(names) != 16 || len(filters) != 16 {
		t.Fatalf("strategies are not unique")
	}
	if strategies[0].Name != "bow:0 side:0 stern:0 remodel:0" || strategies[15].Name != "bow:1 side:1 stern:1 remodel:1" {
		t.Fatalf("unexpected naming: %s .. %s", strategies[0].Name, strategies[15].Name)
	}
}

func TestRankStrategiesUnknownMetric(t *testing.T) {
	e := newTestEngine()
	_, err := e.RankStrategies(context.Background(), GenerateFilterStrategies(DefaultFilters()), "luck", PredictConfig{}, SeededFactory(1))
	if !errors.Is(err, ErrUnknownMetric) {
		t.Fatalf("want ErrUnknownMetric, got %v", err)
	}
}

func TestRankStrategiesEmpty(t *testing.T) {
	e := newTestEngine()
	r, err := e.RankStrategies(context.Background(), nil, "", PredictConfig{}, SeededFactory(1))
	if err != nil {
		t.Fatal(err)
	}
	if r.Best != nil || len(r.Ranked) != 0 || r.Metric != MetricSuccessRate {
		t.Fatalf("got %+v", r)
	}
}

func TestRankStrategiesPrefersRemodelForRemodelTarget(t *testing.T) {
	e := newTestEngine()
	base := PredictConfig{
		Target:      ParseCombo(catalog.Default(), "포"),
		Trials:      200,
		MaxAttempts: 20,
	}
	strategies := GenerateFilterStrategies(DefaultFilters())
	r, err := e.RankStrategies(context.Background(), strategies, MetricSuccessRate, base, SeededFactory(5))
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Ranked) != 16 || r.Best == nil {
		t.Fatalf("got %d ranked", len(r.Ranked))
	}
	if !r.Best.Filters.Remodel {
		t.Fatalf("best strategy %q does not enable remodels", r.Best.Name)
	}
	for i := 1; i < len(r.Ranked); i++ {
		if r.Ranked[i-1].Prediction.SuccessRate < r.Ranked[i].Prediction.SuccessRate {
			t.Fatalf("ranking not descending at %d", i)
		}
	}
	// without remodels the target is unreachable
	for _, ev := range r.Ranked[8:] {
		if ev.Filters.Remodel || ev.Prediction.SuccessRate != 0 {
			t.Fatalf("unexpected tail entry %q rate %v", ev.Name, ev.Prediction.SuccessRate)
		}
	}

	again, err := e.RankStrategies(context.Background(), strategies, MetricSuccessRate, base, SeededFactory(5))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(r.Ranked, again.Ranked) {
		t.Fatalf("seeded ranking is not reproducible")
	}
}

func TestRankStrategiesAscendingPutsUndefinedLast(t *testing.T) {
	e := newTestEngine()
	base := PredictConfig{
		Target:      ParseCombo(catalog.Default(), "포"),
		Trials:      100,
		MaxAttempts: 20,
	}
	r, err := e.RankStrategies(context.Background(), GenerateFilterStrategies(DefaultFilters()), MetricAverageAttemptsOnSuccess, base, SeededFactory(2))
	if err != nil {
		t.Fatal(err)
	}
	for i, ev := range r.Ranked {
		defined := ev.Prediction.AverageAttemptsOnSuccess != nil
		if defined != ev.Filters.Remodel {
			t.Fatalf("entry %d %q: defined=%v", i, ev.Name, defined)
		}
		if i > 0 && defined && *r.Ranked[i-1].Prediction.AverageAttemptsOnSuccess > *ev.Prediction.AverageAttemptsOnSuccess {
			t.Fatalf("ranking not ascending at %d", i)
		}
	}
	if !r.Ranked[7].Filters.Remodel || r.Ranked[8].Filters.Remodel {
		t.Fatalf("undefined values must sort last")
	}
}
