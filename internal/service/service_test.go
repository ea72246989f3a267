package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/xtding233/enhance-sim/internal/catalog"
	"github.com/xtding233/enhance-sim/internal/enhance"
	"github.com/xtding233/enhance-sim/internal/game"
	"github.com/xtding233/enhance-sim/internal/metrics"
)

func newTestService(t *testing.T, opts Options) *Service {
	t.Helper()
	svc, err := New(game.NewLoader(""), "", opts)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(svc.Close)
	return svc
}

func ptr[T any](v T) *T { return &v }

func TestPoolAndChains(t *testing.T) {
	svc := newTestService(t, Options{})
	resp, err := svc.Pool(context.Background(), PoolRequest{Acquired: []int{14}})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Size != 12 || len(resp.Pool) != 12 {
		t.Fatalf("pool size %d", resp.Size)
	}
	if resp.Chains[0].Option.ID != catalog.Accel2 {
		t.Fatalf("accel chain must point at tier 2: %+v", resp.Chains[0])
	}

	resp, err = svc.Pool(context.Background(), PoolRequest{Filters: FilterInput{Remodel: ptr(true), ShipClass: ptr("galley")}})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Size != 17 {
		t.Fatalf("galley with remodels: pool size %d, want 17", resp.Size)
	}

	if _, err := svc.Pool(context.Background(), PoolRequest{Acquired: []int{99}}); !errors.Is(err, ErrUnknownOption) {
		t.Fatalf("unknown id: %v", err)
	}
	if _, err := svc.Pool(context.Background(), PoolRequest{Acquired: []int{14, 8, 6, 23}}); !errors.Is(err, ErrTooManyFixed) {
		t.Fatalf("history longer than milestones: %v", err)
	}
	if _, err := svc.Pool(context.Background(), PoolRequest{Filters: FilterInput{ShipClass: ptr("raft")}}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("bad ship class: %v", err)
	}
}

func TestRollSeeded(t *testing.T) {
	svc := newTestService(t, Options{})
	a, err := svc.Roll(context.Background(), RollRequest{Seed: ptr(uint64(3))})
	if err != nil {
		t.Fatal(err)
	}
	b, _ := svc.Roll(context.Background(), RollRequest{Seed: ptr(uint64(3))})
	if a.Empty || a.Draw == nil || a.Draw.Option.ID != b.Draw.Option.ID || a.Draw.PoolSize != 12 {
		t.Fatalf("seeded rolls differ or are empty: %+v %+v", a, b)
	}
}

func TestSimulateRunWithFixedBuild(t *testing.T) {
	svc := newTestService(t, Options{})
	resp, err := svc.SimulateRun(context.Background(), RunRequest{Fixed: []int{14, 13}, Seed: ptr(uint64(1))})
	if err != nil {
		t.Fatal(err)
	}
	acq := resp.Run.Acquisitions
	if len(acq) != 3 || acq[0].Option.ID != 14 || acq[1].Option.ID != 13 || acq[2].Milestone != 6 {
		t.Fatalf("unexpected run %+v", acq)
	}
	if resp.Run.FinalGrade != 8 || !resp.Run.TargetMatched {
		t.Fatalf("run without a target must complete and match: %+v", resp.Run)
	}
	if len([]rune(resp.Summary.Notation)) != 3 {
		t.Fatalf("summary %+v", resp.Summary)
	}
}

func TestFixedBuildLimits(t *testing.T) {
	svc := newTestService(t, Options{})
	if _, err := svc.SimulateRun(context.Background(), RunRequest{Fixed: []int{14, 8, 6}}); !errors.Is(err, ErrTooManyFixed) {
		t.Fatalf("three fixed options: %v", err)
	}
	if _, err := svc.SimulateRun(context.Background(), RunRequest{Fixed: []int{23}}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("uncoded fixed option: %v", err)
	}
	_, err := svc.Predict(context.Background(), PredictRequest{Target: TargetInput{Combo: "가"}, Fixed: []int{14, 8, 6}})
	if !errors.Is(err, ErrTooManyFixed) {
		t.Fatalf("predict with three fixed options: %v", err)
	}
	// acquired history for the pool is not a current build
	if _, err := svc.Pool(context.Background(), PoolRequest{Acquired: []int{14, 8, 23}}); err != nil {
		t.Fatalf("pool history: %v", err)
	}
}

func TestPredictRequiresTarget(t *testing.T) {
	svc := newTestService(t, Options{})
	_, err := svc.Predict(context.Background(), PredictRequest{})
	if !errors.Is(err, ErrNoTarget) {
		t.Fatalf("want ErrNoTarget, got %v", err)
	}
	if _, err := svc.RankStrategies(context.Background(), RankRequest{}); !errors.Is(err, ErrNoTarget) {
		t.Fatalf("rank: want ErrNoTarget, got %v", err)
	}
	if _, err := svc.StartSearch(context.Background(), SearchRequest{}); !errors.Is(err, ErrNoTarget) {
		t.Fatalf("search: want ErrNoTarget, got %v", err)
	}
	_, err = svc.Predict(context.Background(), PredictRequest{Target: TargetInput{Codes: map[string]int{"x": 1}}})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unknown code: %v", err)
	}
}

func TestPredictClampsParameters(t *testing.T) {
	svc := newTestService(t, Options{})
	p, err := svc.Predict(context.Background(), PredictRequest{
		Target:      TargetInput{Combo: "가"},
		Trials:      ptr(1),
		MaxAttempts: ptr(1000),
		AttemptCost: ptr(-5.0),
		RetryCost:   ptr(2e9),
		Seed:        ptr(uint64(9)),
	})
	if err != nil {
		t.Fatal(err)
	}
	if p.Trials != 50 || p.MaxAttempts != 100 {
		t.Fatalf("trials=%d attempts=%d, want 50 and 100", p.Trials, p.MaxAttempts)
	}
	if p.ExpectedCost == nil || p.AverageAttempts == nil {
		t.Fatalf("missing statistics")
	}
	// attempt cost clamps to 0, retry cost to 1e9
	want := (*p.AverageAttempts - 1) * 1e9
	if got := p.ExpectedCost.InexactFloat64(); got < want-1 || got > want+1 {
		t.Fatalf("expected cost %v, want %v", got, want)
	}

	q, _ := svc.Predict(context.Background(), PredictRequest{Target: TargetInput{Combo: "가"}, Trials: ptr(50), Seed: ptr(uint64(9))})
	if q.SuccessRate != p.SuccessRate || *q.P50Attempts != *p.P50Attempts {
		t.Fatalf("same seed must reproduce the prediction")
	}
}

func TestPredictNonFiniteCostFallsBack(t *testing.T) {
	svc := newTestService(t, Options{})
	for _, c := range []float64{math.NaN(), math.Inf(1)} {
		p, err := svc.Predict(context.Background(), PredictRequest{
			Target:      TargetInput{Combo: "가"},
			Trials:      ptr(50),
			AttemptCost: ptr(c),
			RetryCost:   ptr(c),
			Seed:        ptr(uint64(3)),
		})
		if err != nil {
			t.Fatal(err)
		}
		// both costs fall back to the profile default of 0
		if p.ExpectedCost == nil || !p.ExpectedCost.IsZero() {
			t.Fatalf("cost %v: expected cost %v, want 0", c, p.ExpectedCost)
		}
	}
}

func TestPredictBudgetStops(t *testing.T) {
	svc := newTestService(t, Options{PredictBudget: time.Nanosecond})
	p, err := svc.Predict(context.Background(), PredictRequest{Target: TargetInput{IDs: []int{6}}, Trials: ptr(200000)})
	if err != nil {
		t.Fatal(err)
	}
	if !p.Stopped || p.CompletedTrials >= 200000 {
		t.Fatalf("budget not enforced: %+v", p)
	}
}

func TestRankStrategies(t *testing.T) {
	svc := newTestService(t, Options{})
	r, err := svc.RankStrategies(context.Background(), RankRequest{
		PredictRequest: PredictRequest{Target: TargetInput{Combo: "장"}, Trials: ptr(50), MaxAttempts: ptr(30), Seed: ptr(uint64(4))},
		Metric:         string(enhance.MetricSuccessRate),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Ranked) != 16 || r.Best == nil || !r.Best.Filters.Remodel {
		t.Fatalf("unexpected ranking: best=%+v", r.Best)
	}
	_, err = svc.RankStrategies(context.Background(), RankRequest{PredictRequest: PredictRequest{Target: TargetInput{Combo: "장"}}, Metric: "luck"})
	if !errors.Is(err, enhance.ErrUnknownMetric) {
		t.Fatalf("unknown metric: %v", err)
	}
}

func TestComboPresets(t *testing.T) {
	svc := newTestService(t, Options{})
	if got := svc.ComboPresets(); len(got) != 26 || got[0] != "포가가" {
		t.Fatalf("presets %v", got)
	}
}

func TestSearchLifecycle(t *testing.T) {
	m := metrics.New()
	svc := newTestService(t, Options{Metrics: m})
	job, err := svc.StartSearch(context.Background(), SearchRequest{Target: TargetInput{Combo: "가"}, Seed: ptr(uint64(2))})
	if err != nil {
		t.Fatal(err)
	}
	if job.ID == "" || job.MaxAttempts != 100 {
		t.Fatalf("unexpected job %+v", job)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	done, err := svc.WaitSearch(ctx, job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if done.Status != enhance.StatusSuccess || done.Result == nil || done.FinishedAt == nil || done.Done != done.Result.AttemptCount {
		t.Fatalf("unexpected finished job %+v", done)
	}
	if got := testutil.ToFloat64(m.SearchesTotal.WithLabelValues("success")); got != 1 {
		t.Fatalf("search metric = %v", got)
	}
	if _, err := svc.Search("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing search: %v", err)
	}
}

func TestCancelSearch(t *testing.T) {
	svc := newTestService(t, Options{})
	f := false
	job, err := svc.StartSearch(context.Background(), SearchRequest{
		Filters: FilterInput{Inheritance: &f},
		Target:  TargetInput{IDs: []int{6}},
	})
	if err != nil {
		t.Fatal(err)
	}
	got, err := svc.CancelSearch(job.ID)
	if err != nil {
		t.Fatal(err)
	}
	// an unreachable target either exhausts its 100 attempts or stops first
	if got.Status != enhance.StatusStopped && got.Status != enhance.StatusExhausted {
		t.Fatalf("status %s", got.Status)
	}
	if got.Result == nil || got.Result.Success {
		t.Fatalf("result %+v", got.Result)
	}
}

func TestSearchLimit(t *testing.T) {
	svc := newTestService(t, Options{MaxSearches: 1})
	svc.searches.mu.Lock()
	svc.searches.jobs["busy"] = &searchJob{cancel: func() {}, done: make(chan struct{}), snap: SearchJob{ID: "busy", Status: StatusRunning}}
	svc.searches.mu.Unlock()
	_, err := svc.StartSearch(context.Background(), SearchRequest{Target: TargetInput{Combo: "가"}})
	if !errors.Is(err, ErrTooMany) {
		t.Fatalf("want ErrTooMany, got %v", err)
	}
	svc.searches.mu.Lock()
	close(svc.searches.jobs["busy"].done)
	svc.searches.mu.Unlock()
}
