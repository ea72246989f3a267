package enhance

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

// Metric names a Prediction field strategies can be ranked by.
type Metric string

const (
	MetricSuccessRate              Metric = "successRate"
	MetricSuccessCount             Metric = "successCount"
	MetricAverageAttempts          Metric = "averageAttempts"
	MetricAverageAttemptsOnSuccess Metric = "averageAttemptsOnSuccess"
	MetricP50Attempts              Metric = "p50Attempts"
	MetricP90Attempts              Metric = "p90Attempts"
	MetricP95Attempts              Metric = "p95Attempts"
	MetricExpectedCost             Metric = "expectedCost"
)

var ErrUnknownMetric = errors.New("unknown ranking metric")

// Strategy is a named filter configuration.
type Strategy struct {
	Name    string  `json:"name"`
	Filters Filters `json:"filters"`
}

// Evaluation is a strategy together with its prediction.
type Evaluation struct {
	Strategy
	Prediction Prediction `json:"prediction"`
}

// Ranking orders evaluated strategies, best first.
type Ranking struct {
	Metric Metric       `json:"metric"`
	Best   *Evaluation  `json:"best"`
	Ranked []Evaluation `json:"ranked"`
}

// GenerateFilterStrategies enumerates every bow/side/stern/remodel toggle
// combination; ship class and inheritance are copied from base.
func GenerateFilterStrategies(base Filters) []Strategy {
	bools := []bool{false, true}
	out := make([]Strategy, 0, 16)
	for _, bow := range bools {
		for _, side := range bools {
			for _, stern := range bools {
				for _, remodel := range bools {
					f := base
					f.Bow, f.Side, f.Stern, f.Remodel = bow, side, stern, remodel
					out = append(out, Strategy{
						Name:    fmt.Sprintf("bow:%d side:%d stern:%d remodel:%d", b2i(bow), b2i(side), b2i(stern), b2i(remodel)),
						Filters: f,
					})
				}
			}
		}
	}
	return out
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// metricValue extracts m from p; ok is false when the value is undefined.
func metricValue(p Prediction, m Metric) (v float64, ok bool, err error) {
	fromInt := func(x *int) (float64, bool, error) {
		if x == nil {
			return 0, false, nil
		}
		return float64(*x), true, nil
	}
	fromFloat := func(x *float64) (float64, bool, error) {
		if x == nil {
			return 0, false, nil
		}
		return *x, true, nil
	}
	switch m {
	case MetricSuccessRate:
		return p.SuccessRate, true, nil
	case MetricSuccessCount:
		return float64(p.SuccessCount), true, nil
	case MetricAverageAttempts:
		return fromFloat(p.AverageAttempts)
	case MetricAverageAttemptsOnSuccess:
		return fromFloat(p.AverageAttemptsOnSuccess)
	case MetricP50Attempts:
		return fromInt(p.P50Attempts)
	case MetricP90Attempts:
		return fromInt(p.P90Attempts)
	case MetricP95Attempts:
		return fromInt(p.P95Attempts)
	case MetricExpectedCost:
		if p.ExpectedCost == nil {
			return 0, false, nil
		}
		return p.ExpectedCost.InexactFloat64(), true, nil
	}
	return 0, false, fmt.Errorf("%w: %q", ErrUnknownMetric, m)
}

func descending(m Metric) bool {
	return m == MetricSuccessRate || m == MetricSuccessCount
}

// RankStrategies predicts every strategy with the shared settings in base and
// sorts them by metric. Evaluations run in parallel; each uses factory, so a
// seeded factory gives the same ranking on every call.
func (e *Engine) RankStrategies(ctx context.Context, strategies []Strategy, metric Metric, base PredictConfig, factory SourceFactory) (Ranking, error) {
	if metric == "" {
		metric = MetricSuccessRate
	}
	if _, _, err := metricValue(Prediction{}, metric); err != nil {
		return Ranking{}, err
	}
	out := Ranking{Metric: metric, Ranked: []Evaluation{}}
	if len(strategies) == 0 {
		return out, nil
	}

	evals := make([]Evaluation, len(strategies))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, s := range strategies {
		g.Go(func() error {
			cfg := base
			cfg.Filters = s.Filters
			evals[i] = Evaluation{Strategy: s, Prediction: e.Predict(gctx, cfg, factory)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Ranking{}, err
	}

	desc := descending(metric)
	sort.SliceStable(evals, func(i, j int) bool {
		a, aok, _ := metricValue(evals[i].Prediction, metric)
		b, bok, _ := metricValue(evals[j].Prediction, metric)
		switch {
		case !aok || !bok:
			return aok && !bok
		case desc:
			return a > b
		default:
			return a < b
		}
	})
	out.Ranked = evals
	out.Best = &out.Ranked[0]
	return out, nil
}
