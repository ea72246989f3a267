package enhance

import (
	"context"
	"math"

	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"

	"github.com/xtding233/enhance-sim/internal/pricing"
)

// PredictConfig describes one Monte-Carlo prediction.
type PredictConfig struct {
	Target      Target
	Filters     Filters
	Trials      int
	MaxAttempts int
	Cost        *pricing.CostModel // optional; ExpectedCost stays nil without it
	BatchSize   int                // trials between cancellation checks
	Seed        []Acquisition      // options fixed before every attempt
}

// Prediction summarizes attempt counts over independent trials.
type Prediction struct {
	Target          Target  `json:"target"`
	Filters         Filters `json:"filters"`
	Trials          int     `json:"trials"`
	CompletedTrials int     `json:"completedTrials"`
	MaxAttempts     int     `json:"maxAttempts"`
	Stopped         bool    `json:"stopped"`

	SuccessRate              float64          `json:"successRate"`
	SuccessCount             int              `json:"successCount"`
	AverageAttempts          *float64         `json:"averageAttempts"`
	AverageAttemptsOnSuccess *float64         `json:"averageAttemptsOnSuccess"`
	P50Attempts              *int             `json:"p50Attempts"`
	P90Attempts              *int             `json:"p90Attempts"`
	P95Attempts              *int             `json:"p95Attempts"`
	ExpectedCost             *decimal.Decimal `json:"expectedCost"`

	// raw per-trial attempt counts, for histograms/exports
	Attempts []int `json:"-"`
}

// Predict runs cfg.Trials independent searches, each with its own stream from
// factory, and aggregates the attempt counts. ctx is checked between batches
// of trials; a cancelled prediction aggregates only the completed trials.
func (e *Engine) Predict(ctx context.Context, cfg PredictConfig, factory SourceFactory) Prediction {
	if factory == nil {
		factory = DefaultFactory()
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	trials := max(cfg.Trials, 0)
	out := Prediction{
		Target:      cfg.Target,
		Filters:     cfg.Filters,
		Trials:      trials,
		MaxAttempts: cfg.MaxAttempts,
	}

	attempts := make([]int, 0, trials)
	var onSuccess []int
	var costs []decimal.Decimal
	search := SearchConfig{Target: cfg.Target, Filters: cfg.Filters, MaxAttempts: cfg.MaxAttempts, Seed: cfg.Seed}
	// a single trial is never interrupted halfway
	trialCtx := context.WithoutCancel(ctx)

	for i := 0; i < trials; {
		if ctx.Err() != nil {
			out.Stopped = true
			break
		}
		end := min(i+batch, trials)
		for ; i < end; i++ {
			r := e.FindTarget(trialCtx, search, factory(i))
			attempts = append(attempts, r.AttemptCount)
			if r.Success {
				onSuccess = append(onSuccess, r.AttemptCount)
			}
			if cfg.Cost != nil {
				costs = append(costs, cfg.Cost.SessionCost(r.AttemptCount))
			}
		}
	}

	out.CompletedTrials = len(attempts)
	out.SuccessCount = len(onSuccess)
	out.Attempts = attempts
	if out.CompletedTrials > 0 {
		out.SuccessRate = float64(out.SuccessCount) / float64(out.CompletedTrials)
	}
	out.AverageAttempts = average(attempts)
	out.AverageAttemptsOnSuccess = average(onSuccess)
	out.P50Attempts = percentile(attempts, 50)
	out.P90Attempts = percentile(attempts, 90)
	out.P95Attempts = percentile(attempts, 95)
	if mean, ok := pricing.Mean(costs); ok {
		out.ExpectedCost = &mean
	}
	return out
}

func toFloat(xs []int) stats.Float64Data {
	data := make(stats.Float64Data, len(xs))
	for i, v := range xs {
		data[i] = float64(v)
	}
	return data
}

func average(xs []int) *float64 {
	if len(xs) == 0 {
		return nil
	}
	m, err := stats.Mean(toFloat(xs))
	if err != nil {
		return nil
	}
	return &m
}

// percentile uses the nearest-rank method: the value at index ceil(p/100*n)-1
// of the sorted sample, clamped to the sample.
func percentile(xs []int, p float64) *int {
	if len(xs) == 0 {
		return nil
	}
	v, err := stats.PercentileNearestRank(toFloat(xs), p)
	if err != nil || math.IsNaN(v) {
		return nil
	}
	n := int(v)
	return &n
}
