package service

import (
	"context"
	"time"

	"github.com/xtding233/enhance-sim/internal/enhance"
	"github.com/xtding233/enhance-sim/internal/logger"
)

// Pool returns the eligible options for a history and the chain progress.
func (s *Service) Pool(ctx context.Context, req PoolRequest) (PoolResponse, error) {
	settings, e := s.current()
	if err := req.Filters.validate(); err != nil {
		return PoolResponse{}, err
	}
	acquired, err := history(e, req.Acquired)
	if err != nil {
		return PoolResponse{}, err
	}
	filters := req.Filters.apply(settings.Filters)
	pool := e.Pool(acquired, filters)
	return PoolResponse{Pool: pool, Size: len(pool), Chains: e.ChainProgress(acquired, filters)}, nil
}

// Roll draws once from the pool of a history.
func (s *Service) Roll(ctx context.Context, req RollRequest) (RollResponse, error) {
	settings, e := s.current()
	if err := req.Filters.validate(); err != nil {
		return RollResponse{}, err
	}
	acquired, err := history(e, req.Acquired)
	if err != nil {
		return RollResponse{}, err
	}
	d, ok := e.Roll(acquired, req.Filters.apply(settings.Filters), rng(req.Seed))
	if !ok {
		return RollResponse{Empty: true}, nil
	}
	return RollResponse{Draw: &d}, nil
}

// SimulateRun plays one run to the terminal grade. The target is optional.
func (s *Service) SimulateRun(ctx context.Context, req RunRequest) (RunResponse, error) {
	settings, e := s.current()
	if err := req.Filters.validate(); err != nil {
		return RunResponse{}, err
	}
	target, err := req.Target.resolve(e.Catalog())
	if err != nil {
		return RunResponse{}, err
	}
	seed, err := fixedBuild(e, req.Fixed)
	if err != nil {
		return RunResponse{}, err
	}
	r := e.SimulateRun(enhance.RunConfig{
		Filters:           req.Filters.apply(settings.Filters),
		Target:            target,
		StopWhenTargetMet: req.StopWhenTargetMet,
		Seed:              seed,
	}, rng(req.Seed))
	if s.metrics != nil {
		s.metrics.RunsTotal.Inc()
	}
	return RunResponse{Run: r, Summary: enhance.Summarize(r.Acquisitions)}, nil
}

// predictConfig clamps a request to the active limits.
func (s *Service) predictConfig(req PredictRequest) (enhance.PredictConfig, *enhance.Engine, error) {
	settings, e := s.current()
	if err := req.Filters.validate(); err != nil {
		return enhance.PredictConfig{}, nil, err
	}
	target, err := req.Target.requiredTarget(e.Catalog())
	if err != nil {
		return enhance.PredictConfig{}, nil, err
	}
	seed, err := fixedBuild(e, req.Fixed)
	if err != nil {
		return enhance.PredictConfig{}, nil, err
	}
	cost := costModel(settings, req.AttemptCost, req.RetryCost)
	return enhance.PredictConfig{
		Target:      target,
		Filters:     req.Filters.apply(settings.Filters),
		Trials:      settings.Trials.ClampInt(req.Trials),
		MaxAttempts: settings.Attempts.ClampInt(req.MaxAttempts),
		Cost:        &cost,
		BatchSize:   settings.BatchSize,
		Seed:        seed,
	}, e, nil
}

func (s *Service) budget(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.PredictBudget > 0 {
		return context.WithTimeout(ctx, s.opts.PredictBudget)
	}
	return context.WithCancel(ctx)
}

// Predict runs the Monte-Carlo predictor. A cancelled ctx (or an exhausted
// budget) yields a partial prediction with Stopped set, not an error.
func (s *Service) Predict(ctx context.Context, req PredictRequest) (enhance.Prediction, error) {
	cfg, e, err := s.predictConfig(req)
	if err != nil {
		return enhance.Prediction{}, err
	}
	ctx, cancel := s.budget(ctx)
	defer cancel()

	start := time.Now()
	p := e.Predict(ctx, cfg, factory(req.Seed))
	if s.metrics != nil {
		s.metrics.ObservePrediction(p.Stopped, time.Since(start))
	}
	logger.Info(ctx, "prediction finished",
		"target", cfg.Target.String(), "trials", p.CompletedTrials, "success_rate", p.SuccessRate,
		"stopped", p.Stopped, "duration", time.Since(start))
	return p, nil
}

// RankStrategies predicts every strategy and orders them by the metric.
func (s *Service) RankStrategies(ctx context.Context, req RankRequest) (enhance.Ranking, error) {
	cfg, e, err := s.predictConfig(req.PredictRequest)
	if err != nil {
		return enhance.Ranking{}, err
	}
	strategies := req.Strategies
	if strategies == nil {
		strategies = enhance.GenerateFilterStrategies(cfg.Filters)
	}
	ctx, cancel := s.budget(ctx)
	defer cancel()

	defer logger.LogDuration(ctx, "strategies ranked", "metric", req.Metric, "count", len(strategies))()
	return e.RankStrategies(ctx, strategies, enhance.Metric(req.Metric), cfg, factory(req.Seed))
}

// ComboPresets lists the target presets of the active rules.
func (s *Service) ComboPresets() []string {
	_, e := s.current()
	return e.ComboPresets()
}
