package enhance

import "context"

// DefaultBatchSize is how many attempts (or trials) run between cancellation checks.
const DefaultBatchSize = 100

// SearchStatus is the terminal state of a FindTarget call.
type SearchStatus string

const (
	StatusSuccess   SearchStatus = "success"
	StatusExhausted SearchStatus = "exhausted"
	StatusStopped   SearchStatus = "stopped"
)

// SearchConfig configures the repeated-run driver.
type SearchConfig struct {
	Target      Target
	Filters     Filters
	MaxAttempts int
	BatchSize   int  // attempts between cancellation checks; <=0 means DefaultBatchSize
	KeepHistory bool // record every run; leave off for large budgets
	Seed        []Acquisition
	// Progress, if set, is called after each completed batch.
	Progress func(done, max int)
}

// SearchResult reports how a search ended.
type SearchResult struct {
	Status       SearchStatus `json:"status"`
	Success      bool         `json:"success"`
	AttemptCount int          `json:"attemptCount"`
	MaxAttempts  int          `json:"maxAttempts"`
	Run          *RunResult   `json:"run,omitempty"`
	LastRun      *RunResult   `json:"lastRun,omitempty"`
	History      []RunResult  `json:"history,omitempty"`
}

// FindTarget repeats independent runs until one satisfies the target or the
// attempt budget runs out. ctx is only observed between batches, so a stop
// request is honored within one batch and the partial attempt count is kept.
func (e *Engine) FindTarget(ctx context.Context, cfg SearchConfig, rng RandomSource) SearchResult {
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	res := SearchResult{MaxAttempts: cfg.MaxAttempts}
	run := RunConfig{Filters: cfg.Filters, Target: cfg.Target, StopWhenTargetMet: true, Seed: cfg.Seed}

	for res.AttemptCount < cfg.MaxAttempts {
		if ctx.Err() != nil {
			res.Status = StatusStopped
			return res
		}
		end := min(res.AttemptCount+batch, cfg.MaxAttempts)
		for res.AttemptCount < end {
			res.AttemptCount++
			r := e.SimulateRun(run, rng)
			if cfg.KeepHistory {
				res.History = append(res.History, r)
			}
			res.LastRun = &r
			if r.TargetMatched {
				res.Status = StatusSuccess
				res.Success = true
				res.Run = &r
				if cfg.Progress != nil {
					cfg.Progress(res.AttemptCount, cfg.MaxAttempts)
				}
				return res
			}
		}
		if cfg.Progress != nil {
			cfg.Progress(res.AttemptCount, cfg.MaxAttempts)
		}
	}
	res.Status = StatusExhausted
	return res
}
