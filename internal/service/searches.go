package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xtding233/enhance-sim/internal/enhance"
	"github.com/xtding233/enhance-sim/internal/logger"
)

// StatusRunning marks a search that has not finished yet.
const StatusRunning enhance.SearchStatus = "running"

// SearchJob is a snapshot of a background auto search.
type SearchJob struct {
	ID          string                `json:"id"`
	Status      enhance.SearchStatus  `json:"status"`
	Target      string                `json:"target"`
	Done        int                   `json:"done"`
	MaxAttempts int                   `json:"maxAttempts"`
	Result      *enhance.SearchResult `json:"result,omitempty"`
	StartedAt   time.Time             `json:"startedAt"`
	FinishedAt  *time.Time            `json:"finishedAt,omitempty"`
}

type searchJob struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu   sync.Mutex
	snap SearchJob
}

func (j *searchJob) snapshot() SearchJob {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.snap
}

type searchStore struct {
	limit int
	ttl   time.Duration

	mu   sync.Mutex
	jobs map[string]*searchJob
}

func newSearchStore(limit int, ttl time.Duration) *searchStore {
	return &searchStore{limit: limit, ttl: ttl, jobs: make(map[string]*searchJob)}
}

// purge drops finished jobs past their TTL and counts the running ones.
// Caller holds mu.
func (st *searchStore) purge(now time.Time) (running int) {
	for id, j := range st.jobs {
		snap := j.snapshot()
		if snap.FinishedAt == nil {
			running++
			continue
		}
		if now.Sub(*snap.FinishedAt) > st.ttl {
			delete(st.jobs, id)
		}
	}
	return running
}

func (st *searchStore) get(id string) (*searchJob, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.purge(time.Now())
	j, ok := st.jobs[id]
	return j, ok
}

func (st *searchStore) cancelAll() {
	st.mu.Lock()
	jobs := make([]*searchJob, 0, len(st.jobs))
	for _, j := range st.jobs {
		jobs = append(jobs, j)
	}
	st.mu.Unlock()
	for _, j := range jobs {
		j.cancel()
		<-j.done
	}
}

// StartSearch launches an auto search in the background and returns its id.
// The search is detached from ctx; stop it with CancelSearch.
func (s *Service) StartSearch(ctx context.Context, req SearchRequest) (SearchJob, error) {
	settings, e := s.current()
	if err := req.Filters.validate(); err != nil {
		return SearchJob{}, err
	}
	target, err := req.Target.requiredTarget(e.Catalog())
	if err != nil {
		return SearchJob{}, err
	}
	seed, err := fixedBuild(e, req.Fixed)
	if err != nil {
		return SearchJob{}, err
	}
	maxAttempts := settings.Attempts.ClampInt(req.MaxAttempts)

	st := s.searches
	st.mu.Lock()
	if st.purge(time.Now()) >= st.limit {
		st.mu.Unlock()
		return SearchJob{}, fmt.Errorf("%w: %d searches running", ErrTooMany, st.limit)
	}
	runCtx, cancel := context.WithCancel(logger.WithRequestID(context.Background(), logger.RequestID(ctx)))
	j := &searchJob{
		cancel: cancel,
		done:   make(chan struct{}),
		snap: SearchJob{
			ID:          uuid.NewString(),
			Status:      StatusRunning,
			Target:      target.String(),
			MaxAttempts: maxAttempts,
			StartedAt:   time.Now(),
		},
	}
	id := j.snap.ID
	st.jobs[id] = j
	st.mu.Unlock()

	if s.metrics != nil {
		s.metrics.SearchesActive.Inc()
	}
	cfg := enhance.SearchConfig{
		Target:      target,
		Filters:     req.Filters.apply(settings.Filters),
		MaxAttempts: maxAttempts,
		BatchSize:   settings.BatchSize,
		KeepHistory: req.KeepHistory,
		Seed:        seed,
		Progress: func(done, _ int) {
			j.mu.Lock()
			j.snap.Done = done
			j.mu.Unlock()
		},
	}
	src := rng(req.Seed)
	go func() {
		defer close(j.done)
		defer cancel()
		res := e.FindTarget(runCtx, cfg, src)
		now := time.Now()
		j.mu.Lock()
		j.snap.Status = res.Status
		j.snap.Done = res.AttemptCount
		j.snap.Result = &res
		j.snap.FinishedAt = &now
		j.mu.Unlock()
		if s.metrics != nil {
			s.metrics.SearchesActive.Dec()
			s.metrics.ObserveSearch(string(res.Status), res.AttemptCount)
		}
		logger.Info(runCtx, "search finished", "id", id, "status", res.Status, "attempts", res.AttemptCount)
	}()
	return j.snapshot(), nil
}

// Search returns the current state of a search.
func (s *Service) Search(id string) (SearchJob, error) {
	j, ok := s.searches.get(id)
	if !ok {
		return SearchJob{}, fmt.Errorf("search %s: %w", id, ErrNotFound)
	}
	return j.snapshot(), nil
}

// WaitSearch blocks until the search finishes or ctx is done.
func (s *Service) WaitSearch(ctx context.Context, id string) (SearchJob, error) {
	j, ok := s.searches.get(id)
	if !ok {
		return SearchJob{}, fmt.Errorf("search %s: %w", id, ErrNotFound)
	}
	select {
	case <-j.done:
	case <-ctx.Done():
		return j.snapshot(), ctx.Err()
	}
	return j.snapshot(), nil
}

// CancelSearch requests a stop. The search ends at the next batch boundary
// with status stopped; the returned snapshot reflects the final state.
func (s *Service) CancelSearch(id string) (SearchJob, error) {
	j, ok := s.searches.get(id)
	if !ok {
		return SearchJob{}, fmt.Errorf("search %s: %w", id, ErrNotFound)
	}
	j.cancel()
	<-j.done
	return j.snapshot(), nil
}
