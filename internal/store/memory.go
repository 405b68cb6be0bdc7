package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps runs in process. It backs one-shot runs and tests.
type MemoryStore struct {
	mu          sync.RWMutex
	runs        map[uuid.UUID]*Run
	order       []uuid.UUID
	experiments map[uuid.UUID][]*Experiment
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		runs:        make(map[uuid.UUID]*Run),
		experiments: make(map[uuid.UUID][]*Experiment),
	}
}

func (s *MemoryStore) CreateRun(_ context.Context, run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if _, ok := s.runs[run.ID]; !ok {
		s.order = append(s.order, run.ID)
	}
	cp := *run
	s.runs[run.ID] = &cp
	return nil
}

func (s *MemoryStore) UpdateRun(_ context.Context, run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[run.ID]; !ok {
		return ErrNotFound
	}
	cp := *run
	s.runs[run.ID] = &cp
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id uuid.UUID) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.runs[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

// ListRuns returns the newest runs first.
func (s *MemoryStore) ListRuns(_ context.Context, limit int) ([]*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Run, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		cp := *s.runs[s.order[i]]
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryStore) SaveExperiments(_ context.Context, runID uuid.UUID, experiments []*Experiment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[runID]; !ok {
		return ErrNotFound
	}
	saved := make([]*Experiment, len(experiments))
	for i, e := range experiments {
		cp := *e
		cp.RunID = runID
		saved[i] = &cp
	}
	sort.SliceStable(saved, func(i, j int) bool {
		if saved[i].RankAll != saved[j].RankAll {
			return saved[i].RankAll < saved[j].RankAll
		}
		return saved[i].ExperimentID < saved[j].ExperimentID
	})
	s.experiments[runID] = saved
	return nil
}

func (s *MemoryStore) ListExperiments(_ context.Context, runID uuid.UUID, filter ExperimentFilter) ([]*Experiment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Experiment
	for _, e := range s.experiments[runID] {
		if filter.FeasibleOnly && !e.Feasible {
			continue
		}
		cp := *e
		out = append(out, &cp)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryStore) GetExperiment(_ context.Context, runID uuid.UUID, experimentID string) (*Experiment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.experiments[runID] {
		if e.ExperimentID == experimentID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) Close() error { return nil }
