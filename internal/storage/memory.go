package storage

import (
	"context"
	"errors"
	"sync"

	"gasweep/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	experiments map[string]model.Experiment
	records     map[string][]model.RunRecord
	diagnostics map[string][]model.GenerationDiagnostics
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.experiments = make(map[string]model.Experiment)
	s.records = make(map[string][]model.RunRecord)
	s.diagnostics = make(map[string][]model.GenerationDiagnostics)
	return nil
}

func (s *MemoryStore) SaveExperiment(_ context.Context, experiment model.Experiment) error {
	if experiment.ID == "" {
		return errors.New("experiment id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	experiment.Grid = append([]model.Config(nil), experiment.Grid...)
	s.experiments[experiment.ID] = experiment
	return nil
}

func (s *MemoryStore) GetExperiment(_ context.Context, id string) (model.Experiment, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	experiment, ok := s.experiments[id]
	if !ok {
		return model.Experiment{}, false, nil
	}
	experiment.Grid = append([]model.Config(nil), experiment.Grid...)
	return experiment, true, nil
}

func (s *MemoryStore) ListExperiments(_ context.Context) ([]model.Experiment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Experiment, 0, len(s.experiments))
	for _, experiment := range s.experiments {
		experiment.Grid = append([]model.Config(nil), experiment.Grid...)
		out = append(out, experiment)
	}
	model.SortExperiments(out)
	return out, nil
}

func (s *MemoryStore) SaveRunRecords(_ context.Context, experimentID string, records []model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[experimentID] = copyRecords(records)
	return nil
}

func (s *MemoryStore) GetRunRecords(_ context.Context, experimentID string) ([]model.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records, ok := s.records[experimentID]
	if !ok {
		return nil, false, nil
	}
	return copyRecords(records), true, nil
}

func (s *MemoryStore) SaveGenerationDiagnostics(_ context.Context, runID string, diagnostics []model.GenerationDiagnostics) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]model.GenerationDiagnostics, len(diagnostics))
	copy(copied, diagnostics)
	s.diagnostics[runID] = copied
	return nil
}

func (s *MemoryStore) GetGenerationDiagnostics(_ context.Context, runID string) ([]model.GenerationDiagnostics, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	diagnostics, ok := s.diagnostics[runID]
	if !ok {
		return nil, false, nil
	}
	copied := make([]model.GenerationDiagnostics, len(diagnostics))
	copy(copied, diagnostics)
	return copied, true, nil
}

// copyRecords also detaches the GenerationFound pointers.
func copyRecords(records []model.RunRecord) []model.RunRecord {
	copied := make([]model.RunRecord, len(records))
	for i, record := range records {
		if record.GenerationFound != nil {
			gen := *record.GenerationFound
			record.GenerationFound = &gen
		}
		copied[i] = record
	}
	return copied
}
