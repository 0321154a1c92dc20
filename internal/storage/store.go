package storage

import (
	"context"

	"gasweep/internal/model"
)

// Store persists experiments, their run records and per-run diagnostics.
// Lookups of missing keys return (zero, false, nil).
type Store interface {
	Init(ctx context.Context) error
	SaveExperiment(ctx context.Context, experiment model.Experiment) error
	GetExperiment(ctx context.Context, id string) (model.Experiment, bool, error)
	ListExperiments(ctx context.Context) ([]model.Experiment, error)
	SaveRunRecords(ctx context.Context, experimentID string, records []model.RunRecord) error
	GetRunRecords(ctx context.Context, experimentID string) ([]model.RunRecord, bool, error)
	SaveGenerationDiagnostics(ctx context.Context, runID string, diagnostics []model.GenerationDiagnostics) error
	GetGenerationDiagnostics(ctx context.Context, runID string) ([]model.GenerationDiagnostics, bool, error)
}
