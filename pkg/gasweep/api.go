package gasweep

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"gasweep/internal/evo"
	"gasweep/internal/model"
	"gasweep/internal/problem"
	"gasweep/internal/stats"
	"gasweep/internal/storage"
	"gasweep/internal/sweep"
)

const (
	defaultArtifactsDir   = "artifacts"
	defaultExportsDir     = "exports"
	defaultDBPath         = "gasweep.db"
	defaultPopulationSize = 50
)

type Options struct {
	StoreKind    string
	DBPath       string
	ArtifactsDir string
	ExportsDir   string
	Logger       *slog.Logger
}

type Client struct {
	store       storage.Store
	initialized bool

	artifactsDir string
	exportsDir   string
	logger       *slog.Logger
	now          func() time.Time
}

// ProblemRequest selects a problem. Zero values take the defaults: 8 queens,
// or the built-in 6-region map with 4 colors.
type ProblemRequest struct {
	Mode      string
	N         int
	Colors    int
	Adjacency map[int][]int
}

type RunRequest struct {
	Problem        ProblemRequest
	CrossoverRate  float64
	PopulationSize int
	Generations    int
	MutationRate   float64
	EliteSize      int
	Seed           int64
	TrackHistory   bool
}

type RunSummary struct {
	RunID   string
	Problem model.ProblemSpec
	Config  model.Config
	Result  model.RunResult
	State   string
	Seconds float64
}

type SweepRequest struct {
	Problem ProblemRequest
	// Grid defaults to the 4x2x2 grid of the baseline experiments.
	Grid          []model.Config
	RunsPerConfig int
	Seed          int64
	Workers       int
	Notes         string
	Backfill      stats.Backfill
	Workbook      bool
}

type SweepSummary struct {
	ExperimentID string
	ArtifactsDir string
	Records      []model.RunRecord
	Summary      []model.SummaryRow
}

type ExportRequest struct {
	ExperimentID string
	Latest       bool
	Format       string
	OutDir       string
	Backfill     stats.Backfill
}

type ExportSummary struct {
	ExperimentID string
	Path         string
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	artifactsDir := opts.ArtifactsDir
	if artifactsDir == "" {
		artifactsDir = defaultArtifactsDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:        store,
		artifactsDir: artifactsDir,
		exportsDir:   exportsDir,
		logger:       logger,
		now:          time.Now,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// Run performs a single evolver run. With TrackHistory the per-generation
// diagnostics are stored under the returned run id.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	p, err := newProblem(req.Problem)
	if err != nil {
		return RunSummary{}, err
	}
	if req.PopulationSize <= 0 {
		req.PopulationSize = defaultPopulationSize
	}
	cfg := model.Config{
		CrossoverRate:  req.CrossoverRate,
		PopulationSize: req.PopulationSize,
		Generations:    req.Generations,
		MutationRate:   req.MutationRate,
		EliteSize:      req.EliteSize,
	}
	evolver, err := evo.NewEvolver(evo.EvolverConfig{
		Problem:      p,
		Config:       cfg,
		Seed:         req.Seed,
		TrackHistory: req.TrackHistory,
	})
	if err != nil {
		return RunSummary{}, err
	}

	start := c.now()
	result, err := evolver.Run(ctx)
	if err != nil {
		return RunSummary{}, err
	}
	elapsed := c.now().Sub(start)

	runID := fmt.Sprintf("%s-%d-%d", p.Mode(), req.Seed, start.UTC().UnixNano())
	if req.TrackHistory {
		if err := c.ensureStore(ctx); err != nil {
			return RunSummary{}, err
		}
		if err := c.store.SaveGenerationDiagnostics(ctx, runID, result.Diagnostics); err != nil {
			return RunSummary{}, err
		}
	}
	c.logger.Info("run finished",
		"run_id", runID,
		"mode", p.Mode(),
		"found", result.Found,
		"state", evolver.State().String(),
	)

	return RunSummary{
		RunID:   runID,
		Problem: problem.Describe(p),
		Config:  cfg,
		Result:  result,
		State:   evolver.State().String(),
		Seconds: elapsed.Seconds(),
	}, nil
}

// Sweep runs the grid, persists the experiment with its records and writes
// CSV/JSON (and optionally XLSX) artifacts.
func (c *Client) Sweep(ctx context.Context, req SweepRequest) (SweepSummary, error) {
	p, err := newProblem(req.Problem)
	if err != nil {
		return SweepSummary{}, err
	}
	grid := req.Grid
	if len(grid) == 0 {
		grid = sweep.DefaultGrid()
	}
	runs := req.RunsPerConfig
	if runs == 0 {
		runs = sweep.DefaultRunsPerConfig
	}
	if err := c.ensureStore(ctx); err != nil {
		return SweepSummary{}, err
	}

	experiment := model.Experiment{
		ID:            uuid.NewString(),
		Notes:         req.Notes,
		Problem:       problem.Describe(p),
		Grid:          append([]model.Config(nil), grid...),
		RunsPerConfig: runs,
		Seed:          req.Seed,
		Workers:       req.Workers,
		ProgressFlag:  model.ExperimentInProgress,
		StartedAtUTC:  c.now().UTC().Format(time.RFC3339Nano),
	}
	storage.Stamp(&experiment.VersionedRecord)
	if err := c.store.SaveExperiment(ctx, experiment); err != nil {
		return SweepSummary{}, err
	}

	records, err := sweep.Run(ctx, sweep.Request{
		Problem:       p,
		Grid:          grid,
		RunsPerConfig: runs,
		Seed:          req.Seed,
		Workers:       req.Workers,
		Logger:        c.logger.With("experiment_id", experiment.ID),
	})
	if err != nil {
		return SweepSummary{}, fmt.Errorf("experiment %s: %w", experiment.ID, err)
	}

	experiment.ProgressFlag = model.ExperimentCompleted
	experiment.CompletedAtUTC = c.now().UTC().Format(time.RFC3339Nano)
	if err := c.store.SaveRunRecords(ctx, experiment.ID, records); err != nil {
		return SweepSummary{}, err
	}
	if err := c.store.SaveExperiment(ctx, experiment); err != nil {
		return SweepSummary{}, err
	}

	summary := stats.Summarize(records, stats.SummaryOptions{Backfill: req.Backfill})
	dir, err := stats.WriteExperimentArtifacts(c.artifactsDir, stats.ExperimentArtifacts{
		Experiment: experiment,
		Records:    records,
		Summary:    summary,
		Workbook:   req.Workbook,
	})
	if err != nil {
		return SweepSummary{}, err
	}
	c.logger.Info("sweep finished",
		"experiment_id", experiment.ID,
		"configs", len(grid),
		"runs", len(records),
	)

	return SweepSummary{
		ExperimentID: experiment.ID,
		ArtifactsDir: filepath.Clean(dir),
		Records:      records,
		Summary:      summary,
	}, nil
}

// Experiments lists experiments from the store and the artifacts directory,
// newest first. The store entry wins when both know an id.
func (c *Client) Experiments(ctx context.Context) ([]model.Experiment, error) {
	if err := c.ensureStore(ctx); err != nil {
		return nil, err
	}
	stored, err := c.store.ListExperiments(ctx)
	if err != nil {
		return nil, err
	}
	onDisk, err := stats.ListExperiments(c.artifactsDir)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(stored))
	out := make([]model.Experiment, 0, len(stored)+len(onDisk))
	for _, exp := range stored {
		seen[exp.ID] = struct{}{}
		out = append(out, exp)
	}
	for _, exp := range onDisk {
		if _, ok := seen[exp.ID]; ok {
			continue
		}
		out = append(out, exp)
	}
	model.SortExperiments(out)
	return out, nil
}

// Records returns the run records of an experiment, falling back to the
// artifacts directory when the store does not hold them.
func (c *Client) Records(ctx context.Context, experimentID string) ([]model.RunRecord, error) {
	if experimentID == "" {
		return nil, errors.New("experiment id is required")
	}
	if err := c.ensureStore(ctx); err != nil {
		return nil, err
	}
	records, ok, err := c.store.GetRunRecords(ctx, experimentID)
	if err != nil {
		return nil, err
	}
	if ok {
		return records, nil
	}
	records, ok, err = stats.ReadExperimentRecords(c.artifactsDir, experimentID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("run records not found for experiment id: %s", experimentID)
	}
	return records, nil
}

func (c *Client) Summary(ctx context.Context, experimentID string, policy stats.Backfill) ([]model.SummaryRow, error) {
	records, err := c.Records(ctx, experimentID)
	if err != nil {
		return nil, err
	}
	return stats.Summarize(records, stats.SummaryOptions{Backfill: policy}), nil
}

func (c *Client) Diagnostics(ctx context.Context, runID string) ([]model.GenerationDiagnostics, error) {
	if runID == "" {
		return nil, errors.New("run id is required")
	}
	if err := c.ensureStore(ctx); err != nil {
		return nil, err
	}
	diagnostics, ok, err := c.store.GetGenerationDiagnostics(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("diagnostics not found for run id: %s", runID)
	}
	return diagnostics, nil
}

func (c *Client) Export(ctx context.Context, req ExportRequest) (ExportSummary, error) {
	if req.ExperimentID != "" && req.Latest {
		return ExportSummary{}, errors.New("use either experiment id or latest")
	}
	if req.ExperimentID == "" && !req.Latest {
		return ExportSummary{}, errors.New("export requires experiment id or latest")
	}
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}

	id := req.ExperimentID
	if req.Latest {
		experiments, err := c.Experiments(ctx)
		if err != nil {
			return ExportSummary{}, err
		}
		if len(experiments) == 0 {
			return ExportSummary{}, errors.New("no experiments available to export")
		}
		id = experiments[0].ID
	}

	records, err := c.Records(ctx, id)
	if err != nil {
		return ExportSummary{}, err
	}
	rows := stats.Summarize(records, stats.SummaryOptions{Backfill: req.Backfill})
	path, err := stats.ExportExperiment(req.OutDir, id, req.Format, records, rows)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{ExperimentID: id, Path: filepath.Clean(path)}, nil
}

func (c *Client) ensureStore(ctx context.Context) error {
	if c.initialized {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return err
	}
	c.initialized = true
	return nil
}

func newProblem(req ProblemRequest) (problem.Problem, error) {
	return problem.New(model.ProblemSpec{
		Mode:      req.Mode,
		N:         req.N,
		Colors:    req.Colors,
		Adjacency: req.Adjacency,
	})
}
