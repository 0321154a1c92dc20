package sweep

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jinzhu/copier"
	"github.com/sourcegraph/conc/pool"

	"gasweep/internal/evo"
	"gasweep/internal/model"
	"gasweep/internal/problem"
)

const (
	DefaultRunsPerConfig = 100
	progressEvery        = 10
)

type Request struct {
	Problem       problem.Problem
	Grid          []model.Config
	RunsPerConfig int
	// Seed is the base seed; every run derives its own from it.
	Seed    int64
	Workers int
	Logger  *slog.Logger
}

type job struct {
	index     int
	gridIndex int
	run       int
	cfg       model.Config
}

// Run executes every configuration of the grid RunsPerConfig times and
// returns one record per run, ordered by grid position and then run number.
// The result does not depend on Workers.
func Run(ctx context.Context, req Request) ([]model.RunRecord, error) {
	if req.Problem == nil {
		return nil, errors.New("sweep problem is required")
	}
	if len(req.Grid) == 0 {
		return nil, errors.New("sweep grid is empty")
	}
	if req.RunsPerConfig < 0 {
		return nil, fmt.Errorf("runs per config must be >= 0, got %d", req.RunsPerConfig)
	}
	runs := req.RunsPerConfig
	if runs == 0 {
		runs = DefaultRunsPerConfig
	}
	for i, cfg := range req.Grid {
		if err := evo.ValidateConfig(cfg); err != nil {
			return nil, fmt.Errorf("grid entry %d: %w", i, err)
		}
	}
	logger := req.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	jobs := make([]job, 0, len(req.Grid)*runs)
	for g, cfg := range req.Grid {
		for r := 0; r < runs; r++ {
			jobs = append(jobs, job{index: len(jobs), gridIndex: g, run: r, cfg: cfg})
		}
	}
	records := make([]model.RunRecord, len(jobs))

	if req.Workers <= 1 {
		for _, j := range jobs {
			if j.run == 0 {
				logConfig(logger, req.Problem.Mode(), j.cfg)
			}
			if j.run%progressEvery == 0 {
				logger.Debug("run progress", "run", j.run+1, "of", runs)
			}
			record, err := runOne(ctx, req, runs, j)
			if err != nil {
				return nil, err
			}
			records[j.index] = record
		}
		return records, nil
	}

	p := pool.New().WithMaxGoroutines(req.Workers).WithContext(ctx).WithCancelOnError().WithFirstError()
	for g, cfg := range req.Grid {
		logConfig(logger, req.Problem.Mode(), cfg)
		for _, j := range jobs[g*runs : (g+1)*runs] {
			j := j
			p.Go(func(ctx context.Context) error {
				record, err := runOne(ctx, req, runs, j)
				if err != nil {
					return err
				}
				records[j.index] = record
				return nil
			})
		}
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}

// RunSeed is the seed of one run; it only depends on the run's position.
func RunSeed(base int64, gridIndex, runsPerConfig, run int) int64 {
	return base + int64(gridIndex)*int64(runsPerConfig) + int64(run)
}

func runOne(ctx context.Context, req Request, runs int, j job) (model.RunRecord, error) {
	evolver, err := evo.NewEvolver(evo.EvolverConfig{
		Problem: req.Problem,
		Config:  j.cfg,
		Seed:    RunSeed(req.Seed, j.gridIndex, runs, j.run),
	})
	if err != nil {
		return model.RunRecord{}, err
	}

	start := time.Now()
	result, err := evolver.Run(ctx)
	elapsed := time.Since(start)
	if err != nil {
		return model.RunRecord{}, fmt.Errorf("config %d run %d: %w", j.gridIndex, j.run+1, err)
	}

	var record model.RunRecord
	if err := copier.Copy(&record, &j.cfg); err != nil {
		return model.RunRecord{}, fmt.Errorf("copy config into record: %w", err)
	}
	record.Mode = req.Problem.Mode()
	record.Run = j.run + 1
	record.Found = result.Found
	record.GenerationFound = result.GenerationFound
	record.Time = elapsed.Seconds()
	return record, nil
}

func logConfig(logger *slog.Logger, mode string, cfg model.Config) {
	logger.Info("running configuration",
		"mode", mode,
		"crossover", cfg.CrossoverRate,
		"pop", cfg.PopulationSize,
		"gen", cfg.Generations,
	)
}
