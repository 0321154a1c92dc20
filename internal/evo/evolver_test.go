package evo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gasweep/internal/model"
	"gasweep/internal/problem"
)

type countingProblem struct {
	problem.Problem
	evaluations int
}

func (c *countingProblem) Evaluate(ind model.Individual) (float64, error) {
	c.evaluations++
	return c.Problem.Evaluate(ind)
}

func defaultConfig() model.Config {
	return model.Config{
		CrossoverRate:  0.9,
		PopulationSize: 20,
		Generations:    50,
		MutationRate:   model.DefaultMutationRate,
		EliteSize:      model.DefaultEliteSize,
	}
}

func TestEvolverZeroGenerationsNeverEvaluates(t *testing.T) {
	queens, err := problem.NewQueens(8)
	require.NoError(t, err)
	counter := &countingProblem{Problem: queens}

	cfg := defaultConfig()
	cfg.Generations = 0
	evolver, err := NewEvolver(EvolverConfig{Problem: counter, Config: cfg, Seed: 1})
	require.NoError(t, err)

	result, err := evolver.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Found)
	assert.Nil(t, result.GenerationFound)
	assert.Zero(t, counter.evaluations)
	assert.Equal(t, StateExhausted, evolver.State())
}

func TestEvolverSingleQueenSolvedImmediately(t *testing.T) {
	queens, err := problem.NewQueens(1)
	require.NoError(t, err)

	cfg := defaultConfig()
	cfg.PopulationSize = 4
	evolver, err := NewEvolver(EvolverConfig{Problem: queens, Config: cfg, Seed: 3})
	require.NoError(t, err)

	result, err := evolver.Run(context.Background())
	require.NoError(t, err)
	require.True(t, result.Found)
	require.NotNil(t, result.GenerationFound)
	assert.Equal(t, 0, *result.GenerationFound)
	assert.Equal(t, StateSucceeded, evolver.State())
}

func TestEvolverTwoRegionMapConverges(t *testing.T) {
	coloring, err := problem.NewMapColoring(2, 2, problem.AdjacencyMap{0: {1}, 1: {0}})
	require.NoError(t, err)

	cfg := defaultConfig()
	cfg.PopulationSize = 10
	cfg.Generations = 20
	for seed := int64(0); seed < 50; seed++ {
		evolver, err := NewEvolver(EvolverConfig{Problem: coloring, Config: cfg, Seed: seed})
		require.NoError(t, err)
		result, err := evolver.Run(context.Background())
		require.NoError(t, err)
		require.True(t, result.Found, "seed %d", seed)
		require.Less(t, *result.GenerationFound, cfg.Generations)
	}
}

func TestEvolverDefaultMapMostlySolved(t *testing.T) {
	coloring, err := problem.New(model.ProblemSpec{Mode: problem.ModeMap})
	require.NoError(t, err)

	cfg := defaultConfig()
	cfg.Generations = 200
	solved := 0
	for seed := int64(0); seed < 20; seed++ {
		evolver, err := NewEvolver(EvolverConfig{Problem: coloring, Config: cfg, Seed: seed})
		require.NoError(t, err)
		result, err := evolver.Run(context.Background())
		require.NoError(t, err)
		if result.Found {
			solved++
		}
	}
	assert.GreaterOrEqual(t, solved, 18)
}

func TestEvolverDeterministicForSeed(t *testing.T) {
	queens, err := problem.NewQueens(6)
	require.NoError(t, err)
	cfg := defaultConfig()

	run := func() model.RunResult {
		evolver, err := NewEvolver(EvolverConfig{Problem: queens, Config: cfg, Seed: 42, TrackHistory: true})
		require.NoError(t, err)
		result, err := evolver.Run(context.Background())
		require.NoError(t, err)
		return result
	}
	assert.Equal(t, run(), run())
}

func TestEvolverTracksHistoryPerEvaluatedGeneration(t *testing.T) {
	queens, err := problem.NewQueens(8)
	require.NoError(t, err)
	counter := &countingProblem{Problem: queens}

	cfg := defaultConfig()
	cfg.Generations = 5
	cfg.PopulationSize = 6
	evolver, err := NewEvolver(EvolverConfig{Problem: counter, Config: cfg, Seed: 8, TrackHistory: true})
	require.NoError(t, err)

	result, err := evolver.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.BestByGeneration, result.Generations)
	require.Len(t, result.Diagnostics, result.Generations)
	assert.Equal(t, result.Generations*cfg.PopulationSize, counter.evaluations)
	for i, diag := range result.Diagnostics {
		assert.Equal(t, i, diag.Generation)
		assert.LessOrEqual(t, diag.MinFitness, diag.MeanFitness)
		assert.LessOrEqual(t, diag.MeanFitness, diag.BestFitness)
	}
	// Elitism never loses the best score between generations.
	for i := 1; i < len(result.BestByGeneration); i++ {
		assert.GreaterOrEqual(t, result.BestByGeneration[i], result.BestByGeneration[i-1])
	}
}

func TestEvolverHonorsCancelledContext(t *testing.T) {
	queens, err := problem.NewQueens(8)
	require.NoError(t, err)
	evolver, err := NewEvolver(EvolverConfig{Problem: queens, Config: defaultConfig(), Seed: 1})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = evolver.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestValidateConfig(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*model.Config)
	}{
		{name: "zero population", mutate: func(c *model.Config) { c.PopulationSize = 0 }},
		{name: "negative generations", mutate: func(c *model.Config) { c.Generations = -1 }},
		{name: "elite above population", mutate: func(c *model.Config) { c.EliteSize = c.PopulationSize + 1 }},
		{name: "negative elite", mutate: func(c *model.Config) { c.EliteSize = -1 }},
		{name: "crossover above one", mutate: func(c *model.Config) { c.CrossoverRate = 1.5 }},
		{name: "negative mutation", mutate: func(c *model.Config) { c.MutationRate = -0.1 }},
		{name: "single breeder", mutate: func(c *model.Config) { c.PopulationSize = 1; c.EliteSize = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutate(&cfg)
			require.ErrorIs(t, ValidateConfig(cfg), ErrInvalidConfig)
		})
	}

	cfg := defaultConfig()
	cfg.PopulationSize = 1
	cfg.EliteSize = 1
	require.NoError(t, ValidateConfig(cfg))

	_, err := NewEvolver(EvolverConfig{Config: defaultConfig()})
	require.ErrorIs(t, err, ErrInvalidConfig)
}
