package evo

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"gasweep/internal/model"
	"gasweep/internal/problem"
)

var ErrInvalidConfig = errors.New("invalid evolver config")

// State is the lifecycle position of an Evolver run.
type State int

const (
	StateIdle State = iota
	StateInitializing
	StateEvaluating
	StateSucceeded
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInitializing:
		return "initializing"
	case StateEvaluating:
		return "evaluating"
	case StateSucceeded:
		return "terminated_success"
	case StateExhausted:
		return "terminated_exhausted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type EvolverConfig struct {
	Problem problem.Problem
	Config  model.Config
	// Seed initializes the random source unless Rand is set.
	Seed int64
	Rand *rand.Rand
	// TrackHistory records best/mean/min fitness for every evaluated
	// generation.
	TrackHistory bool
}

// Evolver drives a single generational GA run: evaluate, stop on a perfect
// score, otherwise keep the elites and breed the rest of the next population.
type Evolver struct {
	cfg   EvolverConfig
	rng   *rand.Rand
	state State
}

func NewEvolver(cfg EvolverConfig) (*Evolver, error) {
	if cfg.Problem == nil {
		return nil, fmt.Errorf("%w: problem is required", ErrInvalidConfig)
	}
	if err := ValidateConfig(cfg.Config); err != nil {
		return nil, err
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(cfg.Seed))
	}
	return &Evolver{cfg: cfg, rng: rng}, nil
}

// ValidateConfig checks a grid point before any run is started.
func ValidateConfig(c model.Config) error {
	if c.PopulationSize <= 0 {
		return fmt.Errorf("%w: population size must be > 0", ErrInvalidConfig)
	}
	if c.Generations < 0 {
		return fmt.Errorf("%w: generations must be >= 0", ErrInvalidConfig)
	}
	if c.EliteSize < 0 || c.EliteSize > c.PopulationSize {
		return fmt.Errorf("%w: elite size must be in [0, population size]", ErrInvalidConfig)
	}
	if c.CrossoverRate < 0 || c.CrossoverRate > 1 {
		return fmt.Errorf("%w: crossover rate must be in [0, 1]", ErrInvalidConfig)
	}
	if c.MutationRate < 0 || c.MutationRate > 1 {
		return fmt.Errorf("%w: mutation rate must be in [0, 1]", ErrInvalidConfig)
	}
	if c.EliteSize < c.PopulationSize && c.PopulationSize < 2 {
		return fmt.Errorf("%w: breeding needs two distinct parents, population size must be >= 2", ErrInvalidConfig)
	}
	return nil
}

func (e *Evolver) State() State {
	return e.state
}

func (e *Evolver) Run(ctx context.Context) (model.RunResult, error) {
	cfg := e.cfg.Config
	e.state = StateInitializing

	population := make([]model.Individual, cfg.PopulationSize)
	for i := range population {
		population[i] = e.cfg.Problem.Initialize(e.rng)
	}

	var result model.RunResult
	if e.cfg.TrackHistory {
		result.BestByGeneration = make([]float64, 0, cfg.Generations)
		result.Diagnostics = make([]model.GenerationDiagnostics, 0, cfg.Generations)
	}

	for gen := 0; gen < cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return model.RunResult{}, err
		}
		e.state = StateEvaluating

		scored, err := e.evaluatePopulation(population)
		if err != nil {
			return model.RunResult{}, fmt.Errorf("generation %d: %w", gen, err)
		}
		diag := summarizeGeneration(scored, gen)
		if e.cfg.TrackHistory {
			result.BestByGeneration = append(result.BestByGeneration, diag.BestFitness)
			result.Diagnostics = append(result.Diagnostics, diag)
		}
		result.Generations = gen + 1

		if diag.BestFitness == 1.0 {
			found := gen
			result.Found = true
			result.GenerationFound = &found
			e.state = StateSucceeded
			return result, nil
		}

		population = e.nextGeneration(scored)
	}

	e.state = StateExhausted
	return result, nil
}

func (e *Evolver) evaluatePopulation(population []model.Individual) ([]ScoredIndividual, error) {
	scored := make([]ScoredIndividual, len(population))
	for i, ind := range population {
		fitness, err := e.cfg.Problem.Evaluate(ind)
		if err != nil {
			return nil, err
		}
		scored[i] = ScoredIndividual{Individual: ind, Fitness: fitness}
	}
	return scored, nil
}

func (e *Evolver) nextGeneration(scored []ScoredIndividual) []model.Individual {
	cfg := e.cfg.Config
	next := make([]model.Individual, 0, cfg.PopulationSize)
	for _, elite := range TopElites(scored, cfg.EliteSize) {
		next = append(next, elite.Individual.Clone())
	}
	for len(next) < cfg.PopulationSize {
		p1, p2 := PickParents(e.rng, scored)
		var child model.Individual
		if e.rng.Float64() < cfg.CrossoverRate {
			child = e.cfg.Problem.Crossover(e.rng, p1, p2)
		} else {
			child = p1.Clone()
		}
		next = append(next, e.cfg.Problem.Mutate(e.rng, child, cfg.MutationRate))
	}
	return next
}

func summarizeGeneration(scored []ScoredIndividual, generation int) model.GenerationDiagnostics {
	if len(scored) == 0 {
		return model.GenerationDiagnostics{Generation: generation}
	}
	total := 0.0
	best := scored[0].Fitness
	worst := scored[0].Fitness
	for _, item := range scored {
		total += item.Fitness
		if item.Fitness > best {
			best = item.Fitness
		}
		if item.Fitness < worst {
			worst = item.Fitness
		}
	}
	return model.GenerationDiagnostics{
		Generation:  generation,
		BestFitness: best,
		MeanFitness: total / float64(len(scored)),
		MinFitness:  worst,
	}
}
