package sweep

import (
	"gasweep/internal/model"
)

// GridSpec describes a cartesian hyperparameter grid. Empty mutation or elite
// axes fall back to the model defaults.
type GridSpec struct {
	CrossoverRates  []float64 `toml:"crossover_rates"`
	PopulationSizes []int     `toml:"population_sizes"`
	Generations     []int     `toml:"generations"`
	MutationRates   []float64 `toml:"mutation_rates"`
	EliteSizes      []int     `toml:"elite_sizes"`
}

// DefaultGridSpec is the 4x2x2 grid of the baseline experiments.
func DefaultGridSpec() GridSpec {
	return GridSpec{
		CrossoverRates:  []float64{0.01, 0.6, 0.8, 0.9},
		PopulationSizes: []int{15, 50},
		Generations:     []int{100, 500},
	}
}

func DefaultGrid() []model.Config {
	return DefaultGridSpec().Build()
}

// Build expands the grid with crossover rate as the outermost axis, then
// population size, generations, mutation rate and elite size.
func (g GridSpec) Build() []model.Config {
	mutationRates := g.MutationRates
	if len(mutationRates) == 0 {
		mutationRates = []float64{model.DefaultMutationRate}
	}
	eliteSizes := g.EliteSizes
	if len(eliteSizes) == 0 {
		eliteSizes = []int{model.DefaultEliteSize}
	}

	grid := make([]model.Config, 0, len(g.CrossoverRates)*len(g.PopulationSizes)*len(g.Generations)*len(mutationRates)*len(eliteSizes))
	for _, cr := range g.CrossoverRates {
		for _, pop := range g.PopulationSizes {
			for _, gens := range g.Generations {
				for _, mr := range mutationRates {
					for _, elite := range eliteSizes {
						grid = append(grid, model.Config{
							CrossoverRate:  cr,
							PopulationSize: pop,
							Generations:    gens,
							MutationRate:   mr,
							EliteSize:      elite,
						})
					}
				}
			}
		}
	}
	return grid
}

// BuildGrid is the three-axis form used by the baseline experiments.
func BuildGrid(crossoverRates []float64, populationSizes, generations []int) []model.Config {
	return GridSpec{
		CrossoverRates:  crossoverRates,
		PopulationSizes: populationSizes,
		Generations:     generations,
	}.Build()
}
