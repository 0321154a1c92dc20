package problem

import (
	"fmt"
	"math/rand"

	"gasweep/internal/model"
)

// MapColoring assigns one of colors to each region so that no two neighboring
// regions share a color.
type MapColoring struct {
	regions   int
	colors    int
	adjacency AdjacencyMap
}

func NewMapColoring(regions, colors int, adjacency AdjacencyMap) (*MapColoring, error) {
	if regions < 1 {
		return nil, fmt.Errorf("%w: region count must be >= 1, got %d", ErrDegenerateInstance, regions)
	}
	if colors < 1 {
		return nil, fmt.Errorf("%w: color count must be >= 1, got %d", ErrDegenerateInstance, colors)
	}
	if err := adjacency.Validate(regions); err != nil {
		return nil, err
	}
	if adjacency.EdgeCount() == 0 {
		return nil, fmt.Errorf("%w: adjacency map has no edges", ErrDegenerateInstance)
	}
	return &MapColoring{
		regions:   regions,
		colors:    colors,
		adjacency: adjacency.Clone(),
	}, nil
}

func (m *MapColoring) Mode() string { return ModeMap }

func (m *MapColoring) Regions() int { return m.regions }

func (m *MapColoring) Colors() int { return m.colors }

func (m *MapColoring) Initialize(rng *rand.Rand) model.Individual {
	ind := make(model.Individual, m.regions)
	for i := range ind {
		ind[i] = rng.Intn(m.colors)
	}
	return ind
}

func (m *MapColoring) Evaluate(ind model.Individual) (float64, error) {
	return MapColoringFitness(ind, m.adjacency)
}

func (m *MapColoring) Crossover(rng *rand.Rand, p1, p2 model.Individual) model.Individual {
	return SinglePointCrossover(rng, p1, p2)
}

func (m *MapColoring) Mutate(rng *rand.Rand, ind model.Individual, rate float64) model.Individual {
	return RandomResetMutation(rng, ind, m.colors, rate)
}

// MapColoringFitness returns 1 - conflicts/edges where a conflict is an edge
// whose endpoints share a color.
func MapColoringFitness(ind model.Individual, adjacency AdjacencyMap) (float64, error) {
	entries := adjacency.Entries()
	if entries == 0 {
		return 0, fmt.Errorf("%w: adjacency map has no edges", ErrDegenerateInstance)
	}
	conflicts := 0
	for region, neighbors := range adjacency {
		if region < 0 || region >= len(ind) {
			return 0, fmt.Errorf("%w: region %d outside individual of length %d", ErrInvalidAdjacency, region, len(ind))
		}
		for _, n := range neighbors {
			if n < 0 || n >= len(ind) {
				return 0, fmt.Errorf("%w: neighbor %d outside individual of length %d", ErrInvalidAdjacency, n, len(ind))
			}
			if ind[region] == ind[n] {
				conflicts++
			}
		}
	}
	// Each conflicting edge was seen from both endpoints.
	conflicts /= 2
	maxConflicts := float64(entries) / 2
	return 1 - float64(conflicts)/maxConflicts, nil
}

// SinglePointCrossover joins p1[:point] and p2[point:] for a point in
// [1, len-1].
func SinglePointCrossover(rng *rand.Rand, p1, p2 model.Individual) model.Individual {
	n := len(p1)
	if n < 2 || len(p2) != n {
		return p1.Clone()
	}
	point := 1 + rng.Intn(n-1)
	child := make(model.Individual, 0, n)
	child = append(child, p1[:point]...)
	child = append(child, p2[point:]...)
	return child
}

// RandomResetMutation recolors one random region with a different color, with
// probability rate.
func RandomResetMutation(rng *rand.Rand, ind model.Individual, colors int, rate float64) model.Individual {
	out := ind.Clone()
	if len(out) == 0 || colors < 2 {
		return out
	}
	if rng.Float64() < rate {
		i := rng.Intn(len(out))
		current := out[i]
		if current < 0 || current >= colors {
			out[i] = rng.Intn(colors)
			return out
		}
		next := rng.Intn(colors - 1)
		if next >= current {
			next++
		}
		out[i] = next
	}
	return out
}
