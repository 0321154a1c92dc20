package evo

import (
	"math/rand"
	"sort"

	"gasweep/internal/model"
)

type ScoredIndividual struct {
	Individual model.Individual
	Fitness    float64
}

// RankByFitness returns a copy of scored ordered by descending fitness. Ties
// keep their population order, so the ranking is deterministic for identical
// inputs.
func RankByFitness(scored []ScoredIndividual) []ScoredIndividual {
	ranked := make([]ScoredIndividual, len(scored))
	copy(ranked, scored)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Fitness > ranked[j].Fitness
	})
	return ranked
}

// TopElites returns the count fittest members. The caller clones them before
// placing them in a new population.
func TopElites(scored []ScoredIndividual, count int) []ScoredIndividual {
	if count <= 0 {
		return nil
	}
	ranked := RankByFitness(scored)
	if count > len(ranked) {
		count = len(ranked)
	}
	return ranked[:count]
}

// PickParents samples two members at distinct positions uniformly at random.
// scored must hold at least two members.
func PickParents(rng *rand.Rand, scored []ScoredIndividual) (model.Individual, model.Individual) {
	i := rng.Intn(len(scored))
	j := rng.Intn(len(scored) - 1)
	if j >= i {
		j++
	}
	return scored[i].Individual, scored[j].Individual
}
