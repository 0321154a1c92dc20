package problem

import (
	"fmt"
	"math/rand"

	"gasweep/internal/model"
)

// Queens places one queen per column; row and column collisions are excluded
// by the permutation encoding, so fitness only measures diagonal conflicts.
type Queens struct {
	n int
}

func NewQueens(n int) (*Queens, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: board size must be >= 1, got %d", ErrDegenerateInstance, n)
	}
	return &Queens{n: n}, nil
}

func (q *Queens) Mode() string { return ModeQueens }

func (q *Queens) Size() int { return q.n }

func (q *Queens) Initialize(rng *rand.Rand) model.Individual {
	return model.Individual(rng.Perm(q.n))
}

func (q *Queens) Evaluate(ind model.Individual) (float64, error) {
	return QueensFitness(ind)
}

func (q *Queens) Crossover(rng *rand.Rand, p1, p2 model.Individual) model.Individual {
	return OrderCrossover(rng, p1, p2)
}

func (q *Queens) Mutate(rng *rand.Rand, ind model.Individual, rate float64) model.Individual {
	return SwapMutation(rng, ind, rate)
}

// QueensConflicts counts column pairs sharing a diagonal.
func QueensConflicts(ind model.Individual) int {
	conflicts := 0
	for i := 0; i < len(ind); i++ {
		for j := i + 1; j < len(ind); j++ {
			if abs(ind[i]-ind[j]) == j-i {
				conflicts++
			}
		}
	}
	return conflicts
}

// QueensFitness returns 1 - conflicts/(N*(N-1)/2). A single queen has no pairs
// and scores 1.0.
func QueensFitness(ind model.Individual) (float64, error) {
	n := len(ind)
	if n == 0 {
		return 0, fmt.Errorf("%w: empty queens individual", ErrDegenerateInstance)
	}
	if n == 1 {
		return 1, nil
	}
	maxConflicts := float64(n*(n-1)) / 2
	return 1 - float64(QueensConflicts(ind))/maxConflicts, nil
}

// OrderCrossover copies p1[start:end) into the child and fills the remaining
// positions left to right with p2's values in order, skipping values already
// present.
func OrderCrossover(rng *rand.Rand, p1, p2 model.Individual) model.Individual {
	n := len(p1)
	if n < 2 || len(p2) != n {
		return p1.Clone()
	}
	start, end := twoDistinct(rng, n)
	if start > end {
		start, end = end, start
	}

	child := make(model.Individual, n)
	used := make(map[int]struct{}, n)
	for i := start; i < end; i++ {
		child[i] = p1[i]
		used[p1[i]] = struct{}{}
	}

	pos := 0
	for _, value := range p2 {
		if _, ok := used[value]; ok {
			continue
		}
		for pos >= start && pos < end {
			pos++
		}
		if pos >= n {
			break
		}
		child[pos] = value
		used[value] = struct{}{}
		pos++
	}
	return child
}

// SwapMutation swaps two distinct positions with probability rate.
func SwapMutation(rng *rand.Rand, ind model.Individual, rate float64) model.Individual {
	out := ind.Clone()
	if len(out) < 2 {
		return out
	}
	if rng.Float64() < rate {
		i, j := twoDistinct(rng, len(out))
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// twoDistinct samples two different indices in [0, n) uniformly.
func twoDistinct(rng *rand.Rand, n int) (int, int) {
	i := rng.Intn(n)
	j := rng.Intn(n - 1)
	if j >= i {
		j++
	}
	return i, j
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
