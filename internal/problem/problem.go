package problem

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"gasweep/internal/model"
)

const (
	ModeQueens = "queens"
	ModeMap    = "map"

	DefaultQueens = 8
	DefaultColors = 4
)

var (
	ErrInvalidMode        = errors.New("mode must be 'queens' or 'map'")
	ErrDegenerateInstance = errors.New("degenerate problem instance")
	ErrInvalidAdjacency   = errors.New("invalid adjacency map")
)

// Problem is the capability set the evolver needs from a problem type.
// Operators never modify their arguments.
type Problem interface {
	Mode() string
	Initialize(rng *rand.Rand) model.Individual
	Evaluate(ind model.Individual) (float64, error)
	Crossover(rng *rand.Rand, p1, p2 model.Individual) model.Individual
	Mutate(rng *rand.Rand, ind model.Individual, rate float64) model.Individual
}

// ParseMode normalizes a mode name and rejects unknown modes.
func ParseMode(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case ModeQueens:
		return ModeQueens, nil
	case ModeMap:
		return ModeMap, nil
	default:
		return "", fmt.Errorf("%w: got %q", ErrInvalidMode, name)
	}
}

// New builds the problem described by spec. Zero-valued fields fall back to
// the defaults of the baseline experiments: 8 queens, or the default 6-region
// map with 4 colors.
func New(spec model.ProblemSpec) (Problem, error) {
	mode, err := ParseMode(spec.Mode)
	if err != nil {
		return nil, err
	}
	switch mode {
	case ModeQueens:
		n := spec.N
		if n == 0 {
			n = DefaultQueens
		}
		return NewQueens(n)
	default:
		adjacency := AdjacencyMap(spec.Adjacency)
		if len(adjacency) == 0 {
			adjacency = DefaultAdjacency()
		}
		colors := spec.Colors
		if colors == 0 {
			colors = DefaultColors
		}
		regions := spec.N
		if regions == 0 {
			regions = adjacency.RegionCount()
		}
		return NewMapColoring(regions, colors, adjacency)
	}
}

// Describe returns the fully-defaulted spec of a constructed problem.
func Describe(p Problem) model.ProblemSpec {
	switch v := p.(type) {
	case *Queens:
		return model.ProblemSpec{Mode: ModeQueens, N: v.n}
	case *MapColoring:
		return model.ProblemSpec{Mode: ModeMap, N: v.regions, Colors: v.colors, Adjacency: v.adjacency.Clone()}
	default:
		return model.ProblemSpec{Mode: p.Mode()}
	}
}
