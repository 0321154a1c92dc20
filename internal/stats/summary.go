package stats

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/exp/constraints"

	"gasweep/internal/model"
)

// Backfill selects how AES treats runs that never found a solution.
type Backfill int

const (
	// BackfillMax counts a failed run as the largest generation found in its
	// group. Groups with no success take the largest AES of any group, or 0.
	BackfillMax Backfill = iota
	// BackfillNone averages successful runs only; groups with no success
	// report -1.
	BackfillNone
)

const noSuccessAES = -1

func ParseBackfill(name string) (Backfill, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "max":
		return BackfillMax, nil
	case "none":
		return BackfillNone, nil
	default:
		return 0, fmt.Errorf("unsupported backfill policy: %s", name)
	}
}

func (b Backfill) String() string {
	if b == BackfillNone {
		return "none"
	}
	return "max"
}

type SummaryOptions struct {
	Backfill Backfill
}

type group struct {
	key     model.SummaryKey
	records []model.RunRecord
}

// Summarize aggregates records into one row per (mode, crossover rate,
// population size, generations), in the order groups first appear.
func Summarize(records []model.RunRecord, opts SummaryOptions) []model.SummaryRow {
	groups := groupRecords(records)
	rows := make([]model.SummaryRow, len(groups))
	aes := make([]float64, len(groups))

	for i, g := range groups {
		found := make([]int, 0, len(g.records))
		times := make([]float64, 0, len(g.records))
		successes := 0
		for _, record := range g.records {
			times = append(times, record.Time)
			if record.Found && record.GenerationFound != nil {
				found = append(found, *record.GenerationFound)
			}
			if record.Found {
				successes++
			}
		}

		minGen, maxGen, ok := minMax(found)
		if !ok {
			minGen, maxGen = 0, 0
		}
		aes[i] = groupAES(g.records, found, maxGen, opts.Backfill)

		rows[i] = model.SummaryRow{
			Mode:           g.key.Mode,
			CrossoverRate:  g.key.CrossoverRate,
			PopulationSize: g.key.PopulationSize,
			Generations:    g.key.Generations,
			Runs:           len(g.records),
			SR:             roundTo(float64(successes)/float64(len(g.records)), 2),
			MinGen:         minGen,
			MaxGen:         maxGen,
			MeanTime:       roundTo(mean(times), 3),
		}
	}

	if opts.Backfill == BackfillMax {
		fill := 0.0
		if best, _, ok := maxOf(aes); ok {
			fill = best
		}
		for i := range aes {
			if math.IsNaN(aes[i]) {
				aes[i] = fill
			}
		}
	}
	for i := range rows {
		if math.IsNaN(aes[i]) {
			rows[i].AES = noSuccessAES
			continue
		}
		rows[i].AES = int(aes[i])
	}
	return rows
}

// groupAES returns NaN when the group has no successful run.
func groupAES(records []model.RunRecord, found []int, maxGen int, policy Backfill) float64 {
	if len(found) == 0 {
		return math.NaN()
	}
	if policy == BackfillNone {
		return mean(found)
	}
	values := make([]int, 0, len(records))
	for _, record := range records {
		if record.Found && record.GenerationFound != nil {
			values = append(values, *record.GenerationFound)
			continue
		}
		values = append(values, maxGen)
	}
	return mean(values)
}

func groupRecords(records []model.RunRecord) []group {
	index := make(map[model.SummaryKey]int)
	groups := make([]group, 0)
	for _, record := range records {
		key := record.Key()
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, group{key: key})
		}
		groups[i].records = append(groups[i].records, record)
	}
	return groups
}

type number interface {
	constraints.Integer | constraints.Float
}

func mean[T number](values []T) float64 {
	if len(values) == 0 {
		return 0
	}
	total := 0.0
	for _, v := range values {
		total += float64(v)
	}
	return total / float64(len(values))
}

func minMax[T constraints.Ordered](values []T) (T, T, bool) {
	var zero T
	if len(values) == 0 {
		return zero, zero, false
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi, true
}

// maxOf ignores NaN entries.
func maxOf(values []float64) (float64, int, bool) {
	best, at := 0.0, -1
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if at < 0 || v > best {
			best, at = v, i
		}
	}
	return best, at, at >= 0
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.RoundToEven(v*scale) / scale
}
