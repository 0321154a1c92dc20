package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gasweep/internal/model"
)

func genPtr(v int) *int { return &v }

func record(mode string, cr float64, pop, gens int, found bool, gen *int, seconds float64) model.RunRecord {
	return model.RunRecord{
		Mode:            mode,
		CrossoverRate:   cr,
		PopulationSize:  pop,
		Generations:     gens,
		Found:           found,
		GenerationFound: gen,
		Time:            seconds,
	}
}

func TestSummarizeSuccessRateAndBackfill(t *testing.T) {
	records := []model.RunRecord{
		record("queens", 0.9, 50, 100, true, genPtr(5), 0.1),
		record("queens", 0.9, 50, 100, false, nil, 0.3),
	}
	rows := Summarize(records, SummaryOptions{})
	require.Len(t, rows, 1)
	row := rows[0]
	assert.Equal(t, 2, row.Runs)
	assert.Equal(t, 0.5, row.SR)
	assert.Equal(t, 5, row.AES)
	assert.Equal(t, 5, row.MinGen)
	assert.Equal(t, 5, row.MaxGen)
	assert.Equal(t, 0.2, row.MeanTime)
}

func TestSummarizeBackfillPolicies(t *testing.T) {
	records := []model.RunRecord{
		record("map", 0.6, 15, 500, true, genPtr(5), 0),
		record("map", 0.6, 15, 500, true, genPtr(9), 0),
		record("map", 0.6, 15, 500, false, nil, 0),
	}

	rows := Summarize(records, SummaryOptions{Backfill: BackfillMax})
	require.Len(t, rows, 1)
	// (5 + 9 + 9) / 3 truncated.
	assert.Equal(t, 7, rows[0].AES)
	assert.Equal(t, 0.67, rows[0].SR)

	rows = Summarize(records, SummaryOptions{Backfill: BackfillNone})
	assert.Equal(t, 7, rows[0].AES)
}

func TestSummarizeGroupWithoutSuccess(t *testing.T) {
	records := []model.RunRecord{
		record("queens", 0.01, 15, 100, false, nil, 0.5),
		record("queens", 0.01, 15, 100, false, nil, 0.5),
		record("queens", 0.9, 50, 100, true, genPtr(12), 0.1),
		record("queens", 0.9, 50, 100, true, genPtr(20), 0.1),
		record("queens", 0.8, 50, 100, true, genPtr(3), 0.1),
	}

	rows := Summarize(records, SummaryOptions{Backfill: BackfillMax})
	require.Len(t, rows, 3)
	assert.Equal(t, 0.01, rows[0].CrossoverRate, "groups keep first-seen order")
	assert.Equal(t, 0.0, rows[0].SR)
	assert.Equal(t, 16, rows[0].AES, "failed group takes the largest AES")
	assert.Equal(t, 0, rows[0].MinGen)
	assert.Equal(t, 0, rows[0].MaxGen)
	assert.Equal(t, 16, rows[1].AES)
	assert.Equal(t, 12, rows[1].MinGen)
	assert.Equal(t, 20, rows[1].MaxGen)
	assert.Equal(t, 3, rows[2].AES)

	rows = Summarize(records, SummaryOptions{Backfill: BackfillNone})
	assert.Equal(t, -1, rows[0].AES)
}

func TestSummarizeAllGroupsFailed(t *testing.T) {
	records := []model.RunRecord{
		record("map", 0.6, 15, 100, false, nil, 0),
	}
	rows := Summarize(records, SummaryOptions{})
	require.Len(t, rows, 1)
	assert.Equal(t, 0, rows[0].AES)
	assert.Equal(t, 0.0, rows[0].SR)
}

func TestSummarizeSeparatesModes(t *testing.T) {
	records := []model.RunRecord{
		record("queens", 0.6, 15, 100, true, genPtr(1), 0),
		record("map", 0.6, 15, 100, true, genPtr(2), 0),
	}
	rows := Summarize(records, SummaryOptions{})
	require.Len(t, rows, 2)
	assert.Equal(t, "queens", rows[0].Mode)
	assert.Equal(t, "map", rows[1].Mode)
}

func TestSummarizeEmpty(t *testing.T) {
	assert.Empty(t, Summarize(nil, SummaryOptions{}))
}

func TestParseBackfill(t *testing.T) {
	b, err := ParseBackfill("")
	require.NoError(t, err)
	assert.Equal(t, BackfillMax, b)

	b, err = ParseBackfill("None")
	require.NoError(t, err)
	assert.Equal(t, BackfillNone, b)
	assert.Equal(t, "none", b.String())

	_, err = ParseBackfill("mean")
	require.Error(t, err)
}
