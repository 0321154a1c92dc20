package stats

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gasweep/internal/model"
)

func sampleRecords() []model.RunRecord {
	return []model.RunRecord{
		{Mode: "queens", CrossoverRate: 0.9, PopulationSize: 50, Generations: 100, MutationRate: 0.2, EliteSize: 2, Run: 1, Found: true, GenerationFound: genPtr(17), Time: 0.0125},
		{Mode: "queens", CrossoverRate: 0.9, PopulationSize: 50, Generations: 100, MutationRate: 0.2, EliteSize: 2, Run: 2, Found: false, Time: 0.5},
	}
}

func TestRunsCSVRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRunsCSV(&buf, sampleRecords()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(RunColumns, ","), lines[0])
	assert.Equal(t, "queens,0.9,50,100,2,false,,0.5,0.2,2", lines[2])

	records, err := ReadRunsCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, sampleRecords(), records)
}

func TestReadRunsCSVAcceptsPandasExport(t *testing.T) {
	in := strings.NewReader("mode,crossover_rate,population_size,generations,run,found,generation_found,time\n" +
		"map,0.6,15,500,1,True,3.0,0.01\n" +
		"map,0.6,15,500,2,False,,0.02\n" +
		"map,0.6,15,500,3,False,NaN,0.03\n")
	records, err := ReadRunsCSV(in)
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.NotNil(t, records[0].GenerationFound)
	assert.Equal(t, 3, *records[0].GenerationFound)
	assert.True(t, records[0].Found)
	assert.Nil(t, records[1].GenerationFound)
	assert.Nil(t, records[2].GenerationFound)
	assert.Zero(t, records[2].EliteSize)
}

func TestReadRunsCSVErrors(t *testing.T) {
	_, err := ReadRunsCSV(strings.NewReader("mode,run\nqueens,1\n"))
	require.Error(t, err)

	_, err = ReadRunsCSV(strings.NewReader(strings.Join(RunColumns, ",") + "\nqueens,x,50,100,1,true,,0.1,0.2,2\n"))
	require.ErrorContains(t, err, "crossover_rate")

	records, err := ReadRunsCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSummaryCSVAndTable(t *testing.T) {
	rows := Summarize(sampleRecords(), SummaryOptions{})

	var csvBuf bytes.Buffer
	require.NoError(t, WriteSummaryCSV(&csvBuf, rows))
	lines := strings.Split(strings.TrimSpace(csvBuf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "queens,0.9,50,100,2,0.5,17,17,17,0.256", lines[1])

	var table bytes.Buffer
	require.NoError(t, WriteSummaryTable(&table, rows))
	out := table.String()
	assert.Contains(t, out, "mean_time")
	assert.Contains(t, out, "0.50")
	assert.Contains(t, out, "queens")
}

func TestWorkbookRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.xlsx")
	records := sampleRecords()
	require.NoError(t, WriteWorkbook(path, records, Summarize(records, SummaryOptions{})))

	loaded, err := ReadWorkbookRuns(path)
	require.NoError(t, err)
	require.Len(t, loaded, len(records))
	for i := range records {
		assert.Equal(t, records[i].Found, loaded[i].Found)
		assert.Equal(t, records[i].GenerationFound, loaded[i].GenerationFound)
		assert.Equal(t, records[i].Run, loaded[i].Run)
		assert.InDelta(t, records[i].Time, loaded[i].Time, 1e-9)
		assert.Equal(t, records[i].CrossoverRate, loaded[i].CrossoverRate)
	}
}
