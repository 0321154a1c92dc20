package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gasweep/internal/problem"
	"gasweep/internal/stats"
)

func TestRunRequiresCommand(t *testing.T) {
	err := run(context.Background(), nil)
	require.ErrorContains(t, err, "missing command")

	err = run(context.Background(), []string{"benchmark"})
	require.ErrorContains(t, err, "unknown command: benchmark")
}

func TestRunCommandPrintsResult(t *testing.T) {
	dir := t.TempDir()
	out, err := captureStdout(func() error {
		return run(context.Background(), []string{
			"run",
			"--store", "memory",
			"--artifacts", dir,
			"--log-level", "error",
			"--mode", "queens",
			"--n", "4",
			"--pop", "20",
			"--gens", "50",
			"--seed", "3",
			"--history",
		})
	})
	require.NoError(t, err)
	assert.Contains(t, out, "run completed")
	assert.Contains(t, out, "mode=queens")
	assert.Contains(t, out, "generation=0 best=")
}

func TestRunCommandRejectsInvalidMode(t *testing.T) {
	err := run(context.Background(), []string{"run", "--store", "memory", "--mode", "tsp", "--log-level", "error"})
	require.ErrorIs(t, err, problem.ErrInvalidMode)
}

func TestSweepSummarizeExperimentsExport(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	artifacts := filepath.Join(base, "artifacts")
	common := []string{"--store", "memory", "--artifacts", artifacts, "--log-level", "error"}

	out, err := captureStdout(func() error {
		return run(ctx, append([]string{
			"sweep",
			"--mode", "map",
			"--crossover-rates", "0.9,0.6",
			"--pop-sizes", "15",
			"--gens-list", "40",
			"--runs", "3",
			"--workers", "2",
			"--seed", "5",
			"--xlsx",
		}, common...))
	})
	require.NoError(t, err)
	assert.Contains(t, out, "configs=2 runs=6")
	assert.Contains(t, out, "mean_time")
	experimentID := fieldValue(out, "experiment_id")
	require.NotEmpty(t, experimentID)

	runsPath := filepath.Join(stats.ExperimentDir(artifacts, experimentID), "runs.csv")
	summaryOut := filepath.Join(base, "summary.csv")
	out, err = captureStdout(func() error {
		return run(ctx, []string{"summarize", "--in", runsPath, "--out", summaryOut, "--backfill", "none"})
	})
	require.NoError(t, err)
	assert.Contains(t, out, "groups=2")
	data, err := os.ReadFile(summaryOut)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), strings.Join(stats.SummaryColumns, ",")))

	out, err = captureStdout(func() error {
		return run(ctx, append([]string{"summarize", "--experiment-id", experimentID}, common...))
	})
	require.NoError(t, err)
	assert.Contains(t, out, "map")

	out, err = captureStdout(func() error {
		return run(ctx, append([]string{"experiments"}, common...))
	})
	require.NoError(t, err)
	assert.Contains(t, out, "experiment_id="+experimentID)
	assert.Contains(t, out, "progress=completed")

	exportDir := filepath.Join(base, "exports")
	out, err = captureStdout(func() error {
		return run(ctx, append([]string{"export", "--latest", "--format", "xlsx", "--out", exportDir}, common...))
	})
	require.NoError(t, err)
	assert.Contains(t, out, "exported experiment_id="+experimentID)
	records, err := stats.ReadWorkbookRuns(filepath.Join(exportDir, experimentID+".xlsx"))
	require.NoError(t, err)
	assert.Len(t, records, 6)
}

func TestSummarizeFlagValidation(t *testing.T) {
	err := run(context.Background(), []string{"summarize"})
	require.Error(t, err)
	err = run(context.Background(), []string{"summarize", "--in", "a.csv", "--experiment-id", "x"})
	require.Error(t, err)
	err = run(context.Background(), []string{"summarize", "--in", filepath.Join(t.TempDir(), "missing.csv")})
	require.ErrorContains(t, err, "runs file not found")
}

func TestExportFlagValidation(t *testing.T) {
	err := run(context.Background(), []string{"export", "--store", "memory", "--latest", "--experiment-id", "x"})
	require.Error(t, err)
	err = run(context.Background(), []string{"export", "--store", "memory"})
	require.Error(t, err)
}

func TestExperimentsEmpty(t *testing.T) {
	out, err := captureStdout(func() error {
		return run(context.Background(), []string{"experiments", "--store", "memory", "--artifacts", t.TempDir(), "--log-level", "error"})
	})
	require.NoError(t, err)
	assert.Equal(t, "no experiments\n", out)
}

func fieldValue(out, key string) string {
	for _, field := range strings.Fields(out) {
		if value, ok := strings.CutPrefix(field, key+"="); ok {
			return value
		}
	}
	return ""
}

func captureStdout(fn func() error) (string, error) {
	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		return "", err
	}

	os.Stdout = w
	runErr := fn()
	_ = w.Close()
	os.Stdout = origStdout

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		_ = r.Close()
		return "", err
	}
	_ = r.Close()
	return buf.String(), runErr
}
