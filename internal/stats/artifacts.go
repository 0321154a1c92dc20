package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gasweep/internal/model"
)

const (
	runsCSVFile     = "runs.csv"
	summaryCSVFile  = "summary.csv"
	summaryJSONFile = "summary.json"
	workbookFile    = "results.xlsx"
)

// ExperimentArtifacts is everything written to disk for one sweep.
type ExperimentArtifacts struct {
	Experiment model.Experiment
	Records    []model.RunRecord
	Summary    []model.SummaryRow
	// Workbook also writes an xlsx copy of runs and summary.
	Workbook bool
}

// WriteExperimentArtifacts writes experiment.json, runs.csv, summary.csv,
// summary.json and optionally results.xlsx and returns the directory.
func WriteExperimentArtifacts(baseDir string, artifacts ExperimentArtifacts) (string, error) {
	if artifacts.Experiment.ID == "" {
		return "", fmt.Errorf("experiment id is required")
	}
	dir := ExperimentDir(baseDir, artifacts.Experiment.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	if err := WriteExperiment(baseDir, artifacts.Experiment); err != nil {
		return "", err
	}
	if err := writeRunsFile(filepath.Join(dir, runsCSVFile), artifacts.Records); err != nil {
		return "", err
	}
	if err := writeSummaryFile(filepath.Join(dir, summaryCSVFile), artifacts.Summary); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(dir, summaryJSONFile), artifacts.Summary); err != nil {
		return "", err
	}
	if artifacts.Workbook {
		if err := WriteWorkbook(filepath.Join(dir, workbookFile), artifacts.Records, artifacts.Summary); err != nil {
			return "", err
		}
	}
	return dir, nil
}

// ReadExperimentRecords loads runs.csv of a stored experiment.
func ReadExperimentRecords(baseDir, id string) ([]model.RunRecord, bool, error) {
	return ReadRunsFile(filepath.Join(ExperimentDir(baseDir, id), runsCSVFile))
}

func ReadRunsFile(path string) ([]model.RunRecord, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	records, err := ReadRunsCSV(f)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", path, err)
	}
	return records, true, nil
}

func writeRunsFile(path string, records []model.RunRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteRunsCSV(f, records); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func writeSummaryFile(path string, rows []model.SummaryRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteSummaryCSV(f, rows); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// ExportExperiment copies records and summary of one experiment out of the
// artifacts tree. CSV exports become a directory named after the experiment,
// XLSX exports a single <id>.xlsx file. The written path is returned.
func ExportExperiment(outDir, id, format string, records []model.RunRecord, rows []model.SummaryRow) (string, error) {
	if id == "" {
		return "", fmt.Errorf("experiment id is required")
	}
	switch format {
	case "", FormatCSV:
		dir := filepath.Join(outDir, id)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", err
		}
		if err := writeRunsFile(filepath.Join(dir, runsCSVFile), records); err != nil {
			return "", err
		}
		if err := writeSummaryFile(filepath.Join(dir, summaryCSVFile), rows); err != nil {
			return "", err
		}
		return dir, nil
	case FormatXLSX:
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return "", err
		}
		path := filepath.Join(outDir, id+".xlsx")
		if err := WriteWorkbook(path, records, rows); err != nil {
			return "", err
		}
		return path, nil
	default:
		return "", fmt.Errorf("unsupported export format: %s", format)
	}
}
