package stats

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"gasweep/internal/model"
)

func TestWriteExperimentArtifacts(t *testing.T) {
	base := t.TempDir()
	records := sampleRecords()
	artifacts := ExperimentArtifacts{
		Experiment: model.Experiment{ID: "sweep-1", ProgressFlag: model.ExperimentCompleted},
		Records:    records,
		Summary:    Summarize(records, SummaryOptions{}),
		Workbook:   true,
	}

	dir, err := WriteExperimentArtifacts(base, artifacts)
	if err != nil {
		t.Fatalf("write artifacts: %v", err)
	}
	if dir != ExperimentDir(base, "sweep-1") {
		t.Fatalf("unexpected artifacts dir: %s", dir)
	}
	for _, name := range []string{"experiment.json", runsCSVFile, summaryCSVFile, summaryJSONFile, workbookFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}

	loaded, ok, err := ReadExperimentRecords(base, "sweep-1")
	if err != nil || !ok {
		t.Fatalf("read records ok=%t err=%v", ok, err)
	}
	if len(loaded) != len(records) {
		t.Fatalf("expected %d records, got %d", len(records), len(loaded))
	}
	if loaded[0].GenerationFound == nil || *loaded[0].GenerationFound != 17 || loaded[1].GenerationFound != nil {
		t.Fatalf("generation_found did not survive the round trip: %+v", loaded)
	}

	data, err := os.ReadFile(filepath.Join(dir, summaryJSONFile))
	if err != nil {
		t.Fatalf("read summary json: %v", err)
	}
	var rows []model.SummaryRow
	if err := json.Unmarshal(data, &rows); err != nil {
		t.Fatalf("decode summary json: %v", err)
	}
	if len(rows) != 1 || rows[0].SR != 0.5 || rows[0].AES != 17 {
		t.Fatalf("unexpected summary rows: %+v", rows)
	}
}

func TestWriteExperimentArtifactsRequiresID(t *testing.T) {
	if _, err := WriteExperimentArtifacts(t.TempDir(), ExperimentArtifacts{}); err == nil {
		t.Fatal("expected error for missing experiment id")
	}
}

func TestReadRunsFileMissing(t *testing.T) {
	records, ok, err := ReadRunsFile(filepath.Join(t.TempDir(), "absent.csv"))
	if err != nil || ok || records != nil {
		t.Fatalf("expected missing file, records=%v ok=%t err=%v", records, ok, err)
	}
}

func TestExportExperimentFormats(t *testing.T) {
	out := t.TempDir()
	records := sampleRecords()
	rows := Summarize(records, SummaryOptions{})

	dir, err := ExportExperiment(out, "exp-1", FormatCSV, records, rows)
	if err != nil {
		t.Fatalf("export csv: %v", err)
	}
	if dir != filepath.Join(out, "exp-1") {
		t.Fatalf("unexpected csv export dir: %s", dir)
	}
	loaded, ok, err := ReadRunsFile(filepath.Join(dir, runsCSVFile))
	if err != nil || !ok || len(loaded) != len(records) {
		t.Fatalf("exported runs not readable: ok=%t err=%v", ok, err)
	}

	path, err := ExportExperiment(out, "exp-1", FormatXLSX, records, rows)
	if err != nil {
		t.Fatalf("export xlsx: %v", err)
	}
	if _, err := ReadWorkbookRuns(path); err != nil {
		t.Fatalf("read exported workbook: %v", err)
	}

	if _, err := ExportExperiment(out, "exp-1", "parquet", records, rows); err == nil {
		t.Fatal("expected unsupported format error")
	}
}
