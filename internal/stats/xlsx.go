package stats

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"gasweep/internal/model"
)

const (
	RunsSheet    = "runs"
	SummarySheet = "summary"
)

// WriteWorkbook saves records and their summary as two sheets of one xlsx
// file.
func WriteWorkbook(path string, records []model.RunRecord, rows []model.SummaryRow) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", RunsSheet); err != nil {
		return err
	}
	if err := writeSheetHeader(f, RunsSheet, RunColumns); err != nil {
		return err
	}
	for i, record := range records {
		var gen any
		if record.GenerationFound != nil {
			gen = *record.GenerationFound
		}
		values := []any{
			record.Mode, record.CrossoverRate, record.PopulationSize, record.Generations,
			record.Run, record.Found, gen, record.Time,
			record.MutationRate, record.EliteSize,
		}
		if err := writeSheetRow(f, RunsSheet, i+2, values); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return err
	}
	if err := writeSheetHeader(f, SummarySheet, SummaryColumns); err != nil {
		return err
	}
	for i, row := range rows {
		values := []any{
			row.Mode, row.CrossoverRate, row.PopulationSize, row.Generations,
			row.Runs, row.SR, row.AES, row.MinGen, row.MaxGen, row.MeanTime,
		}
		if err := writeSheetRow(f, SummarySheet, i+2, values); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

// ReadWorkbookRuns loads the runs sheet of a workbook written by
// WriteWorkbook.
func ReadWorkbookRuns(path string) ([]model.RunRecord, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	rows, err := f.GetRows(RunsSheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	cols := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		cols[name] = i
	}
	records := make([]model.RunRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		record, err := parseRunRow(row, cols)
		if err != nil {
			return nil, fmt.Errorf("runs sheet row %d: %w", i+2, err)
		}
		records = append(records, record)
	}
	return records, nil
}

func writeSheetHeader(f *excelize.File, sheet string, columns []string) error {
	values := make([]any, len(columns))
	for i, c := range columns {
		values[i] = c
	}
	return writeSheetRow(f, sheet, 1, values)
}

func writeSheetRow(f *excelize.File, sheet string, row int, values []any) error {
	for col, value := range values {
		if value == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return err
		}
	}
	return nil
}
