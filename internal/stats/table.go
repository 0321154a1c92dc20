package stats

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gasweep/internal/model"
)

var (
	RunColumns = []string{
		"mode", "crossover_rate", "population_size", "generations",
		"run", "found", "generation_found", "time",
		"mutation_rate", "elite_size",
	}
	SummaryColumns = []string{
		"mode", "crossover_rate", "population_size", "generations",
		"runs", "SR", "AES", "min_gen", "max_gen", "mean_time",
	}
)

// WriteRunsCSV writes one line per record. An absent generation_found is an
// empty cell.
func WriteRunsCSV(w io.Writer, records []model.RunRecord) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(RunColumns); err != nil {
		return err
	}
	for _, record := range records {
		if err := writer.Write(runRow(record)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func runRow(r model.RunRecord) []string {
	gen := ""
	if r.GenerationFound != nil {
		gen = strconv.Itoa(*r.GenerationFound)
	}
	return []string{
		r.Mode,
		formatFloat(r.CrossoverRate),
		strconv.Itoa(r.PopulationSize),
		strconv.Itoa(r.Generations),
		strconv.Itoa(r.Run),
		strconv.FormatBool(r.Found),
		gen,
		formatFloat(r.Time),
		formatFloat(r.MutationRate),
		strconv.Itoa(r.EliteSize),
	}
}

// ReadRunsCSV parses a table written by WriteRunsCSV. Columns are located by
// header name; mutation_rate and elite_size are optional.
func ReadRunsCSV(r io.Reader) ([]model.RunRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read runs csv header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, required := range RunColumns[:8] {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("runs csv missing column %q", required)
		}
	}

	var records []model.RunRecord
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read runs csv line %d: %w", line, err)
		}
		record, err := parseRunRow(row, cols)
		if err != nil {
			return nil, fmt.Errorf("runs csv line %d: %w", line, err)
		}
		records = append(records, record)
	}
	return records, nil
}

func parseRunRow(row []string, cols map[string]int) (model.RunRecord, error) {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var (
		record model.RunRecord
		err    error
	)
	record.Mode = field("mode")
	if record.CrossoverRate, err = strconv.ParseFloat(field("crossover_rate"), 64); err != nil {
		return record, fmt.Errorf("crossover_rate: %w", err)
	}
	if record.PopulationSize, err = strconv.Atoi(field("population_size")); err != nil {
		return record, fmt.Errorf("population_size: %w", err)
	}
	if record.Generations, err = strconv.Atoi(field("generations")); err != nil {
		return record, fmt.Errorf("generations: %w", err)
	}
	if record.Run, err = strconv.Atoi(field("run")); err != nil {
		return record, fmt.Errorf("run: %w", err)
	}
	if record.Found, err = parseBool(field("found")); err != nil {
		return record, fmt.Errorf("found: %w", err)
	}
	if gen := field("generation_found"); gen != "" && !strings.EqualFold(gen, "nan") {
		value, err := strconv.ParseFloat(gen, 64)
		if err != nil {
			return record, fmt.Errorf("generation_found: %w", err)
		}
		g := int(value)
		record.GenerationFound = &g
	}
	if record.Time, err = strconv.ParseFloat(field("time"), 64); err != nil {
		return record, fmt.Errorf("time: %w", err)
	}
	if v := field("mutation_rate"); v != "" {
		if record.MutationRate, err = strconv.ParseFloat(v, 64); err != nil {
			return record, fmt.Errorf("mutation_rate: %w", err)
		}
	}
	if v := field("elite_size"); v != "" {
		if record.EliteSize, err = strconv.Atoi(v); err != nil {
			return record, fmt.Errorf("elite_size: %w", err)
		}
	}
	return record, nil
}

func WriteSummaryCSV(w io.Writer, rows []model.SummaryRow) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(SummaryColumns); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write(summaryRow(row)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func summaryRow(r model.SummaryRow) []string {
	return []string{
		r.Mode,
		formatFloat(r.CrossoverRate),
		strconv.Itoa(r.PopulationSize),
		strconv.Itoa(r.Generations),
		strconv.Itoa(r.Runs),
		formatFloat(r.SR),
		strconv.Itoa(r.AES),
		strconv.Itoa(r.MinGen),
		strconv.Itoa(r.MaxGen),
		formatFloat(r.MeanTime),
	}
}

// parseBool also accepts the pandas spelling True/False.
func parseBool(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean %q", v)
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
