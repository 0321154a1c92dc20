package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"gasweep/internal/problem"
	"gasweep/internal/stats"
	"gasweep/internal/sweep"
	gaapi "gasweep/pkg/gasweep"
)

// sweepConfig is the on-disk form of a sweep. Adjacency keys are strings
// because TOML table keys always are.
type sweepConfig struct {
	Mode      string           `toml:"mode"`
	N         int              `toml:"n"`
	Colors    int              `toml:"colors"`
	Adjacency map[string][]int `toml:"adjacency"`
	Runs      int              `toml:"runs"`
	Workers   int              `toml:"workers"`
	Seed      int64            `toml:"seed"`
	Backfill  string           `toml:"backfill"`
	Notes     string           `toml:"notes"`
	Workbook  bool             `toml:"xlsx"`
	Grid      sweep.GridSpec   `toml:"grid"`
}

func defaultSweepConfig() sweepConfig {
	return sweepConfig{
		Mode:     problem.ModeQueens,
		Runs:     sweep.DefaultRunsPerConfig,
		Workers:  1,
		Seed:     1,
		Backfill: stats.BackfillMax.String(),
		Grid:     sweep.DefaultGridSpec(),
	}
}

func loadSweepConfig(path string) (sweepConfig, error) {
	cfg := defaultSweepConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return sweepConfig{}, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		sort.Strings(keys)
		return sweepConfig{}, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	return cfg, nil
}

func loadOrDefaultSweepConfig(configPath string) (sweepConfig, error) {
	if configPath == "" {
		return defaultSweepConfig(), nil
	}
	cfg, err := loadSweepConfig(configPath)
	if err != nil {
		return sweepConfig{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// overrideFromFlags applies only the flags that were set explicitly, so a
// config file keeps its values for everything else.
func overrideFromFlags(cfg *sweepConfig, set map[string]bool, flagValue map[string]any) error {
	for name := range set {
		v, ok := flagValue[name]
		if !ok {
			continue
		}
		var err error
		switch name {
		case "mode":
			cfg.Mode = v.(string)
		case "n":
			cfg.N = v.(int)
		case "colors":
			cfg.Colors = v.(int)
		case "adjacency":
			cfg.Adjacency, err = parseAdjacencyTable(v.(string))
		case "crossover-rates":
			cfg.Grid.CrossoverRates, err = parseFloatList(v.(string))
		case "pop-sizes":
			cfg.Grid.PopulationSizes, err = parseIntList(v.(string))
		case "gens-list":
			cfg.Grid.Generations, err = parseIntList(v.(string))
		case "mutation-rates":
			cfg.Grid.MutationRates, err = parseFloatList(v.(string))
		case "elite-sizes":
			cfg.Grid.EliteSizes, err = parseIntList(v.(string))
		case "runs":
			cfg.Runs = v.(int)
		case "workers":
			cfg.Workers = v.(int)
		case "seed":
			cfg.Seed = v.(int64)
		case "backfill":
			cfg.Backfill = v.(string)
		case "notes":
			cfg.Notes = v.(string)
		case "xlsx":
			cfg.Workbook = v.(bool)
		}
		if err != nil {
			return fmt.Errorf("--%s: %w", name, err)
		}
	}
	return nil
}

func (c sweepConfig) request() (gaapi.SweepRequest, error) {
	if _, err := problem.ParseMode(c.Mode); err != nil {
		return gaapi.SweepRequest{}, err
	}
	if c.Runs <= 0 {
		return gaapi.SweepRequest{}, fmt.Errorf("runs must be > 0, got %d", c.Runs)
	}
	policy, err := stats.ParseBackfill(c.Backfill)
	if err != nil {
		return gaapi.SweepRequest{}, err
	}
	adjacency, err := adjacencyFromTable(c.Adjacency)
	if err != nil {
		return gaapi.SweepRequest{}, err
	}
	grid := c.Grid.Build()
	if len(grid) == 0 {
		return gaapi.SweepRequest{}, fmt.Errorf("grid is empty: crossover rates, population sizes and generations all need values")
	}
	return gaapi.SweepRequest{
		Problem: gaapi.ProblemRequest{
			Mode:      c.Mode,
			N:         c.N,
			Colors:    c.Colors,
			Adjacency: adjacency,
		},
		Grid:          grid,
		RunsPerConfig: c.Runs,
		Seed:          c.Seed,
		Workers:       c.Workers,
		Notes:         c.Notes,
		Backfill:      policy,
		Workbook:      c.Workbook,
	}, nil
}

// parseAdjacency reads "0:1,2;1:0;2:0". A region with no neighbors is
// written "3:".
func parseAdjacency(value string) (map[int][]int, error) {
	table, err := parseAdjacencyTable(value)
	if err != nil {
		return nil, err
	}
	return adjacencyFromTable(table)
}

func parseAdjacencyTable(value string) (map[string][]int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	table := make(map[string][]int)
	for _, entry := range strings.Split(value, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		region, neighbors, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, fmt.Errorf("adjacency entry %q: expected region:neighbors", entry)
		}
		list, err := parseIntList(neighbors)
		if err != nil {
			return nil, fmt.Errorf("adjacency entry %q: %w", entry, err)
		}
		table[strings.TrimSpace(region)] = list
	}
	return table, nil
}

func adjacencyFromTable(table map[string][]int) (map[int][]int, error) {
	if len(table) == 0 {
		return nil, nil
	}
	out := make(map[int][]int, len(table))
	for key, neighbors := range table {
		region, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			return nil, fmt.Errorf("%w: region %q is not an integer", problem.ErrInvalidAdjacency, key)
		}
		out[region] = append([]int{}, neighbors...)
	}
	return out, nil
}

func parseFloatList(value string) ([]float64, error) {
	parts := splitList(value)
	out := make([]float64, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func parseIntList(value string) ([]int, error) {
	parts := splitList(value)
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func splitList(value string) []string {
	var parts []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}
