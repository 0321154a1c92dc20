package model

import "sort"

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Individual is one encoded candidate solution. For N-Queens it is a
// permutation of 0..N-1 (row per column); for map coloring it holds one color
// index per region.
type Individual []int

// Clone returns an independent copy of the individual.
func (ind Individual) Clone() Individual {
	if ind == nil {
		return nil
	}
	out := make(Individual, len(ind))
	copy(out, ind)
	return out
}

const (
	DefaultMutationRate = 0.2
	DefaultEliteSize    = 2
)

// Config is one point of the hyperparameter grid.
type Config struct {
	CrossoverRate  float64 `json:"crossover_rate" toml:"crossover_rate"`
	PopulationSize int     `json:"population_size" toml:"population_size"`
	Generations    int     `json:"generations" toml:"generations"`
	MutationRate   float64 `json:"mutation_rate" toml:"mutation_rate"`
	EliteSize      int     `json:"elite_size" toml:"elite_size"`
}

// RunResult is the outcome of one evolver invocation. GenerationFound is nil
// unless Found is true.
type RunResult struct {
	Found            bool                    `json:"found"`
	GenerationFound  *int                    `json:"generation_found,omitempty"`
	Generations      int                     `json:"generations"`
	BestByGeneration []float64               `json:"best_by_generation,omitempty"`
	Diagnostics      []GenerationDiagnostics `json:"diagnostics,omitempty"`
}

type GenerationDiagnostics struct {
	Generation  int     `json:"generation"`
	BestFitness float64 `json:"best_fitness"`
	MeanFitness float64 `json:"mean_fitness"`
	MinFitness  float64 `json:"min_fitness"`
}

// RunRecord is one row of the raw sweep table.
type RunRecord struct {
	Mode            string  `json:"mode"`
	CrossoverRate   float64 `json:"crossover_rate"`
	PopulationSize  int     `json:"population_size"`
	Generations     int     `json:"generations"`
	MutationRate    float64 `json:"mutation_rate"`
	EliteSize       int     `json:"elite_size"`
	Run             int     `json:"run"`
	Found           bool    `json:"found"`
	GenerationFound *int    `json:"generation_found,omitempty"`
	Time            float64 `json:"time"`
}

// SummaryKey identifies the group a RunRecord is aggregated into.
type SummaryKey struct {
	Mode           string
	CrossoverRate  float64
	PopulationSize int
	Generations    int
}

func (r RunRecord) Key() SummaryKey {
	return SummaryKey{
		Mode:           r.Mode,
		CrossoverRate:  r.CrossoverRate,
		PopulationSize: r.PopulationSize,
		Generations:    r.Generations,
	}
}

type SummaryRow struct {
	Mode           string  `json:"mode"`
	CrossoverRate  float64 `json:"crossover_rate"`
	PopulationSize int     `json:"population_size"`
	Generations    int     `json:"generations"`
	Runs           int     `json:"runs"`
	SR             float64 `json:"SR"`
	AES            int     `json:"AES"`
	MinGen         int     `json:"min_gen"`
	MaxGen         int     `json:"max_gen"`
	MeanTime       float64 `json:"mean_time"`
}

// ProblemSpec records the problem parameters an experiment was run with.
type ProblemSpec struct {
	Mode      string        `json:"mode"`
	N         int           `json:"n"`
	Colors    int           `json:"colors,omitempty"`
	Adjacency map[int][]int `json:"adjacency,omitempty"`
}

const (
	ExperimentInProgress = "in_progress"
	ExperimentCompleted  = "completed"
)

type Experiment struct {
	VersionedRecord
	ID             string      `json:"id"`
	Notes          string      `json:"notes,omitempty"`
	Problem        ProblemSpec `json:"problem"`
	Grid           []Config    `json:"grid"`
	RunsPerConfig  int         `json:"runs_per_config"`
	Seed           int64       `json:"seed"`
	Workers        int         `json:"workers"`
	ProgressFlag   string      `json:"progress_flag"`
	StartedAtUTC   string      `json:"started_at_utc,omitempty"`
	CompletedAtUTC string      `json:"completed_at_utc,omitempty"`
}

// SortExperiments orders by start time descending, undated last, then by id.
func SortExperiments(exps []Experiment) {
	sort.Slice(exps, func(i, j int) bool {
		switch {
		case exps[i].StartedAtUTC == exps[j].StartedAtUTC:
			return exps[i].ID < exps[j].ID
		case exps[i].StartedAtUTC == "":
			return false
		case exps[j].StartedAtUTC == "":
			return true
		default:
			return exps[i].StartedAtUTC > exps[j].StartedAtUTC
		}
	})
}
