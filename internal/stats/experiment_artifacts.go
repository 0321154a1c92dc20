package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gasweep/internal/model"
)

const experimentsDir = "experiments"

func WriteExperiment(baseDir string, exp model.Experiment) error {
	if exp.ID == "" {
		return fmt.Errorf("experiment id is required")
	}
	path := experimentPath(baseDir, exp.ID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return writeJSON(path, exp)
}

func ReadExperiment(baseDir, id string) (model.Experiment, bool, error) {
	if id == "" {
		return model.Experiment{}, false, fmt.Errorf("experiment id is required")
	}
	data, err := os.ReadFile(experimentPath(baseDir, id))
	if err != nil {
		if os.IsNotExist(err) {
			return model.Experiment{}, false, nil
		}
		return model.Experiment{}, false, err
	}
	var exp model.Experiment
	if err := json.Unmarshal(data, &exp); err != nil {
		return model.Experiment{}, false, err
	}
	return exp, true, nil
}

// ListExperiments returns experiments newest first.
func ListExperiments(baseDir string) ([]model.Experiment, error) {
	root := filepath.Join(baseDir, experimentsDir)
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return []model.Experiment{}, nil
		}
		return nil, err
	}

	exps := make([]model.Experiment, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		exp, ok, err := ReadExperiment(baseDir, entry.Name())
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		exps = append(exps, exp)
	}
	model.SortExperiments(exps)
	return exps, nil
}

// ExperimentDir is where the artifacts of one experiment live.
func ExperimentDir(baseDir, id string) string {
	return filepath.Join(baseDir, experimentsDir, id)
}

func experimentPath(baseDir, id string) string {
	return filepath.Join(ExperimentDir(baseDir, id), "experiment.json")
}
