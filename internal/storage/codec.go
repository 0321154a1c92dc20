package storage

import (
	"encoding/json"
	"errors"

	"gasweep/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// Stamp sets the current schema and codec versions on a record.
func Stamp(v *model.VersionedRecord) {
	v.SchemaVersion = CurrentSchemaVersion
	v.CodecVersion = CurrentCodecVersion
}

func EncodeExperiment(e model.Experiment) ([]byte, error) {
	return json.Marshal(e)
}

func DecodeExperiment(data []byte) (model.Experiment, error) {
	var experiment model.Experiment
	if err := json.Unmarshal(data, &experiment); err != nil {
		return model.Experiment{}, err
	}
	if err := checkVersion(experiment.VersionedRecord); err != nil {
		return model.Experiment{}, err
	}
	return experiment, nil
}

func EncodeRunRecords(records []model.RunRecord) ([]byte, error) {
	return json.Marshal(records)
}

func DecodeRunRecords(data []byte) ([]model.RunRecord, error) {
	var records []model.RunRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func EncodeGenerationDiagnostics(diagnostics []model.GenerationDiagnostics) ([]byte, error) {
	return json.Marshal(diagnostics)
}

func DecodeGenerationDiagnostics(data []byte) ([]model.GenerationDiagnostics, error) {
	var diagnostics []model.GenerationDiagnostics
	if err := json.Unmarshal(data, &diagnostics); err != nil {
		return nil, err
	}
	return diagnostics, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
