package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/piwi3910/blockpaint/internal/engine"
	"github.com/piwi3910/blockpaint/internal/model"
)

// RunRecordVersion is written into every run record.
const RunRecordVersion = "1.0.0"

// RunRecord is the JSON summary of one optimization run.
type RunRecord struct {
	Version       string               `json:"version"`
	RunID         string               `json:"run_id"`
	CreatedAt     string               `json:"created_at"`
	Program       string               `json:"program,omitempty"`
	Target        string               `json:"target,omitempty"`
	Settings      model.SearchSettings `json:"settings"`
	BaselineCost  int64                `json:"baseline_cost"`
	BaselineError string               `json:"baseline_error,omitempty"`
	ProgramCost   int64                `json:"program_cost"`
	ImageDiffCost int64                `json:"image_diff_cost"`
	TotalCost     int64                `json:"total_cost"`
	Instructions  int                  `json:"instructions"`
	Evaluations   int                  `json:"evaluations"`
	Rounds        int                  `json:"rounds"`
	ElapsedMillis int64                `json:"elapsed_ms"`
	Improvements  []ImprovementRecord  `json:"improvements"`
}

// ImprovementRecord is one accepted perturbation in text form.
type ImprovementRecord struct {
	Round  int    `json:"round"`
	Index  int    `json:"index"`
	Before string `json:"before"`
	After  string `json:"after"`
	From   int64  `json:"from"`
	To     int64  `json:"to"`
}

// NewRunRecord summarizes an optimization outcome.
func NewRunRecord(out engine.Outcome, settings model.SearchSettings, programPath, targetPath string) RunRecord {
	rec := RunRecord{
		Version:       RunRecordVersion,
		RunID:         out.RunID,
		CreatedAt:     time.Now().UTC().Format(time.RFC3339),
		Program:       programPath,
		Target:        targetPath,
		Settings:      settings,
		BaselineCost:  out.Baseline.TotalCost,
		ProgramCost:   out.Best.ProgramCost,
		ImageDiffCost: out.Best.ImageDiffCost,
		TotalCost:     out.Best.TotalCost,
		Instructions:  len(out.Best.Program),
		Evaluations:   out.Evaluations,
		Rounds:        out.Rounds,
		ElapsedMillis: out.Elapsed.Milliseconds(),
		Improvements:  []ImprovementRecord{},
	}
	if out.Baseline.Failed() {
		rec.BaselineError = out.Baseline.Failure.Error()
	}
	for _, imp := range out.Improvements {
		rec.Improvements = append(rec.Improvements, ImprovementRecord{
			Round:  imp.Round,
			Index:  imp.Index,
			Before: imp.Before.String(),
			After:  imp.After.String(),
			From:   imp.FromCost,
			To:     imp.ToCost,
		})
	}
	return rec
}

// SaveRunRecord writes a run record to a JSON file at the specified path.
func SaveRunRecord(path string, rec RunRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run record: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create run record directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write run record: %w", err)
	}
	return nil
}

// LoadRunRecord reads a run record JSON file.
func LoadRunRecord(path string) (RunRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RunRecord{}, fmt.Errorf("failed to read run record: %w", err)
	}
	var rec RunRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return RunRecord{}, fmt.Errorf("failed to parse run record: %w", err)
	}
	if rec.Version == "" {
		return RunRecord{}, fmt.Errorf("invalid run record: missing version field")
	}
	// Ensure Improvements is never nil
	if rec.Improvements == nil {
		rec.Improvements = []ImprovementRecord{}
	}
	return rec, nil
}
