package export

import (
	"encoding/json"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// RunSummary is the compact machine-readable digest of a run embedded as a
// QR code in the PDF report.
type RunSummary struct {
	RunID        string `json:"run"`
	Canvas       string `json:"canvas"`
	Instructions int    `json:"n"`
	Baseline     int64  `json:"base"`
	Best         int64  `json:"best"`
	ProgramCost  int64  `json:"prog"`
	ImageDiff    int64  `json:"diff"`
	Improvements int    `json:"imp"`
	Failed       bool   `json:"failed,omitempty"`
}

// CollectSummary extracts the digest from a report.
func CollectSummary(report RunReport) RunSummary {
	out := report.Outcome
	s := RunSummary{
		RunID:        out.RunID,
		Instructions: len(out.Best.Program),
		Baseline:     out.Baseline.TotalCost,
		Best:         out.Best.TotalCost,
		ProgramCost:  out.Best.ProgramCost,
		ImageDiff:    out.Best.ImageDiffCost,
		Improvements: len(out.Improvements),
		Failed:       out.Best.Failed(),
	}
	if report.Final != nil {
		s.Canvas = fmt.Sprintf("%dx%d", report.Final.Width(), report.Final.Height())
	}
	return s
}

// SummaryQR encodes the summary as JSON into a QR code PNG.
func SummaryQR(s RunSummary) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal run summary: %w", err)
	}
	png, err := qrcode.Encode(string(data), qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}
	return png, nil
}
