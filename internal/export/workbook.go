package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/blockpaint/internal/importer"
)

// Workbook sheet names.
const (
	SummarySheet      = "Summary"
	ImprovementsSheet = "Improvements"
	PaletteSheet      = "Palette"
)

// blockHeaders lead with the columns the block table importer reads, so a
// workbook can be fed back as an initial state.
var blockHeaders = []string{"Block", "Left", "Bottom", "Right", "Top", "R", "G", "B", "A", "Mean Hex", "Current Diff", "Mean Diff", "Gain"}

// ExportWorkbook writes the run to an XLSX file with summary, block,
// improvement and palette sheets.
func ExportWorkbook(path string, report RunReport) error {
	if err := report.validate(); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if err := writeSummarySheet(f, report); err != nil {
		return err
	}
	if err := writeBlocksSheet(f, report); err != nil {
		return err
	}
	if err := writeImprovementsSheet(f, report); err != nil {
		return err
	}
	if len(report.Palette) > 0 {
		if err := writePaletteSheet(f, report); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// setRow writes values starting at column A of the given 1-based row.
func setRow(f *excelize.File, sheet string, row int, values ...any) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("failed to write %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

func writeSummarySheet(f *excelize.File, report RunReport) error {
	out := report.Outcome
	rows := [][]any{
		{"Field", "Value"},
		{"Run", out.RunID},
		{"Canvas Width", report.Final.Width()},
		{"Canvas Height", report.Final.Height()},
		{"Instructions", len(out.Best.Program)},
		{"Baseline Total", formatCost(out.Baseline.TotalCost)},
		{"Program Cost", formatCost(out.Best.ProgramCost)},
		{"Image Difference", out.Best.ImageDiffCost},
		{"Best Total", formatCost(out.Best.TotalCost)},
		{"Saved", out.Saved()},
		{"Evaluations", out.Evaluations},
		{"Rounds", out.Rounds},
		{"Elapsed", out.Elapsed.String()},
		{"Offset Radius", report.Settings.Radius},
		{"Color Search", report.Settings.ColorSearch},
		{"Color Radius", report.Settings.ColorRadius},
		{"Workers", report.Settings.Workers},
	}
	for i, r := range rows {
		if err := setRow(f, SummarySheet, i+1, r...); err != nil {
			return err
		}
	}
	return nil
}

func writeBlocksSheet(f *excelize.File, report RunReport) error {
	if _, err := f.NewSheet(importer.BlocksSheet); err != nil {
		return fmt.Errorf("failed to add sheet: %w", err)
	}
	header := make([]any, len(blockHeaders))
	for i, h := range blockHeaders {
		header[i] = h
	}
	if err := setRow(f, importer.BlocksSheet, 1, header...); err != nil {
		return err
	}

	for i, h := range report.Hints() {
		b := h.Block
		err := setRow(f, importer.BlocksSheet, i+2,
			b.ID, b.BottomLeft.X, b.BottomLeft.Y, b.TopRight.X, b.TopRight.Y,
			int(b.Color[0]), int(b.Color[1]), int(b.Color[2]), int(b.Color[3]),
			h.Hex, h.CurrentDiff, h.MeanDiff, h.Gain())
		if err != nil {
			return err
		}
	}
	return nil
}

func writeImprovementsSheet(f *excelize.File, report RunReport) error {
	if _, err := f.NewSheet(ImprovementsSheet); err != nil {
		return fmt.Errorf("failed to add sheet: %w", err)
	}
	if err := setRow(f, ImprovementsSheet, 1, "Round", "Index", "Move", "Before", "After", "From", "To"); err != nil {
		return err
	}
	for i, imp := range report.Outcome.Improvements {
		err := setRow(f, ImprovementsSheet, i+2,
			imp.Round, imp.Index, imp.After.Type().String(),
			imp.Before.String(), imp.After.String(),
			formatCost(imp.FromCost), imp.ToCost)
		if err != nil {
			return err
		}
	}
	return nil
}

func writePaletteSheet(f *excelize.File, report RunReport) error {
	if _, err := f.NewSheet(PaletteSheet); err != nil {
		return fmt.Errorf("failed to add sheet: %w", err)
	}
	if err := setRow(f, PaletteSheet, 1, "Hex", "R", "G", "B", "Weight"); err != nil {
		return err
	}
	for i, e := range report.Palette {
		err := setRow(f, PaletteSheet, i+2, e.Hex, int(e.Color[0]), int(e.Color[1]), int(e.Color[2]), e.Weight)
		if err != nil {
			return err
		}
	}
	return nil
}
