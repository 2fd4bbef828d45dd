// Package export writes optimization runs to report formats: a PDF with the
// rendered canvas and block layout, an XLSX workbook and a DXF outline of
// the block partition.
package export

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"math"

	"github.com/go-pdf/fpdf"

	"github.com/piwi3910/blockpaint/internal/canvas"
	"github.com/piwi3910/blockpaint/internal/engine"
	"github.com/piwi3910/blockpaint/internal/model"
	"github.com/piwi3910/blockpaint/internal/palette"
)

// RunReport bundles everything the exporters need about one run.
type RunReport struct {
	Title    string
	Outcome  engine.Outcome
	Settings model.SearchSettings
	Target   *image.NRGBA
	Final    *canvas.Canvas // Canvas after the best program
	Palette  []palette.Entry
}

// Hints returns the colour hint of every final block.
func (r RunReport) Hints() []engine.BlockHint {
	if r.Final == nil || r.Target == nil {
		return nil
	}
	return engine.BlockHints(r.Target, r.Final.Blocks())
}

func (r RunReport) validate() error {
	if r.Final == nil {
		return fmt.Errorf("no final canvas to export")
	}
	if r.Target == nil {
		return fmt.Errorf("no target image to export")
	}
	return nil
}

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	drawAreaTop  = marginTop + headerHeight + 5.0
	qrSize       = 40.0
)

// maxImprovementRows caps the improvements table on the summary page.
const maxImprovementRows = 20

// ExportPDF generates a PDF run report: an overview page with the target and
// the rendered result, a block layout page and a summary page.
func ExportPDF(path string, report RunReport) error {
	if err := report.validate(); err != nil {
		return err
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)

	pdf.AddPage()
	if err := renderOverviewPage(pdf, report); err != nil {
		return err
	}

	pdf.AddPage()
	renderLayoutPage(pdf, report.Final)

	pdf.AddPage()
	renderSummaryPage(pdf, report)

	return pdf.OutputFileAndClose(path)
}

// registerPNG encodes img and registers it with the document under name.
func registerPNG(pdf *fpdf.Fpdf, name string, img image.Image) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "PNG"}, &buf)
	return pdf.Error()
}

// renderOverviewPage draws the target and the result side by side with the
// QR-coded summary.
func renderOverviewPage(pdf *fpdf.Fpdf, report RunReport) error {
	out := report.Outcome

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	title := report.Title
	if title == "" {
		title = "Block Paint Run"
	}
	if out.RunID != "" {
		title = fmt.Sprintf("%s (%s)", title, out.RunID)
	}
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, title, "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	stats := fmt.Sprintf("Baseline: %s | Best: %s | Saved: %d | Instructions: %d | Evaluations: %d",
		formatCost(out.Baseline.TotalCost), formatCost(out.Best.TotalCost), out.Saved(),
		len(out.Best.Program), out.Evaluations)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, stats, "", 0, "L", false, 0, "")

	if err := registerPNG(pdf, "target", report.Target); err != nil {
		return err
	}
	if err := registerPNG(pdf, "result", report.Final.Image()); err != nil {
		return err
	}

	// Two square panels and the QR column
	panel := math.Min((pageWidth-marginLeft-marginRight-qrSize-20)/2, pageHeight-drawAreaTop-marginBottom-10)
	aspect := float64(report.Final.Height()) / float64(report.Final.Width())
	imgW, imgH := panel, panel*aspect
	if aspect > 1 {
		imgW, imgH = panel/aspect, panel
	}

	for i, name := range []string{"target", "result"} {
		x := marginLeft + float64(i)*(panel+10)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetXY(x, drawAreaTop)
		pdf.CellFormat(panel, 5, panelTitle(name), "", 0, "C", false, 0, "")
		pdf.ImageOptions(name, x+(panel-imgW)/2, drawAreaTop+6, imgW, imgH, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
		pdf.SetDrawColor(100, 100, 100)
		pdf.SetLineWidth(0.3)
		pdf.Rect(x+(panel-imgW)/2, drawAreaTop+6, imgW, imgH, "D")
	}

	qrPNG, err := SummaryQR(CollectSummary(report))
	if err != nil {
		return err
	}
	pdf.RegisterImageOptionsReader("summary_qr", fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))
	qrX := pageWidth - marginRight - qrSize
	pdf.ImageOptions("summary_qr", qrX, drawAreaTop+6, qrSize, qrSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(qrX, drawAreaTop+7+qrSize)
	pdf.CellFormat(qrSize, 4, "Run summary (JSON)", "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)

	return pdf.Error()
}

func panelTitle(name string) string {
	if name == "target" {
		return "Target"
	}
	return "Result"
}

// renderLayoutPage draws the block partition in canvas coordinates, y up.
func renderLayoutPage(pdf *fpdf.Fpdf, c *canvas.Canvas) {
	blocks := c.Blocks()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	title := fmt.Sprintf("Block Layout (%d x %d, %d blocks)", c.Width(), c.Height(), len(blocks))
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, title, "", 0, "L", false, 0, "")

	drawWidth := pageWidth - marginLeft - marginRight
	drawHeight := pageHeight - drawAreaTop - marginBottom
	scale := math.Min(drawWidth/float64(c.Width()), drawHeight/float64(c.Height()))
	canvasW := float64(c.Width()) * scale
	canvasH := float64(c.Height()) * scale
	offsetX := marginLeft + (drawWidth-canvasW)/2
	offsetY := drawAreaTop

	pdf.SetDrawColor(100, 100, 100)
	pdf.SetLineWidth(0.5)
	pdf.Rect(offsetX, offsetY, canvasW, canvasH, "D")

	for _, b := range blocks {
		bw := float64(b.Width()) * scale
		bh := float64(b.Height()) * scale
		bx := offsetX + float64(b.BottomLeft.X)*scale
		by := offsetY + float64(c.Height()-b.TopRight.Y)*scale

		style := "D"
		if b.Color[3] > 0 {
			pdf.SetFillColor(int(b.Color[0]), int(b.Color[1]), int(b.Color[2]))
			style = "FD"
		}
		pdf.SetDrawColor(30, 30, 30)
		pdf.SetLineWidth(0.2)
		pdf.Rect(bx, by, bw, bh, style)

		if bw > 12 && bh > 6 {
			pdf.SetFont("Helvetica", "", labelFontSize(bw, bh))
			r, g, bl := labelTextColor(b.Color)
			pdf.SetTextColor(r, g, bl)
			labelW := pdf.GetStringWidth(b.ID)
			if labelW < bw-2 {
				pdf.SetXY(bx+(bw-labelW)/2, by+bh/2-2)
				pdf.CellFormat(labelW, 4, b.ID, "", 0, "C", false, 0, "")
			}
		}
	}
	pdf.SetTextColor(0, 0, 0)
}

// renderSummaryPage draws costs, accepted improvements, search settings and
// the target palette.
func renderSummaryPage(pdf *fpdf.Fpdf, report RunReport) {
	out := report.Outcome

	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, "Optimization Summary", "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	y := marginTop + 18

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Costs", "", 0, "L", false, 0, "")
	y += 9

	summaryItems := []struct {
		label string
		value string
	}{
		{"Baseline Total", formatCost(out.Baseline.TotalCost)},
		{"Program Cost", formatCost(out.Best.ProgramCost)},
		{"Image Difference", fmt.Sprintf("%d", out.Best.ImageDiffCost)},
		{"Best Total", formatCost(out.Best.TotalCost)},
		{"Rounds", fmt.Sprintf("%d", out.Rounds)},
		{"Elapsed", out.Elapsed.String()},
	}
	if out.Baseline.Failed() {
		summaryItems = append(summaryItems, struct {
			label string
			value string
		}{"Baseline Failure", out.Baseline.Failure.Error()})
	}

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range summaryItems {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(45, 6, item.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(80, 6, item.value, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		y += 7
	}

	// Search settings on the right column
	sx := pageWidth/2 + 10
	sy := marginTop + 18
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(sx, sy)
	pdf.CellFormat(100, 7, "Search Settings", "", 0, "L", false, 0, "")
	sy += 9
	settingsItems := []struct {
		label string
		value string
	}{
		{"Offset Radius", fmt.Sprintf("%d", report.Settings.Radius)},
		{"Color Search", fmt.Sprintf("%t", report.Settings.ColorSearch)},
		{"Color Radius", fmt.Sprintf("%d", report.Settings.ColorRadius)},
		{"Workers", fmt.Sprintf("%d", report.Settings.Workers)},
		{"Max Rounds", fmt.Sprintf("%d", report.Settings.Rounds)},
	}
	pdf.SetFont("Helvetica", "", 9)
	for _, item := range settingsItems {
		pdf.SetXY(sx+5, sy)
		pdf.CellFormat(40, 5, item.label+":", "", 0, "L", false, 0, "")
		pdf.CellFormat(30, 5, item.value, "", 0, "L", false, 0, "")
		sy += 5
	}
	if len(report.Palette) > 0 {
		sy += 4
		drawPalette(pdf, report.Palette, sx, sy)
	}

	y += 5
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Improvements", "", 0, "L", false, 0, "")
	y += 9

	if len(out.Improvements) == 0 {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(100, 5, "No improvement found", "", 0, "L", false, 0, "")
	} else {
		colWidths := []float64{15, 15, 65, 65, 25, 25}
		headers := []string{"Round", "Index", "Before", "After", "From", "To"}

		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		xPos := marginLeft
		for i, header := range headers {
			pdf.SetXY(xPos, y)
			pdf.CellFormat(colWidths[i], 6, header, "1", 0, "C", true, 0, "")
			xPos += colWidths[i]
		}
		y += 6

		pdf.SetFont("Helvetica", "", 8)
		for i, imp := range out.Improvements {
			if i == maxImprovementRows {
				pdf.SetXY(marginLeft, y)
				pdf.CellFormat(100, 5, fmt.Sprintf("... %d more", len(out.Improvements)-maxImprovementRows), "", 0, "L", false, 0, "")
				break
			}
			if i%2 == 0 {
				pdf.SetFillColor(245, 245, 245)
			} else {
				pdf.SetFillColor(255, 255, 255)
			}
			rowData := []string{
				fmt.Sprintf("%d", imp.Round),
				fmt.Sprintf("%d", imp.Index),
				imp.Before.String(),
				imp.After.String(),
				formatCost(imp.FromCost),
				formatCost(imp.ToCost),
			}
			xPos = marginLeft
			for j, cell := range rowData {
				pdf.SetXY(xPos, y)
				pdf.CellFormat(colWidths[j], 5, cell, "1", 0, "C", true, 0, "")
				xPos += colWidths[j]
			}
			y += 5
		}
	}

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, "Generated by blockpaint", "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

// drawPalette renders labelled swatches of the target palette.
func drawPalette(pdf *fpdf.Fpdf, entries []palette.Entry, x, y float64) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(x, y)
	pdf.CellFormat(100, 7, "Target Palette", "", 0, "L", false, 0, "")
	y += 9

	pdf.SetFont("Helvetica", "", 8)
	for _, e := range entries {
		pdf.SetFillColor(int(e.Color[0]), int(e.Color[1]), int(e.Color[2]))
		pdf.SetDrawColor(60, 60, 60)
		pdf.SetLineWidth(0.2)
		pdf.Rect(x+5, y+0.5, 4, 4, "FD")
		pdf.SetXY(x+11, y)
		pdf.CellFormat(60, 5, fmt.Sprintf("%s  %.1f%%", e.Hex, e.Weight*100), "", 0, "L", false, 0, "")
		y += 5
	}
}

// formatCost prints MaxCost as "failed".
func formatCost(c int64) string {
	if c == engine.MaxCost {
		return "failed"
	}
	return fmt.Sprintf("%d", c)
}

// labelFontSize returns an appropriate font size based on the rectangle dimensions.
func labelFontSize(w, h float64) float64 {
	minDim := math.Min(w, h)
	switch {
	case minDim > 40:
		return 8
	case minDim > 20:
		return 7
	default:
		return 6
	}
}

// labelTextColor picks black or white text for legibility on a block fill.
func labelTextColor(c model.Color) (int, int, int) {
	if c[3] == 0 {
		return 0, 0, 0
	}
	lum := 0.299*float64(c[0]) + 0.587*float64(c[1]) + 0.114*float64(c[2])
	if lum < 110 {
		return 255, 255, 255
	}
	return 0, 0, 0
}
