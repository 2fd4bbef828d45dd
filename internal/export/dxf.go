package export

import (
	"fmt"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/drawing"

	"github.com/piwi3910/blockpaint/internal/canvas"
	"github.com/piwi3910/blockpaint/internal/model"
)

// DXF layer names.
const (
	CanvasLayer = "CANVAS"
	BlocksLayer = "BLOCKS"
)

// ExportDXF writes the block partition as LINE entities in canvas units,
// y up: the canvas border on CanvasLayer and four edges per block on
// BlocksLayer.
func ExportDXF(path string, c *canvas.Canvas) error {
	if c == nil {
		return fmt.Errorf("no canvas to export")
	}

	d := dxf.NewDrawing()
	for _, name := range []string{CanvasLayer, BlocksLayer} {
		if _, err := d.AddLayer(name, dxf.DefaultColor, dxf.DefaultLineType, true); err != nil {
			return fmt.Errorf("failed to add layer %s: %w", name, err)
		}
	}

	if err := d.ChangeLayer(CanvasLayer); err != nil {
		return err
	}
	border := model.Block{TopRight: model.Point{X: c.Width(), Y: c.Height()}}
	if err := drawRect(d, border); err != nil {
		return err
	}

	if err := d.ChangeLayer(BlocksLayer); err != nil {
		return err
	}
	for _, b := range c.Blocks() {
		if err := drawRect(d, b); err != nil {
			return fmt.Errorf("block %s: %w", b.ID, err)
		}
	}

	if err := d.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save DXF: %w", err)
	}
	return nil
}

func drawRect(d *drawing.Drawing, b model.Block) error {
	x0, y0 := float64(b.BottomLeft.X), float64(b.BottomLeft.Y)
	x1, y1 := float64(b.TopRight.X), float64(b.TopRight.Y)
	edges := [4][4]float64{
		{x0, y0, x1, y0},
		{x1, y0, x1, y1},
		{x1, y1, x0, y1},
		{x0, y1, x0, y0},
	}
	for _, e := range edges {
		if _, err := d.Line(e[0], e[1], 0, e[2], e[3], 0); err != nil {
			return err
		}
	}
	return nil
}
