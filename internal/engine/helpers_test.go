package engine

import (
	"image"
	"testing"

	"github.com/piwi3910/blockpaint/internal/model"
	"github.com/stretchr/testify/require"
)

var (
	red   = model.Color{255, 0, 0, 255}
	blue  = model.Color{0, 0, 255, 255}
	white = model.White
)

// targetImage builds a w x h target filled with bg.
func targetImage(w, h int, bg model.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		copy(img.Pix[i:i+4], bg[:])
	}
	return img
}

// paintColumns colors columns [x0, x1) of every row.
func paintColumns(img *image.NRGBA, x0, x1 int, c model.Color) {
	for y := 0; y < img.Rect.Dy(); y++ {
		for x := x0; x < x1; x++ {
			i := img.PixOffset(x, y)
			copy(img.Pix[i:i+4], c[:])
		}
	}
}

func newExecutor(t *testing.T, target *image.NRGBA) *Executor {
	t.Helper()
	exec, err := NewExecutor(target, model.BlankState(target.Rect.Dx(), target.Rect.Dy()))
	require.NoError(t, err)
	return exec
}

// stripeFixture is a 10x10 target whose first 3 columns are red, with a
// program that cuts at 5 instead of 3.
func stripeFixture(t *testing.T) (*Executor, model.Program) {
	t.Helper()
	target := targetImage(10, 10, white)
	paintColumns(target, 0, 3, red)
	prog := model.Program{
		model.LineCutMove{BlockID: "0", Orientation: model.OrientationX, Offset: 5},
		model.ColorMove{BlockID: "0.0", Color: red},
	}
	return newExecutor(t, target), prog
}

// renderTarget paints prog on a blank w x h canvas and returns its raster.
func renderTarget(t *testing.T, w, h int, prog model.Program) *image.NRGBA {
	t.Helper()
	c, res := newExecutor(t, targetImage(w, h, white)).Replay(prog, 0)
	require.False(t, res.Failed(), "target program fails: %v", res.Failure)
	return c.Image()
}
