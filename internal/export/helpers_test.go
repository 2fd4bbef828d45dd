package export

import (
	"context"
	"image"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/piwi3910/blockpaint/internal/engine"
	"github.com/piwi3910/blockpaint/internal/model"
	"github.com/piwi3910/blockpaint/internal/palette"
)

var red = model.Color{255, 0, 0, 255}

// buildRunReport optimizes a two-instruction program against a 10x10 target
// whose first 3 columns are red.
func buildRunReport(t *testing.T) RunReport {
	t.Helper()
	target := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			c := model.White
			if x < 3 {
				c = red
			}
			i := target.PixOffset(x, y)
			copy(target.Pix[i:i+4], c[:])
		}
	}

	exec, err := engine.NewExecutor(target, model.BlankState(10, 10))
	require.NoError(t, err)

	prog := model.Program{
		model.LineCutMove{BlockID: "0", Orientation: model.OrientationX, Offset: 5},
		model.ColorMove{BlockID: "0.0", Color: red},
	}
	settings := model.DefaultSearchSettings()
	out, err := engine.New(exec, settings, nil).Optimize(context.Background(), prog)
	require.NoError(t, err)

	final, res := exec.Replay(out.Best.Program, 0)
	require.False(t, res.Failed())

	return RunReport{
		Title:    "Stripe",
		Outcome:  out,
		Settings: settings,
		Target:   target,
		Final:    final,
		Palette:  palette.Extract(target, 2, palette.MethodDominantColor),
	}
}
