package engine

import (
	"image"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/stat"

	"github.com/piwi3910/blockpaint/internal/canvas"
	"github.com/piwi3910/blockpaint/internal/model"
)

// BlockHint compares a block's current color with the mean target color
// under it.
type BlockHint struct {
	Block       model.Block
	Mean        model.Color
	Hex         string // Mean as #rrggbb
	CurrentDiff int64  // Similarity cost of the block as painted
	MeanDiff    int64  // Similarity cost if the block were painted Mean
}

// Gain is how much similarity cost repainting with the mean color would save.
func (h BlockHint) Gain() int64 {
	return h.CurrentDiff - h.MeanDiff
}

// MeanColor returns the per-channel mean of target under the block. target
// must have the canvas dimensions; rows are addressed bottom-up.
func MeanColor(target *image.NRGBA, b model.Block) model.Color {
	if b.Empty() {
		return model.Color{}
	}
	n := int(b.Size())
	channels := [4][]float64{}
	for ch := range channels {
		channels[ch] = make([]float64, 0, n)
	}

	h := target.Bounds().Dy()
	origin := target.Bounds().Min
	for y := b.BottomLeft.Y; y < b.TopRight.Y; y++ {
		row := target.PixOffset(origin.X+b.BottomLeft.X, origin.Y+h-1-y)
		for x := 0; x < b.Width()*4; x += 4 {
			for ch := range channels {
				channels[ch] = append(channels[ch], float64(target.Pix[row+x+ch]))
			}
		}
	}

	var out model.Color
	for ch := range channels {
		out[ch] = uint8(math.Round(stat.Mean(channels[ch], nil)))
	}
	return out
}

// HexColor formats the RGB channels of c as #rrggbb.
func HexColor(c model.Color) string {
	return colorful.Color{
		R: float64(c[0]) / 255,
		G: float64(c[1]) / 255,
		B: float64(c[2]) / 255,
	}.Hex()
}

// BlockHints computes a hint for every block against the target.
func BlockHints(target *image.NRGBA, blocks []model.Block) []BlockHint {
	hints := make([]BlockHint, 0, len(blocks))
	for _, b := range blocks {
		mean := MeanColor(target, b)
		hints = append(hints, BlockHint{
			Block:       b,
			Mean:        mean,
			Hex:         HexColor(mean),
			CurrentDiff: canvas.BlockDiff(target, b, b.Color),
			MeanDiff:    canvas.BlockDiff(target, b, mean),
		})
	}
	return hints
}
