package canvas

import (
	"fmt"
	"image"
	"math"

	"github.com/piwi3910/blockpaint/internal/model"
)

// diffScale converts the summed per-pixel distance into cost units.
const diffScale = 0.005

// Cost returns round(base × canvasSize / blockSize) for the given move.
func Cost(move model.MoveType, blockSize, canvasSize int64) int64 {
	return int64(math.Round(float64(move.BaseCost()) * float64(canvasSize) / float64(blockSize)))
}

// PixelDiff is the Euclidean distance between two pixels in 4-channel space.
func PixelDiff(p1, p2 []uint8) float64 {
	var d2 int64
	for i := 0; i < 4; i++ {
		d := int64(p1[i]) - int64(p2[i])
		d2 += d * d
	}
	return math.Sqrt(float64(d2))
}

// ImageDiff returns the similarity cost between two equally sized rasters.
// A size mismatch is a configuration error.
func ImageDiff(a, b *image.NRGBA) (int64, error) {
	if a.Bounds().Dx() != b.Bounds().Dx() || a.Bounds().Dy() != b.Bounds().Dy() {
		return 0, fmt.Errorf("%w: %dx%d vs %dx%d", ErrImageMismatch,
			a.Bounds().Dx(), a.Bounds().Dy(), b.Bounds().Dx(), b.Bounds().Dy())
	}
	w, h := a.Bounds().Dx(), a.Bounds().Dy()
	ra, rb := a.Bounds().Min, b.Bounds().Min

	var diff float64
	for y := range h {
		ia := a.PixOffset(ra.X, ra.Y+y)
		ib := b.PixOffset(rb.X, rb.Y+y)
		for x := 0; x < w*4; x += 4 {
			diff += PixelDiff(a.Pix[ia+x:ia+x+4], b.Pix[ib+x:ib+x+4])
		}
	}
	return int64(math.Round(diff * diffScale)), nil
}

// BlockDiff returns the similarity cost of filling block with a solid color
// against the corresponding region of target. Target must have the canvas
// dimensions; rows are addressed bottom-up like the canvas raster.
func BlockDiff(target *image.NRGBA, block model.Block, color model.Color) int64 {
	h := target.Bounds().Dy()
	origin := target.Bounds().Min
	var diff float64
	for y := block.BottomLeft.Y; y < block.TopRight.Y; y++ {
		row := target.PixOffset(origin.X+block.BottomLeft.X, origin.Y+h-1-y)
		for x := 0; x < block.Width()*4; x += 4 {
			diff += PixelDiff(target.Pix[row+x:row+x+4], color[:])
		}
	}
	return int64(math.Round(diff * diffScale))
}
