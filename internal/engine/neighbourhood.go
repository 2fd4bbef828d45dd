package engine

import (
	"github.com/piwi3910/blockpaint/internal/model"
)

// lineCutNeighbours perturbs the offset by every δ in [-r, r].
func lineCutNeighbours(m model.LineCutMove, r int) []model.Command {
	out := make([]model.Command, 0, 2*r+1)
	for d := -r; d <= r; d++ {
		n := m
		n.Offset = m.Offset + d
		out = append(out, n)
	}
	return out
}

// pointCutNeighbours perturbs both coordinates by every (δx, δy) in
// [-r, r]², δx in the outer loop.
func pointCutNeighbours(m model.PointCutMove, r int) []model.Command {
	side := 2*r + 1
	out := make([]model.Command, 0, side*side)
	for dx := -r; dx <= r; dx++ {
		for dy := -r; dy <= r; dy++ {
			n := m
			n.Point = model.Point{X: m.Point.X + dx, Y: m.Point.Y + dy}
			out = append(out, n)
		}
	}
	return out
}

// colorNeighbours shifts every channel by δ in [-r, r], wrapping modulo 256.
// A non-nil hint is appended as an extra candidate.
func colorNeighbours(m model.ColorMove, r int, hint *model.Color) []model.Command {
	side := 2*r + 1
	out := make([]model.Command, 0, side*side*side*side+1)
	for d0 := -r; d0 <= r; d0++ {
		for d1 := -r; d1 <= r; d1++ {
			for d2 := -r; d2 <= r; d2++ {
				for d3 := -r; d3 <= r; d3++ {
					n := m
					n.Color = model.Color{
						uint8(int(m.Color[0]) + d0),
						uint8(int(m.Color[1]) + d1),
						uint8(int(m.Color[2]) + d2),
						uint8(int(m.Color[3]) + d3),
					}
					out = append(out, n)
				}
			}
		}
	}
	if hint != nil && *hint != m.Color {
		out = append(out, model.ColorMove{BlockID: m.BlockID, Color: *hint})
	}
	return out
}
