// Package canvas simulates a block-partitioned raster: a set of disjoint
// rectangles covering the canvas plus the rendered image, mutated by the five
// program instructions, each returning its cost.
package canvas

import (
	"fmt"
	"image"
	"sort"
	"strconv"

	"github.com/piwi3910/blockpaint/internal/model"
)

// Canvas owns the current block partition and the raster that renders it.
// The raster y axis is flipped: canvas row y is image row height-1-y.
type Canvas struct {
	width   int
	height  int
	blocks  map[string]*model.Block
	img     *image.NRGBA
	counter int // last id handed out to a merge result
}

// New creates a width x height canvas with a single white block "0".
func New(width, height int) *Canvas {
	c := &Canvas{
		width:  width,
		height: height,
		blocks: make(map[string]*model.Block),
		img:    image.NewNRGBA(image.Rect(0, 0, width, height)),
	}
	c.add(model.Block{
		ID:         strconv.Itoa(c.counter),
		BottomLeft: model.Point{X: 0, Y: 0},
		TopRight:   model.Point{X: width, Y: height},
		Color:      model.White,
	})
	return c
}

// NewDefault creates the reference 400x400 white canvas.
func NewDefault() *Canvas {
	return New(model.DefaultCanvasSize, model.DefaultCanvasSize)
}

// FromState rebuilds a canvas from a saved partition. Every block is painted
// with its color. The merge counter continues from len(blocks)-1.
func FromState(state model.CanvasState) (*Canvas, error) {
	if state.Width <= 0 || state.Height <= 0 {
		return nil, fmt.Errorf("%w: canvas size %dx%d", ErrInvalidState, state.Width, state.Height)
	}
	if len(state.Blocks) == 0 {
		return nil, fmt.Errorf("%w: no blocks", ErrInvalidState)
	}

	c := &Canvas{
		width:  state.Width,
		height: state.Height,
		blocks: make(map[string]*model.Block, len(state.Blocks)),
		img:    image.NewNRGBA(image.Rect(0, 0, state.Width, state.Height)),
	}
	for _, b := range state.Blocks {
		if _, dup := c.blocks[b.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate block id %q", ErrInvalidState, b.ID)
		}
		if b.Empty() || !c.contains(b) {
			return nil, fmt.Errorf("%w: block %q %v-%v is empty or outside the canvas",
				ErrInvalidState, b.ID, b.BottomLeft, b.TopRight)
		}
		c.add(b)
	}
	if err := c.CheckPartition(); err != nil {
		return nil, err
	}
	c.counter = len(state.Blocks) - 1
	return c, nil
}

// Clone returns an independent deep copy of the canvas.
func (c *Canvas) Clone() *Canvas {
	out := &Canvas{
		width:   c.width,
		height:  c.height,
		blocks:  make(map[string]*model.Block, len(c.blocks)),
		img:     image.NewNRGBA(c.img.Rect),
		counter: c.counter,
	}
	for id, b := range c.blocks {
		cp := *b
		out.blocks[id] = &cp
	}
	copy(out.img.Pix, c.img.Pix)
	return out
}

func (c *Canvas) Width() int  { return c.width }
func (c *Canvas) Height() int { return c.height }

// Size returns the canvas area.
func (c *Canvas) Size() int64 {
	return int64(c.width) * int64(c.height)
}

// Image returns the live raster. Callers must not modify it.
func (c *Canvas) Image() *image.NRGBA {
	return c.img
}

// Len returns the number of blocks in the partition.
func (c *Canvas) Len() int {
	return len(c.blocks)
}

// Block returns a copy of the named block.
func (c *Canvas) Block(id string) (model.Block, bool) {
	b, ok := c.blocks[id]
	if !ok {
		return model.Block{}, false
	}
	return *b, true
}

// Blocks returns copies of all blocks sorted by id.
func (c *Canvas) Blocks() []model.Block {
	out := make([]model.Block, 0, len(c.blocks))
	for _, b := range c.blocks {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}

// State snapshots the canvas as a resumable partition.
func (c *Canvas) State() model.CanvasState {
	return model.CanvasState{Width: c.width, Height: c.height, Blocks: c.Blocks()}
}

// CheckPartition verifies that the blocks are non-empty, lie inside the
// canvas, do not overlap and together cover the whole canvas.
func (c *Canvas) CheckPartition() error {
	blocks := c.Blocks()
	var total int64
	for i, a := range blocks {
		if a.Empty() || !c.contains(a) {
			return fmt.Errorf("%w: block %q %v-%v is empty or outside the canvas",
				ErrInvalidState, a.ID, a.BottomLeft, a.TopRight)
		}
		for _, b := range blocks[i+1:] {
			if a.Overlaps(b) {
				return fmt.Errorf("%w: blocks %q and %q overlap", ErrInvalidState, a.ID, b.ID)
			}
		}
		total += a.Size()
	}
	if total != c.Size() {
		return fmt.Errorf("%w: blocks cover %d of %d pixels", ErrInvalidState, total, c.Size())
	}
	return nil
}

// Apply executes one instruction and returns its cost.
func (c *Canvas) Apply(cmd model.Command) (int64, error) {
	switch m := cmd.(type) {
	case model.LineCutMove:
		return c.LineCut(m.BlockID, m.Orientation, m.Offset)
	case model.PointCutMove:
		return c.PointCut(m.BlockID, m.Point)
	case model.ColorMove:
		return c.Color(m.BlockID, m.Color)
	case model.SwapMove:
		return c.Swap(m.Block1, m.Block2)
	case model.MergeMove:
		return c.Merge(m.Block1, m.Block2)
	default:
		return 0, fmt.Errorf("unsupported command %T", cmd)
	}
}

// LineCut splits a block in two at offset along the orientation. Child 0
// keeps the bottom-left corner. An offset that leaves either child empty is
// rejected.
func (c *Canvas) LineCut(id string, orientation model.Orientation, offset int) (int64, error) {
	block, err := c.lookup(id)
	if err != nil {
		return 0, err
	}
	parent := *block

	first, second := parent, parent
	first.ID = model.ChildID(id, 0)
	second.ID = model.ChildID(id, 1)
	if orientation == model.OrientationX {
		first.TopRight.X = offset
		second.BottomLeft.X = offset
	} else {
		first.TopRight.Y = offset
		second.BottomLeft.Y = offset
	}
	if first.Empty() || second.Empty() {
		return 0, fmt.Errorf("%w: %s offset %d outside block %q %v-%v",
			ErrInvalidCut, orientation, offset, id, parent.BottomLeft, parent.TopRight)
	}

	delete(c.blocks, id)
	c.blocks[first.ID] = &first
	c.blocks[second.ID] = &second
	return c.cost(model.MoveLineCut, parent), nil
}

// PointCut splits a block into four quadrants around p, numbered
// counter-clockwise from the bottom-left one. p must satisfy
// bottomLeft < p <= topRight and every quadrant must be non-empty.
func (c *Canvas) PointCut(id string, p model.Point) (int64, error) {
	block, err := c.lookup(id)
	if err != nil {
		return 0, err
	}
	parent := *block
	bl, tr := parent.BottomLeft, parent.TopRight
	if p.X <= bl.X || p.Y <= bl.Y || p.X > tr.X || p.Y > tr.Y {
		return 0, fmt.Errorf("%w: point %v is outside block %q %v-%v", ErrInvalidCut, p, id, bl, tr)
	}

	quads := [4]model.Block{
		{BottomLeft: bl, TopRight: p},
		{BottomLeft: model.Point{X: p.X, Y: bl.Y}, TopRight: model.Point{X: tr.X, Y: p.Y}},
		{BottomLeft: p, TopRight: tr},
		{BottomLeft: model.Point{X: bl.X, Y: p.Y}, TopRight: model.Point{X: p.X, Y: tr.Y}},
	}
	for i := range quads {
		quads[i].ID = model.ChildID(id, i)
		quads[i].Color = parent.Color
		if quads[i].Empty() {
			return 0, fmt.Errorf("%w: point %v leaves quadrant %d of block %q empty", ErrInvalidCut, p, i, id)
		}
	}

	delete(c.blocks, id)
	for i := range quads {
		q := quads[i]
		c.blocks[q.ID] = &q
	}
	return c.cost(model.MovePointCut, parent), nil
}

// Color fills a block with a solid color.
func (c *Canvas) Color(id string, color model.Color) (int64, error) {
	block, err := c.lookup(id)
	if err != nil {
		return 0, err
	}
	block.Color = color
	c.fill(*block)
	return c.cost(model.MoveColor, *block), nil
}

// Swap exchanges the geometry and the pixel content of two congruent blocks.
// Block colors stay with their ids.
func (c *Canvas) Swap(id1, id2 string) (int64, error) {
	b1, err := c.lookup(id1)
	if err != nil {
		return 0, err
	}
	b2, err := c.lookup(id2)
	if err != nil {
		return 0, err
	}
	if !b1.SameShape(*b2) {
		return 0, fmt.Errorf("%w: %q is %dx%d, %q is %dx%d", ErrIncompatibleSwap,
			id1, b1.Width(), b1.Height(), id2, b2.Width(), b2.Height())
	}

	b1.BottomLeft, b2.BottomLeft = b2.BottomLeft, b1.BottomLeft
	b1.TopRight, b2.TopRight = b2.TopRight, b1.TopRight
	c.swapPixels(*b1, *b2)
	return c.cost(model.MoveSwap, *b1), nil
}

// Merge joins two blocks sharing a full edge into a new block named after the
// incremented canvas counter. The result color is zero and nothing is
// repainted.
func (c *Canvas) Merge(id1, id2 string) (int64, error) {
	if id1 == id2 {
		return 0, fmt.Errorf("%w: cannot merge %q with itself", ErrIncompatibleMerge, id1)
	}
	b1, err := c.lookup(id1)
	if err != nil {
		return 0, err
	}
	b2, err := c.lookup(id2)
	if err != nil {
		return 0, err
	}
	cost := min(c.cost(model.MoveMerge, *b1), c.cost(model.MoveMerge, *b2))

	var bl, tr model.Point
	switch {
	case b1.BottomLeft.X == b2.BottomLeft.X && b1.TopRight.X == b2.TopRight.X:
		bl = model.Point{X: b1.BottomLeft.X, Y: min(b1.BottomLeft.Y, b2.BottomLeft.Y)}
		tr = model.Point{X: b1.TopRight.X, Y: max(b1.TopRight.Y, b2.TopRight.Y)}
	case b1.BottomLeft.Y == b2.BottomLeft.Y && b1.TopRight.Y == b2.TopRight.Y:
		bl = model.Point{X: min(b1.BottomLeft.X, b2.BottomLeft.X), Y: b1.BottomLeft.Y}
		tr = model.Point{X: max(b1.TopRight.X, b2.TopRight.X), Y: b1.TopRight.Y}
	default:
		return 0, fmt.Errorf("%w: %q %v-%v and %q %v-%v share no full edge", ErrIncompatibleMerge,
			id1, b1.BottomLeft, b1.TopRight, id2, b2.BottomLeft, b2.TopRight)
	}

	merged := model.Block{ID: strconv.Itoa(c.counter + 1), BottomLeft: bl, TopRight: tr}
	if merged.Size() != b1.Size()+b2.Size() {
		return 0, fmt.Errorf("%w: %d != %d + %d", ErrMergeArea, merged.Size(), b1.Size(), b2.Size())
	}

	c.counter++
	delete(c.blocks, id1)
	delete(c.blocks, id2)
	c.blocks[merged.ID] = &merged
	return cost, nil
}

func (c *Canvas) lookup(id string) (*model.Block, error) {
	b, ok := c.blocks[id]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownBlock, id)
	}
	return b, nil
}

func (c *Canvas) cost(move model.MoveType, b model.Block) int64 {
	return Cost(move, b.Size(), c.Size())
}

func (c *Canvas) contains(b model.Block) bool {
	return b.BottomLeft.X >= 0 && b.BottomLeft.Y >= 0 && b.TopRight.X <= c.width && b.TopRight.Y <= c.height
}

// add stores a block and paints it.
func (c *Canvas) add(b model.Block) {
	c.blocks[b.ID] = &b
	c.fill(b)
}

// rowOffset returns the Pix index of canvas pixel (x, y).
func (c *Canvas) rowOffset(x, y int) int {
	return c.img.PixOffset(x, c.height-1-y)
}

func (c *Canvas) fill(b model.Block) {
	n := b.Width() * 4
	for y := b.BottomLeft.Y; y < b.TopRight.Y; y++ {
		i := c.rowOffset(b.BottomLeft.X, y)
		row := c.img.Pix[i : i+n]
		for x := 0; x < n; x += 4 {
			copy(row[x:x+4], b.Color[:])
		}
	}
}

// swapPixels exchanges the raster content of two congruent rectangles row by row.
func (c *Canvas) swapPixels(a, b model.Block) {
	n := a.Width() * 4
	tmp := make([]uint8, n)
	for dy := 0; dy < a.Height(); dy++ {
		ia := c.rowOffset(a.BottomLeft.X, a.BottomLeft.Y+dy)
		ib := c.rowOffset(b.BottomLeft.X, b.BottomLeft.Y+dy)
		ra := c.img.Pix[ia : ia+n]
		rb := c.img.Pix[ib : ib+n]
		copy(tmp, ra)
		copy(ra, rb)
		copy(rb, tmp)
	}
}
