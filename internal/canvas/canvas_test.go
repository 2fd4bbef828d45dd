package canvas

import (
	"testing"

	"github.com/piwi3910/blockpaint/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pt(x, y int) model.Point { return model.Point{X: x, Y: y} }

// pixelAt reads canvas pixel (x, y) in canvas coordinates.
func pixelAt(c *Canvas, x, y int) model.Color {
	i := c.rowOffset(x, y)
	var col model.Color
	copy(col[:], c.Image().Pix[i:i+4])
	return col
}

func requireBlock(t *testing.T, c *Canvas, id string) model.Block {
	t.Helper()
	b, ok := c.Block(id)
	require.True(t, ok, "block %q should exist", id)
	return b
}

func TestNewDefault_SingleWhiteBlock(t *testing.T) {
	c := NewDefault()

	assert.Equal(t, 400, c.Width())
	assert.Equal(t, 400, c.Height())
	require.Equal(t, 1, c.Len())

	b := requireBlock(t, c, "0")
	assert.Equal(t, pt(0, 0), b.BottomLeft)
	assert.Equal(t, pt(400, 400), b.TopRight)
	assert.Equal(t, model.White, b.Color)
	assert.Equal(t, model.White, pixelAt(c, 0, 0))
	assert.Equal(t, model.White, pixelAt(c, 399, 399))
}

func TestLineCut_ScenarioX200(t *testing.T) {
	c := NewDefault()

	cost, err := c.LineCut("0", model.OrientationX, 200)
	require.NoError(t, err)
	assert.Equal(t, int64(7), cost)

	_, ok := c.Block("0")
	assert.False(t, ok, "parent should be removed")

	left := requireBlock(t, c, "0.0")
	right := requireBlock(t, c, "0.1")
	assert.Equal(t, pt(0, 0), left.BottomLeft)
	assert.Equal(t, pt(200, 400), left.TopRight)
	assert.Equal(t, pt(200, 0), right.BottomLeft)
	assert.Equal(t, pt(400, 400), right.TopRight)
	assert.Equal(t, model.White, right.Color)
	require.NoError(t, c.CheckPartition())
}

func TestLineCut_Y(t *testing.T) {
	c := New(100, 50)

	_, err := c.LineCut("0", model.OrientationY, 20)
	require.NoError(t, err)

	bottom := requireBlock(t, c, "0.0")
	top := requireBlock(t, c, "0.1")
	assert.Equal(t, pt(100, 20), bottom.TopRight)
	assert.Equal(t, pt(0, 20), top.BottomLeft)
	assert.Equal(t, bottom.Size()+top.Size(), c.Size())
}

func TestLineCut_OffsetOutsideBlockFails(t *testing.T) {
	for _, offset := range []int{0, -3, 400, 401} {
		c := NewDefault()
		_, err := c.LineCut("0", model.OrientationX, offset)
		assert.ErrorIs(t, err, ErrInvalidCut, "offset %d", offset)
		assert.Equal(t, 1, c.Len(), "failed cut must not mutate the canvas")
	}
}

func TestLineCut_CostScalesWithBlockArea(t *testing.T) {
	c := NewDefault()
	_, err := c.LineCut("0", model.OrientationX, 200)
	require.NoError(t, err)

	cost, err := c.LineCut("0.0", model.OrientationY, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(14), cost) // 7 * 160000 / 80000
}

func TestPointCut_FourQuadrants(t *testing.T) {
	c := NewDefault()

	cost, err := c.PointCut("0", pt(100, 300))
	require.NoError(t, err)
	assert.Equal(t, int64(10), cost)
	require.Equal(t, 4, c.Len())

	want := []struct {
		id     string
		bl, tr model.Point
	}{
		{"0.0", pt(0, 0), pt(100, 300)},
		{"0.1", pt(100, 0), pt(400, 300)},
		{"0.2", pt(100, 300), pt(400, 400)},
		{"0.3", pt(0, 300), pt(100, 400)},
	}
	var total int64
	for _, w := range want {
		b := requireBlock(t, c, w.id)
		assert.Equal(t, w.bl, b.BottomLeft, w.id)
		assert.Equal(t, w.tr, b.TopRight, w.id)
		total += b.Size()
	}
	assert.Equal(t, c.Size(), total)
	require.NoError(t, c.CheckPartition())
}

func TestPointCut_AtBottomLeftFails(t *testing.T) {
	c := NewDefault()

	_, err := c.PointCut("0", pt(0, 0))
	assert.ErrorIs(t, err, ErrInvalidCut)
	assert.Equal(t, 1, c.Len())
}

func TestPointCut_OnEdgesFails(t *testing.T) {
	for _, p := range []model.Point{pt(0, 50), pt(50, 0), pt(401, 50), pt(50, 401), pt(400, 400), pt(400, 50)} {
		c := NewDefault()
		_, err := c.PointCut("0", p)
		assert.ErrorIs(t, err, ErrInvalidCut, "point %v", p)
		assert.Equal(t, 1, c.Len())
	}
}

func TestColor_RepaintsBlockOnly(t *testing.T) {
	c := NewDefault()
	_, err := c.LineCut("0", model.OrientationX, 100)
	require.NoError(t, err)

	red := model.Color{255, 0, 0, 255}
	cost, err := c.Color("0.0", red)
	require.NoError(t, err)
	assert.Equal(t, int64(20), cost) // 5 * 160000 / 40000

	assert.Equal(t, red, requireBlock(t, c, "0.0").Color)
	assert.Equal(t, red, pixelAt(c, 0, 0))
	assert.Equal(t, red, pixelAt(c, 99, 399))
	assert.Equal(t, model.White, pixelAt(c, 100, 0))
}

func TestColor_UsesFlippedRows(t *testing.T) {
	c := New(4, 4)
	_, err := c.LineCut("0", model.OrientationY, 1)
	require.NoError(t, err)
	_, err = c.Color("0.0", model.Color{1, 2, 3, 4})
	require.NoError(t, err)

	// Canvas row 0 is the last image row.
	assert.Equal(t, []uint8{1, 2, 3, 4}, c.Image().Pix[c.Image().PixOffset(0, 3):c.Image().PixOffset(0, 3)+4])
	assert.Equal(t, []uint8{255, 255, 255, 255}, c.Image().Pix[0:4])
}

func TestSwap_ExchangesGeometryAndPixels(t *testing.T) {
	c := NewDefault()
	_, err := c.LineCut("0", model.OrientationX, 200)
	require.NoError(t, err)
	_, err = c.LineCut("0.0", model.OrientationY, 200)
	require.NoError(t, err)

	blue := model.Color{0, 0, 255, 255}
	_, err = c.Color("0.0.0", blue)
	require.NoError(t, err)
	// Paint a stripe on the right half through a nested cut so its content is not solid.
	_, err = c.LineCut("0.1", model.OrientationY, 200)
	require.NoError(t, err)
	green := model.Color{0, 255, 0, 255}
	_, err = c.Color("0.1.1", green)
	require.NoError(t, err)

	cost, err := c.Swap("0.0.0", "0.1.1")
	require.NoError(t, err)
	assert.Equal(t, int64(12), cost) // 3 * 160000 / 40000

	moved := requireBlock(t, c, "0.0.0")
	assert.Equal(t, pt(200, 200), moved.BottomLeft)
	assert.Equal(t, pt(400, 400), moved.TopRight)
	assert.Equal(t, blue, moved.Color, "color stays with the id")

	other := requireBlock(t, c, "0.1.1")
	assert.Equal(t, pt(0, 0), other.BottomLeft)

	assert.Equal(t, blue, pixelAt(c, 250, 250))
	assert.Equal(t, green, pixelAt(c, 10, 10))
	require.NoError(t, c.CheckPartition())
}

func TestSwap_PreservesArbitraryContent(t *testing.T) {
	c := New(4, 2)
	_, err := c.LineCut("0", model.OrientationX, 2)
	require.NoError(t, err)
	_, err = c.LineCut("0.0", model.OrientationX, 1)
	require.NoError(t, err)
	_, err = c.Color("0.0.0", model.Color{9, 9, 9, 9})
	require.NoError(t, err)
	_, err = c.Merge("0.0.0", "0.0.1")
	require.NoError(t, err)

	// Block "1" now covers x in [0,2) with mixed content; swap it with "0.1".
	_, err = c.Swap("1", "0.1")
	require.NoError(t, err)

	assert.Equal(t, model.Color{9, 9, 9, 9}, pixelAt(c, 2, 0))
	assert.Equal(t, model.White, pixelAt(c, 3, 0))
	assert.Equal(t, model.White, pixelAt(c, 0, 0))
}

func TestSwap_DifferentShapesFails(t *testing.T) {
	c := NewDefault()
	_, err := c.LineCut("0", model.OrientationX, 100)
	require.NoError(t, err)

	_, err = c.Swap("0.0", "0.1")
	assert.ErrorIs(t, err, ErrIncompatibleSwap)
	assert.Equal(t, pt(0, 0), requireBlock(t, c, "0.0").BottomLeft)
}

func TestMerge_ScenarioAfterCut(t *testing.T) {
	c := NewDefault()
	_, err := c.LineCut("0", model.OrientationX, 200)
	require.NoError(t, err)

	cost, err := c.Merge("0.0", "0.1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), cost)
	require.Equal(t, 1, c.Len())

	merged := requireBlock(t, c, "1")
	assert.Equal(t, pt(0, 0), merged.BottomLeft)
	assert.Equal(t, pt(400, 400), merged.TopRight)
	assert.Equal(t, model.Color{}, merged.Color)
	assert.Equal(t, model.White, pixelAt(c, 10, 10), "merge does not repaint")
}

func TestMerge_CostIsMinimumOverOperands(t *testing.T) {
	c := NewDefault()
	_, err := c.LineCut("0", model.OrientationY, 100)
	require.NoError(t, err)

	cost, err := c.Merge("0.1", "0.0")
	require.NoError(t, err)
	// round(160000/40000)=4 and round(160000/120000)=1
	assert.Equal(t, int64(1), cost)
}

func TestMerge_CounterIncrements(t *testing.T) {
	c := NewDefault()
	_, err := c.LineCut("0", model.OrientationX, 200)
	require.NoError(t, err)
	_, err = c.Merge("0.0", "0.1")
	require.NoError(t, err)
	_, err = c.LineCut("1", model.OrientationY, 50)
	require.NoError(t, err)
	_, err = c.Merge("1.1", "1.0")
	require.NoError(t, err)

	requireBlock(t, c, "2")
	require.NoError(t, c.CheckPartition())
}

func TestMerge_NotAdjacentFails(t *testing.T) {
	c := NewDefault()
	_, err := c.PointCut("0", pt(200, 200))
	require.NoError(t, err)

	_, err = c.Merge("0.0", "0.2")
	assert.ErrorIs(t, err, ErrIncompatibleMerge)
	assert.Equal(t, 4, c.Len())
}

func TestMerge_SameSpanWithGapFailsAreaCheck(t *testing.T) {
	c := New(30, 10)
	_, err := c.LineCut("0", model.OrientationX, 10)
	require.NoError(t, err)
	_, err = c.LineCut("0.1", model.OrientationX, 20)
	require.NoError(t, err)

	// "0.0" [0,10) and "0.1.1" [20,30) share the y-span but not an edge.
	_, err = c.Merge("0.0", "0.1.1")
	assert.ErrorIs(t, err, ErrMergeArea)
	assert.Equal(t, 3, c.Len())
}

func TestMerge_WithItselfFails(t *testing.T) {
	c := NewDefault()
	_, err := c.Merge("0", "0")
	assert.ErrorIs(t, err, ErrIncompatibleMerge)
}

func TestOperations_UnknownBlock(t *testing.T) {
	cmds := []model.Command{
		model.LineCutMove{BlockID: "9", Orientation: model.OrientationX, Offset: 10},
		model.PointCutMove{BlockID: "9", Point: pt(10, 10)},
		model.ColorMove{BlockID: "9"},
		model.SwapMove{Block1: "0", Block2: "9"},
		model.MergeMove{Block1: "9", Block2: "0"},
	}
	for _, cmd := range cmds {
		c := NewDefault()
		_, err := c.Apply(cmd)
		assert.ErrorIs(t, err, ErrUnknownBlock, cmd.String())
	}
}

func TestPartitionInvariant_AfterMixedSequence(t *testing.T) {
	c := NewDefault()
	program := []model.Command{
		model.PointCutMove{BlockID: "0", Point: pt(120, 250)},
		model.LineCutMove{BlockID: "0.1", Orientation: model.OrientationX, Offset: 300},
		model.ColorMove{BlockID: "0.1.0", Color: model.Color{10, 20, 30, 255}},
		model.MergeMove{Block1: "0.1.0", Block2: "0.1.1"},
		model.LineCutMove{BlockID: "0.2", Orientation: model.OrientationY, Offset: 325},
		model.LineCutMove{BlockID: "0.3", Orientation: model.OrientationY, Offset: 325},
		model.SwapMove{Block1: "0.2.0", Block2: "0.2.1"},
		model.MergeMove{Block1: "0.0", Block2: "0.3.0"},
	}
	for _, cmd := range program {
		_, err := c.Apply(cmd)
		require.NoError(t, err, cmd.String())
		require.NoError(t, c.CheckPartition(), cmd.String())
	}
}

func TestFromState_LoadsBlocksAndCounter(t *testing.T) {
	state := model.CanvasState{
		Width:  20,
		Height: 10,
		Blocks: []model.Block{
			{ID: "0", BottomLeft: pt(0, 0), TopRight: pt(10, 10), Color: model.Color{1, 1, 1, 255}},
			{ID: "1", BottomLeft: pt(10, 0), TopRight: pt(20, 10), Color: model.Color{2, 2, 2, 255}},
		},
	}
	c, err := FromState(state)
	require.NoError(t, err)

	assert.Equal(t, model.Color{1, 1, 1, 255}, pixelAt(c, 0, 0))
	assert.Equal(t, model.Color{2, 2, 2, 255}, pixelAt(c, 19, 9))

	_, err = c.Merge("0", "1")
	require.NoError(t, err)
	requireBlock(t, c, "2")
}

func TestFromState_RejectsBrokenPartition(t *testing.T) {
	gap := model.CanvasState{Width: 20, Height: 10, Blocks: []model.Block{
		{ID: "0", BottomLeft: pt(0, 0), TopRight: pt(10, 10)},
	}}
	_, err := FromState(gap)
	assert.ErrorIs(t, err, ErrInvalidState)

	overlap := model.CanvasState{Width: 10, Height: 10, Blocks: []model.Block{
		{ID: "0", BottomLeft: pt(0, 0), TopRight: pt(10, 10)},
		{ID: "1", BottomLeft: pt(5, 5), TopRight: pt(6, 6)},
	}}
	_, err = FromState(overlap)
	assert.ErrorIs(t, err, ErrInvalidState)

	outside := model.CanvasState{Width: 10, Height: 10, Blocks: []model.Block{
		{ID: "0", BottomLeft: pt(0, 0), TopRight: pt(11, 10)},
	}}
	_, err = FromState(outside)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = FromState(model.CanvasState{Width: 0, Height: 10})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestState_RoundTrip(t *testing.T) {
	c := NewDefault()
	_, err := c.PointCut("0", pt(10, 20))
	require.NoError(t, err)

	restored, err := FromState(c.State())
	require.NoError(t, err)
	assert.Equal(t, c.Blocks(), restored.Blocks())
	assert.Equal(t, c.Image().Pix, restored.Image().Pix)
}

func TestClone_IsIndependent(t *testing.T) {
	c := NewDefault()
	_, err := c.LineCut("0", model.OrientationX, 200)
	require.NoError(t, err)

	cp := c.Clone()
	_, err = cp.Color("0.0", model.Color{1, 2, 3, 4})
	require.NoError(t, err)
	_, err = cp.Merge("0.0", "0.1")
	require.NoError(t, err)

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, model.White, requireBlock(t, c, "0.0").Color)
	assert.Equal(t, model.White, pixelAt(c, 0, 0))
	requireBlock(t, cp, "1")
}
