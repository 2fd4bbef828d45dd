package model

import (
	"fmt"
	"strings"
)

// Point is an integer canvas coordinate. Y grows upwards from the bottom edge.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Point) String() string {
	return fmt.Sprintf("[%d, %d]", p.X, p.Y)
}

// Color holds four 0-255 channels in R, G, B, A order.
type Color [4]uint8

// White is the color of a freshly constructed canvas.
var White = Color{255, 255, 255, 255}

func (c Color) String() string {
	return fmt.Sprintf("[%d, %d, %d, %d]", c[0], c[1], c[2], c[3])
}

// Block is a named axis-aligned rectangle of the canvas.
// TopRight is an exclusive upper bound.
type Block struct {
	ID         string
	BottomLeft Point
	TopRight   Point
	Color      Color
}

// Width returns the horizontal extent of the block.
func (b Block) Width() int {
	return b.TopRight.X - b.BottomLeft.X
}

// Height returns the vertical extent of the block.
func (b Block) Height() int {
	return b.TopRight.Y - b.BottomLeft.Y
}

// Size returns the block area. It is computed in 64 bits so large canvases
// cannot overflow.
func (b Block) Size() int64 {
	return int64(b.Width()) * int64(b.Height())
}

// Empty reports whether the block violates the non-empty rectangle invariant.
func (b Block) Empty() bool {
	return b.BottomLeft.X >= b.TopRight.X || b.BottomLeft.Y >= b.TopRight.Y
}

// SameShape reports whether two blocks have identical width and height.
func (b Block) SameShape(o Block) bool {
	return b.Width() == o.Width() && b.Height() == o.Height()
}

// Overlaps reports whether the interiors of two blocks intersect.
func (b Block) Overlaps(o Block) bool {
	return b.BottomLeft.X < o.TopRight.X && o.BottomLeft.X < b.TopRight.X &&
		b.BottomLeft.Y < o.TopRight.Y && o.BottomLeft.Y < b.TopRight.Y
}

func (b Block) String() string {
	return fmt.Sprintf("Block{%s %v-%v %v}", b.ID, b.BottomLeft, b.TopRight, b.Color)
}

// ChildID returns the hierarchical id of the n-th child of a cut block.
func ChildID(parent string, n int) string {
	return fmt.Sprintf("%s.%d", parent, n)
}

// CanvasState describes a canvas to resume from: dimensions plus an explicit
// block partition.
type CanvasState struct {
	Width  int
	Height int
	Blocks []Block
}

// BlankState is a width x height canvas holding the single white block "0".
func BlankState(width, height int) CanvasState {
	return CanvasState{
		Width:  width,
		Height: height,
		Blocks: []Block{{ID: "0", TopRight: Point{X: width, Y: height}, Color: White}},
	}
}

// Orientation is the direction of a line cut.
type Orientation int

const (
	OrientationX Orientation = iota // Vertical cut line at x = offset
	OrientationY                    // Horizontal cut line at y = offset
)

func (o Orientation) String() string {
	if o == OrientationY {
		return "Y"
	}
	return "X"
}

// ParseOrientation maps a case-insensitive x/y token to an Orientation.
func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "x":
		return OrientationX, nil
	case "y":
		return OrientationY, nil
	default:
		return OrientationX, fmt.Errorf("unknown orientation %q", s)
	}
}
