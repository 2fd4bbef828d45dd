package model

import "fmt"

// MoveType identifies one of the five canvas operations.
type MoveType int

const (
	MoveLineCut MoveType = iota
	MovePointCut
	MoveColor
	MoveSwap
	MoveMerge
)

// BaseCost returns the cost weight of the move before area scaling.
func (m MoveType) BaseCost() int {
	switch m {
	case MoveLineCut:
		return 7
	case MovePointCut:
		return 10
	case MoveColor:
		return 5
	case MoveSwap:
		return 3
	default:
		return 1
	}
}

// Keyword returns the instruction keyword used in program text.
func (m MoveType) Keyword() string {
	switch m {
	case MoveLineCut, MovePointCut:
		return "cut"
	case MoveColor:
		return "color"
	case MoveSwap:
		return "swap"
	default:
		return "merge"
	}
}

func (m MoveType) String() string {
	switch m {
	case MoveLineCut:
		return "line cut"
	case MovePointCut:
		return "point cut"
	case MoveColor:
		return "color"
	case MoveSwap:
		return "swap"
	default:
		return "merge"
	}
}

// Command is one canvas-editing instruction. The set of implementations is
// closed: LineCutMove, PointCutMove, ColorMove, SwapMove and MergeMove.
type Command interface {
	Type() MoveType
	String() string
	command()
}

// Program is an ordered instruction sequence.
type Program []Command

// Clone returns a shallow copy; commands are immutable values.
func (p Program) Clone() Program {
	out := make(Program, len(p))
	copy(out, p)
	return out
}

// Splice builds prefix + cmd + suffix without aliasing either input.
func Splice(prefix Program, cmd Command, suffix Program) Program {
	out := make(Program, 0, len(prefix)+1+len(suffix))
	out = append(out, prefix...)
	out = append(out, cmd)
	return append(out, suffix...)
}

type LineCutMove struct {
	BlockID     string
	Orientation Orientation
	Offset      int
}

func (LineCutMove) Type() MoveType { return MoveLineCut }
func (LineCutMove) command()       {}

func (m LineCutMove) String() string {
	return fmt.Sprintf("cut [%s] [%s] [%d]", m.BlockID, m.Orientation, m.Offset)
}

type PointCutMove struct {
	BlockID string
	Point   Point
}

func (PointCutMove) Type() MoveType { return MovePointCut }
func (PointCutMove) command()       {}

func (m PointCutMove) String() string {
	return fmt.Sprintf("cut [%s] %v", m.BlockID, m.Point)
}

type ColorMove struct {
	BlockID string
	Color   Color
}

func (ColorMove) Type() MoveType { return MoveColor }
func (ColorMove) command()       {}

func (m ColorMove) String() string {
	return fmt.Sprintf("color [%s] %v", m.BlockID, m.Color)
}

type SwapMove struct {
	Block1 string
	Block2 string
}

func (SwapMove) Type() MoveType { return MoveSwap }
func (SwapMove) command()       {}

func (m SwapMove) String() string {
	return fmt.Sprintf("swap [%s] [%s]", m.Block1, m.Block2)
}

type MergeMove struct {
	Block1 string
	Block2 string
}

func (MergeMove) Type() MoveType { return MoveMerge }
func (MergeMove) command()       {}

func (m MergeMove) String() string {
	return fmt.Sprintf("merge [%s] [%s]", m.Block1, m.Block2)
}
