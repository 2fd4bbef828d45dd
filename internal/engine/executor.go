package engine

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/piwi3910/blockpaint/internal/canvas"
	"github.com/piwi3910/blockpaint/internal/model"
)

// MaxCost is the total cost of a program that failed to execute. It compares
// worse than any real cost.
const MaxCost int64 = math.MaxInt64

// FailureKind classifies why an instruction could not be applied.
type FailureKind int

const (
	FailureOther FailureKind = iota
	FailureUnknownBlock
	FailureInvalidCut
	FailureIncompatibleSwap
	FailureIncompatibleMerge
	FailureMergeArea
)

func (k FailureKind) String() string {
	switch k {
	case FailureUnknownBlock:
		return "unknown block"
	case FailureInvalidCut:
		return "invalid cut"
	case FailureIncompatibleSwap:
		return "incompatible swap"
	case FailureIncompatibleMerge:
		return "incompatible merge"
	case FailureMergeArea:
		return "merge area mismatch"
	default:
		return "other"
	}
}

// classify maps a canvas error to its FailureKind.
func classify(err error) FailureKind {
	switch {
	case errors.Is(err, canvas.ErrUnknownBlock):
		return FailureUnknownBlock
	case errors.Is(err, canvas.ErrInvalidCut):
		return FailureInvalidCut
	case errors.Is(err, canvas.ErrIncompatibleSwap):
		return FailureIncompatibleSwap
	case errors.Is(err, canvas.ErrIncompatibleMerge):
		return FailureIncompatibleMerge
	case errors.Is(err, canvas.ErrMergeArea):
		return FailureMergeArea
	default:
		return FailureOther
	}
}

// Failure describes the first instruction of a program that failed.
type Failure struct {
	Index   int
	Command model.Command
	Kind    FailureKind
	Err     error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("instruction %d (%s): %v", f.Index, f.Command, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// Result is the outcome of executing one program.
type Result struct {
	Program       model.Program
	InitialCost   int64 // Baseline total the run is compared against
	ProgramCost   int64
	ImageDiffCost int64
	TotalCost     int64
	Failure       *Failure // nil on success
}

// Failed reports whether an instruction of the program could not be applied.
func (r Result) Failed() bool {
	return r.Failure != nil
}

// String renders the result as a comment line of the program format.
func (r Result) String() string {
	return fmt.Sprintf("# ExecutionResult{initialCost=%d, programCost=%d, imageDiffCost=%d, totalCost=%d}",
		r.InitialCost, r.ProgramCost, r.ImageDiffCost, r.TotalCost)
}

// Executor replays programs against a fixed starting canvas and target image.
// It is safe for concurrent use: every execution works on its own canvas copy.
type Executor struct {
	start  *canvas.Canvas
	target *image.NRGBA
}

// NewExecutor validates the starting state and checks that the target has the
// canvas dimensions.
func NewExecutor(target *image.NRGBA, state model.CanvasState) (*Executor, error) {
	start, err := canvas.FromState(state)
	if err != nil {
		return nil, fmt.Errorf("failed to load initial state: %w", err)
	}
	if target.Bounds().Dx() != start.Width() || target.Bounds().Dy() != start.Height() {
		return nil, fmt.Errorf("%w: target is %dx%d, canvas is %dx%d", canvas.ErrImageMismatch,
			target.Bounds().Dx(), target.Bounds().Dy(), start.Width(), start.Height())
	}
	return &Executor{start: start, target: target}, nil
}

// Target returns the target image.
func (e *Executor) Target() *image.NRGBA {
	return e.target
}

// Execute runs the program on a fresh copy of the starting canvas. A failing
// instruction yields MaxCost and a populated Failure; Execute never panics on
// bad programs.
func (e *Executor) Execute(prog model.Program, initialCost int64) Result {
	_, res := e.Replay(prog, initialCost)
	return res
}

// Replay is Execute that also returns the final canvas. On failure the
// canvas reflects every instruction before the failing one.
func (e *Executor) Replay(prog model.Program, initialCost int64) (*canvas.Canvas, Result) {
	c := e.start.Clone()
	res := Result{Program: prog, InitialCost: initialCost}

	for i, cmd := range prog {
		cost, err := c.Apply(cmd)
		if err != nil {
			res.ProgramCost = MaxCost
			res.TotalCost = MaxCost
			res.Failure = &Failure{Index: i, Command: cmd, Kind: classify(err), Err: err}
			return c, res
		}
		res.ProgramCost += cost
	}

	// Sizes were checked in NewExecutor.
	diff, _ := canvas.ImageDiff(c.Image(), e.target)
	res.ImageDiffCost = diff
	res.TotalCost = res.ProgramCost + diff
	return c, res
}
