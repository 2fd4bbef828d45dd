package canvas

import "errors"

// Failure kinds reported by canvas operations. Operations wrap them with
// context; use errors.Is to classify.
var (
	ErrUnknownBlock      = errors.New("unknown block")
	ErrInvalidCut        = errors.New("invalid cut")
	ErrIncompatibleSwap  = errors.New("blocks are not compatible for swap")
	ErrIncompatibleMerge = errors.New("blocks are not compatible for merge")
	ErrMergeArea         = errors.New("merged area does not match operands")
	ErrImageMismatch     = errors.New("images must have the same size")
	ErrInvalidState      = errors.New("invalid canvas state")
)
