package arbor

import "errors"

var (
	// ErrInvalidConfig signals an invalid tree configuration.
	ErrInvalidConfig = errors.New("arbor: invalid configuration")
	// ErrIndexOutOfRange signals a child ordinal outside [0, childCount).
	ErrIndexOutOfRange = errors.New("arbor: index out of range")
	// ErrInvalidReference signals a node reference that is nil or does not
	// belong to the tree it was handed to.
	ErrInvalidReference = errors.New("arbor: invalid node reference")
)
