package arena

import "errors"

// Errors returned by arena stores. Wrapped call sites add detail, so
// clients should test with errors.Is.
var (
	// ErrInvalidConfig flags an unusable store configuration.
	ErrInvalidConfig = errors.New("arena: invalid configuration")

	// ErrIndexOutOfRange flags a slot index which does not address a live
	// slot, either because it is outside the slot slice or because the
	// slot has been tombstoned by a removal.
	ErrIndexOutOfRange = errors.New("arena: slot index out of range")

	// ErrStaleReference flags a Ref minted before a renumbering pass, or
	// one whose slot has been removed since.
	ErrStaleReference = errors.New("arena: stale slot reference")
)
