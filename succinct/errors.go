package succinct

import "errors"

// Errors returned by the codec and the store. Call sites wrap them with
// detail; clients test with errors.Is.
var (
	// ErrInvalidConfig flags an unusable store configuration.
	ErrInvalidConfig = errors.New("succinct: invalid configuration")

	// ErrMalformedEncoding flags structure bits and payloads that do not
	// describe a single well-formed tree.
	ErrMalformedEncoding = errors.New("succinct: malformed encoding")

	// ErrIndexOutOfRange flags a node index or child ordinal outside the
	// store.
	ErrIndexOutOfRange = errors.New("succinct: index out of range")

	// ErrStaleReference flags a NodeView minted before a renumbering
	// pass.
	ErrStaleReference = errors.New("succinct: stale node view")
)
