package arena

import (
	"fmt"

	"github.com/npillmayer/arbor"
)

// Defaults for Config fields left at their zero value.
const (
	// DefaultRelayoutThreshold is the number of mutations after which a
	// store with AutoRelayout set checks its locality score.
	DefaultRelayoutThreshold = 100

	// DefaultLocalityFloor is the locality score below which a checked
	// store is re-laid out.
	DefaultLocalityFloor = 0.7
)

// Config bundles the tuning knobs of a Store. The zero value is valid
// and selects the defaults, with automatic re-layout switched off.
type Config struct {
	// RelayoutThreshold is the mutation count after which AutoRelayout
	// considers a re-layout. 0 selects DefaultRelayoutThreshold.
	RelayoutThreshold int

	// LocalityFloor is the score below which a considered re-layout
	// actually runs. 0 selects DefaultLocalityFloor.
	LocalityFloor float64

	// AutoRelayout lets mutations trigger lazy re-layouts. Re-layouts
	// renumber slots and invalidate outstanding Refs.
	AutoRelayout bool

	// Feed, if non-nil, receives an Invalidation whenever slot indices
	// are renumbered or dropped wholesale.
	Feed *arbor.Feed
}

// normalized returns a copy of c with zero fields replaced by defaults.
func (c Config) normalized() Config {
	if c.RelayoutThreshold == 0 {
		c.RelayoutThreshold = DefaultRelayoutThreshold
	}
	if c.LocalityFloor == 0 {
		c.LocalityFloor = DefaultLocalityFloor
	}
	return c
}

func (c Config) validate() error {
	if c.RelayoutThreshold < 0 {
		return fmt.Errorf("%w: re-layout threshold %d is negative", ErrInvalidConfig, c.RelayoutThreshold)
	}
	if c.LocalityFloor < 0 || c.LocalityFloor > 1 {
		return fmt.Errorf("%w: locality floor %g outside [0,1]", ErrInvalidConfig, c.LocalityFloor)
	}
	return nil
}
