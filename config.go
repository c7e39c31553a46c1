package arbor

import "fmt"

const (
	// DefaultMaxFanout is the child-count bound used by balancing passes.
	DefaultMaxFanout = 3
	// DefaultCheckInterval is the mutation stride between soft depth checks.
	DefaultCheckInterval = 10
	// DefaultSoftDepthFactor is the depth multiplier of the throttled check.
	DefaultSoftDepthFactor = 1.5
	// DefaultHardDepthFactor is the depth multiplier of the unconditional
	// backstop check.
	DefaultHardDepthFactor = 2.0
	// DefaultHardMinSize is the minimum tree size for the backstop check.
	DefaultHardMinSize = 10
)

// Config configures a tree's balancing policy. The zero Config is valid and
// selects the defaults, with automatic rebalancing switched off.
type Config struct {
	// MaxFanout bounds the number of subtrees per node after balancing.
	MaxFanout int
	// AutoRebalance lets every structural mutation run the depth checks.
	AutoRebalance bool
	// CheckInterval throttles the soft depth check to every n-th mutation.
	CheckInterval int
	// SoftDepthFactor triggers the throttled check when the tree depth
	// exceeds optimal depth times this factor.
	SoftDepthFactor float64
	// HardDepthFactor triggers an immediate rebalance, regardless of the
	// mutation counter, once the tree holds more than HardMinSize nodes.
	HardDepthFactor float64
	// HardMinSize is the minimum size for the backstop check.
	HardMinSize int
	// Feed, if non-nil, broadcasts reference invalidations caused by
	// rebalancing passes.
	Feed *Feed
}

func (cfg Config) normalized() Config {
	if cfg.MaxFanout == 0 {
		cfg.MaxFanout = DefaultMaxFanout
	}
	if cfg.CheckInterval == 0 {
		cfg.CheckInterval = DefaultCheckInterval
	}
	if cfg.SoftDepthFactor == 0 {
		cfg.SoftDepthFactor = DefaultSoftDepthFactor
	}
	if cfg.HardDepthFactor == 0 {
		cfg.HardDepthFactor = DefaultHardDepthFactor
	}
	if cfg.HardMinSize == 0 {
		cfg.HardMinSize = DefaultHardMinSize
	}
	return cfg
}

func (cfg Config) validate() error {
	cfg = cfg.normalized()
	if cfg.MaxFanout < 1 {
		return fmt.Errorf("%w: max fanout must be at least 1", ErrInvalidConfig)
	}
	if cfg.CheckInterval < 1 {
		return fmt.Errorf("%w: check interval must be at least 1", ErrInvalidConfig)
	}
	if cfg.SoftDepthFactor < 1 {
		return fmt.Errorf("%w: soft depth factor must be at least 1", ErrInvalidConfig)
	}
	if cfg.HardDepthFactor < 1 {
		return fmt.Errorf("%w: hard depth factor must be at least 1", ErrInvalidConfig)
	}
	if cfg.HardMinSize < 0 {
		return fmt.Errorf("%w: hard min size must not be negative", ErrInvalidConfig)
	}
	return nil
}
