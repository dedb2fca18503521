package deepq

import "fmt"

// Default hyperparameters
const (
	DefaultGamma            float64 = 0.99
	DefaultEpsilon          float64 = 0.3
	DefaultEpsilonDecay     float64 = 0.9995
	DefaultEpsilonMin       float64 = 0.01
	DefaultBatchSize        int     = 32
	DefaultMemoryMaxLen     int     = 10000
	DefaultTargetUpdateFreq int     = 10

	DefaultHiddenDim    int     = 64
	DefaultLearningRate float64 = 0.001
	DefaultMaxSteps     int     = 30000
)

// Config describes a training run. Fields are fixed once a Trainer is
// constructed; Reset restores run state but never alters the Config.
type Config struct {
	// Discount factor for bootstrapped targets
	Gamma float64

	// Exploration schedule: epsilon starts at Epsilon and is multiplied
	// by EpsilonDecay after every completed episode, never falling
	// below EpsilonMin
	Epsilon      float64
	EpsilonDecay float64
	EpsilonMin   float64

	// Batch size of each learning step, and the fixed capacity of the
	// replay memory
	BatchSize    int
	MemoryMaxLen int

	// Episodes between target network synchronizations. Only used by
	// the Doubled variant.
	TargetUpdateFreq int

	// Value network width and optimizer step size
	HiddenDim    int
	LearningRate float64

	// Doubled selects a value model with a frozen target copy for
	// computing bootstrapped targets
	Doubled bool

	// MaxSteps caps a single episode; an episode reaching the cap
	// completes naturally
	MaxSteps int

	// Seed fixes the action-sampling and replay-sampling streams
	Seed uint64
}

// NewConfig returns a Config populated with the documented defaults.
// The Doubled variant is on by default.
func NewConfig() Config {
	return Config{
		Gamma:            DefaultGamma,
		Epsilon:          DefaultEpsilon,
		EpsilonDecay:     DefaultEpsilonDecay,
		EpsilonMin:       DefaultEpsilonMin,
		BatchSize:        DefaultBatchSize,
		MemoryMaxLen:     DefaultMemoryMaxLen,
		TargetUpdateFreq: DefaultTargetUpdateFreq,
		HiddenDim:        DefaultHiddenDim,
		LearningRate:     DefaultLearningRate,
		Doubled:          true,
		MaxSteps:         DefaultMaxSteps,
	}
}

// Validate returns an error describing an invalid configuration
func (c Config) Validate() error {
	if c.Gamma < 0 || c.Gamma > 1 {
		return fmt.Errorf("config: gamma must be in [0, 1], have %v", c.Gamma)
	}
	if c.Epsilon < 0 || c.Epsilon > 1 {
		return fmt.Errorf("config: epsilon must be in [0, 1], have %v",
			c.Epsilon)
	}
	if c.EpsilonDecay <= 0 || c.EpsilonDecay > 1 {
		return fmt.Errorf("config: epsilon decay must be in (0, 1], have %v",
			c.EpsilonDecay)
	}
	if c.EpsilonMin < 0 || c.EpsilonMin > c.Epsilon {
		return fmt.Errorf("config: epsilon min must be in [0, %v], have %v",
			c.Epsilon, c.EpsilonMin)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("config: batch size must be positive, have %v",
			c.BatchSize)
	}
	if c.MemoryMaxLen < c.BatchSize {
		return fmt.Errorf("config: memory capacity (%v) must be at least "+
			"the batch size (%v)", c.MemoryMaxLen, c.BatchSize)
	}
	if c.TargetUpdateFreq < 1 {
		return fmt.Errorf("config: target update frequency must be "+
			"positive, have %v", c.TargetUpdateFreq)
	}
	if c.HiddenDim < 1 {
		return fmt.Errorf("config: hidden dim must be positive, have %v",
			c.HiddenDim)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("config: learning rate must be positive, have %v",
			c.LearningRate)
	}
	if c.MaxSteps < 1 {
		return fmt.Errorf("config: max steps must be positive, have %v",
			c.MaxSteps)
	}
	return nil
}
