// Package environment outlines the interfaces needed to implement concrete
// environments with discrete actions
package environment

import (
	"gonum.org/v1/gonum/mat"

	"github.com/kenanking/flappyrl/timestep"
)

// Starter implements a distribution of starting states and samples starting
// states for environments
type Starter interface {
	Start() *mat.VecDense
}

// Task implements the reward scheme for taking actions in some
// environment. The reward for a step is computed from the action taken,
// the resulting observation, and whether the step scored or ended the
// episode.
type Task interface {
	Reward(action int, obs *mat.VecDense, scored, terminal bool) float64
}

// Environment implements a simulated environment with a fixed number of
// discrete actions enumerated from 0.
//
// Step advances the wrapped simulation by exactly one tick. The returned
// TimeStep carries the next observation and the reward for the tick; its
// Last() method reports terminal failure.
type Environment interface {
	Reset() timestep.TimeStep
	Step(action int) (timestep.TimeStep, error)
	ObservationSpec() Spec
	NumActions() int

	// Score returns the number of scoring events since the last Reset
	Score() int
}
