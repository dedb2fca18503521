// Package flappy implements a headless Flappy Bird simulation as an
// environment with two discrete actions.
//
// The bird is a point mass under constant gravity. Action 1 sets the
// bird's vertical velocity to a fixed upward impulse; action 0 does
// nothing. Pipes scroll left at constant speed, each with a gap whose
// vertical center is drawn from a Starter. The episode ends when the
// bird overlaps a pipe body, the ground, or the ceiling.
//
// All coordinates are in screen pixels with y growing downward, matching
// the rendered version of the game. Rendering itself is out of scope:
// this package only advances the simulation and reports observations.
package flappy

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	env "github.com/kenanking/flappyrl/environment"
	ts "github.com/kenanking/flappyrl/timestep"
	"github.com/kenanking/flappyrl/utils/floatutils"
)

const (
	// Screen geometry
	ScreenWidth  float64 = 288
	ScreenHeight float64 = 512
	GroundY      float64 = 400 // Top of the ground strip

	// Bird geometry and kinematics
	BirdX          float64 = 60 // Horizontal position, fixed
	BirdHalfWidth  float64 = 17
	BirdHalfHeight float64 = 12
	Gravity        float64 = 0.4 // Per tick per tick
	FlapImpulse    float64 = -7  // Velocity set on flap, upward
	MaxFallSpeed   float64 = 10

	// Pipe geometry
	PipeWidth   float64 = 52
	PipeSpeed   float64 = 2 // Pixels scrolled per tick
	PipeSpacing float64 = 180
	GapHeight   float64 = 120

	// Bounds on the vertical center of a pipe gap
	MinGapCenter float64 = 100
	MaxGapCenter float64 = 300

	// Feature normalization divisor for vertical velocity
	velocityScale float64 = 10

	// Discrete actions
	ActionNoOp int = 0
	ActionFlap int = 1

	NumActions int = 2

	// Number of features in an observation vector
	ObservationSize int = 4
)

// pipe is a single obstacle: a full-height column at x with a passable
// gap centered at gapCenter
type pipe struct {
	x         float64
	gapCenter float64
	scored    bool
}

// Env implements the simulation as an environment.Environment. The
// observation vector contains, in order: the bird's vertical velocity,
// the horizontal distance to the trailing edge of the next pipe, the
// bird's vertical offset from that pipe's gap center (positive when the
// bird is below the center), and the bird's vertical position. Each
// feature is independently normalized to a small dimensionless range.
type Env struct {
	task    env.Task
	starter env.Starter

	birdY   float64
	birdVel float64
	pipes   []pipe
	score   int

	lastStep ts.TimeStep
}

// New constructs a new flappy environment. The starter samples the
// vertical center of each spawned pipe gap and should produce values in
// [MinGapCenter, MaxGapCenter]. The returned TimeStep is the first of
// the initial episode.
func New(task env.Task, starter env.Starter) (*Env, ts.TimeStep) {
	e := &Env{task: task, starter: starter}
	first := e.Reset()

	return e, first
}

// Reset reinitializes the simulation to its start condition: bird at
// mid-screen with zero velocity, a single pipe entering from the right
// edge, and score zero
func (e *Env) Reset() ts.TimeStep {
	e.birdY = ScreenHeight / 2
	e.birdVel = 0
	e.score = 0
	e.pipes = e.pipes[:0]
	e.spawnPipe()

	first := ts.New(ts.First, 0, e.observe(), 0, false)
	e.lastStep = first

	return first
}

// Step advances the simulation by exactly one tick under the given
// action and returns the resulting timestep
func (e *Env) Step(action int) (ts.TimeStep, error) {
	if action < 0 || action >= NumActions {
		return ts.TimeStep{}, fmt.Errorf("step: illegal action %v, want 0 or 1",
			action)
	}

	// Bird kinematics: flap overrides the current velocity, then
	// gravity integrates as usual
	if action == ActionFlap {
		e.birdVel = FlapImpulse
	}
	e.birdVel = floatutils.Clip(e.birdVel+Gravity, FlapImpulse, MaxFallSpeed)
	e.birdY += e.birdVel

	// Scroll pipes and spawn or retire them at the screen edges
	for i := range e.pipes {
		e.pipes[i].x -= PipeSpeed
	}
	if last := e.pipes[len(e.pipes)-1]; last.x <= ScreenWidth-PipeSpacing {
		e.spawnPipe()
	}
	if e.pipes[0].x+PipeWidth < 0 {
		e.pipes = e.pipes[1:]
	}

	// A pipe scores once its trailing edge passes the bird
	scored := false
	for i := range e.pipes {
		if !e.pipes[i].scored && e.pipes[i].x+PipeWidth < BirdX {
			e.pipes[i].scored = true
			e.score++
			scored = true
		}
	}

	terminal := e.collided()

	obs := e.observe()
	reward := e.task.Reward(action, obs, scored, terminal)

	stepType := ts.Mid
	if terminal {
		stepType = ts.Last
	}
	next := ts.New(stepType, reward, obs, e.lastStep.Number+1, scored)
	e.lastStep = next

	return next, nil
}

// ObservationSpec returns the observation specification of the
// environment
func (e *Env) ObservationSpec() env.Spec {
	shape := mat.NewVecDense(ObservationSize, nil)

	lower := []float64{FlapImpulse / velocityScale, 0, -1, 0}
	lowerBound := mat.NewVecDense(ObservationSize, lower)

	upper := []float64{MaxFallSpeed / velocityScale, 1, 1, 1}
	upperBound := mat.NewVecDense(ObservationSize, upper)

	return env.NewSpec(shape, env.Observation, lowerBound, upperBound)
}

// NumActions returns the number of discrete actions
func (e *Env) NumActions() int {
	return NumActions
}

// Score returns the number of pipes passed since the last Reset
func (e *Env) Score() int {
	return e.score
}

// spawnPipe appends a new pipe at the right screen edge with a gap
// center drawn from the starter
func (e *Env) spawnPipe() {
	center := e.starter.Start().AtVec(0)
	center = floatutils.Clip(center, MinGapCenter, MaxGapCenter)

	e.pipes = append(e.pipes, pipe{x: ScreenWidth, gapCenter: center})
}

// nextPipe returns the nearest pipe whose trailing edge has not yet
// passed the bird
func (e *Env) nextPipe() pipe {
	for _, p := range e.pipes {
		if p.x+PipeWidth >= BirdX {
			return p
		}
	}

	// Unreachable with PipeSpacing < ScreenWidth, but fall back to the
	// last pipe rather than panicking on a degenerate configuration
	return e.pipes[len(e.pipes)-1]
}

// collided reports whether the bird currently overlaps the ground, the
// ceiling, or a pipe body. Overlap tests are axis-aligned rectangles.
func (e *Env) collided() bool {
	if e.birdY+BirdHalfHeight >= GroundY {
		return true
	}
	if e.birdY-BirdHalfHeight <= 0 {
		return true
	}

	for _, p := range e.pipes {
		overlapsX := BirdX+BirdHalfWidth > p.x && BirdX-BirdHalfWidth < p.x+PipeWidth
		if !overlapsX {
			continue
		}

		gapTop := p.gapCenter - GapHeight/2
		gapBottom := p.gapCenter + GapHeight/2
		if e.birdY-BirdHalfHeight < gapTop || e.birdY+BirdHalfHeight > gapBottom {
			return true
		}
	}

	return false
}

// observe builds the normalized feature vector for the current state
func (e *Env) observe() *mat.VecDense {
	next := e.nextPipe()

	features := []float64{
		e.birdVel / velocityScale,
		(next.x + PipeWidth - BirdX) / ScreenWidth,
		(e.birdY - next.gapCenter) / ScreenHeight,
		e.birdY / ScreenHeight,
	}

	return mat.NewVecDense(ObservationSize, features)
}
