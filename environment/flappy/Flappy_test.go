package flappy

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	ts "github.com/kenanking/flappyrl/timestep"
)

// fixedStarter always places the pipe gap at the same vertical center
type fixedStarter struct {
	center float64
}

func (f fixedStarter) Start() *mat.VecDense {
	return mat.NewVecDense(1, []float64{f.center})
}

func TestResetInitialState(t *testing.T) {
	e, first := New(NewShapedTask(), fixedStarter{center: 200})

	require.True(t, first.First())
	require.Equal(t, 0, first.Number)
	require.Equal(t, 0.0, first.Reward)
	require.Equal(t, 0, e.Score())

	obs := first.Observation
	require.Equal(t, ObservationSize, obs.Len())
	require.Equal(t, 0.0, obs.AtVec(0))
	require.Equal(t, 0.5, obs.AtVec(3))
}

func TestStepRejectsIllegalAction(t *testing.T) {
	e, _ := New(NewShapedTask(), fixedStarter{center: 200})

	_, err := e.Step(2)
	require.Error(t, err)

	_, err = e.Step(-1)
	require.Error(t, err)
}

func TestFlapSetsVelocity(t *testing.T) {
	e, _ := New(NewShapedTask(), fixedStarter{center: 200})

	step, err := e.Step(ActionFlap)
	require.NoError(t, err)

	// Flap overrides velocity, then one tick of gravity integrates
	want := (FlapImpulse + Gravity) / velocityScale
	require.InDelta(t, want, step.Observation.AtVec(0), 1e-12)
}

func TestFallToGroundTerminates(t *testing.T) {
	e, _ := New(NewShapedTask(), fixedStarter{center: 200})

	var last ts.TimeStep
	for i := 0; i < 100; i++ {
		step, err := e.Step(ActionNoOp)
		require.NoError(t, err)
		last = step
		if step.Last() {
			break
		}
	}

	require.True(t, last.Last(), "bird should hit the ground within 100 ticks")

	// Idling while below the gap center attributes the death to the
	// action, so the terminal reward carries the blame penalty too
	require.Equal(t, RewardDeath+BlamePenalty, last.Reward)

	// Reset gives a fresh episode
	first := e.Reset()
	require.True(t, first.First())
	require.Equal(t, 0, e.Score())
}

func TestCeilingTerminates(t *testing.T) {
	e, _ := New(NewShapedTask(), fixedStarter{center: 200})

	terminated := false
	for i := 0; i < 200; i++ {
		step, err := e.Step(ActionFlap)
		require.NoError(t, err)
		if step.Last() {
			terminated = true
			break
		}
	}

	require.True(t, terminated, "constant flapping should reach the ceiling")
}

// TestPassPipeScores drives a hover controller that flaps whenever the
// bird sinks below the gap center, which keeps it inside the gap long
// enough to pass the first pipe
func TestPassPipeScores(t *testing.T) {
	const center = 200.0
	e, _ := New(NewShapedTask(), fixedStarter{center: center})

	scored := false
	for i := 0; i < 300; i++ {
		action := ActionNoOp
		if e.birdY > center+30 {
			action = ActionFlap
		}

		step, err := e.Step(action)
		require.NoError(t, err)
		require.False(t, step.Last(),
			"controller crashed on tick %d before scoring", i)

		if step.Scored {
			require.Equal(t, RewardAlive+RewardScore, step.Reward)
			require.Equal(t, 1, e.Score())
			scored = true
			break
		}
	}

	require.True(t, scored, "first pipe should be passed within 300 ticks")
}

func TestShapedTaskRewards(t *testing.T) {
	task := NewShapedTask()

	obsAt := func(gapOffset float64) *mat.VecDense {
		return mat.NewVecDense(ObservationSize,
			[]float64{0, 0.5, gapOffset, 0.5})
	}

	// Terminal with blame: flapped while above the center, or idled
	// while below it
	require.Equal(t, RewardDeath+BlamePenalty,
		task.Reward(ActionFlap, obsAt(-0.2), false, true))
	require.Equal(t, RewardDeath+BlamePenalty,
		task.Reward(ActionNoOp, obsAt(0.2), false, true))

	// Terminal without blame
	require.Equal(t, RewardDeath,
		task.Reward(ActionFlap, obsAt(0.2), false, true))
	require.Equal(t, RewardDeath,
		task.Reward(ActionNoOp, obsAt(-0.2), false, true))

	// Scoring step
	require.Equal(t, RewardAlive+RewardScore,
		task.Reward(ActionNoOp, obsAt(0.1), true, false))

	// Ordinary live step pays the gap-offset shaping penalty
	require.InDelta(t, RewardAlive-GapPenaltyCoef*0.25,
		task.Reward(ActionNoOp, obsAt(0.25), false, false), 1e-12)
	require.InDelta(t, RewardAlive-GapPenaltyCoef*0.25,
		task.Reward(ActionNoOp, obsAt(-0.25), false, false), 1e-12)
}

func TestObservationSpecBounds(t *testing.T) {
	e, _ := New(NewShapedTask(), fixedStarter{center: 200})

	spec := e.ObservationSpec()
	require.Equal(t, ObservationSize, spec.Shape.Len())
	for i := 0; i < ObservationSize; i++ {
		require.Less(t, spec.LowerBound.AtVec(i), spec.UpperBound.AtVec(i))
	}
}
