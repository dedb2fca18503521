package timestep

import "gonum.org/v1/gonum/mat"

// Transition records a single (S, A, R, S', done) experience tuple. A
// Transition is never mutated after construction; replay buffers copy
// the state vectors on insertion so that later environment steps cannot
// alias into stored experience.
type Transition struct {
	State     *mat.VecDense
	Action    int
	Reward    float64
	NextState *mat.VecDense
	Done      bool
}

// NewTransition packages the step that lead from t to next under action
// into a Transition
func NewTransition(t TimeStep, action int, next TimeStep) Transition {
	return Transition{
		State:     t.Observation,
		Action:    action,
		Reward:    next.Reward,
		NextState: next.Observation,
		Done:      next.Last(),
	}
}

// Copy returns a deep copy of the Transition
func (t Transition) Copy() Transition {
	state := mat.NewVecDense(t.State.Len(), nil)
	state.CopyVec(t.State)

	nextState := mat.NewVecDense(t.NextState.Len(), nil)
	nextState.CopyVec(t.NextState)

	return Transition{
		State:     state,
		Action:    t.Action,
		Reward:    t.Reward,
		NextState: nextState,
		Done:      t.Done,
	}
}
