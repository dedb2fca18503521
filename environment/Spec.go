package environment

import "gonum.org/v1/gonum/mat"

// SpecType determines what kind of specification a Spec is. A Spec can
// specify the layout of an action or an observation
type SpecType int

const (
	Action SpecType = iota
	Observation
)

// Spec implements a specification, which tells the type, shape, and bounds
// of an action or observation.
//
// Observation bounds are nominal: features are normalized to a small
// dimensionless range but may exceed the bounds during abnormal states.
type Spec struct {
	Shape      *mat.VecDense
	Type       SpecType
	LowerBound *mat.VecDense
	UpperBound *mat.VecDense
}

// NewSpec constructs a new environment specification
func NewSpec(shape *mat.VecDense, t SpecType, lowerBound,
	upperBound *mat.VecDense) Spec {
	return Spec{shape, t, lowerBound, upperBound}
}
