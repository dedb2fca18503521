package flappy

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	// Reward scheme
	RewardAlive    float64 = 0.1
	RewardScore    float64 = 5.0
	RewardDeath    float64 = -10.0
	BlamePenalty   float64 = -5.0
	GapPenaltyCoef float64 = 0.01
)

// ShapedTask implements the reward scheme used to train the agent.
//
// Every live step earns RewardAlive. A step that passes a pipe earns
// RewardScore on top; any other live step pays a small penalty
// proportional to the bird's vertical offset from the gap center, which
// shapes the agent toward flying level with the gap. A terminal step
// earns RewardDeath, plus BlamePenalty when the failure is attributable
// to the action taken on that step: flapping while already above the
// gap center, or idling while below it.
type ShapedTask struct{}

// NewShapedTask returns the reward scheme used to train the agent
func NewShapedTask() ShapedTask {
	return ShapedTask{}
}

// Reward computes the reward for one tick. The obs parameter is the
// feature vector observed after the tick; its third feature is the
// normalized vertical offset from the gap center, positive when the
// bird is below it.
func (s ShapedTask) Reward(action int, obs *mat.VecDense, scored,
	terminal bool) float64 {
	gapOffset := obs.AtVec(2)

	if terminal {
		reward := RewardDeath

		flappedAboveCenter := action == ActionFlap && gapOffset < 0
		idledBelowCenter := action == ActionNoOp && gapOffset > 0
		if flappedAboveCenter || idledBelowCenter {
			reward += BlamePenalty
		}

		return reward
	}

	if scored {
		return RewardAlive + RewardScore
	}

	return RewardAlive - GapPenaltyCoef*math.Abs(gapOffset)
}
