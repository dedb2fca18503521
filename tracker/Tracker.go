// Package tracker accumulates per-episode training statistics
package tracker

// Statistics holds one entry per naturally completed episode: the
// episodic return, the game score, and the episode length in steps.
// The three slices always have equal length.
type Statistics struct {
	Rewards []float64 `json:"rewards"`
	Scores  []int     `json:"scores"`
	Lengths []int     `json:"lengths"`
}

// New returns empty Statistics. The slices are non-nil so that an
// empty run serializes as empty arrays rather than null.
func New() *Statistics {
	return &Statistics{
		Rewards: []float64{},
		Scores:  []int{},
		Lengths: []int{},
	}
}

// Append records one completed episode
func (s *Statistics) Append(reward float64, score, length int) {
	s.Rewards = append(s.Rewards, reward)
	s.Scores = append(s.Scores, score)
	s.Lengths = append(s.Lengths, length)
}

// Episodes returns the number of completed episodes recorded
func (s *Statistics) Episodes() int {
	return len(s.Rewards)
}

// Clear discards all recorded episodes
func (s *Statistics) Clear() {
	s.Rewards = s.Rewards[:0]
	s.Scores = s.Scores[:0]
	s.Lengths = s.Lengths[:0]
}

// Copy returns a deep copy of the Statistics
func (s *Statistics) Copy() Statistics {
	out := Statistics{
		Rewards: make([]float64, len(s.Rewards)),
		Scores:  make([]int, len(s.Scores)),
		Lengths: make([]int, len(s.Lengths)),
	}
	copy(out.Rewards, s.Rewards)
	copy(out.Scores, s.Scores)
	copy(out.Lengths, s.Lengths)

	return out
}
