package tracker

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendAndClear(t *testing.T) {
	s := New()
	require.Equal(t, 0, s.Episodes())

	s.Append(12.5, 3, 400)
	s.Append(-9.9, 0, 27)

	require.Equal(t, 2, s.Episodes())
	require.Equal(t, []float64{12.5, -9.9}, s.Rewards)
	require.Equal(t, []int{3, 0}, s.Scores)
	require.Equal(t, []int{400, 27}, s.Lengths)

	s.Clear()
	require.Equal(t, 0, s.Episodes())
}

// Empty runs must serialize as empty arrays, not null: the persisted
// shape is consumed outside this module
func TestEmptyStatisticsMarshal(t *testing.T) {
	data, err := json.Marshal(New())
	require.NoError(t, err)
	require.JSONEq(t, `{"rewards":[],"scores":[],"lengths":[]}`, string(data))

	empty := New().Copy()
	data, err = json.Marshal(empty)
	require.NoError(t, err)
	require.JSONEq(t, `{"rewards":[],"scores":[],"lengths":[]}`, string(data))
}

func TestCopyIsIndependent(t *testing.T) {
	s := New()
	s.Append(1, 1, 1)

	c := s.Copy()
	s.Append(2, 2, 2)
	s.Rewards[0] = 99

	require.Equal(t, 1, c.Episodes())
	require.Equal(t, []float64{1}, c.Rewards)
}
