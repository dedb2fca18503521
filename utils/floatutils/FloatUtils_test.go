package floatutils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClip(t *testing.T) {
	require.Equal(t, 5.0, Clip(9.0, 0, 5))
	require.Equal(t, 0.0, Clip(-2.0, 0, 5))
	require.Equal(t, 3.5, Clip(3.5, 0, 5))
}

func TestMaxSlice(t *testing.T) {
	max, indices := MaxSlice([]float64{1, 7, 3})
	require.Equal(t, 7.0, max)
	require.Equal(t, []int{1}, indices)

	// Ties report every argmax index
	max, indices = MaxSlice([]float64{4, 2, 4})
	require.Equal(t, 4.0, max)
	require.Equal(t, []int{0, 2}, indices)

	max, indices = MaxSlice([]float64{-3})
	require.Equal(t, -3.0, max)
	require.Equal(t, []int{0}, indices)
}
