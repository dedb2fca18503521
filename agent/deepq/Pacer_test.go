package deepq

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDelayPacerWaits(t *testing.T) {
	pace := DelayPacer(5 * time.Millisecond)

	start := time.Now()
	require.NoError(t, pace(context.Background()))
	require.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)
}

func TestDelayPacerHonorsCancellation(t *testing.T) {
	pace := DelayPacer(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := pace(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
