package network

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testConfig(doubled bool) Config {
	return Config{
		Features:     4,
		HiddenDim:    8,
		Actions:      2,
		BatchSize:    3,
		LearningRate: 0.01,
		Doubled:      doubled,
	}
}

func TestConfigValidate(t *testing.T) {
	base := testConfig(false)
	require.NoError(t, base.Validate())

	bad := base
	bad.Features = 0
	require.Error(t, bad.Validate())

	bad = base
	bad.HiddenDim = 0
	require.Error(t, bad.Validate())

	bad = base
	bad.Actions = 1
	require.Error(t, bad.Validate())

	bad = base
	bad.BatchSize = 0
	require.Error(t, bad.Validate())

	bad = base
	bad.LearningRate = 0
	require.Error(t, bad.Validate())
}

func TestPredictShape(t *testing.T) {
	cfg := testConfig(false)
	m, err := NewModel(cfg)
	require.NoError(t, err)
	defer m.Dispose()

	// One state
	out, err := m.Predict([]float64{0.1, 0.2, 0.3, 0.4})
	require.NoError(t, err)
	require.Len(t, out, cfg.Actions)

	// Several states packed row-major
	out, err = m.Predict(make([]float64, 5*cfg.Features))
	require.NoError(t, err)
	require.Len(t, out, 5*cfg.Actions)

	// Ragged input
	_, err = m.Predict(make([]float64, cfg.Features+1))
	require.Error(t, err)

	_, err = m.Predict(nil)
	require.Error(t, err)
}

func TestPredictDeterministic(t *testing.T) {
	m, err := NewModel(testConfig(false))
	require.NoError(t, err)
	defer m.Dispose()

	state := []float64{0.5, -0.2, 0.7, 0.1}

	first, err := m.Predict(state)
	require.NoError(t, err)
	second, err := m.Predict(state)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestUpdateMovesPredictions(t *testing.T) {
	cfg := testConfig(false)
	m, err := NewModel(cfg)
	require.NoError(t, err)
	defer m.Dispose()

	states := []float64{
		0.1, 0.2, 0.3, 0.4,
		-0.1, 0.0, 0.1, 0.2,
		0.5, 0.5, 0.5, 0.5,
	}
	targets := []float64{
		1, -1,
		1, -1,
		1, -1,
	}

	mse := func() float64 {
		pred, err := m.Predict(states)
		require.NoError(t, err)

		var sum float64
		for i := range pred {
			d := pred[i] - targets[i]
			sum += d * d
		}
		return sum / float64(len(pred))
	}

	before := mse()
	for i := 0; i < 200; i++ {
		require.NoError(t, m.Update(states, targets))
	}
	after := mse()

	require.Less(t, after, before,
		"repeated updates toward fixed targets should reduce the error")
}

func TestUpdateRejectsBadLengths(t *testing.T) {
	cfg := testConfig(false)
	m, err := NewModel(cfg)
	require.NoError(t, err)
	defer m.Dispose()

	states := make([]float64, cfg.BatchSize*cfg.Features)
	targets := make([]float64, cfg.BatchSize*cfg.Actions)

	require.Error(t, m.Update(states[:len(states)-1], targets))
	require.Error(t, m.Update(states, targets[:len(targets)-1]))
	require.NoError(t, m.Update(states, targets))
}

func TestWeightsRoundTrip(t *testing.T) {
	cfg := testConfig(false)

	a, err := NewModel(cfg)
	require.NoError(t, err)
	defer a.Dispose()

	b, err := NewModel(cfg)
	require.NoError(t, err)
	defer b.Dispose()

	state := []float64{0.3, -0.4, 0.2, 0.9}

	// Independently initialized models disagree
	outA, err := a.Predict(state)
	require.NoError(t, err)
	outB, err := b.Predict(state)
	require.NoError(t, err)
	require.NotEqual(t, outA, outB)

	// Transplanting weights makes them agree
	require.NoError(t, b.SetWeights(a.Weights()))
	outB, err = b.Predict(state)
	require.NoError(t, err)
	require.Equal(t, outA, outB)
}

func TestSetWeightsRejectsWithoutMutating(t *testing.T) {
	m, err := NewModel(testConfig(false))
	require.NoError(t, err)
	defer m.Dispose()

	state := []float64{0.1, 0.1, 0.1, 0.1}
	before, err := m.Predict(state)
	require.NoError(t, err)

	good := m.Weights()

	// Wrong number of learnables
	require.Error(t, m.SetWeights(good[:len(good)-1]))

	// Wrong row count in one learnable
	mangled := m.Weights()
	mangled[0] = mangled[0][:len(mangled[0])-1]
	require.Error(t, m.SetWeights(mangled))

	// Wrong column count in one row
	mangled = m.Weights()
	mangled[0][0] = mangled[0][0][:len(mangled[0][0])-1]
	require.Error(t, m.SetWeights(mangled))

	after, err := m.Predict(state)
	require.NoError(t, err)
	require.Equal(t, before, after,
		"rejected weights must leave the model unchanged")
}

func TestDoubleModelTargetFrozen(t *testing.T) {
	cfg := testConfig(true)

	m, err := NewModel(cfg)
	require.NoError(t, err)
	defer m.Dispose()

	d, ok := m.(DoubleModel)
	require.True(t, ok, "doubled config should produce a DoubleModel")

	state := []float64{0.2, 0.4, -0.1, 0.3}

	// Target copy starts equal to the live parameters
	live, err := d.Predict(state)
	require.NoError(t, err)
	frozen, err := d.PredictTarget(state)
	require.NoError(t, err)
	require.Equal(t, live, frozen)

	// Updates move the live parameters but not the target copy
	states := make([]float64, cfg.BatchSize*cfg.Features)
	targets := make([]float64, cfg.BatchSize*cfg.Actions)
	for i := range targets {
		targets[i] = 1
	}
	for i := 0; i < 20; i++ {
		require.NoError(t, d.Update(states, targets))
	}

	moved, err := d.Predict(state)
	require.NoError(t, err)
	require.NotEqual(t, frozen, moved)

	still, err := d.PredictTarget(state)
	require.NoError(t, err)
	require.Equal(t, frozen, still)

	// SyncTarget catches the copy up; syncing twice is idempotent
	require.NoError(t, d.SyncTarget())
	synced, err := d.PredictTarget(state)
	require.NoError(t, err)
	require.Equal(t, moved, synced)

	require.NoError(t, d.SyncTarget())
	again, err := d.PredictTarget(state)
	require.NoError(t, err)
	require.Equal(t, synced, again)
}

func TestDisposeIsIdempotent(t *testing.T) {
	for _, doubled := range []bool{false, true} {
		m, err := NewModel(testConfig(doubled))
		require.NoError(t, err)

		require.NoError(t, m.Dispose())
		require.NoError(t, m.Dispose())
	}
}
