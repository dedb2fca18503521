package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Model is a function approximator mapping state vectors to one value
// per discrete action.
//
// Predict and Update may be interleaved freely: Update fits the
// approximator toward the given targets with one optimization pass, and
// Predict reads the parameters produced by the most recent Update.
// Model is not safe for concurrent use; callers must serialize Update
// relative to Predict.
type Model interface {
	// Predict returns per-action value vectors for a batch of state
	// vectors packed row-major into states. The result is packed
	// row-major, numActions values per state.
	Predict(states []float64) ([]float64, error)

	// Update performs one optimization pass fitting the approximator's
	// outputs toward targets for the given states. Both slices are
	// packed row-major and must cover exactly one training batch.
	Update(states, targets []float64) error

	// Weights and SetWeights export and restore the approximator's
	// parameters as nested numeric arrays
	Weights() [][][]float64
	SetWeights([][][]float64) error

	// HiddenDim returns the hidden layer width
	HiddenDim() int

	// Dispose releases the underlying virtual machines. The Model must
	// not be used afterwards; safe to call once per instance.
	Dispose() error
}

// DoubleModel is a Model that additionally maintains a frozen target
// copy of the approximator, used to produce the max-future-value term
// of bootstrapped regression targets. The target copy only changes on
// SyncTarget, which decouples the value being updated from the value
// used to estimate its own future.
type DoubleModel interface {
	Model

	// PredictTarget is Predict evaluated on the frozen target copy
	PredictTarget(states []float64) ([]float64, error)

	// SyncTarget copies the live parameters into the target copy. The
	// copy is structurally independent: later Updates do not
	// retroactively affect the target.
	SyncTarget() error
}

// Config describes a value model
type Config struct {
	Features     int
	HiddenDim    int
	Actions      int
	BatchSize    int
	LearningRate float64

	// Doubled selects the variant: when true the model carries a
	// target copy and NewModel returns a DoubleModel
	Doubled bool
}

// Validate returns an error describing an invalid configuration
func (c Config) Validate() error {
	if c.Features < 1 {
		return fmt.Errorf("config: features must be positive, have %v",
			c.Features)
	}
	if c.HiddenDim < 1 {
		return fmt.Errorf("config: hidden dim must be positive, have %v",
			c.HiddenDim)
	}
	if c.Actions < 2 {
		return fmt.Errorf("config: need at least 2 actions, have %v",
			c.Actions)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("config: batch size must be positive, have %v",
			c.BatchSize)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("config: learning rate must be positive, have %v",
			c.LearningRate)
	}
	return nil
}

// valueModel implements Model. Mirroring the acting/learning split of
// the network stack it was adapted from, the model keeps two networks:
// a batch-1 policy network whose graph serves Predict, and a batch-N
// training network whose graph carries the regression loss and whose
// parameters the solver adapts. After every Update the freshly learned
// parameters are copied into the policy network.
type valueModel struct {
	cfg Config

	policy   *QNet
	policyVM G.VM

	train   *QNet
	trainVM G.VM
	targets *G.Node
	solver  G.Solver

	disposed bool
}

// doubleModel implements DoubleModel by extending valueModel with the
// frozen target network
type doubleModel struct {
	*valueModel

	target   *QNet
	targetVM G.VM
}

// NewModel creates a value model from the given configuration. The
// returned Model is the Doubled variant iff cfg.Doubled, in which case
// it satisfies DoubleModel and its target copy starts equal to the live
// parameters.
func NewModel(cfg Config) (Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	init := G.GlorotU(1.0)

	// Training network: regression loss over the full per-action value
	// vector. Targets for actions the regression should not push are
	// supplied equal to the network's own predictions, so their error
	// terms vanish.
	train, err := NewQNet(cfg.Features, cfg.HiddenDim, cfg.Actions,
		cfg.BatchSize, init)
	if err != nil {
		return nil, fmt.Errorf("newmodel: could not create training "+
			"network: %v", err)
	}

	gTrain := train.Graph()
	targets := G.NewMatrix(gTrain, tensor.Float64,
		G.WithShape(cfg.BatchSize, cfg.Actions),
		G.WithName("targets"),
		G.WithInit(G.Zeroes()),
	)

	losses := G.Must(G.Square(G.Must(G.Sub(train.Prediction(), targets))))
	cost := G.Must(G.Mean(losses))

	if _, err := G.Grad(cost, train.Learnables()...); err != nil {
		return nil, fmt.Errorf("newmodel: could not compute gradient: %v", err)
	}

	trainVM := G.NewTapeMachine(gTrain,
		G.BindDualValues(train.Learnables()...))

	solver := G.NewAdamSolver(
		G.WithLearnRate(cfg.LearningRate),
		G.WithBatchSize(float64(cfg.BatchSize)),
	)

	// Policy network: batch-1 copy of the training network used for
	// action-value prediction
	policy, err := NewQNet(cfg.Features, cfg.HiddenDim, cfg.Actions, 1, init)
	if err != nil {
		trainVM.Close()
		return nil, fmt.Errorf("newmodel: could not create policy "+
			"network: %v", err)
	}
	if err := policy.Set(train); err != nil {
		trainVM.Close()
		return nil, fmt.Errorf("newmodel: could not initialize policy "+
			"network: %v", err)
	}
	policyVM := G.NewTapeMachine(policy.Graph())

	vm := &valueModel{
		cfg:      cfg,
		policy:   policy,
		policyVM: policyVM,
		train:    train,
		trainVM:  trainVM,
		targets:  targets,
		solver:   solver,
	}

	if !cfg.Doubled {
		return vm, nil
	}

	target, err := NewQNet(cfg.Features, cfg.HiddenDim, cfg.Actions, 1, init)
	if err != nil {
		vm.Dispose()
		return nil, fmt.Errorf("newmodel: could not create target "+
			"network: %v", err)
	}
	if err := target.Set(train); err != nil {
		vm.Dispose()
		return nil, fmt.Errorf("newmodel: could not initialize target "+
			"network: %v", err)
	}

	return &doubleModel{
		valueModel: vm,
		target:     target,
		targetVM:   G.NewTapeMachine(target.Graph()),
	}, nil
}

// predictWith runs a batch-1 network once per packed state vector
func (m *valueModel) predictWith(net *QNet, vm G.VM,
	states []float64) ([]float64, error) {
	features := m.cfg.Features
	if len(states) == 0 || len(states)%features != 0 {
		return nil, fmt.Errorf("predict: states length %v is not a "+
			"positive multiple of %v features", len(states), features)
	}

	n := len(states) / features
	out := make([]float64, 0, n*m.cfg.Actions)

	for i := 0; i < n; i++ {
		state := make([]float64, features)
		copy(state, states[i*features:(i+1)*features])

		if err := net.SetInput(state); err != nil {
			return nil, fmt.Errorf("predict: %v", err)
		}
		if err := vm.RunAll(); err != nil {
			return nil, fmt.Errorf("predict: could not run graph: %v", err)
		}

		out = append(out, net.Output()...)
		vm.Reset()
	}

	return out, nil
}

// Predict implements Model
func (m *valueModel) Predict(states []float64) ([]float64, error) {
	return m.predictWith(m.policy, m.policyVM, states)
}

// Update implements Model
func (m *valueModel) Update(states, targets []float64) error {
	wantStates := m.cfg.BatchSize * m.cfg.Features
	if len(states) != wantStates {
		return fmt.Errorf("update: invalid states length\n\twant(%v)"+
			"\n\thave(%v)", wantStates, len(states))
	}
	wantTargets := m.cfg.BatchSize * m.cfg.Actions
	if len(targets) != wantTargets {
		return fmt.Errorf("update: invalid targets length\n\twant(%v)"+
			"\n\thave(%v)", wantTargets, len(targets))
	}

	if err := m.train.SetInput(states); err != nil {
		return fmt.Errorf("update: %v", err)
	}

	targetTensor := tensor.New(
		tensor.WithBacking(targets),
		tensor.WithShape(m.cfg.BatchSize, m.cfg.Actions),
	)
	if err := G.Let(m.targets, targetTensor); err != nil {
		return fmt.Errorf("update: could not set targets: %v", err)
	}

	if err := m.trainVM.RunAll(); err != nil {
		return fmt.Errorf("update: could not run training graph: %v", err)
	}
	if err := m.solver.Step(m.train.Model()); err != nil {
		return fmt.Errorf("update: solver step failed: %v", err)
	}
	m.trainVM.Reset()

	// Publish the newly learned parameters to the acting network
	if err := m.policy.Set(m.train); err != nil {
		return fmt.Errorf("update: could not refresh policy network: %v", err)
	}

	return nil
}

// Weights implements Model: parameters are exported from the training
// network, which holds the canonical copy
func (m *valueModel) Weights() [][][]float64 {
	return m.train.Weights()
}

// SetWeights implements Model. The input is validated before any live
// parameter changes.
func (m *valueModel) SetWeights(weights [][][]float64) error {
	if err := m.train.SetWeights(weights); err != nil {
		return err
	}
	return m.policy.Set(m.train)
}

// HiddenDim implements Model
func (m *valueModel) HiddenDim() int {
	return m.cfg.HiddenDim
}

// Dispose implements Model
func (m *valueModel) Dispose() error {
	if m.disposed {
		return nil
	}
	m.disposed = true

	if err := m.policyVM.Close(); err != nil {
		return fmt.Errorf("dispose: could not close policy vm: %v", err)
	}
	if err := m.trainVM.Close(); err != nil {
		return fmt.Errorf("dispose: could not close training vm: %v", err)
	}
	return nil
}

// PredictTarget implements DoubleModel
func (d *doubleModel) PredictTarget(states []float64) ([]float64, error) {
	return d.predictWith(d.target, d.targetVM, states)
}

// SyncTarget implements DoubleModel
func (d *doubleModel) SyncTarget() error {
	return d.target.Set(d.train)
}

// SetWeights restores the live parameters and hard-syncs the target
// copy to them
func (d *doubleModel) SetWeights(weights [][][]float64) error {
	if err := d.valueModel.SetWeights(weights); err != nil {
		return err
	}
	return d.SyncTarget()
}

// Dispose implements Model
func (d *doubleModel) Dispose() error {
	alreadyDisposed := d.valueModel.disposed

	if err := d.valueModel.Dispose(); err != nil {
		return err
	}
	if alreadyDisposed {
		return nil
	}

	if err := d.targetVM.Close(); err != nil {
		return fmt.Errorf("dispose: could not close target vm: %v", err)
	}
	return nil
}
