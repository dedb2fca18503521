// Package deepq implements the deep Q-learning trainer that drives the
// flappy agent: epsilon-greedy rollout, experience replay, and
// periodic target-network synchronization.
package deepq

import (
	"context"
	"errors"
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	env "github.com/kenanking/flappyrl/environment"
	"github.com/kenanking/flappyrl/expreplay"
	"github.com/kenanking/flappyrl/network"
	"github.com/kenanking/flappyrl/timestep"
	"github.com/kenanking/flappyrl/tracker"
	"github.com/kenanking/flappyrl/utils/floatutils"
)

// Probability that the random branch of epsilon-greedy selection
// chooses the no-op action. Sampling uniformly would flap half the
// time and pin random flight to the ceiling.
const noOpBias float64 = 0.75

// ErrRunning is returned by Train when a rollout is already active
var ErrRunning = errors.New("training already running")

// Status is the Trainer's position in its lifecycle
type Status int

const (
	// Idle: constructed or reset, no episodes run yet
	Idle Status = iota

	// Running: a Train call is actively rolling out episodes
	Running

	// Paused: a Train call was halted mid-episode; the interrupted
	// episode resumes on the next Train call
	Paused

	// Completed: the last Train call ran all requested episodes to
	// natural termination
	Completed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Running:
		return "Running"
	case Paused:
		return "Paused"
	case Completed:
		return "Completed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// EpisodeState is the snapshot of an episode interrupted between two
// simulation ticks. At most one EpisodeState is live at a time; it is
// consumed when the episode resumes and discarded by Reset. A live
// EpisodeState implies the Trainer is Paused.
type EpisodeState struct {
	State       *mat.VecDense
	Done        bool
	TotalReward float64
	Steps       int
}

// Trainer orchestrates action selection, episode rollout, memory
// insertion, batch learning, target synchronization, and epsilon
// annealing for one environment and one value model.
//
// A Trainer is single-threaded: exactly one rollout may be active at a
// time, and all mutation of the replay memory and model parameters
// happens from the rollout loop.
type Trainer struct {
	cfg     Config
	env     env.Environment
	model   network.Model
	doubled network.DoubleModel // non-nil iff cfg.Doubled
	memory  *expreplay.Memory
	rng     *rand.Rand

	notifier Notifier
	pace     PaceFunc

	status     Status
	epsilon    float64
	episode    int
	totalSteps int
	pending    *EpisodeState
	stats      *tracker.Statistics
}

// Option configures a Trainer beyond its hyperparameters
type Option func(*Trainer)

// WithNotifier registers a Notifier receiving per-episode events
func WithNotifier(n Notifier) Option {
	return func(t *Trainer) { t.notifier = n }
}

// WithPacer registers a scheduling hook awaited between ticks
func WithPacer(p PaceFunc) Option {
	return func(t *Trainer) { t.pace = p }
}

// New creates a Trainer for the given environment. The environment
// must expose exactly two actions: 0 for no-op and 1 for the single
// active action.
func New(e env.Environment, cfg Config, opts ...Option) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if e.NumActions() != 2 {
		return nil, fmt.Errorf("new: environment must have exactly 2 "+
			"actions, have %v", e.NumActions())
	}

	model, err := network.NewModel(network.Config{
		Features:     e.ObservationSpec().Shape.Len(),
		HiddenDim:    cfg.HiddenDim,
		Actions:      e.NumActions(),
		BatchSize:    cfg.BatchSize,
		LearningRate: cfg.LearningRate,
		Doubled:      cfg.Doubled,
	})
	if err != nil {
		return nil, fmt.Errorf("new: could not create value model: %v", err)
	}

	memory, err := expreplay.New(cfg.MemoryMaxLen, cfg.Seed)
	if err != nil {
		model.Dispose()
		return nil, fmt.Errorf("new: could not create replay memory: %v", err)
	}

	t := &Trainer{
		cfg:     cfg,
		env:     e,
		model:   model,
		memory:  memory,
		rng:     rand.New(rand.NewSource(cfg.Seed)),
		epsilon: cfg.Epsilon,
		stats:   tracker.New(),
	}
	if cfg.Doubled {
		// NewModel returns the Doubled variant iff cfg.Doubled
		t.doubled = model.(network.DoubleModel)
	}

	for _, opt := range opts {
		opt(t)
	}

	return t, nil
}

// Train runs exactly episodes iterations of the episode loop, where one
// iteration may be the resumption of a previously paused episode.
//
// Cancelling ctx halts training cooperatively at the next tick
// boundary: the in-progress episode is snapshotted, the Trainer enters
// Paused, and Train returns nil. A later Train call resumes the
// interrupted episode. If every iteration runs to natural termination
// the Trainer enters Completed.
//
// Train is a no-op returning ErrRunning if a rollout is already active.
func (t *Trainer) Train(ctx context.Context, episodes int) error {
	if t.status == Running {
		return ErrRunning
	}
	if episodes < 1 {
		return fmt.Errorf("train: episodes must be positive, have %v",
			episodes)
	}

	t.status = Running

	for i := 0; i < episodes; i++ {
		// Hard-sync the frozen target copy on schedule, but never when
		// resuming: the interrupted episode already synced at its start
		if t.doubled != nil && t.pending == nil &&
			t.episode%t.cfg.TargetUpdateFreq == 0 {
			if err := t.doubled.SyncTarget(); err != nil {
				t.status = Idle
				return fmt.Errorf("train: could not sync target: %v", err)
			}
		}

		paused, err := t.runEpisode(ctx)
		if err != nil {
			t.status = Idle
			return fmt.Errorf("train: episode %v: %v", t.episode, err)
		}
		if paused {
			t.status = Paused
			return nil
		}
	}

	t.status = Completed
	return nil
}

// runEpisode rolls out one episode, or resumes the pending one. It
// returns true if the episode was interrupted and snapshotted rather
// than run to termination.
func (t *Trainer) runEpisode(ctx context.Context) (bool, error) {
	var state *mat.VecDense
	var steps int
	var totalReward float64

	if t.pending != nil {
		// Resume the interrupted episode; its snapshot is consumed
		state = t.pending.State
		steps = t.pending.Steps
		totalReward = t.pending.TotalReward
		t.pending = nil
	} else {
		first := t.env.Reset()
		state = first.Observation
	}

	done := false
	for !done && steps < t.cfg.MaxSteps {
		action, err := t.act(state)
		if err != nil {
			return false, err
		}

		next, err := t.env.Step(action)
		if err != nil {
			return false, err
		}
		done = next.Last()

		t.memory.Insert(timestep.Transition{
			State:     state,
			Action:    action,
			Reward:    next.Reward,
			NextState: next.Observation,
			Done:      done,
		})

		state = next.Observation
		totalReward += next.Reward
		steps++
		t.totalSteps++

		if done {
			break
		}

		// Suspension point between ticks: optional pacing delay, then
		// the cooperative halt check
		if t.pace != nil {
			if err := t.pace(ctx); err != nil && ctx.Err() == nil {
				return false, fmt.Errorf("pacer: %v", err)
			}
		}
		if ctx.Err() != nil {
			t.pending = &EpisodeState{
				State:       state,
				Done:        false,
				TotalReward: totalReward,
				Steps:       steps,
			}
			t.notify(Event{
				Episode:     t.episode,
				Score:       t.env.Score(),
				TotalReward: totalReward,
				Epsilon:     t.epsilon,
				Steps:       steps,
				MemorySize:  t.memory.Size(),
				Paused:      true,
			})
			return true, nil
		}
	}

	// Natural termination: learn, anneal, record. A failed learning
	// step is surfaced on the episode event rather than aborting the
	// run.
	t.pending = nil
	learnErr := t.replay()

	t.epsilon = math.Max(t.cfg.EpsilonMin, t.epsilon*t.cfg.EpsilonDecay)

	score := t.env.Score()
	t.stats.Append(totalReward, score, steps)
	t.episode++

	t.notify(Event{
		Episode:     t.episode,
		Score:       score,
		TotalReward: totalReward,
		Epsilon:     t.epsilon,
		Steps:       steps,
		MemorySize:  t.memory.Size(),
		Err:         learnErr,
	})

	return false, nil
}

// act selects an action for the given state: with probability epsilon a
// biased random action, otherwise the argmax of the predicted action
// values
func (t *Trainer) act(state *mat.VecDense) (int, error) {
	if t.rng.Float64() < t.epsilon {
		if t.rng.Float64() < noOpBias {
			return 0, nil
		}
		return 1, nil
	}

	return t.greedyAction(state)
}

// greedyAction returns the highest-valued action for state, breaking
// ties randomly
func (t *Trainer) greedyAction(state *mat.VecDense) (int, error) {
	values, err := t.model.Predict(state.RawVector().Data)
	if err != nil {
		return 0, fmt.Errorf("act: %v", err)
	}

	_, maxIndices := floatutils.MaxSlice(values)
	if len(maxIndices) == 1 {
		return maxIndices[0], nil
	}
	return maxIndices[t.rng.Intn(len(maxIndices))], nil
}

// replay runs one batch learning step. With fewer stored transitions
// than one batch it is a no-op.
//
// For each sampled transition the regression target equals the model's
// current prediction everywhere except the taken action, whose target
// is the immediate reward, plus the discounted max future value from
// the target copy (Doubled) or the live model (Single) when the
// transition is non-terminal.
func (t *Trainer) replay() error {
	if t.memory.Size() < t.cfg.BatchSize {
		return nil
	}

	batch, err := t.memory.SampleBatch(t.cfg.BatchSize)
	if err != nil {
		return fmt.Errorf("replay: %v", err)
	}

	features := t.env.ObservationSpec().Shape.Len()
	actions := t.env.NumActions()

	states := make([]float64, 0, t.cfg.BatchSize*features)
	targets := make([]float64, 0, t.cfg.BatchSize*actions)

	for _, tr := range batch {
		target, err := t.transitionTarget(tr)
		if err != nil {
			return fmt.Errorf("replay: %v", err)
		}

		states = append(states, tr.State.RawVector().Data...)
		targets = append(targets, target...)
	}

	if err := t.model.Update(states, targets); err != nil {
		return fmt.Errorf("replay: %v", err)
	}
	return nil
}

// transitionTarget assembles the regression target vector for one
// sampled transition: the model's current predictions everywhere except
// the taken action, whose target is the immediate reward with no
// bootstrapped term for a terminal transition, or the reward plus the
// discounted max future value otherwise
func (t *Trainer) transitionTarget(tr timestep.Transition) ([]float64, error) {
	target, err := t.model.Predict(tr.State.RawVector().Data)
	if err != nil {
		return nil, err
	}

	if tr.Done {
		target[tr.Action] = tr.Reward
		return target, nil
	}

	var nextValues []float64
	if t.doubled != nil {
		nextValues, err = t.doubled.PredictTarget(tr.NextState.RawVector().Data)
	} else {
		nextValues, err = t.model.Predict(tr.NextState.RawVector().Data)
	}
	if err != nil {
		return nil, err
	}

	maxNext, _ := floatutils.MaxSlice(nextValues)
	target[tr.Action] = tr.Reward + t.cfg.Gamma*maxNext

	return target, nil
}

// Evaluate runs episodes greedy rollouts (no exploration, no memory
// insertion, no learning) and returns the game score of each. A
// cancelled ctx stops evaluation early, returning the scores collected
// so far.
//
// Evaluation resets and steps the training environment, so it is
// refused while an episode is paused: the pause snapshot must resume
// against the exact simulation state it was taken from.
func (t *Trainer) Evaluate(ctx context.Context, episodes int) ([]int, error) {
	if t.status == Running {
		return nil, ErrRunning
	}
	if t.status == Paused {
		return nil, fmt.Errorf("evaluate: an episode is paused; rollouts " +
			"would clobber its simulation state")
	}

	scores := make([]int, 0, episodes)
	for i := 0; i < episodes; i++ {
		first := t.env.Reset()
		state := first.Observation

		done := false
		for steps := 0; !done && steps < t.cfg.MaxSteps; steps++ {
			if ctx.Err() != nil {
				return scores, nil
			}

			action, err := t.greedyAction(state)
			if err != nil {
				return scores, fmt.Errorf("evaluate: %v", err)
			}
			next, err := t.env.Step(action)
			if err != nil {
				return scores, fmt.Errorf("evaluate: %v", err)
			}

			state = next.Observation
			done = next.Last()
		}

		scores = append(scores, t.env.Score())
	}

	return scores, nil
}

// Reset returns the Trainer to Idle from any state, clearing the replay
// memory, run statistics, episode index, step counters, pause snapshot,
// and epsilon. Model parameters are kept.
func (t *Trainer) Reset() {
	t.memory.Clear()
	t.stats.Clear()
	t.epsilon = t.cfg.Epsilon
	t.episode = 0
	t.totalSteps = 0
	t.pending = nil
	t.status = Idle
}

// Close releases the value model's resources. The Trainer must not be
// used afterwards.
func (t *Trainer) Close() error {
	return t.model.Dispose()
}

// notify delivers an event to the registered notifier, if any
func (t *Trainer) notify(e Event) {
	if t.notifier != nil {
		t.notifier.Notify(e)
	}
}

// Status returns the Trainer's position in its lifecycle
func (t *Trainer) Status() Status {
	return t.status
}

// Epsilon returns the current exploration rate
func (t *Trainer) Epsilon() float64 {
	return t.epsilon
}

// Episode returns the number of naturally completed episodes
func (t *Trainer) Episode() int {
	return t.episode
}

// TotalSteps returns the number of simulation ticks taken across all
// episodes since construction or the last Reset
func (t *Trainer) TotalSteps() int {
	return t.totalSteps
}

// MemorySize returns the current number of stored transitions
func (t *Trainer) MemorySize() int {
	return t.memory.Size()
}

// Statistics returns the per-episode training statistics. The returned
// value is live; callers needing a stable view should Copy it.
func (t *Trainer) Statistics() *tracker.Statistics {
	return t.stats
}
