package deepq

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/kenanking/flappyrl/tracker"
)

// Checkpoint is the serializable snapshot of a training run: the value
// model's parameters as nested numeric arrays plus the run's
// bookkeeping. File I/O lives at this boundary; compression and
// transport are the caller's concern.
type Checkpoint struct {
	ID      string           `json:"id"`
	Weights [][][]float64    `json:"weights"`
	Config  CheckpointConfig `json:"config"`
}

// CheckpointConfig is the bookkeeping half of a Checkpoint
type CheckpointConfig struct {
	Episode    int                `json:"episode"`
	Epsilon    float64            `json:"epsilon"`
	MemorySize int                `json:"memorySize"`
	HiddenDim  int                `json:"hiddenDim"`
	Statistics tracker.Statistics `json:"statistics"`
	Timestamp  time.Time          `json:"timestamp"`
}

// Checkpoint snapshots the Trainer's live parameters and run state.
// The snapshot is independent of the Trainer: later training does not
// change it.
func (t *Trainer) Checkpoint() *Checkpoint {
	return &Checkpoint{
		ID:      uuid.NewString(),
		Weights: t.model.Weights(),
		Config: CheckpointConfig{
			Episode:    t.episode,
			Epsilon:    t.epsilon,
			MemorySize: t.memory.Size(),
			HiddenDim:  t.model.HiddenDim(),
			Statistics: t.stats.Copy(),
			Timestamp:  time.Now().UTC(),
		},
	}
}

// Restore replaces the Trainer's parameters and run bookkeeping with
// those of the checkpoint. The checkpoint is validated in full before
// any live state is touched: on error the Trainer is unchanged. Replay
// memory contents are not part of a checkpoint and are left as they
// are.
func (t *Trainer) Restore(c *Checkpoint) error {
	if t.status == Running {
		return ErrRunning
	}
	if c == nil {
		return fmt.Errorf("restore: nil checkpoint")
	}
	if len(c.Weights) == 0 {
		return fmt.Errorf("restore: checkpoint carries no weights")
	}
	if c.Config.HiddenDim != t.model.HiddenDim() {
		return fmt.Errorf("restore: checkpoint hidden dim (%v) does not "+
			"match model (%v)", c.Config.HiddenDim, t.model.HiddenDim())
	}
	if c.Config.Episode < 0 {
		return fmt.Errorf("restore: negative episode index %v",
			c.Config.Episode)
	}
	if c.Config.Epsilon < 0 || c.Config.Epsilon > 1 {
		return fmt.Errorf("restore: epsilon must be in [0, 1], have %v",
			c.Config.Epsilon)
	}

	// SetWeights validates every matrix shape before mutating, so a
	// malformed weight array leaves the model untouched
	if err := t.model.SetWeights(c.Weights); err != nil {
		return fmt.Errorf("restore: %v", err)
	}

	t.episode = c.Config.Episode
	t.epsilon = c.Config.Epsilon
	stats := c.Config.Statistics.Copy()
	t.stats = &stats
	t.pending = nil
	t.status = Idle

	return nil
}

// WriteFile persists the checkpoint to path as JSON
func (c *Checkpoint) WriteFile(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("writefile: could not encode checkpoint: %v", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writefile: %v", err)
	}
	return nil
}

// ReadCheckpoint loads a checkpoint from a JSON file previously written
// with WriteFile
func ReadCheckpoint(path string) (*Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("readcheckpoint: %v", err)
	}

	var c Checkpoint
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("readcheckpoint: could not decode %v: %v",
			path, err)
	}

	return &c, nil
}
