// Package expreplay implements a fixed-capacity experience replay buffer
package expreplay

import (
	"fmt"

	"golang.org/x/exp/rand"

	ts "github.com/kenanking/flappyrl/timestep"
)

// Memory is a fixed-capacity ring buffer of Transitions.
//
// The backing arena never grows: once size reaches capacity, the i-th
// insertion overwrites slot i mod capacity, so the logically oldest slot
// is always the one replaced. Insert is O(1) and the memory footprint is
// O(capacity) for the life of the buffer. Transitions are copied on
// insertion and never mutated afterwards, only overwritten wholesale.
type Memory struct {
	arena      []ts.Transition
	insertions int
	capacity   int
	rng        *rand.Rand
}

// New creates a Memory holding at most capacity transitions. The seed
// fixes the sampling stream so that runs are reproducible.
func New(capacity int, seed uint64) (*Memory, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("new: capacity must be >= 1, have %v", capacity)
	}

	source := rand.NewSource(seed)

	return &Memory{
		arena:    make([]ts.Transition, 0, capacity),
		capacity: capacity,
		rng:      rand.New(source),
	}, nil
}

// Insert records a transition, overwriting the logically oldest slot
// once the buffer is full
func (m *Memory) Insert(t ts.Transition) {
	t = t.Copy()

	if len(m.arena) < m.capacity {
		m.arena = append(m.arena, t)
	} else {
		m.arena[m.insertions%m.capacity] = t
	}
	m.insertions++
}

// SampleBatch returns n distinct transitions chosen uniformly at random
// without replacement. Requesting more transitions than the buffer holds
// is a programmer error and fails fast rather than truncating. Sampling
// does not mutate the buffer, and the returned order carries no meaning.
func (m *Memory) SampleBatch(n int) ([]ts.Transition, error) {
	if n > m.Size() {
		err := &Error{
			Op:  "samplebatch",
			Err: errInsufficientSamples,
		}
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("samplebatch: negative batch size %v", n)
	}

	batch := make([]ts.Transition, n)
	for i, j := range m.rng.Perm(m.Size())[:n] {
		batch[i] = m.arena[j]
	}

	return batch, nil
}

// At returns the transition at logical slot i. Exposed for tests and
// diagnostics; slot order is insertion order modulo capacity, not age.
func (m *Memory) At(i int) ts.Transition {
	return m.arena[i]
}

// Size returns the current number of transitions in the buffer
func (m *Memory) Size() int {
	return len(m.arena)
}

// Capacity returns the fixed maximum number of transitions
func (m *Memory) Capacity() int {
	return m.capacity
}

// Insertions returns the total number of Insert calls since the last
// Clear
func (m *Memory) Insertions() int {
	return m.insertions
}

// Clear empties the buffer. Capacity and the sampling stream are kept.
func (m *Memory) Clear() {
	m.arena = m.arena[:0]
	m.insertions = 0
}

// String returns the string representation of the Memory
func (m *Memory) String() string {
	return fmt.Sprintf("Memory | Size: %v | Capacity: %v | Insertions: %v",
		m.Size(), m.Capacity(), m.Insertions())
}
