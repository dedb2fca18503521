package deepq

// Event is emitted once per completed or paused episode.
//
// For a completed episode, Episode is the count of naturally completed
// episodes including this one, and Err carries a learning-step failure
// if one occurred (the run itself continues). For a paused episode,
// Paused is true, Episode is the index of the interrupted episode, and
// the remaining fields describe the partial rollout so far.
type Event struct {
	Episode     int
	Score       int
	TotalReward float64
	Epsilon     float64
	Steps       int
	MemorySize  int
	Paused      bool
	Err         error
}

// Notifier receives per-episode events from a Trainer. Notify is called
// synchronously from the rollout loop and should return promptly.
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a function to the Notifier interface
type NotifierFunc func(Event)

// Notify implements Notifier
func (f NotifierFunc) Notify(e Event) {
	f(e)
}
