package refine

import (
	"sync/atomic"

	"github.com/arloliu/tablemix/internal/logger"
	"github.com/arloliu/tablemix/internal/metrics"
	"github.com/arloliu/tablemix/types"
	"github.com/puzpuzpuz/xsync/v4"
)

// StateMachine tracks the refinement lifecycle.
//
// The machine starts in Running and moves exactly once to a terminal state.
// Subscribers receive the current state on subscription and the terminal state
// when it is reached; their channels are closed afterwards.
type StateMachine struct {
	current atomic.Int32 // types.RunState

	logger  types.Logger
	metrics types.RefinementMetrics

	// Fan-out to subscribers
	subscribers      *xsync.Map[uint64, *stateSubscriber]
	nextSubscriberID atomic.Uint64
}

// NewStateMachine creates a new state machine in the Running state.
//
// Parameters:
//   - log: Logger for state transitions (nil disables logging)
//   - m: Metrics collector for transitions and dropped notifications (nil disables metrics)
//
// Returns:
//   - *StateMachine: A new state machine instance
func NewStateMachine(log types.Logger, m types.RefinementMetrics) *StateMachine {
	if log == nil {
		log = logger.NewNop()
	}
	if m == nil {
		m = metrics.NewNop()
	}
	sm := &StateMachine{
		logger:      log,
		metrics:     m,
		subscribers: xsync.NewMap[uint64, *stateSubscriber](),
	}
	sm.current.Store(int32(types.StateRunning))

	return sm
}

// State returns the current state.
//
// This method is thread-safe and can be called concurrently.
func (sm *StateMachine) State() types.RunState {
	return types.RunState(sm.current.Load())
}

// Subscribe returns a channel that receives state change notifications.
//
// The returned channel is buffered (size 2), enough for the current state and the
// terminal state. It is closed once the terminal state has been delivered.
//
// Returns:
//   - <-chan types.RunState: Channel that receives state updates
//   - func(): Unsubscribe function to clean up resources
//
// Example:
//
//	ch, unsubscribe := sm.Subscribe()
//	defer unsubscribe()
//	for state := range ch {
//	    fmt.Printf("refinement state: %s\n", state)
//	}
func (sm *StateMachine) Subscribe() (<-chan types.RunState, func()) {
	id := sm.nextSubscriberID.Add(1)
	sub := &stateSubscriber{ch: make(chan types.RunState, 2)}
	sm.subscribers.Store(id, sub)

	state := sm.State()
	sub.trySend(state, sm.metrics)
	if state.IsTerminal() {
		sm.removeSubscriber(id)
	}

	return sub.ch, func() { sm.removeSubscriber(id) }
}

// removeSubscriber removes a subscriber and closes its channel.
func (sm *StateMachine) removeSubscriber(id uint64) {
	if sub, ok := sm.subscribers.LoadAndDelete(id); ok {
		sub.close()
	}
}

// Finish moves the machine from Running to a terminal state.
//
// Parameters:
//   - to: Terminal state
//
// Returns:
//   - bool: false if the machine already finished or to is not terminal
func (sm *StateMachine) Finish(to types.RunState) bool {
	if !to.IsTerminal() {
		return false
	}
	if !sm.current.CompareAndSwap(int32(types.StateRunning), int32(to)) {
		sm.logger.Warn("ignoring state transition after finish", "current", sm.State(), "requested", to)
		return false
	}

	sm.logger.Info("refinement state changed", "from", types.StateRunning, "to", to)
	sm.metrics.RecordStateTransition(types.StateRunning, to)

	sm.subscribers.Range(func(id uint64, sub *stateSubscriber) bool {
		sub.trySend(to, sm.metrics)
		sm.removeSubscriber(id)

		return true
	})

	return true
}
