// Package lifecycle tracks where one player process is in the turn protocol.
package lifecycle

import (
	"errors"
	"fmt"
	"sync"
)

// State of a player process.
type State int

const (
	AwaitingStart State = iota
	AwaitingTurn
	Acting
	AdvancingTurn
	Done
)

var stateNames = [...]string{"AwaitingStart", "AwaitingTurn", "Acting", "AdvancingTurn", "Done"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// ErrInvalidTransition is returned for a move the protocol does not allow.
var ErrInvalidTransition = errors.New("invalid state transition")

var transitions = map[State][]State{
	AwaitingStart: {AwaitingTurn},
	AwaitingTurn:  {Acting, Done},
	Acting:        {AdvancingTurn},
	AdvancingTurn: {AwaitingTurn},
}

// Machine holds the current state. It is safe for concurrent use; the
// control loop reads it while the turn loop moves it.
type Machine struct {
	mu       sync.RWMutex
	state    State
	observer func(from, to State)
}

// New returns a Machine in AwaitingStart. observer, if not nil, is called
// after every successful transition.
func New(observer func(from, to State)) *Machine {
	return &Machine{state: AwaitingStart, observer: observer}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// To moves to next if the protocol allows it.
func (m *Machine) To(next State) error {
	m.mu.Lock()
	from := m.state
	allowed := false
	for _, s := range transitions[from] {
		if s == next {
			allowed = true
			break
		}
	}
	if !allowed {
		m.mu.Unlock()
		return fmt.Errorf("%w: %v -> %v", ErrInvalidTransition, from, next)
	}
	m.state = next
	m.mu.Unlock()

	if m.observer != nil {
		m.observer(from, next)
	}
	return nil
}
