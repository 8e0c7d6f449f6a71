package session

import "sync"

// State is the lifecycle position of one realtime call.
type State string

const (
	StateIdle             State = "idle"
	StateConnecting       State = "connecting"
	StateConnected        State = "connected"
	StateProspectSpeaking State = "prospect_speaking"
	StateRepSpeaking      State = "rep_speaking"
	StateEnding           State = "ending"
)

// validTransitions lists the edges protocol events and caller actions may
// take. Ending is terminal; a fresh session instance starts over at idle.
var validTransitions = map[State][]State{
	StateIdle:             {StateConnecting, StateEnding},
	StateConnecting:       {StateConnected, StateIdle, StateEnding},
	StateConnected:        {StateProspectSpeaking, StateRepSpeaking, StateEnding},
	StateProspectSpeaking: {StateConnected, StateRepSpeaking, StateEnding},
	StateRepSpeaking:      {StateConnected, StateProspectSpeaking, StateEnding},
	StateEnding:           {},
}

// stateMachine tracks the current state and gates every move against the
// transition table. Invalid moves are refused, not escalated; the remote
// side may emit lifecycle events in orders this version does not expect.
type stateMachine struct {
	mu       sync.Mutex
	state    State
	onChange func(State)
}

func newStateMachine(onChange func(State)) *stateMachine {
	return &stateMachine{state: StateIdle, onChange: onChange}
}

func (m *stateMachine) current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// transition moves to the target state if the edge is valid and reports
// whether the move happened. The change callback runs outside the lock.
func (m *stateMachine) transition(to State) bool {
	m.mu.Lock()
	allowed := false
	for _, next := range validTransitions[m.state] {
		if next == to {
			allowed = true
			break
		}
	}
	if !allowed || m.state == to {
		m.mu.Unlock()
		return false
	}
	m.state = to
	onChange := m.onChange
	m.mu.Unlock()

	if onChange != nil {
		onChange(to)
	}
	return true
}
