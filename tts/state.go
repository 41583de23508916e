package tts

// SessionState represents the lifecycle state of a synthesis session.
type SessionState int

const (
	// StateIdle indicates no synthesis is in flight.
	StateIdle SessionState = iota
	// StateSpeaking indicates audio is being produced or played.
	StateSpeaking
	// StateAwaitingCloudResult indicates a cloud synthesis request has been
	// dispatched and the session is waiting for the audio payload.
	StateAwaitingCloudResult
	// StateFinished indicates the utterance completed normally.
	StateFinished
	// StateCancelled indicates the session was stopped before completion.
	StateCancelled
	// StateFailed indicates synthesis or playback failed.
	StateFailed
)

// String returns the string representation of the state.
func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSpeaking:
		return "speaking"
	case StateAwaitingCloudResult:
		return "awaiting-cloud-result"
	case StateFinished:
		return "finished"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Active returns true while an utterance is in flight. At most one session
// may be active at a time; starting a new speak implicitly stops the old one.
func (s SessionState) Active() bool {
	return s == StateSpeaking || s == StateAwaitingCloudResult
}

// Terminal returns true once the session has reached a resting state.
func (s SessionState) Terminal() bool {
	return s == StateFinished || s == StateCancelled || s == StateFailed
}

// StateMachine guards session state transitions.
type StateMachine struct {
	current     SessionState
	transitions map[SessionState][]SessionState
}

// NewStateMachine creates a state machine in the idle state with the valid
// session transitions.
func NewStateMachine() *StateMachine {
	return &StateMachine{
		current: StateIdle,
		transitions: map[SessionState][]SessionState{
			StateIdle:                {StateSpeaking, StateAwaitingCloudResult, StateFailed},
			StateSpeaking:            {StateFinished, StateCancelled, StateFailed},
			StateAwaitingCloudResult: {StateSpeaking, StateCancelled, StateFailed},
			StateFinished:            {StateSpeaking, StateAwaitingCloudResult, StateFailed, StateIdle},
			StateCancelled:           {StateSpeaking, StateAwaitingCloudResult, StateFailed, StateIdle},
			StateFailed:              {StateSpeaking, StateAwaitingCloudResult, StateIdle},
		},
	}
}

// Transition attempts to move to the given state and reports whether the
// transition was valid.
func (sm *StateMachine) Transition(to SessionState) bool {
	valid, ok := sm.transitions[sm.current]
	if !ok {
		return false
	}
	for _, s := range valid {
		if s == to {
			sm.current = to
			return true
		}
	}
	return false
}

// Current returns the current state.
func (sm *StateMachine) Current() SessionState {
	return sm.current
}
