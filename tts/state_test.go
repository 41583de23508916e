package tts

import "testing"

func TestSessionStateString(t *testing.T) {
	tests := []struct {
		state    SessionState
		expected string
	}{
		{StateIdle, "idle"},
		{StateSpeaking, "speaking"},
		{StateAwaitingCloudResult, "awaiting-cloud-result"},
		{StateFinished, "finished"},
		{StateCancelled, "cancelled"},
		{StateFailed, "failed"},
		{SessionState(999), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.state.String(); got != tt.expected {
				t.Errorf("SessionState.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestSessionStateActive(t *testing.T) {
	active := []SessionState{StateSpeaking, StateAwaitingCloudResult}
	inactive := []SessionState{StateIdle, StateFinished, StateCancelled, StateFailed}

	for _, s := range active {
		if !s.Active() {
			t.Errorf("%v should be active", s)
		}
	}
	for _, s := range inactive {
		if s.Active() {
			t.Errorf("%v should not be active", s)
		}
	}
}

func TestStateMachineTransitions(t *testing.T) {
	tests := []struct {
		name  string
		from  SessionState
		to    SessionState
		valid bool
	}{
		{"idle to speaking", StateIdle, StateSpeaking, true},
		{"idle to awaiting cloud", StateIdle, StateAwaitingCloudResult, true},
		{"idle to finished", StateIdle, StateFinished, false},
		{"idle to failed", StateIdle, StateFailed, true},
		{"speaking to finished", StateSpeaking, StateFinished, true},
		{"speaking to cancelled", StateSpeaking, StateCancelled, true},
		{"speaking to failed", StateSpeaking, StateFailed, true},
		{"speaking to awaiting cloud", StateSpeaking, StateAwaitingCloudResult, false},
		{"awaiting cloud to speaking", StateAwaitingCloudResult, StateSpeaking, true},
		{"awaiting cloud to cancelled", StateAwaitingCloudResult, StateCancelled, true},
		{"finished to speaking", StateFinished, StateSpeaking, true},
		{"finished to failed", StateFinished, StateFailed, true},
		{"cancelled to awaiting cloud", StateCancelled, StateAwaitingCloudResult, true},
		{"cancelled to failed", StateCancelled, StateFailed, true},
		{"failed to idle", StateFailed, StateIdle, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm := NewStateMachine()
			sm.current = tt.from
			if got := sm.Transition(tt.to); got != tt.valid {
				t.Errorf("Transition(%v -> %v) = %v, want %v", tt.from, tt.to, got, tt.valid)
			}
			if tt.valid && sm.Current() != tt.to {
				t.Errorf("Current() = %v after valid transition, want %v", sm.Current(), tt.to)
			}
			if !tt.valid && sm.Current() != tt.from {
				t.Errorf("Current() = %v after invalid transition, want %v", sm.Current(), tt.from)
			}
		})
	}
}
