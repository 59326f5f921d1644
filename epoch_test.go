package fence

import "testing"

func TestEpochString(t *testing.T) {
	e := Epoch{Queue: QueueID{Family: 2, Index: 1}, Index: 17}
	if got, want := e.String(), "2:1@17"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestEpochBefore(t *testing.T) {
	q0 := QueueID{Family: 0, Index: 0}
	q1 := QueueID{Family: 0, Index: 1}

	tests := []struct {
		name string
		a, b Epoch
		want bool
	}{
		{"earlier", Epoch{q0, 1}, Epoch{q0, 2}, true},
		{"later", Epoch{q0, 3}, Epoch{q0, 2}, false},
		{"equal", Epoch{q0, 2}, Epoch{q0, 2}, false},
		{"other queue", Epoch{q0, 1}, Epoch{q1, 2}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Before(tt.b); got != tt.want {
				t.Errorf("%v.Before(%v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		s    State
		want string
	}{
		{StateUnsignaled, "Unsignaled"},
		{StateSignaled, "Signaled"},
		{StateSubmitted, "Submitted"},
		{stateReleased, "Released"},
		{State(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}
