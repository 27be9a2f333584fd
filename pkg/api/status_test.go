package api

import "testing"

func TestStatusLifecycleTable(t *testing.T) {
	cases := []struct {
		from  Status
		to    Status
		legal bool
	}{
		{StatusPending, StatusRunning, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusCompleted, false},
		{StatusPending, StatusPaused, false},
		{StatusRunning, StatusWaiting, true},
		{StatusRunning, StatusPaused, true},
		{StatusRunning, StatusCompleted, true},
		{StatusRunning, StatusFailed, true},
		{StatusRunning, StatusCancelled, true},
		{StatusRunning, StatusPending, false},
		{StatusWaiting, StatusRunning, true},
		{StatusWaiting, StatusFailed, true},
		{StatusWaiting, StatusCancelled, true},
		{StatusWaiting, StatusCompleted, false},
		{StatusWaiting, StatusPaused, false},
		{StatusPaused, StatusRunning, true},
		{StatusPaused, StatusCancelled, true},
		{StatusPaused, StatusFailed, false},
		{StatusCompleted, StatusRunning, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusFailed, StatusRunning, false},
		{StatusCancelled, StatusRunning, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.legal {
			t.Errorf("CanTransition(%s -> %s) = %v, want %v", tc.from, tc.to, got, tc.legal)
		}
	}
}

func TestStatusClassification(t *testing.T) {
	terminal := []Status{StatusCompleted, StatusFailed, StatusCancelled}
	active := []Status{StatusPending, StatusRunning, StatusWaiting, StatusPaused}

	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
		if s.IsActive() {
			t.Errorf("%s should not be active", s)
		}
		if len(s.AllowedTransitions()) != 0 {
			t.Errorf("%s should have no legal transitions", s)
		}
	}
	for _, s := range active {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
		if !s.IsActive() {
			t.Errorf("%s should be active", s)
		}
	}
	if Status("BOGUS").IsValid() {
		t.Error("unknown status should not be valid")
	}
	if Status("BOGUS").IsActive() {
		t.Error("unknown status should not be active")
	}
}

func TestAllowedTransitionsReturnsCopy(t *testing.T) {
	a := StatusPending.AllowedTransitions()
	a[0] = StatusFailed
	b := StatusPending.AllowedTransitions()
	if b[0] != StatusRunning {
		t.Fatalf("AllowedTransitions leaked internal state: %v", b)
	}
}
