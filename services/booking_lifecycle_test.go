package services

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{StatusPendingGuideConfirmation, StatusConfirmed, true},
		{StatusPendingGuideConfirmation, StatusCancelled, true},
		{StatusPendingGuideConfirmation, StatusCompleted, false},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusCancelled, false},
		{StatusConfirmed, StatusPendingGuideConfirmation, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusCancelled, StatusCompleted, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCompleted, StatusConfirmed, false},
		{"bogus", StatusConfirmed, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	for _, terminal := range []string{StatusCancelled, StatusCompleted} {
		for _, to := range []string{StatusPendingGuideConfirmation, StatusConfirmed, StatusCancelled, StatusCompleted} {
			if CanTransition(terminal, to) {
				t.Errorf("terminal state %q must not transition to %q", terminal, to)
			}
		}
	}
}
