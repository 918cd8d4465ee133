package services

import (
	"errors"
	"testing"

	"github.com/wanderpal/tour_guide/models"
)

func TestValidateCompletion(t *testing.T) {
	tests := []struct {
		name    string
		status  string
		pin     string
		entered string
		wantErr error
	}{
		{"correct pin on confirmed booking", StatusConfirmed, "123456", "123456", nil},
		{"wrong pin", StatusConfirmed, "123456", "654321", ErrInvalidPin},
		{"pending booking rejected before pin check", StatusPendingGuideConfirmation, "123456", "123456", ErrInvalidStateTransition},
		{"cancelled booking", StatusCancelled, "123456", "123456", ErrInvalidStateTransition},
		{"already completed booking", StatusCompleted, "123456", "123456", ErrInvalidStateTransition},
		{"wrong pin on pending booking still reports state", StatusPendingGuideConfirmation, "123456", "000000", ErrInvalidStateTransition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &models.Booking{BookingStatus: tt.status, CompletionPin: tt.pin}
			err := ValidateCompletion(b, tt.entered)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateCompletion() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateCompletion() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
