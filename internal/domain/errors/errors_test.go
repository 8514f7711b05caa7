package errors

import (
	stdErrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestSentinelErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"already exists", ErrAlreadyExists},
		{"not found", ErrNotFound},
		{"invalid credentials", ErrInvalidCredentials},
		{"price mismatch", ErrPriceMismatch},
		{"invalid transition", ErrInvalidTransition},
		{"already delivered", ErrAlreadyDelivered},
		{"missing deliverables", ErrMissingDeliverables},
		{"referral invalid", ErrReferralInvalid},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if !stdErrors.Is(tc.err, tc.err) {
				t.Fatalf("expected error to match itself: %v", tc.err)
			}
		})
	}
}

func TestTypedErrorsUnwrapToSentinels(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		sentinel error
		contains string
	}{
		{"validation", &ValidationError{Fields: []FieldError{{Field: "story"}, {Field: "mood"}}}, ErrValidation, "story, mood"},
		{"price", &PriceMismatchError{ClientTotal: 79, ServerTotal: 108}, ErrPriceMismatch, "server 108"},
		{"deliverables", &MissingDeliverablesError{Missing: []string{"mp3"}}, ErrMissingDeliverables, "mp3"},
		{"transition", &TransitionError{From: "delivered", To: "paid"}, ErrInvalidTransition, "delivered -> paid"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			wrapped := fmt.Errorf("outer: %w", tc.err)
			if !stdErrors.Is(wrapped, tc.sentinel) {
				t.Fatalf("expected %v to unwrap to %v", wrapped, tc.sentinel)
			}
			if !strings.Contains(tc.err.Error(), tc.contains) {
				t.Fatalf("expected %q in %q", tc.contains, tc.err.Error())
			}
		})
	}
}
