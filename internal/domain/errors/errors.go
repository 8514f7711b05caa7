package errors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrAlreadyExists        = errors.New("already exists")
	ErrNotFound             = errors.New("not found")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrValidation           = errors.New("validation failed")
	ErrPriceMismatch        = errors.New("price mismatch")
	ErrPaymentUnavailable   = errors.New("payment provider unavailable")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrAlreadyDelivered     = errors.New("order already delivered")
	ErrMissingDeliverables  = errors.New("missing required deliverable")
	ErrInvalidDeliverable   = errors.New("invalid deliverable")
	ErrConflict             = errors.New("concurrent modification")
	ErrReferralInvalid      = errors.New("referral code invalid")
	ErrReferralExhausted    = errors.New("referral code exhausted")
	ErrAssistantUnavailable = errors.New("assistant unavailable")
)

// FieldError describes a single rejected form field.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError lists every field that failed validation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(names, ", "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// PriceMismatchError carries both totals of a rejected checkout.
type PriceMismatchError struct {
	ClientTotal float64
	ServerTotal int
}

func (e *PriceMismatchError) Error() string {
	return fmt.Sprintf("price mismatch: client %.2f, server %d", e.ClientTotal, e.ServerTotal)
}

func (e *PriceMismatchError) Unwrap() error { return ErrPriceMismatch }

// MissingDeliverablesError lists deliverable types that block delivery.
type MissingDeliverablesError struct {
	Missing []string
}

func (e *MissingDeliverablesError) Error() string {
	return fmt.Sprintf("missing required deliverable: %s", strings.Join(e.Missing, ", "))
}

func (e *MissingDeliverablesError) Unwrap() error { return ErrMissingDeliverables }

// TransitionError reports a rejected status change.
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }
