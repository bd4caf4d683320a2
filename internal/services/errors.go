package services

import (
	"errors"
	"fmt"

	"github.com/example/bloomdesk/internal/store"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrExpired            = errors.New("voucher expired")
	ErrAlreadyUsed        = errors.New("voucher already used")
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrConflict           = errors.New("concurrent update")
)

// ValidationError reports missing or malformed input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// StoreError wraps a persistence failure; its message is passed through.
type StoreError struct {
	Err error
}

func (e *StoreError) Error() string { return e.Err.Error() }

func (e *StoreError) Unwrap() error { return e.Err }

// wrapStore converts a store error into the service taxonomy. what names the
// record for not-found messages.
func wrapStore(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	case errors.Is(err, store.ErrInsufficientPoints):
		return ErrInsufficientPoints
	}

	var verr *ValidationError
	var serr *StoreError
	if errors.As(err, &verr) || errors.As(err, &serr) || isDomainError(err) {
		return err
	}
	return &StoreError{Err: err}
}

func isDomainError(err error) bool {
	for _, target := range []error{ErrNotFound, ErrExpired, ErrAlreadyUsed, ErrInsufficientPoints, ErrInvalidAmount, ErrConflict} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
