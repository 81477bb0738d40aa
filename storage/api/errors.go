package api

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigNotFound indicates no configuration document exists for a
	// provider id.
	ErrConfigNotFound = errors.New("storage config not found")

	// ErrFileNotFound indicates the requested object or folder does not
	// exist on the backend.
	ErrFileNotFound = errors.New("file not found")
)

// OperationError wraps a backend-specific failure with the provider and
// operation it occurred in. Adapters never let raw SDK errors past their
// boundary.
type OperationError struct {
	Provider ProviderID
	Op       string
	Err      error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("storage %s: %s: %v", e.Provider, e.Op, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// OpError wraps err as an *OperationError, or returns nil if err is nil.
func OpError(provider ProviderID, op string, err error) error {
	if err == nil {
		return nil
	}
	return &OperationError{Provider: provider, Op: op, Err: err}
}

// UnavailableError indicates a provider exists but is disabled or failed
// configuration validation.
type UnavailableError struct {
	Provider ProviderID
	Reason   string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("storage provider %s unavailable: %s", e.Provider, e.Reason)
}

// IsUnavailable reports whether err is (or wraps) an *UnavailableError.
func IsUnavailable(err error) bool {
	var ue *UnavailableError
	return errors.As(err, &ue)
}

// IsNotFound reports whether err wraps ErrFileNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrFileNotFound)
}
