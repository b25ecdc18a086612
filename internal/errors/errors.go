// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrStrikeRangeExceeded = errors.New("strike offset beyond chain range")
	ErrImpliedVolNotFound  = errors.New("implied volatility search hit the upper bound")
	ErrNoMarketData        = errors.New("no market data for contract")
	ErrSnapshotTimeout     = errors.New("market snapshot fetch timed out")
	ErrEmptyStrategy       = errors.New("strategy has no legs")
	ErrEmptyStrikeGrid     = errors.New("strike grid is empty")
	ErrUnknownStrategy     = errors.New("unknown strategy kind")
	ErrDataNotFound        = errors.New("data not found")
	ErrDatabaseError       = errors.New("database error")
	ErrConfigInvalid       = errors.New("invalid configuration")
)

// SnapshotError represents a failure while building or using a market
// snapshot for one symbol.
type SnapshotError struct {
	Symbol string
	Stage  string
	Err    error
}

func (e *SnapshotError) Error() string {
	return fmt.Sprintf("snapshot error [%s] %s: %v", e.Symbol, e.Stage, e.Err)
}

func (e *SnapshotError) Unwrap() error {
	return e.Err
}

// NewSnapshotError creates a new SnapshotError.
func NewSnapshotError(symbol, stage string, err error) *SnapshotError {
	return &SnapshotError{Symbol: symbol, Stage: stage, Err: err}
}

// FillError represents a malformed trade-tape row rejected before
// reconciliation.
type FillError struct {
	Stock  string
	Field  string
	Value  interface{}
	Reason string
}

func (e *FillError) Error() string {
	return fmt.Sprintf("fill error [%s] %s=%v: %s", e.Stock, e.Field, e.Value, e.Reason)
}

// NewFillError creates a new FillError.
func NewFillError(stock, field string, value interface{}, reason string) *FillError {
	return &FillError{Stock: stock, Field: field, Value: value, Reason: reason}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
