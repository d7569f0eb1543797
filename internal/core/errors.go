// internal/core/errors.go
package core

import "fmt"

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Predefined errors
var (
	// Data errors
	ErrNoData = &Error{Code: "NO_DATA", Message: "no data available"}

	// Walk-forward errors. ErrInsufficientData is fatal and raised before
	// any fold executes; ErrFoldFailed is only ever recorded on a single
	// fold result, never propagated as a run error.
	ErrInsufficientData = &Error{Code: "INSUFFICIENT_DATA", Message: "date range too short for any train/test fold"}
	ErrFoldFailed       = &Error{Code: "FOLD_FAILED", Message: "fold execution failed"}
	ErrRunInProgress    = &Error{Code: "RUN_IN_PROGRESS", Message: "a walk-forward run is already in progress"}

	// Regime errors
	ErrMissingIndicator = &Error{Code: "MISSING_INDICATOR_VALUE", Message: "threshold rule cannot be resolved against indicator values"}

	// Optimization / backtest errors
	ErrOptimizationFailed = &Error{Code: "OPTIMIZATION_FAILED", Message: "parameter optimization failed"}
	ErrBacktestFailed     = &Error{Code: "BACKTEST_FAILED", Message: "backtest failed"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}

	// Job errors
	ErrJobNotFound = &Error{Code: "JOB_NOT_FOUND", Message: "job not found"}
)
