package internalerr

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common cases
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrInvalidConfig    = errors.New("invalid configuration")
)

// ParamError describes a rejected configuration value.
// It unwraps to ErrInvalidParameter.
type ParamError struct {
	Param    string
	Value    any
	Accepted []string // accepted values, when the parameter is an enumeration
	Reason   string   // accepted range, when the parameter is numeric
}

func (e *ParamError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "invalid parameter %s=%v", e.Param, e.Value)
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if len(e.Accepted) > 0 {
		b.WriteString(" (accepted: ")
		b.WriteString(strings.Join(e.Accepted, ", "))
		b.WriteString(")")
	}
	return b.String()
}

func (e *ParamError) Unwrap() error {
	return ErrInvalidParameter
}

// InvalidChoice builds a ParamError for a value outside an enumeration.
func InvalidChoice(param string, value any, accepted []string) *ParamError {
	return &ParamError{
		Param:    param,
		Value:    value,
		Accepted: append([]string(nil), accepted...),
	}
}

// OutOfRange builds a ParamError for a numeric value outside its valid range.
func OutOfRange(param string, value any, reason string) *ParamError {
	return &ParamError{Param: param, Value: value, Reason: reason}
}
