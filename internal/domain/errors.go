package domain

import (
	"errors"
	"fmt"
)

// Kind classifies an engine failure. The set is closed: the error handler
// matches it exhaustively to pick severity and notification behaviour.
type Kind int

const (
	// KindUnknown covers errors that did not originate in this module.
	KindUnknown Kind = iota
	// KindValidation marks bad or missing input, e.g. a record with no
	// usable identity. Never retried.
	KindValidation
	// KindConfiguration marks a spec/schema mismatch, e.g. duplicate-check
	// columns outside the destination's bounds. Never retried.
	KindConfiguration
	// KindDependency marks an I/O failure from the record store. Retried up
	// to the configured bound, then surfaced.
	KindDependency
	// KindTransient marks a dependency failure explicitly known to pass,
	// e.g. contention.
	KindTransient
)

// String returns the lowercase name used in logs and audit entries.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConfiguration:
		return "configuration"
	case KindDependency:
		return "dependency"
	case KindTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// Error is the taxonomy's carrier: a kind, the operation that failed, a
// message, and an optional wrapped cause.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %s: %v", e.Kind, e.Op, e.Message, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Op, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ValidationError builds a KindValidation error.
func ValidationError(op, message string) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: message}
}

// ConfigurationError builds a KindConfiguration error.
func ConfigurationError(op, message string) *Error {
	return &Error{Kind: KindConfiguration, Op: op, Message: message}
}

// DependencyError builds a KindDependency error wrapping the cause.
func DependencyError(op, message string, cause error) *Error {
	return &Error{Kind: KindDependency, Op: op, Message: message, Err: cause}
}

// TransientError builds a KindTransient error wrapping the cause.
func TransientError(op, message string, cause error) *Error {
	return &Error{Kind: KindTransient, Op: op, Message: message, Err: cause}
}

// KindOf walks the cause chain and returns the first taxonomy kind found,
// or KindUnknown when the error did not originate here.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return KindUnknown
}

// Retryable reports whether the retry executor may attempt the operation
// again. Validation and configuration failures represent caller mistakes,
// not transient conditions.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindValidation, KindConfiguration:
		return false
	default:
		return true
	}
}

// IsValidation reports whether err carries KindValidation.
func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}

// IsConfiguration reports whether err carries KindConfiguration.
func IsConfiguration(err error) bool {
	return KindOf(err) == KindConfiguration
}

// CauseChain renders the chain of wrapped errors, outermost first, for
// structured log entries.
func CauseChain(err error) []string {
	var chain []string
	for err != nil {
		chain = append(chain, err.Error())
		err = errors.Unwrap(err)
	}
	return chain
}
