package domain

import "fmt"

// ParameterError reports a prompt template placeholder with no value and no
// default. The interaction aborts before any model call.
type ParameterError struct {
	Plugin string
	Key    string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("plugin %s: missing required parameter %q", e.Plugin, e.Key)
}

// BackendErrorKind classifies model backend failures.
type BackendErrorKind string

const (
	BackendUnreachable   BackendErrorKind = "unreachable"
	BackendTimeout       BackendErrorKind = "timeout"
	BackendModelNotFound BackendErrorKind = "model_not_found"
	BackendMalformed     BackendErrorKind = "malformed"
)

// BackendError is a typed model backend failure. Remedy carries a suggested
// user action ("start the backend", "pull the model").
type BackendError struct {
	Kind   BackendErrorKind
	Remedy string
	Err    error
}

func (e *BackendError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("backend %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("backend %s", e.Kind)
}

func (e *BackendError) Unwrap() error { return e.Err }

// HistoryIOError wraps history store failures. Never fatal: callers degrade
// to no-context / no-learning mode.
type HistoryIOError struct {
	Op  string
	Err error
}

func (e *HistoryIOError) Error() string {
	return fmt.Sprintf("history %s: %v", e.Op, e.Err)
}

func (e *HistoryIOError) Unwrap() error { return e.Err }
