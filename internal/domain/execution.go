package domain

import "time"

// ExecStatus is the terminal status of one command execution.
type ExecStatus string

const (
	ExecSucceeded ExecStatus = "succeeded"
	ExecFailed    ExecStatus = "failed"
	ExecTimedOut  ExecStatus = "timed_out"
	ExecCancelled ExecStatus = "cancelled"
)

// ExecutionResult wraps the outcome of one executed candidate. Never mutated
// after creation. Stdout/Stderr are bounded; oversized output carries a
// truncation marker.
type ExecutionResult struct {
	Status   ExecStatus
	Stdout   string
	Stderr   string
	ExitCode int
	Elapsed  time.Duration
}

// ControllerState enumerates the execution controller state machine.
type ControllerState string

const (
	StateProposed  ControllerState = "proposed"
	StateExplained ControllerState = "explained"
	StateConfirmed ControllerState = "confirmed"
	StateRunning   ControllerState = "running"
	StateSucceeded ControllerState = "succeeded"
	StateFailed    ControllerState = "failed"
	StateTimedOut  ControllerState = "timed_out"
	StateCancelled ControllerState = "cancelled"
	StateLearned   ControllerState = "learned"
	StateDiscarded ControllerState = "discarded"
)
