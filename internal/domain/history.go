package domain

import "time"

// Outcome classifies how a remembered command ended.
type Outcome string

const (
	// OutcomeConfirmedSuccess means the command ran and the user confirmed it
	// achieved the stated task. This is the only outcome injected into
	// future prompts.
	OutcomeConfirmedSuccess Outcome = "confirmed-success"
	OutcomeFailure          Outcome = "failure"
	OutcomeNotAttempted     Outcome = "not-attempted"
)

// HistoryEntry captures one task→command pairing. Entries are append-only
// and survive process restarts.
type HistoryEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Task      string    `json:"task"`
	Command   string    `json:"command"`
	Shell     ShellKind `json:"shell"`
	Outcome   Outcome   `json:"outcome"`
}
