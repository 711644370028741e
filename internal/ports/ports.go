// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// The application core depends on these abstractions only; concrete
// implementations live in the infrastructure layer. This keeps the prompt
// pipeline and the execution state machine testable with scripted stand-ins
// for the backend, the terminal, and the process runner.
package ports

import (
	"context"

	"github.com/doeshing/fabsh/internal/domain"
)

// ConfigProvider loads the latest configuration from persistent storage.
// Implementations typically read from ~/.fabsh/config.yaml.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// PluginRegistry resolves plugin definitions loaded at startup. The core
// never re-parses plugin source during an interaction.
type PluginRegistry interface {
	Get(name string) (domain.PluginSpec, bool)
	List(category string) []domain.PluginSpec
	Categories() map[string][]string
}

// ModelBackend is the language-model service that turns prompts into text.
// Generate applies a bounded timeout and returns *domain.BackendError on
// failure; it never retries.
type ModelBackend interface {
	Generate(ctx context.Context, prompt, contextText, model string) (string, error)
	ListModels(ctx context.Context) ([]string, error)
	Ping(ctx context.Context) error
}

// HistoryStore records confirmed task→command outcomes. Query returns up to
// limit entries most similar to the task text; read failures degrade to an
// empty result rather than propagating.
type HistoryStore interface {
	Append(entry domain.HistoryEntry) error
	Query(task string, limit int) []domain.HistoryEntry
	Recent(limit int) ([]domain.HistoryEntry, error)
	Clear() error
}

// CommandRunner launches a single child process from an invocation spec.
// The returned result is terminal: on deadline expiry the child process and
// its descendants are killed before ExecTimedOut is reported.
type CommandRunner interface {
	Run(ctx context.Context, spec domain.InvokeSpec) (domain.ExecutionResult, error)
}

// ShellDetector identifies the active shell and builds invocation specs.
type ShellDetector interface {
	Detect() domain.ShellKind
	InvokeSpec(command string, shell domain.ShellKind) domain.InvokeSpec
}

// InputReader yields one user token per controller transition. Decoupling
// the state machine from the terminal lets tests drive it with scripted
// sequences.
type InputReader interface {
	ReadToken(prompt string) (string, error)
	ReadLine(prompt, def string) (string, error)
	Interactive() bool
}

// Presenter receives plain structured values from the core for display.
// The core never depends on terminal capabilities.
type Presenter interface {
	ShowCommand(cand domain.CommandCandidate)
	ShowMarkdown(title, text string)
	ShowResult(result domain.ExecutionResult)
	ShowNotice(text string)
	ShowError(text string)
}

// Logger provides structured logging for the application layer.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}
