// Package shellenv identifies the active shell and builds process
// invocation specs for it.
package shellenv

import (
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/doeshing/fabsh/internal/domain"
	"github.com/doeshing/fabsh/internal/ports"
)

// Detector caches the detected shell for the process lifetime. An Override
// from configuration wins over environment detection.
type Detector struct {
	Override string

	once     sync.Once
	detected domain.ShellKind
}

// New builds a Detector. override may be empty or "auto".
func New(override string) *Detector {
	if override == "auto" {
		override = ""
	}
	return &Detector{Override: override}
}

// Detect implements ports.ShellDetector.
func (d *Detector) Detect() domain.ShellKind {
	d.once.Do(func() {
		d.detected = d.detect()
	})
	return d.detected
}

func (d *Detector) detect() domain.ShellKind {
	if d.Override != "" {
		if kind := ParseKind(d.Override); kind != domain.ShellUnknown {
			return kind
		}
	}
	if runtime.GOOS == "windows" {
		// PSModulePath is inherited from a PowerShell parent; plain cmd
		// sessions do not set it.
		if os.Getenv("PSModulePath") != "" {
			return domain.ShellPowerShell
		}
		return domain.ShellCmd
	}
	shell := os.Getenv("SHELL")
	for _, kind := range []domain.ShellKind{domain.ShellZsh, domain.ShellFish, domain.ShellBash} {
		if strings.Contains(shell, string(kind)) {
			return kind
		}
	}
	return domain.ShellBash
}

// ParseKind normalizes a shell name to a ShellKind.
func ParseKind(name string) domain.ShellKind {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "bash", "sh", "shell", "zsh", "fish", "powershell", "pwsh", "ps", "ps1", "cmd", "bat", "batch":
		return canonical(strings.ToLower(strings.TrimSpace(name)))
	default:
		return domain.ShellUnknown
	}
}

func canonical(name string) domain.ShellKind {
	switch name {
	case "bash", "sh", "shell":
		return domain.ShellBash
	case "zsh":
		return domain.ShellZsh
	case "fish":
		return domain.ShellFish
	case "powershell", "pwsh", "ps", "ps1":
		return domain.ShellPowerShell
	case "cmd", "bat", "batch":
		return domain.ShellCmd
	}
	return domain.ShellUnknown
}

// InvokeSpec implements ports.ShellDetector. The command string is passed
// through as a single argument, never re-escaped.
func (d *Detector) InvokeSpec(command string, shell domain.ShellKind) domain.InvokeSpec {
	switch shell {
	case domain.ShellPowerShell:
		// -NoProfile keeps user profile output out of the captured
		// streams; profile noise corrupts result evaluation.
		return domain.InvokeSpec{Shell: shell, Argv: []string{"powershell", "-NoProfile", "-NonInteractive", "-Command", command}}
	case domain.ShellCmd:
		return domain.InvokeSpec{Shell: shell, Argv: []string{"cmd", "/C", command}}
	case domain.ShellZsh, domain.ShellFish, domain.ShellBash:
		return domain.InvokeSpec{Shell: shell, Argv: []string{string(shell), "-c", command}}
	default:
		fallback := d.Detect()
		if fallback == domain.ShellUnknown || fallback == shell {
			return domain.InvokeSpec{Shell: domain.ShellBash, Argv: []string{"/bin/sh", "-c", command}}
		}
		return d.InvokeSpec(command, fallback)
	}
}

var _ ports.ShellDetector = (*Detector)(nil)
