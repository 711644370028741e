package domain

// ShellKind enumerates supported shells.
type ShellKind string

const (
	ShellUnknown    ShellKind = "unknown"
	ShellBash       ShellKind = "bash"
	ShellZsh        ShellKind = "zsh"
	ShellFish       ShellKind = "fish"
	ShellPowerShell ShellKind = "powershell"
	ShellCmd        ShellKind = "cmd"
)

// Windows reports whether the shell belongs to the Windows family.
func (s ShellKind) Windows() bool {
	return s == ShellPowerShell || s == ShellCmd
}

// InvokeSpec is a ready-to-launch process specification for one command.
// The command string is passed through unmodified; Argv carries the
// shell-specific wrapping.
type InvokeSpec struct {
	Shell ShellKind
	Argv  []string
}
