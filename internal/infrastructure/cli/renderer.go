// Package cli contains the terminal adapters: presenter, input reader,
// cobra commands, and the interactive session loop.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/doeshing/fabsh/internal/domain"
	"github.com/doeshing/fabsh/internal/ports"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	noticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	shellStyle   = lipgloss.NewStyle().Faint(true)
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// Renderer implements ports.Presenter for a terminal. Markdown goes
// through glamour, commands through chroma, everything else through
// lipgloss styles. When stdout is not a TTY it degrades to plain text.
type Renderer struct {
	out      io.Writer
	color    bool
	markdown *glamour.TermRenderer

	mu   sync.Mutex
	last string
}

// NewRenderer builds a renderer for out. Pass os.Stdout for normal use.
func NewRenderer(out io.Writer) *Renderer {
	color := false
	if f, ok := out.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	r := &Renderer{out: out, color: color}
	if color {
		if md, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100)); err == nil {
			r.markdown = md
		}
	}
	return r
}

// ShowCommand prints the proposed command in a bordered box with syntax
// highlighting and remembers it for the copy verb.
func (r *Renderer) ShowCommand(cand domain.CommandCandidate) {
	r.mu.Lock()
	r.last = cand.Command
	r.mu.Unlock()

	label := shellStyle.Render("(" + string(cand.Shell) + ")")
	if !r.color {
		fmt.Fprintf(r.out, "\nProposed command (%s):\n  %s\n", cand.Shell, cand.Command)
		return
	}
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, titleStyle.Render("Proposed command"), label)
	fmt.Fprintln(r.out, boxStyle.Render(r.highlight(cand.Command, cand.Shell)))
}

// ShowMarkdown renders a titled markdown document.
func (r *Renderer) ShowMarkdown(title, text string) {
	fmt.Fprintln(r.out)
	if r.color {
		fmt.Fprintln(r.out, titleStyle.Render(title))
	} else {
		fmt.Fprintf(r.out, "== %s ==\n", title)
	}
	if r.markdown != nil {
		if rendered, err := r.markdown.Render(text); err == nil {
			fmt.Fprint(r.out, rendered)
			return
		}
	}
	fmt.Fprintln(r.out, text)
}

// ShowResult prints one execution outcome with captured output.
func (r *Renderer) ShowResult(result domain.ExecutionResult) {
	elapsed := result.Elapsed.Round(time.Millisecond)
	var status string
	switch result.Status {
	case domain.ExecSucceeded:
		status = r.paint(successStyle, fmt.Sprintf("Command succeeded in %s", elapsed))
	case domain.ExecTimedOut:
		status = r.paint(errorStyle, fmt.Sprintf("Command timed out after %s", elapsed))
	case domain.ExecCancelled:
		status = r.paint(noticeStyle, "Command cancelled")
	default:
		status = r.paint(errorStyle, fmt.Sprintf("Command failed with exit code %d", result.ExitCode))
	}
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, status)

	if out := strings.TrimRight(result.Stdout, "\n"); out != "" {
		fmt.Fprintln(r.out, out)
	}
	if errOut := strings.TrimRight(result.Stderr, "\n"); errOut != "" {
		fmt.Fprintln(r.out, r.paint(errorStyle, errOut))
	}
}

func (r *Renderer) ShowNotice(text string) {
	fmt.Fprintln(r.out, r.paint(noticeStyle, text))
}

func (r *Renderer) ShowError(text string) {
	fmt.Fprintln(r.out, r.paint(errorStyle, text))
}

// LastCommand returns the most recently proposed command.
func (r *Renderer) LastCommand() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

func (r *Renderer) paint(style lipgloss.Style, text string) string {
	if !r.color {
		return text
	}
	return style.Render(text)
}

func (r *Renderer) highlight(command string, shell domain.ShellKind) string {
	var b strings.Builder
	if err := quick.Highlight(&b, command, lexerFor(shell), "terminal256", "monokai"); err != nil {
		return command
	}
	return strings.TrimRight(b.String(), "\n")
}

func lexerFor(shell domain.ShellKind) string {
	switch shell {
	case domain.ShellPowerShell:
		return "powershell"
	case domain.ShellCmd:
		return "batchfile"
	default:
		return "bash"
	}
}

var _ ports.Presenter = (*Renderer)(nil)
