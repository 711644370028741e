package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"

	"github.com/doeshing/fabsh/internal/ports"
)

// Prompter implements ports.InputReader. On a TTY it uses liner for line
// editing and recall; otherwise it falls back to buffered stdin so piped
// input still works.
type Prompter struct {
	state       *liner.State
	in          *bufio.Reader
	out         io.Writer
	interactive bool
}

// NewPrompter builds a prompter on stdio. Call Close before exit to
// restore the terminal.
func NewPrompter() *Prompter {
	interactive := isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	p := &Prompter{out: os.Stdout, interactive: interactive}
	if interactive {
		p.state = liner.NewLiner()
		p.state.SetCtrlCAborts(true)
	} else {
		p.in = bufio.NewReader(os.Stdin)
	}
	return p
}

// ReadToken reads one short answer, trimmed.
func (p *Prompter) ReadToken(prompt string) (string, error) {
	line, err := p.read(prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// ReadLine reads a full line, pre-filling def on a TTY. An empty answer
// falls back to def.
func (p *Prompter) ReadLine(prompt, def string) (string, error) {
	var line string
	var err error
	if p.state != nil && def != "" {
		line, err = p.state.PromptWithSuggestion(prompt+": ", def, len(def))
	} else {
		line, err = p.read(prompt + ": ")
	}
	if err != nil {
		return "", err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return def, nil
	}
	return line, nil
}

// Interactive reports whether stdin is a terminal.
func (p *Prompter) Interactive() bool {
	return p.interactive
}

// AppendHistory adds a line to the recall buffer.
func (p *Prompter) AppendHistory(line string) {
	if p.state != nil && strings.TrimSpace(line) != "" {
		p.state.AppendHistory(line)
	}
}

// Close restores the terminal state.
func (p *Prompter) Close() error {
	if p.state != nil {
		return p.state.Close()
	}
	return nil
}

func (p *Prompter) read(prompt string) (string, error) {
	if p.state != nil {
		line, err := p.state.Prompt(prompt)
		if err == liner.ErrPromptAborted {
			return "", io.EOF
		}
		return line, err
	}
	fmt.Fprint(p.out, prompt)
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

var _ ports.InputReader = (*Prompter)(nil)
