package cli

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Clipboard pipes text into whichever platform clipboard tool is
// installed. Selection happens per copy so a tool installed mid-session
// is picked up.
type Clipboard struct{}

// NewClipboard builds the clipboard helper.
func NewClipboard() *Clipboard {
	return &Clipboard{}
}

// Copy places text on the system clipboard.
func (c *Clipboard) Copy(text string) error {
	cmd, err := copierCommand()
	if err != nil {
		return err
	}
	cmd.Stdin = strings.NewReader(text)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", cmd.Args[0], err)
	}
	return nil
}

// copierCommand resolves the copy tool for the current platform. On Linux
// the Wayland tool is preferred when a Wayland session is active, since
// xclip under XWayland only reaches X11 clients.
func copierCommand() (*exec.Cmd, error) {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("pbcopy"), nil
	case "windows":
		return exec.Command("clip"), nil
	case "linux":
		candidates := []struct {
			name string
			args []string
		}{
			{"xclip", []string{"-selection", "clipboard"}},
			{"xsel", []string{"--clipboard", "--input"}},
			{"wl-copy", nil},
		}
		if os.Getenv("WAYLAND_DISPLAY") != "" {
			candidates[0], candidates[2] = candidates[2], candidates[0]
		}
		for _, c := range candidates {
			if _, err := exec.LookPath(c.name); err == nil {
				return exec.Command(c.name, c.args...), nil
			}
		}
		return nil, fmt.Errorf("no clipboard tool found (install xclip, xsel, or wl-clipboard)")
	default:
		return nil, fmt.Errorf("clipboard not supported on %s", runtime.GOOS)
	}
}
