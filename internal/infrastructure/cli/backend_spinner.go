package cli

import (
	"context"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/doeshing/fabsh/internal/ports"
)

// SpinnerBackend decorates a model backend with a terminal spinner while a
// request is in flight. On non-TTY output it is a transparent wrapper.
type SpinnerBackend struct {
	inner   ports.ModelBackend
	spinner *Spinner
}

// NewSpinnerBackend wraps inner; the spinner writes to out (normally
// stderr so it never mixes with captured stdout).
func NewSpinnerBackend(inner ports.ModelBackend, out io.Writer) *SpinnerBackend {
	b := &SpinnerBackend{inner: inner}
	if f, ok := out.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		b.spinner = NewSpinner(out)
	}
	return b
}

func (b *SpinnerBackend) Generate(ctx context.Context, prompt, contextText, model string) (string, error) {
	if b.spinner != nil {
		b.spinner.Start("thinking...")
		defer b.spinner.Stop()
	}
	return b.inner.Generate(ctx, prompt, contextText, model)
}

func (b *SpinnerBackend) ListModels(ctx context.Context) ([]string, error) {
	if b.spinner != nil {
		b.spinner.Start("fetching models...")
		defer b.spinner.Stop()
	}
	return b.inner.ListModels(ctx)
}

func (b *SpinnerBackend) Ping(ctx context.Context) error {
	return b.inner.Ping(ctx)
}

var _ ports.ModelBackend = (*SpinnerBackend)(nil)
