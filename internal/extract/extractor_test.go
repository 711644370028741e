package extract

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/doeshing/fabsh/internal/domain"
)

func TestExtractSingleBashFence(t *testing.T) {
	text := "Run this:\n```bash\nls -la\n```\nDone."
	got := Extract(text, domain.ShellBash)

	if len(got) != 1 {
		t.Fatalf("Extract() returned %d candidates, want 1", len(got))
	}
	assert.Equal(t, "ls -la", got[0].Command)
	assert.Equal(t, domain.ShellBash, got[0].Shell)
	assert.Equal(t, "ls -la\n", text[got[0].Span[0]:got[0].Span[1]])
}

func TestExtractPreservesOrderOfAppearance(t *testing.T) {
	text := "First:\n```bash\necho one\n```\nThen:\n```powershell\nWrite-Host two\n```\n"
	got := Extract(text, domain.ShellBash)

	want := []domain.CommandCandidate{
		{Command: "echo one", Shell: domain.ShellBash},
		{Command: "Write-Host two", Shell: domain.ShellPowerShell},
	}
	ignoreSpan := cmp.FilterPath(func(p cmp.Path) bool {
		return p.Last().String() == ".Span"
	}, cmp.Ignore())
	if diff := cmp.Diff(want, got, ignoreSpan); diff != "" {
		t.Fatalf("Extract() mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractUnlabeledFenceUsesDefaultShell(t *testing.T) {
	text := "```\nfdupes -r .\n```"
	got := Extract(text, domain.ShellZsh)

	if len(got) != 1 {
		t.Fatalf("Extract() returned %d candidates, want 1", len(got))
	}
	assert.Equal(t, domain.ShellZsh, got[0].Shell)
}

func TestExtractUnlabeledFenceDetectsPowerShell(t *testing.T) {
	text := "```\nGet-ChildItem | Sort-Object Length\n```"
	got := Extract(text, domain.ShellBash)

	if len(got) != 1 {
		t.Fatalf("Extract() returned %d candidates, want 1", len(got))
	}
	assert.Equal(t, domain.ShellPowerShell, got[0].Shell)
}

func TestExtractNonShellTagIsUnknown(t *testing.T) {
	text := "```python\nprint('hi')\n```"
	got := Extract(text, domain.ShellBash)

	if len(got) != 1 {
		t.Fatalf("Extract() returned %d candidates, want 1", len(got))
	}
	assert.Equal(t, domain.ShellUnknown, got[0].Shell)
}

func TestExtractTrimsSurroundingBlankLines(t *testing.T) {
	text := "```bash\n\n\ndu -sh *\n\n```"
	got := Extract(text, domain.ShellBash)

	if len(got) != 1 {
		t.Fatalf("Extract() returned %d candidates, want 1", len(got))
	}
	assert.Equal(t, "du -sh *", got[0].Command)
}

func TestExtractNoFencesYieldsEmpty(t *testing.T) {
	got := Extract("I cannot help with that request.", domain.ShellBash)
	assert.Empty(t, got)
}

func TestExtractIsIdempotent(t *testing.T) {
	text := "```bash\nuptime\n```\nand\n```\nfree -m\n```"
	first := Extract(text, domain.ShellBash)
	second := Extract(text, domain.ShellBash)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("Extract() not deterministic (-first +second):\n%s", diff)
	}
}

func TestExtractCommandStripsProse(t *testing.T) {
	response := "Here is what you need:\n\n```bash\nfind / -size +100M -mtime +30\n```\n"
	got := ExtractCommand(response, domain.ShellBash)
	assert.Equal(t, "find / -size +100M -mtime +30", got)
}

func TestExtractCommandBareLine(t *testing.T) {
	got := ExtractCommand("df -h /\n", domain.ShellBash)
	assert.Equal(t, "df -h /", got)
}

func TestExtractCommandRejectsPureProse(t *testing.T) {
	response := "You should describe what you want in more detail."
	assert.Equal(t, "", ExtractCommand(response, domain.ShellBash))
}

func TestExtractCommandFallsBackToKnownPrefix(t *testing.T) {
	// Both lines trip a prose filter, but one starts with a known command.
	response := "Here is what you need:\ncat the-report.txt"
	got := ExtractCommand(response, domain.ShellBash)
	assert.Equal(t, "cat the-report.txt", got)
}

func TestValidPosix(t *testing.T) {
	assert.True(t, ValidPosix(`for f in *.log; do gzip "$f"; done`))
	assert.False(t, ValidPosix(`for f in *.log; do gzip "$f"`))
}
