// Package extract parses free-text model responses into command candidates.
//
// Extraction is pure: the same response text always yields the same
// candidate sequence, and nothing here executes or mutates state. Matching
// rules are kept as data (fence pattern, skip predicates, shell keyword
// tables) so they are unit-testable without a backend.
package extract

import (
	"regexp"
	"strings"

	"mvdan.cc/sh/v3/syntax"

	"github.com/doeshing/fabsh/internal/domain"
	"github.com/doeshing/fabsh/internal/shellenv"
)

var fencePattern = regexp.MustCompile("(?s)```([A-Za-z0-9_+.-]*)[ \t]*\r?\n?(.*?)```")

// Extract returns the fenced code blocks of a response in order of
// appearance. Unlabeled fences default to defaultShell; non-shell tags
// (python, json, ...) are kept with ShellUnknown so the controller can
// still display them. An empty result means "nothing to execute".
func Extract(text string, defaultShell domain.ShellKind) []domain.CommandCandidate {
	matches := fencePattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	candidates := make([]domain.CommandCandidate, 0, len(matches))
	for _, m := range matches {
		tag := text[m[2]:m[3]]
		body := trimBlankLines(text[m[4]:m[5]])
		if body == "" {
			continue
		}
		shell := normalizeTag(tag, body, defaultShell)
		candidates = append(candidates, domain.CommandCandidate{
			Command: body,
			Shell:   shell,
			Span:    [2]int{m[4], m[5]},
		})
	}
	return candidates
}

func normalizeTag(tag, body string, defaultShell domain.ShellKind) domain.ShellKind {
	if tag == "" {
		if detected := DetectShellLanguage(body); detected != domain.ShellUnknown {
			return detected
		}
		if defaultShell != domain.ShellUnknown {
			return defaultShell
		}
		return domain.ShellUnknown
	}
	return shellenv.ParseKind(tag)
}

// trimBlankLines strips leading and trailing blank lines but preserves the
// block body otherwise verbatim.
func trimBlankLines(body string) string {
	lines := strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n")
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return strings.Join(lines[start:end], "\n")
}

var powershellHints = []string{"get-", "set-", "new-", "remove-", "import-module", "write-host"}

var bashHints = []string{"#!/bin/bash", "#!/bin/sh", "echo ", "grep ", "awk ", "sed ", "| "}

// DetectShellLanguage guesses the shell family of an untagged block.
// Returns ShellUnknown when the body does not look like shell at all.
func DetectShellLanguage(code string) domain.ShellKind {
	lower := strings.ToLower(code)
	for _, hint := range powershellHints {
		if strings.Contains(lower, hint) {
			return domain.ShellPowerShell
		}
	}
	for _, hint := range bashHints {
		if strings.Contains(lower, hint) {
			return domain.ShellBash
		}
	}
	if ValidPosix(code) && looksLikeCommand(firstNonEmptyLine(code)) {
		return domain.ShellBash
	}
	return domain.ShellUnknown
}

// ValidPosix reports whether the text parses as a bash program.
func ValidPosix(code string) bool {
	parser := syntax.NewParser(syntax.Variant(syntax.LangBash))
	_, err := parser.Parse(strings.NewReader(code), "")
	return err == nil
}

func firstNonEmptyLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

var commandPrefix = regexp.MustCompile(`^(git|ls|cd|pwd|mkdir|rm|cp|mv|cat|grep|find|ps|top|du|df|tar|curl|wget|chmod|chown|kill|echo|head|tail|sort|uniq|wc|xargs|awk|sed|docker|kubectl|ssh|scp)\b`)

// Prose prefixes that mark a line as explanation rather than a command.
var skipPrefixes = []string{"the ", "this ", "that ", "a ", "an "}

var skipSubstrings = []string{
	"note:", "here", "this", "you", "the", "explanation", "import",
	"modification", "corrected", "command", "alternative", "approach",
	"if you", "can:", "should", "would", "could", "example:", "description",
}

var (
	fenceLine  = regexp.MustCompile("```[\\w]*[ \t]*")
	boldText   = regexp.MustCompile(`\*\*[^*]+\*\*`)
	bulletMark = regexp.MustCompile(`(?m)^\s*[*-]\s*`)
	inlineMark = regexp.MustCompile("[*_`]")
)

// ExtractCommand applies the single-command contract: the response is
// reduced to the one line most likely to be the command, with markdown and
// explanatory prose stripped. Returns "" when no plausible command remains.
func ExtractCommand(text string, shell domain.ShellKind) string {
	text = fenceLine.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "`", "")
	text = boldText.ReplaceAllString(text, "")
	text = bulletMark.ReplaceAllString(text, "")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}

	for _, line := range lines {
		if skippable(line) {
			continue
		}
		line = strings.TrimSpace(inlineMark.ReplaceAllString(line, ""))
		if line == "" || hasSkipPrefix(line) {
			continue
		}
		if posixShell(shell) && !ValidPosix(line) {
			continue
		}
		return line
	}

	// Nothing survived the prose filter; fall back to a known command
	// prefix anywhere in the response.
	for _, line := range lines {
		clean := strings.TrimSpace(inlineMark.ReplaceAllString(line, ""))
		if commandPrefix.MatchString(clean) {
			return clean
		}
	}
	return ""
}

func skippable(line string) bool {
	lower := strings.ToLower(line)
	for _, pattern := range skipSubstrings {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	if strings.HasSuffix(line, ".") || strings.HasSuffix(line, ":") {
		return true
	}
	if len(line) > 200 || len(strings.Fields(line)) > 25 {
		return true
	}
	for _, prefix := range []string{"#", "//", "/*", "<!--"} {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

func hasSkipPrefix(line string) bool {
	lower := strings.ToLower(line)
	for _, prefix := range skipPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

func posixShell(shell domain.ShellKind) bool {
	return shell == domain.ShellBash || shell == domain.ShellZsh
}

func looksLikeCommand(line string) bool {
	return line != "" && commandPrefix.MatchString(line)
}
