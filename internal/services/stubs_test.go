package services

import (
	"context"
	"io"

	"github.com/doeshing/fabsh/internal/domain"
)

// stubBackend replays canned responses and records every prompt it saw.
type stubBackend struct {
	responses []string
	err       error
	prompts   []string
	contexts  []string
	models    []string
}

func (s *stubBackend) Generate(_ context.Context, prompt, contextText, model string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	s.contexts = append(s.contexts, contextText)
	s.models = append(s.models, model)
	if s.err != nil {
		return "", s.err
	}
	if len(s.responses) == 0 {
		return "", io.EOF
	}
	response := s.responses[0]
	s.responses = s.responses[1:]
	return response, nil
}

func (s *stubBackend) ListModels(context.Context) ([]string, error) { return nil, nil }

func (s *stubBackend) Ping(context.Context) error { return nil }

// stubRunner replays canned results and records the specs it launched.
type stubRunner struct {
	results []domain.ExecutionResult
	err     error
	specs   []domain.InvokeSpec
}

func (s *stubRunner) Run(_ context.Context, spec domain.InvokeSpec) (domain.ExecutionResult, error) {
	s.specs = append(s.specs, spec)
	if s.err != nil {
		return domain.ExecutionResult{}, s.err
	}
	if len(s.results) == 0 {
		return domain.ExecutionResult{Status: domain.ExecSucceeded}, nil
	}
	result := s.results[0]
	s.results = s.results[1:]
	return result, nil
}

// stubInput feeds scripted answers; exhausted scripts return EOF.
type stubInput struct {
	tokens      []string
	lines       []string
	interactive bool
}

func (s *stubInput) ReadToken(string) (string, error) {
	if len(s.tokens) == 0 {
		return "", io.EOF
	}
	token := s.tokens[0]
	s.tokens = s.tokens[1:]
	return token, nil
}

func (s *stubInput) ReadLine(_, def string) (string, error) {
	if len(s.lines) == 0 {
		return def, nil
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	if line == "" {
		return def, nil
	}
	return line, nil
}

func (s *stubInput) Interactive() bool { return s.interactive }

// stubPresenter records everything shown to the user.
type stubPresenter struct {
	commands []domain.CommandCandidate
	markdown []string
	results  []domain.ExecutionResult
	notices  []string
	errors   []string
}

func (s *stubPresenter) ShowCommand(cand domain.CommandCandidate) {
	s.commands = append(s.commands, cand)
}

func (s *stubPresenter) ShowMarkdown(title, _ string) { s.markdown = append(s.markdown, title) }

func (s *stubPresenter) ShowResult(result domain.ExecutionResult) {
	s.results = append(s.results, result)
}

func (s *stubPresenter) ShowNotice(text string) { s.notices = append(s.notices, text) }

func (s *stubPresenter) ShowError(text string) { s.errors = append(s.errors, text) }

// stubHistory records appends and replays canned query results.
type stubHistory struct {
	appended []domain.HistoryEntry
	entries  []domain.HistoryEntry
	err      error
}

func (s *stubHistory) Append(entry domain.HistoryEntry) error {
	if s.err != nil {
		return s.err
	}
	s.appended = append(s.appended, entry)
	return nil
}

func (s *stubHistory) Query(string, int) []domain.HistoryEntry { return s.entries }

func (s *stubHistory) Recent(int) ([]domain.HistoryEntry, error) { return s.entries, nil }

func (s *stubHistory) Clear() error { return nil }

// stubRegistry serves a fixed plugin set.
type stubRegistry struct {
	plugins map[string]domain.PluginSpec
}

func (s *stubRegistry) Get(name string) (domain.PluginSpec, bool) {
	spec, ok := s.plugins[name]
	return spec, ok
}

func (s *stubRegistry) List(string) []domain.PluginSpec {
	var out []domain.PluginSpec
	for _, spec := range s.plugins {
		out = append(out, spec)
	}
	return out
}

func (s *stubRegistry) Categories() map[string][]string { return nil }
