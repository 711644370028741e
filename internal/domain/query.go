package domain

// RenderedPrompt is the final prompt produced for one plugin invocation.
// It is consumed exactly once by the model backend.
type RenderedPrompt struct {
	Prompt  string
	Context string
}

// CommandCandidate is an extracted, not-yet-executed command parsed from a
// model response. Span records the byte offsets of the source text within
// the response.
type CommandCandidate struct {
	Command string
	Shell   ShellKind
	Span    [2]int
}
