// Package domain defines core business entities and value objects for fabsh.
//
// This file contains the plugin model: a named, parameterized task template
// that produces a prompt for the model backend. Plugin specs are immutable
// once loaded; the registry owns them.
package domain

// ParameterKind enumerates supported plugin parameter types.
type ParameterKind string

const (
	ParameterString ParameterKind = "string"
	ParameterFile   ParameterKind = "file"
	ParameterBool   ParameterKind = "bool"
)

// ParameterSpec describes one plugin parameter.
type ParameterSpec struct {
	Key      string        `yaml:"key"`
	Kind     ParameterKind `yaml:"type"`
	Prompt   string        `yaml:"prompt"`
	Required bool          `yaml:"required"`
	Default  string        `yaml:"default"`
}

// PostProcessKind declares what happens to the model response after display.
type PostProcessKind string

const (
	PostProcessNone    PostProcessKind = "none"
	PostProcessExecute PostProcessKind = "execute"
)

// PostProcess is the optional post-processing directive of a plugin.
type PostProcess struct {
	Kind    PostProcessKind `yaml:"type"`
	Confirm bool            `yaml:"confirm"`
}

// PluginSpec is a loaded plugin definition keyed by Name.
type PluginSpec struct {
	Name           string          `yaml:"name"`
	Description    string          `yaml:"description"`
	Category       string          `yaml:"category"`
	Parameters     []ParameterSpec `yaml:"parameters"`
	PromptTemplate string          `yaml:"prompt"`
	ContextTmpl    string          `yaml:"context"`
	PreferredModel string          `yaml:"preferred_model"`
	SingleCommand  bool            `yaml:"single_command"`
	PostProcess    PostProcess     `yaml:"post_process"`
	Examples       []string        `yaml:"examples"`
}

// CommandGenerating reports whether the plugin produces shell commands and
// therefore benefits from learned history context.
func (p PluginSpec) CommandGenerating() bool {
	if p.SingleCommand || p.PostProcess.Kind == PostProcessExecute {
		return true
	}
	switch p.Category {
	case "commands", "automation":
		return true
	}
	return false
}
