// Package prompt renders plugin templates into final prompts for the model
// backend, enriching command-generation tasks with learned history.
package prompt

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/doeshing/fabsh/internal/domain"
	"github.com/doeshing/fabsh/internal/ports"
)

// DefaultContextLimit bounds the number of history entries injected into a
// prompt.
const DefaultContextLimit = 3

var placeholder = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// Renderer substitutes plugin parameters and historical context into prompt
// templates. Rendering is a pure function over its inputs plus a read of
// the history store.
type Renderer struct {
	History      ports.HistoryStore
	ContextLimit int
}

// New builds a Renderer. history may be nil, which disables context
// enrichment.
func New(history ports.HistoryStore, contextLimit int) *Renderer {
	if contextLimit <= 0 {
		contextLimit = DefaultContextLimit
	}
	return &Renderer{History: history, ContextLimit: contextLimit}
}

// Render produces the final prompt for one plugin invocation. It fails with
// *domain.ParameterError when a referenced placeholder has neither a value
// nor a default; the caller must not contact the backend in that case.
func (r *Renderer) Render(spec domain.PluginSpec, values map[string]string) (domain.RenderedPrompt, error) {
	merged := mergeDefaults(spec, values)

	prompt, err := substitute(spec.Name, spec.PromptTemplate, merged)
	if err != nil {
		return domain.RenderedPrompt{}, err
	}
	contextText, err := substitute(spec.Name, spec.ContextTmpl, merged)
	if err != nil {
		return domain.RenderedPrompt{}, err
	}

	if spec.CommandGenerating() {
		if block := r.historyBlock(taskText(spec, merged)); block != "" {
			if contextText != "" {
				contextText += "\n\n"
			}
			contextText += block
		}
	}

	return domain.RenderedPrompt{Prompt: prompt, Context: contextText}, nil
}

func mergeDefaults(spec domain.PluginSpec, values map[string]string) map[string]string {
	merged := make(map[string]string, len(values)+len(spec.Parameters))
	for _, param := range spec.Parameters {
		if param.Default != "" {
			merged[param.Key] = param.Default
		}
	}
	for key, value := range values {
		merged[key] = value
	}
	return merged
}

func substitute(plugin, template string, values map[string]string) (string, error) {
	var missing string
	out := placeholder.ReplaceAllStringFunc(template, func(match string) string {
		key := match[1 : len(match)-1]
		value, ok := values[key]
		if !ok {
			if missing == "" {
				missing = key
			}
			return match
		}
		return value
	})
	if missing != "" {
		return "", &domain.ParameterError{Plugin: plugin, Key: missing}
	}
	return out, nil
}

// taskText picks the string used for history similarity lookup: the task
// parameter when present, otherwise the remaining parameter values.
func taskText(spec domain.PluginSpec, values map[string]string) string {
	if task, ok := values["task"]; ok && task != "" {
		return task
	}
	var parts []string
	for _, param := range spec.Parameters {
		if value := values[param.Key]; value != "" {
			parts = append(parts, value)
		}
	}
	if len(parts) == 0 {
		return spec.Name
	}
	return strings.Join(parts, " ")
}

func (r *Renderer) historyBlock(task string) string {
	if r.History == nil || task == "" {
		return ""
	}
	entries := r.History.Query(task, r.ContextLimit)
	if len(entries) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Previously successful commands for similar tasks:\n")
	for _, entry := range entries {
		fmt.Fprintf(&b, "- Task: %s\n  Command: %s (%s)\n", entry.Task, entry.Command, entry.Shell)
	}
	b.WriteString("Prefer consistent approaches with these when applicable.")
	return b.String()
}
