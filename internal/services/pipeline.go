package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/doeshing/fabsh/internal/domain"
	"github.com/doeshing/fabsh/internal/extract"
	"github.com/doeshing/fabsh/internal/ports"
	"github.com/doeshing/fabsh/internal/prompt"
)

// Pipeline implements the user-facing operations: natural-language command
// generation, plugin runs, and troubleshooting. It renders prompts, calls
// the backend, extracts commands, and hands candidates to the controller.
type Pipeline struct {
	Config     domain.Config
	Registry   ports.PluginRegistry
	Backend    ports.ModelBackend
	Renderer   *prompt.Renderer
	Shell      ports.ShellDetector
	Input      ports.InputReader
	Present    ports.Presenter
	Logger     ports.Logger
	Controller *Controller

	// OSContext describes the host for troubleshooting prompts, e.g.
	// "linux (Ubuntu 24.04)".
	OSContext string
}

// Command turns a natural-language task into one shell command and drives
// it through the controller. Failed or unsatisfying runs get one follow-up
// round (fix or alternative).
func (p *Pipeline) Command(ctx context.Context, task string) error {
	shell := p.Shell.Detect()
	spec := prompt.CommandSpec()

	response, err := p.generate(ctx, spec, map[string]string{
		"task":          task,
		"shell":         string(shell),
		"shell_context": prompt.ShellContext(shell),
	})
	if err != nil {
		return err
	}

	cand, ok := p.candidateFrom(spec, response, shell)
	if !ok {
		p.Present.ShowNotice("No runnable command found in the response.")
		p.Present.ShowMarkdown("Response", response)
		return nil
	}

	inter, err := p.Controller.Confirm(ctx, task, cand)
	if err != nil {
		return err
	}
	return p.followUp(ctx, task, cand.Command, cand.Shell, inter)
}

// candidateFrom picks the runnable candidate for a command-generating
// spec. Single-command specs reduce the response to one line under the
// session shell; script specs take the first fenced block verbatim and
// honor its language tag, so a tagged powershell block is invoked as
// powershell even in a bash session.
func (p *Pipeline) candidateFrom(spec domain.PluginSpec, response string, shell domain.ShellKind) (domain.CommandCandidate, bool) {
	if spec.SingleCommand {
		command := extract.ExtractCommand(response, shell)
		if command == "" {
			return domain.CommandCandidate{}, false
		}
		return domain.CommandCandidate{Command: command, Shell: shell}, true
	}

	for _, cand := range extract.Extract(response, shell) {
		if cand.Shell != domain.ShellUnknown {
			return cand, true
		}
	}

	// No fenced shell block; the response may still be a bare command line.
	if command := extract.ExtractCommand(response, shell); command != "" {
		return domain.CommandCandidate{Command: command, Shell: shell}, true
	}
	return domain.CommandCandidate{}, false
}

// followUp offers one corrective round: a fixed command after a failure, or
// an alternative approach after a run the user judged unsuccessful.
func (p *Pipeline) followUp(ctx context.Context, task, command string, shell domain.ShellKind, inter Interaction) error {
	switch {
	case inter.State == domain.StateFailed || inter.State == domain.StateTimedOut:
		if !p.confirm("Generate a corrected command? [y/N]: ") {
			return nil
		}
		return p.regenerate(ctx, "Fixed: "+task, prompt.FixSpec(), map[string]string{
			"task":    task,
			"command": command,
			"error":   errorText(inter.Result),
			"shell":   string(shell),
		}, shell)

	case inter.State == domain.StateSucceeded && !inter.Accomplished:
		if !p.confirm("Generate an alternative approach? [y/N]: ") {
			return nil
		}
		values := map[string]string{
			"task":    task,
			"command": command,
			"shell":   string(shell),
		}
		if out := strings.TrimSpace(inter.Result.Stdout); out != "" {
			values["output"] = out
		}
		return p.regenerate(ctx, "Alternative: "+task, prompt.AlternativeSpec(), values, shell)
	}
	return nil
}

func (p *Pipeline) regenerate(ctx context.Context, task string, spec domain.PluginSpec, values map[string]string, shell domain.ShellKind) error {
	response, err := p.generate(ctx, spec, values)
	if err != nil {
		return err
	}
	cand, ok := p.candidateFrom(spec, response, shell)
	if !ok {
		p.Present.ShowNotice("No runnable command found in the response.")
		p.Present.ShowMarkdown("Response", response)
		return nil
	}
	_, err = p.Controller.Confirm(ctx, task, cand)
	return err
}

// Fix asks for a corrected version of a failed command and drives the
// result through the controller. Used when a command the user typed
// directly fails.
func (p *Pipeline) Fix(ctx context.Context, task, command, errOutput string) error {
	shell := p.Shell.Detect()
	return p.regenerate(ctx, "Fixed: "+task, prompt.FixSpec(), map[string]string{
		"task":    task,
		"command": command,
		"error":   errOutput,
		"shell":   string(shell),
	}, shell)
}

// RunPlugin resolves a plugin by name, collects its parameters, and either
// hands the extracted command to the controller or renders the analysis.
func (p *Pipeline) RunPlugin(ctx context.Context, name string, provided map[string]string) error {
	spec, ok := p.Registry.Get(name)
	if !ok {
		p.Present.ShowError(fmt.Sprintf("Unknown plugin %q. Use 'list' to see available plugins.", name))
		return fmt.Errorf("unknown plugin %q", name)
	}

	shell := p.Shell.Detect()
	values, err := p.collectParameters(spec, provided, shell)
	if err != nil {
		p.Present.ShowError(err.Error())
		return err
	}

	response, err := p.generate(ctx, spec, values)
	if err != nil {
		return err
	}

	if spec.CommandGenerating() {
		cand, ok := p.candidateFrom(spec, response, shell)
		if !ok {
			p.Present.ShowNotice("No runnable command found in the response.")
			p.Present.ShowMarkdown(spec.Name, response)
			return nil
		}

		task := pluginTask(spec, values)
		var inter Interaction
		if spec.PostProcess.Kind == domain.PostProcessExecute && !spec.PostProcess.Confirm {
			// Trusted plugin: post_process opted out of confirmation.
			inter, err = p.Controller.Run(ctx, task, cand)
		} else {
			inter, err = p.Controller.Confirm(ctx, task, cand)
		}
		if err != nil {
			return err
		}
		return p.followUp(ctx, task, cand.Command, cand.Shell, inter)
	}

	p.Present.ShowMarkdown(spec.Name, response)
	return nil
}

// Troubleshoot renders the analysis prompt for an issue description and
// shows the backend's guide. Diagnostic commands in the guide are not
// auto-executed.
func (p *Pipeline) Troubleshoot(ctx context.Context, issue string) error {
	shell := p.Shell.Detect()
	response, err := p.generate(ctx, prompt.TroubleshootSpec(), map[string]string{
		"issue": issue,
		"os":    p.OSContext,
		"shell": string(shell),
	})
	if err != nil {
		return err
	}
	p.Present.ShowMarkdown("Troubleshooting Guide", response)
	return nil
}

// generate renders the prompt and calls the backend, translating failures
// into presenter output. A parameter error never reaches the backend.
func (p *Pipeline) generate(ctx context.Context, spec domain.PluginSpec, values map[string]string) (string, error) {
	rendered, err := p.Renderer.Render(spec, values)
	if err != nil {
		p.Present.ShowError(err.Error())
		return "", err
	}
	response, err := p.Backend.Generate(ctx, rendered.Prompt, rendered.Context, p.modelFor(spec))
	if err != nil {
		p.Present.ShowError(DescribeBackendError(err))
		return "", err
	}
	return response, nil
}

func (p *Pipeline) modelFor(spec domain.PluginSpec) string {
	if spec.PreferredModel != "" {
		return spec.PreferredModel
	}
	return p.Config.Backend.DefaultModel
}

// collectParameters merges provided values with interactively prompted
// ones. Shell-typed parameters default to the detected shell so plugins
// rarely need to ask.
func (p *Pipeline) collectParameters(spec domain.PluginSpec, provided map[string]string, shell domain.ShellKind) (map[string]string, error) {
	values := make(map[string]string, len(spec.Parameters))
	for key, value := range provided {
		values[key] = value
	}

	for _, param := range spec.Parameters {
		if _, ok := values[param.Key]; ok {
			continue
		}
		if param.Key == "shell" || param.Key == "script_type" {
			values[param.Key] = string(shell)
			continue
		}
		if param.Key == "shell_context" {
			values[param.Key] = prompt.ShellContext(shell)
			continue
		}
		if !p.Input.Interactive() {
			if param.Default != "" || !param.Required {
				continue
			}
			return nil, fmt.Errorf("plugin %q: parameter %q required but session is non-interactive", spec.Name, param.Key)
		}

		value, err := p.promptParameter(param)
		if err != nil {
			return nil, err
		}
		if value != "" {
			values[param.Key] = value
		}
	}
	return values, nil
}

func (p *Pipeline) promptParameter(param domain.ParameterSpec) (string, error) {
	label := param.Prompt
	if label == "" {
		label = param.Key
	}

	switch param.Kind {
	case domain.ParameterFile:
		path, err := p.Input.ReadLine(label+" (file path)", param.Default)
		if err != nil {
			return "", err
		}
		if path == "" {
			return "", nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
		return string(data), nil

	case domain.ParameterBool:
		answer, err := p.Input.ReadToken(label + " [y/N]: ")
		if err != nil {
			return "", err
		}
		answer = strings.ToLower(strings.TrimSpace(answer))
		if answer == "y" || answer == "yes" {
			return "true", nil
		}
		return "false", nil

	default:
		return p.Input.ReadLine(label, param.Default)
	}
}

func (p *Pipeline) confirm(label string) bool {
	if !p.Input.Interactive() {
		return false
	}
	answer, err := p.Input.ReadToken(label)
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

// pluginTask builds the history/learning label for a plugin invocation.
func pluginTask(spec domain.PluginSpec, values map[string]string) string {
	if task, ok := values["task"]; ok && task != "" {
		return task
	}
	return spec.Name
}

// errorText picks the most useful failure output for a fix prompt.
func errorText(result domain.ExecutionResult) string {
	if text := strings.TrimSpace(result.Stderr); text != "" {
		return text
	}
	if text := strings.TrimSpace(result.Stdout); text != "" {
		return text
	}
	if result.Status == domain.ExecTimedOut {
		return "command timed out"
	}
	return fmt.Sprintf("exit code %d with no output", result.ExitCode)
}

// DescribeBackendError formats a backend failure with its remedy hint for
// the terminal.
func DescribeBackendError(err error) string {
	var backendErr *domain.BackendError
	if errors.As(err, &backendErr) {
		if backendErr.Remedy != "" {
			return fmt.Sprintf("%v\nTry: %s", backendErr, backendErr.Remedy)
		}
		return backendErr.Error()
	}
	return err.Error()
}
