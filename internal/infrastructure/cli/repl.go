package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/doeshing/fabsh/internal/app"
	"github.com/doeshing/fabsh/internal/domain"
	"github.com/doeshing/fabsh/internal/services"
)

const helpText = "## Session commands\n\n" +
	"- **cmd <task>** - generate a shell command from a task description\n" +
	"- **run <plugin> [key=value ...]** - run a plugin\n" +
	"- **list [category]** - show available plugins\n" +
	"- **models** - show models on the backend\n" +
	"- **switch <model>** - switch the active model\n" +
	"- **troubleshoot <issue>** - get a troubleshooting guide\n" +
	"- **history [n]** - show learned commands\n" +
	"- **copy** - copy the last proposed command to the clipboard\n" +
	"- **help** - show this help\n" +
	"- **quit** - leave the session\n\n" +
	"Anything else is passed through to your shell."

// REPL is the interactive session loop. One line in, one interaction out.
type REPL struct {
	container *app.Container
	prompter  *Prompter
	renderer  *Renderer
	clipboard *Clipboard
}

// NewREPL builds the session loop over an already-wired container.
func NewREPL(container *app.Container, prompter *Prompter, renderer *Renderer) *REPL {
	return &REPL{
		container: container,
		prompter:  prompter,
		renderer:  renderer,
		clipboard: NewClipboard(),
	}
}

// Run reads and dispatches lines until quit or EOF.
func (r *REPL) Run(ctx context.Context) error {
	r.renderer.ShowNotice(fmt.Sprintf("fabsh session, model %s. Type 'help' for commands.", r.model()))

	for {
		line, err := r.prompter.ReadToken(r.label())
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if line == "" {
			continue
		}
		r.prompter.AppendHistory(line)

		fields := strings.Fields(line)
		verb := strings.ToLower(fields[0])
		args := fields[1:]

		switch verb {
		case "quit", "exit", "q":
			return nil
		case "help", "h":
			r.renderer.ShowMarkdown("Help", helpText)
		case "list", "ls":
			r.listPlugins(firstOr(args, ""))
		case "models":
			r.showModels(ctx)
		case "switch":
			r.switchModel(ctx, firstOr(args, ""))
		case "history", "hist":
			r.showHistory()
		case "run":
			r.runPlugin(ctx, args)
		case "cmd":
			r.generateCommand(ctx, strings.Join(args, " "))
		case "troubleshoot", "fix":
			r.troubleshoot(ctx, strings.Join(args, " "))
		case "copy":
			r.copyLast()
		default:
			r.passthrough(ctx, line)
		}
	}
}

func (r *REPL) label() string {
	model := r.model()
	if idx := strings.IndexByte(model, ':'); idx > 0 {
		model = model[:idx]
	}
	return fmt.Sprintf("fabsh(%s)> ", model)
}

func (r *REPL) model() string {
	return r.container.Config.Backend.DefaultModel
}

func (r *REPL) generateCommand(ctx context.Context, task string) {
	if task == "" {
		var err error
		task, err = r.prompter.ReadLine("Describe task", "")
		if err != nil || task == "" {
			return
		}
	}
	// Pipeline errors were already shown; nothing more to do here.
	_ = r.container.Pipeline.Command(ctx, task)
}

func (r *REPL) troubleshoot(ctx context.Context, issue string) {
	if issue == "" {
		var err error
		issue, err = r.prompter.ReadLine("Describe issue", "")
		if err != nil || issue == "" {
			return
		}
	}
	_ = r.container.Pipeline.Troubleshoot(ctx, issue)
}

func (r *REPL) runPlugin(ctx context.Context, args []string) {
	if len(args) == 0 {
		r.renderer.ShowNotice("Usage: run <plugin> [key=value ...]")
		r.listPlugins("")
		return
	}
	_ = r.container.Pipeline.RunPlugin(ctx, args[0], parseKeyValues(args[1:]))
}

func (r *REPL) listPlugins(category string) {
	specs := r.container.Registry.List(category)
	if len(specs) == 0 {
		r.renderer.ShowNotice("No plugins found.")
		return
	}
	var b strings.Builder
	for _, spec := range specs {
		fmt.Fprintf(&b, "- **%s** (%s) - %s\n", spec.Name, spec.Category, spec.Description)
		for _, example := range spec.Examples {
			fmt.Fprintf(&b, "    - e.g. %s\n", example)
		}
	}
	r.renderer.ShowMarkdown("Plugins", b.String())
}

func (r *REPL) showModels(ctx context.Context) {
	models, err := r.container.Backend.ListModels(ctx)
	if err != nil {
		r.renderer.ShowError(services.DescribeBackendError(err))
		return
	}
	if len(models) == 0 {
		r.renderer.ShowNotice("No models installed on the backend.")
		return
	}
	current := r.model()
	var b strings.Builder
	for _, model := range models {
		marker := " "
		if model == current {
			marker = "*"
		}
		fmt.Fprintf(&b, "%s %s\n", marker, model)
	}
	r.renderer.ShowMarkdown("Models", "```\n"+b.String()+"```")
}

func (r *REPL) switchModel(ctx context.Context, name string) {
	if name == "" {
		r.renderer.ShowNotice("Usage: switch <model>")
		return
	}
	models, err := r.container.Backend.ListModels(ctx)
	if err != nil {
		r.renderer.ShowError(services.DescribeBackendError(err))
		return
	}
	for _, model := range models {
		if model == name {
			r.container.UseModel(name)
			r.renderer.ShowNotice("Switched to model " + name)
			return
		}
	}
	r.renderer.ShowError(fmt.Sprintf("Model %q not available. Try: ollama pull %s", name, name))
}

func (r *REPL) showHistory() {
	entries, err := r.container.History.Recent(20)
	if err != nil {
		r.renderer.ShowError(err.Error())
		return
	}
	if len(entries) == 0 {
		r.renderer.ShowNotice("No learned commands yet.")
		return
	}
	var b strings.Builder
	for _, entry := range entries {
		fmt.Fprintf(&b, "- `%s` (%s, %s)\n    - %s\n",
			entry.Command, entry.Shell, humanize.Time(entry.Timestamp), entry.Task)
	}
	r.renderer.ShowMarkdown("Learned commands", b.String())
}

func (r *REPL) copyLast() {
	command := r.renderer.LastCommand()
	if command == "" {
		r.renderer.ShowNotice("Nothing to copy yet.")
		return
	}
	if err := r.clipboard.Copy(command); err != nil {
		r.renderer.ShowError("Copy failed: " + err.Error())
		return
	}
	r.renderer.ShowNotice("Copied to clipboard.")
}

// passthrough runs an unrecognized line as a shell command. The user typed
// it themselves, so there is no confirmation round.
func (r *REPL) passthrough(ctx context.Context, line string) {
	shell := r.container.Shell.Detect()
	r.renderer.ShowNotice(fmt.Sprintf("Passing through to %s: %s", shell, line))

	result, err := r.container.Runner.Run(ctx, r.container.Shell.InvokeSpec(line, shell))
	if err != nil {
		r.renderer.ShowError("Failed to launch: " + err.Error())
		return
	}
	r.renderer.ShowResult(result)

	if result.Status == domain.ExecFailed {
		answer, err := r.prompter.ReadToken("Analyze and suggest a fix? [y/N]: ")
		if err != nil {
			return
		}
		answer = strings.ToLower(strings.TrimSpace(answer))
		if answer == "y" || answer == "yes" {
			_ = r.container.Pipeline.Fix(ctx, line, line, failureOutput(result))
		}
	}
}

func failureOutput(result domain.ExecutionResult) string {
	if text := strings.TrimSpace(result.Stderr); text != "" {
		return text
	}
	if text := strings.TrimSpace(result.Stdout); text != "" {
		return text
	}
	return fmt.Sprintf("exit code %d with no output", result.ExitCode)
}

func firstOr(args []string, def string) string {
	if len(args) > 0 {
		return args[0]
	}
	return def
}

// parseKeyValues turns ["path=/tmp", "force=true"] into a value map.
// Bare words become the task parameter.
func parseKeyValues(args []string) map[string]string {
	if len(args) == 0 {
		return nil
	}
	values := map[string]string{}
	var bare []string
	for _, arg := range args {
		if key, value, ok := strings.Cut(arg, "="); ok && key != "" {
			values[key] = value
			continue
		}
		bare = append(bare, arg)
	}
	if len(bare) > 0 {
		values["task"] = strings.Join(bare, " ")
	}
	return values
}
