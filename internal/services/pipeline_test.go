package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/fabsh/internal/domain"
	"github.com/doeshing/fabsh/internal/pkg/logger"
	"github.com/doeshing/fabsh/internal/prompt"
	"github.com/doeshing/fabsh/internal/shellenv"
)

type pipelineFixture struct {
	pipeline *Pipeline
	backend  *stubBackend
	runner   *stubRunner
	input    *stubInput
	present  *stubPresenter
	history  *stubHistory
	registry *stubRegistry
}

func newPipelineFixture(responses []string, tokens ...string) *pipelineFixture {
	backend := &stubBackend{responses: responses}
	runner := &stubRunner{}
	input := &stubInput{tokens: tokens, interactive: true}
	present := &stubPresenter{}
	history := &stubHistory{}
	registry := &stubRegistry{plugins: map[string]domain.PluginSpec{}}
	shell := shellenv.New("bash")
	renderer := prompt.New(history, 0)

	controller := &Controller{
		Backend:  backend,
		Renderer: renderer,
		Runner:   runner,
		Shell:    shell,
		History:  history,
		Input:    input,
		Present:  present,
		Logger:   logger.NewNop(),
		Model:    "llama3.2",
	}
	pipeline := &Pipeline{
		Config: domain.Config{
			Backend: domain.BackendSettings{DefaultModel: "llama3.2"},
		},
		Registry:   registry,
		Backend:    backend,
		Renderer:   renderer,
		Shell:      shell,
		Input:      input,
		Present:    present,
		Logger:     logger.NewNop(),
		Controller: controller,
		OSContext:  "linux",
	}
	return &pipelineFixture{
		pipeline: pipeline,
		backend:  backend,
		runner:   runner,
		input:    input,
		present:  present,
		history:  history,
		registry: registry,
	}
}

func TestCommandEndToEnd(t *testing.T) {
	fix := newPipelineFixture(
		[]string{"```bash\nls -la\n```"},
		"y", "y", // run it, it accomplished the task
	)

	err := fix.pipeline.Command(context.Background(), "list all files with details")
	require.NoError(t, err)

	require.Len(t, fix.backend.prompts, 1)
	assert.Contains(t, fix.backend.prompts[0], "list all files with details")
	assert.Contains(t, fix.backend.prompts[0], "bash")

	require.Len(t, fix.runner.specs, 1)
	assert.Equal(t, []string{"bash", "-c", "ls -la"}, fix.runner.specs[0].Argv)

	require.Len(t, fix.history.appended, 1)
	assert.Equal(t, "list all files with details", fix.history.appended[0].Task)
	assert.Equal(t, domain.OutcomeConfirmedSuccess, fix.history.appended[0].Outcome)
}

func TestCommandDeclinedNeverRuns(t *testing.T) {
	fix := newPipelineFixture([]string{"```bash\nrm -rf /tmp/scratch\n```"}, "n")

	err := fix.pipeline.Command(context.Background(), "clean scratch dir")
	require.NoError(t, err)

	assert.Empty(t, fix.runner.specs)
	assert.Empty(t, fix.history.appended)
}

func TestCommandBackendErrorSurfacesRemedy(t *testing.T) {
	fix := newPipelineFixture(nil)
	fix.backend.err = &domain.BackendError{
		Kind:   domain.BackendUnreachable,
		Remedy: "start the backend with 'ollama serve'",
	}

	err := fix.pipeline.Command(context.Background(), "list files")
	require.Error(t, err)

	require.NotEmpty(t, fix.present.errors)
	assert.Contains(t, fix.present.errors[0], "ollama serve")
	assert.Empty(t, fix.runner.specs)
}

func TestCommandNoExtractableCommand(t *testing.T) {
	fix := newPipelineFixture([]string{"I cannot determine a safe way to do that."})

	err := fix.pipeline.Command(context.Background(), "do something vague")
	require.NoError(t, err)

	assert.NotEmpty(t, fix.present.notices)
	assert.Contains(t, fix.present.markdown, "Response")
	assert.Empty(t, fix.runner.specs)
}

func TestCommandFailureOffersFix(t *testing.T) {
	fix := newPipelineFixture(
		[]string{
			"```bash\ncat /etc/shadow-copy\n```",
			"```bash\nsudo cat /etc/shadow-copy\n```",
		},
		"y",      // run the first command
		"y",      // yes, generate a corrected command
		"y", "y", // run the fix, it worked
	)
	fix.runner.results = []domain.ExecutionResult{
		{Status: domain.ExecFailed, ExitCode: 1, Stderr: "Permission denied"},
		{Status: domain.ExecSucceeded},
	}

	err := fix.pipeline.Command(context.Background(), "show the shadow copy")
	require.NoError(t, err)

	require.Len(t, fix.backend.prompts, 2)
	assert.Contains(t, fix.backend.prompts[1], "Permission denied")
	assert.Contains(t, fix.backend.prompts[1], "cat /etc/shadow-copy")

	require.Len(t, fix.runner.specs, 2)
	assert.Equal(t, "sudo cat /etc/shadow-copy", fix.runner.specs[1].Argv[2])

	require.Len(t, fix.history.appended, 1)
	assert.Equal(t, "Fixed: show the shadow copy", fix.history.appended[0].Task)
}

func TestCommandUnsatisfiedOffersAlternative(t *testing.T) {
	fix := newPipelineFixture(
		[]string{
			"```bash\ndu -sh .\n```",
			"```bash\ndu -sh */ | sort -h\n```",
		},
		"y", "n", // run it, but it did not accomplish the task
		"y",      // yes, generate an alternative
		"y", "y", // run the alternative, it worked
	)
	fix.runner.results = []domain.ExecutionResult{
		{Status: domain.ExecSucceeded, Stdout: "1.2G\t.\n"},
		{Status: domain.ExecSucceeded},
	}

	err := fix.pipeline.Command(context.Background(), "show disk usage per folder")
	require.NoError(t, err)

	require.Len(t, fix.backend.prompts, 2)
	assert.Contains(t, fix.backend.prompts[1], "du -sh .")
	assert.Contains(t, fix.backend.prompts[1], "1.2G")

	require.Len(t, fix.runner.specs, 2)
	require.Len(t, fix.history.appended, 1)
	assert.Equal(t, "Alternative: show disk usage per folder", fix.history.appended[0].Task)
}

func TestCommandFixDeclined(t *testing.T) {
	fix := newPipelineFixture(
		[]string{"```bash\nfalse\n```"},
		"y", // run it
		"n", // no fix wanted
	)
	fix.runner.results = []domain.ExecutionResult{{Status: domain.ExecFailed, ExitCode: 1}}

	err := fix.pipeline.Command(context.Background(), "fail on purpose")
	require.NoError(t, err)

	assert.Len(t, fix.backend.prompts, 1)
	assert.Len(t, fix.runner.specs, 1)
}

func TestRunPluginUnknown(t *testing.T) {
	fix := newPipelineFixture(nil)

	err := fix.pipeline.RunPlugin(context.Background(), "no_such_plugin", nil)
	require.Error(t, err)
	assert.NotEmpty(t, fix.present.errors)
}

func TestRunPluginAnalysis(t *testing.T) {
	fix := newPipelineFixture([]string{"## Findings\nAll good."})
	fix.registry.plugins["code_review"] = domain.PluginSpec{
		Name:     "code_review",
		Category: "analysis",
		Parameters: []domain.ParameterSpec{
			{Key: "focus", Kind: domain.ParameterString, Default: "general"},
		},
		PromptTemplate: "Review with focus on {focus}.",
	}
	fix.input.lines = []string{"security"}

	err := fix.pipeline.RunPlugin(context.Background(), "code_review", nil)
	require.NoError(t, err)

	require.Len(t, fix.backend.prompts, 1)
	assert.Equal(t, "Review with focus on security.", fix.backend.prompts[0])
	assert.Contains(t, fix.present.markdown, "code_review")
	assert.Empty(t, fix.runner.specs, "analysis plugins never execute")
}

func TestRunPluginCommandGenerating(t *testing.T) {
	fix := newPipelineFixture(
		[]string{"```bash\ntar czf backup.tar.gz docs/\n```"},
		"y", "y",
	)
	fix.registry.plugins["backup"] = domain.PluginSpec{
		Name:          "backup",
		Category:      "automation",
		SingleCommand: true,
		Parameters: []domain.ParameterSpec{
			{Key: "task", Kind: domain.ParameterString, Prompt: "What to back up", Required: true},
			{Key: "shell", Kind: domain.ParameterString, Required: true},
		},
		PromptTemplate: "Generate a {shell} backup command: {task}",
		PostProcess:    domain.PostProcess{Kind: domain.PostProcessExecute, Confirm: true},
	}
	fix.input.lines = []string{"the docs folder"}

	err := fix.pipeline.RunPlugin(context.Background(), "backup", nil)
	require.NoError(t, err)

	require.Len(t, fix.backend.prompts, 1)
	assert.Contains(t, fix.backend.prompts[0], "the docs folder")
	assert.Contains(t, fix.backend.prompts[0], "bash")

	require.Len(t, fix.runner.specs, 1)
	require.Len(t, fix.history.appended, 1)
	assert.Equal(t, "the docs folder", fix.history.appended[0].Task)
}

func TestRunPluginScriptExecutesFullBlock(t *testing.T) {
	script := "set -e\nmkdir -p /tmp/backup\ntar czf /tmp/backup/docs.tar.gz docs/"
	fix := newPipelineFixture(
		[]string{"```bash\n" + script + "\n```"},
		"y", "y",
	)
	fix.registry.plugins["backup_script"] = domain.PluginSpec{
		Name:           "backup_script",
		Category:       "automation",
		PromptTemplate: "Write a backup script.",
		PostProcess:    domain.PostProcess{Kind: domain.PostProcessExecute, Confirm: true},
	}

	err := fix.pipeline.RunPlugin(context.Background(), "backup_script", nil)
	require.NoError(t, err)

	require.Len(t, fix.runner.specs, 1)
	assert.Equal(t, script, fix.runner.specs[0].Argv[2], "fenced block body runs verbatim")
}

func TestRunPluginHonorsFenceLanguageTag(t *testing.T) {
	fix := newPipelineFixture(
		[]string{"```powershell\nGet-ChildItem | Measure-Object\n```"},
		"y", "y",
	)
	fix.registry.plugins["count_files"] = domain.PluginSpec{
		Name:           "count_files",
		Category:       "automation",
		PromptTemplate: "Count files in the current directory.",
		PostProcess:    domain.PostProcess{Kind: domain.PostProcessExecute, Confirm: true},
	}

	err := fix.pipeline.RunPlugin(context.Background(), "count_files", nil)
	require.NoError(t, err)

	require.Len(t, fix.present.commands, 1)
	assert.Equal(t, domain.ShellPowerShell, fix.present.commands[0].Shell)

	require.Len(t, fix.runner.specs, 1)
	argv := fix.runner.specs[0].Argv
	assert.Equal(t, "powershell", argv[0], "tagged block runs under its own shell, not the session shell")
	assert.Contains(t, argv, "-NoProfile")
	assert.Equal(t, "Get-ChildItem | Measure-Object", argv[len(argv)-1])
}

func TestRunPluginTrustedExecuteSkipsConfirmation(t *testing.T) {
	fix := newPipelineFixture(
		[]string{"```bash\ndate -u\n```"},
		"y", // only the learning answer; no confirmation round
	)
	fix.registry.plugins["show_date"] = domain.PluginSpec{
		Name:           "show_date",
		Category:       "automation",
		PromptTemplate: "Print the current UTC date.",
		PostProcess:    domain.PostProcess{Kind: domain.PostProcessExecute, Confirm: false},
	}

	err := fix.pipeline.RunPlugin(context.Background(), "show_date", nil)
	require.NoError(t, err)

	require.Len(t, fix.runner.specs, 1)
	require.Len(t, fix.present.commands, 1, "command is still shown before it runs")
	require.Len(t, fix.history.appended, 1, "the single token answered the learning question")
}

func TestRunPluginShellFilledAutomatically(t *testing.T) {
	fix := newPipelineFixture([]string{"done"})
	fix.registry.plugins["shell_probe"] = domain.PluginSpec{
		Name:           "shell_probe",
		Category:       "analysis",
		Parameters:     []domain.ParameterSpec{{Key: "shell", Kind: domain.ParameterString, Required: true}},
		PromptTemplate: "Target shell: {shell}",
	}

	err := fix.pipeline.RunPlugin(context.Background(), "shell_probe", nil)
	require.NoError(t, err)

	require.Len(t, fix.backend.prompts, 1)
	assert.Equal(t, "Target shell: bash", fix.backend.prompts[0])
}

func TestRunPluginNonInteractiveMissingRequired(t *testing.T) {
	fix := newPipelineFixture(nil)
	fix.input.interactive = false
	fix.registry.plugins["needs_input"] = domain.PluginSpec{
		Name:           "needs_input",
		Category:       "analysis",
		Parameters:     []domain.ParameterSpec{{Key: "topic", Kind: domain.ParameterString, Required: true}},
		PromptTemplate: "About {topic}",
	}

	err := fix.pipeline.RunPlugin(context.Background(), "needs_input", nil)
	require.Error(t, err)
	assert.Empty(t, fix.backend.prompts, "parameter errors never reach the backend")
}

func TestTroubleshoot(t *testing.T) {
	fix := newPipelineFixture([]string{"## Likely causes\n1. Port already in use."})

	err := fix.pipeline.Troubleshoot(context.Background(), "nginx will not start")
	require.NoError(t, err)

	require.Len(t, fix.backend.prompts, 1)
	assert.Contains(t, fix.backend.prompts[0], "nginx will not start")
	assert.Contains(t, fix.backend.prompts[0], "linux")
	assert.Contains(t, fix.present.markdown, "Troubleshooting Guide")
	assert.Empty(t, fix.runner.specs)
}

func TestPreferredModelOverride(t *testing.T) {
	fix := newPipelineFixture([]string{"ok"})
	fix.registry.plugins["heavy"] = domain.PluginSpec{
		Name:           "heavy",
		Category:       "analysis",
		PreferredModel: "codellama",
		PromptTemplate: "static prompt",
	}

	err := fix.pipeline.RunPlugin(context.Background(), "heavy", nil)
	require.NoError(t, err)

	require.Len(t, fix.backend.models, 1)
	assert.Equal(t, "codellama", fix.backend.models[0])
}
