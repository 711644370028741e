package prompt

import "github.com/doeshing/fabsh/internal/domain"

// Shell-specific wording injected into the one-liner template.
var shellContexts = map[domain.ShellKind]string{
	domain.ShellPowerShell: "PowerShell cmdlets",
	domain.ShellBash:       "bash/Unix utilities",
	domain.ShellZsh:        "zsh/Unix utilities",
	domain.ShellFish:       "fish shell commands",
	domain.ShellCmd:        "Windows CMD commands",
}

// ShellContext describes the target shell for prompt text.
func ShellContext(shell domain.ShellKind) string {
	if ctx, ok := shellContexts[shell]; ok {
		return ctx
	}
	return "shell commands"
}

// CommandSpec is the built-in one-liner generation plugin used by the cmd
// operation.
func CommandSpec() domain.PluginSpec {
	return domain.PluginSpec{
		Name:          "cmd_generator",
		Description:   "Generate a single shell command from a task description",
		Category:      "commands",
		SingleCommand: true,
		Parameters: []domain.ParameterSpec{
			{Key: "task", Kind: domain.ParameterString, Prompt: "Describe task", Required: true},
			{Key: "shell", Kind: domain.ParameterString, Required: true},
			{Key: "shell_context", Kind: domain.ParameterString, Required: true},
		},
		PromptTemplate: `Generate a single-line {shell_context} command to: {task}

Requirements:
- Single line only
- Use {shell} syntax
- Production-ready and safe
- Respond with ONLY the command (no explanation/markdown)`,
		PostProcess: domain.PostProcess{Kind: domain.PostProcessExecute, Confirm: true},
	}
}

// ExplainSpec is the secondary prompt issued when the user answers
// "explain" during confirmation.
func ExplainSpec() domain.PluginSpec {
	return domain.PluginSpec{
		Name:     "explain_command",
		Category: "analysis",
		Parameters: []domain.ParameterSpec{
			{Key: "command", Kind: domain.ParameterString, Required: true},
			{Key: "shell", Kind: domain.ParameterString, Required: true},
		},
		PromptTemplate: `Explain in plain language what this {shell} command does, step by step:

{command}

Keep it short. Mention anything destructive or irreversible explicitly.`,
	}
}

// TroubleshootSpec is the analysis prompt for the troubleshoot operation.
func TroubleshootSpec() domain.PluginSpec {
	return domain.PluginSpec{
		Name:     "troubleshoot",
		Category: "analysis",
		Parameters: []domain.ParameterSpec{
			{Key: "issue", Kind: domain.ParameterString, Prompt: "Describe issue", Required: true},
			{Key: "os", Kind: domain.ParameterString, Default: "unknown"},
			{Key: "shell", Kind: domain.ParameterString, Default: "unknown"},
		},
		PromptTemplate: `Analyze and troubleshoot the following issue:

## Issue Description
{issue}

## System Context
- OS: {os}
- Shell: {shell}

Provide likely causes, diagnostic commands, step-by-step solutions ranked
by likelihood, and prevention tips. Use code blocks for commands.`,
	}
}

// FixSpec asks for a corrected command after a non-zero exit.
func FixSpec() domain.PluginSpec {
	return domain.PluginSpec{
		Name:          "fix_command",
		Category:      "commands",
		SingleCommand: true,
		Parameters: []domain.ParameterSpec{
			{Key: "task", Kind: domain.ParameterString, Required: true},
			{Key: "command", Kind: domain.ParameterString, Required: true},
			{Key: "error", Kind: domain.ParameterString, Required: true},
			{Key: "shell", Kind: domain.ParameterString, Required: true},
		},
		PromptTemplate: `A {shell} command failed. Analyze the error and provide a corrected command.

## Original Task
{task}

## Failed Command
` + "```{shell}\n{command}\n```" + `

## Error Output
` + "```\n{error}\n```" + `

Requirements:
- Single line command only
- Use {shell} syntax
- Respond with ONLY the corrected command (no explanation/markdown)`,
		PostProcess: domain.PostProcess{Kind: domain.PostProcessExecute, Confirm: true},
	}
}

// AlternativeSpec asks for a different approach after the user reports the
// previous command did not achieve the goal.
func AlternativeSpec() domain.PluginSpec {
	return domain.PluginSpec{
		Name:          "alternative_command",
		Category:      "commands",
		SingleCommand: true,
		Parameters: []domain.ParameterSpec{
			{Key: "task", Kind: domain.ParameterString, Required: true},
			{Key: "command", Kind: domain.ParameterString, Required: true},
			{Key: "output", Kind: domain.ParameterString, Default: "No output"},
			{Key: "shell", Kind: domain.ParameterString, Required: true},
		},
		PromptTemplate: `The previous command did not accomplish the user's goal. Generate an alternative approach.

## Original Task
{task}

## Previous Command (did not work as expected)
` + "```{shell}\n{command}\n```" + `

## Previous Output
` + "```\n{output}\n```" + `

Requirements:
- Use a completely different method if possible
- Single line command only
- Use {shell} syntax
- Respond with ONLY the command (no explanation/markdown)`,
		PostProcess: domain.PostProcess{Kind: domain.PostProcessExecute, Confirm: true},
	}
}
