// Package services holds the application core: the execution controller
// state machine and the request pipeline that ties plugins, the model
// backend, extraction, and execution together.
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/doeshing/fabsh/internal/domain"
	"github.com/doeshing/fabsh/internal/ports"
	"github.com/doeshing/fabsh/internal/prompt"
)

// Interaction is the terminal record of one controller pass over a
// proposed command.
type Interaction struct {
	State  domain.ControllerState
	Result domain.ExecutionResult

	// Accomplished is set when the command ran to completion and the user
	// confirmed it achieved the task. Only then is the pairing learned.
	Accomplished bool
}

// Controller drives a proposed command through confirmation, optional
// explanation, execution, and learning. Exactly one command runs per
// interaction, and only after an explicit "y".
type Controller struct {
	Backend  ports.ModelBackend
	Renderer *prompt.Renderer
	Runner   ports.CommandRunner
	Shell    ports.ShellDetector
	History  ports.HistoryStore
	Input    ports.InputReader
	Present  ports.Presenter
	Logger   ports.Logger

	Model         string
	LearnFailures bool
}

// Confirm walks the state machine for one candidate. The zero-value answer
// (empty line, EOF, anything but y) discards the command without running
// it. "e" fetches an explanation from the backend once, then re-asks.
func (c *Controller) Confirm(ctx context.Context, task string, cand domain.CommandCandidate) (Interaction, error) {
	c.Present.ShowCommand(cand)

	if !c.Input.Interactive() {
		c.Present.ShowNotice("Non-interactive session; command not executed.")
		return Interaction{State: domain.StateDiscarded}, nil
	}

	state := domain.StateProposed
	for {
		answer, err := c.ask(state)
		if err != nil {
			return Interaction{State: domain.StateDiscarded}, nil
		}
		switch answer {
		case "y", "yes":
			state = domain.StateConfirmed
		case "e", "explain":
			if state == domain.StateExplained {
				continue
			}
			c.explain(ctx, cand)
			state = domain.StateExplained
			continue
		default:
			c.Present.ShowNotice("Command discarded.")
			return Interaction{State: domain.StateDiscarded}, nil
		}
		break
	}

	return c.execute(ctx, task, cand)
}

// Run executes a pre-approved candidate, skipping the confirmation round.
// Used for plugins whose post_process declares confirm: false.
func (c *Controller) Run(ctx context.Context, task string, cand domain.CommandCandidate) (Interaction, error) {
	c.Present.ShowCommand(cand)
	return c.execute(ctx, task, cand)
}

func (c *Controller) execute(ctx context.Context, task string, cand domain.CommandCandidate) (Interaction, error) {
	result, err := c.Runner.Run(ctx, c.Shell.InvokeSpec(cand.Command, cand.Shell))
	if err != nil {
		c.Present.ShowError(fmt.Sprintf("Failed to launch command: %v", err))
		return Interaction{State: domain.StateFailed}, err
	}
	c.Present.ShowResult(result)

	switch result.Status {
	case domain.ExecSucceeded:
		return c.afterSuccess(task, cand, result), nil
	case domain.ExecTimedOut:
		c.learnFailure(task, cand)
		return Interaction{State: domain.StateTimedOut, Result: result}, nil
	case domain.ExecCancelled:
		return Interaction{State: domain.StateCancelled, Result: result}, nil
	default:
		c.learnFailure(task, cand)
		return Interaction{State: domain.StateFailed, Result: result}, nil
	}
}

func (c *Controller) ask(state domain.ControllerState) (string, error) {
	label := "Run this command? [y/N/e(xplain)]: "
	if state == domain.StateExplained {
		label = "Run this command? [y/N]: "
	}
	answer, err := c.Input.ReadToken(label)
	if err != nil {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(answer)), nil
}

// explain renders the explanation prompt and shows the backend's answer.
// Backend failures are reported but leave the confirmation loop intact.
func (c *Controller) explain(ctx context.Context, cand domain.CommandCandidate) {
	rendered, err := c.Renderer.Render(prompt.ExplainSpec(), map[string]string{
		"command": cand.Command,
		"shell":   string(cand.Shell),
	})
	if err != nil {
		c.Present.ShowError(fmt.Sprintf("Cannot build explanation prompt: %v", err))
		return
	}
	text, err := c.Backend.Generate(ctx, rendered.Prompt, rendered.Context, c.Model)
	if err != nil {
		c.Present.ShowError(DescribeBackendError(err))
		return
	}
	c.Present.ShowMarkdown("Explanation", text)
}

// afterSuccess asks whether the command actually achieved the task. Only
// an explicit yes persists the pairing; any other answer leaves history
// untouched.
func (c *Controller) afterSuccess(task string, cand domain.CommandCandidate, result domain.ExecutionResult) Interaction {
	answer, err := c.Input.ReadToken("Did the command accomplish your task? [y/N]: ")
	if err != nil {
		return Interaction{State: domain.StateSucceeded, Result: result}
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	if answer != "y" && answer != "yes" {
		return Interaction{State: domain.StateSucceeded, Result: result}
	}

	entry := domain.HistoryEntry{
		Task:    task,
		Command: cand.Command,
		Shell:   cand.Shell,
		Outcome: domain.OutcomeConfirmedSuccess,
	}
	if err := c.History.Append(entry); err != nil {
		c.Logger.Warn("history append failed", map[string]interface{}{"error": err.Error()})
		return Interaction{State: domain.StateSucceeded, Result: result, Accomplished: true}
	}
	return Interaction{State: domain.StateLearned, Result: result, Accomplished: true}
}

// learnFailure records a failed pairing when the opt-in setting is on, so
// future prompts can steer away from it.
func (c *Controller) learnFailure(task string, cand domain.CommandCandidate) {
	if !c.LearnFailures {
		return
	}
	entry := domain.HistoryEntry{
		Task:    task,
		Command: cand.Command,
		Shell:   cand.Shell,
		Outcome: domain.OutcomeFailure,
	}
	if err := c.History.Append(entry); err != nil {
		c.Logger.Warn("history append failed", map[string]interface{}{"error": err.Error()})
	}
}
