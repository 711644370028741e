package cli

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/doeshing/fabsh/internal/app"
	"github.com/doeshing/fabsh/internal/services"
	"github.com/doeshing/fabsh/internal/version"
)

func newCmdCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "cmd <task>",
		Short: "Generate a shell command from a task description",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return container.Pipeline.Command(cmd.Context(), strings.Join(args, " "))
		},
	}
}

func newRunCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "run <plugin> [key=value ...]",
		Short: "Run a plugin by name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return container.Pipeline.RunPlugin(cmd.Context(), args[0], parseKeyValues(args[1:]))
		},
	}
}

func newTroubleshootCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:     "troubleshoot <issue>",
		Aliases: []string{"fix"},
		Short:   "Get a troubleshooting guide for an issue",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return container.Pipeline.Troubleshoot(cmd.Context(), strings.Join(args, " "))
		},
	}
}

func newHistoryCommand(container *app.Container) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect learned commands",
	}

	var limit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recent learned commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := container.History.Recent(limit)
			if err != nil {
				return err
			}
			for _, entry := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "%s | %-17s | %-10s | %s | %s\n",
					entry.Timestamp.Format(time.RFC3339),
					entry.Outcome,
					entry.Shell,
					entry.Command,
					entry.Task)
			}
			return nil
		},
	}
	listCmd.Flags().IntVar(&limit, "limit", 20, "Max entries to show")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all learned commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			return container.History.Clear()
		},
	}

	historyCmd.AddCommand(listCmd, clearCmd)
	return historyCmd
}

func newModelsCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List models available on the backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			models, err := container.Backend.ListModels(cmd.Context())
			if err != nil {
				return fmt.Errorf("%s", services.DescribeBackendError(err))
			}
			current := container.Config.Backend.DefaultModel
			for _, model := range models {
				marker := " "
				if model == current {
					marker = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, model)
			}
			return nil
		},
	}
}

func newPluginsCommand(container *app.Container) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "plugins",
		Short: "List available plugins",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, spec := range container.Registry.List(category) {
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s %-12s %s\n", spec.Name, spec.Category, spec.Description)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "Filter by category")
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show fabsh version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "fabsh version %s\n", version.Version)
			if version.Commit != "" {
				fmt.Fprintf(out, "Commit: %s\n", version.Commit)
			}
			if version.BuildDate != "" {
				fmt.Fprintf(out, "Built: %s\n", version.BuildDate)
			}
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			return nil
		},
	}
}
