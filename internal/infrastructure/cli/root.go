package cli

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/doeshing/fabsh/internal/app"
)

// Options holds CLI-level configuration.
type Options struct {
	Verbose    bool
	ConfigPath string
}

// NewRootCmd wires the cobra root command. Bare arguments are treated as a
// natural-language task; no arguments starts the interactive session.
func NewRootCmd(ctx context.Context, opts Options) (*cobra.Command, error) {
	container, err := app.BuildContainer(ctx, app.Options{
		Verbose:    opts.Verbose,
		ConfigPath: opts.ConfigPath,
	})
	if err != nil {
		return nil, err
	}

	prompter := NewPrompter()
	renderer := NewRenderer(os.Stdout)
	container.AttachUI(prompter, renderer, NewSpinnerBackend(container.Backend, os.Stderr))

	var model string

	root := &cobra.Command{
		Use:   "fabsh [task]",
		Short: "fabsh - natural language shell assistant",
		Long:  "fabsh turns natural language into shell commands using a local model backend,\nwith plugin-driven prompts and confirmation before anything runs.",
		Args:  cobra.ArbitraryArgs,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if model != "" {
				container.UseModel(model)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return container.Pipeline.Command(cmd.Context(), strings.Join(args, " "))
			}
			return NewREPL(container, prompter, renderer).Run(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			prompter.Close()
			container.Close()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&model, "model", "m", "", "Override model name (default from config)")

	root.AddCommand(newCmdCommand(container))
	root.AddCommand(newRunCommand(container))
	root.AddCommand(newTroubleshootCommand(container))
	root.AddCommand(newHistoryCommand(container))
	root.AddCommand(newModelsCommand(container))
	root.AddCommand(newPluginsCommand(container))
	root.AddCommand(newVersionCommand())
	return root, nil
}
