// Package app wires application services with infrastructure adapters.
package app

import (
	"context"

	"github.com/doeshing/fabsh/internal/domain"
	"github.com/doeshing/fabsh/internal/infrastructure/backend"
	"github.com/doeshing/fabsh/internal/infrastructure/config"
	"github.com/doeshing/fabsh/internal/infrastructure/executor"
	"github.com/doeshing/fabsh/internal/infrastructure/history"
	"github.com/doeshing/fabsh/internal/infrastructure/plugins"
	"github.com/doeshing/fabsh/internal/infrastructure/sysinfo"
	"github.com/doeshing/fabsh/internal/pkg/logger"
	"github.com/doeshing/fabsh/internal/ports"
	"github.com/doeshing/fabsh/internal/prompt"
	"github.com/doeshing/fabsh/internal/services"
	"github.com/doeshing/fabsh/internal/shellenv"
)

// Container holds the wired dependency graph.
type Container struct {
	Config     domain.Config
	Logger     *logger.ZapLogger
	History    ports.HistoryStore
	Backend    ports.ModelBackend
	Registry   *plugins.Registry
	Watcher    *plugins.Watcher
	Shell      ports.ShellDetector
	Runner     ports.CommandRunner
	Renderer   *prompt.Renderer
	Controller *services.Controller
	Pipeline   *services.Pipeline
}

// Options selects container-level behavior from the command line.
type Options struct {
	Verbose    bool
	ConfigPath string
	Model      string
}

// BuildContainer constructs the dependency graph. The terminal-facing
// presenter and input reader are attached afterwards via AttachUI.
func BuildContainer(ctx context.Context, opts Options) (*Container, error) {
	cfgLoader := config.NewFileLoader(opts.ConfigPath)
	cfg, err := cfgLoader.Load(ctx)
	if err != nil {
		return nil, err
	}
	if opts.Model != "" {
		cfg.Backend.DefaultModel = opts.Model
	}

	log := logger.New(opts.Verbose)

	historyStore := buildHistoryStore(cfg.History)
	modelBackend := backend.NewOllama(cfg.Backend, log)

	registry := plugins.NewRegistry(cfg.Plugins.Dir, log)
	if err := registry.Load(); err != nil {
		return nil, err
	}
	var watcher *plugins.Watcher
	if cfg.Plugins.WatchEnabled() {
		watcher, err = plugins.Watch(registry, log)
		if err != nil {
			// Hot reload is a convenience; a missing inotify budget must
			// not block startup.
			log.Warn("plugin watch disabled", map[string]interface{}{"error": err.Error()})
		}
	}

	shell := shellenv.New(cfg.Execution.Shell)
	runner := executor.NewRunner(cfg.Execution, log)
	renderer := prompt.New(historyStore, cfg.History.ContextLimit)

	controller := &services.Controller{
		Backend:       modelBackend,
		Renderer:      renderer,
		Runner:        runner,
		Shell:         shell,
		History:       historyStore,
		Logger:        log,
		Model:         cfg.Backend.DefaultModel,
		LearnFailures: cfg.History.LearnFailures,
	}
	pipeline := &services.Pipeline{
		Config:     cfg,
		Registry:   registry,
		Backend:    modelBackend,
		Renderer:   renderer,
		Shell:      shell,
		Logger:     log,
		Controller: controller,
		OSContext:  sysinfo.Describe(),
	}

	return &Container{
		Config:     cfg,
		Logger:     log,
		History:    historyStore,
		Backend:    modelBackend,
		Registry:   registry,
		Watcher:    watcher,
		Shell:      shell,
		Runner:     runner,
		Renderer:   renderer,
		Controller: controller,
		Pipeline:   pipeline,
	}, nil
}

// AttachUI connects the terminal adapters and an optionally decorated
// backend to the core services.
func (c *Container) AttachUI(input ports.InputReader, present ports.Presenter, modelBackend ports.ModelBackend) {
	if modelBackend != nil {
		c.Backend = modelBackend
		c.Controller.Backend = modelBackend
		c.Pipeline.Backend = modelBackend
	}
	c.Controller.Input = input
	c.Controller.Present = present
	c.Pipeline.Input = input
	c.Pipeline.Present = present
}

// UseModel switches the active model for subsequent requests.
func (c *Container) UseModel(name string) {
	c.Config.Backend.DefaultModel = name
	c.Controller.Model = name
	c.Pipeline.Config.Backend.DefaultModel = name
}

// Close releases background resources.
func (c *Container) Close() {
	if c.Watcher != nil {
		c.Watcher.Close()
	}
	c.Logger.Sync()
}

func buildHistoryStore(cfg domain.HistorySettings) ports.HistoryStore {
	if cfg.Backend == "jsonl" {
		return history.NewFileStore("")
	}
	return history.NewSQLiteStore("")
}
