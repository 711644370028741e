package config

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/fabsh/internal/domain"
	"github.com/doeshing/fabsh/internal/ports"
)

// FileLoader loads YAML configuration from ~/.fabsh/config.yaml (overridable via FABSH_CONFIG).
type FileLoader struct {
	overridePath string
}

// NewFileLoader builds a new loader.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{overridePath: path}
}

// Load implements ports.ConfigProvider. A missing file is a first run: the
// defaults are written out so the user has something to edit.
func (l *FileLoader) Load(context.Context) (domain.Config, error) {
	path := l.resolvePath()
	if err := ensureConfigDir(path); err != nil {
		return domain.Config{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := defaultConfig()
			if err := writeDefault(path, cfg); err != nil {
				return domain.Config{}, err
			}
			return cfg, nil
		}
		return domain.Config{}, err
	}

	var cfg domain.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return domain.Config{}, err
	}

	return hydrateDefaults(cfg), nil
}

func (l *FileLoader) resolvePath() string {
	if l.overridePath != "" {
		return l.overridePath
	}
	if custom := os.Getenv("FABSH_CONFIG"); custom != "" {
		return expandPath(custom)
	}
	return filepath.Join(userHomeDir(), ".fabsh", "config.yaml")
}

func ensureConfigDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}

func writeDefault(path string, cfg domain.Config) error {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o600)
}

func defaultConfig() domain.Config {
	return domain.Config{
		ConfigFormatVersion: "1",
		Backend: domain.BackendSettings{
			Endpoint:        "http://127.0.0.1:11434",
			DefaultModel:    "llama3.2",
			TimeoutSeconds:  60,
			ModelsCacheTTLS: 300,
		},
		Execution: domain.ExecutionSettings{
			Shell:          "auto",
			TimeoutSeconds: 30,
			MaxOutputBytes: 64 * 1024,
		},
		History: domain.HistorySettings{
			Backend:      "sqlite",
			ContextLimit: 3,
		},
		Plugins: domain.PluginSettings{
			Dir:   filepath.Join(userHomeDir(), ".fabsh", "plugins"),
			Watch: boolPtr(true),
		},
	}
}

// hydrateDefaults fills zero values so hand-edited configs with omitted
// keys still behave.
func hydrateDefaults(cfg domain.Config) domain.Config {
	def := defaultConfig()
	if cfg.Backend.Endpoint == "" {
		cfg.Backend.Endpoint = def.Backend.Endpoint
	}
	if cfg.Backend.DefaultModel == "" {
		cfg.Backend.DefaultModel = def.Backend.DefaultModel
	}
	if cfg.Backend.TimeoutSeconds == 0 {
		cfg.Backend.TimeoutSeconds = def.Backend.TimeoutSeconds
	}
	if cfg.Backend.ModelsCacheTTLS == 0 {
		cfg.Backend.ModelsCacheTTLS = def.Backend.ModelsCacheTTLS
	}
	if cfg.Execution.Shell == "" {
		cfg.Execution.Shell = def.Execution.Shell
	}
	if cfg.Execution.TimeoutSeconds == 0 {
		cfg.Execution.TimeoutSeconds = def.Execution.TimeoutSeconds
	}
	if cfg.Execution.MaxOutputBytes == 0 {
		cfg.Execution.MaxOutputBytes = def.Execution.MaxOutputBytes
	}
	if cfg.History.Backend == "" {
		cfg.History.Backend = def.History.Backend
	}
	if cfg.History.ContextLimit == 0 {
		cfg.History.ContextLimit = def.History.ContextLimit
	}
	if cfg.Plugins.Dir == "" {
		cfg.Plugins.Dir = def.Plugins.Dir
	}
	if cfg.Plugins.Watch == nil {
		cfg.Plugins.Watch = def.Plugins.Watch
	}
	return cfg
}

func boolPtr(b bool) *bool {
	return &b
}

func expandPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if len(path) > 1 && path[:2] == "~/" {
		return filepath.Join(userHomeDir(), path[2:])
	}
	return filepath.Clean(path)
}

func userHomeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

var _ ports.ConfigProvider = (*FileLoader)(nil)
