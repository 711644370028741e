package domain

import "time"

// Config mirrors ~/.fabsh/config.yaml.
type Config struct {
	ConfigFormatVersion string            `yaml:"config_format_version"`
	Backend             BackendSettings   `yaml:"backend"`
	Execution           ExecutionSettings `yaml:"execution"`
	History             HistorySettings   `yaml:"history"`
	Plugins             PluginSettings    `yaml:"plugins"`
}

// BackendSettings configures the model backend connection.
type BackendSettings struct {
	Endpoint        string `yaml:"endpoint"`
	DefaultModel    string `yaml:"default_model"`
	TimeoutSeconds  int    `yaml:"timeout"`
	ModelsCacheTTLS int    `yaml:"models_cache_ttl"`
}

// GenerateTimeout returns the generation deadline.
func (b BackendSettings) GenerateTimeout() time.Duration {
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// ModelsCacheTTL returns how long the model list is cached.
func (b BackendSettings) ModelsCacheTTL() time.Duration {
	return time.Duration(b.ModelsCacheTTLS) * time.Second
}

// ExecutionSettings controls how extracted commands run.
type ExecutionSettings struct {
	Shell          string `yaml:"shell"`
	TimeoutSeconds int    `yaml:"timeout"`
	MaxOutputBytes int    `yaml:"max_output_bytes"`
}

// Timeout returns the hard bound on a running command.
func (e ExecutionSettings) Timeout() time.Duration {
	return time.Duration(e.TimeoutSeconds) * time.Second
}

// HistorySettings configures the learned-history store.
type HistorySettings struct {
	Backend       string `yaml:"backend"`
	ContextLimit  int    `yaml:"context_limit"`
	LearnFailures bool   `yaml:"learn_failures"`
}

// PluginSettings locates plugin definition files. Watch is a pointer so an
// omitted key is distinguishable from an explicit false.
type PluginSettings struct {
	Dir   string `yaml:"dir"`
	Watch *bool  `yaml:"watch"`
}

// WatchEnabled reports whether the plugin directory should be watched for
// changes. Defaults to true when the key is absent.
func (p PluginSettings) WatchEnabled() bool {
	return p.Watch == nil || *p.Watch
}
