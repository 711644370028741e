package plugins

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/fabsh/internal/domain"
	"github.com/doeshing/fabsh/internal/pkg/logger"
)

const samplePlugin = `name: "disk_report"
description: "Summarize disk usage"
category: "system"
single_command: true

parameters:
  path:
    prompt: "Directory to inspect"
    type: "string"
    default: "."
  shell:
    type: "string"

prompt: |
  Generate a single {shell} command to summarize disk usage under {path}.

post_process:
  type: "execute"
`

func TestParse(t *testing.T) {
	spec, err := Parse("disk_report.yml", []byte(samplePlugin))
	require.NoError(t, err)

	assert.Equal(t, "disk_report", spec.Name)
	assert.Equal(t, "system", spec.Category)
	assert.True(t, spec.SingleCommand)
	assert.Equal(t, domain.PostProcessExecute, spec.PostProcess.Kind)
	assert.True(t, spec.PostProcess.Confirm, "execute defaults to confirmed")

	// Map parameters come out ordered by key.
	require.Len(t, spec.Parameters, 2)
	assert.Equal(t, "path", spec.Parameters[0].Key)
	assert.Equal(t, ".", spec.Parameters[0].Default)
	assert.Equal(t, "shell", spec.Parameters[1].Key)
}

func TestParseNameFallsBackToFileStem(t *testing.T) {
	spec, err := Parse("log_digest.yaml", []byte("prompt: Summarize {logs}\n"))
	require.NoError(t, err)

	assert.Equal(t, "log_digest", spec.Name)
	assert.Equal(t, "general", spec.Category)
	assert.Equal(t, domain.PostProcessNone, spec.PostProcess.Kind)
}

func TestParseConfirmOverride(t *testing.T) {
	raw := "prompt: Show uptime\npost_process:\n  type: execute\n  confirm: false\n"
	spec, err := Parse("uptime.yml", []byte(raw))
	require.NoError(t, err)

	assert.Equal(t, domain.PostProcessExecute, spec.PostProcess.Kind)
	assert.False(t, spec.PostProcess.Confirm)
}

func TestParseRequiresPrompt(t *testing.T) {
	_, err := Parse("broken.yml", []byte("name: broken\ndescription: no template\n"))
	assert.Error(t, err)
}

func TestParseParameterKinds(t *testing.T) {
	raw := `prompt: "{a} {b} {c}"
parameters:
  a:
    type: "file"
  b:
    type: "boolean"
  c:
    type: "anything-else"
`
	spec, err := Parse("kinds.yml", []byte(raw))
	require.NoError(t, err)

	assert.Equal(t, domain.ParameterFile, spec.Parameters[0].Kind)
	assert.Equal(t, domain.ParameterBool, spec.Parameters[1].Kind)
	assert.Equal(t, domain.ParameterString, spec.Parameters[2].Kind)
}

func TestRegistryLoadsEmbeddedSamples(t *testing.T) {
	registry := NewRegistry(t.TempDir(), logger.NewNop())
	require.NoError(t, registry.Load())

	for _, name := range []string{"quick_command", "code_review", "file_operations"} {
		_, ok := registry.Get(name)
		assert.True(t, ok, "embedded sample %q missing", name)
	}
}

func TestRegistryUserFileShadowsEmbedded(t *testing.T) {
	dir := t.TempDir()
	override := `name: "quick_command"
description: "User override"
category: "custom"
prompt: "Do {task} my way."
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "quick_command.yml"), []byte(override), 0o600))

	registry := NewRegistry(dir, logger.NewNop())
	require.NoError(t, registry.Load())

	spec, ok := registry.Get("quick_command")
	require.True(t, ok)
	assert.Equal(t, "User override", spec.Description)
	assert.Equal(t, "custom", spec.Category)
}

func TestRegistrySkipsInvalidFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yml"), []byte(":::not yaml"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.yml"), []byte("prompt: ok {x}\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600))

	registry := NewRegistry(dir, logger.NewNop())
	require.NoError(t, registry.Load())

	_, ok := registry.Get("good")
	assert.True(t, ok)
	_, ok = registry.Get("bad")
	assert.False(t, ok)
	_, ok = registry.Get("notes")
	assert.False(t, ok)
}

func TestRegistryListAndCategories(t *testing.T) {
	registry := NewRegistry(t.TempDir(), logger.NewNop())
	require.NoError(t, registry.Load())

	all := registry.List("")
	require.NotEmpty(t, all)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].Name, all[i].Name, "list is sorted by name")
	}

	system := registry.List("system")
	require.Len(t, system, 1)
	assert.Equal(t, "file_operations", system[0].Name)

	categories := registry.Categories()
	assert.Contains(t, categories["automation"], "quick_command")
	assert.Contains(t, categories["development"], "code_review")
}

func TestWatcherReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	registry := NewRegistry(dir, logger.NewNop())
	require.NoError(t, registry.Load())

	watcher, err := Watch(registry, logger.NewNop())
	require.NoError(t, err)
	defer watcher.Close()

	plugin := "name: hot_loaded\nprompt: do {thing}\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hot_loaded.yml"), []byte(plugin), 0o600))

	require.Eventually(t, func() bool {
		_, ok := registry.Get("hot_loaded")
		return ok
	}, 5*time.Second, 50*time.Millisecond)
}
