package plugins

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/fabsh/internal/domain"
)

// pluginFile mirrors the on-disk YAML schema. Parameters are a map keyed
// by parameter name; they are ordered by key when prompting so runs are
// deterministic.
type pluginFile struct {
	Name           string               `yaml:"name"`
	Description    string               `yaml:"description"`
	Category       string               `yaml:"category"`
	PreferredModel string               `yaml:"preferred_model"`
	SingleCommand  bool                 `yaml:"single_command"`
	Parameters     map[string]paramFile `yaml:"parameters"`
	Prompt         string               `yaml:"prompt"`
	Context        string               `yaml:"context"`
	PostProcess    postProcessFile      `yaml:"post_process"`
	Examples       []string             `yaml:"examples"`
}

type paramFile struct {
	Prompt   string `yaml:"prompt"`
	Type     string `yaml:"type"`
	Default  string `yaml:"default"`
	Required bool   `yaml:"required"`
}

type postProcessFile struct {
	Type    string `yaml:"type"`
	Confirm *bool  `yaml:"confirm"`
}

// Parse decodes one plugin definition. The file stem is the fallback name
// and the prompt template is the only mandatory field.
func Parse(filename string, data []byte) (domain.PluginSpec, error) {
	var file pluginFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return domain.PluginSpec{}, fmt.Errorf("parse %s: %w", filename, err)
	}
	if strings.TrimSpace(file.Prompt) == "" {
		return domain.PluginSpec{}, errors.New("plugin has no prompt template")
	}

	name := file.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}
	category := file.Category
	if category == "" {
		category = "general"
	}

	spec := domain.PluginSpec{
		Name:           name,
		Description:    file.Description,
		Category:       category,
		PreferredModel: file.PreferredModel,
		SingleCommand:  file.SingleCommand,
		PromptTemplate: file.Prompt,
		ContextTmpl:    file.Context,
		Examples:       file.Examples,
		Parameters:     convertParameters(file.Parameters),
		PostProcess:    convertPostProcess(file.PostProcess),
	}
	return spec, nil
}

func convertParameters(params map[string]paramFile) []domain.ParameterSpec {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]domain.ParameterSpec, 0, len(keys))
	for _, key := range keys {
		param := params[key]
		out = append(out, domain.ParameterSpec{
			Key:      key,
			Kind:     parameterKind(param.Type),
			Prompt:   param.Prompt,
			Default:  param.Default,
			Required: param.Required,
		})
	}
	return out
}

func parameterKind(raw string) domain.ParameterKind {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "file":
		return domain.ParameterFile
	case "bool", "boolean":
		return domain.ParameterBool
	default:
		return domain.ParameterString
	}
}

func convertPostProcess(raw postProcessFile) domain.PostProcess {
	if strings.EqualFold(raw.Type, "execute") {
		confirm := true
		if raw.Confirm != nil {
			confirm = *raw.Confirm
		}
		return domain.PostProcess{Kind: domain.PostProcessExecute, Confirm: confirm}
	}
	return domain.PostProcess{Kind: domain.PostProcessNone}
}
