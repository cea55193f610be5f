package llm

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"
)

// PromptSet holds the system prompt and per-task templates loaded from
// a prompts YAML file.
type PromptSet struct {
	System string                `yaml:"system"`
	Tasks  map[string]TaskPrompt `yaml:"tasks"`
}

// TaskPrompt is one task's user-message template.
type TaskPrompt struct {
	Prompt string `yaml:"prompt"`
}

// LoadPrompts loads and validates a prompt set from a YAML file.
func LoadPrompts(path string) (*PromptSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading prompts file: %w", err)
	}

	var ps PromptSet
	if err := yaml.Unmarshal(data, &ps); err != nil {
		return nil, fmt.Errorf("parsing prompts YAML: %w", err)
	}

	if err := validatePrompts(&ps); err != nil {
		return nil, fmt.Errorf("validating prompts: %w", err)
	}

	return &ps, nil
}

func validatePrompts(ps *PromptSet) error {
	if ps.System == "" {
		return fmt.Errorf("system prompt is required")
	}

	for _, task := range []string{TaskExpandTextPrompt, TaskWriteSVGCode, TaskSVGRefine} {
		tp, ok := ps.Tasks[task]
		if !ok {
			return fmt.Errorf("task %q is missing", task)
		}
		if tp.Prompt == "" {
			return fmt.Errorf("task %q: prompt is required", task)
		}
	}

	return nil
}

// Render fills the named task's template with the given inputs.
func (ps *PromptSet) Render(task string, inputs map[string]any) (string, error) {
	tp, ok := ps.Tasks[task]
	if !ok {
		return "", fmt.Errorf("unknown task %q", task)
	}

	tmpl, err := template.New(task).Option("missingkey=error").Parse(tp.Prompt)
	if err != nil {
		return "", fmt.Errorf("parsing template for task %q: %w", task, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, inputs); err != nil {
		return "", fmt.Errorf("executing template for task %q: %w", task, err)
	}

	return buf.String(), nil
}
