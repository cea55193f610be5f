package llm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testPrompts = `system: You write SVG code.
tasks:
  expand_text_prompt:
    prompt: "Expand: {{.text_prompt}}"
  write_svg_code:
    prompt: "Write SVG on a {{.viewbox}}x{{.viewbox}} canvas."
  svg_refine:
    prompt: "Refine the SVG based on the attached render."
`

func writePrompts(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadPrompts(t *testing.T) {
	ps, err := LoadPrompts(writePrompts(t, testPrompts))
	require.NoError(t, err)
	require.Equal(t, "You write SVG code.", ps.System)
	require.Len(t, ps.Tasks, 3)
}

func TestLoadPromptsShippedFile(t *testing.T) {
	ps, err := LoadPrompts(filepath.Join("..", "..", "prompts.yaml"))
	require.NoError(t, err)

	out, err := ps.Render(TaskWriteSVGCode, map[string]any{"viewbox": 512})
	require.NoError(t, err)
	require.Contains(t, out, "512x512")
}

func TestLoadPromptsMissingTask(t *testing.T) {
	_, err := LoadPrompts(writePrompts(t, `system: sys
tasks:
  expand_text_prompt:
    prompt: "Expand: {{.text_prompt}}"
`))
	require.Error(t, err)
	require.Contains(t, err.Error(), TaskWriteSVGCode)
}

func TestLoadPromptsMissingSystem(t *testing.T) {
	_, err := LoadPrompts(writePrompts(t, `tasks:
  expand_text_prompt:
    prompt: a
  write_svg_code:
    prompt: b
  svg_refine:
    prompt: c
`))
	require.Error(t, err)
}

func TestRender(t *testing.T) {
	ps, err := LoadPrompts(writePrompts(t, testPrompts))
	require.NoError(t, err)

	out, err := ps.Render(TaskExpandTextPrompt, map[string]any{"text_prompt": "A cat sitting"})
	require.NoError(t, err)
	require.Equal(t, "Expand: A cat sitting", out)

	out, err = ps.Render(TaskWriteSVGCode, map[string]any{"viewbox": 256})
	require.NoError(t, err)
	require.Equal(t, "Write SVG on a 256x256 canvas.", out)
}

func TestRenderUnknownTask(t *testing.T) {
	ps, err := LoadPrompts(writePrompts(t, testPrompts))
	require.NoError(t, err)

	_, err = ps.Render("write_python_code", nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown task")
}
