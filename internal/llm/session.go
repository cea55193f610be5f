package llm

import "context"

// Task names the session understands. Each maps to a template in the
// prompt set; the pipeline invokes them in this order.
const (
	TaskExpandTextPrompt = "expand_text_prompt"
	TaskWriteSVGCode     = "write_svg_code"
	TaskSVGRefine        = "svg_refine"
)

// Session is a stateful conversation with the language model. Every
// Send appends to the accumulated history, so later tasks see the
// output of earlier ones. A session belongs to exactly one run; runs
// must never share one.
type Session interface {
	// Send renders the named task's prompt template with inputs,
	// optionally attaching rendered images as visual grounding, and
	// returns the model's text response.
	Send(ctx context.Context, task string, inputs map[string]any, images []string) (string, error)
}
