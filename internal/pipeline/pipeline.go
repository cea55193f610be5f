// Package pipeline drives one synthesis run from prompt to selected
// template: prompt expansion, initial SVG generation, sequential
// image-conditioned refinement, and reward-based selection.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"svgsmith/internal/llm"
	"svgsmith/internal/render"
	"svgsmith/internal/scorer"
	"svgsmith/internal/session"
	"svgsmith/pkg/types"
)

// Pipeline orchestrates one run. The session carries the conversation
// state, the renderer rasterizes candidates, and the scorer picks the
// winner.
type Pipeline struct {
	session  llm.Session
	renderer render.Renderer
	scorer   scorer.Scorer
}

// New creates a pipeline from its collaborators.
func New(sess llm.Session, renderer render.Renderer, sc scorer.Scorer) *Pipeline {
	return &Pipeline{session: sess, renderer: renderer, scorer: sc}
}

// Run executes expand → generate → refine×N → select. Rendering
// failures leave a candidate unrendered but do not abort the run;
// language-model failures and scoring failures do. The returned Run
// carries whatever state existed at failure time alongside the error.
func (p *Pipeline) Run(ctx context.Context, cfg Config) (*types.Run, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	layout := session.NewLayout(cfg.OutputDir, cfg.Target)
	if err := layout.MkdirAll(); err != nil {
		return nil, err
	}

	run := &types.Run{
		Target:       cfg.Target,
		Prompt:       cfg.Prompt,
		Viewbox:      cfg.Viewbox,
		RefineRounds: cfg.RefineRounds,
		Model:        cfg.Model,
		Scorer:       cfg.RewardModel,
		Status:       types.StatusCreated,
		BestIndex:    -1,
	}

	res := &types.Result{
		Version:      1,
		InvocationID: "run-" + uuid.NewString(),
		Target:       cfg.Target,
		Prompt:       cfg.Prompt,
		Model:        cfg.Model,
		Scorer:       cfg.RewardModel,
		Viewbox:      cfg.Viewbox,
		RefineRounds: cfg.RefineRounds,
		Status:       run.Status,
		BestIndex:    -1,
		CreatedAt:    time.Now(),
	}

	// Echo the configuration and prompts for audit before any
	// external call.
	if err := session.WriteConfigYAML(layout, cfg); err != nil {
		return nil, err
	}
	if cfg.PromptsFile != "" {
		if _, err := os.Stat(cfg.PromptsFile); err == nil {
			if err := session.CopyFile(layout.PromptsCopyPath(), cfg.PromptsFile); err != nil {
				return nil, err
			}
		}
	}

	// Phase 1: expand the text prompt. Runs exactly once, before any
	// code generation, so later tasks find the expansion in the
	// session's accumulated context.
	p.transition(run, res, layout, types.StatusExpanding)
	fmt.Printf("Expanding prompt: %s\n", cfg.Prompt)
	expanded, err := p.session.Send(ctx, llm.TaskExpandTextPrompt, map[string]any{"text_prompt": cfg.Prompt}, nil)
	if err != nil {
		return p.fail(run, res, layout, upstreamErr(cfg.Target, llm.TaskExpandTextPrompt, 0, err))
	}
	if strings.TrimSpace(expanded) == "" {
		return p.fail(run, res, layout, upstreamErr(cfg.Target, llm.TaskExpandTextPrompt, 0, errors.New("empty response")))
	}
	run.ExpandedPrompt = expanded
	res.ExpandedPrompt = expanded
	if err := os.WriteFile(layout.ExpandedPromptPath(), []byte(expanded), 0644); err != nil {
		return p.fail(run, res, layout, err)
	}

	// Phase 2: initial generation (index 0), no image input.
	p.transition(run, res, layout, types.StatusGenerating)
	fmt.Println("Generating initial SVG...")
	if err := p.step(ctx, run, res, layout, 0, llm.TaskWriteSVGCode, map[string]any{"viewbox": cfg.Viewbox}, nil); err != nil {
		return p.fail(run, res, layout, err)
	}

	// Phase 3: refinement. Strictly sequential: each round is grounded
	// on the immediately preceding round's render.
	p.transition(run, res, layout, types.StatusRefining)
	for i := 1; i <= cfg.RefineRounds; i++ {
		fmt.Printf("Refining SVG iteration %d/%d...\n", i, cfg.RefineRounds)
		var images []string
		if prev := run.Candidates[i-1]; prev.Rendered {
			images = []string{prev.PNGPath}
		}
		if err := p.step(ctx, run, res, layout, i, llm.TaskSVGRefine, nil, images); err != nil {
			return p.fail(run, res, layout, err)
		}
	}

	// Phase 4: selection.
	p.transition(run, res, layout, types.StatusSelecting)
	fmt.Printf("Selecting the best SVG using %s...\n", cfg.RewardModel)
	best, err := Select(ctx, p.scorer, run, layout)
	if err != nil {
		return p.fail(run, res, layout, err)
	}
	run.BestIndex = best
	res.BestIndex = best
	res.CanonicalSVG = layout.CanonicalPath()
	p.transition(run, res, layout, types.StatusDone)

	fmt.Printf("The best SVG is: %s_%d.svg\n", cfg.Target, best)
	return run, nil
}

// step performs one generation iteration: model call, artifact
// persistence, SVG extraction, and rasterization.
func (p *Pipeline) step(ctx context.Context, run *types.Run, res *types.Result, layout *session.Layout, i int, task string, inputs map[string]any, images []string) error {
	raw, err := p.session.Send(ctx, task, inputs, images)
	if err != nil {
		return upstreamErr(run.Target, task, i, err)
	}
	if strings.TrimSpace(raw) == "" {
		return upstreamErr(run.Target, task, i, errors.New("empty response"))
	}

	cand := types.Candidate{Index: i, RawResponse: raw, RawPath: layout.RawPath(i)}
	if err := os.WriteFile(cand.RawPath, []byte(raw), 0644); err != nil {
		return err
	}

	code, err := render.ExtractSVG(raw)
	if err != nil {
		return upstreamErr(run.Target, task, i, err)
	}
	cand.Code = code
	cand.SVGPath = layout.SVGPath(i)
	if err := os.WriteFile(cand.SVGPath, []byte(code), 0644); err != nil {
		return err
	}

	if err := p.renderer.Render(ctx, code, run.Viewbox, layout.PNGPath(i)); err != nil {
		if ctx.Err() != nil {
			return upstreamErr(run.Target, task, i, ctx.Err())
		}
		// Non-fatal: the candidate stays for audit, excluded from
		// scoring.
		rerr := &types.RenderError{Iteration: i, Err: err}
		fmt.Printf("  Warning: %v\n", rerr)
	} else {
		cand.PNGPath = layout.PNGPath(i)
		cand.Rendered = true
	}

	run.Candidates = append(run.Candidates, cand)
	res.Candidates = append(res.Candidates, cand)
	return session.SaveResult(layout, res)
}

// transition moves the run to the next stage and persists the manifest.
func (p *Pipeline) transition(run *types.Run, res *types.Result, layout *session.Layout, status types.RunStatus) {
	run.Status = status
	res.Status = status
	if err := session.SaveResult(layout, res); err != nil {
		fmt.Printf("  Warning: saving result: %v\n", err)
	}
}

// fail moves the run to the absorbing failed state, records the cause,
// and returns the partial run alongside the error.
func (p *Pipeline) fail(run *types.Run, res *types.Result, layout *session.Layout, err error) (*types.Run, error) {
	run.Status = types.StatusFailed
	res.Status = types.StatusFailed
	res.Error = err.Error()
	if serr := session.SaveResult(layout, res); serr != nil {
		fmt.Printf("  Warning: saving result: %v\n", serr)
	}
	return run, err
}

func upstreamErr(target, task string, iteration int, err error) error {
	return &types.UpstreamError{
		Target:    target,
		Task:      task,
		Iteration: iteration,
		Timeout:   errors.Is(err, context.DeadlineExceeded),
		Err:       err,
	}
}
