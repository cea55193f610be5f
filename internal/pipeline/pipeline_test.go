package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"svgsmith/internal/llm"
	"svgsmith/internal/scorer"
	"svgsmith/internal/session"
	"svgsmith/pkg/types"
)

// fakeRenderer writes a placeholder PNG file, optionally failing for
// specific iterations (counted in call order, which matches candidate
// index because the pipeline is strictly sequential).
type fakeRenderer struct {
	fail  map[int]bool
	calls int
}

func (r *fakeRenderer) Render(_ context.Context, _ string, _ int, outPath string) error {
	idx := r.calls
	r.calls++
	if r.fail[idx] {
		return fmt.Errorf("synthetic raster failure")
	}
	return os.WriteFile(outPath, []byte("png"), 0644)
}

func svgFor(i int) string {
	return fmt.Sprintf(`<svg viewBox="0 0 512 512"><rect width="%d"/></svg>`, i+1)
}

func catConfig(t *testing.T, rounds int) Config {
	t.Helper()
	return Config{
		Target:       "cat",
		Prompt:       "A cat sitting",
		Viewbox:      512,
		RefineRounds: rounds,
		Model:        "gpt-4o",
		RewardModel:  scorer.VariantImageReward,
		OutputDir:    t.TempDir(),
	}
}

func catSession(rounds int) *llm.MockSession {
	responses := []string{"An expanded description of a sitting cat."}
	for i := 0; i <= rounds; i++ {
		responses = append(responses, "```svg\n"+svgFor(i)+"\n```")
	}
	return llm.NewMockSession(responses...)
}

func TestRunEndToEnd(t *testing.T) {
	cfg := catConfig(t, 2)
	sess := catSession(2)
	sc := scorer.NewMockScorer(1)

	run, err := New(sess, &fakeRenderer{}, sc).Run(context.Background(), cfg)
	require.NoError(t, err)

	require.Equal(t, types.StatusDone, run.Status)
	require.Len(t, run.Candidates, 3)
	for i, c := range run.Candidates {
		require.Equal(t, i, c.Index)
		require.NotEmpty(t, c.RawResponse)
		require.Equal(t, svgFor(i), c.Code)
		require.True(t, c.Rendered)
	}
	require.Equal(t, 1, run.BestIndex)
	require.Equal(t, "An expanded description of a sitting cat.", run.ExpandedPrompt)

	// Canonical output must be candidate 1's code at the stable path.
	layout := session.NewLayout(cfg.OutputDir, cfg.Target)
	data, err := os.ReadFile(layout.CanonicalPath())
	require.NoError(t, err)
	require.Equal(t, svgFor(1), string(data))

	// The persisted manifest reflects the finished run.
	res, err := session.LoadResult(layout.Root)
	require.NoError(t, err)
	require.NotNil(t, res)
	require.Equal(t, types.StatusDone, res.Status)
	require.Equal(t, 1, res.BestIndex)
	require.Len(t, res.Candidates, 3)
	require.NotEmpty(t, res.InvocationID)
}

func TestRunTaskSequence(t *testing.T) {
	cfg := catConfig(t, 2)
	sess := catSession(2)

	_, err := New(sess, &fakeRenderer{}, scorer.NewMockScorer(0)).Run(context.Background(), cfg)
	require.NoError(t, err)

	layout := session.NewLayout(cfg.OutputDir, cfg.Target)
	require.Len(t, sess.Calls, 4)

	// Expansion runs exactly once, first, with no image input.
	require.Equal(t, llm.TaskExpandTextPrompt, sess.Calls[0].Task)
	require.Equal(t, "A cat sitting", sess.Calls[0].Inputs["text_prompt"])
	require.Empty(t, sess.Calls[0].Images)

	// Initial generation has no image input.
	require.Equal(t, llm.TaskWriteSVGCode, sess.Calls[1].Task)
	require.Empty(t, sess.Calls[1].Images)

	// Each refinement sees exactly the previous iteration's render.
	require.Equal(t, llm.TaskSVGRefine, sess.Calls[2].Task)
	require.Equal(t, []string{layout.PNGPath(0)}, sess.Calls[2].Images)
	require.Equal(t, llm.TaskSVGRefine, sess.Calls[3].Task)
	require.Equal(t, []string{layout.PNGPath(1)}, sess.Calls[3].Images)
}

func TestRunZeroRefineRounds(t *testing.T) {
	cfg := catConfig(t, 0)
	sess := catSession(0)

	run, err := New(sess, &fakeRenderer{}, scorer.NewMockScorer(0)).Run(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, run.Candidates, 1)
	require.Equal(t, 0, run.BestIndex)
	require.Len(t, sess.Calls, 2)
}

func TestRunRenderFailureExcludedFromScoring(t *testing.T) {
	cfg := catConfig(t, 2)
	sess := catSession(2)
	sc := scorer.NewMockScorer(1)

	// Candidate 1 fails to render. The scorer then sees two images and
	// its position 1 must map back to candidate index 2.
	run, err := New(sess, &fakeRenderer{fail: map[int]bool{1: true}}, sc).Run(context.Background(), cfg)
	require.NoError(t, err)

	require.Len(t, run.Candidates, 3)
	require.True(t, run.Candidates[0].Rendered)
	require.False(t, run.Candidates[1].Rendered)
	require.Empty(t, run.Candidates[1].PNGPath)
	require.NotEmpty(t, run.Candidates[1].SVGPath)
	require.True(t, run.Candidates[2].Rendered)

	layout := session.NewLayout(cfg.OutputDir, cfg.Target)
	require.Len(t, sc.Calls, 1)
	require.Equal(t, []string{layout.PNGPath(0), layout.PNGPath(2)}, sc.Calls[0])

	require.Equal(t, 2, run.BestIndex)
	data, err := os.ReadFile(layout.CanonicalPath())
	require.NoError(t, err)
	require.Equal(t, svgFor(2), string(data))

	// Refinement after the failed render proceeds without an image.
	require.Empty(t, sess.Calls[3].Images)
}

func TestRunAllRendersFailed(t *testing.T) {
	cfg := catConfig(t, 1)
	sess := catSession(1)
	sc := scorer.NewMockScorer(0)

	run, err := New(sess, &fakeRenderer{fail: map[int]bool{0: true, 1: true}}, sc).Run(context.Background(), cfg)

	var serr *types.ScoringError
	require.ErrorAs(t, err, &serr)
	require.Equal(t, types.StatusFailed, run.Status)
	require.Equal(t, -1, run.BestIndex)
	// The scorer must never be invoked with nothing to score.
	require.Empty(t, sc.Calls)
}

func TestRunUpstreamFailure(t *testing.T) {
	cfg := catConfig(t, 2)
	sess := catSession(2)
	sess.Errs = map[string]error{llm.TaskSVGRefine: errors.New("provider exploded")}

	run, err := New(sess, &fakeRenderer{}, scorer.NewMockScorer(0)).Run(context.Background(), cfg)

	var uerr *types.UpstreamError
	require.ErrorAs(t, err, &uerr)
	require.Equal(t, llm.TaskSVGRefine, uerr.Task)
	require.Equal(t, 1, uerr.Iteration)
	require.False(t, uerr.Timeout)
	require.Equal(t, types.StatusFailed, run.Status)
	require.Len(t, run.Candidates, 1)
}

func TestRunUpstreamTimeout(t *testing.T) {
	cfg := catConfig(t, 0)
	sess := llm.NewMockSession()
	sess.Errs = map[string]error{llm.TaskExpandTextPrompt: context.DeadlineExceeded}

	_, err := New(sess, &fakeRenderer{}, scorer.NewMockScorer(0)).Run(context.Background(), cfg)

	var uerr *types.UpstreamError
	require.ErrorAs(t, err, &uerr)
	require.True(t, uerr.Timeout)
}

func TestRunUnparseableCode(t *testing.T) {
	cfg := catConfig(t, 0)
	sess := llm.NewMockSession("expanded", "I refuse to write SVG today.")

	run, err := New(sess, &fakeRenderer{}, scorer.NewMockScorer(0)).Run(context.Background(), cfg)

	var uerr *types.UpstreamError
	require.ErrorAs(t, err, &uerr)
	require.Equal(t, llm.TaskWriteSVGCode, uerr.Task)
	require.Equal(t, types.StatusFailed, run.Status)
}

func TestRunInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty prompt", func(c *Config) { c.Prompt = "" }},
		{"negative rounds", func(c *Config) { c.RefineRounds = -1 }},
		{"negative viewbox", func(c *Config) { c.Viewbox = -4 }},
		{"unknown reward model", func(c *Config) { c.RewardModel = "AestheticScore" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := catConfig(t, 1)
			tt.mutate(&cfg)
			sess := catSession(1)

			_, err := New(sess, &fakeRenderer{}, scorer.NewMockScorer(0)).Run(context.Background(), cfg)

			var cerr *types.ConfigError
			require.ErrorAs(t, err, &cerr)
			// Rejected before any external call.
			require.Empty(t, sess.Calls)
		})
	}
}

func TestRunDefaults(t *testing.T) {
	cfg := Config{Prompt: "A cat sitting", OutputDir: t.TempDir()}
	cfg.ApplyDefaults()

	require.Equal(t, DefaultTarget, cfg.Target)
	require.Equal(t, DefaultViewbox, cfg.Viewbox)
	require.Equal(t, DefaultModel, cfg.Model)
	require.Equal(t, DefaultRewardModel, cfg.RewardModel)
	require.NoError(t, cfg.Validate())
}
