package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"svgsmith/internal/llm"
	"svgsmith/internal/pipeline"
	"svgsmith/internal/render"
	"svgsmith/internal/scorer"
)

func cmdRun(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	target := fs.String("target", "", "Concept identifier used to name all artifacts (required)")
	prompt := fs.String("prompt", "", "Text description of the SVG to generate (required)")
	outputDir := fs.String("output", "./output", "Output directory for run artifacts")
	viewbox := fs.Int("viewbox", pipeline.DefaultViewbox, "Square canvas size in pixels")
	refineIter := fs.Int("refine-iter", pipeline.DefaultRefineRounds, "Number of refinement iterations")
	model := fs.String("model", pipeline.DefaultModel, "Language model to use")
	rewardModel := fs.String("reward-model", pipeline.DefaultRewardModel, "Reward model for selection: ImageReward or CLIP")
	rewardEndpoint := fs.String("reward-endpoint", "http://localhost:8060", "Base URL of the reward-model inference service")
	promptsFile := fs.String("prompts", "prompts.yaml", "Path to the prompts YAML file")
	rpm := fs.Int("rpm", 0, "Max language-model requests per minute (0 = unlimited)")
	timeout := fs.Duration("timeout", 0, "Overall run timeout (0 = none)")
	fs.StringVar(target, "t", "", "Target (shorthand)")
	fs.StringVar(prompt, "p", "", "Prompt (shorthand)")
	fs.StringVar(outputDir, "o", "./output", "Output directory (shorthand)")

	fs.Parse(args)

	if *target == "" || *prompt == "" {
		fmt.Fprintln(os.Stderr, "Error: --target and --prompt are required")
		fmt.Fprintln(os.Stderr, `Usage: svgsmith run --target cat --prompt "A cat sitting" [--refine-iter 2]`)
		return fmt.Errorf("--target and --prompt are required")
	}

	prompts, err := llm.LoadPrompts(*promptsFile)
	if err != nil {
		return err
	}

	sess, err := llm.NewOpenAISession(llm.Settings{
		Model:             *model,
		APIKey:            os.Getenv("OPENAI_API_KEY"),
		BaseURL:           os.Getenv("OPENAI_BASE_URL"),
		RequestsPerMinute: *rpm,
	}, prompts)
	if err != nil {
		return err
	}

	sc, err := scorer.Load(*rewardModel, scorer.Config{Endpoint: *rewardEndpoint})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if *timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nInterrupted, aborting run...")
		cancel()
	}()

	cfg := pipeline.Config{
		Target:       *target,
		Prompt:       *prompt,
		Viewbox:      *viewbox,
		RefineRounds: *refineIter,
		Model:        *model,
		RewardModel:  *rewardModel,
		OutputDir:    *outputDir,
		PromptsFile:  *promptsFile,
	}

	start := time.Now()
	run, err := pipeline.New(sess, render.PNGRenderer{}, sc).Run(ctx, cfg)
	if err != nil {
		return err
	}

	fmt.Printf("\n=== Complete (%s) ===\n", time.Since(start).Round(time.Second))
	fmt.Printf("Candidates: %d\n", len(run.Candidates))
	fmt.Printf("Best index: %d\n", run.BestIndex)
	fmt.Printf("Template:   %s/%s/%s_template.svg\n", *outputDir, *target, *target)
	return nil
}
