package cmd

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"svgsmith/internal/llm"
	"svgsmith/internal/pipeline"
	"svgsmith/internal/render"
	"svgsmith/internal/scorer"
	"svgsmith/internal/server"
	"svgsmith/pkg/types"
)

func cmdServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", ":8080", "HTTP listen address")
	outputDir := fs.String("output", "./output", "Output directory for run artifacts")
	model := fs.String("model", pipeline.DefaultModel, "Default language model")
	rewardModel := fs.String("reward-model", pipeline.DefaultRewardModel, "Default reward model")
	rewardEndpoint := fs.String("reward-endpoint", "http://localhost:8060", "Base URL of the reward-model inference service")
	promptsFile := fs.String("prompts", "prompts.yaml", "Path to the prompts YAML file")
	rpm := fs.Int("rpm", 0, "Max language-model requests per minute (0 = unlimited)")
	fs.Parse(args)

	prompts, err := llm.LoadPrompts(*promptsFile)
	if err != nil {
		return err
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is not set")
	}
	baseURL := os.Getenv("OPENAI_BASE_URL")

	// Each request gets its own session so run histories never
	// interleave; the scorer is cached per variant by scorer.Load.
	runner := func(ctx context.Context, cfg pipeline.Config) (*types.Run, error) {
		sess, err := llm.NewOpenAISession(llm.Settings{
			Model:             cfg.Model,
			APIKey:            apiKey,
			BaseURL:           baseURL,
			RequestsPerMinute: *rpm,
		}, prompts)
		if err != nil {
			return nil, err
		}
		sc, err := scorer.Load(cfg.RewardModel, scorer.Config{Endpoint: *rewardEndpoint})
		if err != nil {
			return nil, err
		}
		return pipeline.New(sess, render.PNGRenderer{}, sc).Run(ctx, cfg)
	}

	srv, err := server.New(runner, pipeline.Config{
		Model:       *model,
		RewardModel: *rewardModel,
		OutputDir:   *outputDir,
		PromptsFile: *promptsFile,
	})
	if err != nil {
		return err
	}

	log.Printf("Listening on %s", *addr)
	return http.ListenAndServe(*addr, srv.Routes())
}
