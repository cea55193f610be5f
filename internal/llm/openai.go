package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"golang.org/x/time/rate"
)

// Settings configures the provider connection for OpenAI-compatible
// chat-completions endpoints.
type Settings struct {
	Model   string
	APIKey  string
	BaseURL string
	// RequestsPerMinute caps outbound calls; 0 disables limiting.
	RequestsPerMinute int
}

// The provider client is shared across runs as long as the configured
// model is unchanged; a different model gets a fresh client.
// Conversation history is never shared — each run wraps the client in
// its own session.
var (
	clientMu     sync.Mutex
	cachedClient openai.Client
	cachedModel  string
	haveClient   bool
)

// OpenAISession implements Session over chat completions. The full
// history is resent on every turn, and rendered PNGs are attached as
// base64 data URLs.
type OpenAISession struct {
	client  openai.Client
	model   string
	prompts *PromptSet
	limiter *rate.Limiter
	history []openai.ChatCompletionMessageParamUnion
}

// NewOpenAISession creates a per-run session seeded with the prompt
// set's system message.
func NewOpenAISession(cfg Settings, prompts *PromptSet) (*OpenAISession, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key missing; set OPENAI_API_KEY")
	}
	if cfg.Model == "" {
		return nil, errors.New("llm model is required")
	}
	if prompts == nil {
		return nil, errors.New("prompt set is required")
	}

	clientMu.Lock()
	if !haveClient || cachedModel != cfg.Model {
		opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
		if cfg.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(cfg.BaseURL))
		}
		cachedClient = openai.NewClient(opts...)
		cachedModel = cfg.Model
		haveClient = true
	}
	client := cachedClient
	clientMu.Unlock()

	var limiter *rate.Limiter
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}

	s := &OpenAISession{
		client:  client,
		model:   cfg.Model,
		prompts: prompts,
		limiter: limiter,
	}
	s.history = append(s.history, openai.SystemMessage(prompts.System))
	return s, nil
}

// Send renders the task prompt, appends it (plus any reference images)
// to the conversation, and returns the model's reply.
func (s *OpenAISession) Send(ctx context.Context, task string, inputs map[string]any, images []string) (string, error) {
	user, err := s.prompts.Render(task, inputs)
	if err != nil {
		return "", err
	}

	msg, err := userMessage(user, images)
	if err != nil {
		return "", err
	}
	s.history = append(s.history, msg)

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(s.model),
		Messages: s.history,
	})
	if err != nil {
		return "", fmt.Errorf("task %q: %w", task, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("task %q: empty choices", task)
	}

	text := resp.Choices[0].Message.Content
	s.history = append(s.history, openai.AssistantMessage(text))
	return text, nil
}

func userMessage(text string, images []string) (openai.ChatCompletionMessageParamUnion, error) {
	if len(images) == 0 {
		return openai.UserMessage(text), nil
	}

	parts := []openai.ChatCompletionContentPartUnionParam{openai.TextContentPart(text)}
	for _, path := range images {
		data, err := os.ReadFile(path)
		if err != nil {
			return openai.ChatCompletionMessageParamUnion{}, fmt.Errorf("reading reference image: %w", err)
		}
		url := "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)
		parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: url}))
	}
	return openai.UserMessage(parts), nil
}
