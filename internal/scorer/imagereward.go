package scorer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"svgsmith/pkg/types"
)

// rankModel returns a 1-based ordering of the supplied images by
// relevance to the prompt, best first.
type rankModel interface {
	InferenceRank(ctx context.Context, prompt string, images []string) ([]int, error)
}

// ImageReward is the rank-based scorer variant. It delegates the full
// ordering to a pretrained ranking model and takes rank 1 as the
// winner, converting the model's 1-based convention to 0-based.
type ImageReward struct {
	mu    sync.Mutex
	model rankModel
}

// NewImageReward creates an ImageReward scorer backed by the inference
// endpoint in cfg.
func NewImageReward(cfg Config) *ImageReward {
	return &ImageReward{model: &httpRankModel{endpoint: cfg.Endpoint, client: cfg.httpClient()}}
}

func (s *ImageReward) Name() string { return VariantImageReward }

// Score ranks the images against the prompt and returns the 0-based
// index of the top-ranked one.
func (s *ImageReward) Score(ctx context.Context, prompt string, images []string) (int, error) {
	if len(images) == 0 {
		return 0, &types.ScoringError{Reason: "no rendered candidates to score"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ranking, err := s.model.InferenceRank(ctx, prompt, images)
	if err != nil {
		return 0, &types.ScoringError{Reason: "ranking inference failed", Err: err}
	}
	if err := validateRanking(ranking, len(images)); err != nil {
		return 0, &types.ScoringError{Reason: err.Error()}
	}

	return ranking[0] - 1, nil
}

// validateRanking requires a permutation of 1..n. Anything partial,
// duplicated, or out of range means the model output is unusable.
func validateRanking(ranking []int, n int) error {
	if len(ranking) != n {
		return fmt.Errorf("ranking covers %d of %d images", len(ranking), n)
	}
	seen := make([]bool, n)
	for _, r := range ranking {
		if r < 1 || r > n {
			return fmt.Errorf("rank %d out of range 1..%d", r, n)
		}
		if seen[r-1] {
			return fmt.Errorf("duplicate rank %d", r)
		}
		seen[r-1] = true
	}
	return nil
}

// httpRankModel talks to a synchronous ranking inference service.
type httpRankModel struct {
	endpoint string
	client   *http.Client
}

type rankRequest struct {
	Prompt string   `json:"prompt"`
	Images []string `json:"images"`
}

type rankResponse struct {
	Ranking []int `json:"ranking"`
}

func (m *httpRankModel) InferenceRank(ctx context.Context, prompt string, images []string) ([]int, error) {
	encoded, err := encodeImages(images)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(rankRequest{Prompt: prompt, Images: encoded})
	if err != nil {
		return nil, fmt.Errorf("encoding rank request: %w", err)
	}

	url := strings.TrimRight(m.endpoint, "/") + "/rank"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling rank endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("rank endpoint returned %s: %s", resp.Status, snippet)
	}

	var parsed rankResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding rank response: %w", err)
	}
	return parsed.Ranking, nil
}
