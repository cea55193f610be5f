package scorer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"sync"

	"svgsmith/pkg/types"
)

// similarityScale matches the fixed 100.0 factor applied to cosine
// similarity before taking the argmax.
const similarityScale = 100.0

// dualEncoder embeds the prompt and every image into a shared space in
// one synchronous call, preserving image order.
type dualEncoder interface {
	Encode(ctx context.Context, prompt string, images []string) (text []float64, imgs [][]float64, err error)
}

// CLIP is the similarity-based scorer variant: L2-normalize the prompt
// and image embeddings, score by scaled cosine similarity, pick the
// argmax. Ties break to the lowest index.
type CLIP struct {
	mu  sync.Mutex
	enc dualEncoder
}

// NewCLIP creates a CLIP scorer backed by the inference endpoint in cfg.
func NewCLIP(cfg Config) *CLIP {
	return &CLIP{enc: &httpDualEncoder{endpoint: cfg.Endpoint, client: cfg.httpClient()}}
}

func (s *CLIP) Name() string { return VariantCLIP }

// Score returns the index of the image most similar to the prompt.
func (s *CLIP) Score(ctx context.Context, prompt string, images []string) (int, error) {
	if len(images) == 0 {
		return 0, &types.ScoringError{Reason: "no rendered candidates to score"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	text, imgs, err := s.enc.Encode(ctx, prompt, images)
	if err != nil {
		return 0, &types.ScoringError{Reason: "embedding inference failed", Err: err}
	}
	if len(imgs) != len(images) {
		return 0, &types.ScoringError{
			Reason: fmt.Sprintf("encoder returned %d embeddings for %d images", len(imgs), len(images)),
		}
	}

	textNorm := normalize(text)
	best := 0
	bestSim := math.Inf(-1)
	for i, emb := range imgs {
		if len(emb) != len(text) {
			return 0, &types.ScoringError{
				Reason: fmt.Sprintf("image %d embedding has dimension %d, text has %d", i, len(emb), len(text)),
			}
		}
		// Strict > keeps the lowest index on ties, deterministically.
		sim := similarityScale * dot(normalize(emb), textNorm)
		if sim > bestSim {
			bestSim = sim
			best = i
		}
	}

	return best, nil
}

func normalize(v []float64) []float64 {
	n := math.Sqrt(dot(v, v))
	out := make([]float64, len(v))
	if n == 0 {
		return out
	}
	for i, x := range v {
		out[i] = x / n
	}
	return out
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// httpDualEncoder talks to a synchronous embedding inference service.
type httpDualEncoder struct {
	endpoint string
	client   *http.Client
}

type embedRequest struct {
	Prompt string   `json:"prompt"`
	Images []string `json:"images"`
}

type embedResponse struct {
	TextEmbedding   []float64   `json:"text_embedding"`
	ImageEmbeddings [][]float64 `json:"image_embeddings"`
}

func (m *httpDualEncoder) Encode(ctx context.Context, prompt string, images []string) ([]float64, [][]float64, error) {
	encoded, err := encodeImages(images)
	if err != nil {
		return nil, nil, err
	}

	body, err := json.Marshal(embedRequest{Prompt: prompt, Images: encoded})
	if err != nil {
		return nil, nil, fmt.Errorf("encoding embed request: %w", err)
	}

	url := strings.TrimRight(m.endpoint, "/") + "/embed"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("calling embed endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, nil, fmt.Errorf("embed endpoint returned %s: %s", resp.Status, snippet)
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, nil, fmt.Errorf("decoding embed response: %w", err)
	}
	return parsed.TextEmbedding, parsed.ImageEmbeddings, nil
}
