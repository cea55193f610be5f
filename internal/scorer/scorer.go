// Package scorer picks the best candidate image for a prompt using a
// pretrained reward model. Two variants exist: ImageReward delegates
// the full ordering to a ranking model; CLIP compares prompt and image
// embeddings by cosine similarity.
package scorer

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"svgsmith/pkg/types"
)

// Scorer picks the best image for a prompt. The returned index refers
// to the supplied image sequence, which must already exclude failed
// renders; the caller maps it back to a candidate index.
type Scorer interface {
	Name() string
	Score(ctx context.Context, prompt string, images []string) (int, error)
}

// Variant names accepted by Load.
const (
	VariantImageReward = "ImageReward"
	VariantCLIP        = "CLIP"
)

// Config points a scorer at its inference endpoint.
type Config struct {
	// Endpoint is the base URL of the reward-model inference service.
	Endpoint string
	// HTTPClient overrides the default client (mainly for tests).
	HTTPClient *http.Client
}

func (c Config) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 2 * time.Minute}
}

// Loading a reward model is expensive, so the loaded instance is
// process-wide and reused as long as the requested variant name is
// unchanged. Access is serialized; each scorer additionally serializes
// its own inference calls.
var (
	loadMu sync.Mutex
	loaded Scorer
)

// Load returns a scorer for the named variant, reusing the previously
// loaded instance when the name matches.
func Load(name string, cfg Config) (Scorer, error) {
	loadMu.Lock()
	defer loadMu.Unlock()

	if loaded != nil && loaded.Name() == name {
		return loaded, nil
	}

	switch name {
	case VariantImageReward:
		loaded = NewImageReward(cfg)
	case VariantCLIP:
		loaded = NewCLIP(cfg)
	default:
		return nil, &types.ScoringError{
			Reason: fmt.Sprintf("unknown reward model %q (want %q or %q)", name, VariantImageReward, VariantCLIP),
		}
	}
	return loaded, nil
}

// encodeImages reads PNG files and base64-encodes them for transport to
// the inference service, preserving order.
func encodeImages(paths []string) ([]string, error) {
	encoded := make([]string, len(paths))
	for i, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading image %s: %w", path, err)
		}
		encoded[i] = base64.StdEncoding.EncodeToString(data)
	}
	return encoded, nil
}
