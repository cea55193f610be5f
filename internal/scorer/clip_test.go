package scorer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"svgsmith/pkg/types"
)

type fakeEncoder struct {
	text []float64
	imgs [][]float64
	err  error
}

func (f *fakeEncoder) Encode(_ context.Context, _ string, _ []string) ([]float64, [][]float64, error) {
	return f.text, f.imgs, f.err
}

func TestCLIPScore(t *testing.T) {
	// Image 2 is perfectly aligned with the text embedding.
	s := &CLIP{enc: &fakeEncoder{
		text: []float64{1, 0},
		imgs: [][]float64{{0.5, 0.5}, {0, 1}, {3, 0}},
	}}

	best, err := s.Score(context.Background(), "A cat sitting", fakeImages(t, 3))
	require.NoError(t, err)
	require.Equal(t, 2, best)
}

func TestCLIPScoreTieBreaksLow(t *testing.T) {
	// Images 0 and 2 have identical similarity after normalization
	// (scaling does not change direction); the lowest index must win,
	// every time.
	s := &CLIP{enc: &fakeEncoder{
		text: []float64{1, 0},
		imgs: [][]float64{{2, 0}, {0, 1}, {4, 0}},
	}}

	for i := 0; i < 25; i++ {
		best, err := s.Score(context.Background(), "prompt", fakeImages(t, 3))
		require.NoError(t, err)
		require.Equal(t, 0, best)
	}
}

func TestCLIPEmptyImages(t *testing.T) {
	s := &CLIP{enc: &fakeEncoder{}}

	_, err := s.Score(context.Background(), "prompt", nil)
	var serr *types.ScoringError
	require.ErrorAs(t, err, &serr)
}

func TestCLIPEmbeddingCountMismatch(t *testing.T) {
	s := &CLIP{enc: &fakeEncoder{
		text: []float64{1, 0},
		imgs: [][]float64{{1, 0}},
	}}

	_, err := s.Score(context.Background(), "prompt", fakeImages(t, 2))
	var serr *types.ScoringError
	require.ErrorAs(t, err, &serr)
}

func TestCLIPDimensionMismatch(t *testing.T) {
	s := &CLIP{enc: &fakeEncoder{
		text: []float64{1, 0},
		imgs: [][]float64{{1, 0, 0}},
	}}

	_, err := s.Score(context.Background(), "prompt", fakeImages(t, 1))
	var serr *types.ScoringError
	require.ErrorAs(t, err, &serr)
}

func TestHTTPDualEncoder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/embed", r.URL.Path)

		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "A cat sitting", req.Prompt)
		require.Len(t, req.Images, 2)

		json.NewEncoder(w).Encode(embedResponse{
			TextEmbedding:   []float64{0, 1},
			ImageEmbeddings: [][]float64{{1, 0}, {0, 5}},
		})
	}))
	defer srv.Close()

	s := NewCLIP(Config{Endpoint: srv.URL})
	best, err := s.Score(context.Background(), "A cat sitting", fakeImages(t, 2))
	require.NoError(t, err)
	require.Equal(t, 1, best)
}
