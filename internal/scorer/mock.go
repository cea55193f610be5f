package scorer

import (
	"context"

	"svgsmith/pkg/types"
)

// MockScorer implements Scorer for testing.
type MockScorer struct {
	Best  int
	Err   error
	Calls [][]string
}

// NewMockScorer creates a mock scorer that always picks best.
func NewMockScorer(best int) *MockScorer {
	return &MockScorer{Best: best}
}

func (m *MockScorer) Name() string { return "mock" }

// Score records the supplied image sequence and returns Best.
func (m *MockScorer) Score(_ context.Context, _ string, images []string) (int, error) {
	m.Calls = append(m.Calls, images)
	if m.Err != nil {
		return 0, m.Err
	}
	if len(images) == 0 {
		return 0, &types.ScoringError{Reason: "no rendered candidates to score"}
	}
	return m.Best, nil
}
