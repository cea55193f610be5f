package pipeline

import (
	"context"
	"fmt"

	"svgsmith/internal/scorer"
	"svgsmith/internal/session"
	"svgsmith/pkg/types"
)

// Select applies the scorer to the run's rendered candidates and
// commits the winner to the canonical output path. The scorer sees only
// successfully rendered images in candidate order; its returned
// position is mapped back to the true candidate index here.
func Select(ctx context.Context, sc scorer.Scorer, run *types.Run, layout *session.Layout) (int, error) {
	var paths []string
	var indexOf []int
	for _, c := range run.Candidates {
		if !c.Rendered {
			continue
		}
		paths = append(paths, c.PNGPath)
		indexOf = append(indexOf, c.Index)
	}

	if len(paths) == 0 {
		return -1, &types.ScoringError{
			Reason: fmt.Sprintf("no rendered candidates for target %q", run.Target),
		}
	}

	pos, err := sc.Score(ctx, run.Prompt, paths)
	if err != nil {
		return -1, err
	}
	if pos < 0 || pos >= len(paths) {
		return -1, &types.ScoringError{
			Reason: fmt.Sprintf("scorer returned position %d outside 0..%d", pos, len(paths)-1),
		}
	}

	best := indexOf[pos]
	if err := session.CopyFile(layout.CanonicalPath(), run.Candidates[best].SVGPath); err != nil {
		return -1, fmt.Errorf("committing best SVG: %w", err)
	}
	return best, nil
}
