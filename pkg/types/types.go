package types

import "time"

// RunStatus tracks the lifecycle of one synthesis run.
type RunStatus string

const (
	StatusCreated    RunStatus = "created"
	StatusExpanding  RunStatus = "expanding"
	StatusGenerating RunStatus = "generating"
	StatusRefining   RunStatus = "refining"
	StatusSelecting  RunStatus = "selecting"
	StatusDone       RunStatus = "done"
	StatusFailed     RunStatus = "failed"
)

// Candidate is one iteration's generated artifact: the raw model
// response, the SVG source extracted from it, and the paths of the
// persisted copies. Index 0 is the initial generation; index i>0 is the
// result of the i-th refinement. A candidate is never mutated after its
// iteration completes.
type Candidate struct {
	Index       int    `json:"index"`
	RawResponse string `json:"-"`
	Code        string `json:"-"`
	RawPath     string `json:"raw_path"`
	SVGPath     string `json:"svg_path"`
	PNGPath     string `json:"png_path,omitempty"`
	// Rendered is false when rasterization failed; the candidate is
	// kept for audit but excluded from scoring.
	Rendered bool `json:"rendered"`
}

// Run is the in-memory state of one synthesis run. A successful run has
// exactly RefineRounds+1 candidates, indexed 0..RefineRounds in order.
type Run struct {
	Target         string
	Prompt         string
	ExpandedPrompt string
	Viewbox        int
	RefineRounds   int
	Model          string
	Scorer         string
	Status         RunStatus
	Candidates     []Candidate
	// BestIndex is -1 until selection commits a winner.
	BestIndex int
}

// Result is the persisted summary of a run, saved after every stage
// transition so a run directory is auditable on its own.
type Result struct {
	Version        int         `json:"version"`
	InvocationID   string      `json:"invocation_id"`
	Target         string      `json:"target"`
	Prompt         string      `json:"prompt"`
	ExpandedPrompt string      `json:"expanded_prompt,omitempty"`
	Model          string      `json:"model"`
	Scorer         string      `json:"reward_model"`
	Viewbox        int         `json:"viewbox"`
	RefineRounds   int         `json:"refine_rounds"`
	Status         RunStatus   `json:"status"`
	BestIndex      int         `json:"best_index"`
	CanonicalSVG   string      `json:"canonical_svg,omitempty"`
	Candidates     []Candidate `json:"candidates"`
	Error          string      `json:"error,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}
