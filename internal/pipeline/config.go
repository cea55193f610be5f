package pipeline

import (
	"svgsmith/internal/scorer"
	"svgsmith/pkg/types"
)

// Defaults applied by the entry-point adapters.
const (
	DefaultViewbox      = 512
	DefaultRefineRounds = 2
	DefaultTarget       = "generated"
	DefaultModel        = "gpt-4o"
	DefaultRewardModel  = scorer.VariantImageReward
)

// Config holds everything needed for one synthesis run.
type Config struct {
	// Target names every artifact of the run.
	Target string `yaml:"target"`
	// Prompt is the original user-supplied text.
	Prompt string `yaml:"prompt"`
	// Viewbox is the square canvas size, fixed for the whole run.
	Viewbox int `yaml:"viewbox"`
	// RefineRounds is the number of refinement iterations after the
	// initial generation. Zero is valid.
	RefineRounds int `yaml:"refine_rounds"`
	// Model is the language model name.
	Model string `yaml:"model"`
	// RewardModel is the scorer variant used for selection.
	RewardModel string `yaml:"reward_model"`
	// OutputDir is the root under which the run namespace is created.
	OutputDir string `yaml:"output_dir"`
	// PromptsFile, when set, is copied into the run directory for audit.
	PromptsFile string `yaml:"prompts_file,omitempty"`
}

// ApplyDefaults fills unset optional fields. RefineRounds is left
// alone because zero is a meaningful value.
func (c *Config) ApplyDefaults() {
	if c.Target == "" {
		c.Target = DefaultTarget
	}
	if c.Viewbox == 0 {
		c.Viewbox = DefaultViewbox
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.RewardModel == "" {
		c.RewardModel = DefaultRewardModel
	}
	if c.OutputDir == "" {
		c.OutputDir = "./output"
	}
}

// Validate rejects invalid configuration before any external call.
func (c *Config) Validate() error {
	if c.Prompt == "" {
		return &types.ConfigError{Field: "prompt", Reason: "is required"}
	}
	if c.Target == "" {
		return &types.ConfigError{Field: "target", Reason: "is required"}
	}
	if c.Viewbox <= 0 {
		return &types.ConfigError{Field: "viewbox", Reason: "must be positive"}
	}
	if c.RefineRounds < 0 {
		return &types.ConfigError{Field: "refine_rounds", Reason: "must be non-negative"}
	}
	if c.Model == "" {
		return &types.ConfigError{Field: "model", Reason: "is required"}
	}
	if c.RewardModel != scorer.VariantImageReward && c.RewardModel != scorer.VariantCLIP {
		return &types.ConfigError{Field: "reward_model", Reason: "must be ImageReward or CLIP"}
	}
	return nil
}
