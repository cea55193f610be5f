// Package server exposes the synthesis pipeline as a thin JSON API,
// mirroring the serverless entry point's request and response shapes.
package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"svgsmith/internal/pipeline"
	"svgsmith/internal/scorer"
	"svgsmith/pkg/types"
)

// Runner executes one pipeline run. The serve command injects a closure
// that builds a fresh session per request.
type Runner func(ctx context.Context, cfg pipeline.Config) (*types.Run, error)

// Server adapts HTTP requests onto the pipeline.
type Server struct {
	run      Runner
	defaults pipeline.Config
}

// New creates a server. The defaults supply output dir, prompts file,
// and fallback model/scorer names for fields the request omits.
func New(run Runner, defaults pipeline.Config) (*Server, error) {
	if run == nil {
		return nil, errors.New("runner is required")
	}
	return &Server{run: run, defaults: defaults}, nil
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/generate", s.handleGenerate)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return logMiddleware(mux)
}

type generateRequest struct {
	Prompt      string `json:"prompt"`
	Target      string `json:"target"`
	Viewbox     int    `json:"viewbox"`
	RefineIter  *int   `json:"refine_iter"`
	Model       string `json:"model"`
	RewardModel string `json:"reward_model"`
}

type iterationResp struct {
	Iteration  int    `json:"iteration"`
	SVGContent string `json:"svg_content"`
	Rendered   bool   `json:"rendered"`
}

type generateResponse struct {
	Success       bool            `json:"success"`
	BestSVG       string          `json:"best_svg,omitempty"`
	BestIndex     int             `json:"best_index"`
	BestPNGBase64 string          `json:"best_png_base64,omitempty"`
	AllIterations []iterationResp `json:"all_iterations,omitempty"`
	Metadata      map[string]any  `json:"metadata,omitempty"`
	Error         string          `json:"error,omitempty"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Prompt == "" {
		writeError(w, http.StatusBadRequest, "missing required parameter: prompt")
		return
	}
	if req.RewardModel != "" && req.RewardModel != scorer.VariantImageReward && req.RewardModel != scorer.VariantCLIP {
		writeError(w, http.StatusBadRequest, "invalid reward_model: must be ImageReward or CLIP")
		return
	}

	cfg := s.defaults
	cfg.Prompt = req.Prompt
	if req.Target != "" {
		cfg.Target = req.Target
	}
	if req.Viewbox != 0 {
		cfg.Viewbox = req.Viewbox
	}
	if req.RefineIter != nil {
		cfg.RefineRounds = *req.RefineIter
	}
	if req.Model != "" {
		cfg.Model = req.Model
	}
	if req.RewardModel != "" {
		cfg.RewardModel = req.RewardModel
	}

	run, err := s.run(r.Context(), cfg)
	if err != nil {
		status := http.StatusInternalServerError
		var cerr *types.ConfigError
		if errors.As(err, &cerr) {
			status = http.StatusBadRequest
		}
		var uerr *types.UpstreamError
		if errors.As(err, &uerr) {
			status = http.StatusBadGateway
		}
		writeError(w, status, err.Error())
		return
	}
	if run.BestIndex < 0 || run.BestIndex >= len(run.Candidates) {
		writeError(w, http.StatusInternalServerError, "run completed without a valid best index")
		return
	}

	resp := generateResponse{
		Success:   true,
		BestIndex: run.BestIndex,
		BestSVG:   run.Candidates[run.BestIndex].Code,
		Metadata: map[string]any{
			"prompt":            run.Prompt,
			"expanded_prompt":   run.ExpandedPrompt,
			"target":            run.Target,
			"model":             run.Model,
			"reward_model":      run.Scorer,
			"refine_iterations": run.RefineRounds,
			"total_generated":   len(run.Candidates),
		},
	}
	for _, c := range run.Candidates {
		resp.AllIterations = append(resp.AllIterations, iterationResp{
			Iteration:  c.Index,
			SVGContent: c.Code,
			Rendered:   c.Rendered,
		})
	}
	if best := run.Candidates[run.BestIndex]; best.Rendered {
		if data, err := os.ReadFile(best.PNGPath); err == nil {
			resp.BestPNGBase64 = base64.StdEncoding.EncodeToString(data)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, generateResponse{Success: false, BestIndex: -1, Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("writing response: %v", err)
	}
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}
