package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"svgsmith/pkg/types"
)

const resultFile = "result.json"

// SaveResult writes the run manifest atomically (tmp + rename) so a
// crash mid-save never leaves a truncated manifest behind.
func SaveResult(l *Layout, res *types.Result) error {
	res.UpdatedAt = time.Now()

	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}

	path := l.ResultPath()
	tmpPath := path + ".tmp"

	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("writing result: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming result: %w", err)
	}
	return nil
}

// LoadResult loads a run manifest from a run root directory. Returns
// nil without error when no manifest exists yet.
func LoadResult(runRoot string) (*types.Result, error) {
	data, err := os.ReadFile(filepath.Join(runRoot, "stage_1", resultFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading result: %w", err)
	}

	var res types.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("parsing result: %w", err)
	}
	return &res, nil
}

// ListResults collects the manifests of every run under an output root,
// newest first.
func ListResults(outputDir string) ([]*types.Result, error) {
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading output dir: %w", err)
	}

	var results []*types.Result
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		res, err := LoadResult(filepath.Join(outputDir, e.Name()))
		if err != nil || res == nil {
			continue
		}
		results = append(results, res)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].UpdatedAt.After(results[j].UpdatedAt)
	})
	return results, nil
}

// WriteConfigYAML echoes the run configuration into the run directory
// for audit.
func WriteConfigYAML(l *Layout, cfg any) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(l.ConfigPath(), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
