// Package session manages the on-disk namespace of one synthesis run:
// per-iteration artifacts, the run configuration echo, and the result
// manifest.
package session

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Layout resolves every artifact path for one run. All artifacts live
// under <output>/<target>/stage_1 with per-kind subdirectories, and the
// canonical output sits one level up, independent of iteration count.
type Layout struct {
	Root   string
	target string
}

// NewLayout creates the layout for a run keyed by target.
func NewLayout(outputDir, target string) *Layout {
	return &Layout{Root: filepath.Join(outputDir, target), target: target}
}

func (l *Layout) StageDir() string { return filepath.Join(l.Root, "stage_1") }
func (l *Layout) SVGDir() string   { return filepath.Join(l.StageDir(), "svg_logs") }
func (l *Layout) PNGDir() string   { return filepath.Join(l.StageDir(), "png_logs") }
func (l *Layout) RawDir() string   { return filepath.Join(l.StageDir(), "raw_logs") }

// RawPath is the raw model response of iteration i.
func (l *Layout) RawPath(i int) string {
	return filepath.Join(l.RawDir(), fmt.Sprintf("%s_raw%d", l.target, i))
}

// ExpandedPromptPath holds the expansion step's output.
func (l *Layout) ExpandedPromptPath() string {
	return filepath.Join(l.RawDir(), l.target+"_prompt")
}

// SVGPath is the extracted SVG code of iteration i.
func (l *Layout) SVGPath(i int) string {
	return filepath.Join(l.SVGDir(), fmt.Sprintf("%s_%d.svg", l.target, i))
}

// PNGPath is the raster render of iteration i.
func (l *Layout) PNGPath(i int) string {
	return filepath.Join(l.PNGDir(), fmt.Sprintf("%s_%d.png", l.target, i))
}

// CanonicalPath is the stable location of the winning SVG.
func (l *Layout) CanonicalPath() string {
	return filepath.Join(l.Root, l.target+"_template.svg")
}

// ResultPath is the run's manifest file.
func (l *Layout) ResultPath() string {
	return filepath.Join(l.StageDir(), resultFile)
}

// ConfigPath is the YAML echo of the run configuration.
func (l *Layout) ConfigPath() string {
	return filepath.Join(l.StageDir(), "config.yaml")
}

// PromptsCopyPath is where the prompts file used for the run is copied.
func (l *Layout) PromptsCopyPath() string {
	return filepath.Join(l.StageDir(), "prompts.yaml")
}

// MkdirAll creates every artifact directory for the run.
func (l *Layout) MkdirAll() error {
	for _, dir := range []string{l.StageDir(), l.SVGDir(), l.PNGDir(), l.RawDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating run directory: %w", err)
		}
	}
	return nil
}

// CopyFile copies src to dst, used for the canonical output and the
// prompts echo.
func CopyFile(dst, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying to %s: %w", dst, err)
	}
	return out.Close()
}
