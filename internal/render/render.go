// Package render rasterizes generated SVG source to PNG and extracts
// SVG code from raw model responses.
package render

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"strings"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// Renderer converts SVG source into a raster image at a fixed square
// canvas size.
type Renderer interface {
	Render(ctx context.Context, code string, viewbox int, outPath string) error
}

// PNGRenderer implements Renderer with oksvg/rasterx.
type PNGRenderer struct{}

// Render parses the SVG, rasterizes it at viewbox x viewbox, and writes
// the PNG to outPath.
func (PNGRenderer) Render(ctx context.Context, code string, viewbox int, outPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if viewbox <= 0 {
		return fmt.Errorf("viewbox must be positive, got %d", viewbox)
	}

	icon, err := oksvg.ReadIconStream(strings.NewReader(code))
	if err != nil {
		return fmt.Errorf("parsing SVG: %w", err)
	}
	icon.SetTarget(0, 0, float64(viewbox), float64(viewbox))

	img := image.NewRGBA(image.Rect(0, 0, viewbox, viewbox))
	scanner := rasterx.NewScannerGV(viewbox, viewbox, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(viewbox, viewbox, scanner), 1)

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating PNG file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encoding PNG: %w", err)
	}
	return nil
}
