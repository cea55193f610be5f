package render

import (
	"fmt"
	"strings"
)

// ExtractSVG pulls the SVG source out of a raw model response. Models
// usually wrap code in markdown fences and surround it with prose, so
// fences are stripped first and the outermost <svg> element is taken.
func ExtractSVG(raw string) (string, error) {
	cleaned := stripCodeFences(raw)

	start := strings.Index(cleaned, "<svg")
	end := strings.LastIndex(cleaned, "</svg>")
	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("no SVG element found in response")
	}

	return cleaned[start : end+len("</svg>")], nil
}

// stripCodeFences removes markdown code fences so the SVG inside can be
// located cleanly. Handles ```svg ... ``` wrapping and duplicated
// blocks that some models produce.
func stripCodeFences(s string) string {
	var result strings.Builder
	for _, line := range strings.Split(s, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		result.WriteString(line)
		result.WriteByte('\n')
	}
	return result.String()
}
