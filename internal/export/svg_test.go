package export

import (
	"strings"
	"testing"
)

func TestTraceSVG(t *testing.T) {
	svg := TraceSVG([]float64{1, 4, 2.5}, []bool{false, true, true}, 640, 320)
	if !strings.HasPrefix(svg, `<?xml`) || !strings.Contains(svg, "</svg>") {
		t.Fatal("not a complete SVG document")
	}
	if strings.Count(svg, "<circle") != 3 {
		t.Fatalf("expected 3 markers:\n%s", svg)
	}
	if strings.Count(svg, "#00ff88") != 2 || strings.Count(svg, "#ff4444") != 1 {
		t.Fatalf("feasibility colors wrong:\n%s", svg)
	}
}

func TestTraceSVGDegenerate(t *testing.T) {
	if svg := TraceSVG(nil, nil, 0, 0); svg != "" {
		t.Fatal("empty trace produced output")
	}
	if svg := TraceSVG([]float64{1}, []bool{true, false}, 0, 0); svg != "" {
		t.Fatal("mismatched lengths produced output")
	}
	svg := TraceSVG([]float64{2}, []bool{true}, 0, 0)
	if !strings.Contains(svg, "<circle") {
		t.Fatal("single solve not drawn")
	}
}
