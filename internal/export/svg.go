// Package export renders saved run artifacts into shareable formats.
package export

import (
	"fmt"
	"strings"
)

// TraceSVG renders a bisection trace as a standalone SVG chart: the
// candidate level per solve as a line, feasible solves marked green and
// infeasible ones red.
func TraceSVG(gammas []float64, feasible []bool, width, height int) string {
	if len(gammas) == 0 || len(gammas) != len(feasible) {
		return ""
	}
	if width <= 0 {
		width = 640
	}
	if height <= 0 {
		height = 320
	}

	const margin = 24.0
	plotW := float64(width) - 2*margin
	plotH := float64(height) - 2*margin

	min, max := gammas[0], gammas[0]
	for _, g := range gammas {
		if g < min {
			min = g
		}
		if g > max {
			max = g
		}
	}
	rng := max - min
	if rng == 0 {
		rng = 1
	}

	x := func(i int) float64 {
		if len(gammas) == 1 {
			return margin + plotW/2
		}
		return margin + plotW*float64(i)/float64(len(gammas)-1)
	}
	y := func(g float64) float64 {
		return margin + plotH*(1-(g-min)/rng)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	points := make([]string, len(gammas))
	for i, g := range gammas {
		points[i] = fmt.Sprintf("%.1f,%.1f", x(i), y(g))
	}
	sb.WriteString(fmt.Sprintf(
		"<polyline points=\"%s\" fill=\"none\" stroke=\"#666688\" stroke-width=\"1\"/>\n",
		strings.Join(points, " ")))

	for i, g := range gammas {
		color := "#ff4444"
		if feasible[i] {
			color = "#00ff88"
		}
		sb.WriteString(fmt.Sprintf(
			"<circle cx=\"%.1f\" cy=\"%.1f\" r=\"3\" fill=\"%s\"/>\n",
			x(i), y(g), color))
	}

	sb.WriteString(fmt.Sprintf(
		"<text x=\"%.1f\" y=\"14\" fill=\"#888899\" font-family=\"monospace\" font-size=\"11\">gamma %.6g .. %.6g over %d solves</text>\n",
		margin, min, max, len(gammas)))
	sb.WriteString("</svg>\n")
	return sb.String()
}
