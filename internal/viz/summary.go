package viz

import (
	"fmt"
	"strings"
	"time"

	"github.com/san-kum/iqcert/internal/iqc"
)

// RenderSummary formats an analysis outcome as a terminal panel.
func RenderSummary(scenario string, res *iqc.Result, elapsed time.Duration) string {
	var b strings.Builder
	b.WriteString(MetricLabel.Render("scenario") + "  " + MetricValue.Render(scenario) + "\n")
	if res.Valid {
		b.WriteString(MetricLabel.Render("bound   ") + "  " +
			StatusRunning.Render(fmt.Sprintf("%.6g", res.Performance)) + "\n")
	} else {
		b.WriteString(MetricLabel.Render("bound   ") + "  " +
			StatusInvalid.Render("none (search gave up)") + "\n")
	}
	b.WriteString(MetricLabel.Render("solves  ") + "  " +
		fmt.Sprintf("%d", len(res.Gammas)) + "\n")
	b.WriteString(MetricLabel.Render("elapsed ") + "  " +
		elapsed.Round(time.Millisecond).String())
	return Panel.Render(b.String())
}
