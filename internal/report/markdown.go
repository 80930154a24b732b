package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/joelkehle/elasticity-lab/internal/scenario"
)

// BuildMarkdown renders one simulation result as a GFM report. The same
// markdown feeds the HTML view and the PDF export.
func BuildMarkdown(result scenario.SimulationResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Price Elasticity Scenario Report\n\n")
	fmt.Fprintf(&b, "- Scenario: %s\n", sanitize(result.ScenarioName))
	fmt.Fprintf(&b, "- Tier: %s\n", result.Tier)
	fmt.Fprintf(&b, "- Generated: %s\n\n", result.GeneratedAt.Format(time.RFC3339))

	fmt.Fprintf(&b, "## Model Inputs\n\n")
	fmt.Fprintf(&b, "| Parameter | Value |\n|-----------|-------|\n")
	fmt.Fprintf(&b, "| Price elasticity of demand | %.2f |\n", result.Elasticity)
	fmt.Fprintf(&b, "| Confidence interval | ±%.2f |\n", result.ConfidenceInterval)
	fmt.Fprintf(&b, "| Elasticity bounds | %.2f to %.2f |\n\n",
		result.Elasticity-result.ConfidenceInterval, result.Elasticity+result.ConfidenceInterval)

	fmt.Fprintf(&b, "## Baseline vs Forecast\n\n")
	fmt.Fprintf(&b, "| Metric | Baseline | Forecast | Delta |\n|--------|----------|----------|-------|\n")
	fmt.Fprintf(&b, "| Subscribers | %d | %d | %+d%s |\n",
		result.Baseline.Subscribers, result.Forecasted.Subscribers,
		result.Delta.Subscribers, pctSuffix(result.Delta.SubscribersPct))
	fmt.Fprintf(&b, "| Weekly revenue | $%.0f | $%.0f | %+.0f%s |\n",
		result.Baseline.Revenue, result.Forecasted.Revenue,
		result.Delta.Revenue, pctSuffix(result.Delta.RevenuePct))
	fmt.Fprintf(&b, "| Churn rate | %.2f%% | %.2f%% | %+.2f pts |\n",
		result.Baseline.ChurnRate*100, result.Forecasted.ChurnRate*100, result.Delta.ChurnRatePts*100)
	fmt.Fprintf(&b, "| ARPU | $%.2f | $%.2f | %+.2f |\n",
		result.Baseline.ARPU, result.Forecasted.ARPU, result.Delta.ARPU)
	fmt.Fprintf(&b, "| CLTV | $%.2f | $%.2f | %+.2f |\n",
		result.Baseline.CLTV, result.Forecasted.CLTV, result.Delta.CLTV)
	fmt.Fprintf(&b, "| Net adds | %d | %d | %+d |\n\n",
		result.Baseline.NetAdds, result.Forecasted.NetAdds, result.Delta.NetAdds)

	fmt.Fprintf(&b, "## 12-Month Trajectory\n\n")
	fmt.Fprintf(&b, "The price effect ramps linearly and reaches its full size by month 3.\n\n")
	fmt.Fprintf(&b, "| Month | Subscribers | Revenue | Churn |\n|-------|-------------|---------|-------|\n")
	for _, p := range result.TimeSeries {
		fmt.Fprintf(&b, "| %d | %d | $%.0f | %.2f%% |\n", p.Month, p.Subscribers, p.Revenue, p.ChurnRate*100)
	}
	fmt.Fprintf(&b, "\n")

	if len(result.Warnings) > 0 {
		fmt.Fprintf(&b, "## Warnings\n\n")
		for _, w := range result.Warnings {
			fmt.Fprintf(&b, "- %s\n", sanitize(w))
		}
		fmt.Fprintf(&b, "\n")
	}

	fmt.Fprintf(&b, "## Constraints\n\n")
	if result.ConstraintsMet {
		fmt.Fprintf(&b, "All pricing constraints are satisfied.\n")
	} else {
		fmt.Fprintf(&b, "> One or more pricing constraints are NOT satisfied. Review before acting on this scenario.\n")
	}
	return b.String()
}

func pctSuffix(pct *float64) string {
	if pct == nil {
		return ""
	}
	return fmt.Sprintf(" (%+.1f%%)", *pct)
}

func sanitize(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}
