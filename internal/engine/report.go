package engine

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/PossumXI/Asgard/Heimdall/internal/mission"
	"github.com/PossumXI/Asgard/Heimdall/internal/risk"
)

const reportRule = "============================================================"

// GenerateReport formats the pinned §6 text report: header, Primary Mission,
// Traffic Environment, Deconfliction Analysis, Decision, Conflict Summary,
// and a Top-5 highest-risk conflicts block.
func GenerateReport(primary *mission.Mission, trafficCount int, result Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "HEIMDALL DECONFLICTION REPORT — %s\n", time.Now().UTC().Format(time.RFC3339))
	fmt.Fprintln(&b, reportRule)

	fmt.Fprintln(&b, "Primary Mission")
	fmt.Fprintf(&b, "  drone_id:       %s\n", primary.DroneID)
	fmt.Fprintf(&b, "  waypoints:      %d\n", len(primary.Waypoints))
	fmt.Fprintf(&b, "  time_window:    [%.1f, %.1f]\n", primary.StartTime, primary.EndTime)
	fmt.Fprintf(&b, "  duration:       %.1fs\n", primary.EndTime-primary.StartTime)
	fmt.Fprintf(&b, "  total_distance: %.1fm\n", primary.TotalDistance())
	fmt.Fprintf(&b, "  cruise_speed:   %.2fm/s\n", primary.CruiseSpeed)
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "Traffic Environment")
	fmt.Fprintf(&b, "  registered_missions: %d\n", trafficCount)
	fmt.Fprintln(&b)

	m := result.Metrics
	fmt.Fprintln(&b, "Deconfliction Analysis")
	fmt.Fprintf(&b, "  stage1 (filter):    %.2fms, %d/%d candidates survived\n", m.Stage1Ms, m.Stage1Out, m.InputCount)
	fmt.Fprintf(&b, "  stage2 (grid):      %.2fms, %d raw conflicts\n", m.Stage2Ms, m.Stage2RawConflicts)
	fmt.Fprintf(&b, "  stage3 (risk):      %.2fms, %d assessed conflicts\n", m.Stage3Ms, m.Stage3Assessed)
	fmt.Fprintf(&b, "  total:              %.2fms\n", m.TotalMs)
	fmt.Fprintln(&b)

	if result.Cleared {
		fmt.Fprintln(&b, "Decision: MISSION CLEARED")
	} else {
		fmt.Fprintln(&b, "Decision: MISSION REJECTED")
	}
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "Conflict Summary")
	counts := severityCounts(result.Conflicts)
	for _, sev := range []risk.Severity{risk.SeverityCritical, risk.SeverityHigh, risk.SeverityWarning, risk.SeverityLow, risk.SeveritySafe} {
		fmt.Fprintf(&b, "  %-9s %d\n", string(sev)+":", counts[sev])
	}
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "Top-5 Highest-Risk Conflicts")
	top := result.Conflicts
	if len(top) > 5 {
		top = top[:5]
	}
	if len(top) == 0 {
		fmt.Fprintln(&b, "  (none)")
	}
	for i, c := range top {
		ttc := "n/a"
		if !math.IsInf(c.TimeToCollision, 1) {
			ttc = fmt.Sprintf("%.1fs", c.TimeToCollision)
		}
		fmt.Fprintf(&b, "  %d. [%s] vs %s — risk=%.2f separation=%.1fm time=%.1fs ttc=%s\n",
			i+1, c.Severity, c.OtherID, c.RiskScore, c.SeparationDistance, c.Time, ttc)
		fmt.Fprintf(&b, "     %s\n", c.Recommendation)
	}

	fmt.Fprintln(&b, reportRule)
	return b.String()
}

func severityCounts(conflicts []risk.AssessedConflict) map[risk.Severity]int {
	counts := map[risk.Severity]int{
		risk.SeveritySafe:     0,
		risk.SeverityLow:      0,
		risk.SeverityWarning:  0,
		risk.SeverityHigh:     0,
		risk.SeverityCritical: 0,
	}
	for _, c := range conflicts {
		counts[c.Severity]++
	}
	return counts
}
