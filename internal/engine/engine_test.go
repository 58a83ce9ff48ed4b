package engine

import (
	"context"
	"math"
	"testing"

	"github.com/PossumXI/Asgard/Heimdall/internal/mission"
	"github.com/PossumXI/Asgard/Heimdall/internal/risk"
)

func mustMission(t *testing.T, id string, wps []mission.Waypoint, start, end float64, speed *float64) *mission.Mission {
	t.Helper()
	m, err := mission.New(id, wps, start, end, speed)
	if err != nil {
		t.Fatalf("mission.New(%s): %v", id, err)
	}
	return m
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func wp(x, y, z float64) mission.Waypoint { return mission.Waypoint{X: x, Y: y, Z: z} }

// Scenario 1: head-on crossing, expect a CRITICAL conflict near t=50.
func TestCheckMission_HeadOnCrossing(t *testing.T) {
	e := newTestEngine(t)
	t1 := mustMission(t, "T1", []mission.Waypoint{wp(1000, 0, 100), wp(0, 0, 100)}, 0, 100, nil)
	if err := e.RegisterMission(t1); err != nil {
		t.Fatal(err)
	}

	primary := mustMission(t, "P1", []mission.Waypoint{wp(0, 0, 100), wp(1000, 0, 100)}, 0, 100, nil)
	res := e.CheckMission(context.Background(), primary)

	if res.Cleared {
		t.Fatal("expected REJECT for head-on crossing")
	}
	found := false
	for _, c := range res.Conflicts {
		if c.OtherID == "T1" && c.Severity == risk.SeverityCritical && c.SeparationDistance < 5 {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a CRITICAL conflict with T1, separation < 5m; got %+v", res.Conflicts)
	}
}

// Scenario 2: parallel tracks 300m apart, rejected by Stage 1.
func TestCheckMission_ParallelSafe(t *testing.T) {
	e := newTestEngine(t)
	t2 := mustMission(t, "T2", []mission.Waypoint{wp(0, 300, 100), wp(1000, 300, 100)}, 0, 100, nil)
	if err := e.RegisterMission(t2); err != nil {
		t.Fatal(err)
	}

	primary := mustMission(t, "P1", []mission.Waypoint{wp(0, 0, 100), wp(1000, 0, 100)}, 0, 100, nil)
	res := e.CheckMission(context.Background(), primary)

	if !res.Cleared {
		t.Fatal("expected CLEAR for 300m parallel separation")
	}
	if len(res.Conflicts) != 0 {
		t.Errorf("expected zero conflicts, got %d", len(res.Conflicts))
	}
	if res.Metrics.Stage1Out != 0 {
		t.Errorf("expected Stage 1 to reject T2, stage1_out = %d", res.Metrics.Stage1Out)
	}
}

// Scenario 3: identical geometry but disjoint time window, rejected by Tier A.
func TestCheckMission_TemporalMiss(t *testing.T) {
	e := newTestEngine(t)
	t3 := mustMission(t, "T3", []mission.Waypoint{wp(0, 0, 100), wp(1000, 0, 100)}, 500, 600, nil)
	if err := e.RegisterMission(t3); err != nil {
		t.Fatal(err)
	}

	primary := mustMission(t, "P1", []mission.Waypoint{wp(0, 0, 100), wp(1000, 0, 100)}, 0, 100, nil)
	res := e.CheckMission(context.Background(), primary)

	if !res.Cleared {
		t.Fatal("expected CLEAR for non-overlapping time windows")
	}
	if res.Metrics.Stage1Out != 0 {
		t.Errorf("expected Stage 1 to reject T3, stage1_out = %d", res.Metrics.Stage1Out)
	}
}

// Scenario 4: crossing paths 40m apart vertically, altitude factor 1.2 at z<120.
func TestCheckMission_AltitudeStack(t *testing.T) {
	e := newTestEngine(t)
	t4 := mustMission(t, "T4", []mission.Waypoint{wp(1000, 0, 60), wp(0, 0, 60)}, 0, 100, nil)
	if err := e.RegisterMission(t4); err != nil {
		t.Fatal(err)
	}

	primary := mustMission(t, "P1", []mission.Waypoint{wp(0, 0, 100), wp(1000, 0, 100)}, 0, 100, nil)
	res := e.CheckMission(context.Background(), primary)

	var got *risk.AssessedConflict
	for i := range res.Conflicts {
		if res.Conflicts[i].OtherID == "T4" {
			got = &res.Conflicts[i]
		}
	}
	if got == nil {
		t.Fatal("expected a raw/assessed conflict against T4 within 50m vertical buffer")
	}
	if got.AltitudeRiskFactor != 1.2 {
		t.Errorf("altitude_risk_factor = %v, want 1.2", got.AltitudeRiskFactor)
	}
	if got.Severity.Rank() < risk.SeverityWarning.Rank() {
		t.Errorf("severity = %v, want at least WARNING", got.Severity)
	}
}

// Scenario 6: stationary hover at the primary's crossing point, separation ~0 at t=50.
func TestCheckMission_StationaryHover(t *testing.T) {
	e := newTestEngine(t)
	// A stationary hover is expressed as a duplicate-waypoint mission with no
	// explicit cruise_speed: total_distance is 0 so speed derives to 0,
	// rather than passing an explicit 0 (which mission.New rejects).
	t6, err := mission.New("T6", []mission.Waypoint{wp(500, 0, 100), wp(500, 0, 100)}, 0, 100, nil)
	if err != nil {
		t.Fatalf("mission.New(T6): %v", err)
	}
	if err := e.RegisterMission(t6); err != nil {
		t.Fatal(err)
	}

	primary := mustMission(t, "P1", []mission.Waypoint{wp(0, 0, 100), wp(1000, 0, 100)}, 0, 100, nil)
	res := e.CheckMission(context.Background(), primary)

	var got *risk.AssessedConflict
	for i := range res.Conflicts {
		if res.Conflicts[i].OtherID == "T6" {
			got = &res.Conflicts[i]
		}
	}
	if got == nil {
		t.Fatal("expected a CRITICAL conflict against the stationary hover")
	}
	if got.Severity != risk.SeverityCritical {
		t.Errorf("severity = %v, want CRITICAL", got.Severity)
	}
	if got.SeparationDistance > 1 {
		t.Errorf("separation = %v, want ~0 at the crossing point", got.SeparationDistance)
	}
	// TTC is measured from the conflict window's start, not from the
	// instant of minimum separation, so it reports the time-to-impact at
	// first detection rather than exactly 0.
	if math.IsInf(got.TimeToCollision, 1) || got.TimeToCollision < 0 {
		t.Errorf("TTC = %v, want a finite non-negative value", got.TimeToCollision)
	}
}

func TestRegisterMission_RejectsDuplicate(t *testing.T) {
	e := newTestEngine(t)
	m := mustMission(t, "D1", []mission.Waypoint{wp(0, 0, 0), wp(10, 0, 0)}, 0, 10, nil)
	if err := e.RegisterMission(m); err != nil {
		t.Fatal(err)
	}
	err := e.RegisterMission(m)
	if err == nil {
		t.Fatal("expected DuplicateDroneIDError on second registration")
	}
	if _, ok := err.(*DuplicateDroneIDError); !ok {
		t.Errorf("got %T, want *DuplicateDroneIDError", err)
	}
}

func TestNew_RejectsNonPositiveConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CoarseBuffer = 0
	_, err := New(cfg)
	if err == nil {
		t.Fatal("expected ConfigurationError for coarse_buffer = 0")
	}
	if _, ok := err.(*ConfigurationError); !ok {
		t.Errorf("got %T, want *ConfigurationError", err)
	}
}

// Registration order must not change the returned conflict set.
func TestCheckMission_OrderIndependent(t *testing.T) {
	buildAndCheck := func(order []string) Result {
		e := newTestEngine(t)
		missions := map[string]*mission.Mission{
			"T1": mustMission(t, "T1", []mission.Waypoint{wp(1000, 0, 100), wp(0, 0, 100)}, 0, 100, nil),
			"T4": mustMission(t, "T4", []mission.Waypoint{wp(1000, 0, 60), wp(0, 0, 60)}, 0, 100, nil),
		}
		for _, id := range order {
			if err := e.RegisterMission(missions[id]); err != nil {
				t.Fatal(err)
			}
		}
		primary := mustMission(t, "P1", []mission.Waypoint{wp(0, 0, 100), wp(1000, 0, 100)}, 0, 100, nil)
		return e.CheckMission(context.Background(), primary)
	}

	a := buildAndCheck([]string{"T1", "T4"})
	b := buildAndCheck([]string{"T4", "T1"})

	if len(a.Conflicts) != len(b.Conflicts) {
		t.Fatalf("conflict count differs by registration order: %d vs %d", len(a.Conflicts), len(b.Conflicts))
	}
	for i := range a.Conflicts {
		if a.Conflicts[i].OtherID != b.Conflicts[i].OtherID || math.Abs(a.Conflicts[i].RiskScore-b.Conflicts[i].RiskScore) > 1e-9 {
			t.Errorf("conflict %d differs by registration order: %+v vs %+v", i, a.Conflicts[i], b.Conflicts[i])
		}
	}
}

func TestGenerateReport_ContainsDecisionAndSections(t *testing.T) {
	e := newTestEngine(t)
	t1 := mustMission(t, "T1", []mission.Waypoint{wp(1000, 0, 100), wp(0, 0, 100)}, 0, 100, nil)
	if err := e.RegisterMission(t1); err != nil {
		t.Fatal(err)
	}
	primary := mustMission(t, "P1", []mission.Waypoint{wp(0, 0, 100), wp(1000, 0, 100)}, 0, 100, nil)
	res := e.CheckMission(context.Background(), primary)

	report := GenerateReport(primary, 1, res)
	for _, want := range []string{"Primary Mission", "Traffic Environment", "Deconfliction Analysis", "Decision: MISSION REJECTED", "Conflict Summary", "Top-5 Highest-Risk Conflicts"} {
		if !contains(report, want) {
			t.Errorf("report missing section %q\n%s", want, report)
		}
	}
}

func contains(haystack, needle string) bool {
	return len(haystack) >= len(needle) && indexOf(haystack, needle) >= 0
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}
