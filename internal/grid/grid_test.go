package grid

import (
	"testing"

	"github.com/PossumXI/Asgard/Heimdall/internal/filter"
	"github.com/PossumXI/Asgard/Heimdall/internal/mission"
	"github.com/PossumXI/Asgard/Heimdall/internal/trajectory"
)

func mustTraj(t *testing.T, id string, wps []mission.Waypoint, start, end float64) *trajectory.Trajectory {
	t.Helper()
	m, err := mission.New(id, wps, start, end, nil)
	if err != nil {
		t.Fatalf("mission.New(%s): %v", id, err)
	}
	return trajectory.New(m)
}

func TestSweep_HeadOnCollision(t *testing.T) {
	primary := mustTraj(t, "P1", []mission.Waypoint{
		{X: 0, Y: 0, Z: 100}, {X: 1000, Y: 0, Z: 100},
	}, 0, 100)
	other := mustTraj(t, "T1", []mission.Waypoint{
		{X: 1000, Y: 0, Z: 100}, {X: 0, Y: 0, Z: 100},
	}, 0, 100)

	cands := []filter.Candidate{{DroneID: "T1", Traj: other}}
	g := Build(primary, cands, DefaultConfig())

	byID := map[string]*trajectory.Trajectory{"T1": other}
	raw := g.Sweep(primary, byID, func(v float64) float64 { return 50.0 + v*2.5 })

	if len(raw) == 0 {
		t.Fatal("expected at least one raw conflict for a head-on crossing")
	}
	var minSep = raw[0].Separation
	for _, rc := range raw {
		if rc.Separation < minSep {
			minSep = rc.Separation
		}
	}
	if minSep > 20 {
		t.Errorf("min separation = %v, want close to 0 near the crossing point", minSep)
	}
}

func TestSweep_ParallelNoConflict(t *testing.T) {
	primary := mustTraj(t, "P1", []mission.Waypoint{
		{X: 0, Y: 0, Z: 100}, {X: 1000, Y: 0, Z: 100},
	}, 0, 100)
	other := mustTraj(t, "T2", []mission.Waypoint{
		{X: 0, Y: 300, Z: 100}, {X: 1000, Y: 300, Z: 100},
	}, 0, 100)

	cands := []filter.Candidate{{DroneID: "T2", Traj: other}}
	g := Build(primary, cands, DefaultConfig())

	byID := map[string]*trajectory.Trajectory{"T2": other}
	raw := g.Sweep(primary, byID, func(v float64) float64 { return 50.0 })
	if len(raw) != 0 {
		t.Errorf("expected no conflicts at 300m separation, got %d", len(raw))
	}
}

func TestCoalesce_SplitsOnGap(t *testing.T) {
	raw := []RawConflict{
		{Time: 0, OtherID: "A"},
		{Time: 1, OtherID: "A"},
		{Time: 2, OtherID: "A"},
		{Time: 10, OtherID: "A"}, // gap > timeStep(1) starts a new window
	}
	windows := Coalesce(raw, 1.0)
	if len(windows) != 2 {
		t.Fatalf("expected 2 windows, got %d", len(windows))
	}
	if windows[0].Start != 0 || windows[0].End != 2 {
		t.Errorf("window 0 = [%v,%v], want [0,2]", windows[0].Start, windows[0].End)
	}
	if windows[1].Start != 10 {
		t.Errorf("window 1 start = %v, want 10", windows[1].Start)
	}
}

func TestVoxelsBetween_FarCells(t *testing.T) {
	a := cellCoord{0, 0, 0}
	b := cellCoord{3, 0, 0}
	mids := voxelsBetween(a, b)
	if len(mids) != 2 {
		t.Fatalf("expected 2 intermediate voxels between cells 3 apart, got %d", len(mids))
	}
}
