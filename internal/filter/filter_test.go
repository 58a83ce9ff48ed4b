package filter

import (
	"testing"

	"github.com/PossumXI/Asgard/Heimdall/internal/mission"
	"github.com/PossumXI/Asgard/Heimdall/internal/trajectory"
)

func mustMission(t *testing.T, id string, wps []mission.Waypoint, start, end float64) *mission.Mission {
	t.Helper()
	m, err := mission.New(id, wps, start, end, nil)
	if err != nil {
		t.Fatalf("mission.New(%s): %v", id, err)
	}
	return m
}

func TestRun_ParallelSafeRejected(t *testing.T) {
	primary := trajectory.New(mustMission(t, "P1", []mission.Waypoint{
		{X: 0, Y: 0, Z: 100}, {X: 1000, Y: 0, Z: 100},
	}, 0, 100))

	t2 := trajectory.New(mustMission(t, "T2", []mission.Waypoint{
		{X: 0, Y: 300, Z: 100}, {X: 1000, Y: 300, Z: 100},
	}, 0, 100))

	out := Run(primary, []Candidate{{DroneID: "T2", Traj: t2}}, DefaultConfig())
	if len(out) != 0 {
		t.Errorf("expected T2 rejected by Tier C, got %d survivors", len(out))
	}
}

func TestRun_TemporalMissRejected(t *testing.T) {
	primary := trajectory.New(mustMission(t, "P1", []mission.Waypoint{
		{X: 0, Y: 0, Z: 100}, {X: 1000, Y: 0, Z: 100},
	}, 0, 100))

	t3 := trajectory.New(mustMission(t, "T3", []mission.Waypoint{
		{X: 0, Y: 0, Z: 100}, {X: 1000, Y: 0, Z: 100},
	}, 500, 600))

	out := Run(primary, []Candidate{{DroneID: "T3", Traj: t3}}, DefaultConfig())
	if len(out) != 0 {
		t.Errorf("expected T3 rejected by Tier A, got %d survivors", len(out))
	}
}

func TestRun_HeadOnSurvives(t *testing.T) {
	primary := trajectory.New(mustMission(t, "P1", []mission.Waypoint{
		{X: 0, Y: 0, Z: 100}, {X: 1000, Y: 0, Z: 100},
	}, 0, 100))

	t1 := trajectory.New(mustMission(t, "T1", []mission.Waypoint{
		{X: 1000, Y: 0, Z: 100}, {X: 0, Y: 0, Z: 100},
	}, 0, 100))

	out := Run(primary, []Candidate{{DroneID: "T1", Traj: t1}}, DefaultConfig())
	if len(out) != 1 {
		t.Fatalf("expected T1 to survive, got %d survivors", len(out))
	}
}
