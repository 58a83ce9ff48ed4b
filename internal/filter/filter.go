// Package filter implements Stage 1 of the deconfliction pipeline: a
// three-tier candidate filter (temporal overlap, inflated AABB overlap,
// coarse sampled proximity) that prunes traffic missions before the more
// expensive occupancy-grid stage.
package filter

import (
	"math"

	"github.com/PossumXI/Asgard/Heimdall/internal/geometry"
	"github.com/PossumXI/Asgard/Heimdall/internal/trajectory"
)

// Config holds the Stage 1 tunables (spec defaults: 200m / 10s).
type Config struct {
	CoarseBuffer float64
	CoarseStep   float64
}

// DefaultConfig returns the reference filter defaults.
func DefaultConfig() Config {
	return Config{CoarseBuffer: 200.0, CoarseStep: 10.0}
}

// Candidate pairs a traffic trajectory with its source drone id.
type Candidate struct {
	DroneID string
	Traj    *trajectory.Trajectory
}

// Run applies all three tiers in order and returns the traffic candidates
// that survive, in the same relative order they were given.
func Run(primary *trajectory.Trajectory, traffic []Candidate, cfg Config) []Candidate {
	survivors := make([]Candidate, 0, len(traffic))
	for _, c := range traffic {
		if !temporalOverlap(primary, c.Traj) {
			continue
		}
		if !aabbOverlap(primary, c.Traj, cfg.CoarseBuffer) {
			continue
		}
		if !coarseProximity(primary, c.Traj, cfg) {
			continue
		}
		survivors = append(survivors, c)
	}
	return survivors
}

// temporalOverlap is Tier A: [m.start,m.end] intersects [p.start,p.end].
func temporalOverlap(p, m *trajectory.Trajectory) bool {
	pStart, pEnd := p.Mission().StartTime, p.Mission().EndTime
	mStart, mEnd := m.Mission().StartTime, m.Mission().EndTime
	return mStart <= pEnd && mEnd >= pStart
}

// aabbOverlap is Tier B: the two bounding boxes, each inflated by buffer on
// every face, intersect.
func aabbOverlap(p, m *trajectory.Trajectory, buffer float64) bool {
	pMin, pMax := p.BoundingBox()
	mMin, mMax := m.BoundingBox()

	pMin, pMax = inflate(pMin, pMax, buffer)
	mMin, mMax = inflate(mMin, mMax, buffer)

	return pMin.X <= mMax.X && pMax.X >= mMin.X &&
		pMin.Y <= mMax.Y && pMax.Y >= mMin.Y &&
		pMin.Z <= mMax.Z && pMax.Z >= mMin.Z
}

func inflate(min, max geometry.Vec, buffer float64) (geometry.Vec, geometry.Vec) {
	d := geometry.New(buffer, buffer, buffer)
	return geometry.Sub(min, d), geometry.Add(max, d)
}

// coarseProximity is Tier C: sample both trajectories on a shared coarse
// grid over the overlapping time window (endpoint included) and keep the
// candidate if any sample pair comes within CoarseBuffer.
func coarseProximity(p, m *trajectory.Trajectory, cfg Config) bool {
	start := math.Max(p.Mission().StartTime, m.Mission().StartTime)
	end := math.Min(p.Mission().EndTime, m.Mission().EndTime)
	if end < start {
		return false
	}

	step := cfg.CoarseStep
	if step <= 0 {
		step = 1
	}

	for ti := start; ; ti += step {
		t := ti
		last := false
		if t >= end {
			t = end
			last = true
		}
		if geometry.Distance(p.PositionAt(t), m.PositionAt(t)) <= cfg.CoarseBuffer {
			return true
		}
		if last {
			break
		}
	}
	return false
}
