// Package trajectory turns a Mission into a continuous, piecewise-linear
// position/velocity function and a bounding box.
package trajectory

import (
	"sort"

	"github.com/PossumXI/Asgard/Heimdall/internal/geometry"
	"github.com/PossumXI/Asgard/Heimdall/internal/mission"
)

// Trajectory is the derived, continuous-time view of a Mission.
type Trajectory struct {
	m *mission.Mission

	stationary bool

	// legStartTimes[i] is the time the i-th leg begins; it has
	// len(Waypoints) entries, with the last entry being the time the
	// final waypoint is reached (the "end of last leg").
	legStartTimes []float64
	legDirs       []geometry.Vec // unit direction of leg i, zero for zero-length legs
	legLens       []float64

	bboxMin, bboxMax geometry.Vec
	legsEndTime      float64
}

// New builds a Trajectory for m.
func New(m *mission.Mission) *Trajectory {
	t := &Trajectory{m: m}
	t.computeBoundingBox()

	if m.CruiseSpeed <= 0 {
		t.stationary = true
		t.legsEndTime = m.EndTime
		return t
	}

	n := len(m.Waypoints)
	t.legStartTimes = make([]float64, n)
	t.legDirs = make([]geometry.Vec, n-1)
	t.legLens = make([]float64, n-1)

	cursor := m.StartTime
	t.legStartTimes[0] = cursor
	for i := 0; i < n-1; i++ {
		a := toVec(m.Waypoints[i])
		b := toVec(m.Waypoints[i+1])
		leg := geometry.Sub(b, a)
		length := geometry.Norm(leg)
		t.legLens[i] = length

		if length > 0 {
			t.legDirs[i] = geometry.Scale(1/length, leg)
		} else {
			t.legDirs[i] = geometry.Vec{}
		}

		cursor += length / m.CruiseSpeed
		t.legStartTimes[i+1] = cursor
	}
	t.legsEndTime = cursor
	return t
}

func toVec(w mission.Waypoint) geometry.Vec {
	return geometry.New(w.X, w.Y, w.Z)
}

func (t *Trajectory) computeBoundingBox() {
	wps := t.m.Waypoints
	min := toVec(wps[0])
	max := min
	for _, w := range wps[1:] {
		v := toVec(w)
		if v.X < min.X {
			min.X = v.X
		}
		if v.Y < min.Y {
			min.Y = v.Y
		}
		if v.Z < min.Z {
			min.Z = v.Z
		}
		if v.X > max.X {
			max.X = v.X
		}
		if v.Y > max.Y {
			max.Y = v.Y
		}
		if v.Z > max.Z {
			max.Z = v.Z
		}
	}
	t.bboxMin, t.bboxMax = min, max
}

// BoundingBox returns the componentwise min/max over the mission's
// waypoints, with no inflation.
func (t *Trajectory) BoundingBox() (min, max geometry.Vec) {
	return t.bboxMin, t.bboxMax
}

// Duration returns the declared mission time window (end_time - start_time).
func (t *Trajectory) Duration() float64 {
	return t.m.EndTime - t.m.StartTime
}

// TotalDistance returns the sum of leg lengths.
func (t *Trajectory) TotalDistance() float64 {
	return t.m.TotalDistance()
}

// Mission returns the underlying mission.
func (t *Trajectory) Mission() *mission.Mission {
	return t.m
}

// PositionAt evaluates p(t). Times before start clamp to the first
// waypoint; times at or past the end of the last leg clamp to the final
// waypoint.
func (t *Trajectory) PositionAt(ti float64) geometry.Vec {
	wps := t.m.Waypoints
	if t.stationary || ti <= t.m.StartTime {
		return toVec(wps[0])
	}
	if ti >= t.legsEndTime {
		return toVec(wps[len(wps)-1])
	}

	leg := t.legIndexAt(ti)
	legLen := t.legLens[leg]
	legDur := t.legStartTimes[leg+1] - t.legStartTimes[leg]

	a := toVec(wps[leg])
	if legDur <= 0 || legLen <= 0 {
		return a
	}
	frac := (ti - t.legStartTimes[leg]) / legDur
	b := toVec(wps[leg+1])
	return geometry.Lerp(a, b, frac)
}

// VelocityAt evaluates v(t); zero outside [start_time, end_of_last_leg].
func (t *Trajectory) VelocityAt(ti float64) geometry.Vec {
	if t.stationary || ti <= t.m.StartTime || ti >= t.legsEndTime {
		return geometry.Vec{}
	}
	leg := t.legIndexAt(ti)
	if t.legLens[leg] <= 0 {
		return geometry.Vec{}
	}
	return geometry.Scale(t.m.CruiseSpeed, t.legDirs[leg])
}

// legIndexAt returns the index i such that legStartTimes[i] <= ti <
// legStartTimes[i+1], assuming ti is within (start_time, legsEndTime).
func (t *Trajectory) legIndexAt(ti float64) int {
	// sort.Search finds the first index whose legStartTimes value is > ti;
	// the leg containing ti is the one before that.
	idx := sort.Search(len(t.legStartTimes), func(i int) bool {
		return t.legStartTimes[i] > ti
	})
	idx--
	if idx < 0 {
		idx = 0
	}
	if idx > len(t.legLens)-1 {
		idx = len(t.legLens) - 1
	}
	return idx
}
