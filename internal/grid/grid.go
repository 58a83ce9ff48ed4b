// Package grid implements Stage 2 of the deconfliction pipeline: a sparse
// 4D (space x time) occupancy index built over the candidates that survive
// Stage 1, swept against the primary trajectory to emit raw conflicts.
package grid

import (
	"math"

	"github.com/PossumXI/Asgard/Heimdall/internal/filter"
	"github.com/PossumXI/Asgard/Heimdall/internal/geometry"
	"github.com/PossumXI/Asgard/Heimdall/internal/trajectory"
)

// Config holds the Stage 2 tunables (spec defaults: 100m cell / 1s bucket).
type Config struct {
	CellSize float64
	TimeStep float64
}

// DefaultConfig returns the reference grid defaults.
func DefaultConfig() Config {
	return Config{CellSize: 100.0, TimeStep: 1.0}
}

// RawConflict is emitted whenever the exact separation between the primary
// and a candidate, at a sampled instant, falls below the dynamic safety
// buffer for that instant.
type RawConflict struct {
	Time       float64
	PrimaryPos geometry.Vec
	OtherID    string
	OtherPos   geometry.Vec
	Separation float64
}

type cellCoord struct{ x, y, z int64 }

type cellKey struct {
	cellCoord
	t int64
}

// Grid is the sparse (cell_x, cell_y, cell_z, time_bucket) -> {drone ids}
// index. It is owned exclusively by one check_mission call.
type Grid struct {
	cfg Config
	t0  float64
	cells map[cellKey]map[string]struct{}
}

// Build walks every candidate trajectory at TimeStep resolution (inclusive
// of its end time), inserting its cell/time-bucket into the sparse index.
// Cells skipped between consecutive samples at high relative speed are
// back-filled with a 3D voxel traversal so low temporal resolution cannot
// tunnel through a conflict.
func Build(primary *trajectory.Trajectory, candidates []filter.Candidate, cfg Config) *Grid {
	g := &Grid{
		cfg:   cfg,
		t0:    primary.Mission().StartTime,
		cells: make(map[cellKey]map[string]struct{}),
	}
	for _, c := range candidates {
		g.insertTrajectory(c.DroneID, c.Traj)
	}
	return g
}

func (g *Grid) insertTrajectory(id string, traj *trajectory.Trajectory) {
	m := traj.Mission()
	step := g.cfg.TimeStep
	if step <= 0 {
		step = 1
	}

	var prevCell cellCoord
	havePrev := false

	walk := func(t float64) {
		pos := traj.PositionAt(t)
		cell := g.cellOf(pos)
		ti := g.timeIndex(t)

		if havePrev && cellsFar(prevCell, cell) {
			for _, mid := range voxelsBetween(prevCell, cell) {
				g.insert(id, mid, ti)
			}
		}
		g.insert(id, cell, ti)
		prevCell = cell
		havePrev = true
	}

	for t := m.StartTime; t < m.EndTime; t += step {
		walk(t)
	}
	walk(m.EndTime)
}

func (g *Grid) insert(id string, c cellCoord, ti int64) {
	key := cellKey{c, ti}
	set := g.cells[key]
	if set == nil {
		set = make(map[string]struct{})
		g.cells[key] = set
	}
	set[id] = struct{}{}
}

func (g *Grid) cellOf(v geometry.Vec) cellCoord {
	return cellCoord{
		x: floorDiv(v.X, g.cfg.CellSize),
		y: floorDiv(v.Y, g.cfg.CellSize),
		z: floorDiv(v.Z, g.cfg.CellSize),
	}
}

func (g *Grid) timeIndex(t float64) int64 {
	return int64(math.Floor((t - g.t0) / g.cfg.TimeStep))
}

func floorDiv(v, size float64) int64 {
	return int64(math.Floor(v / size))
}

// cellsFar reports whether a and b differ by more than one cell on any
// axis, meaning a single sample step could have tunneled through
// intervening cells.
func cellsFar(a, b cellCoord) bool {
	return absI64(a.x-b.x) > 1 || absI64(a.y-b.y) > 1 || absI64(a.z-b.z) > 1
}

func absI64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// voxelsBetween returns the cell coordinates a 3D DDA line from a to b
// passes through, excluding the endpoints (the caller inserts those
// separately). Bresenham-like back-fill, so a fast-moving drone can't
// tunnel through a cell between sampled points.
func voxelsBetween(a, b cellCoord) []cellCoord {
	steps := maxI64(absI64(b.x-a.x), absI64(b.y-a.y), absI64(b.z-a.z))
	if steps <= 1 {
		return nil
	}
	out := make([]cellCoord, 0, steps-1)
	for s := int64(1); s < steps; s++ {
		f := float64(s) / float64(steps)
		out = append(out, cellCoord{
			x: a.x + roundI64(float64(b.x-a.x)*f),
			y: a.y + roundI64(float64(b.y-a.y)*f),
			z: a.z + roundI64(float64(b.z-a.z)*f),
		})
	}
	return out
}

func roundI64(f float64) int64 {
	return int64(math.Round(f))
}

func maxI64(vs ...int64) int64 {
	m := vs[0]
	for _, v := range vs[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// DynamicBufferFunc computes B_dyn for a given relative speed.
type DynamicBufferFunc func(relativeSpeed float64) float64

// Sweep walks the primary trajectory at TimeStep resolution and, for every
// sampled instant, probes the 3x3x3 cell neighborhood of its time bucket.
// For every candidate id found there it recomputes exact separation and
// emits a RawConflict if separation is below the dynamic buffer at that
// instant.
func (g *Grid) Sweep(primary *trajectory.Trajectory, candidates map[string]*trajectory.Trajectory, dynBuffer DynamicBufferFunc) []RawConflict {
	var out []RawConflict
	m := primary.Mission()
	step := g.cfg.TimeStep
	if step <= 0 {
		step = 1
	}

	sample := func(t float64) {
		pPos := primary.PositionAt(t)
		pVel := primary.VelocityAt(t)
		cell := g.cellOf(pPos)
		ti := g.timeIndex(t)

		seen := make(map[string]struct{})
		for dx := int64(-1); dx <= 1; dx++ {
			for dy := int64(-1); dy <= 1; dy++ {
				for dz := int64(-1); dz <= 1; dz++ {
					key := cellKey{cellCoord{cell.x + dx, cell.y + dy, cell.z + dz}, ti}
					ids := g.cells[key]
					for id := range ids {
						if _, dup := seen[id]; dup {
							continue
						}
						seen[id] = struct{}{}

						otherTraj, ok := candidates[id]
						if !ok {
							continue
						}
						oPos := otherTraj.PositionAt(t)
						oVel := otherTraj.VelocityAt(t)
						sep := geometry.Distance(pPos, oPos)
						vRel := geometry.Norm(geometry.Sub(pVel, oVel))
						buf := dynBuffer(vRel)
						if sep < buf {
							out = append(out, RawConflict{
								Time:       t,
								PrimaryPos: pPos,
								OtherID:    id,
								OtherPos:   oPos,
								Separation: sep,
							})
						}
					}
				}
			}
		}
	}

	for t := m.StartTime; t < m.EndTime; t += step {
		sample(t)
	}
	sample(m.EndTime)

	return out
}

// Window is a maximal contiguous run of RawConflicts against the same
// other drone, with no gap larger than the grid's time step.
type Window struct {
	OtherID     string
	Start       float64
	End         float64
	RawConflicts []RawConflict
}

// Coalesce groups raw conflicts by other_id and splits each group into
// maximal contiguous windows (gap > TimeStep starts a new window). Input
// order is not assumed to be sorted by time; output windows are sorted by
// start time within each other_id, and other_ids are processed in first-
// seen order for determinism.
func Coalesce(raw []RawConflict, timeStep float64) []Window {
	order := make([]string, 0)
	byID := make(map[string][]RawConflict)
	for _, rc := range raw {
		if _, ok := byID[rc.OtherID]; !ok {
			order = append(order, rc.OtherID)
		}
		byID[rc.OtherID] = append(byID[rc.OtherID], rc)
	}

	var windows []Window
	for _, id := range order {
		conflicts := byID[id]
		sortByTime(conflicts)

		var cur []RawConflict
		flush := func() {
			if len(cur) == 0 {
				return
			}
			windows = append(windows, Window{
				OtherID:      id,
				Start:        cur[0].Time,
				End:          cur[len(cur)-1].Time,
				RawConflicts: append([]RawConflict(nil), cur...),
			})
			cur = nil
		}

		for _, rc := range conflicts {
			if len(cur) > 0 && rc.Time-cur[len(cur)-1].Time > timeStep {
				flush()
			}
			cur = append(cur, rc)
		}
		flush()
	}
	return windows
}

func sortByTime(rcs []RawConflict) {
	// small-N insertion sort keeps this allocation-free and avoids pulling
	// in sort.Slice's reflection-based comparator for a handful of samples.
	for i := 1; i < len(rcs); i++ {
		for j := i; j > 0 && rcs[j-1].Time > rcs[j].Time; j-- {
			rcs[j-1], rcs[j] = rcs[j], rcs[j-1]
		}
	}
}
