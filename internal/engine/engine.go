// Package engine is the deconfliction engine facade: it owns the traffic
// registry, runs the three-stage pipeline for a primary mission, and
// synthesizes the clearance decision.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/PossumXI/Asgard/Heimdall/internal/filter"
	"github.com/PossumXI/Asgard/Heimdall/internal/grid"
	"github.com/PossumXI/Asgard/Heimdall/internal/mission"
	"github.com/PossumXI/Asgard/Heimdall/internal/risk"
	"github.com/PossumXI/Asgard/Heimdall/internal/trajectory"
	"github.com/PossumXI/Asgard/Heimdall/internal/tracing"
)

// trafficEntry pairs an immutable registered mission with its precomputed
// trajectory, so repeated checks don't re-derive it.
type trafficEntry struct {
	mission *mission.Mission
	traj    *trajectory.Trajectory
}

// Engine owns a traffic registry and runs check_mission calls against it.
// The registry is protected by a readers-writer lock: registration takes
// the exclusive side, concurrent checks take the shared side.
type Engine struct {
	mu       sync.RWMutex
	registry map[string]trafficEntry
	order    []string // registration order, for deterministic iteration
	cfg      Config
}

// New constructs an Engine, rejecting a non-positive buffer or step.
func New(cfg Config) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Engine{
		registry: make(map[string]trafficEntry),
		cfg:      cfg,
	}, nil
}

// RegisterMission adds a traffic mission to the registry. O(1). Rejects a
// duplicate drone_id; the registry is unchanged on failure.
func (e *Engine) RegisterMission(m *mission.Mission) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.registry[m.DroneID]; exists {
		return &DuplicateDroneIDError{DroneID: m.DroneID}
	}
	e.registry[m.DroneID] = trafficEntry{mission: m, traj: trajectory.New(m)}
	e.order = append(e.order, m.DroneID)
	return nil
}

// TrafficCount reports the number of currently registered traffic
// missions, for callers building a report or status payload.
func (e *Engine) TrafficCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.order)
}

// Metrics reports per-stage timing and reduction counts for one
// check_mission call.
type Metrics struct {
	Stage1Ms         float64
	Stage2Ms         float64
	Stage3Ms         float64
	TotalMs          float64
	InputCount       int
	Stage1Out        int
	Stage2RawConflicts int
	Stage3Assessed   int
}

// Result is the full output of CheckMission.
type Result struct {
	Cleared   bool
	Conflicts []risk.AssessedConflict
	Metrics   Metrics
}

// highSeverityRank is the threshold at and above which a conflict blocks
// clearance: cleared iff no conflict has severity >= HIGH.
var highSeverityRank = risk.SeverityHigh.Rank()

// CheckMission runs the three-stage pipeline for primary against every
// currently registered traffic mission and returns the assessed conflicts,
// clearance decision, and per-stage metrics. The primary mission is not
// retained; it is validated by mission.New before this is ever called.
// ctx scopes one span for the call and a child span per pipeline stage.
func (e *Engine) CheckMission(ctx context.Context, primary *mission.Mission) Result {
	ctx, endCall := tracing.StageSpan(ctx, "check_mission")
	defer endCall()

	callStart := time.Now()

	e.mu.RLock()
	candidates := make([]filter.Candidate, 0, len(e.order))
	trajByID := make(map[string]*trajectory.Trajectory, len(e.order))
	for _, id := range e.order {
		entry := e.registry[id]
		candidates = append(candidates, filter.Candidate{DroneID: id, Traj: entry.traj})
		trajByID[id] = entry.traj
	}
	inputCount := len(e.order)
	e.mu.RUnlock()

	primaryTraj := trajectory.New(primary)

	stage1Start := time.Now()
	_, endStage1 := tracing.StageSpan(ctx, "stage1_filter")
	survivors := filter.Run(primaryTraj, candidates, e.cfg.filterConfig())
	endStage1()
	stage1Ms := msSince(stage1Start)

	stage2Start := time.Now()
	_, endStage2 := tracing.StageSpan(ctx, "stage2_grid")
	g := grid.Build(primaryTraj, survivors, e.cfg.gridConfig())
	dynBuf := e.cfg.riskConfig().DynamicBuffer
	raw := g.Sweep(primaryTraj, filterTrajByID(survivors, trajByID), grid.DynamicBufferFunc(dynBuf))
	windows := grid.Coalesce(raw, e.cfg.GridTimeStep)
	endStage2()
	stage2Ms := msSince(stage2Start)

	stage3Start := time.Now()
	_, endStage3 := tracing.StageSpan(ctx, "stage3_risk")
	riskCfg := e.cfg.riskConfig()
	assessed := make([]risk.AssessedConflict, 0, len(windows))
	for _, w := range windows {
		other := trajByID[w.OtherID]
		if other == nil {
			continue
		}
		assessed = append(assessed, risk.Assess(primary.DroneID, w, primaryTraj, other, riskCfg))
	}
	risk.SortConflicts(assessed)
	endStage3()
	stage3Ms := msSince(stage3Start)

	cleared := true
	for _, c := range assessed {
		if c.Severity.Rank() >= highSeverityRank {
			cleared = false
			break
		}
	}

	metrics := Metrics{
		Stage1Ms:           stage1Ms,
		Stage2Ms:           stage2Ms,
		Stage3Ms:           stage3Ms,
		TotalMs:            msSince(callStart),
		InputCount:         inputCount,
		Stage1Out:          len(survivors),
		Stage2RawConflicts: len(raw),
		Stage3Assessed:     len(assessed),
	}

	return Result{Cleared: cleared, Conflicts: assessed, Metrics: metrics}
}

func filterTrajByID(survivors []filter.Candidate, all map[string]*trajectory.Trajectory) map[string]*trajectory.Trajectory {
	out := make(map[string]*trajectory.Trajectory, len(survivors))
	for _, c := range survivors {
		out[c.DroneID] = all[c.DroneID]
	}
	return out
}

func msSince(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
