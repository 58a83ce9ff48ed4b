// Package risk implements Stage 3 of the deconfliction pipeline: turning a
// raw conflict window into a physics-aware severity assessment and
// recommendation.
package risk

import (
	"fmt"
	"math"
	"sort"

	"github.com/PossumXI/Asgard/Heimdall/internal/geometry"
	"github.com/PossumXI/Asgard/Heimdall/internal/grid"
	"github.com/PossumXI/Asgard/Heimdall/internal/trajectory"
)

// Severity is an ordinal label derived purely from risk_score.
type Severity string

const (
	SeveritySafe     Severity = "SAFE"
	SeverityLow      Severity = "LOW"
	SeverityWarning  Severity = "WARNING"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Rank gives the total order over severities (higher is worse), used by
// the engine facade's clearance decision and by sorting.
func (s Severity) Rank() int {
	switch s {
	case SeveritySafe:
		return 0
	case SeverityLow:
		return 1
	case SeverityWarning:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return -1
	}
}

// Config holds the Stage 3 reference scales and the Stage 2 dynamic-buffer
// parameters it needs to recompute B_dyn at the window's minimum-separation
// instant.
type Config struct {
	BaseSafetyBuffer float64 // B_base
	ReactionTime     float64 // t_react
	MaxAccel         float64 // a_max
	GPSUncertainty   float64 // sigma_gps

	VRef   float64
	DRef   float64
	TTCRef float64

	GridTimeStep float64 // T, for conflict_duration and window gap logic
}

// DefaultConfig returns the reference risk-scoring defaults.
func DefaultConfig() Config {
	return Config{
		BaseSafetyBuffer: 50.0,
		ReactionTime:     2.5,
		MaxAccel:         5.0,
		GPSUncertainty:   10.0,
		VRef:             30.0,
		DRef:             10.0,
		TTCRef:           10.0,
		GridTimeStep:     1.0,
	}
}

// DynamicBuffer computes B_dyn(v_rel), clamped to >= B_base.
func (c Config) DynamicBuffer(relativeSpeed float64) float64 {
	b := c.BaseSafetyBuffer +
		relativeSpeed*c.ReactionTime +
		0.5*c.MaxAccel*c.ReactionTime*c.ReactionTime +
		c.GPSUncertainty
	if b < c.BaseSafetyBuffer {
		return c.BaseSafetyBuffer
	}
	return b
}

// AssessedConflict is one (other_id, maximal contiguous conflict window)
// assessment.
type AssessedConflict struct {
	Time                float64
	Location            geometry.Vec
	PrimaryID           string
	OtherID             string
	SeparationDistance  float64
	RelativeVelocity    float64
	ConflictDuration    float64
	AltitudeRiskFactor  float64
	RiskScore           float64
	Severity            Severity
	TimeToCollision     float64 // math.Inf(1) if undefined
	Recommendation      string
}

const epsilon = 1e-6

// Assess turns one Stage 2 conflict window into an AssessedConflict.
func Assess(primaryID string, w grid.Window, primary, other *trajectory.Trajectory, cfg Config) AssessedConflict {
	// Find the instant of minimum separation within the window.
	minIdx := 0
	for i := 1; i < len(w.RawConflicts); i++ {
		if w.RawConflicts[i].Separation < w.RawConflicts[minIdx].Separation {
			minIdx = i
		}
	}
	minInstant := w.RawConflicts[minIdx]

	primaryPosAtMin := primary.PositionAt(minInstant.Time)
	otherPosAtMin := other.PositionAt(minInstant.Time)
	primaryVelAtMin := primary.VelocityAt(minInstant.Time)
	otherVelAtMin := other.VelocityAt(minInstant.Time)

	relVel := geometry.Norm(geometry.Sub(primaryVelAtMin, otherVelAtMin))

	duration := w.End - w.Start + cfg.GridTimeStep

	ttc := timeToCollision(
		primary.PositionAt(w.Start), other.PositionAt(w.Start),
		primary.VelocityAt(w.Start), other.VelocityAt(w.Start),
	)

	altFactor := altitudeRiskFactor(primaryPosAtMin.Z)

	dynBuf := cfg.DynamicBuffer(relVel)

	sepScore := geometry.Clamp01(1 - minInstant.Separation/dynBuf)
	velScore := geometry.Clamp01(relVel / cfg.VRef)
	durScore := geometry.Clamp01(duration / cfg.DRef)

	var ttcScore float64
	if math.IsInf(ttc, 1) {
		ttcScore = 0
	} else {
		ttcScore = geometry.Clamp01(1 - ttc/cfg.TTCRef)
	}

	raw := 0.40*sepScore + 0.25*ttcScore + 0.20*velScore + 0.15*durScore
	score := geometry.Clamp01(raw * altFactor)

	sev := severityOf(score)

	return AssessedConflict{
		Time:               minInstant.Time,
		Location:           geometry.Midpoint(primaryPosAtMin, otherPosAtMin),
		PrimaryID:          primaryID,
		OtherID:            w.OtherID,
		SeparationDistance: minInstant.Separation,
		RelativeVelocity:   relVel,
		ConflictDuration:   duration,
		AltitudeRiskFactor: altFactor,
		RiskScore:          score,
		Severity:           sev,
		TimeToCollision:    ttc,
		Recommendation:     recommendation(sev, w.OtherID, ttc, minInstant.Separation),
	}
}

// timeToCollision solves for t* >= 0 minimizing ||dp + dv*t|| under linear
// extrapolation from the window's first instant.
func timeToCollision(pPos, oPos, pVel, oVel geometry.Vec) float64 {
	dp := geometry.Sub(pPos, oPos)
	dv := geometry.Sub(pVel, oVel)
	dvdv := geometry.Dot(dv, dv)
	if dvdv < epsilon {
		return math.Inf(1)
	}
	t := -geometry.Dot(dp, dv) / dvdv
	if t < 0 {
		return 0
	}
	return t
}

func altitudeRiskFactor(z float64) float64 {
	switch {
	case z < 30:
		return 1.0
	case z <= 120:
		return 1.2
	case z <= 300:
		return 1.0
	default:
		return 0.9
	}
}

func severityOf(score float64) Severity {
	switch {
	case score < 0.10:
		return SeveritySafe
	case score < 0.30:
		return SeverityLow
	case score < 0.55:
		return SeverityWarning
	case score < 0.80:
		return SeverityHigh
	default:
		return SeverityCritical
	}
}

func recommendation(sev Severity, otherID string, ttc, separation float64) string {
	ttcStr := "n/a"
	if !math.IsInf(ttc, 1) {
		ttcStr = fmt.Sprintf("%.1fs", ttc)
	}

	switch sev {
	case SeverityCritical:
		return fmt.Sprintf("REJECT – imminent collision with %s (TTC %s, separation %.1fm)", otherID, ttcStr, separation)
	case SeverityHigh:
		return fmt.Sprintf("WARN – altitude adjustment or delay around %s (TTC %s, separation %.1fm)", otherID, ttcStr, separation)
	case SeverityWarning:
		return fmt.Sprintf("ADJUST – minor reroute recommended near %s (separation %.1fm)", otherID, separation)
	case SeverityLow:
		return fmt.Sprintf("MONITOR – %s nearby (separation %.1fm)", otherID, separation)
	default:
		return fmt.Sprintf("CLEAR – %s poses no significant risk", otherID)
	}
}

// SortConflicts orders assessed conflicts by risk_score descending, ties
// broken by ascending time.
func SortConflicts(conflicts []AssessedConflict) {
	sort.SliceStable(conflicts, func(i, j int) bool {
		if conflicts[i].RiskScore != conflicts[j].RiskScore {
			return conflicts[i].RiskScore > conflicts[j].RiskScore
		}
		return conflicts[i].Time < conflicts[j].Time
	})
}
