package engine

import (
	"encoding/json"
	"math"
)

// metricsDTO is the pinned §6 JSON metrics shape.
type metricsDTO struct {
	Stage1Ms       float64 `json:"stage1_ms"`
	Stage2Ms       float64 `json:"stage2_ms"`
	Stage3Ms       float64 `json:"stage3_ms"`
	TotalMs        float64 `json:"total_ms"`
	InputCount     int     `json:"input_count"`
	Stage1Out      int     `json:"stage1_out"`
	Stage2Raw      int     `json:"stage2_raw"`
	Stage3Assessed int     `json:"stage3_assessed"`
}

type locationDTO struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// conflictDTO is the pinned §6 JSON conflict shape. time_to_collision is
// null when TTC is +Inf (undefined relative velocity).
type conflictDTO struct {
	Time                float64     `json:"time"`
	Location            locationDTO `json:"location"`
	PrimaryDrone        string      `json:"primary_drone"`
	ConflictingDrone    string      `json:"conflicting_drone"`
	SeparationDistance  float64     `json:"separation_distance"`
	RelativeVelocity    float64     `json:"relative_velocity"`
	ConflictDuration    float64     `json:"conflict_duration"`
	AltitudeRiskFactor  float64     `json:"altitude_risk_factor"`
	RiskScore           float64     `json:"risk_score"`
	Severity            string      `json:"severity"`
	TimeToCollision     *float64    `json:"time_to_collision"`
	Recommendation      string      `json:"recommendation"`
}

// resultDTO is the pinned §6 JSON deconfliction result shape.
type resultDTO struct {
	Cleared   bool          `json:"cleared"`
	Metrics   metricsDTO    `json:"metrics"`
	Conflicts []conflictDTO `json:"conflicts"`
}

// MarshalJSON emits the pinned §6 deconfliction result wire format.
func (r Result) MarshalJSON() ([]byte, error) {
	conflicts := make([]conflictDTO, len(r.Conflicts))
	for i, c := range r.Conflicts {
		var ttc *float64
		if !math.IsInf(c.TimeToCollision, 1) {
			v := c.TimeToCollision
			ttc = &v
		}
		conflicts[i] = conflictDTO{
			Time:               c.Time,
			Location:           locationDTO{X: c.Location.X, Y: c.Location.Y, Z: c.Location.Z},
			PrimaryDrone:       c.PrimaryID,
			ConflictingDrone:   c.OtherID,
			SeparationDistance: c.SeparationDistance,
			RelativeVelocity:   c.RelativeVelocity,
			ConflictDuration:   c.ConflictDuration,
			AltitudeRiskFactor: c.AltitudeRiskFactor,
			RiskScore:          c.RiskScore,
			Severity:           string(c.Severity),
			TimeToCollision:    ttc,
			Recommendation:     c.Recommendation,
		}
	}

	dto := resultDTO{
		Cleared: r.Cleared,
		Metrics: metricsDTO{
			Stage1Ms:       r.Metrics.Stage1Ms,
			Stage2Ms:       r.Metrics.Stage2Ms,
			Stage3Ms:       r.Metrics.Stage3Ms,
			TotalMs:        r.Metrics.TotalMs,
			InputCount:     r.Metrics.InputCount,
			Stage1Out:      r.Metrics.Stage1Out,
			Stage2Raw:      r.Metrics.Stage2RawConflicts,
			Stage3Assessed: r.Metrics.Stage3Assessed,
		},
		Conflicts: conflicts,
	}
	return json.Marshal(dto)
}
