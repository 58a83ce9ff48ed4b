// Package statsummary reduces recently archived check_mission samples into
// p50/p95/p99 figures for total_ms and risk_score, using
// montanaflynn/stats's percentile functions rather than hand-rolled
// sorting.
package statsummary

import (
	"context"
	"fmt"

	"github.com/montanaflynn/stats"

	"github.com/PossumXI/Asgard/Heimdall/internal/archive"
)

// Percentiles is one metric's p50/p95/p99.
type Percentiles struct {
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
}

// Summary is the GET /api/v1/stats payload.
type Summary struct {
	SampleCount   int         `json:"sample_count"`
	RiskSampleCount int       `json:"risk_sample_count"`
	TotalMs       Percentiles `json:"total_ms"`
	RiskScore     Percentiles `json:"risk_score"`
}

// Compute pulls the last limit archived checks from a and reduces their
// total_ms and risk_score samples to percentiles.
func Compute(ctx context.Context, a *archive.Archive, limit int64) (Summary, error) {
	metrics, riskScores, err := a.RecentSamples(ctx, limit)
	if err != nil {
		return Summary{}, fmt.Errorf("statsummary: %w", err)
	}

	totalMs := make([]float64, len(metrics))
	for i, m := range metrics {
		totalMs[i] = m.TotalMs
	}

	totalPct, err := percentilesOf(totalMs)
	if err != nil {
		return Summary{}, fmt.Errorf("statsummary: total_ms: %w", err)
	}
	riskPct, err := percentilesOf(riskScores)
	if err != nil {
		return Summary{}, fmt.Errorf("statsummary: risk_score: %w", err)
	}

	return Summary{
		SampleCount:     len(metrics),
		RiskSampleCount: len(riskScores),
		TotalMs:         totalPct,
		RiskScore:       riskPct,
	}, nil
}

// percentilesOf returns the zero value, not an error, for an empty sample
// set: "no data yet" is a normal state for a freshly started service.
func percentilesOf(samples []float64) (Percentiles, error) {
	if len(samples) == 0 {
		return Percentiles{}, nil
	}

	p50, err := stats.Percentile(samples, 50)
	if err != nil {
		return Percentiles{}, err
	}
	p95, err := stats.Percentile(samples, 95)
	if err != nil {
		return Percentiles{}, err
	}
	p99, err := stats.Percentile(samples, 99)
	if err != nil {
		return Percentiles{}, err
	}
	return Percentiles{P50: p50, P95: p95, P99: p99}, nil
}
