// Package telemetry normalizes raw quarter sample payloads into a canonical
// form with a fixed-size heatmap grid.
//
// Normalization is best-effort: a missing or odd-shaped heatmap becomes an
// all-zero grid and out-of-range scalars pass through unchanged. Range
// handling happens downstream via clamping, not validation here.
package telemetry

import (
	"github.com/notfound/ballog/internal/domain/model"
	"github.com/notfound/ballog/pkg/metrics"
)

// Canonical heatmap grid dimensions.
const (
	GridRows = 10
	GridCols = 16
)

// Heatmap is the canonical fixed-size occupancy grid.
type Heatmap [GridRows][GridCols]int

// Total returns the sum of all cell values.
func (h *Heatmap) Total() int {
	total := 0
	for r := range h {
		for c := range h[r] {
			total += h[r][c]
		}
	}
	return total
}

// Telemetry is the canonical record consumed by occupancy analysis and
// ability scoring.
type Telemetry struct {
	Heatmap        Heatmap
	DistanceMeters float64
	AvgSpeedKmh    float64
	MaxSpeedKmh    float64
	SprintCount    int
	AvgHeartRate   int
	MaxHeartRate   int
	StartTime      string
	EndTime        string
}

// Normalize coerces a raw payload into canonical form. Rows and columns
// beyond the grid are ignored, missing cells stay zero. A nil heatmap yields
// an all-zero grid; the scorer tolerates that with zero occupancy.
func Normalize(raw model.RawTelemetry) Telemetry {
	t := Telemetry{
		DistanceMeters: raw.DistanceMeters,
		AvgSpeedKmh:    raw.AvgSpeedKmh,
		MaxSpeedKmh:    raw.MaxSpeedKmh,
		SprintCount:    raw.SprintCount,
		AvgHeartRate:   raw.AvgHeartRate,
		MaxHeartRate:   raw.MaxHeartRate,
		StartTime:      raw.StartTime,
		EndTime:        raw.EndTime,
	}
	t.Heatmap = coerceGrid(raw.Heatmap)
	return t
}

// coerceGrid copies the supplied rows into a fixed grid, padding with zeros
// and truncating overflow. A nil or empty grid is counted as a fallback so
// silent defaults stay observable.
func coerceGrid(rows [][]int) Heatmap {
	var grid Heatmap
	if len(rows) == 0 {
		metrics.RecordTelemetryFallback("heatmap")
		return grid
	}
	for r := 0; r < len(rows) && r < GridRows; r++ {
		for c := 0; c < len(rows[r]) && c < GridCols; c++ {
			grid[r][c] = rows[r][c]
		}
	}
	return grid
}
