// Package occupancy computes spatial occupancy ratios from a heatmap grid
// relative to a declared side.
package occupancy

import (
	"github.com/notfound/ballog/internal/domain/model"
	"github.com/notfound/ballog/internal/domain/telemetry"
)

// halfCol is the first column of the right half of the grid.
const halfCol = telemetry.GridCols / 2

// Rates holds the fraction of total heatmap mass on each half of the pitch.
// Both values are in [0,1]; when the grid carries no heat at all, both are
// zero rather than NaN.
type Rates struct {
	Own      float64
	Opponent float64
}

// Analyze partitions the grid at the column midpoint and returns the share
// of heat on the player's own half versus the opponent's half.
func Analyze(grid *telemetry.Heatmap, side model.Side) Rates {
	var total, left, right int
	for r := range grid {
		for c := range grid[r] {
			v := grid[r][c]
			total += v
			if c < halfCol {
				left += v
			} else {
				right += v
			}
		}
	}
	if total == 0 {
		return Rates{}
	}

	own, opp := left, right
	if !side.IsLeft() {
		own, opp = right, left
	}
	return Rates{
		Own:      float64(own) / float64(total),
		Opponent: float64(opp) / float64(total),
	}
}
