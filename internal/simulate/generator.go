package simulate

import (
	"fmt"
	"math/rand"
	"time"
)

// Telemetry generation ranges, roughly what a wearable reports for one
// 15-minute quarter of amateur football.
const (
	distanceMinMeters   = 800.0
	distanceRangeMeters = 1400.0
	avgSpeedMinKmh      = 4.0
	avgSpeedRangeKmh    = 4.0
	maxSpeedMinKmh      = 14.0
	maxSpeedRangeKmh    = 12.0
	sprintMax           = 12
	avgHeartRateMin     = 110
	avgHeartRateRange   = 50
	heartRateHeadroom   = 20
	heartRateHeadroomR  = 30
	heatMaxPerCell      = 9
	quarterMinutes      = 15
)

// generator produces deterministic pseudo-random telemetry so two runs
// with the same seed submit identical traffic.
type generator struct {
	rng *rand.Rand
}

func newGenerator(seed int64) *generator {
	return &generator{rng: rand.New(rand.NewSource(seed))}
}

// submission builds one full submission for a match date. Quarters
// alternate pitch side the way teams swap halves between periods.
func (g *generator) submission(date time.Time, quarters int) submissionRequest {
	req := submissionRequest{
		MatchDate: date.Format("2006-01-02"),
		Entries:   make([]entryRequest, 0, quarters),
	}
	for q := 1; q <= quarters; q++ {
		side := "LEFT"
		if q%2 == 0 {
			side = "RIGHT"
		}
		req.Entries = append(req.Entries, entryRequest{
			QuarterNumber: q,
			Side:          side,
			Telemetry:     g.telemetry(q),
		})
	}
	return req
}

// telemetry generates one quarter's payload. Kickoff times walk forward
// so per-quarter durations parse to the 15-minute window.
func (g *generator) telemetry(quarterNumber int) rawTelemetry {
	startMin := 10*60 + (quarterNumber-1)*quarterMinutes
	endMin := startMin + quarterMinutes

	avgHR := avgHeartRateMin + g.rng.Intn(avgHeartRateRange)
	maxHR := avgHR + heartRateHeadroom + g.rng.Intn(heartRateHeadroomR)

	return rawTelemetry{
		Heatmap:        g.heatmap(),
		DistanceMeters: distanceMinMeters + g.rng.Float64()*distanceRangeMeters,
		AvgSpeedKmh:    avgSpeedMinKmh + g.rng.Float64()*avgSpeedRangeKmh,
		MaxSpeedKmh:    maxSpeedMinKmh + g.rng.Float64()*maxSpeedRangeKmh,
		SprintCount:    g.rng.Intn(sprintMax + 1),
		AvgHeartRate:   avgHR,
		MaxHeartRate:   maxHR,
		StartTime:      clock(startMin),
		EndTime:        clock(endMin),
	}
}

// heatmap fills a 10x16 grid with a bias toward one flank so occupancy
// rates come out unbalanced, like a real positional profile.
func (g *generator) heatmap() [][]int {
	const rows, cols = 10, 16
	biasLeft := g.rng.Intn(2) == 0

	grid := make([][]int, rows)
	for r := range grid {
		grid[r] = make([]int, cols)
		for c := range grid[r] {
			weight := 1
			if (biasLeft && c < cols/2) || (!biasLeft && c >= cols/2) {
				weight = 3
			}
			grid[r][c] = g.rng.Intn(heatMaxPerCell * weight / 2)
		}
	}
	return grid
}

// clock renders minutes-since-midnight as HH:MM, wrapping past 24h.
func clock(minutes int) string {
	minutes %= 24 * 60
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// matchDates returns n consecutive weekly match dates ending today.
func matchDates(n int) []time.Time {
	dates := make([]time.Time, n)
	day := time.Now().UTC().Truncate(24 * time.Hour)
	for i := n - 1; i >= 0; i-- {
		dates[i] = day
		day = day.AddDate(0, 0, -7)
	}
	return dates
}
