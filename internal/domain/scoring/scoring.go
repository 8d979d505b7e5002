// Package scoring converts canonical telemetry and occupancy ratios into
// bounded ability scores for one quarter.
package scoring

import (
	"math"
	"time"

	"github.com/notfound/ballog/internal/domain/model"
	"github.com/notfound/ballog/internal/domain/occupancy"
	"github.com/notfound/ballog/internal/domain/telemetry"
	"github.com/notfound/ballog/pkg/metrics"
)

// Scale constants shared by the ability formulas.
const (
	// DefaultDurationMinutes is used when start/end times are missing or
	// unparsable. The fallback is counted so data-quality issues surface.
	DefaultDurationMinutes = 15.0

	maxSpeedScaleKmh     = 20.0
	avgSpeedScaleKmh     = 10.0
	referenceDurationMin = 15.0
	paceScaleMetersMin   = 80.0 // reference walking pace, meters per minute
	heartRateRangeBpm    = 60.0

	maxScore = 100
)

// Weights holds the per-ability formula coefficients. They are fixed in
// production but kept as data so formulas can be tuned and tested
// independently of the scoring mechanics.
type Weights struct {
	AttackOpponentOccupancy float64
	AttackSprintRate        float64
	AttackMaxSpeed          float64

	DefenseOwnOccupancy float64
	DefenseSprintRate   float64
	DefenseDistanceRate float64

	SpeedAvg float64
	SpeedMax float64

	StaminaDuration float64
	StaminaDistance float64
	StaminaRecovery float64
}

// DefaultWeights returns the production coefficients.
func DefaultWeights() Weights {
	return Weights{
		AttackOpponentOccupancy: 0.6,
		AttackSprintRate:        0.3,
		AttackMaxSpeed:          0.1,

		DefenseOwnOccupancy: 0.7,
		DefenseSprintRate:   0.15,
		DefenseDistanceRate: 0.15,

		SpeedAvg: 0.4,
		SpeedMax: 0.6,

		StaminaDuration: 0.4,
		StaminaDistance: 0.4,
		StaminaRecovery: 0.2,
	}
}

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithWeights overrides the formula coefficients.
func WithWeights(w Weights) Option {
	return func(s *Scorer) {
		s.weights = w
	}
}

// Scorer computes per-quarter ability scores. It is a pure computation with
// no persistence; malformed inputs degrade via documented fallbacks instead
// of failing.
type Scorer struct {
	weights Weights
}

// New creates a Scorer with default weights.
func New(opts ...Option) *Scorer {
	s := &Scorer{
		weights: DefaultWeights(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScoreQuarter computes the five ability scores for one quarter.
func (s *Scorer) ScoreQuarter(t *telemetry.Telemetry, side model.Side) model.AbilityScores {
	w := s.weights
	rates := occupancy.Analyze(&t.Heatmap, side)
	durMin := s.durationMinutes(t.StartTime, t.EndTime)
	// Floor at 1 to avoid division by zero in the rate terms.
	rateDur := math.Max(1, durMin)

	attack := w.AttackOpponentOccupancy*rates.Opponent +
		w.AttackSprintRate*(float64(t.SprintCount)/rateDur) +
		w.AttackMaxSpeed*(t.MaxSpeedKmh/maxSpeedScaleKmh)

	defense := w.DefenseOwnOccupancy*rates.Own +
		w.DefenseSprintRate*(float64(t.SprintCount)/rateDur) +
		w.DefenseDistanceRate*(t.DistanceMeters/rateDur)

	speed := w.SpeedAvg*(t.AvgSpeedKmh/avgSpeedScaleKmh) +
		w.SpeedMax*(t.MaxSpeedKmh/maxSpeedScaleKmh)

	stamina := w.StaminaDuration * (durMin / referenceDurationMin)
	stamina += w.StaminaDistance * (t.DistanceMeters / (rateDur * paceScaleMetersMin / 1000))
	if t.MaxHeartRate > 0 {
		stamina += w.StaminaRecovery * (1 - float64(t.AvgHeartRate)/float64(t.MaxHeartRate))
	}

	recovery := float64(t.MaxHeartRate-t.AvgHeartRate) / heartRateRangeBpm

	return model.AbilityScores{
		Attack:   clampScore(attack * 100),
		Defense:  clampScore(defense * 100),
		Speed:    clampScore(speed * 100),
		Stamina:  clampScore(stamina * 100),
		Recovery: clampScore(recovery * 100),
	}
}

// durationMinutes parses start/end as time-of-day and returns the elapsed
// minutes, adding a day when the quarter crosses midnight. Missing or
// unparsable times fall back to DefaultDurationMinutes.
func (s *Scorer) durationMinutes(start, end string) float64 {
	st, okStart := parseClock(start)
	en, okEnd := parseClock(end)
	if !okStart || !okEnd {
		metrics.RecordTelemetryFallback("duration")
		return DefaultDurationMinutes
	}
	d := en.Sub(st).Minutes()
	if d < 0 {
		d += 24 * 60
	}
	return d
}

// parseClock accepts HH:MM and HH:MM:SS time-of-day values.
func parseClock(v string) (time.Time, bool) {
	if v == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Average returns the per-ability arithmetic mean across quarters, rounded
// to the nearest integer. An empty slice yields the zero value.
func Average(scores []model.AbilityScores) model.AbilityScores {
	if len(scores) == 0 {
		return model.AbilityScores{}
	}
	var attack, defense, speed, stamina, recovery float64
	for _, s := range scores {
		attack += float64(s.Attack)
		defense += float64(s.Defense)
		speed += float64(s.Speed)
		stamina += float64(s.Stamina)
		recovery += float64(s.Recovery)
	}
	n := float64(len(scores))
	return model.AbilityScores{
		Attack:   int(math.Round(attack / n)),
		Defense:  int(math.Round(defense / n)),
		Speed:    int(math.Round(speed / n)),
		Stamina:  int(math.Round(stamina / n)),
		Recovery: int(math.Round(recovery / n)),
	}
}

// clampScore rounds to the nearest integer and clamps to [0,100]. Clamping
// is total: any input magnitude maps into the closed interval.
func clampScore(v float64) int {
	r := int(math.Round(v))
	if r < 0 {
		return 0
	}
	if r > maxScore {
		return maxScore
	}
	return r
}
