// Package model contains domain models passed between layers.
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Side identifies which half of the pitch grid is the player's own side.
type Side string

// Side values accepted on the wire. Matching is case-insensitive; anything
// that is not LEFT is treated as RIGHT.
const (
	SideLeft  Side = "LEFT"
	SideRight Side = "RIGHT"
)

// IsLeft reports whether the side resolves to the left half.
func (s Side) IsLeft() bool {
	return strings.EqualFold(string(s), string(SideLeft))
}

// Normalized returns the canonical LEFT/RIGHT value for s.
func (s Side) Normalized() Side {
	if s.IsLeft() {
		return SideLeft
	}
	return SideRight
}

// RawTelemetry is one quarter's sample payload exactly as submitted.
// Field names mirror the wire schema; no range validation happens here,
// downstream scoring clamps instead (best-effort policy).
type RawTelemetry struct {
	Heatmap        [][]int `json:"heatmap"`
	DistanceMeters float64 `json:"distance"`
	AvgSpeedKmh    float64 `json:"avgSpeed"`
	MaxSpeedKmh    float64 `json:"maxSpeed"`
	SprintCount    int     `json:"sprint"`
	AvgHeartRate   int     `json:"avgHeartRate"`
	MaxHeartRate   int     `json:"maxHeartRate"`
	StartTime      string  `json:"startTime"`
	EndTime        string  `json:"endTime"`
}

// QuarterEntry is one quarter's worth of a submission.
type QuarterEntry struct {
	QuarterNumber int
	Side          Side
	Telemetry     RawTelemetry
}

// Submission is one user's scoring request for a match date.
type Submission struct {
	UserID    uuid.UUID
	MatchDate time.Time
	Entries   []QuarterEntry
}

// Quarter is one playing period of a match. Identity is
// (MatchID, QuarterNumber); at most one row may exist per pair.
type Quarter struct {
	QuarterID     int64
	MatchID       int64
	QuarterNumber int
	CreatedAt     time.Time
}

// GameReport is one user's raw telemetry record for a quarter.
// Append-only; resubmission for the same quarter creates a new row.
type GameReport struct {
	ReportID  int64
	UserID    uuid.UUID
	QuarterID int64
	Side      Side
	Telemetry RawTelemetry
	CreatedAt time.Time
}

// AbilityScores holds the five bounded ability values, each in [0,100].
type AbilityScores struct {
	Attack   int
	Defense  int
	Speed    int
	Stamina  int
	Recovery int
}

// PlayerProfile is a user's persistent player card. Zero means "unset";
// the first non-zero observation replaces it outright.
type PlayerProfile struct {
	UserID    uuid.UUID
	Speed     int
	Stamina   int
	Attack    int
	Defense   int
	Recovery  int
	PlayStyle string
	Rank      string
}

// Scores returns the profile's ability values as an AbilityScores.
func (p PlayerProfile) Scores() AbilityScores {
	return AbilityScores{
		Attack:   p.Attack,
		Defense:  p.Defense,
		Speed:    p.Speed,
		Stamina:  p.Stamina,
		Recovery: p.Recovery,
	}
}

// SetScores writes the ability values back onto the profile.
func (p *PlayerProfile) SetScores(s AbilityScores) {
	p.Attack = s.Attack
	p.Defense = s.Defense
	p.Speed = s.Speed
	p.Stamina = s.Stamina
	p.Recovery = s.Recovery
}

// TeamProfile is a team's aggregate card, rebuilt wholesale by the
// aggregator. MemberCount is the member tally at the last aggregation.
type TeamProfile struct {
	TeamID      int64
	AvgSpeed    int
	AvgStamina  int
	AvgAttack   int
	AvgDefense  int
	AvgRecovery int
	MemberCount int
}

// AggregationJob asks the worker pool to rebuild one team's card.
type AggregationJob struct {
	TeamID int64
}
