package simulate

import (
	"time"

	"github.com/google/uuid"
)

// Config holds configuration for the scoring simulation.
type Config struct {
	Players          int           // Number of players to seed
	Teams            int           // Number of teams to spread players over
	Matches          int           // Matches per player
	QuartersPerMatch int           // Quarter entries per submission
	Workers          int           // Number of concurrent submitters
	Timeout          time.Duration // HTTP request timeout
	Seed             int64         // Random seed for telemetry generation
	Verbose          bool          // Enable verbose logging
}

// seededWorld is what the seeding step creates in the store before the
// HTTP traffic starts.
type seededWorld struct {
	players []seededPlayer
	teams   []int64
}

type seededPlayer struct {
	userID uuid.UUID
	teamID int64
	dates  []time.Time
}

// submissionRequest mirrors the POST /reports wire schema.
type submissionRequest struct {
	SubmissionID string         `json:"submission_id"`
	MatchDate    string         `json:"match_date"`
	Entries      []entryRequest `json:"entries"`
}

type entryRequest struct {
	QuarterNumber int          `json:"quarter_number"`
	Side          string       `json:"side"`
	Telemetry     rawTelemetry `json:"telemetry"`
}

type rawTelemetry struct {
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

// submissionResult mirrors the POST /reports response.
type submissionResult struct {
	MatchID         int64 `json:"match_id"`
	QuartersCreated int   `json:"quarters_created"`
	ReportsInserted int   `json:"reports_inserted"`
	Duplicate       bool  `json:"duplicate"`
}

// playerCard mirrors GET /players/{id}/card.
type playerCard struct {
	UserID   string `json:"user_id"`
	Speed    int    `json:"speed"`
	Stamina  int    `json:"stamina"`
	Attack   int    `json:"attack"`
	Defense  int    `json:"defense"`
	Recovery int    `json:"recovery"`
}

// teamCard mirrors GET /teams/{id}/card.
type teamCard struct {
	TeamID      int64 `json:"team_id"`
	AvgSpeed    int   `json:"avg_speed"`
	AvgStamina  int   `json:"avg_stamina"`
	AvgAttack   int   `json:"avg_attack"`
	AvgDefense  int   `json:"avg_defense"`
	AvgRecovery int   `json:"avg_recovery"`
	MemberCount int   `json:"member_count"`
}

// Stats holds simulation statistics.
type Stats struct {
	PlayersSeeded        int
	TeamsSeeded          int
	SubmissionsSent      int
	SubmissionsOK        int
	SubmissionsDuplicate int
	SubmissionsFailed    int
	QuartersCreated      int
	ReportsInserted      int
	CardsVerified        int
	TeamsVerified        int
	StartTime            time.Time
	EndTime              time.Time
	Duration             time.Duration
}
