// Package types contains common read shapes shared across the application
package types

// PlayerCard is the read shape for a player's ability profile.
type PlayerCard struct {
	UserID    string `json:"user_id"`
	Speed     int    `json:"speed"`
	Stamina   int    `json:"stamina"`
	Attack    int    `json:"attack"`
	Defense   int    `json:"defense"`
	Recovery  int    `json:"recovery"`
	PlayStyle string `json:"play_style,omitempty"`
	Rank      string `json:"rank,omitempty"`
}

// TeamCard is the read shape for a team's aggregate profile.
type TeamCard struct {
	TeamID      int64 `json:"team_id"`
	AvgSpeed    int   `json:"avg_speed"`
	AvgStamina  int   `json:"avg_stamina"`
	AvgAttack   int   `json:"avg_attack"`
	AvgDefense  int   `json:"avg_defense"`
	AvgRecovery int   `json:"avg_recovery"`
	MemberCount int   `json:"member_count,omitempty"`
}

// SubmissionResult summarizes one processed scoring submission.
type SubmissionResult struct {
	MatchID         int64 `json:"match_id"`
	QuartersCreated int   `json:"quarters_created"`
	ReportsInserted int   `json:"reports_inserted"`
	Duplicate       bool  `json:"duplicate"`
}
