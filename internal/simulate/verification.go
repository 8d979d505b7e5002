package simulate

import (
	"context"
	"fmt"
	"net/http"

	"github.com/notfound/ballog/pkg/logger"
)

const maxAbility = 100

// verifyPlayerCards fetches every player's card and checks the scoring
// bounds hold: every ability in [0,100], and stamina non-zero because all
// generated quarters cover distance.
func verifyPlayerCards(ctx context.Context, cfg *Config, baseURL string, world *seededWorld, stats *Stats) (map[string]playerCard, error) {
	client := newHTTPClient(cfg.Timeout)
	cards := make(map[string]playerCard, len(world.players))

	for _, p := range world.players {
		var card playerCard
		url := fmt.Sprintf("%s/players/%s/card", baseURL, p.userID)
		if err := client.getJSON(ctx, url, &card); err != nil {
			return nil, fmt.Errorf("player card %s: %w", p.userID, err)
		}

		for name, v := range map[string]int{
			"speed":    card.Speed,
			"stamina":  card.Stamina,
			"attack":   card.Attack,
			"defense":  card.Defense,
			"recovery": card.Recovery,
		} {
			if v < 0 || v > maxAbility {
				return nil, fmt.Errorf("player %s: %s=%d out of [0,%d]", p.userID, name, v, maxAbility)
			}
		}
		if card.Stamina == 0 {
			return nil, fmt.Errorf("player %s: stamina stayed zero after %d submissions", p.userID, cfg.Matches)
		}

		cards[p.userID.String()] = card
		stats.CardsVerified++
	}

	logger.Get().Info(ctx, "player cards verified", logger.Int("count", stats.CardsVerified))
	return cards, nil
}

// verifyTeamCards refreshes each team synchronously and checks the card
// equals the truncated mean of its members' current profiles.
func verifyTeamCards(ctx context.Context, cfg *Config, baseURL string, world *seededWorld, cards map[string]playerCard, stats *Stats) error {
	client := newHTTPClient(cfg.Timeout)

	members := make(map[int64][]playerCard)
	for _, p := range world.players {
		members[p.teamID] = append(members[p.teamID], cards[p.userID.String()])
	}

	for _, teamID := range world.teams {
		refreshURL := fmt.Sprintf("%s/teams/%d/card/refresh", baseURL, teamID)
		if status, err := client.postJSON(ctx, refreshURL, "", nil, nil); err != nil {
			return fmt.Errorf("refresh team %d: %w", teamID, err)
		} else if status != http.StatusAccepted {
			return fmt.Errorf("refresh team %d: unexpected status %d", teamID, status)
		}

		var card teamCard
		cardURL := fmt.Sprintf("%s/teams/%d/card", baseURL, teamID)
		if err := client.getJSON(ctx, cardURL, &card); err != nil {
			return fmt.Errorf("team card %d: %w", teamID, err)
		}

		expected := expectedTeamCard(teamID, members[teamID])
		if card != expected {
			return fmt.Errorf("team %d: card %+v, want %+v", teamID, card, expected)
		}
		stats.TeamsVerified++
	}

	logger.Get().Info(ctx, "team cards verified", logger.Int("count", stats.TeamsVerified))
	return nil
}

// expectedTeamCard recomputes the truncated member averages client-side.
func expectedTeamCard(teamID int64, members []playerCard) teamCard {
	card := teamCard{TeamID: teamID, MemberCount: len(members)}
	if len(members) == 0 {
		return card
	}
	for _, m := range members {
		card.AvgSpeed += m.Speed
		card.AvgStamina += m.Stamina
		card.AvgAttack += m.Attack
		card.AvgDefense += m.Defense
		card.AvgRecovery += m.Recovery
	}
	n := len(members)
	card.AvgSpeed /= n
	card.AvgStamina /= n
	card.AvgAttack /= n
	card.AvgDefense /= n
	card.AvgRecovery /= n
	return card
}
