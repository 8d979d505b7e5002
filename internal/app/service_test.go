package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/notfound/ballog/internal/adapters/repository"
	service "github.com/notfound/ballog/internal/app"
	"github.com/notfound/ballog/internal/domain/model"
	"github.com/notfound/ballog/pkg/logger"
)

// idleQuarter is a quarter with no movement at all; only the duration share
// of stamina survives scoring (40 for a 15-minute window).
func idleQuarter(number int) model.QuarterEntry {
	return model.QuarterEntry{
		QuarterNumber: number,
		Side:          model.SideLeft,
		Telemetry:     model.RawTelemetry{StartTime: "10:00", EndTime: "10:15"},
	}
}

// attackingQuarter puts all heat on the opponent half under LEFT with a few
// sprints and a high top speed: attack 76, defense 3, speed 60, stamina 40.
func attackingQuarter(number int) model.QuarterEntry {
	heat := make([][]int, 10)
	for r := range heat {
		heat[r] = make([]int, 16)
	}
	for c := 8; c < 16; c++ {
		heat[4][c] = 10
	}
	return model.QuarterEntry{
		QuarterNumber: number,
		Side:          model.SideLeft,
		Telemetry: model.RawTelemetry{
			Heatmap:     heat,
			MaxSpeedKmh: 20,
			SprintCount: 3,
			StartTime:   "10:00",
			EndTime:     "10:15",
		},
	}
}

func startService(t *testing.T, store repository.Store) *service.Service {
	t.Helper()
	svc := service.New(
		service.WithStore(store),
		service.WithWorkerCount(1),
	)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	return svc
}

func TestSubmitReports(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	matchDate := time.Date(2026, 6, 6, 0, 0, 0, 0, time.UTC)

	Convey("Given a seeded player with a match", t, func() {
		store := repository.NewMemStore()
		userID := uuid.New()
		So(store.CreatePlayerProfile(ctx, userID), ShouldBeNil)
		_, err := store.CreateMatch(ctx, userID, matchDate)
		So(err, ShouldBeNil)

		svc := startService(t, store)
		defer svc.Stop()

		Convey("When submitting one attacking and one idle quarter", func() {
			sub := model.Submission{
				UserID:    userID,
				MatchDate: matchDate,
				Entries:   []model.QuarterEntry{attackingQuarter(1), idleQuarter(2)},
			}
			result, err := svc.SubmitReports(ctx, sub, "sub-1")

			Convey("Then quarters and reports are created", func() {
				So(err, ShouldBeNil)
				So(result.QuartersCreated, ShouldEqual, 2)
				So(result.ReportsInserted, ShouldEqual, 2)
				So(result.Duplicate, ShouldBeFalse)
			})

			Convey("And the profile bootstraps to the quarter average", func() {
				So(err, ShouldBeNil)
				card, err := svc.PlayerCard(ctx, userID)
				So(err, ShouldBeNil)
				So(card.Attack, ShouldEqual, 38)  // mean(76, 0)
				So(card.Defense, ShouldEqual, 2)  // mean(3, 0) rounded
				So(card.Speed, ShouldEqual, 30)   // mean(60, 0)
				So(card.Stamina, ShouldEqual, 40) // mean(40, 40)
				So(card.Recovery, ShouldEqual, 0)
			})

			Convey("And resubmitting under a fresh id blends, not replaces", func() {
				So(err, ShouldBeNil)
				second, err := svc.SubmitReports(ctx, sub, "sub-2")
				So(err, ShouldBeNil)

				Convey("The reconciler creates no new quarter rows", func() {
					So(second.QuartersCreated, ShouldEqual, 0)
					So(second.ReportsInserted, ShouldEqual, 2)
				})

				Convey("The stored scores move by the 0.7/0.3 average", func() {
					card, err := svc.PlayerCard(ctx, userID)
					So(err, ShouldBeNil)
					So(card.Attack, ShouldEqual, 38)  // fixed point of a steady signal
					So(card.Stamina, ShouldEqual, 40) // likewise
				})
			})

			Convey("And replaying the same submission id is a no-op", func() {
				So(err, ShouldBeNil)
				replay, err := svc.SubmitReports(ctx, sub, "sub-1")
				So(err, ShouldBeNil)
				So(replay.Duplicate, ShouldBeTrue)
				So(replay.ReportsInserted, ShouldEqual, 0)
			})
		})

		Convey("When submitting an empty entry list", func() {
			sub := model.Submission{UserID: userID, MatchDate: matchDate}
			result, err := svc.SubmitReports(ctx, sub, "")

			Convey("Then nothing changes, including the profile", func() {
				So(err, ShouldBeNil)
				So(result.QuartersCreated, ShouldEqual, 0)
				So(result.ReportsInserted, ShouldEqual, 0)

				card, err := svc.PlayerCard(ctx, userID)
				So(err, ShouldBeNil)
				So(card.Stamina, ShouldEqual, 0)
			})
		})

		Convey("When the match date has no match row", func() {
			sub := model.Submission{
				UserID:    userID,
				MatchDate: matchDate.AddDate(0, 0, 1),
				Entries:   []model.QuarterEntry{idleQuarter(1)},
			}
			_, err := svc.SubmitReports(ctx, sub, "sub-3")

			Convey("Then the submission is rejected with ErrMatchNotFound", func() {
				So(errors.Is(err, service.ErrMatchNotFound), ShouldBeTrue)
			})

			Convey("And the id can be retried once the match exists", func() {
				So(errors.Is(err, service.ErrMatchNotFound), ShouldBeTrue)
				_, err := store.CreateMatch(ctx, userID, matchDate.AddDate(0, 0, 1))
				So(err, ShouldBeNil)

				result, err := svc.SubmitReports(ctx, sub, "sub-3")
				So(err, ShouldBeNil)
				So(result.Duplicate, ShouldBeFalse)
				So(result.ReportsInserted, ShouldEqual, 1)
			})
		})
	})

	Convey("Given a match whose player never signed up", t, func() {
		store := repository.NewMemStore()
		userID := uuid.New()
		matchID, err := store.CreateMatch(ctx, userID, matchDate)
		So(err, ShouldBeNil)

		svc := startService(t, store)
		defer svc.Stop()

		Convey("When submitting a quarter", func() {
			sub := model.Submission{
				UserID:    userID,
				MatchDate: matchDate,
				Entries:   []model.QuarterEntry{idleQuarter(1)},
			}
			_, err := svc.SubmitReports(ctx, sub, "")

			Convey("Then the profile error surfaces and the whole tx rolls back", func() {
				So(errors.Is(err, service.ErrProfileNotFound), ShouldBeTrue)

				rows, err := store.QuartersByMatch(ctx, matchID)
				So(err, ShouldBeNil)
				So(len(rows), ShouldEqual, 0)
			})
		})
	})
}

func TestPlayerCard(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	Convey("Given a running service", t, func() {
		store := repository.NewMemStore()
		svc := startService(t, store)
		defer svc.Stop()

		Convey("When reading a card for an unknown user", func() {
			_, err := svc.PlayerCard(ctx, uuid.New())
			So(errors.Is(err, service.ErrProfileNotFound), ShouldBeTrue)
		})

		Convey("When a profile exists", func() {
			userID := uuid.New()
			So(store.CreatePlayerProfile(ctx, userID), ShouldBeNil)
			p, _ := store.PlayerProfile(ctx, userID)
			p.SetScores(model.AbilityScores{Attack: 61, Speed: 44})
			p.Rank = "silver"
			So(store.SavePlayerProfile(ctx, p), ShouldBeNil)

			card, err := svc.PlayerCard(ctx, userID)
			So(err, ShouldBeNil)
			So(card.UserID, ShouldEqual, userID.String())
			So(card.Attack, ShouldEqual, 61)
			So(card.Speed, ShouldEqual, 44)
			So(card.Rank, ShouldEqual, "silver")
		})
	})
}

func TestTeamAggregation(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	seedMember := func(store repository.Store, teamID int64, scores model.AbilityScores) {
		userID := uuid.New()
		So(store.CreatePlayerProfile(ctx, userID), ShouldBeNil)
		p, _ := store.PlayerProfile(ctx, userID)
		p.SetScores(scores)
		So(store.SavePlayerProfile(ctx, p), ShouldBeNil)
		So(store.AddTeamMember(ctx, teamID, userID), ShouldBeNil)
	}

	Convey("Given a team of two scored members", t, func() {
		store := repository.NewMemStore()
		teamID, err := store.CreateTeam(ctx, "fc-agg")
		So(err, ShouldBeNil)
		seedMember(store, teamID, model.AbilityScores{Attack: 70, Defense: 50, Speed: 61, Stamina: 80, Recovery: 33})
		seedMember(store, teamID, model.AbilityScores{Attack: 65, Defense: 55, Speed: 60, Stamina: 75, Recovery: 30})

		svc := startService(t, store)
		defer svc.Stop()

		Convey("When the team card is refreshed", func() {
			So(svc.RefreshTeamCard(ctx, teamID), ShouldBeNil)

			Convey("Then averages are truncated, never rounded up", func() {
				card, err := svc.TeamCard(ctx, teamID)
				So(err, ShouldBeNil)
				So(card.AvgAttack, ShouldEqual, 67)   // (70+65)/2 = 67.5 -> 67
				So(card.AvgDefense, ShouldEqual, 52)  // 52.5 -> 52
				So(card.AvgSpeed, ShouldEqual, 60)    // 60.5 -> 60
				So(card.AvgStamina, ShouldEqual, 77)  // 77.5 -> 77
				So(card.AvgRecovery, ShouldEqual, 31) // 31.5 -> 31
				So(card.MemberCount, ShouldEqual, 2)
			})
		})

		Convey("When refreshing an unknown team", func() {
			err := svc.RefreshTeamCard(ctx, 404)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})
	})

	Convey("Given a team with no members", t, func() {
		store := repository.NewMemStore()
		teamID, err := store.CreateTeam(ctx, "fc-empty")
		So(err, ShouldBeNil)

		// A previous aggregation left a non-empty card behind.
		So(store.SaveTeamProfile(ctx, model.TeamProfile{TeamID: teamID, AvgSpeed: 42, MemberCount: 3}), ShouldBeNil)

		svc := startService(t, store)
		defer svc.Stop()

		Convey("When aggregation runs", func() {
			So(svc.AggregateTeam(ctx, teamID), ShouldBeNil)

			Convey("Then the existing card is left untouched", func() {
				card, err := svc.TeamCard(ctx, teamID)
				So(err, ShouldBeNil)
				So(card.AvgSpeed, ShouldEqual, 42)
				So(card.MemberCount, ShouldEqual, 3)
			})
		})
	})

	Convey("Given several teams", t, func() {
		store := repository.NewMemStore()
		var teams []int64
		for i := 0; i < 3; i++ {
			teamID, err := store.CreateTeam(ctx, "fc-batch")
			So(err, ShouldBeNil)
			seedMember(store, teamID, model.AbilityScores{Attack: 10 * (i + 1)})
			teams = append(teams, teamID)
		}

		svc := startService(t, store)
		defer svc.Stop()

		Convey("When the batch refresh runs", func() {
			So(svc.RefreshAllTeamCards(ctx), ShouldBeNil)

			Convey("Then every team card eventually reflects its members", func() {
				deadline := time.Now().Add(2 * time.Second)
				for i, teamID := range teams {
					want := 10 * (i + 1)
					for {
						card, err := svc.TeamCard(ctx, teamID)
						So(err, ShouldBeNil)
						if card.AvgAttack == want {
							break
						}
						if time.Now().After(deadline) {
							So(card.AvgAttack, ShouldEqual, want)
							break
						}
						time.Sleep(10 * time.Millisecond)
					}
				}
			})
		})
	})
}

func TestGetStats(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatal(err)
	}

	Convey("Given a running service", t, func() {
		svc := startService(t, repository.NewMemStore())
		defer svc.Stop()

		Convey("When reading stats", func() {
			stats := svc.GetStats()

			Convey("Then the runtime counters are present", func() {
				So(stats["started"], ShouldBeTrue)
				So(stats["workerCount"], ShouldEqual, 1)
				So(stats["queueLength"], ShouldEqual, 0)
				So(stats["dedupeEntries"], ShouldEqual, int64(0))
			})
		})
	})
}
