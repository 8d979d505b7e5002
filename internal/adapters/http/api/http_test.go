package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/notfound/ballog/internal/adapters/http/api"
	"github.com/notfound/ballog/internal/adapters/repository"
	service "github.com/notfound/ballog/internal/app"
	"github.com/notfound/ballog/internal/domain/model"
	"github.com/notfound/ballog/internal/domain/types"
	"github.com/notfound/ballog/pkg/logger"
)

// stubDeps satisfies api.Dependencies with per-call overrides. Unset
// functions answer with zero values.
type stubDeps struct {
	submitReports       func(ctx context.Context, sub model.Submission, submissionID string) (types.SubmissionResult, error)
	playerCard          func(ctx context.Context, userID uuid.UUID) (types.PlayerCard, error)
	teamCard            func(ctx context.Context, teamID int64) (types.TeamCard, error)
	refreshTeamCard     func(ctx context.Context, teamID int64) error
	refreshAllTeamCards func(ctx context.Context) error
}

func (s *stubDeps) SubmitReports(ctx context.Context, sub model.Submission, submissionID string) (types.SubmissionResult, error) {
	if s.submitReports == nil {
		return types.SubmissionResult{}, nil
	}
	return s.submitReports(ctx, sub, submissionID)
}

func (s *stubDeps) PlayerCard(ctx context.Context, userID uuid.UUID) (types.PlayerCard, error) {
	if s.playerCard == nil {
		return types.PlayerCard{}, nil
	}
	return s.playerCard(ctx, userID)
}

func (s *stubDeps) TeamCard(ctx context.Context, teamID int64) (types.TeamCard, error) {
	if s.teamCard == nil {
		return types.TeamCard{}, nil
	}
	return s.teamCard(ctx, teamID)
}

func (s *stubDeps) RefreshTeamCard(ctx context.Context, teamID int64) error {
	if s.refreshTeamCard == nil {
		return nil
	}
	return s.refreshTeamCard(ctx, teamID)
}

func (s *stubDeps) RefreshAllTeamCards(ctx context.Context) error {
	if s.refreshAllTeamCards == nil {
		return nil
	}
	return s.refreshAllTeamCards(ctx)
}

type stubStats struct {
	stats map[string]interface{}
}

func (s *stubStats) GetStats() map[string]interface{} { return s.stats }

func newMux(deps *stubDeps, stats *stubStats) *http.ServeMux {
	if stats == nil {
		stats = &stubStats{stats: map[string]interface{}{}}
	}
	mux := http.NewServeMux()
	api.NewServer(deps, stats).Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, path, userID, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

const validSubmission = `{
	"submission_id": "sub-1",
	"match_date": "2026-06-06",
	"entries": [
		{"quarter_number": 1, "side": "left", "telemetry": {"startTime": "10:00", "endTime": "10:15", "maxSpeed": 18.5}},
		{"quarter_number": 2, "side": "RIGHT", "telemetry": {"startTime": "10:20", "endTime": "10:35"}}
	]
}`

func TestPostReports(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatal(err)
	}
	uid := uuid.New()

	Convey("Given the reports endpoint", t, func() {
		var gotSub model.Submission
		var gotID string
		deps := &stubDeps{
			submitReports: func(_ context.Context, sub model.Submission, id string) (types.SubmissionResult, error) {
				gotSub, gotID = sub, id
				return types.SubmissionResult{MatchID: 7, QuartersCreated: 2, ReportsInserted: 2}, nil
			},
		}
		mux := newMux(deps, nil)

		Convey("When a valid submission is posted", func() {
			rec := do(mux, http.MethodPost, "/reports", uid.String(), validSubmission)

			Convey("Then it answers 201 with the result", func() {
				So(rec.Code, ShouldEqual, http.StatusCreated)

				var result types.SubmissionResult
				So(json.Unmarshal(rec.Body.Bytes(), &result), ShouldBeNil)
				So(result.MatchID, ShouldEqual, 7)
				So(result.ReportsInserted, ShouldEqual, 2)
			})

			Convey("And the wire payload maps onto the domain submission", func() {
				So(gotID, ShouldEqual, "sub-1")
				So(gotSub.UserID, ShouldEqual, uid)
				So(gotSub.MatchDate.Format("2006-01-02"), ShouldEqual, "2026-06-06")
				So(len(gotSub.Entries), ShouldEqual, 2)
				So(gotSub.Entries[0].Side, ShouldEqual, model.SideLeft) // "left" normalized
				So(gotSub.Entries[1].Side, ShouldEqual, model.SideRight)
				So(gotSub.Entries[0].Telemetry.MaxSpeedKmh, ShouldEqual, 18.5)
			})
		})

		Convey("When the submission is a replay", func() {
			deps.submitReports = func(context.Context, model.Submission, string) (types.SubmissionResult, error) {
				return types.SubmissionResult{Duplicate: true}, nil
			}
			rec := do(mux, http.MethodPost, "/reports", uid.String(), validSubmission)

			Convey("Then it answers 200, not 201", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
			})
		})

		Convey("When the user header is missing", func() {
			rec := do(mux, http.MethodPost, "/reports", "", validSubmission)
			So(rec.Code, ShouldEqual, http.StatusUnauthorized)
		})

		Convey("When the user header is not a uuid", func() {
			rec := do(mux, http.MethodPost, "/reports", "not-a-uuid", validSubmission)
			So(rec.Code, ShouldEqual, http.StatusUnauthorized)
		})

		Convey("When the body is not JSON", func() {
			rec := do(mux, http.MethodPost, "/reports", uid.String(), "{nope")
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the match date is malformed", func() {
			rec := do(mux, http.MethodPost, "/reports", uid.String(),
				`{"match_date": "06/06/2026", "entries": []}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When a quarter number is below one", func() {
			rec := do(mux, http.MethodPost, "/reports", uid.String(),
				`{"match_date": "2026-06-06", "entries": [{"quarter_number": 0, "side": "LEFT"}]}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When a side is neither LEFT nor RIGHT", func() {
			rec := do(mux, http.MethodPost, "/reports", uid.String(),
				`{"match_date": "2026-06-06", "entries": [{"quarter_number": 1, "side": "CENTER"}]}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When no match exists for the date", func() {
			deps.submitReports = func(context.Context, model.Submission, string) (types.SubmissionResult, error) {
				return types.SubmissionResult{}, service.ErrMatchNotFound
			}
			rec := do(mux, http.MethodPost, "/reports", uid.String(), validSubmission)
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When quarter resolution breaks", func() {
			deps.submitReports = func(context.Context, model.Submission, string) (types.SubmissionResult, error) {
				return types.SubmissionResult{}, service.ErrQuarterResolution
			}
			rec := do(mux, http.MethodPost, "/reports", uid.String(), validSubmission)

			Convey("Then the client sees an opaque 500", func() {
				So(rec.Code, ShouldEqual, http.StatusInternalServerError)
				So(rec.Body.String(), ShouldNotContainSubstring, "quarter")
			})
		})

		Convey("When the method is GET", func() {
			rec := do(mux, http.MethodGet, "/reports", uid.String(), "")
			So(rec.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestGetPlayerCard(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatal(err)
	}
	uid := uuid.New()

	Convey("Given the player card endpoint", t, func() {
		deps := &stubDeps{
			playerCard: func(_ context.Context, userID uuid.UUID) (types.PlayerCard, error) {
				if userID != uid {
					return types.PlayerCard{}, service.ErrProfileNotFound
				}
				return types.PlayerCard{UserID: userID.String(), Attack: 76, Stamina: 40}, nil
			},
		}
		mux := newMux(deps, nil)

		Convey("When the card exists", func() {
			rec := do(mux, http.MethodGet, "/players/"+uid.String()+"/card", "", "")

			So(rec.Code, ShouldEqual, http.StatusOK)
			var card types.PlayerCard
			So(json.Unmarshal(rec.Body.Bytes(), &card), ShouldBeNil)
			So(card.UserID, ShouldEqual, uid.String())
			So(card.Attack, ShouldEqual, 76)
		})

		Convey("When the user id is not a uuid", func() {
			rec := do(mux, http.MethodGet, "/players/12345/card", "", "")
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the profile does not exist", func() {
			rec := do(mux, http.MethodGet, "/players/"+uuid.NewString()+"/card", "", "")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When the path has no card segment", func() {
			rec := do(mux, http.MethodGet, "/players/"+uid.String(), "", "")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When the method is POST", func() {
			rec := do(mux, http.MethodPost, "/players/"+uid.String()+"/card", "", "")
			So(rec.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestTeamEndpoints(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatal(err)
	}

	Convey("Given the team endpoints", t, func() {
		var refreshed []int64
		var refreshedAll bool
		deps := &stubDeps{
			teamCard: func(_ context.Context, teamID int64) (types.TeamCard, error) {
				if teamID != 3 {
					return types.TeamCard{}, repository.ErrNotFound
				}
				return types.TeamCard{TeamID: 3, AvgAttack: 67, MemberCount: 2}, nil
			},
			refreshTeamCard: func(_ context.Context, teamID int64) error {
				if teamID != 3 {
					return repository.ErrNotFound
				}
				refreshed = append(refreshed, teamID)
				return nil
			},
			refreshAllTeamCards: func(context.Context) error {
				refreshedAll = true
				return nil
			},
		}
		mux := newMux(deps, nil)

		Convey("When reading an existing team card", func() {
			rec := do(mux, http.MethodGet, "/teams/3/card", "", "")

			So(rec.Code, ShouldEqual, http.StatusOK)
			var card types.TeamCard
			So(json.Unmarshal(rec.Body.Bytes(), &card), ShouldBeNil)
			So(card.AvgAttack, ShouldEqual, 67)
			So(card.MemberCount, ShouldEqual, 2)
		})

		Convey("When reading an unknown team card", func() {
			rec := do(mux, http.MethodGet, "/teams/9/card", "", "")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When the team id is not numeric", func() {
			rec := do(mux, http.MethodGet, "/teams/fc-foo/card", "", "")
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When refreshing a team card", func() {
			rec := do(mux, http.MethodPost, "/teams/3/card/refresh", "", "")

			So(rec.Code, ShouldEqual, http.StatusAccepted)
			So(refreshed, ShouldResemble, []int64{3})
		})

		Convey("When refreshing an unknown team", func() {
			rec := do(mux, http.MethodPost, "/teams/9/card/refresh", "", "")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When refreshing with GET", func() {
			rec := do(mux, http.MethodGet, "/teams/3/card/refresh", "", "")
			So(rec.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})

		Convey("When triggering the batch refresh", func() {
			rec := do(mux, http.MethodPost, "/teams/refresh", "", "")

			So(rec.Code, ShouldEqual, http.StatusAccepted)
			So(refreshedAll, ShouldBeTrue)
		})

		Convey("When the path matches no team route", func() {
			rec := do(mux, http.MethodGet, "/teams/3/roster", "", "")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestOperationalEndpoints(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatal(err)
	}

	Convey("Given the operational endpoints", t, func() {
		stats := &stubStats{stats: map[string]interface{}{"started": true, "workerCount": 4}}
		mux := newMux(&stubDeps{}, stats)

		Convey("When probing liveness", func() {
			rec := do(mux, http.MethodGet, "/healthz", "", "")

			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `"status":"ok"`)
		})

		Convey("When reading stats", func() {
			rec := do(mux, http.MethodGet, "/stats", "", "")

			So(rec.Code, ShouldEqual, http.StatusOK)
			var got map[string]interface{}
			So(json.Unmarshal(rec.Body.Bytes(), &got), ShouldBeNil)
			So(got["started"], ShouldEqual, true)
			So(got["workerCount"], ShouldEqual, 4)
		})

		Convey("When scraping metrics", func() {
			rec := do(mux, http.MethodGet, "/metrics", "", "")

			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, "ballog_")
		})
	})
}
