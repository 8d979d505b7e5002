package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/notfound/ballog/internal/domain/model"
)

//go:embed schema.sql
var schemaSQL string

// querier is satisfied by both *sql.DB and *sql.Tx so the same statement
// helpers serve plain calls and transactions.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLStore is the sqlite-backed Store.
type SQLStore struct {
	db *sql.DB
	sqlOps
}

// OpenSQL opens (or creates) the sqlite database at path and applies the
// schema. The uniqueness constraints the reconciler relies on live in the
// schema, not in application code.
func OpenSQL(path string) (*SQLStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLStore{db: db, sqlOps: sqlOps{q: db}}, nil
}

// InTx runs fn inside a single sqlite transaction. All writes commit
// together or not at all.
func (s *SQLStore) InTx(ctx context.Context, fn func(Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(&sqlTx{sqlOps: sqlOps{q: tx}}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// sqlTx is the Store view handed to InTx callbacks.
type sqlTx struct {
	sqlOps
}

// InTx on a transactional view joins the outer transaction.
func (t *sqlTx) InTx(ctx context.Context, fn func(Store) error) error {
	return fn(t)
}

func (t *sqlTx) Close() error {
	return nil
}

// sqlOps implements the individual Store operations over a querier.
type sqlOps struct {
	q querier
}

func (o sqlOps) FindMatchID(ctx context.Context, userID uuid.UUID, matchDate time.Time) (int64, error) {
	var id int64
	err := o.q.QueryRowContext(ctx,
		`SELECT match_id FROM matches WHERE user_id = ? AND match_date = ?`,
		userID.String(), dateKey(matchDate),
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("find match: %w", err)
	}
	return id, nil
}

func (o sqlOps) CreateMatch(ctx context.Context, userID uuid.UUID, matchDate time.Time) (int64, error) {
	_, err := o.q.ExecContext(ctx,
		`INSERT OR IGNORE INTO matches (user_id, match_date) VALUES (?, ?)`,
		userID.String(), dateKey(matchDate),
	)
	if err != nil {
		return 0, fmt.Errorf("create match: %w", err)
	}
	return o.FindMatchID(ctx, userID, matchDate)
}

func (o sqlOps) QuartersByMatch(ctx context.Context, matchID int64) ([]model.Quarter, error) {
	rows, err := o.q.QueryContext(ctx,
		`SELECT quarter_id, match_id, quarter_number, created_at FROM quarters WHERE match_id = ?`,
		matchID,
	)
	if err != nil {
		return nil, fmt.Errorf("quarters by match: %w", err)
	}
	defer rows.Close()
	return scanQuarters(rows)
}

func (o sqlOps) CreateQuarters(ctx context.Context, quarters []model.Quarter) error {
	// INSERT OR IGNORE leans on UNIQUE(match_id, quarter_number), so a
	// concurrent submission racing on the same unseen quarter cannot
	// duplicate it.
	for _, q := range quarters {
		createdAt := q.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}
		_, err := o.q.ExecContext(ctx,
			`INSERT OR IGNORE INTO quarters (match_id, quarter_number, created_at) VALUES (?, ?, ?)`,
			q.MatchID, q.QuarterNumber, createdAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("create quarter %d/%d: %w", q.MatchID, q.QuarterNumber, err)
		}
	}
	return nil
}

func (o sqlOps) QuartersByMatchAndNumbers(ctx context.Context, matchID int64, numbers []int) ([]model.Quarter, error) {
	if len(numbers) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(numbers)), ",")
	args := make([]any, 0, len(numbers)+1)
	args = append(args, matchID)
	for _, n := range numbers {
		args = append(args, n)
	}
	rows, err := o.q.QueryContext(ctx,
		`SELECT quarter_id, match_id, quarter_number, created_at FROM quarters
		 WHERE match_id = ? AND quarter_number IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("quarters by numbers: %w", err)
	}
	defer rows.Close()
	return scanQuarters(rows)
}

func (o sqlOps) InsertReports(ctx context.Context, reports []model.GameReport) error {
	for _, r := range reports {
		payload, err := json.Marshal(r.Telemetry)
		if err != nil {
			return fmt.Errorf("marshal telemetry: %w", err)
		}
		createdAt := r.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}
		_, err = o.q.ExecContext(ctx,
			`INSERT INTO game_reports (user_id, quarter_id, side, telemetry, created_at)
			 VALUES (?, ?, ?, ?, ?)`,
			r.UserID.String(), r.QuarterID, string(r.Side.Normalized()), string(payload),
			createdAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("insert report: %w", err)
		}
	}
	return nil
}

func (o sqlOps) PlayerProfile(ctx context.Context, userID uuid.UUID) (model.PlayerProfile, error) {
	var (
		p   model.PlayerProfile
		uid string
	)
	err := o.q.QueryRowContext(ctx,
		`SELECT user_id, speed, stamina, attack, defense, recovery, play_style, rank
		 FROM player_profiles WHERE user_id = ?`,
		userID.String(),
	).Scan(&uid, &p.Speed, &p.Stamina, &p.Attack, &p.Defense, &p.Recovery, &p.PlayStyle, &p.Rank)
	if errors.Is(err, sql.ErrNoRows) {
		return model.PlayerProfile{}, ErrNotFound
	}
	if err != nil {
		return model.PlayerProfile{}, fmt.Errorf("player profile: %w", err)
	}
	p.UserID = userID
	return p, nil
}

func (o sqlOps) CreatePlayerProfile(ctx context.Context, userID uuid.UUID) error {
	_, err := o.q.ExecContext(ctx,
		`INSERT OR IGNORE INTO player_profiles (user_id) VALUES (?)`,
		userID.String(),
	)
	if err != nil {
		return fmt.Errorf("create player profile: %w", err)
	}
	return nil
}

func (o sqlOps) SavePlayerProfile(ctx context.Context, p model.PlayerProfile) error {
	_, err := o.q.ExecContext(ctx,
		`INSERT INTO player_profiles (user_id, speed, stamina, attack, defense, recovery, play_style, rank)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
		   speed = excluded.speed, stamina = excluded.stamina, attack = excluded.attack,
		   defense = excluded.defense, recovery = excluded.recovery,
		   play_style = excluded.play_style, rank = excluded.rank`,
		p.UserID.String(), p.Speed, p.Stamina, p.Attack, p.Defense, p.Recovery, p.PlayStyle, p.Rank,
	)
	if err != nil {
		return fmt.Errorf("save player profile: %w", err)
	}
	return nil
}

func (o sqlOps) CreateTeam(ctx context.Context, name string) (int64, error) {
	res, err := o.q.ExecContext(ctx, `INSERT INTO teams (team_name) VALUES (?)`, name)
	if err != nil {
		return 0, fmt.Errorf("create team: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("team id: %w", err)
	}
	if _, err := o.q.ExecContext(ctx,
		`INSERT INTO team_profiles (team_id) VALUES (?)`, id,
	); err != nil {
		return 0, fmt.Errorf("create team card: %w", err)
	}
	return id, nil
}

func (o sqlOps) AddTeamMember(ctx context.Context, teamID int64, userID uuid.UUID) error {
	_, err := o.q.ExecContext(ctx,
		`INSERT OR IGNORE INTO team_members (team_id, user_id) VALUES (?, ?)`,
		teamID, userID.String(),
	)
	if err != nil {
		return fmt.Errorf("add team member: %w", err)
	}
	return nil
}

func (o sqlOps) ListTeamIDs(ctx context.Context) ([]int64, error) {
	rows, err := o.q.QueryContext(ctx, `SELECT team_id FROM teams ORDER BY team_id`)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan team id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (o sqlOps) TeamMemberProfiles(ctx context.Context, teamID int64) ([]model.PlayerProfile, error) {
	rows, err := o.q.QueryContext(ctx,
		`SELECT p.user_id, p.speed, p.stamina, p.attack, p.defense, p.recovery, p.play_style, p.rank
		 FROM player_profiles p
		 JOIN team_members m ON m.user_id = p.user_id
		 WHERE m.team_id = ?`,
		teamID,
	)
	if err != nil {
		return nil, fmt.Errorf("team member profiles: %w", err)
	}
	defer rows.Close()

	var out []model.PlayerProfile
	for rows.Next() {
		var (
			p   model.PlayerProfile
			uid string
		)
		if err := rows.Scan(&uid, &p.Speed, &p.Stamina, &p.Attack, &p.Defense, &p.Recovery, &p.PlayStyle, &p.Rank); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		p.UserID, err = uuid.Parse(uid)
		if err != nil {
			return nil, fmt.Errorf("parse user id: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (o sqlOps) TeamProfile(ctx context.Context, teamID int64) (model.TeamProfile, error) {
	var tp model.TeamProfile
	err := o.q.QueryRowContext(ctx,
		`SELECT team_id, avg_speed, avg_stamina, avg_attack, avg_defense, avg_recovery, member_count
		 FROM team_profiles WHERE team_id = ?`,
		teamID,
	).Scan(&tp.TeamID, &tp.AvgSpeed, &tp.AvgStamina, &tp.AvgAttack, &tp.AvgDefense, &tp.AvgRecovery, &tp.MemberCount)
	if errors.Is(err, sql.ErrNoRows) {
		return model.TeamProfile{}, ErrNotFound
	}
	if err != nil {
		return model.TeamProfile{}, fmt.Errorf("team profile: %w", err)
	}
	return tp, nil
}

func (o sqlOps) SaveTeamProfile(ctx context.Context, tp model.TeamProfile) error {
	_, err := o.q.ExecContext(ctx,
		`INSERT INTO team_profiles (team_id, avg_speed, avg_stamina, avg_attack, avg_defense, avg_recovery, member_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (team_id) DO UPDATE SET
		   avg_speed = excluded.avg_speed, avg_stamina = excluded.avg_stamina,
		   avg_attack = excluded.avg_attack, avg_defense = excluded.avg_defense,
		   avg_recovery = excluded.avg_recovery, member_count = excluded.member_count`,
		tp.TeamID, tp.AvgSpeed, tp.AvgStamina, tp.AvgAttack, tp.AvgDefense, tp.AvgRecovery, tp.MemberCount,
	)
	if err != nil {
		return fmt.Errorf("save team profile: %w", err)
	}
	return nil
}

func scanQuarters(rows *sql.Rows) ([]model.Quarter, error) {
	var out []model.Quarter
	for rows.Next() {
		var (
			q         model.Quarter
			createdAt string
		)
		if err := rows.Scan(&q.QuarterID, &q.MatchID, &q.QuarterNumber, &createdAt); err != nil {
			return nil, fmt.Errorf("scan quarter: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			q.CreatedAt = t
		}
		out = append(out, q)
	}
	return out, rows.Err()
}
