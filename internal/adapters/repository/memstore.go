package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/notfound/ballog/internal/domain/model"
)

// quarterKey is the identity of a quarter row.
type quarterKey struct {
	matchID int64
	number  int
}

// matchKey is the identity used to resolve a user's match on a date.
type matchKey struct {
	userID uuid.UUID
	date   string
}

// memData holds the raw state and the unlocked operations. MemStore and its
// transactional view both delegate here; locking lives in the wrappers.
type memData struct {
	matches      map[matchKey]int64
	quarters     map[quarterKey]model.Quarter
	reports      []model.GameReport
	profiles     map[uuid.UUID]model.PlayerProfile
	teams        map[int64]string
	members      map[int64][]uuid.UUID
	teamProfiles map[int64]model.TeamProfile

	nextMatchID   int64
	nextQuarterID int64
	nextReportID  int64
	nextTeamID    int64
}

func newMemData() *memData {
	return &memData{
		matches:      make(map[matchKey]int64),
		quarters:     make(map[quarterKey]model.Quarter),
		profiles:     make(map[uuid.UUID]model.PlayerProfile),
		teams:        make(map[int64]string),
		members:      make(map[int64][]uuid.UUID),
		teamProfiles: make(map[int64]model.TeamProfile),
	}
}

// clone deep-copies the state for transaction rollback.
func (d *memData) clone() *memData {
	c := newMemData()
	for k, v := range d.matches {
		c.matches[k] = v
	}
	for k, v := range d.quarters {
		c.quarters[k] = v
	}
	c.reports = append(c.reports, d.reports...)
	for k, v := range d.profiles {
		c.profiles[k] = v
	}
	for k, v := range d.teams {
		c.teams[k] = v
	}
	for k, v := range d.members {
		c.members[k] = append([]uuid.UUID(nil), v...)
	}
	for k, v := range d.teamProfiles {
		c.teamProfiles[k] = v
	}
	c.nextMatchID = d.nextMatchID
	c.nextQuarterID = d.nextQuarterID
	c.nextReportID = d.nextReportID
	c.nextTeamID = d.nextTeamID
	return c
}

func (d *memData) findMatchID(userID uuid.UUID, matchDate time.Time) (int64, error) {
	id, ok := d.matches[matchKey{userID: userID, date: dateKey(matchDate)}]
	if !ok {
		return 0, ErrNotFound
	}
	return id, nil
}

func (d *memData) createMatch(userID uuid.UUID, matchDate time.Time) (int64, error) {
	key := matchKey{userID: userID, date: dateKey(matchDate)}
	if id, ok := d.matches[key]; ok {
		return id, nil
	}
	d.nextMatchID++
	d.matches[key] = d.nextMatchID
	return d.nextMatchID, nil
}

func (d *memData) quartersByMatch(matchID int64) []model.Quarter {
	var out []model.Quarter
	for k, q := range d.quarters {
		if k.matchID == matchID {
			out = append(out, q)
		}
	}
	return out
}

func (d *memData) createQuarters(quarters []model.Quarter) {
	for _, q := range quarters {
		key := quarterKey{matchID: q.MatchID, number: q.QuarterNumber}
		if _, exists := d.quarters[key]; exists {
			continue
		}
		d.nextQuarterID++
		q.QuarterID = d.nextQuarterID
		if q.CreatedAt.IsZero() {
			q.CreatedAt = time.Now()
		}
		d.quarters[key] = q
	}
}

func (d *memData) quartersByMatchAndNumbers(matchID int64, numbers []int) []model.Quarter {
	var out []model.Quarter
	for _, n := range numbers {
		if q, ok := d.quarters[quarterKey{matchID: matchID, number: n}]; ok {
			out = append(out, q)
		}
	}
	return out
}

func (d *memData) insertReports(reports []model.GameReport) {
	for _, r := range reports {
		d.nextReportID++
		r.ReportID = d.nextReportID
		if r.CreatedAt.IsZero() {
			r.CreatedAt = time.Now()
		}
		d.reports = append(d.reports, r)
	}
}

func (d *memData) playerProfile(userID uuid.UUID) (model.PlayerProfile, error) {
	p, ok := d.profiles[userID]
	if !ok {
		return model.PlayerProfile{}, ErrNotFound
	}
	return p, nil
}

func (d *memData) savePlayerProfile(p model.PlayerProfile) {
	d.profiles[p.UserID] = p
}

func (d *memData) createTeam(name string) int64 {
	d.nextTeamID++
	d.teams[d.nextTeamID] = name
	d.teamProfiles[d.nextTeamID] = model.TeamProfile{TeamID: d.nextTeamID}
	return d.nextTeamID
}

func (d *memData) teamMemberProfiles(teamID int64) []model.PlayerProfile {
	var out []model.PlayerProfile
	for _, userID := range d.members[teamID] {
		if p, ok := d.profiles[userID]; ok {
			out = append(out, p)
		}
	}
	return out
}

// MemStore is the in-memory Store used by tests and dev mode. A single
// mutex serializes every operation, which also makes InTx transactions
// fully isolated.
type MemStore struct {
	mu   sync.Mutex
	data *memData
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{data: newMemData()}
}

func (s *MemStore) FindMatchID(_ context.Context, userID uuid.UUID, matchDate time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.findMatchID(userID, matchDate)
}

func (s *MemStore) CreateMatch(_ context.Context, userID uuid.UUID, matchDate time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.createMatch(userID, matchDate)
}

func (s *MemStore) QuartersByMatch(_ context.Context, matchID int64) ([]model.Quarter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.quartersByMatch(matchID), nil
}

func (s *MemStore) CreateQuarters(_ context.Context, quarters []model.Quarter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.createQuarters(quarters)
	return nil
}

func (s *MemStore) QuartersByMatchAndNumbers(_ context.Context, matchID int64, numbers []int) ([]model.Quarter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.quartersByMatchAndNumbers(matchID, numbers), nil
}

func (s *MemStore) InsertReports(_ context.Context, reports []model.GameReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.insertReports(reports)
	return nil
}

func (s *MemStore) PlayerProfile(_ context.Context, userID uuid.UUID) (model.PlayerProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.playerProfile(userID)
}

func (s *MemStore) CreatePlayerProfile(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.savePlayerProfile(model.PlayerProfile{UserID: userID})
	return nil
}

func (s *MemStore) SavePlayerProfile(_ context.Context, p model.PlayerProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.savePlayerProfile(p)
	return nil
}

func (s *MemStore) CreateTeam(_ context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.createTeam(name), nil
}

func (s *MemStore) AddTeamMember(_ context.Context, teamID int64, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.teams[teamID]; !ok {
		return ErrNotFound
	}
	s.data.members[teamID] = append(s.data.members[teamID], userID)
	return nil
}

func (s *MemStore) ListTeamIDs(_ context.Context) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(s.data.teams))
	for id := range s.data.teams {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *MemStore) TeamMemberProfiles(_ context.Context, teamID int64) ([]model.PlayerProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.teamMemberProfiles(teamID), nil
}

func (s *MemStore) TeamProfile(_ context.Context, teamID int64) (model.TeamProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tp, ok := s.data.teamProfiles[teamID]
	if !ok {
		return model.TeamProfile{}, ErrNotFound
	}
	return tp, nil
}

func (s *MemStore) SaveTeamProfile(_ context.Context, tp model.TeamProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.teamProfiles[tp.TeamID] = tp
	return nil
}

// InTx runs fn against the store under the global lock. The state is
// snapshotted first and restored when fn fails, so partial writes never
// become visible.
func (s *MemStore) InTx(ctx context.Context, fn func(Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	backup := s.data.clone()
	if err := fn(&memTx{data: s.data}); err != nil {
		s.data = backup
		return err
	}
	return nil
}

func (s *MemStore) Close() error {
	return nil
}

// memTx is the transactional view handed to InTx callbacks. It operates on
// the live data without locking; the outer InTx already holds the mutex.
type memTx struct {
	data *memData
}

func (t *memTx) FindMatchID(_ context.Context, userID uuid.UUID, matchDate time.Time) (int64, error) {
	return t.data.findMatchID(userID, matchDate)
}

func (t *memTx) CreateMatch(_ context.Context, userID uuid.UUID, matchDate time.Time) (int64, error) {
	return t.data.createMatch(userID, matchDate)
}

func (t *memTx) QuartersByMatch(_ context.Context, matchID int64) ([]model.Quarter, error) {
	return t.data.quartersByMatch(matchID), nil
}

func (t *memTx) CreateQuarters(_ context.Context, quarters []model.Quarter) error {
	t.data.createQuarters(quarters)
	return nil
}

func (t *memTx) QuartersByMatchAndNumbers(_ context.Context, matchID int64, numbers []int) ([]model.Quarter, error) {
	return t.data.quartersByMatchAndNumbers(matchID, numbers), nil
}

func (t *memTx) InsertReports(_ context.Context, reports []model.GameReport) error {
	t.data.insertReports(reports)
	return nil
}

func (t *memTx) PlayerProfile(_ context.Context, userID uuid.UUID) (model.PlayerProfile, error) {
	return t.data.playerProfile(userID)
}

func (t *memTx) CreatePlayerProfile(_ context.Context, userID uuid.UUID) error {
	t.data.savePlayerProfile(model.PlayerProfile{UserID: userID})
	return nil
}

func (t *memTx) SavePlayerProfile(_ context.Context, p model.PlayerProfile) error {
	t.data.savePlayerProfile(p)
	return nil
}

func (t *memTx) CreateTeam(_ context.Context, name string) (int64, error) {
	return t.data.createTeam(name), nil
}

func (t *memTx) AddTeamMember(_ context.Context, teamID int64, userID uuid.UUID) error {
	if _, ok := t.data.teams[teamID]; !ok {
		return ErrNotFound
	}
	t.data.members[teamID] = append(t.data.members[teamID], userID)
	return nil
}

func (t *memTx) ListTeamIDs(_ context.Context) ([]int64, error) {
	ids := make([]int64, 0, len(t.data.teams))
	for id := range t.data.teams {
		ids = append(ids, id)
	}
	return ids, nil
}

func (t *memTx) TeamMemberProfiles(_ context.Context, teamID int64) ([]model.PlayerProfile, error) {
	return t.data.teamMemberProfiles(teamID), nil
}

func (t *memTx) TeamProfile(_ context.Context, teamID int64) (model.TeamProfile, error) {
	tp, ok := t.data.teamProfiles[teamID]
	if !ok {
		return model.TeamProfile{}, ErrNotFound
	}
	return tp, nil
}

func (t *memTx) SaveTeamProfile(_ context.Context, tp model.TeamProfile) error {
	t.data.teamProfiles[tp.TeamID] = tp
	return nil
}

// InTx on a transactional view joins the outer transaction.
func (t *memTx) InTx(ctx context.Context, fn func(Store) error) error {
	return fn(t)
}

func (t *memTx) Close() error {
	return nil
}
