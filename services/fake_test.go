package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Dosada05/tournament-bracket/brackets"
	"github.com/Dosada05/tournament-bracket/models"
	"github.com/Dosada05/tournament-bracket/repositories"
)

// memStore is an in-memory stand-in for the database shared by every fake repository.
type memStore struct {
	mu sync.Mutex

	tournaments  map[int]*models.Tournament
	participants map[int][]*models.Participant
	players      map[int]*models.Player
	matches      map[int]*models.Match
	scores       map[int]*models.MatchScore
	standings    map[int][]*models.Standing
	ratings      []*models.RatingHistoryPoint
	deltas       map[int]map[int]int

	nextID int
	locked map[int]bool
	clock  time.Time

	// failAssign makes AssignSlot fail for the given target match.
	failAssign map[int]error
}

func newMemStore() *memStore {
	return &memStore{
		tournaments:  make(map[int]*models.Tournament),
		participants: make(map[int][]*models.Participant),
		players:      make(map[int]*models.Player),
		matches:      make(map[int]*models.Match),
		scores:       make(map[int]*models.MatchScore),
		standings:    make(map[int][]*models.Standing),
		deltas:       make(map[int]map[int]int),
		locked:       make(map[int]bool),
		failAssign:   make(map[int]error),
		nextID:       1,
		clock:        time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func (s *memStore) id() int {
	id := s.nextID
	s.nextID++
	return id
}

// tick returns a strictly increasing timestamp so chronological ordering is stable.
func (s *memStore) tick() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = s.clock.Add(time.Minute)
	return s.clock
}

func (s *memStore) addTournament(format models.TournamentFormat, status models.TournamentStatus) *models.Tournament {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &models.Tournament{
		ID:          s.id(),
		Name:        "Spring Open",
		Format:      format,
		Status:      status,
		MatchFormat: models.BestOf5,
		StartDate:   time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC),
	}
	s.tournaments[t.ID] = t
	return t
}

// addPlayer registers a player with the given rating as a participant of the tournament.
func (s *memStore) addPlayer(tournamentID int, name string, rating int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &models.Player{ID: s.id(), Name: name, Rating: rating}
	s.players[p.ID] = p
	s.participants[tournamentID] = append(s.participants[tournamentID], &models.Participant{
		ID:           s.id(),
		TournamentID: tournamentID,
		PlayerID:     p.ID,
		Rating:       rating,
		PlayerName:   name,
	})
	s.tournaments[tournamentID].ParticipantCount++
	return p.ID
}

// enroll registers an existing player, snapshotting their current rating.
func (s *memStore) enroll(tournamentID, playerID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.players[playerID]
	s.participants[tournamentID] = append(s.participants[tournamentID], &models.Participant{
		ID:           s.id(),
		TournamentID: tournamentID,
		PlayerID:     p.ID,
		Rating:       p.Rating,
		PlayerName:   p.Name,
	})
	s.tournaments[tournamentID].ParticipantCount++
}

func (s *memStore) match(id int) *models.Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneMatch(s.matches[id])
}

func (s *memStore) roundMatches(tournamentID int, round string) []*models.Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked(func(m *models.Match) bool { return m.TournamentID == tournamentID && m.Round == round })
}

func (s *memStore) allMatches(tournamentID int) []*models.Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked(func(m *models.Match) bool { return m.TournamentID == tournamentID })
}

func (s *memStore) listLocked(keep func(*models.Match) bool) []*models.Match {
	out := make([]*models.Match, 0)
	for _, m := range s.matches {
		if keep(m) {
			out = append(out, cloneMatch(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memStore) tournament(id int) *models.Tournament {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := *s.tournaments[id]
	return &t
}

func (s *memStore) playerRating(id int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.players[id].Rating
}

func cloneMatch(m *models.Match) *models.Match {
	if m == nil {
		return nil
	}
	c := *m
	c.Player1ID = cloneInt(m.Player1ID)
	c.Player2ID = cloneInt(m.Player2ID)
	c.WinnerID = cloneInt(m.WinnerID)
	return &c
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

type snapshot struct {
	tournaments map[int]models.Tournament
	matches     map[int]*models.Match
	scores      map[int]*models.MatchScore
	standings   map[int][]*models.Standing
	ratings     []*models.RatingHistoryPoint
	deltas      map[int]map[int]int
	players     map[int]models.Player
}

func (s *memStore) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := snapshot{
		tournaments: make(map[int]models.Tournament, len(s.tournaments)),
		matches:     make(map[int]*models.Match, len(s.matches)),
		scores:      make(map[int]*models.MatchScore, len(s.scores)),
		standings:   make(map[int][]*models.Standing, len(s.standings)),
		ratings:     append([]*models.RatingHistoryPoint(nil), s.ratings...),
		deltas:      make(map[int]map[int]int, len(s.deltas)),
		players:     make(map[int]models.Player, len(s.players)),
	}
	for tournamentID, byPlayer := range s.deltas {
		c := make(map[int]int, len(byPlayer))
		for id, d := range byPlayer {
			c[id] = d
		}
		snap.deltas[tournamentID] = c
	}
	for id, t := range s.tournaments {
		snap.tournaments[id] = *t
	}
	for id, m := range s.matches {
		snap.matches[id] = cloneMatch(m)
	}
	for id, sc := range s.scores {
		c := *sc
		snap.scores[id] = &c
	}
	for id, rows := range s.standings {
		snap.standings[id] = append([]*models.Standing(nil), rows...)
	}
	for id, p := range s.players {
		snap.players[id] = *p
	}
	return snap
}

func (s *memStore) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range snap.tournaments {
		t := t
		s.tournaments[id] = &t
	}
	s.matches = snap.matches
	s.scores = snap.scores
	s.standings = snap.standings
	s.ratings = snap.ratings
	s.deltas = snap.deltas
	for id, p := range snap.players {
		p := p
		s.players[id] = &p
	}
}

// fakeTx runs functions directly against the store and restores a snapshot when
// they fail, like a rolled back transaction.
type fakeTx struct{ s *memStore }

func (f fakeTx) WithinTx(ctx context.Context, fn repositories.TxFunc) error {
	snap := f.s.snapshot()
	if err := fn(ctx, nil); err != nil {
		f.s.restore(snap)
		return err
	}
	return nil
}

func (f fakeTx) WithTournamentLock(ctx context.Context, tournamentID int, fn repositories.TxFunc) (bool, error) {
	f.s.mu.Lock()
	if f.s.locked[tournamentID] {
		f.s.mu.Unlock()
		return false, nil
	}
	f.s.locked[tournamentID] = true
	f.s.mu.Unlock()

	defer func() {
		f.s.mu.Lock()
		delete(f.s.locked, tournamentID)
		f.s.mu.Unlock()
	}()
	return true, f.WithinTx(ctx, fn)
}

type fakeTournamentRepo struct{ s *memStore }

func (r fakeTournamentRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Tournament, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	c := *t
	return &c, nil
}

func (r fakeTournamentRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.TournamentStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Status = status
	return nil
}

func (r fakeTournamentRepo) ListStartable(ctx context.Context, now time.Time) ([]*models.Tournament, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.Tournament, 0)
	for _, t := range r.s.tournaments {
		if t.Status == models.StatusUpcoming && !t.StartDate.After(now) {
			c := *t
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeParticipantRepo struct{ s *memStore }

func (r fakeParticipantRepo) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) ([]*models.Participant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.Participant, 0, len(r.s.participants[tournamentID]))
	for _, p := range r.s.participants[tournamentID] {
		c := *p
		out = append(out, &c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

type fakeMatchRepo struct{ s *memStore }

func (r fakeMatchRepo) Create(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	match.ID = r.s.id()
	match.CreatedAt = r.s.clock
	match.UpdatedAt = r.s.clock
	r.s.matches[match.ID] = cloneMatch(match)
	return nil
}

func (r fakeMatchRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	return cloneMatch(m), nil
}

func (r fakeMatchRepo) LockByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Match, error) {
	return r.GetByID(ctx, exec, id)
}

func (r fakeMatchRepo) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) ([]*models.Match, error) {
	return r.s.allMatches(tournamentID), nil
}

func (r fakeMatchRepo) ListByRound(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, round string) ([]*models.Match, error) {
	return r.s.roundMatches(tournamentID, round), nil
}

func (r fakeMatchRepo) CountByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) (int, error) {
	return len(r.s.allMatches(tournamentID)), nil
}

func (r fakeMatchRepo) CountByRounds(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, rounds []string) (int, error) {
	n := 0
	for _, round := range rounds {
		n += len(r.s.roundMatches(tournamentID, round))
	}
	return n, nil
}

func (r fakeMatchRepo) UpdateResult(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.matches[match.ID]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.WinnerID = cloneInt(match.WinnerID)
	m.Status = match.Status
	m.StartTime = match.StartTime
	m.EndTime = match.EndTime
	m.UpdatedAt = r.s.clock
	return nil
}

func (r fakeMatchRepo) AssignSlot(ctx context.Context, exec repositories.SQLExecutor, matchID int, slot models.Slot, playerID int, resetStatus bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failAssign[matchID]; err != nil {
		return err
	}
	m, ok := r.s.matches[matchID]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	p := playerID
	if slot == models.SlotPlayer2 {
		m.Player2ID = &p
	} else {
		m.Player1ID = &p
	}
	m.WinnerID = nil
	if resetStatus || m.Status == models.MatchCompleted {
		m.Status = models.MatchScheduled
		m.EndTime = nil
	}
	return nil
}

func (r fakeMatchRepo) ResetSlot(ctx context.Context, exec repositories.SQLExecutor, matchID int, slot models.Slot) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.matches[matchID]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	if slot == models.SlotPlayer2 {
		m.Player2ID = nil
	} else {
		m.Player1ID = nil
	}
	m.WinnerID = nil
	m.Status = models.MatchScheduled
	m.EndTime = nil
	return nil
}

func (r fakeMatchRepo) DeleteByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, m := range r.s.matches {
		if m.TournamentID == tournamentID {
			delete(r.s.matches, id)
		}
	}
	return nil
}

func (r fakeMatchRepo) ListWithDetails(ctx context.Context, tournamentID int) ([]*models.Match, error) {
	matches := r.s.allMatches(tournamentID)
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range matches {
		if m.Player1ID != nil {
			name := r.s.players[*m.Player1ID].Name
			m.Player1Name = &name
		}
		if m.Player2ID != nil {
			name := r.s.players[*m.Player2ID].Name
			m.Player2Name = &name
		}
		if sc, ok := r.s.scores[m.ID]; ok {
			c := *sc
			m.Score = &c
		}
	}
	return matches, nil
}

type fakeScoreRepo struct{ s *memStore }

func (r fakeScoreRepo) Upsert(ctx context.Context, exec repositories.SQLExecutor, score *models.MatchScore) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.matches[score.MatchID]; !ok {
		return repositories.ErrMatchScoreMatchInvalid
	}
	if existing, ok := r.s.scores[score.MatchID]; ok {
		score.ID = existing.ID
	} else {
		score.ID = r.s.id()
	}
	score.UpdatedAt = r.s.clock
	c := *score
	r.s.scores[score.MatchID] = &c
	return nil
}

func (r fakeScoreRepo) GetByMatchID(ctx context.Context, exec repositories.SQLExecutor, matchID int) (*models.MatchScore, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sc, ok := r.s.scores[matchID]
	if !ok {
		return nil, repositories.ErrMatchScoreNotFound
	}
	c := *sc
	return &c, nil
}

func (r fakeScoreRepo) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) (map[int]*models.MatchScore, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[int]*models.MatchScore)
	for matchID, sc := range r.s.scores {
		if m, ok := r.s.matches[matchID]; ok && m.TournamentID == tournamentID {
			c := *sc
			out[matchID] = &c
		}
	}
	return out, nil
}

func (r fakeScoreRepo) DeleteByMatchID(ctx context.Context, exec repositories.SQLExecutor, matchID int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.scores, matchID)
	return nil
}

func (r fakeScoreRepo) DeleteByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for matchID := range r.s.scores {
		if m, ok := r.s.matches[matchID]; ok && m.TournamentID == tournamentID {
			delete(r.s.scores, matchID)
		}
	}
	return nil
}

type fakeStandingRepo struct{ s *memStore }

func (r fakeStandingRepo) BatchCreate(ctx context.Context, exec repositories.SQLExecutor, standings []*models.Standing) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, st := range standings {
		st.ID = r.s.id()
		c := *st
		r.s.standings[st.TournamentID] = append(r.s.standings[st.TournamentID], &c)
	}
	return nil
}

func (r fakeStandingRepo) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) ([]*models.Standing, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.Standing, 0, len(r.s.standings[tournamentID]))
	for _, st := range r.s.standings[tournamentID] {
		c := *st
		out = append(out, &c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Rank != out[j].Rank {
			return out[i].Rank < out[j].Rank
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	return out, nil
}

func (r fakeStandingRepo) DeleteByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.standings, tournamentID)
	return nil
}

type fakeRatingRepo struct{ s *memStore }

func (r fakeRatingRepo) Upsert(ctx context.Context, exec repositories.SQLExecutor, point *models.RatingHistoryPoint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, existing := range r.s.ratings {
		if existing.PlayerID == point.PlayerID && existing.MatchID == point.MatchID {
			point.ID = existing.ID
			c := *point
			r.s.ratings[i] = &c
			return nil
		}
	}
	point.ID = r.s.id()
	c := *point
	r.s.ratings = append(r.s.ratings, &c)
	return nil
}

func (r fakeRatingRepo) DeleteByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.ratings[:0:0]
	for _, p := range r.s.ratings {
		inTournament := p.TournamentID != nil && *p.TournamentID == tournamentID
		if m, ok := r.s.matches[p.MatchID]; ok && m.TournamentID == tournamentID {
			inTournament = true
		}
		if !inTournament {
			kept = append(kept, p)
		}
	}
	r.s.ratings = kept
	return nil
}

func (r fakeRatingRepo) ListByPlayer(ctx context.Context, playerID int) ([]*models.RatingHistoryPoint, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.RatingHistoryPoint, 0)
	for _, p := range r.s.ratings {
		if p.PlayerID == playerID {
			c := *p
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].RecordedAt.Equal(out[j].RecordedAt) {
			return out[i].RecordedAt.Before(out[j].RecordedAt)
		}
		return out[i].MatchID < out[j].MatchID
	})
	return out, nil
}

func (r fakeRatingRepo) GetPoint(ctx context.Context, exec repositories.SQLExecutor, playerID, matchID int) (*models.RatingHistoryPoint, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.ratings {
		if p.PlayerID == playerID && p.MatchID == matchID {
			c := *p
			return &c, nil
		}
	}
	return nil, repositories.ErrRatingPointNotFound
}

func (r fakeRatingRepo) TournamentDeltas(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) (map[int]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[int]int)
	for id, d := range r.s.deltas[tournamentID] {
		out[id] = d
	}
	return out, nil
}

func (r fakeRatingRepo) ReplaceTournamentDeltas(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, deltas map[int]int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := make(map[int]int, len(deltas))
	for id, d := range deltas {
		c[id] = d
	}
	r.s.deltas[tournamentID] = c
	return nil
}

func (r fakeRatingRepo) AddTournamentDelta(ctx context.Context, exec repositories.SQLExecutor, tournamentID, playerID, delta int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.deltas[tournamentID] == nil {
		r.s.deltas[tournamentID] = make(map[int]int)
	}
	r.s.deltas[tournamentID][playerID] += delta
	return nil
}

type fakePlayerRepo struct{ s *memStore }

func (r fakePlayerRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Player, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.players[id]
	if !ok {
		return nil, repositories.ErrPlayerNotFound
	}
	c := *p
	return &c, nil
}

func (r fakePlayerRepo) GetRatings(ctx context.Context, exec repositories.SQLExecutor, ids []int) (map[int]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[int]int, len(ids))
	for _, id := range ids {
		if p, ok := r.s.players[id]; ok {
			out[id] = p.Rating
		}
	}
	return out, nil
}

func (r fakePlayerRepo) UpdateRating(ctx context.Context, exec repositories.SQLExecutor, id int, rating int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.players[id]
	if !ok {
		return repositories.ErrPlayerNotFound
	}
	p.Rating = rating
	return nil
}

// recordingHub collects broadcast event types.
type recordingHub struct {
	mu     sync.Mutex
	events []string
}

func (h *recordingHub) BroadcastToRoom(roomID string, message interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if msg, ok := message.(brackets.WebSocketMessage); ok {
		h.events = append(h.events, msg.Type)
	}
}

func (h *recordingHub) types() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.events...)
}

type recordingArchive struct {
	mu   sync.Mutex
	keys map[int]int
}

func (a *recordingArchive) ArchiveStandings(ctx context.Context, tournamentID int, standings []*models.Standing) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.keys == nil {
		a.keys = make(map[int]int)
	}
	a.keys[tournamentID] = len(standings)
	return StandingsKey(tournamentID), nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// engine wires every service over one memStore, the way main wires them over Postgres.
type engine struct {
	store       *memStore
	hub         *recordingHub
	archive     *recordingArchive
	progression ProgressionService
	brackets    BracketService
	standings   StandingsService
	ratings     RatingService
	tournaments TournamentService
	matches     MatchService
}

func newEngine(opts ...BracketServiceOption) *engine {
	store := newMemStore()
	logger := discardLogger()
	tx := fakeTx{s: store}
	hub := &recordingHub{}
	archive := &recordingArchive{}

	tournamentRepo := fakeTournamentRepo{s: store}
	participantRepo := fakeParticipantRepo{s: store}
	matchRepo := fakeMatchRepo{s: store}
	scoreRepo := fakeScoreRepo{s: store}
	standingRepo := fakeStandingRepo{s: store}
	ratingRepo := fakeRatingRepo{s: store}
	playerRepo := fakePlayerRepo{s: store}

	if len(opts) == 0 {
		opts = []BracketServiceOption{WithShuffle(func(int, func(i, j int)) {})}
	}

	e := &engine{store: store, hub: hub, archive: archive}
	e.progression = NewProgressionService(matchRepo, scoreRepo, logger)
	e.brackets = NewBracketService(tx, tournamentRepo, participantRepo, matchRepo, scoreRepo, standingRepo, ratingRepo, e.progression, hub, logger, opts...)
	e.standings = NewStandingsService(tournamentRepo, participantRepo, matchRepo, scoreRepo, standingRepo, logger)
	e.ratings = NewRatingService(tx, participantRepo, matchRepo, playerRepo, ratingRepo, logger)
	e.tournaments = NewTournamentService(tx, tournamentRepo, matchRepo, standingRepo, e.brackets, e.standings, e.ratings, archive, hub, logger)
	e.matches = NewMatchService(tx, tournamentRepo, matchRepo, scoreRepo, e.progression, e.brackets, e.tournaments, hub, logger)

	e.brackets.(*bracketService).now = store.tick
	e.matches.(*matchService).now = store.tick
	e.tournaments.(*tournamentService).now = store.tick
	return e
}
