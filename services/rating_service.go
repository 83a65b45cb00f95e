package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/tournament-bracket/brackets"
	"github.com/Dosada05/tournament-bracket/models"
	"github.com/Dosada05/tournament-bracket/repositories"
)

type RatingService interface {
	// RecalculateTournament rebuilds the tournament's rating history, replaying decided
	// matches in the order they were played. Player ratings move by the replay's net
	// change; whatever the tournament applied before is reversed first.
	RecalculateTournament(ctx context.Context, exec repositories.SQLExecutor, tournament *models.Tournament) ([]brackets.RatingUpdate, error)
	// ProcessMatch applies a single decided match to the players' current ratings.
	// Processing the same match again replaces its earlier effect.
	ProcessMatch(ctx context.Context, matchID int) (*brackets.RatingUpdate, error)
	History(ctx context.Context, playerID int) ([]*models.RatingHistoryPoint, error)
}

type ratingService struct {
	tx              repositories.Transactor
	participantRepo repositories.ParticipantRepository
	matchRepo       repositories.MatchRepository
	playerRepo      repositories.PlayerRepository
	ratingRepo      repositories.RatingRepository
	logger          *slog.Logger
	now             func() time.Time
}

func NewRatingService(
	tx repositories.Transactor,
	participantRepo repositories.ParticipantRepository,
	matchRepo repositories.MatchRepository,
	playerRepo repositories.PlayerRepository,
	ratingRepo repositories.RatingRepository,
	logger *slog.Logger,
) RatingService {
	return &ratingService{
		tx:              tx,
		participantRepo: participantRepo,
		matchRepo:       matchRepo,
		playerRepo:      playerRepo,
		ratingRepo:      ratingRepo,
		logger:          logger,
		now:             time.Now,
	}
}

func (s *ratingService) RecalculateTournament(ctx context.Context, exec repositories.SQLExecutor, tournament *models.Tournament) ([]brackets.RatingUpdate, error) {
	participants, err := s.participantRepo.ListByTournament(ctx, exec, tournament.ID)
	if err != nil {
		return nil, err
	}
	matches, err := s.matchRepo.ListByTournament(ctx, exec, tournament.ID)
	if err != nil {
		return nil, err
	}
	applied, err := s.ratingRepo.TournamentDeltas(ctx, exec, tournament.ID)
	if err != nil {
		return nil, err
	}

	seeding := make(map[int]int, len(participants))
	for _, p := range participants {
		seeding[p.PlayerID] = p.Rating
	}
	ids := make([]int, 0, len(seeding)+len(applied))
	for id := range seeding {
		ids = append(ids, id)
	}
	for id := range applied {
		if _, ok := seeding[id]; !ok {
			ids = append(ids, id)
		}
	}
	current, err := s.playerRepo.GetRatings(ctx, exec, ids)
	if err != nil {
		return nil, err
	}

	// The replay starts from each player's rating with this tournament's earlier
	// contribution taken back out, so ratings earned elsewhere are kept.
	start := make(map[int]int, len(ids))
	for _, id := range ids {
		r, ok := current[id]
		if !ok {
			start[id] = seeding[id]
			continue
		}
		start[id] = max(brackets.RatingFloor, r-applied[id])
	}

	if err := s.ratingRepo.DeleteByTournament(ctx, exec, tournament.ID); err != nil {
		return nil, err
	}

	updates, final := brackets.Replay(matches, start, tournament.StartDate)
	tournamentID := tournament.ID
	touched := make(map[int]bool)

	for _, u := range updates {
		for _, point := range []*models.RatingHistoryPoint{
			{PlayerID: u.WinnerID, MatchID: u.MatchID, TournamentID: &tournamentID, RatingBefore: u.WinnerBefore, Rating: u.WinnerAfter, RecordedAt: u.PlayedAt},
			{PlayerID: u.LoserID, MatchID: u.MatchID, TournamentID: &tournamentID, RatingBefore: u.LoserBefore, Rating: u.LoserAfter, RecordedAt: u.PlayedAt},
		} {
			if err := s.ratingRepo.Upsert(ctx, exec, point); err != nil {
				return nil, fmt.Errorf("failed to store rating of player %d after match %d: %w", point.PlayerID, point.MatchID, err)
			}
			touched[point.PlayerID] = true
		}
	}

	deltas := make(map[int]int, len(touched))
	for _, id := range ids {
		if _, ok := current[id]; !ok {
			continue
		}
		rating := start[id]
		if touched[id] {
			rating = final[id]
			deltas[id] = rating - start[id]
		}
		if rating == current[id] {
			continue
		}
		if err := s.playerRepo.UpdateRating(ctx, exec, id, rating); err != nil {
			return nil, fmt.Errorf("failed to update rating of player %d: %w", id, err)
		}
	}
	if err := s.ratingRepo.ReplaceTournamentDeltas(ctx, exec, tournament.ID, deltas); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "tournament ratings replayed",
		slog.Int("tournament_id", tournament.ID),
		slog.Int("matches", len(updates)),
		slog.Int("players", len(touched)))
	return updates, nil
}

func (s *ratingService) ProcessMatch(ctx context.Context, matchID int) (*brackets.RatingUpdate, error) {
	var update *brackets.RatingUpdate

	err := s.tx.WithinTx(ctx, func(ctx context.Context, exec repositories.SQLExecutor) error {
		m, err := s.matchRepo.GetByID(ctx, exec, matchID)
		if err != nil {
			if errors.Is(err, repositories.ErrMatchNotFound) {
				return ErrMatchNotFound
			}
			return err
		}
		loser := m.LoserID()
		if m.Status != models.MatchCompleted || loser == nil {
			return fmt.Errorf("%w: match %d has no decided result between two players", ErrMatchNotReady, matchID)
		}
		winner := *m.WinnerID

		ratings, err := s.playerRepo.GetRatings(ctx, exec, []int{winner, *loser})
		if err != nil {
			return err
		}
		w, err := s.priorRating(ctx, exec, ratings, winner, m.ID)
		if err != nil {
			return err
		}
		l, err := s.priorRating(ctx, exec, ratings, *loser, m.ID)
		if err != nil {
			return err
		}

		nw, nl := brackets.Apply(w.before, l.before)
		playedAt := brackets.MatchTime(m, s.now())
		tournamentID := m.TournamentID
		for _, point := range []*models.RatingHistoryPoint{
			{PlayerID: winner, MatchID: m.ID, TournamentID: &tournamentID, RatingBefore: w.before, Rating: nw, RecordedAt: playedAt},
			{PlayerID: *loser, MatchID: m.ID, TournamentID: &tournamentID, RatingBefore: l.before, Rating: nl, RecordedAt: playedAt},
		} {
			if err := s.ratingRepo.Upsert(ctx, exec, point); err != nil {
				return err
			}
		}
		if err := s.applyChange(ctx, exec, tournamentID, winner, w, nw); err != nil {
			return err
		}
		if err := s.applyChange(ctx, exec, tournamentID, *loser, l, nl); err != nil {
			return err
		}

		update = &brackets.RatingUpdate{
			MatchID: m.ID, PlayedAt: playedAt,
			WinnerID: winner, LoserID: *loser,
			WinnerBefore: w.before, LoserBefore: l.before,
			WinnerAfter: nw, LoserAfter: nl,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "match rating processed",
		slog.Int("match_id", matchID),
		slog.Int("winner_rating", update.WinnerAfter),
		slog.Int("loser_rating", update.LoserAfter))
	return update, nil
}

// playerMatchRating is a player's rating around one match.
type playerMatchRating struct {
	current int
	before  int
	applied int
}

// priorRating rates a player as they stood before the match. A match processed
// earlier keeps its recorded starting rating and its change is taken back out.
func (s *ratingService) priorRating(ctx context.Context, exec repositories.SQLExecutor, ratings map[int]int, playerID, matchID int) (playerMatchRating, error) {
	current, ok := ratings[playerID]
	if !ok {
		return playerMatchRating{}, fmt.Errorf("%w: %d", ErrPlayerNotFound, playerID)
	}
	point, err := s.ratingRepo.GetPoint(ctx, exec, playerID, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrRatingPointNotFound) {
			return playerMatchRating{current: current, before: current}, nil
		}
		return playerMatchRating{}, err
	}
	return playerMatchRating{
		current: current,
		before:  point.RatingBefore,
		applied: point.Rating - point.RatingBefore,
	}, nil
}

func (s *ratingService) applyChange(ctx context.Context, exec repositories.SQLExecutor, tournamentID, playerID int, r playerMatchRating, after int) error {
	rating := max(brackets.RatingFloor, r.current-r.applied+after-r.before)
	if err := s.playerRepo.UpdateRating(ctx, exec, playerID, rating); err != nil {
		return err
	}
	return s.ratingRepo.AddTournamentDelta(ctx, exec, tournamentID, playerID, rating-r.current)
}

func (s *ratingService) History(ctx context.Context, playerID int) ([]*models.RatingHistoryPoint, error) {
	if _, err := s.playerRepo.GetByID(ctx, nil, playerID); err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	return s.ratingRepo.ListByPlayer(ctx, playerID)
}
