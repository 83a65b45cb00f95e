package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/Dosada05/tournament-bracket/brackets"
	"github.com/Dosada05/tournament-bracket/models"
	"github.com/Dosada05/tournament-bracket/repositories"
	"golang.org/x/sync/singleflight"
)

// GenerationResult describes one generation attempt. Skipped is a success: another
// request already generated (or is generating) the same matches.
type GenerationResult struct {
	TournamentID   int    `json:"tournament_id"`
	Generator      string `json:"generator,omitempty"`
	Skipped        bool   `json:"skipped"`
	Reason         string `json:"reason,omitempty"`
	MatchesCreated int    `json:"matches_created"`
	ByesAdvanced   int    `json:"byes_advanced"`
}

const (
	skipReasonLocked   = "generation already in progress"
	skipReasonExisting = "matches already exist"
	skipReasonPlayoffs = "playoffs already generated"
)

type BracketService interface {
	GenerateBracket(ctx context.Context, tournamentID int) (*GenerationResult, error)
	// RegenerateBracket drops every match, score, standing and rating point of the
	// tournament and generates again.
	RegenerateBracket(ctx context.Context, tournamentID int) (*GenerationResult, error)
	GeneratePlayoffs(ctx context.Context, tournamentID int) (*GenerationResult, error)
}

type bracketService struct {
	locker          repositories.TournamentLocker
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	matchRepo       repositories.MatchRepository
	scoreRepo       repositories.MatchScoreRepository
	standingRepo    repositories.StandingRepository
	ratingRepo      repositories.RatingRepository
	progression     ProgressionService
	hub             brackets.Broadcaster
	logger          *slog.Logger

	shuffle brackets.ShuffleFunc
	now     func() time.Time
	flight  singleflight.Group
}

type BracketServiceOption func(*bracketService)

// WithShuffle replaces the random first-round shuffle.
func WithShuffle(shuffle brackets.ShuffleFunc) BracketServiceOption {
	return func(s *bracketService) { s.shuffle = shuffle }
}

func NewBracketService(
	locker repositories.TournamentLocker,
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	matchRepo repositories.MatchRepository,
	scoreRepo repositories.MatchScoreRepository,
	standingRepo repositories.StandingRepository,
	ratingRepo repositories.RatingRepository,
	progression ProgressionService,
	hub brackets.Broadcaster,
	logger *slog.Logger,
	opts ...BracketServiceOption,
) BracketService {
	s := &bracketService{
		locker:          locker,
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		matchRepo:       matchRepo,
		scoreRepo:       scoreRepo,
		standingRepo:    standingRepo,
		ratingRepo:      ratingRepo,
		progression:     progression,
		hub:             hub,
		logger:          logger,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *bracketService) loadTournament(ctx context.Context, tournamentID int) (*models.Tournament, error) {
	t, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (s *bracketService) GenerateBracket(ctx context.Context, tournamentID int) (*GenerationResult, error) {
	// Concurrent calls in this process share one attempt; the advisory lock covers the rest.
	v, err, _ := s.flight.Do("generate:"+strconv.Itoa(tournamentID), func() (interface{}, error) {
		return s.generate(ctx, tournamentID, false)
	})
	if err != nil {
		return nil, err
	}
	return v.(*GenerationResult), nil
}

func (s *bracketService) RegenerateBracket(ctx context.Context, tournamentID int) (*GenerationResult, error) {
	return s.generate(ctx, tournamentID, true)
}

func (s *bracketService) generate(ctx context.Context, tournamentID int, regenerate bool) (*GenerationResult, error) {
	tournament, err := s.loadTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if tournament.IsClosed() {
		return nil, ErrTournamentClosed
	}

	generator, err := brackets.GeneratorFor(tournament.Format, s.shuffle)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	result := &GenerationResult{TournamentID: tournamentID, Generator: generator.GetName()}

	acquired, err := s.locker.WithTournamentLock(ctx, tournamentID, func(ctx context.Context, exec repositories.SQLExecutor) error {
		if regenerate {
			if err := s.clear(ctx, exec, tournamentID); err != nil {
				return err
			}
		}

		// Re-check under the lock: the caller's view may be stale.
		count, err := s.matchRepo.CountByTournament(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		if count > 0 {
			result.Skipped = true
			result.Reason = skipReasonExisting
			return nil
		}

		participants, err := s.participantRepo.ListByTournament(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		generated, err := generator.GenerateBracket(ctx, brackets.GenerateBracketParams{
			Tournament:   tournament,
			Participants: participants,
		})
		if err != nil {
			return fmt.Errorf("%w: %w", ErrBracketGeneration, err)
		}

		result.MatchesCreated, result.ByesAdvanced, err = s.persist(ctx, exec, tournament, generated)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate bracket for tournament %d: %w", tournamentID, err)
	}
	if !acquired {
		result.Skipped = true
		result.Reason = skipReasonLocked
	}

	if result.Skipped {
		s.logger.InfoContext(ctx, "bracket generation skipped",
			slog.Int("tournament_id", tournamentID), slog.String("reason", result.Reason))
		return result, nil
	}

	s.logger.InfoContext(ctx, "bracket generated",
		slog.Int("tournament_id", tournamentID),
		slog.String("generator", result.Generator),
		slog.Int("matches", result.MatchesCreated),
		slog.Int("byes", result.ByesAdvanced),
		slog.Bool("regenerated", regenerate))
	s.broadcast(brackets.EventBracketGenerated, tournamentID, result)
	return result, nil
}

func (s *bracketService) clear(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) error {
	if err := s.ratingRepo.DeleteByTournament(ctx, exec, tournamentID); err != nil {
		return err
	}
	if err := s.standingRepo.DeleteByTournament(ctx, exec, tournamentID); err != nil {
		return err
	}
	if err := s.scoreRepo.DeleteByTournament(ctx, exec, tournamentID); err != nil {
		return err
	}
	return s.matchRepo.DeleteByTournament(ctx, exec, tournamentID)
}

// persist inserts matches in generator order, so ids follow round order, then moves
// every bye winner into the next round.
func (s *bracketService) persist(ctx context.Context, exec repositories.SQLExecutor, tournament *models.Tournament, generated []*brackets.BracketMatch) (int, int, error) {
	now := s.now()
	byes := make([]*models.Match, 0)

	for _, bm := range generated {
		m := &models.Match{
			TournamentID: tournament.ID,
			Round:        bm.Round,
			GroupName:    bm.GroupName,
			Player1ID:    bm.Player1ID,
			Player2ID:    bm.Player2ID,
			Status:       models.MatchScheduled,
		}
		if bm.IsBye {
			m.WinnerID = bm.Player1ID
			m.Status = models.MatchCompleted
			m.EndTime = &now
		}
		if err := s.matchRepo.Create(ctx, exec, m); err != nil {
			return 0, 0, fmt.Errorf("failed to create %s match: %w", bm.Round, err)
		}

		if bm.IsBye {
			score := &models.MatchScore{MatchID: m.ID, Player1Scores: bm.Player1Scores, Player2Scores: bm.Player2Scores}
			if err := s.scoreRepo.Upsert(ctx, exec, score); err != nil {
				return 0, 0, fmt.Errorf("failed to store bye score for match %d: %w", m.ID, err)
			}
			byes = append(byes, m)
		}
	}

	for _, m := range byes {
		if _, err := s.progression.Advance(ctx, exec, AdvanceInput{
			TournamentID: tournament.ID,
			MatchID:      m.ID,
			Round:        m.Round,
			WinnerID:     *m.WinnerID,
		}); err != nil {
			return 0, 0, fmt.Errorf("failed to advance bye winner of match %d: %w", m.ID, err)
		}
	}
	return len(generated), len(byes), nil
}

func (s *bracketService) GeneratePlayoffs(ctx context.Context, tournamentID int) (*GenerationResult, error) {
	tournament, err := s.loadTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if tournament.Format != models.FormatGroupStage {
		return nil, ErrNotGroupStage
	}
	if tournament.IsClosed() {
		return nil, ErrTournamentClosed
	}

	result := &GenerationResult{TournamentID: tournamentID, Generator: "Playoffs"}

	acquired, err := s.locker.WithTournamentLock(ctx, tournamentID, func(ctx context.Context, exec repositories.SQLExecutor) error {
		matches, err := s.matchRepo.ListByTournament(ctx, exec, tournamentID)
		if err != nil {
			return err
		}

		groupMatches := make([]*models.Match, 0, len(matches))
		for _, m := range matches {
			if brackets.IsEliminationRound(m.Round) {
				result.Skipped = true
				result.Reason = skipReasonPlayoffs
				return nil
			}
			if m.Round != brackets.RoundGroupStage {
				continue
			}
			if m.Status != models.MatchCompleted {
				return fmt.Errorf("%w: match %d is %s", ErrPlayoffsNotReady, m.ID, m.Status)
			}
			groupMatches = append(groupMatches, m)
		}
		if len(groupMatches) == 0 {
			return fmt.Errorf("%w: no group matches", ErrPlayoffsNotReady)
		}

		participants, err := s.participantRepo.ListByTournament(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		scores, err := s.scoreRepo.ListByTournament(ctx, exec, tournamentID)
		if err != nil {
			return err
		}

		byPlayer := make(map[int]*models.Participant, len(participants))
		ratings := make(map[int]int, len(participants))
		for _, p := range participants {
			byPlayer[p.PlayerID] = p
			ratings[p.PlayerID] = p.Rating
		}

		_, advance := tournament.GroupConfig()
		seedIDs, err := brackets.PlayoffSeeds(brackets.GroupTable(groupMatches, scores, ratings), advance)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrBracketGeneration, err)
		}

		seeds := make([]*models.Participant, 0, len(seedIDs))
		for _, id := range seedIDs {
			p, ok := byPlayer[id]
			if !ok {
				p = &models.Participant{TournamentID: tournamentID, PlayerID: id}
			}
			seeds = append(seeds, p)
		}

		generated, err := brackets.GeneratePlayoffBracket(ctx, tournament, seeds, s.shuffle)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrBracketGeneration, err)
		}
		result.MatchesCreated, result.ByesAdvanced, err = s.persist(ctx, exec, tournament, generated)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate playoffs for tournament %d: %w", tournamentID, err)
	}
	if !acquired {
		result.Skipped = true
		result.Reason = skipReasonLocked
	}
	if result.Skipped {
		return result, nil
	}

	s.logger.InfoContext(ctx, "playoffs generated",
		slog.Int("tournament_id", tournamentID),
		slog.Int("matches", result.MatchesCreated),
		slog.Int("byes", result.ByesAdvanced))
	s.broadcast(brackets.EventPlayoffsGenerated, tournamentID, result)
	return result, nil
}

func (s *bracketService) broadcast(eventType string, tournamentID int, payload interface{}) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastToRoom(brackets.TournamentRoom(tournamentID), brackets.NewEvent(eventType, tournamentID, payload))
}
