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

type RecordWinnerInput struct {
	WinnerID *int                `json:"winner_id"`
	Round    *string             `json:"round,omitempty"`
	Status   *models.MatchStatus `json:"status,omitempty"`
}

type RecordScoresInput struct {
	Player1Scores []int `json:"player1_scores"`
	Player2Scores []int `json:"player2_scores"`
}

// PropagationReport describes the bracket work that followed a recorded result.
// Its failures never fail the write itself.
type PropagationReport struct {
	Advanced       *AdvanceResult    `json:"advanced,omitempty"`
	CascadeCleared []int             `json:"cascade_cleared,omitempty"`
	Playoffs       *GenerationResult `json:"playoffs,omitempty"`
	Finalized      bool              `json:"finalized"`
	Error          string            `json:"error,omitempty"`
	Err            error             `json:"-"`
}

type MatchResult struct {
	Match       *models.Match     `json:"match"`
	Propagation PropagationReport `json:"propagation"`
}

// Finalizer computes standings and ratings once a tournament has no matches left.
type Finalizer interface {
	Finalize(ctx context.Context, tournamentID int) (*FinalizeResult, error)
}

type PlayoffGenerator interface {
	GeneratePlayoffs(ctx context.Context, tournamentID int) (*GenerationResult, error)
}

type MatchService interface {
	RecordWinner(ctx context.Context, matchID int, in RecordWinnerInput) (*MatchResult, error)
	// RecordScores stores set scores and derives the winner from the sets won. Level
	// set counts leave the match in progress without a winner.
	RecordScores(ctx context.Context, matchID int, in RecordScoresInput) (*MatchResult, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Match, error)
}

type matchService struct {
	tx             repositories.Transactor
	tournamentRepo repositories.TournamentRepository
	matchRepo      repositories.MatchRepository
	scoreRepo      repositories.MatchScoreRepository
	progression    ProgressionService
	playoffs       PlayoffGenerator
	finalizer      Finalizer
	hub            brackets.Broadcaster
	logger         *slog.Logger
	now            func() time.Time
}

func NewMatchService(
	tx repositories.Transactor,
	tournamentRepo repositories.TournamentRepository,
	matchRepo repositories.MatchRepository,
	scoreRepo repositories.MatchScoreRepository,
	progression ProgressionService,
	playoffs PlayoffGenerator,
	finalizer Finalizer,
	hub brackets.Broadcaster,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		tx:             tx,
		tournamentRepo: tournamentRepo,
		matchRepo:      matchRepo,
		scoreRepo:      scoreRepo,
		progression:    progression,
		playoffs:       playoffs,
		finalizer:      finalizer,
		hub:            hub,
		logger:         logger,
		now:            time.Now,
	}
}

type applyFunc func(ctx context.Context, exec repositories.SQLExecutor, m *models.Match) error

// write locks the match row, applies the change and stores the result columns in one
// transaction. It returns the match as it was before and after the change.
func (s *matchService) write(ctx context.Context, matchID int, apply applyFunc) (*models.Match, *models.Match, error) {
	var before, after models.Match

	err := s.tx.WithinTx(ctx, func(ctx context.Context, exec repositories.SQLExecutor) error {
		m, err := s.matchRepo.LockByID(ctx, exec, matchID)
		if err != nil {
			if errors.Is(err, repositories.ErrMatchNotFound) {
				return ErrMatchNotFound
			}
			return err
		}
		before = *m

		tournament, err := s.tournamentRepo.GetByID(ctx, exec, m.TournamentID)
		if err != nil {
			if errors.Is(err, repositories.ErrTournamentNotFound) {
				return ErrTournamentNotFound
			}
			return err
		}
		if tournament.IsClosed() {
			return ErrTournamentClosed
		}
		if m.Player1ID == nil || m.Player2ID == nil {
			return fmt.Errorf("%w: match %d", ErrMatchNotReady, matchID)
		}

		if err := apply(ctx, exec, m); err != nil {
			return err
		}

		now := s.now()
		switch m.Status {
		case models.MatchCompleted:
			if m.StartTime == nil {
				m.StartTime = &now
			}
			if m.EndTime == nil || !sameWinner(&before, m) {
				m.EndTime = &now
			}
		case models.MatchInProgress:
			if m.StartTime == nil {
				m.StartTime = &now
			}
			m.EndTime = nil
		default:
			m.EndTime = nil
		}

		if err := s.matchRepo.UpdateResult(ctx, exec, m); err != nil {
			return fmt.Errorf("failed to update match %d: %w", matchID, err)
		}
		after = *m
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &before, &after, nil
}

func (s *matchService) RecordWinner(ctx context.Context, matchID int, in RecordWinnerInput) (*MatchResult, error) {
	status := models.MatchCompleted
	if in.Status != nil {
		status = *in.Status
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown match status %q", ErrValidationFailed, status)
	}
	if status == models.MatchCompleted && in.WinnerID == nil {
		return nil, fmt.Errorf("%w: a completed match needs a winner", ErrInvalidWinner)
	}
	if status != models.MatchCompleted && in.WinnerID != nil {
		return nil, fmt.Errorf("%w: winner given for a %s match", ErrValidationFailed, status)
	}

	before, after, err := s.write(ctx, matchID, func(ctx context.Context, exec repositories.SQLExecutor, m *models.Match) error {
		if in.Round != nil && *in.Round != m.Round {
			return fmt.Errorf("%w: match %d is in %s, got %s", ErrRoundMismatch, m.ID, m.Round, *in.Round)
		}
		if in.WinnerID != nil && !m.HasPlayer(*in.WinnerID) {
			return fmt.Errorf("%w: player %d is not in match %d", ErrInvalidWinner, *in.WinnerID, m.ID)
		}
		m.WinnerID = in.WinnerID
		m.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "match result recorded",
		slog.Int("tournament_id", after.TournamentID),
		slog.Int("match_id", matchID),
		slog.String("status", string(after.Status)),
		slog.Any("winner_id", after.WinnerID))

	return &MatchResult{Match: after, Propagation: s.propagate(ctx, before, after)}, nil
}

func (s *matchService) RecordScores(ctx context.Context, matchID int, in RecordScoresInput) (*MatchResult, error) {
	if err := brackets.ValidateScores(in.Player1Scores, in.Player2Scores); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScores, err)
	}

	var score *models.MatchScore
	before, after, err := s.write(ctx, matchID, func(ctx context.Context, exec repositories.SQLExecutor, m *models.Match) error {
		score = &models.MatchScore{
			MatchID:       m.ID,
			Player1Scores: in.Player1Scores,
			Player2Scores: in.Player2Scores,
		}
		if err := s.scoreRepo.Upsert(ctx, exec, score); err != nil {
			return fmt.Errorf("failed to store score for match %d: %w", m.ID, err)
		}

		side, ok := brackets.WinnerSide(in.Player1Scores, in.Player2Scores)
		if !ok {
			m.WinnerID = nil
			m.Status = models.MatchInProgress
			return nil
		}
		winner := *m.PlayerIn(side)
		m.WinnerID = &winner
		m.Status = models.MatchCompleted
		return nil
	})
	if err != nil {
		return nil, err
	}
	after.Score = score

	s.logger.InfoContext(ctx, "match score recorded",
		slog.Int("tournament_id", after.TournamentID),
		slog.Int("match_id", matchID),
		slog.Any("player1_scores", in.Player1Scores),
		slog.Any("player2_scores", in.Player2Scores),
		slog.Any("winner_id", after.WinnerID))

	return &MatchResult{Match: after, Propagation: s.propagate(ctx, before, after)}, nil
}

func sameWinner(a, b *models.Match) bool {
	if a.WinnerID == nil || b.WinnerID == nil {
		return a.WinnerID == nil && b.WinnerID == nil
	}
	return *a.WinnerID == *b.WinnerID
}

func decided(m *models.Match) bool {
	return m.Status == models.MatchCompleted && m.WinnerID != nil
}

// propagate runs the bracket work that follows a committed result. Each step reads the
// current rows; nothing from the write transaction is reused.
func (s *matchService) propagate(ctx context.Context, before, after *models.Match) PropagationReport {
	var report PropagationReport
	var errs []error

	wasDecided := decided(before)
	isDecided := decided(after)
	winnerChanged := wasDecided && (!isDecided || !sameWinner(before, after))

	if _, ok := brackets.NextRound(after.Round); ok {
		if winnerChanged {
			cleared, err := s.progression.CascadeReset(ctx, nil, after.TournamentID, after.ID, after.Round)
			report.CascadeCleared = cleared
			if err != nil {
				errs = append(errs, fmt.Errorf("cascade reset: %w", err))
			}
		}
		if isDecided && (winnerChanged || !wasDecided) {
			advanced, err := s.progression.Advance(ctx, nil, AdvanceInput{
				TournamentID: after.TournamentID,
				MatchID:      after.ID,
				Round:        after.Round,
				WinnerID:     *after.WinnerID,
			})
			report.Advanced = advanced
			if err != nil {
				errs = append(errs, fmt.Errorf("advance: %w", err))
			}
		}
	} else if isDecided {
		if err := s.onTerminal(ctx, after, &report); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		report.Err = errors.Join(errs...)
		report.Error = report.Err.Error()
		s.logger.ErrorContext(ctx, "match propagation failed",
			slog.Int("tournament_id", after.TournamentID),
			slog.Int("match_id", after.ID),
			slog.Any("error", report.Err))
	}

	if s.hub != nil {
		s.hub.BroadcastToRoom(brackets.TournamentRoom(after.TournamentID),
			brackets.NewEvent(brackets.EventMatchUpdated, after.TournamentID, MatchResult{Match: after, Propagation: report}))
	}
	return report
}

// onTerminal handles a decided match in a round nothing advances from: the Final, or
// the last match of a round-robin or group table.
func (s *matchService) onTerminal(ctx context.Context, m *models.Match, report *PropagationReport) error {
	if m.Round == brackets.RoundFinal {
		return s.finalize(ctx, m.TournamentID, report)
	}

	matches, err := s.matchRepo.ListByTournament(ctx, nil, m.TournamentID)
	if err != nil {
		return fmt.Errorf("list matches: %w", err)
	}
	hasPlayoffs := false
	for _, other := range matches {
		if brackets.IsEliminationRound(other.Round) {
			hasPlayoffs = true
			continue
		}
		if other.Status != models.MatchCompleted {
			return nil
		}
	}

	if m.Round == brackets.RoundGroupStage {
		if hasPlayoffs {
			return nil
		}
		generated, err := s.playoffs.GeneratePlayoffs(ctx, m.TournamentID)
		report.Playoffs = generated
		if err != nil {
			return fmt.Errorf("generate playoffs: %w", err)
		}
		return nil
	}
	return s.finalize(ctx, m.TournamentID, report)
}

func (s *matchService) finalize(ctx context.Context, tournamentID int, report *PropagationReport) error {
	result, err := s.finalizer.Finalize(ctx, tournamentID)
	if err != nil {
		return fmt.Errorf("finalize: %w", err)
	}
	report.Finalized = result != nil && !result.Skipped
	return nil
}

func (s *matchService) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Match, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	matches, err := s.matchRepo.ListWithDetails(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for tournament %d: %w", tournamentID, err)
	}
	if matches == nil {
		return []*models.Match{}, nil
	}
	return matches, nil
}
