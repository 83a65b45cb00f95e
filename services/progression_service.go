package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/tournament-bracket/brackets"
	"github.com/Dosada05/tournament-bracket/models"
	"github.com/Dosada05/tournament-bracket/repositories"
)

type AdvanceInput struct {
	TournamentID int
	MatchID      int
	Round        string
	WinnerID     int
	// Force overwrites a slot held by a different player and keeps the target's status
	// unless it was completed.
	Force bool
}

type AdvanceResult struct {
	TargetMatchID int         `json:"target_match_id"`
	Slot          models.Slot `json:"slot"`
	Changed       bool        `json:"changed"`
}

// ProgressionService moves winners forward and unwinds results that were superseded.
// Every step re-reads the rounds it touches; nothing is cached between steps.
type ProgressionService interface {
	Advance(ctx context.Context, exec repositories.SQLExecutor, in AdvanceInput) (*AdvanceResult, error)
	// CascadeReset clears everything downstream of matchID that depended on its old
	// result, following one slot per round up to the Final. It returns the cleared
	// match ids in order.
	CascadeReset(ctx context.Context, exec repositories.SQLExecutor, tournamentID, matchID int, round string) ([]int, error)
}

type progressionService struct {
	matchRepo repositories.MatchRepository
	scoreRepo repositories.MatchScoreRepository
	logger    *slog.Logger
}

func NewProgressionService(
	matchRepo repositories.MatchRepository,
	scoreRepo repositories.MatchScoreRepository,
	logger *slog.Logger,
) ProgressionService {
	return &progressionService{
		matchRepo: matchRepo,
		scoreRepo: scoreRepo,
		logger:    logger,
	}
}

// locate finds the match the source match feeds in the next round.
func (s *progressionService) locate(ctx context.Context, exec repositories.SQLExecutor, tournamentID, matchID int, round string) (*models.Match, models.Slot, string, error) {
	next, ok := brackets.NextRound(round)
	if !ok {
		return nil, 0, "", fmt.Errorf("%w: %s", ErrNoSuccessorRound, round)
	}

	source, err := s.matchRepo.ListByRound(ctx, exec, tournamentID, round)
	if err != nil {
		return nil, 0, "", err
	}
	idx := brackets.IndexOfMatch(source, matchID)
	if idx < 0 {
		return nil, 0, "", fmt.Errorf("%w: match %d not found in round %s", ErrInvalidBracketState, matchID, round)
	}

	targetIdx, slot := brackets.AdvancementTarget(idx, len(source))
	targets, err := s.matchRepo.ListByRound(ctx, exec, tournamentID, next)
	if err != nil {
		return nil, 0, "", err
	}
	if targetIdx >= len(targets) {
		return nil, 0, "", fmt.Errorf("%w: round %s has %d matches, need index %d",
			ErrInvalidBracketState, next, len(targets), targetIdx)
	}
	return targets[targetIdx], slot, next, nil
}

func (s *progressionService) Advance(ctx context.Context, exec repositories.SQLExecutor, in AdvanceInput) (*AdvanceResult, error) {
	target, slot, _, err := s.locate(ctx, exec, in.TournamentID, in.MatchID, in.Round)
	if err != nil {
		return nil, err
	}

	result := &AdvanceResult{TargetMatchID: target.ID, Slot: slot}
	if current := target.PlayerIn(slot); current != nil {
		if *current == in.WinnerID {
			return result, nil
		}
		if !in.Force {
			return nil, fmt.Errorf("%w: match %d %s holds player %d",
				ErrSlotOccupied, target.ID, slot.Column(), *current)
		}
	}

	if err := s.matchRepo.AssignSlot(ctx, exec, target.ID, slot, in.WinnerID, !in.Force); err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, fmt.Errorf("%w: target match %d vanished", ErrInvalidBracketState, target.ID)
		}
		return nil, fmt.Errorf("failed to assign player %d to match %d: %w", in.WinnerID, target.ID, err)
	}
	result.Changed = true

	s.logger.DebugContext(ctx, "winner advanced",
		slog.Int("tournament_id", in.TournamentID),
		slog.Int("source_match_id", in.MatchID),
		slog.Int("target_match_id", target.ID),
		slog.String("slot", slot.Column()),
		slog.Int("player_id", in.WinnerID))
	return result, nil
}

func (s *progressionService) CascadeReset(ctx context.Context, exec repositories.SQLExecutor, tournamentID, matchID int, round string) ([]int, error) {
	cleared := make([]int, 0, 4)
	sourceID, sourceRound := matchID, round

	for {
		if _, ok := brackets.NextRound(sourceRound); !ok {
			break
		}
		target, slot, next, err := s.locate(ctx, exec, tournamentID, sourceID, sourceRound)
		if err != nil {
			return cleared, err
		}

		if err := s.scoreRepo.DeleteByMatchID(ctx, exec, target.ID); err != nil {
			return cleared, err
		}
		if err := s.matchRepo.ResetSlot(ctx, exec, target.ID, slot); err != nil {
			return cleared, fmt.Errorf("failed to reset %s of match %d: %w", slot.Column(), target.ID, err)
		}
		cleared = append(cleared, target.ID)

		sourceID, sourceRound = target.ID, next
	}

	if len(cleared) > 0 {
		s.logger.InfoContext(ctx, "cascade reset applied",
			slog.Int("tournament_id", tournamentID),
			slog.Int("match_id", matchID),
			slog.Any("cleared_match_ids", cleared))
	}
	return cleared, nil
}
