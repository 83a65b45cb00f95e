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

type StandingsService interface {
	// Recalculate replaces the tournament's standings with a fresh computation.
	Recalculate(ctx context.Context, exec repositories.SQLExecutor, tournament *models.Tournament) ([]*models.Standing, error)
	List(ctx context.Context, tournamentID int) ([]*models.Standing, error)
}

type standingsService struct {
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	matchRepo       repositories.MatchRepository
	scoreRepo       repositories.MatchScoreRepository
	standingRepo    repositories.StandingRepository
	logger          *slog.Logger
}

func NewStandingsService(
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	matchRepo repositories.MatchRepository,
	scoreRepo repositories.MatchScoreRepository,
	standingRepo repositories.StandingRepository,
	logger *slog.Logger,
) StandingsService {
	return &standingsService{
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		matchRepo:       matchRepo,
		scoreRepo:       scoreRepo,
		standingRepo:    standingRepo,
		logger:          logger,
	}
}

func (s *standingsService) Recalculate(ctx context.Context, exec repositories.SQLExecutor, tournament *models.Tournament) ([]*models.Standing, error) {
	participants, err := s.participantRepo.ListByTournament(ctx, exec, tournament.ID)
	if err != nil {
		return nil, err
	}
	matches, err := s.matchRepo.ListByTournament(ctx, exec, tournament.ID)
	if err != nil {
		return nil, err
	}
	scores, err := s.scoreRepo.ListByTournament(ctx, exec, tournament.ID)
	if err != nil {
		return nil, err
	}

	playerIDs := make([]int, len(participants))
	names := make(map[int]string, len(participants))
	for i, p := range participants {
		playerIDs[i] = p.PlayerID
		names[p.PlayerID] = p.PlayerName
	}

	rows := brackets.Standings(tournament.Format, playerIDs, matches, scores)
	for _, row := range rows {
		row.TournamentID = tournament.ID
		row.PlayerName = names[row.PlayerID]
	}

	if err := s.standingRepo.DeleteByTournament(ctx, exec, tournament.ID); err != nil {
		return nil, err
	}
	if err := s.standingRepo.BatchCreate(ctx, exec, rows); err != nil {
		return nil, fmt.Errorf("failed to store standings for tournament %d: %w", tournament.ID, err)
	}

	s.logger.InfoContext(ctx, "standings recalculated",
		slog.Int("tournament_id", tournament.ID),
		slog.String("format", string(tournament.Format)),
		slog.Int("rows", len(rows)))
	return rows, nil
}

func (s *standingsService) List(ctx context.Context, tournamentID int) ([]*models.Standing, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return s.standingRepo.ListByTournament(ctx, nil, tournamentID)
}
