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
	"golang.org/x/sync/errgroup"
)

type FinalizeResult struct {
	TournamentID  int                `json:"tournament_id"`
	Skipped       bool               `json:"skipped"`
	Standings     []*models.Standing `json:"standings,omitempty"`
	RatingUpdates int                `json:"rating_updates"`
	ArchiveKey    string             `json:"archive_key,omitempty"`
}

type StatusChangeResult struct {
	Tournament   *models.Tournament `json:"tournament"`
	Generation   *GenerationResult  `json:"generation,omitempty"`
	Finalization *FinalizeResult    `json:"finalization,omitempty"`
}

type BracketView struct {
	Tournament *models.Tournament `json:"tournament"`
	Matches    []*models.Match    `json:"matches"`
	Standings  []*models.Standing `json:"standings"`
}

type TournamentService interface {
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	// UpdateStatus moves the tournament along upcoming → ongoing → completed (or cancelled).
	// Starting generates the bracket; completing finalizes standings and ratings.
	UpdateStatus(ctx context.Context, id int, status models.TournamentStatus) (*StatusChangeResult, error)
	// Complete finalizes an ongoing tournament. On a completed one it replays standings
	// and ratings from the stored matches.
	Complete(ctx context.Context, id int) (*FinalizeResult, error)
	Finalize(ctx context.Context, id int) (*FinalizeResult, error)
	// AutoStartDue starts every upcoming tournament whose start date has passed.
	AutoStartDue(ctx context.Context) (int, error)
	BracketView(ctx context.Context, id int) (*BracketView, error)
}

type tournamentService struct {
	locker         repositories.TournamentLocker
	tournamentRepo repositories.TournamentRepository
	matchRepo      repositories.MatchRepository
	standingRepo   repositories.StandingRepository
	bracketService BracketService
	standings      StandingsService
	ratings        RatingService
	archive        ArchiveService
	hub            brackets.Broadcaster
	logger         *slog.Logger
	now            func() time.Time
}

func NewTournamentService(
	locker repositories.TournamentLocker,
	tournamentRepo repositories.TournamentRepository,
	matchRepo repositories.MatchRepository,
	standingRepo repositories.StandingRepository,
	bracketService BracketService,
	standings StandingsService,
	ratings RatingService,
	archive ArchiveService,
	hub brackets.Broadcaster,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		locker:         locker,
		tournamentRepo: tournamentRepo,
		matchRepo:      matchRepo,
		standingRepo:   standingRepo,
		bracketService: bracketService,
		standings:      standings,
		ratings:        ratings,
		archive:        archive,
		hub:            hub,
		logger:         logger,
		now:            time.Now,
	}
}

func (s *tournamentService) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	t, err := s.tournamentRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	return t, nil
}

func (s *tournamentService) UpdateStatus(ctx context.Context, id int, status models.TournamentStatus) (*StatusChangeResult, error) {
	switch status {
	case models.StatusUpcoming, models.StatusOngoing, models.StatusCompleted, models.StatusCancelled:
	default:
		return nil, fmt.Errorf("%w: %q", ErrTournamentInvalidStatus, status)
	}

	t, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isValidStatusTransition(t.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrTournamentInvalidStatusTransition, t.Status, status)
	}

	result := &StatusChangeResult{}
	switch status {
	case models.StatusOngoing:
		generation, err := s.bracketService.GenerateBracket(ctx, id)
		if err != nil {
			return nil, err
		}
		result.Generation = generation
		if t.Status != models.StatusOngoing {
			if err := s.tournamentRepo.UpdateStatus(ctx, nil, id, status); err != nil {
				return nil, handleRepositoryError(err)
			}
		}
	case models.StatusCompleted:
		finalization, err := s.Finalize(ctx, id)
		if err != nil {
			return nil, err
		}
		result.Finalization = finalization
	default:
		if err := s.tournamentRepo.UpdateStatus(ctx, nil, id, status); err != nil {
			return nil, handleRepositoryError(err)
		}
	}

	s.logger.InfoContext(ctx, "tournament status updated",
		slog.Int("tournament_id", id),
		slog.String("from", string(t.Status)),
		slog.String("to", string(status)))

	result.Tournament, err = s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *tournamentService) Complete(ctx context.Context, id int) (*FinalizeResult, error) {
	t, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Status != models.StatusOngoing && t.Status != models.StatusCompleted {
		return nil, fmt.Errorf("%w: cannot complete a %s tournament", ErrTournamentInvalidStatusTransition, t.Status)
	}
	return s.Finalize(ctx, id)
}

func (s *tournamentService) Finalize(ctx context.Context, id int) (*FinalizeResult, error) {
	result := &FinalizeResult{TournamentID: id}

	acquired, err := s.locker.WithTournamentLock(ctx, id, func(ctx context.Context, exec repositories.SQLExecutor) error {
		t, err := s.tournamentRepo.GetByID(ctx, exec, id)
		if err != nil {
			return handleRepositoryError(err)
		}
		switch t.Status {
		case models.StatusCancelled:
			return ErrTournamentClosed
		case models.StatusUpcoming:
			return fmt.Errorf("%w: tournament %d has not started", ErrTournamentInvalidStatusTransition, id)
		}

		result.Standings, err = s.standings.Recalculate(ctx, exec, t)
		if err != nil {
			return fmt.Errorf("standings: %w", err)
		}
		updates, err := s.ratings.RecalculateTournament(ctx, exec, t)
		if err != nil {
			return fmt.Errorf("ratings: %w", err)
		}
		result.RatingUpdates = len(updates)

		if t.Status != models.StatusCompleted {
			if err := s.tournamentRepo.UpdateStatus(ctx, exec, id, models.StatusCompleted); err != nil {
				return handleRepositoryError(err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to finalize tournament %d: %w", id, err)
	}
	if !acquired {
		result.Skipped = true
		s.logger.InfoContext(ctx, "tournament finalization skipped, lock held", slog.Int("tournament_id", id))
		return result, nil
	}

	if s.archive != nil {
		key, err := s.archive.ArchiveStandings(ctx, id, result.Standings)
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to archive standings",
				slog.Int("tournament_id", id), slog.Any("error", err))
		}
		result.ArchiveKey = key
	}

	s.logger.InfoContext(ctx, "tournament finalized",
		slog.Int("tournament_id", id),
		slog.Int("standings", len(result.Standings)),
		slog.Int("rating_updates", result.RatingUpdates))

	if s.hub != nil {
		s.hub.BroadcastToRoom(brackets.TournamentRoom(id), brackets.NewEvent(brackets.EventTournamentCompleted, id, result))
	}
	return result, nil
}

func (s *tournamentService) AutoStartDue(ctx context.Context) (int, error) {
	due, err := s.tournamentRepo.ListStartable(ctx, s.now())
	if err != nil {
		return 0, err
	}

	started := 0
	var errs []error
	for _, t := range due {
		if _, err := s.UpdateStatus(ctx, t.ID, models.StatusOngoing); err != nil {
			s.logger.ErrorContext(ctx, "failed to auto-start tournament",
				slog.Int("tournament_id", t.ID), slog.Any("error", err))
			errs = append(errs, fmt.Errorf("tournament %d: %w", t.ID, err))
			continue
		}
		started++
	}

	if started > 0 {
		s.logger.InfoContext(ctx, "tournaments auto-started", slog.Int("count", started))
	}
	return started, errors.Join(errs...)
}

func (s *tournamentService) BracketView(ctx context.Context, id int) (*BracketView, error) {
	view := &BracketView{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		t, err := s.tournamentRepo.GetByID(gctx, nil, id)
		if err != nil {
			return handleRepositoryError(err)
		}
		view.Tournament = t
		return nil
	})
	g.Go(func() error {
		matches, err := s.matchRepo.ListWithDetails(gctx, id)
		if err != nil {
			return fmt.Errorf("failed to list matches: %w", err)
		}
		view.Matches = matches
		return nil
	})
	g.Go(func() error {
		standings, err := s.standingRepo.ListByTournament(gctx, nil, id)
		if err != nil {
			return fmt.Errorf("failed to list standings: %w", err)
		}
		view.Standings = standings
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if view.Matches == nil {
		view.Matches = []*models.Match{}
	}
	if view.Standings == nil {
		view.Standings = []*models.Standing{}
	}
	return view, nil
}
