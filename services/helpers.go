package services

import (
	"errors"

	"github.com/Dosada05/tournament-bracket/models"
	"github.com/Dosada05/tournament-bracket/repositories"
)

// isValidStatusTransition допускает ongoing → ongoing: повторный старт только
// перепроверяет сетку.
func isValidStatusTransition(current, next models.TournamentStatus) bool {
	if current == next {
		return current == models.StatusOngoing
	}
	allowedTransitions := map[models.TournamentStatus][]models.TournamentStatus{
		models.StatusUpcoming:  {models.StatusOngoing, models.StatusCancelled},
		models.StatusOngoing:   {models.StatusCompleted, models.StatusCancelled},
		models.StatusCompleted: {},
		models.StatusCancelled: {},
	}
	for _, allowedNextStatus := range allowedTransitions[current] {
		if next == allowedNextStatus {
			return true
		}
	}
	return false
}

// handleRepositoryError переводит not-found ошибки репозиториев в ошибки сервисов.
func handleRepositoryError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return ErrTournamentNotFound
	case errors.Is(err, repositories.ErrMatchNotFound):
		return ErrMatchNotFound
	case errors.Is(err, repositories.ErrPlayerNotFound):
		return ErrPlayerNotFound
	case errors.Is(err, repositories.ErrTournamentInvalidStatus):
		return ErrTournamentInvalidStatus
	}
	return err
}
