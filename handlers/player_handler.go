package handlers

import (
	"net/http"

	"github.com/Dosada05/tournament-bracket/services"
)

type PlayerHandler struct {
	ratingService services.RatingService
}

func NewPlayerHandler(rs services.RatingService) *PlayerHandler {
	return &PlayerHandler{ratingService: rs}
}

// RatingHistoryHandler обрабатывает GET /players/{playerID}/rating-history
func (h *PlayerHandler) RatingHistoryHandler(w http.ResponseWriter, r *http.Request) {
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	history, err := h.ratingService.History(r.Context(), playerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"player_id": playerID, "history": history}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
