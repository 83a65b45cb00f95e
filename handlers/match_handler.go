package handlers

import (
	"net/http"

	"github.com/Dosada05/tournament-bracket/services"
)

type MatchHandler struct {
	matchService  services.MatchService
	ratingService services.RatingService
}

func NewMatchHandler(ms services.MatchService, rs services.RatingService) *MatchHandler {
	return &MatchHandler{matchService: ms, ratingService: rs}
}

// ListByTournamentHandler обрабатывает GET /tournaments/{tournamentID}/matches
func (h *MatchHandler) ListByTournamentHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.matchService.ListByTournament(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RecordResultHandler обрабатывает PUT /matches/{matchID}/result
func (h *MatchHandler) RecordResultHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.RecordWinnerInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.matchService.RecordWinner(r.Context(), matchID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	logActor(r, "match result recorded", result.Match.TournamentID)
	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RecordScoresHandler обрабатывает PUT /matches/{matchID}/scores
func (h *MatchHandler) RecordScoresHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.RecordScoresInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	errs := map[string]string{}
	if len(input.Player1Scores) == 0 {
		errs["player1_scores"] = "must contain at least one set"
	}
	if len(input.Player2Scores) == 0 {
		errs["player2_scores"] = "must contain at least one set"
	}
	if len(errs) > 0 {
		failedValidationResponse(w, r, errs)
		return
	}

	result, err := h.matchService.RecordScores(r.Context(), matchID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	logActor(r, "match scores recorded", result.Match.TournamentID)
	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ProcessRatingHandler обрабатывает POST /matches/{matchID}/rating
func (h *MatchHandler) ProcessRatingHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	update, err := h.ratingService.ProcessMatch(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"rating_update": update}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
