package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	ErrNotFound         = errors.New("requested resource not found")
	ErrValidationFailed = errors.New("validation failed")

	ErrTournamentNotFound = errors.New("tournament not found")
	ErrMatchNotFound      = errors.New("match not found")
	ErrPlayerNotFound     = errors.New("player not found")

	// Result Recorder
	ErrInvalidWinner    = errors.New("winner must be one of the match players")
	ErrMatchNotReady    = errors.New("match does not have two players yet")
	ErrTournamentClosed = errors.New("tournament is completed or cancelled")
	ErrInvalidScores    = errors.New("invalid set scores")
	ErrRoundMismatch    = errors.New("round does not match the stored match round")

	// Tournament lifecycle
	ErrTournamentInvalidStatus           = errors.New("invalid tournament status provided")
	ErrTournamentInvalidStatusTransition = errors.New("invalid tournament status transition")

	// Bracket propagation
	ErrNoSuccessorRound    = errors.New("round has no successor round")
	ErrInvalidBracketState = errors.New("invalid bracket state")
	ErrSlotOccupied        = errors.New("target slot already holds a different player")

	// Bracket generation
	ErrUnsupportedFormat = errors.New("unsupported tournament format")
	ErrNotGroupStage     = errors.New("tournament is not a group-stage tournament")
	ErrPlayoffsNotReady  = errors.New("group stage is not finished")
	ErrBracketGeneration = errors.New("bracket generation failed")
)
