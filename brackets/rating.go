package brackets

import (
	"math"
	"sort"
	"time"

	"github.com/Dosada05/tournament-bracket/models"
)

const (
	KFactor       = 32
	RatingFloor   = 800
	DefaultRating = 1200
)

// ExpectedScore is the Elo win expectation of a player rated ra against rb.
func ExpectedScore(ra, rb int) float64 {
	return 1 / (1 + math.Pow(10, float64(rb-ra)/400))
}

func ratingDelta(rating, opponent int, actual float64) int {
	return int(math.Round(KFactor * (actual - ExpectedScore(rating, opponent))))
}

// Apply returns both players' ratings after the winner beat the loser, floored at RatingFloor.
func Apply(winnerRating, loserRating int) (int, int) {
	newWinner := winnerRating + ratingDelta(winnerRating, loserRating, 1)
	newLoser := loserRating + ratingDelta(loserRating, winnerRating, 0)
	return max(RatingFloor, newWinner), max(RatingFloor, newLoser)
}

// MatchTime is the moment a match counts as played: end time, start time, else fallback.
func MatchTime(m *models.Match, fallback time.Time) time.Time {
	if m.EndTime != nil {
		return *m.EndTime
	}
	if m.StartTime != nil {
		return *m.StartTime
	}
	return fallback
}

// OrderChronologically returns a sorted copy; equal times keep id order.
func OrderChronologically(matches []*models.Match, fallback time.Time) []*models.Match {
	out := make([]*models.Match, len(matches))
	copy(out, matches)
	sort.SliceStable(out, func(i, j int) bool {
		ti, tj := MatchTime(out[i], fallback), MatchTime(out[j], fallback)
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// RatingUpdate is the outcome of replaying one match.
type RatingUpdate struct {
	MatchID      int       `json:"match_id"`
	PlayedAt     time.Time `json:"played_at"`
	WinnerID     int       `json:"winner_id"`
	LoserID      int       `json:"loser_id"`
	WinnerBefore int       `json:"winner_rating_before"`
	LoserBefore  int       `json:"loser_rating_before"`
	WinnerAfter  int       `json:"winner_rating"`
	LoserAfter   int       `json:"loser_rating"`
}

// Replay applies every decided two-player match in chronological order, starting from
// the given ratings. It returns the per-match updates and the final ratings.
func Replay(matches []*models.Match, start map[int]int, fallback time.Time) ([]RatingUpdate, map[int]int) {
	ratings := make(map[int]int, len(start))
	for id, r := range start {
		ratings[id] = r
	}

	var updates []RatingUpdate
	for _, m := range OrderChronologically(matches, fallback) {
		if m.Status != models.MatchCompleted || m.WinnerID == nil {
			continue
		}
		loser := m.LoserID()
		if loser == nil {
			continue
		}
		w, l := *m.WinnerID, *loser
		wr, ok := ratings[w]
		if !ok {
			wr = DefaultRating
		}
		lr, ok := ratings[l]
		if !ok {
			lr = DefaultRating
		}
		nw, nl := Apply(wr, lr)
		ratings[w], ratings[l] = nw, nl
		updates = append(updates, RatingUpdate{
			MatchID:      m.ID,
			PlayedAt:     MatchTime(m, fallback),
			WinnerID:     w,
			LoserID:      l,
			WinnerBefore: wr,
			LoserBefore:  lr,
			WinnerAfter:  nw,
			LoserAfter:   nl,
		})
	}
	return updates, ratings
}
