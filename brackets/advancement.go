package brackets

import "github.com/Dosada05/tournament-bracket/models"

// AdvancementTarget maps a match position in its round to the match and slot its
// winner feeds in the next round. Pairs (0,1), (2,3), ... converge on one match,
// even positions filling player1.
func AdvancementTarget(sourceIndex, sourceRoundSize int) (int, models.Slot) {
	if sourceRoundSize == 2 {
		if sourceIndex%2 == 0 {
			return 0, models.SlotPlayer1
		}
		return 0, models.SlotPlayer2
	}
	slot := models.SlotPlayer1
	if sourceIndex%2 != 0 {
		slot = models.SlotPlayer2
	}
	return sourceIndex / 2, slot
}

// IndexOfMatch returns the position of matchID in a round listed in creation order, or -1.
func IndexOfMatch(round []*models.Match, matchID int) int {
	for i, m := range round {
		if m.ID == matchID {
			return i
		}
	}
	return -1
}
