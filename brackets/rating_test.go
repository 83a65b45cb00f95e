package brackets

import (
	"testing"
	"time"

	"github.com/Dosada05/tournament-bracket/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpectedScore(t *testing.T) {
	assert.InDelta(t, 0.5, ExpectedScore(1500, 1500), 1e-9)
	assert.InDelta(t, 0.9090909, ExpectedScore(1800, 1400), 1e-6)
	assert.InDelta(t, 1.0, ExpectedScore(1800, 1400)+ExpectedScore(1400, 1800), 1e-9)
}

func TestApply(t *testing.T) {
	t.Run("equal ratings are symmetric", func(t *testing.T) {
		w, l := Apply(1500, 1500)
		assert.Equal(t, 1516, w)
		assert.Equal(t, 1484, l)
	})

	t.Run("deltas mirror each other", func(t *testing.T) {
		for _, pair := range [][2]int{{1600, 1400}, {1400, 1600}, {2100, 1250}, {1337, 1338}} {
			w, l := Apply(pair[0], pair[1])
			assert.Equal(t, w-pair[0], -(l - pair[1]), "pair %v", pair)
		}
	})

	t.Run("floor", func(t *testing.T) {
		_, l := Apply(1000, 805)
		assert.Equal(t, RatingFloor, l)

		_, l = Apply(800, 800)
		assert.Equal(t, RatingFloor, l)

		_, l = Apply(2400, 2400)
		assert.Equal(t, 2384, l)
	})
}

func TestOrderChronologically(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	started := base.Add(30 * time.Minute)

	m1 := at(completed(1, RoundRobin, 1, 2, 1), base.Add(2*time.Hour))
	m2 := completed(2, RoundRobin, 1, 3, 3)
	m2.StartTime = &started
	m3 := completed(3, RoundRobin, 2, 3, 2)
	m4 := at(completed(4, RoundRobin, 2, 4, 2), base.Add(time.Hour))

	ordered := OrderChronologically([]*models.Match{m1, m2, m3, m4}, base)
	ids := make([]int, len(ordered))
	for i, m := range ordered {
		ids[i] = m.ID
	}
	assert.Equal(t, []int{3, 2, 4, 1}, ids)
}

func TestReplay(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	matches := []*models.Match{
		at(completed(2, RoundFinal, 1, 2, 1), base.Add(time.Hour)),
		at(completed(1, RoundSemifinals, 1, 3, 1), base),
		completed(3, RoundSemifinals, 2, 0, 2),
	}
	updates, final := Replay(matches, map[int]int{1: 1500, 2: 1500, 3: 1500}, base)
	require.Len(t, updates, 2)

	assert.Equal(t, 1, updates[0].MatchID)
	assert.Equal(t, 1516, updates[0].WinnerAfter)
	assert.Equal(t, 1484, updates[0].LoserAfter)

	assert.Equal(t, 2, updates[1].MatchID)
	assert.Equal(t, 1516, updates[1].WinnerBefore)
	assert.Equal(t, 1500, updates[1].LoserBefore)
	w, l := Apply(1516, 1500)
	assert.Equal(t, w, final[1])
	assert.Equal(t, l, final[2])
	assert.Equal(t, 1484, final[3])
}
