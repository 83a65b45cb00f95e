package brackets

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/Dosada05/tournament-bracket/models"
)

var (
	ErrInvalidGroupCount  = errors.New("number of groups must be at least 1")
	ErrGroupsTooSmall     = errors.New("every group needs at least 2 participants")
	ErrNotEnoughPlayoffs  = errors.New("playoffs need at least 2 qualified players")
	ErrInvalidAdvanceSize = errors.New("players advancing per group must be at least 1")
)

type GroupStageGenerator struct{}

func NewGroupStageGenerator() BracketGenerator {
	return &GroupStageGenerator{}
}

func (g *GroupStageGenerator) GetName() string {
	return "GroupStage"
}

// GenerateBracket creates the group round robins only. Playoff rounds are built later
// by GeneratePlayoffBracket once every group match is complete.
func (g *GroupStageGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error) {
	if params.Tournament == nil {
		return nil, errors.New("GroupStageGenerator: tournament is required")
	}
	numGroups, _ := params.Tournament.GroupConfig()

	groups, err := SplitGroups(params.Participants, numGroups)
	if err != nil {
		return nil, fmt.Errorf("GroupStageGenerator: %w", err)
	}

	var matches []*BracketMatch
	for i, group := range groups {
		name := GroupName(i)
		matches = append(matches, roundRobinPairs(group, RoundGroupStage, &name)...)
	}
	return matches, nil
}

// GroupName maps a zero-based index to "Group A" through "Group Z", then "Group AA",
// "Group AB" and so on.
func GroupName(index int) string {
	label := ""
	for n := index + 1; n > 0; n = (n - 1) / 26 {
		label = string(rune('A'+(n-1)%26)) + label
	}
	return "Group " + label
}

// SplitGroups cuts the rating-ordered participants into contiguous bands of nearly
// equal size; when the split is uneven the leading groups are one larger.
func SplitGroups(participants []*models.Participant, numGroups int) ([][]*models.Participant, error) {
	if numGroups < 1 {
		return nil, ErrInvalidGroupCount
	}
	n := len(participants)
	if n < 2*numGroups {
		return nil, fmt.Errorf("%w: %d participants for %d groups", ErrGroupsTooSmall, n, numGroups)
	}

	base, extra := n/numGroups, n%numGroups
	groups := make([][]*models.Participant, 0, numGroups)
	start := 0
	for i := 0; i < numGroups; i++ {
		size := base
		if i < extra {
			size++
		}
		groups = append(groups, participants[start:start+size])
		start += size
	}
	return groups, nil
}

type GroupEntry struct {
	PlayerID        int
	Rating          int
	Wins            int
	Losses          int
	Points          int
	PointDifference int
}

// GroupTable ranks the players of each group by points, point difference, wins and
// finally seeding rating. ratings maps player id to seeding rating.
func GroupTable(groupMatches []*models.Match, scores map[int]*models.MatchScore, ratings map[int]int) map[string][]GroupEntry {
	entries := make(map[string]map[int]*GroupEntry)

	entry := func(group string, playerID int) *GroupEntry {
		byPlayer, ok := entries[group]
		if !ok {
			byPlayer = make(map[int]*GroupEntry)
			entries[group] = byPlayer
		}
		e, ok := byPlayer[playerID]
		if !ok {
			e = &GroupEntry{PlayerID: playerID, Rating: ratings[playerID]}
			byPlayer[playerID] = e
		}
		return e
	}

	for _, m := range groupMatches {
		if m.GroupName == nil {
			continue
		}
		group := *m.GroupName
		var e1, e2 *GroupEntry
		if m.Player1ID != nil {
			e1 = entry(group, *m.Player1ID)
		}
		if m.Player2ID != nil {
			e2 = entry(group, *m.Player2ID)
		}
		if m.Status != models.MatchCompleted || m.WinnerID == nil || e1 == nil || e2 == nil {
			continue
		}

		if *m.WinnerID == e1.PlayerID {
			e1.Wins++
			e2.Losses++
		} else {
			e2.Wins++
			e1.Losses++
		}
		if s, ok := scores[m.ID]; ok && s != nil {
			diff := PointDifference(s.Player1Scores, s.Player2Scores)
			e1.PointDifference += diff
			e2.PointDifference -= diff
		}
	}

	tables := make(map[string][]GroupEntry, len(entries))
	for group, byPlayer := range entries {
		table := make([]GroupEntry, 0, len(byPlayer))
		for _, e := range byPlayer {
			e.Points = e.Wins * PointsPerWin
			table = append(table, *e)
		}
		sort.Slice(table, func(i, j int) bool {
			a, b := table[i], table[j]
			if a.Points != b.Points {
				return a.Points > b.Points
			}
			if a.PointDifference != b.PointDifference {
				return a.PointDifference > b.PointDifference
			}
			if a.Wins != b.Wins {
				return a.Wins > b.Wins
			}
			if a.Rating != b.Rating {
				return a.Rating > b.Rating
			}
			return a.PlayerID < b.PlayerID
		})
		tables[group] = table
	}
	return tables
}

// PlayoffSeeds returns player ids in playoff seeding order: every group winner in group
// order, then every runner-up, and so on down to the advance-th place.
func PlayoffSeeds(tables map[string][]GroupEntry, advance int) ([]int, error) {
	if advance < 1 {
		return nil, ErrInvalidAdvanceSize
	}
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)

	var seeds []int
	for place := 0; place < advance; place++ {
		for _, name := range names {
			if table := tables[name]; place < len(table) {
				seeds = append(seeds, table[place].PlayerID)
			}
		}
	}
	if len(seeds) < 2 {
		return nil, ErrNotEnoughPlayoffs
	}
	if len(seeds) > MaxBracketSize {
		return nil, ErrTooManyParticipants
	}
	return seeds, nil
}

// GeneratePlayoffBracket builds the elimination rounds of a group-stage tournament from
// already ordered seeds, with the same bye rules as single elimination.
func GeneratePlayoffBracket(ctx context.Context, tournament *models.Tournament, seeds []*models.Participant, shuffle ShuffleFunc) ([]*BracketMatch, error) {
	gen := NewSingleEliminationGenerator(shuffle)
	matches, err := gen.GenerateBracket(ctx, GenerateBracketParams{Tournament: tournament, Participants: seeds})
	if err != nil {
		return nil, fmt.Errorf("playoff bracket: %w", err)
	}
	return matches, nil
}
