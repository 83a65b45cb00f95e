package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/Dosada05/tournament-bracket/models"
	"github.com/Dosada05/tournament-bracket/storage"
)

const standingsContentType = "text/csv"

type ArchiveService interface {
	// ArchiveStandings exports the final standings and returns the object key, or "" when
	// no object store is configured.
	ArchiveStandings(ctx context.Context, tournamentID int, standings []*models.Standing) (string, error)
}

type archiveService struct {
	store  storage.ObjectStore
	logger *slog.Logger
}

// NewArchiveService returns an archiver that writes through store. A nil store disables it.
func NewArchiveService(store storage.ObjectStore, logger *slog.Logger) ArchiveService {
	return &archiveService{store: store, logger: logger}
}

func StandingsKey(tournamentID int) string {
	return fmt.Sprintf("standings/tournament_%d.csv", tournamentID)
}

// EncodeStandingsCSV renders rank, player, wins, losses and points with a header row.
func EncodeStandingsCSV(standings []*models.Standing) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"rank", "player_id", "player", "wins", "losses", "points", "point_difference"}); err != nil {
		return nil, err
	}
	for _, st := range standings {
		record := []string{
			strconv.Itoa(st.Rank),
			strconv.Itoa(st.PlayerID),
			st.PlayerName,
			strconv.Itoa(st.Wins),
			strconv.Itoa(st.Losses),
			strconv.Itoa(st.Points),
			strconv.Itoa(st.PointDifference),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *archiveService) ArchiveStandings(ctx context.Context, tournamentID int, standings []*models.Standing) (string, error) {
	if s.store == nil {
		return "", nil
	}

	body, err := EncodeStandingsCSV(standings)
	if err != nil {
		return "", fmt.Errorf("failed to encode standings for tournament %d: %w", tournamentID, err)
	}

	key := StandingsKey(tournamentID)
	res, err := s.store.Put(ctx, key, standingsContentType, bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	s.logger.InfoContext(ctx, "standings archived",
		slog.Int("tournament_id", tournamentID),
		slog.String("key", res.Key),
		slog.String("location", res.Location))
	return res.Key, nil
}
