package services

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/Dosada05/tournament-bracket/models"
	"github.com/Dosada05/tournament-bracket/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memObjectStore struct {
	objects map[string]string
	types   map[string]string
	err     error
}

func (m *memObjectStore) Put(ctx context.Context, key string, contentType string, body io.Reader) (*storage.PutResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	if m.objects == nil {
		m.objects = make(map[string]string)
		m.types = make(map[string]string)
	}
	m.objects[key] = string(data)
	m.types[key] = contentType
	return &storage.PutResult{Key: key, Location: m.PublicURL(key)}, nil
}

func (m *memObjectStore) Delete(ctx context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func (m *memObjectStore) PublicURL(key string) string {
	return storage.JoinPublicURL("https://cdn.example.com", key)
}

func sampleStandings() []*models.Standing {
	return []*models.Standing{
		{PlayerID: 1, PlayerName: "Ann", Rank: 1, Wins: 2, Points: 6, PointDifference: 30},
		{PlayerID: 2, PlayerName: "Bo, Jr.", Rank: 2, Wins: 1, Losses: 1, Points: 3, PointDifference: -4},
	}
}

func TestEncodeStandingsCSV(t *testing.T) {
	body, err := EncodeStandingsCSV(sampleStandings())
	require.NoError(t, err)
	assert.Equal(t,
		"rank,player_id,player,wins,losses,points,point_difference\n"+
			"1,1,Ann,2,0,6,30\n"+
			"2,2,\"Bo, Jr.\",1,1,3,-4\n",
		string(body))
}

func TestArchiveStandings(t *testing.T) {
	ctx := context.Background()

	store := &memObjectStore{}
	key, err := NewArchiveService(store, discardLogger()).ArchiveStandings(ctx, 7, sampleStandings())
	require.NoError(t, err)
	assert.Equal(t, "standings/tournament_7.csv", key)
	assert.Contains(t, store.objects[key], "Ann")
	assert.Equal(t, "text/csv", store.types[key])

	key, err = NewArchiveService(nil, discardLogger()).ArchiveStandings(ctx, 7, sampleStandings())
	require.NoError(t, err)
	assert.Empty(t, key)

	failing := &memObjectStore{err: errors.New("bucket unavailable")}
	_, err = NewArchiveService(failing, discardLogger()).ArchiveStandings(ctx, 7, sampleStandings())
	assert.Error(t, err)
}
