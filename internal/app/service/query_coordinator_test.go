package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ikkim/venue-backend/internal/app/model"
	"github.com/ikkim/venue-backend/internal/app/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	data []byte
	err  error
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) Fetch(ctx context.Context) (*model.VenueDataset, error) {
	if s.err != nil {
		return nil, s.err
	}
	return repository.DecodeDataset(s.data)
}

func scenarioVenues() []model.Venue {
	return []model.Venue{
		{ID: 1, Name: "NOCプラザ", Prefecture: "新潟県", Rooms: []model.Room{{Name: "main", CapacityTheater: intPtr(200)}}},
		{ID: 2, Name: "Hotel X", Prefecture: "東京都", Rooms: []model.Room{{Name: "main", CapacityTheater: intPtr(50)}}},
	}
}

func TestQueryCoordinator_FilterByCapacity(t *testing.T) {
	c := loadedCoordinator(t, scenarioVenues(), QueryOptions{})

	got, err := c.Filter(FacetState{CapacityRanges: []string{"101-200"}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "NOCプラザ", got[0].Name)
}

func TestQueryCoordinator_FacetsWinOverText(t *testing.T) {
	c := loadedCoordinator(t, scenarioVenues(), QueryOptions{})

	got, err := c.Query("NOC", FacetState{Prefectures: []string{"東京都"}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Hotel X", got[0].Name)
}

func TestQueryCoordinator_CombineModes(t *testing.T) {
	c := loadedCoordinator(t, scenarioVenues(), QueryOptions{CombineModes: true})

	got, err := c.Query("NOC", FacetState{Prefectures: []string{"東京都"}})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = c.Query("hotel", FacetState{Prefectures: []string{"東京都"}})
	require.NoError(t, err)
	assert.Equal(t, []uint{2}, venueIDs(got))
}

func TestQueryCoordinator_Query(t *testing.T) {
	c := loadedCoordinator(t, testVenues(), QueryOptions{})

	tests := []struct {
		name   string
		text   string
		facets FacetState
		want   []uint
	}{
		{"no query returns dataset order", "", FacetState{}, []uint{1, 2, 3, 4}},
		{"whitespace only is no query", "   ", FacetState{}, []uint{1, 2, 3, 4}},
		{"text is trimmed", "  noc  ", FacetState{}, []uint{4}},
		{"text search", "大阪", FacetState{}, []uint{2}},
		{"facet only", "", FacetState{Features: []string{"parking"}}, []uint{1, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Query(tt.text, tt.facets)
			require.NoError(t, err)
			assert.Equal(t, tt.want, venueIDs(got))
		})
	}
}

func TestQueryCoordinator_BeforeLoad(t *testing.T) {
	repo := repository.NewVenueRepository(&stubSource{data: testDatasetJSON(t, testVenues())})
	c := NewQueryCoordinator(repo, NewFilterEngine(), QueryOptions{})

	assert.Equal(t, LoadStateIdle, c.State())

	_, err := c.Query("", FacetState{})
	assert.ErrorIs(t, err, ErrDatasetNotLoaded)

	_, err = c.FacetCounts()
	assert.ErrorIs(t, err, ErrDatasetNotLoaded)

	_, err = c.GetVenue(1)
	assert.ErrorIs(t, err, ErrDatasetNotLoaded)
}

func TestQueryCoordinator_LoadingState(t *testing.T) {
	source := newGatedSource(testDatasetJSON(t, testVenues()))
	c := NewQueryCoordinator(repository.NewVenueRepository(source), NewFilterEngine(), QueryOptions{})

	done := make(chan error, 1)
	go func() { done <- c.Load(context.Background()) }()
	<-source.calls

	assert.Equal(t, LoadStateLoading, c.State())
	_, err := c.Search("東京")
	assert.ErrorIs(t, err, ErrDatasetLoading)

	source.release()
	require.NoError(t, <-done)

	snap := c.Snapshot()
	assert.Equal(t, LoadStateLoaded, snap.State)
	assert.Equal(t, 4, snap.Index.Len())
	assert.Equal(t, 4, snap.Metadata.TotalCount)
	assert.Equal(t, "test", snap.Metadata.Version)
}

func TestQueryCoordinator_LatestLoadWins(t *testing.T) {
	source := newGatedSource(testDatasetJSON(t, testVenues()))
	c := NewQueryCoordinator(repository.NewVenueRepository(source), NewFilterEngine(), QueryOptions{})

	first := make(chan error, 1)
	go func() { first <- c.Load(context.Background()) }()
	<-source.calls

	second := make(chan error, 1)
	go func() { second <- c.Reload(context.Background()) }()

	select {
	case err := <-first:
		assert.ErrorIs(t, err, ErrLoadSuperseded)
	case <-time.After(5 * time.Second):
		t.Fatal("first load was not cancelled")
	}

	<-source.calls
	source.release()
	require.NoError(t, <-second)

	snap := c.Snapshot()
	assert.Equal(t, LoadStateLoaded, snap.State)
	assert.Equal(t, uint64(2), snap.Generation)
	assert.Len(t, snap.Venues, 4)
}

func TestQueryCoordinator_LoadFailureIsRetryable(t *testing.T) {
	source := &stubSource{err: errors.New("connection refused")}
	c := NewQueryCoordinator(repository.NewVenueRepository(source), NewFilterEngine(), QueryOptions{})

	err := c.Load(context.Background())
	require.Error(t, err)
	assert.True(t, IsLoadError(err))

	snap := c.Snapshot()
	assert.Equal(t, LoadStateError, snap.State)
	assert.Equal(t, repository.LoadMessage, snap.Message())
	assert.Equal(t, "connection refused", snap.Cause())

	_, err = c.Query("", FacetState{})
	assert.True(t, IsLoadError(err))

	source.err = nil
	source.data = testDatasetJSON(t, testVenues())
	require.NoError(t, c.Reload(context.Background()))
	assert.Equal(t, LoadStateLoaded, c.State())
	assert.Empty(t, c.Snapshot().Message())
	assert.Empty(t, c.Snapshot().Cause())
}

func TestQueryCoordinator_InvalidDataset(t *testing.T) {
	duplicate := []model.Venue{{ID: 1, Name: "a"}, {ID: 1, Name: "b"}}
	source := &stubSource{data: testDatasetJSON(t, duplicate)}
	c := NewQueryCoordinator(repository.NewVenueRepository(source), NewFilterEngine(), QueryOptions{})

	err := c.Load(context.Background())
	assert.True(t, IsLoadError(err))
	assert.ErrorIs(t, err, repository.ErrInvalidDataset)
	assert.Equal(t, LoadStateError, c.State())
}

func TestQueryCoordinator_GetVenue(t *testing.T) {
	c := loadedCoordinator(t, testVenues(), QueryOptions{})

	v, err := c.GetVenue(3)
	require.NoError(t, err)
	assert.Equal(t, "福岡市民会館", v.Name)

	_, err = c.GetVenue(99)
	assert.ErrorIs(t, err, ErrVenueNotFound)
}

func TestQueryCoordinator_GetVenueReadsCoordinatorSnapshot(t *testing.T) {
	source := &stubSource{data: testDatasetJSON(t, testVenues())}
	repo := repository.NewVenueRepository(source)
	c := NewQueryCoordinator(repo, NewFilterEngine(), QueryOptions{})
	require.NoError(t, c.Load(context.Background()))

	// the repository moves on without the coordinator
	source.data = testDatasetJSON(t, []model.Venue{{ID: 99, Name: "別会場"}})
	_, err := repo.Load(context.Background())
	require.NoError(t, err)

	v, err := c.GetVenue(3)
	require.NoError(t, err)
	assert.Equal(t, "福岡市民会館", v.Name)

	_, err = c.GetVenue(99)
	assert.ErrorIs(t, err, ErrVenueNotFound)
}

func TestQueryCoordinator_FacetCounts(t *testing.T) {
	c := loadedCoordinator(t, testVenues(), QueryOptions{})

	summary, err := c.FacetCounts()
	require.NoError(t, err)
	assert.Len(t, summary.Prefectures, 3)
}

func TestSnapshotTransitions(t *testing.T) {
	at := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	meta := model.DatasetMetadata{Version: "v1"}

	loaded := completeLoad(1, testVenues(), meta, at)
	assert.NoError(t, loaded.Ready())
	v, ok := loaded.Lookup(2)
	require.True(t, ok)
	assert.Equal(t, "大阪府立国際会議場", v.Name)

	loading := startLoading(loaded, 2, at)
	assert.ErrorIs(t, loading.Ready(), ErrDatasetLoading)
	assert.Empty(t, loading.Venues)
	assert.Equal(t, "v1", loading.Metadata.Version)
	_, ok = loading.Lookup(2)
	assert.False(t, ok)

	// the previous snapshot is untouched
	assert.Len(t, loaded.Venues, 4)

	cause := &LoadError{Source: "test", Cause: errors.New("boom")}
	failed := failLoad(3, cause, at)
	assert.Equal(t, LoadStateError, failed.State)
	assert.ErrorIs(t, failed.Ready(), cause)
	assert.Equal(t, uint64(3), failed.Generation)
}

type recordingListener struct {
	states []LoadState
}

func (l *recordingListener) StateChanged(s Snapshot) {
	l.states = append(l.states, s.State)
}

func TestQueryCoordinator_NotifiesListener(t *testing.T) {
	source := &stubSource{err: errors.New("timeout")}
	listener := &recordingListener{}
	c := NewQueryCoordinator(repository.NewVenueRepository(source), NewFilterEngine(), QueryOptions{Listener: listener})

	require.Error(t, c.Load(context.Background()))
	source.err = nil
	source.data = testDatasetJSON(t, scenarioVenues())
	require.NoError(t, c.Reload(context.Background()))

	assert.Equal(t, []LoadState{LoadStateLoading, LoadStateError, LoadStateLoading, LoadStateLoaded}, listener.states)
}
