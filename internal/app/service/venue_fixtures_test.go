package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/ikkim/venue-backend/internal/app/model"
	"github.com/ikkim/venue-backend/internal/app/repository"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int           { return &n }
func int64Ptr(n int64) *int64     { return &n }
func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

// testVenues returns four venues covering every capacity bucket and a mix
// of recorded and missing data.
func testVenues() []model.Venue {
	return []model.Venue{
		{
			ID:          1,
			Name:        "東京国際フォーラム",
			Prefecture:  "東京都",
			City:        "千代田区",
			Address:     "東京都千代田区丸の内3-5-1",
			PhoneNumber: strPtr("03-5221-9000"),
			Rooms: []model.Room{{
				Name:            "ホールB7",
				Floor:           strPtr("7F"),
				CeilingHeight:   floatPtr(6.5),
				CapacityTheater: intPtr(1400),
				CapacitySchool:  intPtr(800),
				ControlRooms:    []model.ControlRoom{{Name: "控室1"}},
			}},
			Stations: []model.Station{
				{StationName: "有楽町", LineName: "JR山手線", TransportMethod: model.TransportWalk, WalkingTime: intPtr(1)},
			},
			Equipment: model.Equipment{
				model.EquipmentProjector: {Status: model.AvailabilityYes, Quantity: intPtr(2)},
				model.EquipmentScreen:    {Status: model.AvailabilityYes},
			},
			Facilities: model.Facilities{CanEatDrink: model.FlagItem(true), IsBarrierFree: model.FlagItem(true), HasElevator: model.FlagItem(true)},
			Fees: &model.Fees{
				MainVenueFee:      int64Ptr(1200000),
				ElectricityFee:    int64Ptr(30000),
				EstimatedTotalFee: int64Ptr(1290000),
			},
			Parking: &model.Parking{Capacity: intPtr(300), Fee: "30分300円"},
			Tags:    model.TagList{"大規模", "駅直結"},
		},
		{
			ID:         2,
			Name:       "大阪府立国際会議場",
			Prefecture: "大阪府",
			City:       "大阪市北区",
			Rooms: []model.Room{{
				Name:            "会議室1001",
				CapacityTheater: intPtr(180),
			}},
			Stations: []model.Station{
				{StationName: "中之島", LineName: "京阪中之島線", TransportMethod: model.TransportWalk, TravelTime: intPtr(5)},
			},
			Equipment: model.Equipment{
				model.EquipmentWhiteboard: {Status: model.AvailabilityNo},
			},
			Facilities: model.Facilities{IsBarrierFree: model.FlagItem(true), CanEatDrink: model.FlagItem(false)},
			Fees: &model.Fees{
				MainVenueFee:      int64Ptr(45000),
				EstimatedTotalFee: int64Ptr(45000),
			},
		},
		{
			ID:         3,
			Name:       "福岡市民会館",
			Prefecture: "福岡県",
			City:       "福岡市中央区",
			Rooms: []model.Room{{
				Name:            "小ホール",
				CapacityTheater: intPtr(40),
			}},
			Stations: []model.Station{
				{StationName: "天神", LineName: "空港線", TransportMethod: model.TransportBus, BusTime: intPtr(10)},
			},
			Facilities: model.Facilities{CanWearShoes: model.FlagItem(true)},
			Parking:    &model.Parking{Capacity: intPtr(20), IsFree: true},
		},
		{
			ID:         4,
			Name:       "ＮＯＣ会議室",
			Prefecture: "東京都",
			City:       "港区",
			Rooms: []model.Room{{
				Name:            "A",
				CapacityTheater: intPtr(100),
			}},
			Fees: &model.Fees{EstimatedTotalFee: int64Ptr(30000)},
		},
	}
}

func testDatasetJSON(t *testing.T, venues []model.Venue) []byte {
	t.Helper()
	data, err := json.Marshal(model.VenueDataset{
		Venues:   venues,
		Metadata: model.DatasetMetadata{Version: "test"},
	})
	require.NoError(t, err)
	return data
}

func venueIDs(venues []model.Venue) []uint {
	ids := make([]uint, 0, len(venues))
	for i := range venues {
		ids = append(ids, venues[i].ID)
	}
	return ids
}

// gatedSource blocks each Fetch until the test releases it, so tests can
// hold a load in flight.
type gatedSource struct {
	mu    sync.Mutex
	data  []byte
	err   error
	gates []chan struct{}
	calls chan struct{}
}

func newGatedSource(data []byte) *gatedSource {
	return &gatedSource{data: data, calls: make(chan struct{}, 16)}
}

func (s *gatedSource) Name() string { return "gated" }

func (s *gatedSource) Fetch(ctx context.Context) (*model.VenueDataset, error) {
	s.mu.Lock()
	gate := make(chan struct{})
	s.gates = append(s.gates, gate)
	data, err := s.data, s.err
	s.mu.Unlock()

	s.calls <- struct{}{}
	select {
	case <-gate:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	return repository.DecodeDataset(data)
}

func (s *gatedSource) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.gates {
		close(g)
	}
	s.gates = nil
}

func (s *gatedSource) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// loadedCoordinator returns a coordinator that has loaded venues.
func loadedCoordinator(t *testing.T, venues []model.Venue, opts QueryOptions) QueryCoordinator {
	t.Helper()
	repo := repository.NewVenueRepository(repository.NewBytesSource("test", testDatasetJSON(t, venues)))
	c := NewQueryCoordinator(repo, NewFilterEngine(), opts)
	require.NoError(t, c.Load(context.Background()))
	return c
}
