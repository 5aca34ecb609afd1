package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/ikkim/venue-backend/internal/app/model"
	"github.com/ikkim/venue-backend/pkg/logger"
)

// VenueRepository owns the immutable venue collection.
type VenueRepository interface {
	// Load fetches, validates and installs a fresh snapshot, returning the
	// venues in dataset order. A load overtaken by a later one returns
	// ErrLoadSuperseded and leaves the newer snapshot in place.
	Load(ctx context.Context) ([]model.Venue, error)
	// Refresh drops any cached copy held by the source before loading.
	Refresh(ctx context.Context) ([]model.Venue, error)
	FindByID(id uint) (*model.Venue, error)
	Metadata() (model.DatasetMetadata, error)
	SourceName() string
}

type venueSnapshot struct {
	venues   []model.Venue
	byID     map[uint]int
	metadata model.DatasetMetadata
}

type venueRepository struct {
	source VenueSource

	started atomic.Uint64

	mu       sync.RWMutex
	snapshot *venueSnapshot
}

func NewVenueRepository(source VenueSource) VenueRepository {
	return &venueRepository{source: source}
}

func (r *venueRepository) SourceName() string {
	return r.source.Name()
}

func (r *venueRepository) Refresh(ctx context.Context) ([]model.Venue, error) {
	if inv, ok := r.source.(Invalidator); ok {
		if err := inv.Invalidate(ctx); err != nil {
			logger.Warn("Continuing reload without cache invalidation", map[string]interface{}{
				"source": r.source.Name(),
				"error":  err.Error(),
			})
		}
	}
	return r.Load(ctx)
}

func (r *venueRepository) Load(ctx context.Context) ([]model.Venue, error) {
	gen := r.started.Add(1)

	logger.Info("Loading venue dataset", map[string]interface{}{
		"source":     r.source.Name(),
		"generation": gen,
	})

	ds, err := r.source.Fetch(ctx)
	if err != nil {
		logger.Error("Failed to fetch venue dataset", err, map[string]interface{}{
			"source": r.source.Name(),
		})
		return nil, &LoadError{Source: r.source.Name(), Cause: err}
	}

	snap, err := buildSnapshot(ds)
	if err != nil {
		logger.Error("Venue dataset failed validation", err, map[string]interface{}{
			"source": r.source.Name(),
		})
		return nil, &LoadError{Source: r.source.Name(), Cause: err}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if latest := r.started.Load(); gen < latest {
		logger.Warn("Discarding superseded venue load", map[string]interface{}{
			"generation": gen,
			"latest":     latest,
		})
		return nil, ErrLoadSuperseded
	}
	r.snapshot = snap

	logger.Info("Venue dataset loaded", map[string]interface{}{
		"source":     r.source.Name(),
		"count":      len(snap.venues),
		"version":    snap.metadata.Version,
		"generation": gen,
	})
	return cloneVenues(snap.venues), nil
}

func (r *venueRepository) FindByID(id uint) (*model.Venue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.snapshot == nil {
		return nil, ErrNotLoaded
	}
	idx, ok := r.snapshot.byID[id]
	if !ok {
		return nil, ErrVenueNotFound
	}
	venue := r.snapshot.venues[idx]
	return &venue, nil
}

func (r *venueRepository) Metadata() (model.DatasetMetadata, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.snapshot == nil {
		return model.DatasetMetadata{}, ErrNotLoaded
	}
	return r.snapshot.metadata, nil
}

func cloneVenues(venues []model.Venue) []model.Venue {
	out := make([]model.Venue, len(venues))
	copy(out, venues)
	return out
}

// buildSnapshot validates ds and normalizes it in place. ds must be owned by
// the caller.
func buildSnapshot(ds *model.VenueDataset) (*venueSnapshot, error) {
	byID := make(map[uint]int, len(ds.Venues))
	for i := range ds.Venues {
		v := &ds.Venues[i]
		if v.ID == 0 {
			return nil, fmt.Errorf("%w: venue at index %d has no id", ErrInvalidDataset, i)
		}
		if prev, dup := byID[v.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate venue id %d at index %d and %d", ErrInvalidDataset, v.ID, prev, i)
		}
		byID[v.ID] = i

		if err := normalizeVenue(v); err != nil {
			return nil, fmt.Errorf("%w: venue %d: %v", ErrInvalidDataset, v.ID, err)
		}
	}

	meta := ds.Metadata
	if meta.TotalCount != 0 && meta.TotalCount != len(ds.Venues) {
		logger.Warn("Dataset metadata count does not match records", map[string]interface{}{
			"total_count": meta.TotalCount,
			"records":     len(ds.Venues),
		})
	}
	meta.TotalCount = len(ds.Venues)

	return &venueSnapshot{venues: ds.Venues, byID: byID, metadata: meta}, nil
}

func normalizeVenue(v *model.Venue) error {
	if v.Status == "" {
		v.Status = model.VenueStatusActive
	}
	if !v.Status.Valid() {
		return fmt.Errorf("unknown status %q", v.Status)
	}

	for i := range v.Rooms {
		room := &v.Rooms[i]
		for _, c := range room.Capacities() {
			if c != nil && *c < 0 {
				return fmt.Errorf("room %q has negative capacity %d", room.Name, *c)
			}
		}
		for j := range room.ControlRooms {
			if c := room.ControlRooms[j].Capacity; c != nil && *c < 0 {
				return fmt.Errorf("control room %q has negative capacity %d", room.ControlRooms[j].Name, *c)
			}
		}
		sort.SliceStable(room.ControlRooms, func(a, b int) bool {
			return room.ControlRooms[a].DisplayOrder < room.ControlRooms[b].DisplayOrder
		})
	}
	sort.SliceStable(v.Rooms, func(a, b int) bool {
		return v.Rooms[a].DisplayOrder < v.Rooms[b].DisplayOrder
	})
	sort.SliceStable(v.Stations, func(a, b int) bool {
		return v.Stations[a].DisplayOrder < v.Stations[b].DisplayOrder
	})

	if err := foldLegacyParking(v); err != nil {
		return err
	}

	for key := range v.Equipment {
		if !model.IsKnownEquipment(key) {
			logger.Warn("Dropping unknown equipment key", map[string]interface{}{
				"venue_id": v.ID,
				"key":      string(key),
			})
			delete(v.Equipment, key)
		}
	}
	return nil
}

// foldLegacyParking moves parking keys recorded under facilities into
// Parking. Fields already present on the top-level record win.
func foldLegacyParking(v *model.Venue) error {
	f := &v.Facilities
	if f.ParkingCapacity == nil && f.ParkingFee == "" && f.ParkingNotes == "" {
		return nil
	}
	if f.ParkingCapacity != nil && *f.ParkingCapacity < 0 {
		return fmt.Errorf("negative parking capacity %d", *f.ParkingCapacity)
	}

	if v.Parking == nil {
		v.Parking = &model.Parking{}
	}
	if v.Parking.Capacity == nil {
		v.Parking.Capacity = f.ParkingCapacity
	}
	if v.Parking.Fee == "" {
		v.Parking.Fee = f.ParkingFee
	}
	if v.Parking.NearbyInfo == "" {
		v.Parking.NearbyInfo = f.ParkingNotes
	}
	f.ParkingCapacity, f.ParkingFee, f.ParkingNotes = nil, "", ""
	return nil
}
