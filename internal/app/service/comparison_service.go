package service

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/ikkim/venue-backend/internal/app/model"
	"github.com/ikkim/venue-backend/pkg/logger"
)

type ComparisonService interface {
	GetSelection(ctx context.Context, sessionID string) (Selection, error)
	Toggle(ctx context.Context, sessionID string, venueID uint) (Selection, error)
	Clear(ctx context.Context, sessionID string) error
	SelectedVenues(ctx context.Context, sessionID string) ([]model.Venue, error)
	BuildMatrix(ids []uint) (*ComparisonMatrix, error)
	ExportMatrix(ids []uint) (*bytes.Buffer, error)
}

type comparisonService struct {
	store       SelectionStore
	coordinator QueryCoordinator

	// mu serializes read-modify-write of selections within this process.
	mu sync.Mutex
}

func NewComparisonService(store SelectionStore, coordinator QueryCoordinator) ComparisonService {
	return &comparisonService{store: store, coordinator: coordinator}
}

func (s *comparisonService) GetSelection(ctx context.Context, sessionID string) (Selection, error) {
	return s.store.Get(ctx, sessionID)
}

// Toggle adds or removes venueID for the session. Adding requires the venue
// to exist in the loaded collection; removing never does, so stale ids can
// always be cleared.
func (s *comparisonService) Toggle(ctx context.Context, sessionID string, venueID uint) (Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return Selection{}, err
	}

	if !current.Contains(venueID) {
		snap := s.coordinator.Snapshot()
		if err := snap.Ready(); err != nil {
			return current, err
		}
		if _, ok := snap.Lookup(venueID); !ok {
			return current, ErrVenueNotFound
		}
	}

	next, err := current.Toggle(venueID)
	if err != nil {
		logger.Debug("Comparison selection full", map[string]interface{}{
			"session_id": sessionID,
			"venue_id":   venueID,
		})
		return current, err
	}

	if err := s.store.Save(ctx, sessionID, next); err != nil {
		logger.Error("Failed to save comparison selection", err, map[string]interface{}{
			"session_id": sessionID,
		})
		return current, err
	}
	return next, nil
}

func (s *comparisonService) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.store.Delete(ctx, sessionID)
}

// SelectedVenues returns the session's venues in selection order. Ids no
// longer present in the dataset are skipped.
func (s *comparisonService) SelectedVenues(ctx context.Context, sessionID string) ([]model.Venue, error) {
	sel, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	snap := s.coordinator.Snapshot()
	if err := snap.Ready(); err != nil {
		return nil, err
	}

	venues := make([]model.Venue, 0, sel.Len())
	for _, id := range sel.IDs() {
		if v, ok := snap.Lookup(id); ok {
			venues = append(venues, *v)
		}
	}
	return venues, nil
}

func (s *comparisonService) BuildMatrix(ids []uint) (*ComparisonMatrix, error) {
	sel, err := NewSelection(ids...)
	if err != nil {
		return nil, err
	}

	snap := s.coordinator.Snapshot()
	if err := snap.Ready(); err != nil {
		return nil, err
	}

	venues := make([]model.Venue, 0, sel.Len())
	for _, id := range sel.IDs() {
		v, ok := snap.Lookup(id)
		if !ok {
			return nil, ErrVenueNotFound
		}
		venues = append(venues, *v)
	}
	return BuildComparisonMatrix(venues), nil
}

func (s *comparisonService) ExportMatrix(ids []uint) (*bytes.Buffer, error) {
	m, err := s.BuildMatrix(ids)
	if err != nil {
		return nil, err
	}
	buf, err := ExportMatrix(m)
	if err != nil {
		logger.Error("Failed to export comparison matrix", err, map[string]interface{}{
			"venues": len(m.Columns),
		})
		return nil, fmt.Errorf("failed to export comparison matrix: %w", err)
	}
	return buf, nil
}
