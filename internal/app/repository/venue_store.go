package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/ikkim/venue-backend/internal/app/model"
	"github.com/ikkim/venue-backend/pkg/logger"
	"gorm.io/gorm"
)

// VenueStore reads and replaces venue records in the database. It satisfies
// VenueSource so the server can load straight from PostgreSQL.
type VenueStore interface {
	VenueSource
	ReplaceAll(ctx context.Context, dataset *model.VenueDataset) error
	Count(ctx context.Context) (int64, error)
}

type venueStore struct {
	db *gorm.DB
}

func NewVenueStore(db *gorm.DB) VenueStore {
	return &venueStore{db: db}
}

func (s *venueStore) Name() string {
	return "database"
}

func orderByDisplay(db *gorm.DB) *gorm.DB {
	return db.Order("display_order ASC, id ASC")
}

func (s *venueStore) Fetch(ctx context.Context) (*model.VenueDataset, error) {
	logger.Debug("Loading venues from database")

	var venues []model.Venue
	err := s.db.WithContext(ctx).
		Preload("Rooms", orderByDisplay).
		Preload("Rooms.ControlRooms", orderByDisplay).
		Preload("Stations", orderByDisplay).
		Order("id ASC").
		Find(&venues).Error
	if err != nil {
		logger.Error("Failed to load venues from database", err)
		return nil, fmt.Errorf("query venues: %w", err)
	}

	var latest time.Time
	for i := range venues {
		if venues[i].UpdatedAt.After(latest) {
			latest = venues[i].UpdatedAt
		}
	}

	logger.Debug("Venues loaded from database", map[string]interface{}{
		"count": len(venues),
	})
	return &model.VenueDataset{
		Venues: venues,
		Metadata: model.DatasetMetadata{
			TotalCount: len(venues),
			DataSource: s.Name(),
			ExportDate: latest.Format(time.RFC3339),
		},
	}, nil
}

// ReplaceAll swaps the stored collection for dataset in one transaction.
// Records are always written whole, never patched.
func (s *venueStore) ReplaceAll(ctx context.Context, dataset *model.VenueDataset) error {
	logger.Info("Replacing venues in database", map[string]interface{}{
		"count": len(dataset.Venues),
	})

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		for _, table := range []interface{}{&model.ControlRoom{}, &model.Room{}, &model.Station{}, &model.Venue{}} {
			if err := all.Delete(table).Error; err != nil {
				return fmt.Errorf("clear %T: %w", table, err)
			}
		}
		if len(dataset.Venues) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(dataset.Venues, 100).Error; err != nil {
			return fmt.Errorf("insert venues: %w", err)
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to replace venues in database", err)
		return err
	}

	logger.Info("Venues replaced in database", map[string]interface{}{
		"count": len(dataset.Venues),
	})
	return nil
}

func (s *venueStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Venue{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
