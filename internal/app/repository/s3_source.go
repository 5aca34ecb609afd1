package repository

import (
	"context"
	"fmt"

	"github.com/ikkim/venue-backend/internal/app/model"
	"github.com/ikkim/venue-backend/pkg/logger"
)

// ObjectReader is the slice of the object storage client the S3 source needs.
type ObjectReader interface {
	GetObject(ctx context.Context, key string) ([]byte, error)
}

type s3Source struct {
	reader ObjectReader
	key    string
}

// NewS3Source reads the dataset JSON stored under key.
func NewS3Source(reader ObjectReader, key string) VenueSource {
	return &s3Source{reader: reader, key: key}
}

func (s *s3Source) Name() string {
	return "s3:" + s.key
}

func (s *s3Source) Fetch(ctx context.Context) (*model.VenueDataset, error) {
	logger.Debug("Fetching venue dataset object", map[string]interface{}{
		"key": s.key,
	})

	data, err := s.reader.GetObject(ctx, s.key)
	if err != nil {
		logger.Error("Failed to fetch venue dataset object", err, map[string]interface{}{
			"key": s.key,
		})
		return nil, fmt.Errorf("get dataset object: %w", err)
	}
	return DecodeDataset(data)
}
