package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ikkim/venue-backend/internal/app/model"
	"github.com/ikkim/venue-backend/pkg/logger"
)

// VenueSource fetches a complete dataset. Every call returns freshly decoded
// records owned by the caller.
type VenueSource interface {
	Name() string
	Fetch(ctx context.Context) (*model.VenueDataset, error)
}

// Invalidator is implemented by sources that hold a cached copy.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// DecodeDataset parses the JSON envelope.
func DecodeDataset(data []byte) (*model.VenueDataset, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	var ds model.VenueDataset
	if err := dec.Decode(&ds); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataset, err)
	}
	if ds.Venues == nil {
		return nil, fmt.Errorf("%w: missing venues array", ErrInvalidDataset)
	}
	return &ds, nil
}

// EncodeDataset serializes ds in the same envelope DecodeDataset reads.
func EncodeDataset(ds *model.VenueDataset) ([]byte, error) {
	return json.MarshalIndent(ds, "", "  ")
}

type fileSource struct {
	path string
}

// NewFileSource reads the dataset from a JSON file on every fetch.
func NewFileSource(path string) VenueSource {
	return &fileSource{path: path}
}

func (s *fileSource) Name() string {
	return "file:" + s.path
}

func (s *fileSource) Fetch(ctx context.Context) (*model.VenueDataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger.Debug("Reading venue dataset file", map[string]interface{}{
		"path": s.path,
	})

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read dataset file: %w", err)
	}
	return DecodeDataset(data)
}

type bytesSource struct {
	name string
	data []byte
}

// NewBytesSource serves a dataset held in memory, e.g. a bundled export.
func NewBytesSource(name string, data []byte) VenueSource {
	return &bytesSource{name: name, data: data}
}

func (s *bytesSource) Name() string {
	return s.name
}

func (s *bytesSource) Fetch(ctx context.Context) (*model.VenueDataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return DecodeDataset(s.data)
}
