package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/ikkim/venue-backend/internal/app/model"
	"github.com/ikkim/venue-backend/internal/app/repository"
	"github.com/ikkim/venue-backend/pkg/logger"
)

// LoadState 会場データの読み込み状態
type LoadState string

const (
	LoadStateIdle    LoadState = "idle"
	LoadStateLoading LoadState = "loading"
	LoadStateLoaded  LoadState = "loaded"
	LoadStateError   LoadState = "error"
)

// Snapshot is one immutable state of the coordinator. Transitions build a new
// Snapshot; nothing mutates an existing one.
type Snapshot struct {
	State      LoadState
	Generation uint64
	Venues     []model.Venue
	Index      SearchIndex
	Metadata   model.DatasetMetadata
	Err        error
	UpdatedAt  time.Time

	byID map[uint]int
}

// Message is the human-readable state of an errored snapshot.
func (s Snapshot) Message() string {
	if s.Err == nil {
		return ""
	}
	return repository.LoadMessage
}

// Cause describes why the load failed, without the generic message prefix.
func (s Snapshot) Cause() string {
	if s.Err == nil {
		return ""
	}
	var loadErr *repository.LoadError
	if errors.As(s.Err, &loadErr) && loadErr.Cause != nil {
		return loadErr.Cause.Error()
	}
	return s.Err.Error()
}

// Ready returns nil when the snapshot can answer queries.
func (s Snapshot) Ready() error {
	switch s.State {
	case LoadStateLoaded:
		return nil
	case LoadStateLoading:
		return ErrDatasetLoading
	case LoadStateError:
		return s.Err
	default:
		return ErrDatasetNotLoaded
	}
}

// Lookup finds a venue in the loaded collection.
func (s Snapshot) Lookup(id uint) (*model.Venue, bool) {
	idx, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	v := s.Venues[idx]
	return &v, true
}

func startLoading(prev Snapshot, gen uint64, at time.Time) Snapshot {
	return Snapshot{
		State:      LoadStateLoading,
		Generation: gen,
		Metadata:   prev.Metadata,
		UpdatedAt:  at,
	}
}

func completeLoad(gen uint64, venues []model.Venue, meta model.DatasetMetadata, at time.Time) Snapshot {
	byID := make(map[uint]int, len(venues))
	for i := range venues {
		byID[venues[i].ID] = i
	}
	return Snapshot{
		State:      LoadStateLoaded,
		Generation: gen,
		Venues:     venues,
		Index:      BuildIndex(venues),
		Metadata:   meta,
		UpdatedAt:  at,
		byID:       byID,
	}
}

func failLoad(gen uint64, err error, at time.Time) Snapshot {
	return Snapshot{
		State:      LoadStateError,
		Generation: gen,
		Err:        err,
		UpdatedAt:  at,
	}
}

// StateListener is told about every installed snapshot. It is called outside
// the coordinator's locks and must not block.
type StateListener interface {
	StateChanged(s Snapshot)
}

// QueryOptions tunes query precedence.
type QueryOptions struct {
	// CombineModes ANDs free text onto an active facet filter instead of
	// ignoring the text.
	CombineModes bool
	Listener     StateListener
}

type QueryCoordinator interface {
	Load(ctx context.Context) error
	Reload(ctx context.Context) error
	Query(text string, facets FacetState) ([]model.Venue, error)
	Search(text string) ([]model.Venue, error)
	Filter(facets FacetState) ([]model.Venue, error)
	GetVenue(id uint) (*model.Venue, error)
	FacetCounts() (FacetSummary, error)
	Snapshot() Snapshot
	State() LoadState
}

type queryCoordinator struct {
	repo   repository.VenueRepository
	engine *FilterEngine
	opts   QueryOptions
	now    func() time.Time

	// loadMu serializes repository calls; a newer load cancels the one
	// holding it.
	loadMu sync.Mutex

	mu      sync.RWMutex
	gen     uint64
	cancel  context.CancelFunc
	current Snapshot
}

func NewQueryCoordinator(repo repository.VenueRepository, engine *FilterEngine, opts QueryOptions) QueryCoordinator {
	return &queryCoordinator{
		repo:    repo,
		engine:  engine,
		opts:    opts,
		now:     time.Now,
		current: Snapshot{State: LoadStateIdle},
	}
}

// Load moves to loading, fetches the dataset and installs the result. If a
// newer load starts first, this one is cancelled and returns
// ErrLoadSuperseded without touching state.
func (c *queryCoordinator) Load(ctx context.Context) error {
	return c.load(ctx, c.repo.Load)
}

// Reload is Load with source caches dropped first.
func (c *queryCoordinator) Reload(ctx context.Context) error {
	return c.load(ctx, c.repo.Refresh)
}

func (c *queryCoordinator) load(ctx context.Context, fetch func(context.Context) ([]model.Venue, error)) error {
	loadCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	c.gen++
	gen := c.gen
	if c.cancel != nil {
		c.cancel()
	}
	c.cancel = cancel
	c.current = startLoading(c.current, gen, c.now())
	started := c.current
	c.mu.Unlock()
	c.notify(started)

	c.loadMu.Lock()
	venues, err := fetch(loadCtx)
	var meta model.DatasetMetadata
	if err == nil {
		meta, err = c.repo.Metadata()
	}
	c.loadMu.Unlock()

	c.mu.Lock()
	if gen != c.gen {
		latest := c.gen
		c.mu.Unlock()
		logger.Debug("Dropping result of superseded load", map[string]interface{}{
			"generation": gen,
			"latest":     latest,
		})
		return ErrLoadSuperseded
	}
	c.cancel = nil

	if err != nil {
		if !IsLoadError(err) {
			err = &LoadError{Source: c.repo.SourceName(), Cause: err}
		}
		c.current = failLoad(gen, err, c.now())
		failed := c.current
		c.mu.Unlock()
		c.notify(failed)
		return err
	}

	c.current = completeLoad(gen, venues, meta, c.now())
	loaded := c.current
	c.mu.Unlock()

	logger.Info("Venue query snapshot ready", map[string]interface{}{
		"generation": gen,
		"count":      len(venues),
	})
	c.notify(loaded)
	return nil
}

func (c *queryCoordinator) notify(s Snapshot) {
	if c.opts.Listener != nil {
		c.opts.Listener.StateChanged(s)
	}
}

func (c *queryCoordinator) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

func (c *queryCoordinator) State() LoadState {
	return c.Snapshot().State
}

// Query applies the precedence rule: an active facet filter wins over free
// text, then free text, then the whole collection in dataset order.
func (c *queryCoordinator) Query(text string, facets FacetState) ([]model.Venue, error) {
	snap := c.Snapshot()
	if err := snap.Ready(); err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if !facets.IsEmpty() {
		result := c.engine.Apply(snap.Venues, facets)
		if c.opts.CombineModes && text != "" {
			result = snap.Index.Search(result, text)
		}
		return result, nil
	}
	if text != "" {
		return snap.Index.Search(snap.Venues, text), nil
	}
	return cloneVenueSlice(snap.Venues), nil
}

func (c *queryCoordinator) Search(text string) ([]model.Venue, error) {
	return c.Query(text, FacetState{})
}

func (c *queryCoordinator) Filter(facets FacetState) ([]model.Venue, error) {
	return c.Query("", facets)
}

func (c *queryCoordinator) GetVenue(id uint) (*model.Venue, error) {
	snap := c.Snapshot()
	if err := snap.Ready(); err != nil {
		return nil, err
	}
	venue, ok := snap.Lookup(id)
	if !ok {
		return nil, repository.ErrVenueNotFound
	}
	return venue, nil
}

func (c *queryCoordinator) FacetCounts() (FacetSummary, error) {
	snap := c.Snapshot()
	if err := snap.Ready(); err != nil {
		return FacetSummary{}, err
	}
	return c.engine.FacetCounts(snap.Venues), nil
}
