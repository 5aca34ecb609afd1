package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// SelectionStore keeps one comparison selection per session. A session with
// nothing stored reads as an empty selection.
type SelectionStore interface {
	Get(ctx context.Context, sessionID string) (Selection, error)
	Save(ctx context.Context, sessionID string, sel Selection) error
	Delete(ctx context.Context, sessionID string) error
}

type memoryEntry struct {
	selection Selection
	expiresAt time.Time
}

type memorySelectionStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

// NewMemorySelectionStore keeps selections in process. ttl <= 0 disables
// expiry.
func NewMemorySelectionStore(ttl time.Duration) SelectionStore {
	return &memorySelectionStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (s *memorySelectionStore) Get(_ context.Context, sessionID string) (Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[sessionID]
	if !ok {
		return Selection{}, nil
	}
	if s.ttl > 0 && s.now().After(entry.expiresAt) {
		delete(s.entries, sessionID)
		return Selection{}, nil
	}
	return entry.selection, nil
}

func (s *memorySelectionStore) Save(_ context.Context, sessionID string, sel Selection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[sessionID] = memoryEntry{selection: sel, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *memorySelectionStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, sessionID)
	return nil
}

const selectionKeyPrefix = "comparison:selection:"

type redisSelectionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSelectionStore stores selections as JSON arrays with a sliding TTL.
func NewRedisSelectionStore(client *redis.Client, ttl time.Duration) SelectionStore {
	return &redisSelectionStore{client: client, ttl: ttl}
}

func (s *redisSelectionStore) Get(ctx context.Context, sessionID string) (Selection, error) {
	data, err := s.client.Get(ctx, selectionKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return Selection{}, nil
	}
	if err != nil {
		return Selection{}, fmt.Errorf("failed to read selection: %w", err)
	}

	var sel Selection
	if err := json.Unmarshal(data, &sel); err != nil {
		return Selection{}, fmt.Errorf("failed to decode selection: %w", err)
	}
	return sel, nil
}

func (s *redisSelectionStore) Save(ctx context.Context, sessionID string, sel Selection) error {
	data, err := json.Marshal(sel)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, selectionKeyPrefix+sessionID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save selection: %w", err)
	}
	return nil
}

func (s *redisSelectionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, selectionKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("failed to delete selection: %w", err)
	}
	return nil
}
