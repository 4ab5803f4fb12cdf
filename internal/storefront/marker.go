package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const markerKeyPrefix = "addons:marker:"

// Marker records the last successful sync and what it displayed
type Marker struct {
	At          time.Time   `json:"at"`
	Annotations Annotations `json:"annotations"`
}

// MarkerStore holds the processed marker. Load returns nil, nil when none is set.
type MarkerStore interface {
	Load(ctx context.Context) (*Marker, error)
	Save(ctx context.Context, m *Marker) error
}

type MemoryMarkerStore struct {
	mu     sync.Mutex
	marker *Marker
}

func NewMemoryMarkerStore() *MemoryMarkerStore {
	return &MemoryMarkerStore{}
}

func (s *MemoryMarkerStore) Load(context.Context) (*Marker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.marker == nil {
		return nil, nil
	}
	m := *s.marker
	return &m, nil
}

func (s *MemoryMarkerStore) Save(_ context.Context, m *Marker) error {
	s.mu.Lock()
	c := *m
	s.marker = &c
	s.mu.Unlock()
	return nil
}

// RedisMarkerStore keeps a session's marker for ttl
type RedisMarkerStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewRedisMarkerStore(client *redis.Client, sessionID string, ttl time.Duration) *RedisMarkerStore {
	return &RedisMarkerStore{
		client: client,
		key:    markerKeyPrefix + sessionID,
		ttl:    ttl,
	}
}

func (s *RedisMarkerStore) Load(ctx context.Context) (*Marker, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get marker failed: %w", err)
	}
	var m Marker
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *RedisMarkerStore) Save(ctx context.Context, m *Marker) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set marker failed: %w", err)
	}
	return nil
}
