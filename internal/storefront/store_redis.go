package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const selectionKeyPrefix = "addons:selections:"

// RedisStore keeps one session's selections in a hash keyed by product ID.
// The whole hash expires ttl after the last Record.
type RedisStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

func NewRedisStore(client *redis.Client, sessionID string, ttl time.Duration, logger *zap.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		key:    selectionKeyPrefix + sessionID,
		ttl:    ttl,
		now:    time.Now,
		logger: logger,
	}
}

func (s *RedisStore) Record(ctx context.Context, productID, variantID string, addons []ChosenAddon) (*Selection, error) {
	sel := NewSelection(uuid.NewString(), productID, variantID, addons, s.now().UTC())
	data, err := json.Marshal(sel)
	if err != nil {
		return nil, err
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.key, productID, data)
	pipe.Expire(ctx, s.key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("redis record selection failed: %w", err)
	}
	return sel, nil
}

func (s *RedisStore) Get(ctx context.Context, productID string) (*Selection, error) {
	data, err := s.client.HGet(ctx, s.key, productID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSelectionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get selection failed: %w", err)
	}
	var sel Selection
	if err := json.Unmarshal(data, &sel); err != nil {
		return nil, err
	}
	return &sel, nil
}

func (s *RedisStore) All(ctx context.Context) ([]*Selection, error) {
	raw, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list selections failed: %w", err)
	}
	out := make([]*Selection, 0, len(raw))
	for productID, data := range raw {
		var sel Selection
		if err := json.Unmarshal([]byte(data), &sel); err != nil {
			s.logger.Warn("Dropping unreadable selection", zap.String("product_id", productID), zap.Error(err))
			continue
		}
		out = append(out, &sel)
	}
	sortSelections(out)
	return out, nil
}

func (s *RedisStore) Delete(ctx context.Context, productID string) error {
	return s.client.HDel(ctx, s.key, productID).Err()
}

func (s *RedisStore) PurgeExpired(ctx context.Context, maxAge time.Duration) (int, error) {
	return purgeHash(ctx, s.client, s.key, s.now(), maxAge, s.logger)
}

// PurgeAllSessions walks every session hash and removes selections older than maxAge
func PurgeAllSessions(ctx context.Context, client *redis.Client, maxAge time.Duration, logger *zap.Logger) (int, error) {
	now := time.Now()
	removed := 0

	iter := client.Scan(ctx, 0, selectionKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		n, err := purgeHash(ctx, client, iter.Val(), now, maxAge, logger)
		if err != nil {
			return removed, err
		}
		removed += n
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("redis scan failed: %w", err)
	}
	return removed, nil
}

// deleteUnchanged removes each field only while it still holds the value the purge
// read, so a selection recorded after the read survives
var deleteUnchanged = redis.NewScript(`
local n = 0
for i = 1, #ARGV, 2 do
  if redis.call('HGET', KEYS[1], ARGV[i]) == ARGV[i + 1] then
    redis.call('HDEL', KEYS[1], ARGV[i])
    n = n + 1
  end
end
return n
`)

func purgeHash(ctx context.Context, client *redis.Client, key string, now time.Time, maxAge time.Duration, logger *zap.Logger) (int, error) {
	raw, err := client.HGetAll(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis list selections failed: %w", err)
	}

	stale := staleEntries(raw, now, maxAge)
	if len(stale) == 0 {
		return 0, nil
	}
	removed, err := deleteStale(ctx, client, key, stale)
	if err != nil {
		return 0, err
	}
	logger.Debug("Purged expired selections",
		zap.String("session", strings.TrimPrefix(key, selectionKeyPrefix)),
		zap.Int("removed", removed),
	)
	return removed, nil
}

// staleEntries picks the unreadable or expired fields of a session hash
func staleEntries(raw map[string]string, now time.Time, maxAge time.Duration) map[string]string {
	stale := make(map[string]string)
	for productID, data := range raw {
		var sel Selection
		if err := json.Unmarshal([]byte(data), &sel); err != nil || sel.Expired(now, maxAge) {
			stale[productID] = data
		}
	}
	return stale
}

func deleteStale(ctx context.Context, client *redis.Client, key string, stale map[string]string) (int, error) {
	args := make([]interface{}, 0, 2*len(stale))
	for field, data := range stale {
		args = append(args, field, data)
	}
	n, err := deleteUnchanged.Run(ctx, client, []string{key}, args...).Int()
	if err != nil {
		return 0, fmt.Errorf("redis purge selections failed: %w", err)
	}
	return n, nil
}
