package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/Zeenoside1/shopify-product-addons-app/pkg/errors"
)

const oauthStatePrefix = "oauth:state:"

// OAuthStateStore keeps the OAuth nonce → shop binding for the length of one install
type OAuthStateStore struct {
	client *redis.Client
}

func NewOAuthStateStore(client *redis.Client) *OAuthStateStore {
	return &OAuthStateStore{client: client}
}

func (s *OAuthStateStore) Save(ctx context.Context, state, shop string, ttl time.Duration) error {
	ok, err := s.client.SetNX(ctx, oauthStatePrefix+state, shop, ttl).Result()
	if err != nil {
		return fmt.Errorf("redis setnx failed: %w", err)
	}
	if !ok {
		return &apperrors.ErrConflict{Message: "oauth state already issued"}
	}
	return nil
}

func (s *OAuthStateStore) Consume(ctx context.Context, state string) (string, error) {
	shop, err := s.client.GetDel(ctx, oauthStatePrefix+state).Result()
	if errors.Is(err, redis.Nil) {
		return "", &apperrors.ErrNotFound{Resource: "oauth state", ID: state}
	}
	if err != nil {
		return "", fmt.Errorf("redis getdel failed: %w", err)
	}
	return shop, nil
}
