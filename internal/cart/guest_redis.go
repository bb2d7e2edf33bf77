package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisclient "github.com/angelmondragon/storefront/pkg/redis"
)

type kvStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Touch(ctx context.Context, key string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

type guestKeyer interface {
	GuestCartKey(sessionID string) string
}

// RedisGuestStore keeps each guest cart as one JSON value with a sliding TTL.
type RedisGuestStore struct {
	kv    kvStore
	keyer guestKeyer
	ttl   time.Duration
}

// NewRedisGuestStore binds the store to the shared redis client.
func NewRedisGuestStore(client *redisclient.Client, ttl time.Duration) (*RedisGuestStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return &RedisGuestStore{kv: client, keyer: client, ttl: ttl}, nil
}

func (s *RedisGuestStore) Load(ctx context.Context, sessionID string) (GuestItems, error) {
	key := s.keyer.GuestCartKey(sessionID)
	raw, err := s.kv.Get(ctx, key)
	if err != nil {
		if redisclient.IsNotFound(err) {
			return GuestItems{}, nil
		}
		return nil, err
	}

	items, err := decodeGuestItems(raw)
	if err != nil {
		return nil, err
	}
	if err := s.kv.Touch(ctx, key, s.ttl); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *RedisGuestStore) Save(ctx context.Context, sessionID string, items GuestItems) error {
	raw, err := encodeGuestItems(items)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, s.keyer.GuestCartKey(sessionID), raw, s.ttl)
}

func (s *RedisGuestStore) Clear(ctx context.Context, sessionID string) error {
	return s.kv.Del(ctx, s.keyer.GuestCartKey(sessionID))
}

func encodeGuestItems(items GuestItems) (string, error) {
	clean := make(GuestItems, len(items))
	for k, v := range items {
		if v > 0 {
			clean[k] = v
		}
	}
	raw, err := json.Marshal(clean)
	if err != nil {
		return "", fmt.Errorf("encoding guest cart: %w", err)
	}
	return string(raw), nil
}

func decodeGuestItems(raw string) (GuestItems, error) {
	if raw == "" {
		return GuestItems{}, nil
	}
	var items GuestItems
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptGuestCart, err)
	}
	if items == nil {
		items = GuestItems{}
	}
	for k, v := range items {
		if v <= 0 {
			delete(items, k)
		}
	}
	return items, nil
}
