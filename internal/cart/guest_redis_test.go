package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
)

type mockKV struct {
	mu      sync.Mutex
	data    map[string]string
	ttls    map[string]time.Duration
	touched int
}

func newMockKV() *mockKV {
	return &mockKV{data: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (m *mockKV) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	m.ttls[key] = ttl
	return nil
}

func (m *mockKV) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
}

func (m *mockKV) Touch(ctx context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touched++
	m.ttls[key] = ttl
	return nil
}

func (m *mockKV) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *mockKV) GuestCartKey(sessionID string) string {
	return "guest:" + sessionID
}

func newTestRedisStore(kv *mockKV) *RedisGuestStore {
	return &RedisGuestStore{kv: kv, keyer: kv, ttl: 7 * 24 * time.Hour}
}

func TestRedisGuestStoreRoundTrip(t *testing.T) {
	kv := newMockKV()
	store := newTestRedisStore(kv)
	ctx := context.Background()

	items, err := store.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("load missing: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty cart, got %+v", items)
	}

	if err := store.Save(ctx, "s1", GuestItems{"1_a": 2, "2_b": 0}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got := kv.data["guest:s1"]; got != `{"1_a":2}` {
		t.Fatalf("unexpected stored value %q", got)
	}
	if kv.ttls["guest:s1"] != 7*24*time.Hour {
		t.Fatalf("unexpected ttl %s", kv.ttls["guest:s1"])
	}

	items, err = store.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if items["1_a"] != 2 || len(items) != 1 {
		t.Fatalf("unexpected items %+v", items)
	}
	if kv.touched != 1 {
		t.Fatalf("expected ttl refresh on load, got %d", kv.touched)
	}

	if err := store.Clear(ctx, "s1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok := kv.data["guest:s1"]; ok {
		t.Fatal("expected key deleted")
	}
}

func TestRedisGuestStoreCorruptValue(t *testing.T) {
	kv := newMockKV()
	kv.data["guest:s1"] = "[1,2"
	store := newTestRedisStore(kv)

	_, err := store.Load(context.Background(), "s1")
	if !errors.Is(err, ErrCorruptGuestCart) {
		t.Fatalf("expected corrupt cart error, got %v", err)
	}
}

func TestDecodeGuestItemsDropsNonPositive(t *testing.T) {
	items, err := decodeGuestItems(`{"1_a":3,"2_b":0,"3_c":-1}`)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 1 || items["1_a"] != 3 {
		t.Fatalf("unexpected items %+v", items)
	}

	items, err = decodeGuestItems("null")
	if err != nil || items == nil {
		t.Fatalf("expected empty map for null, got %+v %v", items, err)
	}
}

func TestNewRedisGuestStoreRequiresClient(t *testing.T) {
	if _, err := NewRedisGuestStore(nil, time.Hour); err == nil {
		t.Fatal("expected error without client")
	}
}
