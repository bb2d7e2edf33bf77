package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront/pkg/auth"
	"github.com/angelmondragon/storefront/pkg/config"
	redisclient "github.com/angelmondragon/storefront/pkg/redis"
	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
)

var (
	ErrInvalidToken = errors.New("invalid access token")
	ErrTokenExpired = errors.New("access token expired")
)

type tokenStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type tokenKeyer interface {
	AccessTokenKey(sessionID string) string
}

// Manager keeps the access token attached to each storefront session.
type Manager struct {
	store tokenStore
	keyer tokenKeyer
	ttl   time.Duration
	now   func() time.Time
}

// TokenSource exposes the read-only surface needed by the cart engine.
type TokenSource interface {
	Token(ctx context.Context, sessionID string) (string, bool, error)
}

// NewManager constructs a session manager backed by Redis.
func NewManager(client *redisclient.Client, cfg config.SessionConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("session token ttl must be positive")
	}
	return &Manager{
		store: client,
		keyer: client,
		ttl:   cfg.TokenTTL,
		now:   time.Now,
	}, nil
}

// Attach stores the token for the session and returns its parsed claims.
func (m *Manager) Attach(ctx context.Context, sessionID, token string) (*auth.AccessTokenClaims, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("session id is required")
	}
	claims, err := auth.ParseAccessToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	ttl := claims.TTL(m.now(), m.ttl)
	if ttl <= 0 {
		return nil, ErrTokenExpired
	}
	if err := m.store.Set(ctx, m.keyer.AccessTokenKey(sessionID), normalizeToken(token), ttl); err != nil {
		return nil, err
	}
	return claims, nil
}

// Token returns the attached token, if any.
func (m *Manager) Token(ctx context.Context, sessionID string) (string, bool, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", false, nil
	}
	token, err := m.store.Get(ctx, m.keyer.AccessTokenKey(sessionID))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return token, token != "", nil
}

// Detach removes the token for the session.
func (m *Manager) Detach(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("session id is required")
	}
	return m.store.Del(ctx, m.keyer.AccessTokenKey(sessionID))
}

// NewSessionID mints an identifier for a fresh storefront session.
func NewSessionID() string {
	return uuid.NewString()
}

func normalizeToken(token string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
}
