package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront/pkg/logger"
	"go.uber.org/multierr"
)

const defaultIdleSession = 30 * time.Minute

type sessionEvicter interface {
	Evict(idle time.Duration) int
}

// NewSessionEvictionJob drops in-memory session state idle for longer than idle.
// It runs on every instance since the state is process local.
func NewSessionEvictionJob(logg *logger.Logger, engine sessionEvicter, idle time.Duration) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if engine == nil {
		return nil, fmt.Errorf("cart engine required")
	}
	if idle <= 0 {
		idle = defaultIdleSession
	}
	return &sessionEvictionJob{logg: logg, engine: engine, idle: idle}, nil
}

type sessionEvictionJob struct {
	logg   *logger.Logger
	engine sessionEvicter
	idle   time.Duration
}

func (j *sessionEvictionJob) Name() string { return "session-eviction" }

func (j *sessionEvictionJob) Run(ctx context.Context) error {
	if evicted := j.engine.Evict(j.idle); evicted > 0 {
		j.logg.Info(j.logg.WithField(ctx, "evicted", evicted), "idle sessions evicted")
	}
	return nil
}

type guestCartPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// NewGuestCartPurgeJob deletes expired guest carts from the SQL guest store.
// When lock is set only the instance holding it purges.
func NewGuestCartPurgeJob(logg *logger.Logger, repo guestCartPurger, lock Lock) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if repo == nil {
		return nil, fmt.Errorf("guest cart repository required")
	}
	return &guestCartPurgeJob{logg: logg, repo: repo, lock: lock}, nil
}

type guestCartPurgeJob struct {
	logg *logger.Logger
	repo guestCartPurger
	lock Lock
}

func (j *guestCartPurgeJob) Name() string { return "guest-cart-purge" }

func (j *guestCartPurgeJob) Run(ctx context.Context) (err error) {
	if j.lock != nil {
		locked, lockErr := j.lock.Acquire(ctx)
		if lockErr != nil {
			return fmt.Errorf("lock acquire: %w", lockErr)
		}
		if !locked {
			j.logg.Debug(ctx, "guest cart purge held by another instance")
			return nil
		}
		defer func() {
			err = multierr.Append(err, j.lock.Release(ctx))
		}()
	}

	purged, err := j.repo.PurgeExpired(ctx)
	if err != nil {
		return fmt.Errorf("purge expired guest carts: %w", err)
	}
	if purged > 0 {
		j.logg.Info(j.logg.WithField(ctx, "purged", purged), "expired guest carts purged")
	}
	return nil
}
