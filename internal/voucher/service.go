package voucher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/storefront/pkg/commerce"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

const refreshKey = "vouchers"

// Source lists the vouchers currently offered by the backend.
type Source interface {
	ListActiveVouchers(ctx context.Context) ([]commerce.Voucher, error)
}

// Service validates entered codes against the backend voucher list.
type Service interface {
	List(ctx context.Context) ([]Voucher, error)
	Lookup(ctx context.Context, code string) (*Voucher, error)
	Apply(ctx context.Context, app Application, subtotal decimal.Decimal) (Application, error)
}

type service struct {
	source Source
	logg   *logger.Logger
	loc    *time.Location
	ttl    time.Duration
	now    func() time.Time

	group     singleflight.Group
	mu        sync.RWMutex
	vouchers  []Voucher
	fetchedAt time.Time
}

// NewService builds a voucher service. A ttl of zero refetches on every lookup.
func NewService(source Source, logg *logger.Logger, loc *time.Location, ttl time.Duration) (Service, error) {
	if source == nil {
		return nil, fmt.Errorf("voucher source required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &service{
		source: source,
		logg:   logg,
		loc:    loc,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

func (s *service) List(ctx context.Context) ([]Voucher, error) {
	s.mu.RLock()
	if s.fresh() {
		out := append([]Voucher(nil), s.vouchers...)
		s.mu.RUnlock()
		return out, nil
	}
	s.mu.RUnlock()

	res, err, _ := s.group.Do(refreshKey, func() (any, error) {
		return s.refresh(ctx)
	})
	if err != nil {
		return nil, err
	}
	return append([]Voucher(nil), res.([]Voucher)...), nil
}

func (s *service) fresh() bool {
	return s.ttl > 0 && !s.fetchedAt.IsZero() && s.now().Sub(s.fetchedAt) < s.ttl
}

func (s *service) refresh(ctx context.Context) ([]Voucher, error) {
	records, err := s.source.ListActiveVouchers(ctx)
	if err != nil {
		return nil, err
	}

	vouchers := make([]Voucher, 0, len(records))
	for _, rec := range records {
		v, err := FromRecord(rec, s.loc)
		if err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "skipping malformed voucher")
			continue
		}
		vouchers = append(vouchers, v)
	}

	s.mu.Lock()
	s.vouchers = vouchers
	s.fetchedAt = s.now()
	s.mu.Unlock()
	return vouchers, nil
}

// Lookup returns the voucher redeemed by code, or nil when no voucher matches.
func (s *service) Lookup(ctx context.Context, code string) (*Voucher, error) {
	vouchers, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range vouchers {
		if vouchers[i].Matches(code) {
			v := vouchers[i]
			return &v, nil
		}
	}
	return nil, nil
}

// Apply evaluates the entered code of app against subtotal.
// On a lookup failure app is returned in Validating together with the error.
func (s *service) Apply(ctx context.Context, app Application, subtotal decimal.Decimal) (Application, error) {
	if !app.Pending() {
		return None(), nil
	}
	validating := app.Enter(app.Code)

	v, err := s.Lookup(ctx, validating.Code)
	if err != nil {
		return validating, err
	}
	return validating.Resolve(v, Evaluate(v, subtotal, s.now())), nil
}
