package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/storefront/pkg/commerce"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"golang.org/x/sync/singleflight"
)

const refreshKey = "products"

// Source is the backend product API.
type Source interface {
	ListProducts(ctx context.Context) ([]commerce.ProductRow, error)
	GetProduct(ctx context.Context, productID string) (*commerce.ProductDetail, error)
}

// Service serves the product catalog from a TTL cache.
type Service interface {
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, productID string) (*Product, error)
	// Lookup finds a cached product and the variant addressed by variantKey (variant id or SKU).
	Lookup(ctx context.Context, productID, variantKey string) (*Product, *Variant, error)
}

type service struct {
	source Source
	logg   *logger.Logger
	ttl    time.Duration
	now    func() time.Time

	group     singleflight.Group
	mu        sync.RWMutex
	products  []Product
	byID      map[string]int
	fetchedAt time.Time
}

// NewService builds a catalog service.
func NewService(source Source, logg *logger.Logger, ttl time.Duration) (Service, error) {
	if source == nil {
		return nil, fmt.Errorf("product source required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		source: source,
		logg:   logg,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

func (s *service) List(ctx context.Context) ([]Product, error) {
	products, _, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return append([]Product(nil), products...), nil
}

func (s *service) Get(ctx context.Context, productID string) (*Product, error) {
	detail, err := s.source.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return FromDetail(detail), nil
}

func (s *service) Lookup(ctx context.Context, productID, variantKey string) (*Product, *Variant, error) {
	products, byID, err := s.snapshot(ctx)
	if err != nil {
		return nil, nil, err
	}
	pos, ok := byID[productID]
	if !ok {
		return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	product := products[pos]
	if variantKey == "" {
		return &product, nil, nil
	}
	variant, ok := product.Variant(variantKey)
	if !ok {
		return &product, nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
	}
	v := *variant
	return &product, &v, nil
}

func (s *service) snapshot(ctx context.Context) ([]Product, map[string]int, error) {
	s.mu.RLock()
	if s.fresh() {
		products, byID := s.products, s.byID
		s.mu.RUnlock()
		return products, byID, nil
	}
	s.mu.RUnlock()

	_, err, shared := s.group.Do(refreshKey, func() (any, error) {
		return nil, s.refresh(ctx)
	})
	if err != nil {
		return nil, nil, err
	}
	if shared {
		s.logg.Debug(ctx, "catalog refresh shared with concurrent caller")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.products, s.byID, nil
}

func (s *service) fresh() bool {
	return s.ttl > 0 && !s.fetchedAt.IsZero() && s.now().Sub(s.fetchedAt) < s.ttl
}

func (s *service) refresh(ctx context.Context) error {
	rows, err := s.source.ListProducts(ctx)
	if err != nil {
		return err
	}
	products := Group(rows)
	byID := make(map[string]int, len(products))
	for i, p := range products {
		byID[p.ID] = i
	}

	s.mu.Lock()
	s.products = products
	s.byID = byID
	s.fetchedAt = s.now()
	s.mu.Unlock()

	s.logg.Info(s.logg.WithField(ctx, "products", len(products)), "catalog refreshed")
	return nil
}
