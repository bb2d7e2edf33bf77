package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront/pkg/commerce"
	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// Source is the backend order API.
type Source interface {
	ListMyOrders(ctx context.Context, token string) ([]commerce.Order, error)
	GetOrder(ctx context.Context, token, orderID string) (*commerce.Order, error)
	PayOrder(ctx context.Context, token, orderID string) (*commerce.Payment, error)
}

// Service reads a signed-in customer's orders and restarts unpaid payments.
type Service interface {
	List(ctx context.Context, token, status string) ([]Order, error)
	Get(ctx context.Context, token, orderID string) (*Order, error)
	Repay(ctx context.Context, token, orderID string) (*Payment, error)
}

type service struct {
	source   Source
	currency string
	loc      *time.Location
	logg     *logger.Logger
}

func NewService(source Source, currency string, loc *time.Location, logg *logger.Logger) (Service, error) {
	if source == nil {
		return nil, fmt.Errorf("order source required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &service{source: source, currency: currency, loc: loc, logg: logg}, nil
}

// List returns the order history in backend order, optionally narrowed to one status.
func (s *service) List(ctx context.Context, token, status string) ([]Order, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New(errors.CodeUnauthorized, "sign in to see your orders")
	}

	var filter enums.OrderStatus
	if strings.TrimSpace(status) != "" {
		parsed, err := enums.ParseOrderStatus(status)
		if err != nil {
			return nil, errors.Wrap(errors.CodeValidation, err, "invalid status filter")
		}
		filter = parsed
	}

	records, err := s.source.ListMyOrders(ctx, token)
	if err != nil {
		return nil, err
	}

	out := make([]Order, 0, len(records))
	for _, rec := range records {
		if rec.OrderID.String() == "" {
			s.logg.Warn(ctx, "dropping order without id")
			continue
		}
		order := FromRecord(rec, s.currency, s.loc)
		if filter != "" && order.Status != filter {
			continue
		}
		out = append(out, order)
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, token, orderID string) (*Order, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New(errors.CodeUnauthorized, "sign in to see your orders")
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, errors.New(errors.CodeValidation, "order id is required")
	}

	rec, err := s.source.GetOrder(ctx, token, orderID)
	if err != nil {
		return nil, err
	}
	order := FromRecord(*rec, s.currency, s.loc)
	return &order, nil
}

// Repay restarts payment for an open order whose payment is still pending.
func (s *service) Repay(ctx context.Context, token, orderID string) (*Payment, error) {
	order, err := s.Get(ctx, token, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Repayable {
		return nil, errors.New(errors.CodeConflict, "order is not awaiting payment")
	}

	paid, err := s.source.PayOrder(ctx, token, order.ID)
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithField(ctx, "order_id", order.ID)
	s.logg.Info(ctx, "order payment restarted")
	return &Payment{
		OrderID:     order.ID,
		RedirectURL: strings.TrimSpace(paid.PaymentURL),
		Message:     paid.Message,
	}, nil
}
