package checkout

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/angelmondragon/storefront/internal/address"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/voucher"
	"github.com/angelmondragon/storefront/pkg/auth"
	"github.com/angelmondragon/storefront/pkg/commerce"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

type tokenSource interface {
	Token(ctx context.Context, sessionID string) (string, bool, error)
}

type cartEngine interface {
	View(ctx context.Context, sessionID string) (*cart.View, error)
	Refresh(ctx context.Context, sessionID string) (*cart.View, error)
	ClearVoucher(ctx context.Context, sessionID string) (*cart.View, error)
}

type addressLister interface {
	List(ctx context.Context, token string) ([]address.Address, error)
}

type orderPlacer interface {
	CreateOrder(ctx context.Context, token string, req commerce.OrderRequest) (*commerce.OrderResponse, error)
}

// Service places orders for signed-in sessions.
type Service interface {
	PlaceOrder(ctx context.Context, sessionID string, input Input) (*Result, error)
}

// Input is what the customer picks on the order summary. AddressID zero selects the default address.
type Input struct {
	AddressID     int64
	PaymentMethod string
}

// Result describes a placed order. RedirectURL is set for wallet payments.
type Result struct {
	OrderID       string              `json:"order_id"`
	Status        string              `json:"status,omitempty"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	RedirectURL   string              `json:"redirect_url,omitempty"`
	Message       string              `json:"message,omitempty"`
	Address       address.Address     `json:"address"`
	Cart          *cart.View          `json:"cart,omitempty"`
}

type service struct {
	sessions  tokenSource
	cart      cartEngine
	addresses addressLister
	orders    orderPlacer
	logg      *logger.Logger
}

// NewService builds the checkout service.
func NewService(sessions tokenSource, engine cartEngine, addresses addressLister, orders orderPlacer, logg *logger.Logger) (Service, error) {
	if sessions == nil {
		return nil, fmt.Errorf("session store required")
	}
	if engine == nil {
		return nil, fmt.Errorf("cart engine required")
	}
	if addresses == nil {
		return nil, fmt.Errorf("address service required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		sessions:  sessions,
		cart:      engine,
		addresses: addresses,
		orders:    orders,
		logg:      logg,
	}, nil
}

func (s *service) PlaceOrder(ctx context.Context, sessionID string, input Input) (*Result, error) {
	method, err := enums.ParsePaymentMethod(input.PaymentMethod)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "payment method is required").
			WithDetails(map[string]any{"payment_method": input.PaymentMethod})
	}
	if input.AddressID < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address id must not be negative")
	}

	token, ok, err := s.sessions.Token(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session token")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to place an order")
	}
	customerID, err := customerFromToken(token)
	if err != nil {
		return nil, err
	}

	view, err := s.cart.View(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if view.Authority != cart.AuthorityServer {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to place an order")
	}
	items, err := orderItems(view.Items)
	if err != nil {
		return nil, err
	}

	addr, err := s.selectAddress(ctx, token, input.AddressID)
	if err != nil {
		return nil, err
	}

	req := commerce.OrderRequest{
		CustomerID:    customerID,
		AddressID:     addr.ID,
		Items:         items,
		PaymentMethod: method.String(),
	}
	if view.Voucher.State == voucher.StateApplied {
		code := view.Voucher.Code
		req.VoucherCode = &code
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"session_id":     sessionID,
		"customer_id":    customerID,
		"payment_method": method.String(),
		"line_count":     len(items),
	})

	resp, err := s.orders.CreateOrder(ctx, token, req)
	if err != nil {
		s.logg.Error(ctx, "order placement failed", err)
		return nil, err
	}

	result := &Result{
		OrderID:       resp.Order.OrderID.String(),
		Status:        resp.Order.Status,
		PaymentMethod: method,
		Message:       resp.Message,
		Address:       addr,
	}
	switch method {
	case enums.PaymentMethodVNPayQR:
		result.RedirectURL = resp.QRURL
	case enums.PaymentMethodMoMo:
		result.RedirectURL = resp.PayURL
	}
	if method.Redirects() && result.RedirectURL == "" {
		s.logg.Warn(s.logg.WithField(ctx, "order_id", result.OrderID), "wallet payment returned no redirect url")
	}
	s.logg.Info(s.logg.WithField(ctx, "order_id", result.OrderID), "order placed")

	if _, err := s.cart.ClearVoucher(ctx, sessionID); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "clearing voucher after order failed")
	}
	refreshed, err := s.cart.Refresh(ctx, sessionID)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "refreshing cart after order failed")
	}
	result.Cart = refreshed
	return result, nil
}

func (s *service) selectAddress(ctx context.Context, token string, id int64) (address.Address, error) {
	list, err := s.addresses.List(ctx, token)
	if err != nil {
		return address.Address{}, err
	}
	if id == 0 {
		addr, ok := address.Default(list)
		if !ok {
			return address.Address{}, pkgerrors.New(pkgerrors.CodeValidation, "add a shipping address before placing an order")
		}
		return addr, nil
	}
	addr, ok := address.Find(list, id)
	if !ok {
		return address.Address{}, pkgerrors.New(pkgerrors.CodeValidation, "selected address is not available").
			WithDetails(map[string]any{"address_id": id})
	}
	return addr, nil
}

func customerFromToken(token string) (int64, error) {
	claims, err := auth.ParseAccessToken(token)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid access token")
	}
	id, ok := claims.Customer()
	if !ok {
		return 0, pkgerrors.New(pkgerrors.CodeUnauthorized, "access token carries no customer")
	}
	return id, nil
}

func orderItems(lines []cart.LineItem) ([]commerce.OrderItem, error) {
	items := make([]commerce.OrderItem, 0, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSpace(line.VariantID), 10, 64)
		if err != nil || id <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "cart line has no variant id").
				WithDetails(map[string]any{"key": line.Key})
		}
		items = append(items, commerce.OrderItem{VariantID: id, Quantity: line.Quantity})
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	return items, nil
}
