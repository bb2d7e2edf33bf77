package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/angelmondragon/storefront/internal/address"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/voucher"
	"github.com/angelmondragon/storefront/pkg/commerce"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
)

type stubTokens struct {
	token string
}

func (s stubTokens) Token(ctx context.Context, sessionID string) (string, bool, error) {
	return s.token, s.token != "", nil
}

type stubCart struct {
	view         *cart.View
	refreshed    int
	voucherClear int
}

func (s *stubCart) View(ctx context.Context, sessionID string) (*cart.View, error) {
	return s.view, nil
}

func (s *stubCart) Refresh(ctx context.Context, sessionID string) (*cart.View, error) {
	s.refreshed++
	return &cart.View{SessionID: sessionID, Authority: cart.AuthorityServer, Items: []cart.LineItem{}}, nil
}

func (s *stubCart) ClearVoucher(ctx context.Context, sessionID string) (*cart.View, error) {
	s.voucherClear++
	return s.view, nil
}

type stubAddresses struct {
	list []address.Address
}

func (s stubAddresses) List(ctx context.Context, token string) ([]address.Address, error) {
	return s.list, nil
}

type stubOrders struct {
	req  commerce.OrderRequest
	resp *commerce.OrderResponse
	err  error
}

func (s *stubOrders) CreateOrder(ctx context.Context, token string, req commerce.OrderRequest) (*commerce.OrderResponse, error) {
	s.req = req
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func mintToken(t *testing.T, customerID string) string {
	t.Helper()
	claims := jwt.MapClaims{"customer_id": json.Number(customerID)}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func serverView(app voucher.Application) *cart.View {
	return &cart.View{
		SessionID: "s1",
		Authority: cart.AuthorityServer,
		Items: []cart.LineItem{
			{Key: "1_11", VariantID: "11", Quantity: 2, LineSubtotal: decimal.NewFromInt(400000), PriceKnown: true},
			{Key: "2_21", VariantID: "21", Quantity: 1, LineSubtotal: decimal.NewFromInt(100000), PriceKnown: true},
		},
		Count:   3,
		Voucher: app,
	}
}

type fixture struct {
	svc    Service
	cart   *stubCart
	orders *stubOrders
}

func newFixture(t *testing.T, token string, view *cart.View) *fixture {
	t.Helper()
	fx := &fixture{
		cart: &stubCart{view: view},
		orders: &stubOrders{resp: &commerce.OrderResponse{
			QRURL:  "https://pay.vnpay/qr",
			PayURL: "https://momo/pay",
		}},
	}
	fx.orders.resp.Order.OrderID = json.Number("501")
	fx.orders.resp.Order.Status = "PENDING"

	addresses := stubAddresses{list: []address.Address{{ID: 3, IsDefault: true}, {ID: 4}}}
	svc, err := NewService(stubTokens{token: token}, fx.cart, addresses, fx.orders, logger.Nop())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	fx.svc = svc
	return fx
}

func TestPlaceOrderBuildsBackendRequest(t *testing.T) {
	applied := voucher.Application{State: voucher.StateApplied, Code: "BIG", Discount: decimal.NewFromInt(100000)}
	fx := newFixture(t, mintToken(t, "42"), serverView(applied))

	res, err := fx.svc.PlaceOrder(context.Background(), "s1", Input{PaymentMethod: "VNPAY_QR"})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	req := fx.orders.req
	if req.CustomerID != 42 || req.AddressID != 3 || req.PaymentMethod != "VNPAY_QR" {
		t.Fatalf("unexpected request %+v", req)
	}
	if len(req.Items) != 2 || req.Items[0].VariantID != 11 || req.Items[0].Quantity != 2 {
		t.Fatalf("unexpected items %+v", req.Items)
	}
	if req.VoucherCode == nil || *req.VoucherCode != "BIG" {
		t.Fatalf("expected applied voucher code, got %v", req.VoucherCode)
	}
	if res.OrderID != "501" || res.RedirectURL != "https://pay.vnpay/qr" {
		t.Fatalf("unexpected result %+v", res)
	}
	if fx.cart.refreshed != 1 || fx.cart.voucherClear != 1 {
		t.Fatalf("expected cart refresh and voucher clear, got %d/%d", fx.cart.refreshed, fx.cart.voucherClear)
	}
	if res.Cart == nil || len(res.Cart.Items) != 0 {
		t.Fatalf("expected refreshed cart, got %+v", res.Cart)
	}
}

func TestPlaceOrderRedirectByMethod(t *testing.T) {
	cases := map[string]string{
		"MOMO":          "https://momo/pay",
		"COD":           "",
		"BANK_TRANSFER": "",
	}
	for method, want := range cases {
		fx := newFixture(t, mintToken(t, "42"), serverView(voucher.None()))
		res, err := fx.svc.PlaceOrder(context.Background(), "s1", Input{AddressID: 4, PaymentMethod: method})
		if err != nil {
			t.Fatalf("%s: %v", method, err)
		}
		if res.RedirectURL != want {
			t.Fatalf("%s: expected redirect %q, got %q", method, want, res.RedirectURL)
		}
		if fx.orders.req.VoucherCode != nil {
			t.Fatalf("%s: voucher sent without an applied voucher", method)
		}
		if fx.orders.req.AddressID != 4 {
			t.Fatalf("%s: expected chosen address, got %d", method, fx.orders.req.AddressID)
		}
	}
}

func TestPlaceOrderRejectsRejectedVoucherCode(t *testing.T) {
	rejected := voucher.Application{State: voucher.StateRejected, Code: "BIG", Reason: voucher.ReasonBelowMinimum}
	fx := newFixture(t, mintToken(t, "42"), serverView(rejected))

	if _, err := fx.svc.PlaceOrder(context.Background(), "s1", Input{PaymentMethod: "COD"}); err != nil {
		t.Fatalf("place order: %v", err)
	}
	if fx.orders.req.VoucherCode != nil {
		t.Fatal("rejected voucher must not be sent")
	}
}

func TestPlaceOrderValidation(t *testing.T) {
	token := mintToken(t, "42")

	cases := []struct {
		name  string
		token string
		view  *cart.View
		input Input
		code  pkgerrors.Code
	}{
		{"unknown method", token, serverView(voucher.None()), Input{PaymentMethod: "CARD"}, pkgerrors.CodeValidation},
		{"guest session", "", serverView(voucher.None()), Input{PaymentMethod: "COD"}, pkgerrors.CodeUnauthorized},
		{"token without customer", mintToken(t, "0"), serverView(voucher.None()), Input{PaymentMethod: "COD"}, pkgerrors.CodeUnauthorized},
		{"empty cart", token, &cart.View{Authority: cart.AuthorityServer}, Input{PaymentMethod: "COD"}, pkgerrors.CodeValidation},
		{"guest authority", token, &cart.View{Authority: cart.AuthorityGuest}, Input{PaymentMethod: "COD"}, pkgerrors.CodeUnauthorized},
		{"unknown address", token, serverView(voucher.None()), Input{AddressID: 99, PaymentMethod: "COD"}, pkgerrors.CodeValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fx := newFixture(t, tc.token, tc.view)
			_, err := fx.svc.PlaceOrder(context.Background(), "s1", tc.input)
			if !pkgerrors.HasCode(err, tc.code) {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
			if fx.orders.req.PaymentMethod != "" {
				t.Fatal("order must not be sent")
			}
		})
	}
}

func TestPlaceOrderBackendFailureKeepsCart(t *testing.T) {
	fx := newFixture(t, mintToken(t, "42"), serverView(voucher.None()))
	fx.orders.err = pkgerrors.Wrap(pkgerrors.CodeUpstream, errors.New("out of stock"), "create order")

	_, err := fx.svc.PlaceOrder(context.Background(), "s1", Input{PaymentMethod: "COD"})
	if !pkgerrors.HasCode(err, pkgerrors.CodeUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if fx.cart.refreshed != 0 {
		t.Fatal("cart must not be refreshed after a failed order")
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(nil, nil, nil, nil, nil); err == nil {
		t.Fatal("expected error")
	}
}
