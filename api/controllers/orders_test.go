package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/storefront/internal/orders"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/go-chi/chi/v5"
)

type stubOrderHistory struct {
	token   string
	status  string
	orderID string
	list    []orders.Order
	err     error
}

func (s *stubOrderHistory) List(ctx context.Context, token, status string) ([]orders.Order, error) {
	s.token, s.status = token, status
	return s.list, s.err
}

func (s *stubOrderHistory) Get(ctx context.Context, token, orderID string) (*orders.Order, error) {
	s.token, s.orderID = token, orderID
	if s.err != nil {
		return nil, s.err
	}
	return &orders.Order{ID: orderID, Status: enums.OrderStatusPending}, nil
}

func (s *stubOrderHistory) Repay(ctx context.Context, token, orderID string) (*orders.Payment, error) {
	s.token, s.orderID = token, orderID
	if s.err != nil {
		return nil, s.err
	}
	return &orders.Payment{OrderID: orderID, RedirectURL: "https://pay.test/" + orderID}, nil
}

func withOrderID(req *http.Request, id string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("orderId", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestOrderListForwardsStatusFilter(t *testing.T) {
	svc := &stubOrderHistory{list: []orders.Order{{ID: "41", Status: enums.OrderStatusDelivered}}}
	rec := httptest.NewRecorder()
	OrderList(stubTokenLookup{token: "tok"}, svc, testLogger()).ServeHTTP(rec, sessionRequest(http.MethodGet, "/api/v1/orders?status=delivered", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.token != "tok" || svc.status != "delivered" {
		t.Fatalf("unexpected call %q %q", svc.token, svc.status)
	}
	var envelope struct {
		Data []orders.Order `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(envelope.Data) != 1 || envelope.Data[0].ID != "41" {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
}

func TestOrderRoutesRequireSignIn(t *testing.T) {
	svc := &stubOrderHistory{}
	handlers := map[string]http.HandlerFunc{
		"list":   OrderList(stubTokenLookup{}, svc, testLogger()),
		"detail": OrderDetail(stubTokenLookup{}, svc, testLogger()),
		"repay":  OrderRepay(stubTokenLookup{}, svc, testLogger()),
	}
	for name, h := range handlers {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, withOrderID(sessionRequest(http.MethodGet, "/api/v1/orders/41", ""), "41"))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 got %d", name, rec.Code)
		}
	}
	if svc.token != "" {
		t.Fatal("service must not be called without a token")
	}
}

func TestOrderDetailUsesPathID(t *testing.T) {
	svc := &stubOrderHistory{}
	rec := httptest.NewRecorder()
	OrderDetail(stubTokenLookup{token: "tok"}, svc, testLogger()).ServeHTTP(rec, withOrderID(sessionRequest(http.MethodGet, "/api/v1/orders/41", ""), "41"))

	if rec.Code != http.StatusOK || svc.orderID != "41" {
		t.Fatalf("unexpected response %d for order %q", rec.Code, svc.orderID)
	}
}

func TestOrderRepayReturnsRedirect(t *testing.T) {
	svc := &stubOrderHistory{}
	rec := httptest.NewRecorder()
	OrderRepay(stubTokenLookup{token: "tok"}, svc, testLogger()).ServeHTTP(rec, withOrderID(sessionRequest(http.MethodPost, "/api/v1/orders/41/pay", ""), "41"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var envelope struct {
		Data orders.Payment `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.RedirectURL != "https://pay.test/41" {
		t.Fatalf("unexpected payment %+v", envelope.Data)
	}
}

func TestOrderRepayConflict(t *testing.T) {
	svc := &stubOrderHistory{err: pkgerrors.New(pkgerrors.CodeConflict, "order is not awaiting payment")}
	rec := httptest.NewRecorder()
	OrderRepay(stubTokenLookup{token: "tok"}, svc, testLogger()).ServeHTTP(rec, withOrderID(sessionRequest(http.MethodPost, "/api/v1/orders/41/pay", ""), "41"))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", rec.Code)
	}
}
