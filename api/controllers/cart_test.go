package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/internal/cart"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type stubEngine struct {
	view      *cart.View
	err       error
	addInput  cart.AddInput
	setInput  cart.QuantityInput
	removed   string
	code      string
	sessionID string
	token     string
}

func (s *stubEngine) View(ctx context.Context, sessionID string) (*cart.View, error) {
	s.sessionID = sessionID
	return s.view, s.err
}

func (s *stubEngine) Add(ctx context.Context, sessionID string, input cart.AddInput) (*cart.View, error) {
	s.sessionID = sessionID
	s.addInput = input
	return s.view, s.err
}

func (s *stubEngine) SetQuantity(ctx context.Context, sessionID string, input cart.QuantityInput) (*cart.View, error) {
	s.setInput = input
	return s.view, s.err
}

func (s *stubEngine) Remove(ctx context.Context, sessionID, key string) (*cart.View, error) {
	s.removed = key
	return s.view, s.err
}

func (s *stubEngine) ApplyVoucher(ctx context.Context, sessionID, code string) (*cart.View, error) {
	s.code = code
	return s.view, s.err
}

func (s *stubEngine) ClearVoucher(ctx context.Context, sessionID string) (*cart.View, error) {
	return s.view, s.err
}

func (s *stubEngine) Login(ctx context.Context, sessionID, token string) (*cart.View, error) {
	s.token = token
	return s.view, s.err
}

func (s *stubEngine) Logout(ctx context.Context, sessionID string) (*cart.View, error) {
	return s.view, s.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
}

func sessionRequest(method, target, body string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	return req.WithContext(middleware.WithSessionID(req.Context(), "sess-0001"))
}

func sampleView() *cart.View {
	return &cart.View{SessionID: "sess-0001", Authority: cart.AuthorityGuest, Items: []cart.LineItem{{Key: "1_a", Quantity: 2}}, Count: 2}
}

func TestCartFetchSuccess(t *testing.T) {
	engine := &stubEngine{view: sampleView()}
	rec := httptest.NewRecorder()
	CartFetch(engine, testLogger()).ServeHTTP(rec, sessionRequest(http.MethodGet, "/api/v1/cart", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if engine.sessionID != "sess-0001" {
		t.Fatalf("session id not forwarded: %q", engine.sessionID)
	}

	var envelope struct {
		Data cart.View `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Count != 2 || envelope.Data.Items[0].Key != "1_a" {
		t.Fatalf("unexpected cart %+v", envelope.Data)
	}
}

func TestCartAddItemForwardsInput(t *testing.T) {
	engine := &stubEngine{view: sampleView()}
	rec := httptest.NewRecorder()
	body := `{"product_id":"1","sku":"tee-m","quantity":2}`
	CartAddItem(engine, testLogger()).ServeHTTP(rec, sessionRequest(http.MethodPost, "/api/v1/cart/items", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	want := cart.AddInput{ProductID: "1", SKU: "tee-m", Quantity: 2}
	if engine.addInput != want {
		t.Fatalf("unexpected input %+v", engine.addInput)
	}
}

func TestCartAddItemValidation(t *testing.T) {
	cases := map[string]string{
		"missing product":   `{"quantity":1}`,
		"negative quantity": `{"product_id":"1","quantity":-1}`,
		"variant not num":   `{"variant_id":"abc"}`,
		"unknown field":     `{"product_id":"1","price":10}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			CartAddItem(&stubEngine{}, testLogger()).ServeHTTP(rec, sessionRequest(http.MethodPost, "/api/v1/cart/items", body))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400 got %d", rec.Code)
			}
		})
	}
}

func TestCartMutationFailureReturnsUnchangedCart(t *testing.T) {
	engine := &stubEngine{view: sampleView(), err: pkgerrors.New(pkgerrors.CodeDependency, "could not add the item to your cart")}
	rec := httptest.NewRecorder()
	CartAddItem(engine, testLogger()).ServeHTTP(rec, sessionRequest(http.MethodPost, "/api/v1/cart/items", `{"product_id":"1"}`))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", rec.Code)
	}
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
		Data cart.View `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeDependency) || envelope.Data.Count != 2 {
		t.Fatalf("unexpected envelope %+v", envelope)
	}
}

func TestCartUpdateItemRequiresQuantity(t *testing.T) {
	engine := &stubEngine{view: sampleView()}

	rec := httptest.NewRecorder()
	CartUpdateItem(engine, testLogger()).ServeHTTP(rec, sessionRequest(http.MethodPatch, "/api/v1/cart/items", `{"key":"1_a"}`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	CartUpdateItem(engine, testLogger()).ServeHTTP(rec, sessionRequest(http.MethodPatch, "/api/v1/cart/items", `{"key":"1_a","quantity":0}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if engine.setInput.Key != "1_a" || engine.setInput.Quantity != 0 {
		t.Fatalf("unexpected input %+v", engine.setInput)
	}
}

func TestCartRemoveItemUsesKeyParam(t *testing.T) {
	engine := &stubEngine{view: sampleView()}
	req := sessionRequest(http.MethodDelete, "/api/v1/cart/items/7_tee%20m", "")
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("key", "7_tee%20m")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rec := httptest.NewRecorder()
	CartRemoveItem(engine, testLogger()).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if engine.removed != "7_tee m" {
		t.Fatalf("unexpected key %q", engine.removed)
	}
}

func TestCartApplyVoucherSanitizesCode(t *testing.T) {
	engine := &stubEngine{view: sampleView()}
	rec := httptest.NewRecorder()
	CartApplyVoucher(engine, testLogger()).ServeHTTP(rec, sessionRequest(http.MethodPut, "/api/v1/cart/voucher", `{"code":"  SALE10 "}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if engine.code != "SALE10" {
		t.Fatalf("unexpected code %q", engine.code)
	}
}

func TestCartHandlersWithoutEngine(t *testing.T) {
	rec := httptest.NewRecorder()
	CartFetch(nil, testLogger()).ServeHTTP(rec, sessionRequest(http.MethodGet, "/api/v1/cart", ""))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rec.Code)
	}
}
