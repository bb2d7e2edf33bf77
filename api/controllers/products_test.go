package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/storefront/internal/catalog"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/go-chi/chi/v5"
)

type stubCatalog struct {
	products []catalog.Product
	err      error
}

func (s stubCatalog) List(ctx context.Context) ([]catalog.Product, error) {
	return s.products, s.err
}

func (s stubCatalog) Get(ctx context.Context, productID string) (*catalog.Product, error) {
	for i := range s.products {
		if s.products[i].ID == productID {
			return &s.products[i], nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

func TestProductDetailNotFound(t *testing.T) {
	svc := stubCatalog{products: []catalog.Product{{ID: "1", Name: "Tee"}}}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/9", nil)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("productId", "9")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rec := httptest.NewRecorder()
	ProductDetail(svc, testLogger()).ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}

func TestProductListEmptyIsArray(t *testing.T) {
	rec := httptest.NewRecorder()
	ProductList(stubCatalog{}, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if got := rec.Body.String(); got != "{\"data\":[]}\n" {
		t.Fatalf("unexpected body %q", got)
	}
}
