package commerce

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

type productListEnvelope struct {
	Success bool         `json:"success"`
	Data    []ProductRow `json:"data"`
}

type productEnvelope struct {
	Success bool           `json:"success"`
	Data    *ProductDetail `json:"data"`
}

// ListProducts fetches the flattened product/variant rows.
func (c *Client) ListProducts(ctx context.Context) ([]ProductRow, error) {
	var env productListEnvelope
	if err := c.do(ctx, call{endpoint: "products.list", method: http.MethodGet, path: "products"}, &env); err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, pkgerrors.New(pkgerrors.CodeUpstream, "failed to fetch products")
	}
	return env.Data, nil
}

// GetProduct fetches a single product with its variants.
func (c *Client) GetProduct(ctx context.Context, productID string) (*ProductDetail, error) {
	trimmed := strings.TrimSpace(productID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	var env productEnvelope
	path := "products/" + url.PathEscape(trimmed)
	if err := c.do(ctx, call{endpoint: "products.get", method: http.MethodGet, path: path}, &env); err != nil {
		return nil, err
	}
	if !env.Success || env.Data == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return env.Data, nil
}

// ListActiveVouchers fetches GET /vouchers/active/list. The backend answers either
// with a bare array or with {"data": [...]}.
func (c *Client) ListActiveVouchers(ctx context.Context) ([]Voucher, error) {
	var raw json.RawMessage
	if err := c.do(ctx, call{endpoint: "vouchers.list", method: http.MethodGet, path: "vouchers/active/list"}, &raw); err != nil {
		return nil, err
	}

	var list []Voucher
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var env struct {
		Data []Voucher `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode vouchers.list response")
	}
	return env.Data, nil
}

// ListAddresses fetches the customer's addresses.
func (c *Client) ListAddresses(ctx context.Context, token string) ([]Address, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	var addresses []Address
	if err := c.do(ctx, call{endpoint: "addresses.list", method: http.MethodGet, path: "addresses", token: token}, &addresses); err != nil {
		return nil, err
	}
	return addresses, nil
}

// CreateOrder submits the order.
func (c *Client) CreateOrder(ctx context.Context, token string, req OrderRequest) (*OrderResponse, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	var resp OrderResponse
	if err := c.do(ctx, call{endpoint: "orders.create", method: http.MethodPost, path: "orders", token: token, body: req}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
