package commerce

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

// CartMutation is the body of POST /cart/add and PATCH /cart/update.
type CartMutation struct {
	VariantID int64 `json:"variantId"`
	Quantity  int   `json:"quantity"`
}

// GetCart fetches the authenticated customer's cart.
func (c *Client) GetCart(ctx context.Context, token string) (*Cart, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	var cart Cart
	if err := c.do(ctx, call{endpoint: "cart.get", method: http.MethodGet, path: "cart", token: token}, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// AddToCart adds quantity units of the variant to the server cart.
func (c *Client) AddToCart(ctx context.Context, token string, req CartMutation) error {
	if err := requireToken(token); err != nil {
		return err
	}
	if req.VariantID <= 0 || req.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "variantId and a positive quantity are required")
	}
	return c.do(ctx, call{endpoint: "cart.add", method: http.MethodPost, path: "cart/add", token: token, body: req}, nil)
}

// UpdateCartItem sets the variant quantity on the server cart.
func (c *Client) UpdateCartItem(ctx context.Context, token string, req CartMutation) error {
	if err := requireToken(token); err != nil {
		return err
	}
	if req.VariantID <= 0 || req.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "variantId and a positive quantity are required")
	}
	return c.do(ctx, call{endpoint: "cart.update", method: http.MethodPatch, path: "cart/update", token: token, body: req}, nil)
}

// RemoveCartItem deletes the variant line from the server cart.
func (c *Client) RemoveCartItem(ctx context.Context, token string, variantID int64) error {
	if err := requireToken(token); err != nil {
		return err
	}
	if variantID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "variantId is required")
	}
	path := "cart/" + strconv.FormatInt(variantID, 10)
	return c.do(ctx, call{endpoint: "cart.remove", method: http.MethodDelete, path: path, token: token}, nil)
}

func requireToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "access token is required")
	}
	return nil
}
