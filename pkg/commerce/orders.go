package commerce

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

// ListMyOrders fetches the signed-in customer's order history.
func (c *Client) ListMyOrders(ctx context.Context, token string) ([]Order, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := c.do(ctx, call{endpoint: "orders.mine", method: http.MethodGet, path: "orders/my-orders", token: token}, &raw); err != nil {
		return nil, err
	}
	var orders []Order
	if err := unwrapData("orders.mine", raw, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetOrder fetches one order with its lines and recipient.
func (c *Client) GetOrder(ctx context.Context, token, orderID string) (*Order, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	path, err := orderPath(orderID)
	if err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := c.do(ctx, call{endpoint: "orders.get", method: http.MethodGet, path: path, token: token}, &raw); err != nil {
		return nil, err
	}
	var order Order
	if err := unwrapData("orders.get", raw, &order); err != nil {
		return nil, err
	}
	if order.OrderID.String() == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return &order, nil
}

// PayOrder restarts payment for an unpaid order. PaymentURL is empty when the
// backend settled it without a redirect.
func (c *Client) PayOrder(ctx context.Context, token, orderID string) (*Payment, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	path, err := orderPath(orderID)
	if err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := c.do(ctx, call{endpoint: "orders.pay", method: http.MethodPost, path: path + "/pay", token: token}, &raw); err != nil {
		return nil, err
	}
	var payment Payment
	if err := unwrapData("orders.pay", raw, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

func orderPath(orderID string) (string, error) {
	trimmed := strings.TrimSpace(orderID)
	if trimmed == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	return "orders/" + url.PathEscape(trimmed), nil
}

// unwrapData decodes raw into out, accepting both {"success":..,"data":X} and a bare X.
// An envelope that reports success=false is an upstream error.
func unwrapData(endpoint string, raw json.RawMessage, out any) error {
	var env struct {
		Success *bool           `json:"success"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err == nil {
		if env.Success != nil && !*env.Success {
			message := env.Message
			if message == "" {
				message = endpoint + " request failed"
			}
			return pkgerrors.New(pkgerrors.CodeUpstream, message)
		}
		if len(env.Data) > 0 && string(env.Data) != "null" {
			raw = env.Data
		}
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode "+endpoint+" response")
	}
	return nil
}
