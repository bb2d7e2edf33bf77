package commerce

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

// CreateAddress adds a shipping address to the customer's book. The reply may omit
// the created record, in which case the returned address is nil.
func (c *Client) CreateAddress(ctx context.Context, token string, req AddressInput) (*Address, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := c.do(ctx, call{endpoint: "addresses.create", method: http.MethodPost, path: "addresses", token: token, body: req}, &raw); err != nil {
		return nil, err
	}
	var created Address
	if err := unwrapData("addresses.create", raw, &created); err != nil {
		return nil, err
	}
	if created.AddressID.String() == "" {
		return nil, nil
	}
	return &created, nil
}

// GetUser fetches the account record behind userID.
func (c *Client) GetUser(ctx context.Context, token, userID string) (*User, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(userID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	var raw json.RawMessage
	path := "users/" + url.PathEscape(trimmed)
	if err := c.do(ctx, call{endpoint: "users.get", method: http.MethodGet, path: path, token: token}, &raw); err != nil {
		return nil, err
	}
	var user User
	if err := unwrapData("users.get", raw, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile saves the signed-in user's profile fields.
func (c *Client) UpdateProfile(ctx context.Context, token string, req ProfileUpdate) error {
	if err := requireToken(token); err != nil {
		return err
	}
	var raw json.RawMessage
	if err := c.do(ctx, call{endpoint: "users.profile", method: http.MethodPut, path: "users/profile", token: token, body: req}, &raw); err != nil {
		return err
	}
	var ignored json.RawMessage
	return unwrapData("users.profile", raw, &ignored)
}
