package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

type sessionSwitcher interface {
	Login(ctx context.Context, sessionID, token string) (*cart.View, error)
	Logout(ctx context.Context, sessionID string) (*cart.View, error)
}

type attachTokenRequest struct {
	AccessToken string `json:"access_token"`
}

func parseBearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return ""
}

// SessionAttach attaches an access token to the session, switching its cart to the server.
// The token comes from the body or, when the body is empty, the Authorization header.
func SessionAttach(engine sessionSwitcher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, errors.New(errors.CodeInternal, "cart engine unavailable"))
			return
		}

		token := parseBearerToken(r)
		if r.ContentLength != 0 {
			var payload attachTokenRequest
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if t := strings.TrimSpace(payload.AccessToken); t != "" {
				token = t
			}
		}
		if token == "" {
			responses.WriteError(r.Context(), logg, w, errors.New(errors.CodeValidation, "access_token is required").
				WithDetails(map[string]string{"access_token": "is required"}))
			return
		}

		view, err := engine.Login(r.Context(), middleware.SessionIDFromContext(r.Context()), token)
		if err != nil {
			responses.WriteErrorWithData(r.Context(), logg, w, err, view)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// SessionDetach detaches the token. The server cart is dropped and the guest cart shown again.
func SessionDetach(engine sessionSwitcher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, errors.New(errors.CodeInternal, "cart engine unavailable"))
			return
		}

		view, err := engine.Logout(r.Context(), middleware.SessionIDFromContext(r.Context()))
		if err != nil {
			responses.WriteErrorWithData(r.Context(), logg, w, err, view)
			return
		}
		responses.WriteSuccess(w, view)
	}
}
