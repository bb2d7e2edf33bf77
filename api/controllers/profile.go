package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/internal/profile"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

type profileService interface {
	Get(ctx context.Context, token string) (*profile.Profile, error)
	Update(ctx context.Context, token string, input profile.Update) (*profile.Profile, error)
}

type profileUpdateRequest struct {
	FullName string `json:"full_name" validate:"required,max=120"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone" validate:"omitempty,max=20"`
	Birthday string `json:"birthday" validate:"omitempty,datetime=2006-01-02"`
	Gender   string `json:"gender" validate:"omitempty,oneof=male female other"`
}

func ProfileFetch(tokens tokenLookup, svc profileService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if tokens == nil || svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "profile service unavailable"))
			return
		}

		token, err := sessionToken(r, tokens, "sign in to manage your profile")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		p, err := svc.Get(r.Context(), token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, p)
	}
}

func ProfileUpdate(tokens tokenLookup, svc profileService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if tokens == nil || svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "profile service unavailable"))
			return
		}

		token, err := sessionToken(r, tokens, "sign in to manage your profile")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload profileUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		p, err := svc.Update(r.Context(), token, profile.Update{
			FullName: payload.FullName,
			Email:    payload.Email,
			Phone:    payload.Phone,
			Birthday: payload.Birthday,
			Gender:   payload.Gender,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, p)
	}
}
