package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/internal/address"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

type tokenLookup interface {
	Token(ctx context.Context, sessionID string) (string, bool, error)
}

// sessionToken returns the access token attached to the request's session.
func sessionToken(r *http.Request, tokens tokenLookup, denied string) (string, error) {
	token, ok, err := tokens.Token(r.Context(), middleware.SessionIDFromContext(r.Context()))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session token")
	}
	if !ok {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, denied)
	}
	return token, nil
}

type addressLister interface {
	List(ctx context.Context, token string) ([]address.Address, error)
}

type addressCreator interface {
	Create(ctx context.Context, token string, input address.NewAddress) (*address.Address, error)
}

type addressListResponse struct {
	Addresses []address.Address `json:"addresses"`
	DefaultID int64             `json:"default_address_id,omitempty"`
}

type addressCreateRequest struct {
	ConsigneeName  string `json:"consignee_name" validate:"required,max=120"`
	ConsigneePhone string `json:"consignee_phone" validate:"required,max=20"`
	Province       string `json:"province" validate:"required"`
	District       string `json:"district" validate:"required"`
	Ward           string `json:"ward" validate:"required"`
	Street         string `json:"street" validate:"required"`
	HouseNum       string `json:"house_num" validate:"required"`
	IsDefault      bool   `json:"is_default"`
}

func AddressList(tokens tokenLookup, svc addressLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if tokens == nil || svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}

		token, err := sessionToken(r, tokens, "sign in to manage addresses")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := addressListResponse{Addresses: list}
		if def, ok := address.Default(list); ok {
			resp.DefaultID = def.ID
		}
		responses.WriteSuccess(w, resp)
	}
}

func AddressCreate(tokens tokenLookup, svc addressCreator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if tokens == nil || svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}

		token, err := sessionToken(r, tokens, "sign in to manage addresses")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addressCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), token, address.NewAddress{
			ConsigneeName: payload.ConsigneeName,
			Phone:         payload.ConsigneePhone,
			Province:      payload.Province,
			District:      payload.District,
			Ward:          payload.Ward,
			Street:        payload.Street,
			HouseNum:      payload.HouseNum,
			IsDefault:     payload.IsDefault,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}
