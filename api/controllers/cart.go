package controllers

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/internal/cart"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/go-chi/chi/v5"
)

const maxVoucherCodeLen = 64

type cartEngine interface {
	View(ctx context.Context, sessionID string) (*cart.View, error)
	Add(ctx context.Context, sessionID string, input cart.AddInput) (*cart.View, error)
	SetQuantity(ctx context.Context, sessionID string, input cart.QuantityInput) (*cart.View, error)
	Remove(ctx context.Context, sessionID, key string) (*cart.View, error)
	ApplyVoucher(ctx context.Context, sessionID, code string) (*cart.View, error)
	ClearVoucher(ctx context.Context, sessionID string) (*cart.View, error)
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id" validate:"omitempty,numeric"`
	SKU       string `json:"sku"`
	Quantity  int    `json:"quantity" validate:"gte=0,lte=999"`
}

type updateItemRequest struct {
	Key       string `json:"key" validate:"required_without=VariantID"`
	VariantID string `json:"variant_id" validate:"omitempty,numeric"`
	Quantity  *int   `json:"quantity" validate:"required,gte=0,lte=999"`
}

type voucherRequest struct {
	Code string `json:"code" validate:"required"`
}

// writeCart answers with the cart view; on failure the unchanged cart rides along with the error.
func writeCart(w http.ResponseWriter, r *http.Request, logg *logger.Logger, view *cart.View, err error) {
	if err != nil {
		responses.WriteErrorWithData(r.Context(), logg, w, err, view)
		return
	}
	responses.WriteSuccess(w, view)
}

func CartFetch(engine cartEngine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart engine unavailable"))
			return
		}
		view, err := engine.View(r.Context(), middleware.SessionIDFromContext(r.Context()))
		writeCart(w, r, logg, view, err)
	}
}

func CartAddItem(engine cartEngine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart engine unavailable"))
			return
		}
		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if strings.TrimSpace(payload.ProductID) == "" && strings.TrimSpace(payload.VariantID) == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
				WithDetails(map[string]string{"product_id": "is required"}))
			return
		}

		view, err := engine.Add(r.Context(), middleware.SessionIDFromContext(r.Context()), cart.AddInput{
			ProductID: payload.ProductID,
			VariantID: payload.VariantID,
			SKU:       payload.SKU,
			Quantity:  payload.Quantity,
		})
		writeCart(w, r, logg, view, err)
	}
}

func CartUpdateItem(engine cartEngine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart engine unavailable"))
			return
		}
		var payload updateItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := engine.SetQuantity(r.Context(), middleware.SessionIDFromContext(r.Context()), cart.QuantityInput{
			Key:       payload.Key,
			VariantID: payload.VariantID,
			Quantity:  *payload.Quantity,
		})
		writeCart(w, r, logg, view, err)
	}
}

func CartRemoveItem(engine cartEngine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart engine unavailable"))
			return
		}
		key, err := url.PathUnescape(chi.URLParam(r, "key"))
		if err != nil || strings.TrimSpace(key) == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "line key is required"))
			return
		}

		view, err := engine.Remove(r.Context(), middleware.SessionIDFromContext(r.Context()), key)
		writeCart(w, r, logg, view, err)
	}
}

func CartApplyVoucher(engine cartEngine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart engine unavailable"))
			return
		}
		var payload voucherRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		code := validators.SanitizeString(payload.Code, maxVoucherCodeLen)
		view, err := engine.ApplyVoucher(r.Context(), middleware.SessionIDFromContext(r.Context()), code)
		writeCart(w, r, logg, view, err)
	}
}

func CartClearVoucher(engine cartEngine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart engine unavailable"))
			return
		}
		view, err := engine.ClearVoucher(r.Context(), middleware.SessionIDFromContext(r.Context()))
		writeCart(w, r, logg, view, err)
	}
}
