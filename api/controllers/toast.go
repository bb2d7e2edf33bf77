package controllers

import (
	"net/http"

	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

type toastQueue interface {
	Toast(sessionID string) (cart.Toast, bool)
	DismissToast(sessionID string) bool
}

type toastResponse struct {
	Visible bool        `json:"visible"`
	Toast   *cart.Toast `json:"toast,omitempty"`
}

func ToastShow(queue toastQueue, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if queue == nil {
			responses.WriteError(r.Context(), logg, w, errors.New(errors.CodeInternal, "cart engine unavailable"))
			return
		}
		toast, ok := queue.Toast(middleware.SessionIDFromContext(r.Context()))
		if !ok {
			responses.WriteSuccess(w, toastResponse{})
			return
		}
		responses.WriteSuccess(w, toastResponse{Visible: true, Toast: &toast})
	}
}

func ToastHide(queue toastQueue, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if queue == nil {
			responses.WriteError(r.Context(), logg, w, errors.New(errors.CodeInternal, "cart engine unavailable"))
			return
		}
		queue.DismissToast(middleware.SessionIDFromContext(r.Context()))
		w.WriteHeader(http.StatusNoContent)
	}
}
