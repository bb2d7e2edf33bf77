package middleware

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/pkg/auth/session"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

const SessionHeader = "X-Session-Id"

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,64}$`)

// Session resolves the storefront session from X-Session-Id, minting one when absent.
// The id is echoed back so the client can keep using it.
func Session(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid := strings.TrimSpace(r.Header.Get(SessionHeader))
			if sid == "" {
				sid = session.NewSessionID()
			} else if !sessionIDPattern.MatchString(sid) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "malformed session id").
					WithDetails(map[string]any{"header": SessionHeader}))
				return
			}

			w.Header().Set(SessionHeader, sid)

			ctx := WithSessionID(r.Context(), sid)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sid)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
