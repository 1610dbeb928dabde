package auth

import (
	"context"
	"morse-lab/domain"
	"morse-lab/errors"
	"net/http"
	"strings"
)

type contextKey string

const IdentityKey contextKey = "identity"

// Middleware rejects requests without a valid token and injects the token's
// identity into the request context. Browsers can't set headers on a
// websocket upgrade, so a "token" query parameter is accepted too.
func Middleware(signer *Signer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearer(r)
			if raw == "" {
				http.Error(w, errors.ErrMissingToken.Error(), http.StatusUnauthorized)
				return
			}
			id, err := signer.ValidateToken(raw)
			if err != nil {
				http.Error(w, errors.ErrInvalidToken.Error(), http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func WithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, id)
}

// IdentityFromContext returns the identity set by Middleware, if any.
func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(IdentityKey).(domain.Identity)
	return id, ok
}

func bearer(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return r.URL.Query().Get("token")
}
