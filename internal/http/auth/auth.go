// Package auth resolves the bearer token of a request into the calling user.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/MrJamesThe3rd/expensa/internal/http/httperr"
	"github.com/MrJamesThe3rd/expensa/internal/identity"
	"github.com/MrJamesThe3rd/expensa/internal/ledger"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*identity.User, error)
}

// Middleware rejects requests without a valid bearer token and stores the
// authenticated user in the request context.
func Middleware(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				httperr.Write(w, r, fmt.Errorf("%w: missing bearer token", identity.ErrUnauthenticated))
				return
			}

			u, err := a.Authenticate(r.Context(), strings.TrimSpace(token))
			if err != nil {
				httperr.Write(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(identity.WithUser(r.Context(), u)))
		})
	}
}

// RequireAdmin must run after Middleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := identity.FromContext(r.Context())
		if err != nil {
			httperr.Write(w, r, err)
			return
		}

		if !identity.IsAdmin(u) {
			httperr.Write(w, r, ledger.Denied("admin role required"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// User returns the caller stored by Middleware, writing a 401 when absent.
func User(w http.ResponseWriter, r *http.Request) (*identity.User, bool) {
	u, err := identity.FromContext(r.Context())
	if err != nil {
		httperr.Write(w, r, err)
		return nil, false
	}

	return u, true
}
