// Package session issues the browsing-session cookie that scopes cached results.
package session

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const CookieName = "salondesk_sid"

const maxIDLen = 64

type ctxKey struct{}

func FromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKey{}).(string)
	return v
}

func ContextWithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// Middleware reuses the caller's session cookie or issues a new one.
// secure marks issued cookies Secure (set behind TLS).
func Middleware(ttl time.Duration, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(CookieName); err == nil {
				id = strings.TrimSpace(c.Value)
			}
			if !validID(id) {
				id = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     CookieName,
					Value:    id,
					Path:     "/",
					MaxAge:   int(ttl.Seconds()),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			next.ServeHTTP(w, r.WithContext(ContextWithID(r.Context(), id)))
		})
	}
}

func validID(id string) bool {
	if id == "" || len(id) > maxIDLen {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
