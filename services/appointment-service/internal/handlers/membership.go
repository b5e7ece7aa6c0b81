package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/md-rashed-zaman/salondesk/libs/httpx"
)

type MembershipChecker interface {
	IsMember(ctx context.Context, tenantID int64, userID string) (bool, error)
}

type tenantKey struct{}

func TenantFromContext(ctx context.Context) int64 {
	v, _ := ctx.Value(tenantKey{}).(int64)
	return v
}

func ContextWithTenant(ctx context.Context, tenantID int64) context.Context {
	return context.WithValue(ctx, tenantKey{}, tenantID)
}

// RequireMembership resolves the tenant (X-Tenant-Id, else tenant_id query) and the
// user (X-User-Id) and rejects users who do not belong to the tenant.
func RequireMembership(checker MembershipChecker, logger *slog.Logger) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("X-Tenant-Id"))
			if raw == "" {
				raw = strings.TrimSpace(r.URL.Query().Get("tenant_id"))
			}
			tenantID, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || tenantID <= 0 {
				httpx.WriteError(w, http.StatusBadRequest, "tenant_id is required")
				return
			}
			userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
			if userID == "" {
				httpx.WriteError(w, http.StatusBadRequest, "user id is required")
				return
			}

			ok, err := checker.IsMember(r.Context(), tenantID, userID)
			if err != nil {
				logger.Error("membership check failed", "err", err, "tenant_id", tenantID,
					"request_id", httpx.RequestIDFromContext(r.Context()))
				httpx.WriteError(w, http.StatusInternalServerError, "membership check failed")
				return
			}
			if !ok {
				httpx.WriteError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithTenant(r.Context(), tenantID)))
		})
	}
}
