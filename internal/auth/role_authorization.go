package auth

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/expense-reimbursement/internal"
	coreUser "github.com/frahmantamala/expense-reimbursement/internal/core/user"
	"github.com/frahmantamala/expense-reimbursement/internal/transport"
)

// RoleAuthorization guards routes by the caller's role. Per expense checks
// (who may decide what) live in the approval package.
type RoleAuthorization struct {
	base   *transport.BaseHandler
	logger *slog.Logger
}

func NewRoleAuthorization(base *transport.BaseHandler, logger *slog.Logger) *RoleAuthorization {
	return &RoleAuthorization{
		base:   base,
		logger: logger,
	}
}

func (ra *RoleAuthorization) RequireRole(roles ...coreUser.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				ra.logger.WarnContext(r.Context(), "authorization check failed: user not found in context")
				ra.base.WriteAppError(w, internal.NewUnauthorizedError("authentication required", internal.ErrCodeInvalidToken))
				return
			}

			if !user.HasAnyRole(roles...) {
				ra.logger.WarnContext(r.Context(), "access denied: insufficient role",
					"user_id", user.ID,
					"role", user.Role,
					"required_roles", roles)
				ra.base.WriteAppError(w, internal.ErrInsufficientRole)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (ra *RoleAuthorization) RequireManager() func(http.Handler) http.Handler {
	return ra.RequireRole(coreUser.RoleManager, coreUser.RoleAdmin)
}

func (ra *RoleAuthorization) RequireAdmin() func(http.Handler) http.Handler {
	return ra.RequireRole(coreUser.RoleAdmin)
}
