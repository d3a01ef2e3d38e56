package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/jmoiron/sqlx"

	"github.com/frahmantamala/expense-reimbursement/internal/auth"
	"github.com/frahmantamala/expense-reimbursement/internal/category"
	"github.com/frahmantamala/expense-reimbursement/internal/company"
	"github.com/frahmantamala/expense-reimbursement/internal/expense"
	"github.com/frahmantamala/expense-reimbursement/internal/transport/middleware"
	"github.com/frahmantamala/expense-reimbursement/internal/transport/swagger"
	"github.com/frahmantamala/expense-reimbursement/internal/user"
)

type Handlers struct {
	Auth     *auth.Handler
	Roles    *auth.RoleAuthorization
	User     *user.Handler
	Company  *company.Handler
	Category *category.Handler
	Expense  *expense.Handler
}

type Options struct {
	AllowedOrigins  string
	OpenAPISpecPath string
	// Validator is the OpenAPI request validator; nil disables validation.
	Validator func(http.Handler) http.Handler
}

func RegisterAllRoutes(router chi.Router, db *sqlx.DB, h Handlers, opts Options, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.LoggingMiddleware)
	router.Use(middleware.RecoveryMiddleware)

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get(swagger.SpecURL, func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, opts.OpenAPISpecPath)
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		if opts.Validator != nil {
			r.Use(opts.Validator)
		}

		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", h.Auth.Login)
			sr.Post("/refresh", h.Auth.RefreshToken)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			pr.Get("/users/me", h.User.GetCurrentUser)
			pr.Get("/company", h.Company.GetCurrentCompany)
			pr.Get("/categories", h.Category.GetCategories)

			pr.Group(func(ar chi.Router) {
				ar.Use(h.Roles.RequireAdmin())
				ar.Get("/users", h.User.ListUsers)
				ar.Patch("/users/{id}", h.User.UpdateUser)
				ar.Post("/categories", h.Category.CreateCategory)
				ar.Delete("/categories/{id}", h.Category.DeactivateCategory)
			})

			pr.Route("/expenses", func(er chi.Router) {
				er.Post("/create", h.Expense.CreateExpense)
				er.Get("/employee", h.Expense.GetEmployeeExpenses)
				er.Get("/{id}", h.Expense.GetExpense)
				er.Get("/{id}/approvals", h.Expense.GetApprovals)
				er.Get("/{id}/approval-sequence", h.Expense.GetApprovalSequence)
				// approvers are decided per expense by the service, not by role
				er.Patch("/{id}/status", h.Expense.UpdateStatus)

				er.Group(func(mr chi.Router) {
					mr.Use(h.Roles.RequireManager())
					mr.Get("/manager", h.Expense.GetManagerExpenses)
					mr.Get("/getallexpense", h.Expense.GetAllExpenses)
				})

				er.Group(func(ar chi.Router) {
					ar.Use(h.Roles.RequireAdmin())
					ar.Get("/admin", h.Expense.GetAdminExpenses)
					ar.Get("/admin/export", h.Expense.ExportAdminExpenses)
				})
			})
		})
	})

	logger.Info("routes registered", "prefix", "/api/v1")
}
