package expense

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/frahmantamala/expense-reimbursement/internal"
	"github.com/frahmantamala/expense-reimbursement/internal/approval"
	"github.com/frahmantamala/expense-reimbursement/internal/auth"
	"github.com/frahmantamala/expense-reimbursement/internal/report"
	"github.com/frahmantamala/expense-reimbursement/internal/transport"
)

type ServiceAPI interface {
	CreateExpense(ctx context.Context, actor approval.Actor, dto CreateExpenseDTO) (*View, error)
	UpdateStatus(ctx context.Context, expenseID int64, actor approval.Actor, dto UpdateStatusDTO) (*View, error)
	GetByID(ctx context.Context, expenseID int64, actor approval.Actor) (*View, error)
	Approvals(ctx context.Context, expenseID int64, actor approval.Actor) ([]*ActionView, error)
	ApprovalSequence(ctx context.Context, expenseID int64, actor approval.Actor) (*ApprovalSequenceResponse, error)
	ListForManager(ctx context.Context, actor approval.Actor, status string) ([]*View, error)
	ListForAdmin(ctx context.Context, actor approval.Actor, status string) ([]*View, error)
	ListForEmployee(ctx context.Context, actor approval.Actor) ([]*View, error)
	ListCompany(ctx context.Context, actor approval.Actor) ([]*View, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func actorOf(u *auth.User) approval.Actor {
	return approval.Actor{ID: u.ID, Role: u.Role, CompanyID: u.CompanyID}
}

func (h *Handler) principal(w http.ResponseWriter, r *http.Request) (approval.Actor, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("expense handler: user not found in context", "path", r.URL.Path)
		h.WriteAppError(w, internal.NewUnauthorizedError("unauthorized", internal.ErrCodeInvalidToken))
		return approval.Actor{}, false
	}
	return actorOf(user), true
}

// CreateExpense handles POST /expenses/create
func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}

	var dto CreateExpenseDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	view, err := h.Service.CreateExpense(r.Context(), actor, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.Logger.Info("CreateExpense: expense created",
		"expense_id", view.ID,
		"user_id", actor.ID,
		"status", view.Status)

	h.WriteJSON(w, http.StatusCreated, view)
}

// UpdateStatus handles PATCH /expenses/{id}/status
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}

	expenseID, appErr := h.PathInt64(r, "id")
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	var dto UpdateStatusDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	view, err := h.Service.UpdateStatus(r.Context(), expenseID, actor, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, view)
}

// GetExpense handles GET /expenses/{id}
func (h *Handler) GetExpense(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}

	expenseID, appErr := h.PathInt64(r, "id")
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	view, err := h.Service.GetByID(r.Context(), expenseID, actor)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, view)
}

// GetApprovals handles GET /expenses/{id}/approvals
func (h *Handler) GetApprovals(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}

	expenseID, appErr := h.PathInt64(r, "id")
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	actions, err := h.Service.Approvals(r.Context(), expenseID, actor)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ApprovalsResponse{Approvals: actions})
}

// GetApprovalSequence handles GET /expenses/{id}/approval-sequence
func (h *Handler) GetApprovalSequence(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}

	expenseID, appErr := h.PathInt64(r, "id")
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	seq, err := h.Service.ApprovalSequence(r.Context(), expenseID, actor)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, seq)
}

// GetManagerExpenses handles GET /expenses/manager?status=
func (h *Handler) GetManagerExpenses(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}

	views, err := h.Service.ListForManager(r.Context(), actor, r.URL.Query().Get("status"))
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ExpensesResponse{Expenses: views})
}

// GetAdminExpenses handles GET /expenses/admin?status=
func (h *Handler) GetAdminExpenses(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}

	views, err := h.Service.ListForAdmin(r.Context(), actor, r.URL.Query().Get("status"))
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ExpensesResponse{Expenses: views})
}

// GetEmployeeExpenses handles GET /expenses/employee
func (h *Handler) GetEmployeeExpenses(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}

	views, err := h.Service.ListForEmployee(r.Context(), actor)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ExpensesResponse{Expenses: views})
}

// GetAllExpenses handles GET /expenses/getallexpense
func (h *Handler) GetAllExpenses(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}

	views, err := h.Service.ListCompany(r.Context(), actor)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ExpensesResponse{Expenses: views})
}

// ExportAdminExpenses handles GET /expenses/admin/export?status=
func (h *Handler) ExportAdminExpenses(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}

	views, err := h.Service.ListForAdmin(r.Context(), actor, r.URL.Query().Get("status"))
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	filename := fmt.Sprintf("expenses-%s.xlsx", time.Now().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)

	if err := report.WriteExpenses(w, reportRows(views)); err != nil {
		h.Logger.Error("ExportAdminExpenses: failed to write workbook", "user_id", actor.ID, "error", err)
	}
}

func reportRows(views []*View) []report.Row {
	rows := make([]report.Row, len(views))
	for i, v := range views {
		row := report.Row{
			ID:              v.ID,
			Description:     v.Description,
			DateIncurred:    v.DateIncurred,
			Amount:          v.AmountOriginal,
			Currency:        v.CurrencyOriginal,
			AmountConverted: v.AmountConverted,
			Status:          v.Status,
			Step:            fmt.Sprintf("%d/%d", v.CurrentApprovalStep, v.ApprovalSequence.Len()),
		}
		if v.Employee != nil {
			row.Employee = v.Employee.Name
		}
		if v.Category != nil {
			row.Category = v.Category.Name
		}
		if v.CurrentApproverID != nil {
			for _, a := range v.Approvers {
				if a.ID == *v.CurrentApproverID {
					row.CurrentApprover = a.Name
					break
				}
			}
		}
		rows[i] = row
	}
	return rows
}
