package approval

import (
	"context"
	"time"

	approvalDatamodel "github.com/frahmantamala/expense-reimbursement/internal/core/datamodel/approval"
)

const (
	ActionApproved = "approved"
	ActionRejected = "rejected"
)

// Action is one entry of the append-only audit trail of an expense.
type Action struct {
	ID        int64     `json:"id"`
	ExpenseID int64     `json:"expenseId"`
	UserID    int64     `json:"userId"`
	StepOrder int       `json:"stepOrder"`
	Status    string    `json:"status"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func IsDecision(status string) bool {
	return status == ActionApproved || status == ActionRejected
}

func NewAction(expenseID, userID int64, step int, status, comment string) *Action {
	return &Action{
		ExpenseID: expenseID,
		UserID:    userID,
		StepOrder: step,
		Status:    status,
		Comment:   comment,
		CreatedAt: time.Now(),
	}
}

type ActionReader interface {
	ListByExpense(ctx context.Context, expenseID int64) ([]*approvalDatamodel.ApprovalAction, error)
}

func (a *Action) ToDataModel() *approvalDatamodel.ApprovalAction {
	return &approvalDatamodel.ApprovalAction{
		ID:        a.ID,
		ExpenseID: a.ExpenseID,
		UserID:    a.UserID,
		StepOrder: a.StepOrder,
		Status:    a.Status,
		Comment:   a.Comment,
		CreatedAt: a.CreatedAt,
	}
}

func ActionFromDataModel(a *approvalDatamodel.ApprovalAction) *Action {
	return &Action{
		ID:        a.ID,
		ExpenseID: a.ExpenseID,
		UserID:    a.UserID,
		StepOrder: a.StepOrder,
		Status:    a.Status,
		Comment:   a.Comment,
		CreatedAt: a.CreatedAt,
	}
}

func ActionsFromDataModel(rows []*approvalDatamodel.ApprovalAction) []*Action {
	out := make([]*Action, len(rows))
	for i, row := range rows {
		out[i] = ActionFromDataModel(row)
	}
	return out
}
