package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeExpenseSubmitted    = "expense.submitted"
	EventTypeExpenseStepAdvanced = "expense.step_advanced"
	EventTypeExpenseApproved     = "expense.approved"
	EventTypeExpenseRejected     = "expense.rejected"
)

var ExpenseEventTypes = []string{
	EventTypeExpenseSubmitted,
	EventTypeExpenseStepAdvanced,
	EventTypeExpenseApproved,
	EventTypeExpenseRejected,
}

// ExpenseEvent describes a workflow transition. NextApproverID is set while
// the expense is still waiting on someone; ActorID is zero for submissions.
type ExpenseEvent struct {
	BaseEvent
	ExpenseID      int64  `json:"expense_id"`
	CompanyID      int64  `json:"company_id"`
	EmployeeID     int64  `json:"employee_id"`
	ActorID        int64  `json:"actor_id,omitempty"`
	NextApproverID *int64 `json:"next_approver_id,omitempty"`
	Step           int    `json:"step"`
	Status         string `json:"status"`
	Comment        string `json:"comment,omitempty"`
}

type ExpenseEventParams struct {
	ExpenseID      int64
	CompanyID      int64
	EmployeeID     int64
	ActorID        int64
	NextApproverID *int64
	Step           int
	Status         string
	Comment        string
}

func NewExpenseEvent(eventType string, p ExpenseEventParams) *ExpenseEvent {
	data := map[string]interface{}{
		"expense_id":  p.ExpenseID,
		"company_id":  p.CompanyID,
		"employee_id": p.EmployeeID,
		"step":        p.Step,
		"status":      p.Status,
	}
	if p.ActorID != 0 {
		data["actor_id"] = p.ActorID
	}
	if p.NextApproverID != nil {
		data["next_approver_id"] = *p.NextApproverID
	}
	if p.Comment != "" {
		data["comment"] = p.Comment
	}

	return &ExpenseEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data:      data,
		},
		ExpenseID:      p.ExpenseID,
		CompanyID:      p.CompanyID,
		EmployeeID:     p.EmployeeID,
		ActorID:        p.ActorID,
		NextApproverID: p.NextApproverID,
		Step:           p.Step,
		Status:         p.Status,
		Comment:        p.Comment,
	}
}
