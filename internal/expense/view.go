package expense

import (
	"github.com/frahmantamala/expense-reimbursement/internal/approval"
	"github.com/frahmantamala/expense-reimbursement/internal/category"
	"github.com/frahmantamala/expense-reimbursement/internal/user"
)

// View is the read-time projection returned by the API. The stored
// approvalSequence stays a list of ids; Approvers expands it.
type View struct {
	*Expense
	Employee          *user.Summary              `json:"employee,omitempty"`
	Category          *category.CategoryResponse `json:"category,omitempty"`
	Approvers         []ApproverView             `json:"approvers"`
	CurrentApproverID *int64                     `json:"currentApproverId,omitempty"`
}

// ApproverView is one entry of the expanded sequence. Users that no longer
// resolve keep their id with empty details.
type ApproverView struct {
	ID    int64  `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Step  int    `json:"step"`
}

type ActionView struct {
	*approval.Action
	User *user.Summary `json:"user,omitempty"`
}

// lookups holds what a batch of views needs, loaded once per request.
type lookups struct {
	users      map[int64]*user.User
	categories map[int64]*category.Category
}

func (l lookups) approvers(seq approval.Sequence) []ApproverView {
	out := make([]ApproverView, 0, len(seq))
	for i, id := range seq {
		av := ApproverView{ID: id, Step: i}
		if u, ok := l.users[id]; ok {
			av.Name = u.Name
			av.Email = u.Email
		}
		out = append(out, av)
	}
	return out
}

func (l lookups) view(e *Expense) *View {
	v := &View{
		Expense:           e,
		Approvers:         l.approvers(e.ApprovalSequence),
		CurrentApproverID: e.CurrentApproverID(),
	}
	if u, ok := l.users[e.EmployeeID]; ok {
		s := u.Summary()
		v.Employee = &s
	}
	if c, ok := l.categories[e.CategoryID]; ok {
		resp := c.ToResponse()
		v.Category = &resp
	}
	return v
}

func (l lookups) action(a *approval.Action) *ActionView {
	av := &ActionView{Action: a}
	if u, ok := l.users[a.UserID]; ok {
		s := u.Summary()
		av.User = &s
	}
	return av
}

// userIDs collects every user a set of expenses refers to.
func userIDs(expenses []*Expense) []int64 {
	var ids []int64
	for _, e := range expenses {
		ids = append(ids, e.EmployeeID)
		ids = append(ids, e.ApprovalSequence...)
	}
	return ids
}

func categoryIDs(expenses []*Expense) []int64 {
	ids := make([]int64, 0, len(expenses))
	seen := make(map[int64]struct{}, len(expenses))
	for _, e := range expenses {
		if _, ok := seen[e.CategoryID]; ok {
			continue
		}
		seen[e.CategoryID] = struct{}{}
		ids = append(ids, e.CategoryID)
	}
	return ids
}
