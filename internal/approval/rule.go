package approval

import (
	"context"

	approvalDatamodel "github.com/frahmantamala/expense-reimbursement/internal/core/datamodel/approval"
)

// Rule is a configured approver list for a company, optionally narrowed to
// one category. Rules are only read; authoring them is out of scope.
type Rule struct {
	ID         int64    `json:"id"`
	CompanyID  int64    `json:"companyId"`
	CategoryID *int64   `json:"categoryId,omitempty"`
	Name       string   `json:"name"`
	Approvers  Sequence `json:"approvers"`
}

// RuleFinder returns nil, nil when no rule matches.
type RuleFinder interface {
	FindRule(ctx context.Context, companyID, categoryID int64) (*Rule, error)
}

func RuleFromDataModel(r *approvalDatamodel.ApprovalRule) *Rule {
	return &Rule{
		ID:         r.ID,
		CompanyID:  r.CompanyID,
		CategoryID: r.CategoryID,
		Name:       r.Name,
		Approvers:  SequenceFromDataModel(r.Approvers),
	}
}
