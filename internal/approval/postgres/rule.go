package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/frahmantamala/expense-reimbursement/internal/approval"
	approvalDatamodel "github.com/frahmantamala/expense-reimbursement/internal/core/datamodel/approval"
)

// A category specific rule wins over the company wide one.
const findRuleQuery = `
SELECT id, company_id, category_id, name, approvers, created_at, updated_at
FROM approval_rules
WHERE company_id = ? AND (category_id = ? OR category_id IS NULL)
ORDER BY CASE WHEN category_id IS NULL THEN 1 ELSE 0 END, id
LIMIT 1`

type RuleRepository struct {
	db *sqlx.DB
}

func NewRuleRepository(db *sqlx.DB) approval.RuleFinder {
	return &RuleRepository{db: db}
}

func (r *RuleRepository) FindRule(ctx context.Context, companyID, categoryID int64) (*approval.Rule, error) {
	var row approvalDatamodel.ApprovalRule
	err := r.db.GetContext(ctx, &row, r.db.Rebind(findRuleQuery), companyID, categoryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return approval.RuleFromDataModel(&row), nil
}
