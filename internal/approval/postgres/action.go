package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/frahmantamala/expense-reimbursement/internal/approval"
	approvalDatamodel "github.com/frahmantamala/expense-reimbursement/internal/core/datamodel/approval"
)

type ActionRepository struct {
	db *gorm.DB
}

func NewActionRepository(db *gorm.DB) approval.ActionReader {
	return &ActionRepository{db: db}
}

func (r *ActionRepository) ListByExpense(ctx context.Context, expenseID int64) ([]*approvalDatamodel.ApprovalAction, error) {
	var actions []*approvalDatamodel.ApprovalAction
	err := r.db.WithContext(ctx).
		Where("expense_id = ?", expenseID).
		Order("step_order ASC, id ASC").
		Find(&actions).Error
	return actions, err
}
