package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/frahmantamala/expense-reimbursement/internal"
	approvalDatamodel "github.com/frahmantamala/expense-reimbursement/internal/core/datamodel/approval"
	expenseDatamodel "github.com/frahmantamala/expense-reimbursement/internal/core/datamodel/expense"
	"github.com/frahmantamala/expense-reimbursement/internal/expense"
)

type ExpenseRepository struct {
	db *gorm.DB
}

func NewExpenseRepository(db *gorm.DB) expense.Repository {
	return &ExpenseRepository{db: db}
}

func (r *ExpenseRepository) Create(ctx context.Context, e *expenseDatamodel.Expense) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *ExpenseRepository) GetByID(ctx context.Context, id int64) (*expenseDatamodel.Expense, error) {
	var e expenseDatamodel.Expense
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

// List returns newest first.
func (r *ExpenseRepository) List(ctx context.Context, filter expense.ListFilter) ([]*expenseDatamodel.Expense, error) {
	q := r.db.WithContext(ctx).Where("company_id = ?", filter.CompanyID)
	if filter.EmployeeID != 0 {
		q = q.Where("employee_id = ?", filter.EmployeeID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var expenses []*expenseDatamodel.Expense
	err := q.Order("created_at DESC, id DESC").Find(&expenses).Error
	return expenses, err
}

// SaveTransition updates the workflow columns guarded by the version the
// caller read, and appends action in the same transaction.
func (r *ExpenseRepository) SaveTransition(ctx context.Context, e *expenseDatamodel.Expense, expectedVersion int, action *approvalDatamodel.ApprovalAction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&expenseDatamodel.Expense{}).
			Where("id = ? AND version = ?", e.ID, expectedVersion).
			Updates(map[string]interface{}{
				"status":                e.Status,
				"approval_sequence":     e.ApprovalSequence,
				"current_approval_step": e.CurrentApprovalStep,
				"version":               e.Version,
				"submitted_at":          e.SubmittedAt,
				"processed_at":          e.ProcessedAt,
				"updated_at":            e.UpdatedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return internal.ErrConcurrentUpdate
		}

		if action != nil {
			if err := tx.Create(action).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
