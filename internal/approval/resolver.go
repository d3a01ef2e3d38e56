package approval

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/expense-reimbursement/internal"
)

// ApproverDirectory answers the user lookups the fallback sequence needs.
// Both methods return nil when the person does not exist.
type ApproverDirectory interface {
	GetManagerID(ctx context.Context, employeeID int64) (*int64, error)
	FindCompanyAdminID(ctx context.Context, companyID int64) (*int64, error)
}

type Request struct {
	CompanyID  int64
	CategoryID int64
	EmployeeID int64
}

type Resolver struct {
	rules     RuleFinder
	directory ApproverDirectory
	logger    *slog.Logger
}

func NewResolver(rules RuleFinder, directory ApproverDirectory, logger *slog.Logger) *Resolver {
	return &Resolver{
		rules:     rules,
		directory: directory,
		logger:    logger,
	}
}

// Resolve builds the approver sequence for a freshly submitted expense.
// An empty result means nobody can approve and the caller auto-approves.
func (r *Resolver) Resolve(ctx context.Context, req Request) (Sequence, error) {
	if rule := r.findRule(ctx, req); rule != nil {
		seq := NewSequence(rule.Approvers...)
		if !seq.IsEmpty() {
			r.logger.Debug("approval rule matched",
				"rule_id", rule.ID,
				"company_id", req.CompanyID,
				"category_id", req.CategoryID,
				"approvers", len(seq))
			return seq, nil
		}
	}

	managerID, err := r.directory.GetManagerID(ctx, req.EmployeeID)
	if err != nil {
		r.logger.Error("failed to look up manager", "employee_id", req.EmployeeID, "error", err)
		return nil, unexpected("failed to resolve approvers", err)
	}

	adminID, err := r.directory.FindCompanyAdminID(ctx, req.CompanyID)
	if err != nil {
		r.logger.Error("failed to look up company admin", "company_id", req.CompanyID, "error", err)
		return nil, unexpected("failed to resolve approvers", err)
	}

	var ids []int64
	if managerID != nil {
		ids = append(ids, *managerID)
	}
	if adminID != nil {
		ids = append(ids, *adminID)
	}
	return NewSequence(ids...), nil
}

func (r *Resolver) findRule(ctx context.Context, req Request) *Rule {
	if r.rules == nil {
		return nil
	}
	rule, err := r.rules.FindRule(ctx, req.CompanyID, req.CategoryID)
	if err != nil {
		r.logger.Warn("approval rule lookup failed, using fallback sequence",
			"company_id", req.CompanyID,
			"category_id", req.CategoryID,
			"error", err)
		return nil
	}
	return rule
}

func unexpected(msg string, err error) error {
	if appErr, ok := internal.IsAppError(err); ok && appErr.Type == internal.ErrorTypeInternal {
		return appErr
	}
	return internal.NewInternalError(msg, err)
}
