package user

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/frahmantamala/expense-reimbursement/internal"
	userDatamodel "github.com/frahmantamala/expense-reimbursement/internal/core/datamodel/user"
	coreUser "github.com/frahmantamala/expense-reimbursement/internal/core/user"
)

// Repository lookups return nil, nil when nothing matches.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*userDatamodel.User, error)
	ListByCompany(ctx context.Context, companyID int64) ([]*userDatamodel.User, error)
	FindFirstByRole(ctx context.Context, companyID int64, role string) (*userDatamodel.User, error)
	CountByRole(ctx context.Context, companyID int64, role string) (int64, error)
	Update(ctx context.Context, u *userDatamodel.User) error
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) GetByID(ctx context.Context, userID int64) (*User, error) {
	row, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		s.logger.Error("failed to get user", "user_id", userID, "error", err)
		return nil, internal.NewInternalError("failed to get user", err)
	}
	if row == nil {
		return nil, internal.ErrUserNotFound
	}
	return FromDataModel(row), nil
}

// GetByIDs loads the given users keyed by id; unknown ids are simply absent.
func (s *Service) GetByIDs(ctx context.Context, ids []int64) (map[int64]*User, error) {
	out := make(map[int64]*User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := s.repo.GetByIDs(ctx, uniqueIDs(ids))
	if err != nil {
		s.logger.Error("failed to get users", "count", len(ids), "error", err)
		return nil, internal.NewInternalError("failed to get users", err)
	}
	for _, row := range rows {
		out[row.ID] = FromDataModel(row)
	}
	return out, nil
}

func (s *Service) ListByCompany(ctx context.Context, companyID int64) ([]*User, error) {
	rows, err := s.repo.ListByCompany(ctx, companyID)
	if err != nil {
		s.logger.Error("failed to list users", "company_id", companyID, "error", err)
		return nil, internal.NewInternalError("failed to list users", err)
	}
	return FromDataModelSlice(rows), nil
}

// GetManagerID returns the direct manager of employeeID, nil when none is set.
func (s *Service) GetManagerID(ctx context.Context, employeeID int64) (*int64, error) {
	u, err := s.GetByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return u.ManagerID, nil
}

// FindCompanyAdminID returns the lowest-id admin of the company, nil if the
// company has no admin.
func (s *Service) FindCompanyAdminID(ctx context.Context, companyID int64) (*int64, error) {
	row, err := s.repo.FindFirstByRole(ctx, companyID, string(coreUser.RoleAdmin))
	if err != nil {
		s.logger.Error("failed to find company admin", "company_id", companyID, "error", err)
		return nil, internal.NewInternalError("failed to find company admin", err)
	}
	if row == nil {
		return nil, nil
	}
	id := row.ID
	return &id, nil
}

// UpdateUser lets a company admin change a user's role or manager.
func (s *Service) UpdateUser(ctx context.Context, companyID, userID int64, dto UpdateUserDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	target, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if target.CompanyID != companyID {
		return nil, internal.ErrUserNotFound
	}

	if dto.Role != nil {
		role, _ := coreUser.ParseRole(*dto.Role)
		if target.IsAdmin() && role != coreUser.RoleAdmin {
			admins, err := s.repo.CountByRole(ctx, companyID, string(coreUser.RoleAdmin))
			if err != nil {
				return nil, internal.NewInternalError("failed to count admins", err)
			}
			if admins <= 1 {
				return nil, internal.NewValidationFieldError("role", "company must keep at least one admin", internal.ErrCodeInvalidRole)
			}
		}
		target.Role = role
	}

	switch {
	case dto.ClearManager:
		target.ManagerID = nil
	case dto.ManagerID != nil:
		if err := s.checkManager(ctx, target, *dto.ManagerID); err != nil {
			return nil, err
		}
		managerID := *dto.ManagerID
		target.ManagerID = &managerID
	}

	target.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, ToDataModel(target)); err != nil {
		s.logger.Error("failed to update user", "user_id", userID, "error", err)
		return nil, internal.NewInternalError("failed to update user", err)
	}

	s.logger.Info("user updated", "user_id", userID, "role", target.Role, "manager_id", target.ManagerID)
	return target, nil
}

// checkManager rejects managers outside the company, non-approvers and
// assignments that would make the reporting line loop.
func (s *Service) checkManager(ctx context.Context, target *User, managerID int64) error {
	invalid := func(msg string) error {
		return internal.NewValidationFieldError("managerId", msg, internal.ErrCodeInvalidManager)
	}

	if managerID == target.ID {
		return invalid("a user cannot manage themselves")
	}

	manager, err := s.GetByID(ctx, managerID)
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			return invalid("manager not found")
		}
		return err
	}
	if manager.CompanyID != target.CompanyID {
		return invalid("manager not found")
	}
	if !manager.CanApprove() {
		return invalid("manager must have the manager or admin role")
	}

	seen := map[int64]bool{target.ID: true}
	next := manager.ManagerID
	for next != nil {
		if seen[*next] {
			return invalid("assignment would create a reporting cycle")
		}
		seen[*next] = true
		up, err := s.repo.GetByID(ctx, *next)
		if err != nil {
			return internal.NewInternalError("failed to walk reporting line", err)
		}
		if up == nil {
			break
		}
		next = up.ManagerID
	}
	return nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
