package category

import (
	"context"
	"log/slog"
	"strings"

	"github.com/frahmantamala/expense-reimbursement/internal"
	categoryDatamodel "github.com/frahmantamala/expense-reimbursement/internal/core/datamodel/category"
)

// RepositoryAPI lookups return nil, nil when nothing matches.
type RepositoryAPI interface {
	ListByCompany(ctx context.Context, companyID int64) ([]*categoryDatamodel.ExpenseCategory, error)
	GetByID(ctx context.Context, id int64) (*categoryDatamodel.ExpenseCategory, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*categoryDatamodel.ExpenseCategory, error)
	GetByName(ctx context.Context, companyID int64, name string) (*categoryDatamodel.ExpenseCategory, error)
	Create(ctx context.Context, category *categoryDatamodel.ExpenseCategory) error
	Update(ctx context.Context, category *categoryDatamodel.ExpenseCategory) error
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// ListByCompany returns the active categories of a company.
func (s *Service) ListByCompany(ctx context.Context, companyID int64) ([]CategoryResponse, error) {
	dataCategories, err := s.repo.ListByCompany(ctx, companyID)
	if err != nil {
		s.logger.Error("failed to get categories from repository", "company_id", companyID, "error", err)
		return nil, internal.NewInternalError("failed to get categories", err)
	}

	responses := make([]CategoryResponse, 0, len(dataCategories))
	for _, dataCategory := range dataCategories {
		domainCategory := FromDataModel(dataCategory)
		if domainCategory.IsActiveCategory() {
			responses = append(responses, domainCategory.ToResponse())
		}
	}

	s.logger.Debug("retrieved categories", "company_id", companyID, "count", len(responses))
	return responses, nil
}

// GetForCompany returns an active category owned by companyID. Categories of
// other companies are reported as not found.
func (s *Service) GetForCompany(ctx context.Context, companyID, id int64) (*Category, error) {
	dataCategory, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get category", "category_id", id, "error", err)
		return nil, internal.NewInternalError("failed to get category", err)
	}
	if dataCategory == nil || dataCategory.CompanyID != companyID || !dataCategory.IsActive {
		return nil, internal.ErrCategoryNotFound
	}
	return FromDataModel(dataCategory), nil
}

// GetByIDs loads categories regardless of their active flag, for rendering
// existing expenses.
func (s *Service) GetByIDs(ctx context.Context, ids []int64) (map[int64]*Category, error) {
	out := make(map[int64]*Category, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("failed to get categories", "count", len(ids), "error", err)
		return nil, internal.NewInternalError("failed to get categories", err)
	}
	for _, row := range rows {
		out[row.ID] = FromDataModel(row)
	}
	return out, nil
}

func (s *Service) Create(ctx context.Context, companyID int64, dto CreateCategoryDTO) (*Category, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(dto.Name)
	existing, err := s.repo.GetByName(ctx, companyID, name)
	if err != nil {
		s.logger.Error("failed to check category name", "company_id", companyID, "error", err)
		return nil, internal.NewInternalError("failed to create category", err)
	}
	if existing != nil {
		return nil, internal.ErrCategoryExists
	}

	cat := NewCategory(companyID, name, dto.Description)
	row := ToDataModel(cat)
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.Error("failed to create category", "company_id", companyID, "error", err)
		return nil, internal.NewInternalError("failed to create category", err)
	}

	s.logger.Info("category created", "company_id", companyID, "category_id", row.ID, "name", row.Name)
	return FromDataModel(row), nil
}

// Deactivate hides a category from new expenses; existing ones keep it.
func (s *Service) Deactivate(ctx context.Context, companyID, id int64) error {
	cat, err := s.GetForCompany(ctx, companyID, id)
	if err != nil {
		return err
	}
	cat.Deactivate()
	if err := s.repo.Update(ctx, ToDataModel(cat)); err != nil {
		s.logger.Error("failed to deactivate category", "category_id", id, "error", err)
		return internal.NewInternalError("failed to deactivate category", err)
	}
	s.logger.Info("category deactivated", "company_id", companyID, "category_id", id)
	return nil
}
