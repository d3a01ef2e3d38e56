package company

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/expense-reimbursement/internal"
	companyDatamodel "github.com/frahmantamala/expense-reimbursement/internal/core/datamodel/company"
)

type RepositoryAPI interface {
	// GetByID returns nil, nil when the company does not exist.
	GetByID(ctx context.Context, id int64) (*companyDatamodel.Company, error)
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

func (s *Service) GetByID(ctx context.Context, id int64) (*Company, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get company", "company_id", id, "error", err)
		return nil, internal.NewInternalError("failed to get company", err)
	}
	if row == nil {
		return nil, internal.ErrCompanyNotFound
	}
	return FromDataModel(row), nil
}
