package auth

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/frahmantamala/expense-reimbursement/internal/auth"
	userDatamodel "github.com/frahmantamala/expense-reimbursement/internal/core/datamodel/user"
	coreUser "github.com/frahmantamala/expense-reimbursement/internal/core/user"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetCredentials(ctx context.Context, email string) (*auth.Credentials, error) {
	var row userDatamodel.User
	err := r.db.WithContext(ctx).
		Select("id", "email", "password_hash", "is_active").
		Where("LOWER(email) = LOWER(?)", email).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &auth.Credentials{
		UserID:       row.ID,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		IsActive:     row.IsActive,
	}, nil
}

func (r *Repository) GetPrincipal(ctx context.Context, userID int64) (*auth.User, error) {
	var row userDatamodel.User
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", userID, true).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &auth.User{
		ID:        row.ID,
		Email:     row.Email,
		Name:      row.Name,
		Role:      coreUser.Role(row.Role),
		CompanyID: row.CompanyID,
		ManagerID: row.ManagerID,
	}, nil
}
