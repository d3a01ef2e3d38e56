package user

import (
	"time"

	userDatamodel "github.com/frahmantamala/expense-reimbursement/internal/core/datamodel/user"
	coreUser "github.com/frahmantamala/expense-reimbursement/internal/core/user"
)

// User represents the internal user model
type User struct {
	ID           int64         `json:"id"`
	CompanyID    int64         `json:"companyId"`
	Email        string        `json:"email"`
	Name         string        `json:"name"`
	PasswordHash string        `json:"-"`
	Role         coreUser.Role `json:"role"`
	ManagerID    *int64        `json:"managerId,omitempty"`
	IsActive     bool          `json:"isActive"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// Summary is the public projection embedded in other resources.
type Summary struct {
	ID    int64         `json:"id"`
	Name  string        `json:"name"`
	Email string        `json:"email"`
	Role  coreUser.Role `json:"role,omitempty"`
}

func (u *User) IsManager() bool {
	return u.Role == coreUser.RoleManager
}

func (u *User) IsAdmin() bool {
	return u.Role == coreUser.RoleAdmin
}

// CanApprove reports whether the user may be named as a manager of someone.
func (u *User) CanApprove() bool {
	return u.IsManager() || u.IsAdmin()
}

func (u *User) Summary() Summary {
	return Summary{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
}

func ToDataModel(u *User) *userDatamodel.User {
	return &userDatamodel.User{
		ID:           u.ID,
		CompanyID:    u.CompanyID,
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		ManagerID:    u.ManagerID,
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:           u.ID,
		CompanyID:    u.CompanyID,
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		Role:         coreUser.Role(u.Role),
		ManagerID:    u.ManagerID,
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func FromDataModelSlice(users []*userDatamodel.User) []*User {
	result := make([]*User, len(users))
	for i, u := range users {
		result[i] = FromDataModel(u)
	}
	return result
}
