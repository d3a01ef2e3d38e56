package user

import (
	"github.com/frahmantamala/expense-reimbursement/internal"
	coreUser "github.com/frahmantamala/expense-reimbursement/internal/core/user"
)

// UpdateUserDTO changes a user's role or reporting line. A nil field is left
// untouched; ClearManager removes the manager.
type UpdateUserDTO struct {
	Role         *string `json:"role,omitempty"`
	ManagerID    *int64  `json:"managerId,omitempty"`
	ClearManager bool    `json:"clearManager,omitempty"`
}

func (d UpdateUserDTO) Validate() error {
	if d.Role == nil && d.ManagerID == nil && !d.ClearManager {
		return internal.NewValidationError("nothing to update", internal.ErrCodeValidationFailed)
	}
	if d.Role != nil {
		if _, ok := coreUser.ParseRole(*d.Role); !ok {
			return internal.NewValidationFieldError("role", "role must be one of: employee, manager, admin", internal.ErrCodeInvalidRole)
		}
	}
	if d.ManagerID != nil && d.ClearManager {
		return internal.NewValidationFieldError("managerId", "managerId and clearManager are mutually exclusive", internal.ErrCodeInvalidManager)
	}
	if d.ManagerID != nil && *d.ManagerID <= 0 {
		return internal.NewValidationFieldError("managerId", "managerId must be positive", internal.ErrCodeInvalidManager)
	}
	return nil
}

type UsersResponse struct {
	Users []*User `json:"users"`
}
