package approval

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// IDList is an ordered list of user ids stored as a JSON array column.
type IDList []int64

func (l IDList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]int64(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *IDList) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = IDList{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("approval: cannot scan %T into IDList", src)
	}

	if len(raw) == 0 {
		*l = IDList{}
		return nil
	}

	var ids []int64
	if err := json.Unmarshal(raw, &ids); err != nil {
		return fmt.Errorf("approval: decode id list: %w", err)
	}
	if ids == nil {
		ids = []int64{}
	}
	*l = ids
	return nil
}

type ApprovalAction struct {
	ID        int64     `gorm:"primaryKey"`
	ExpenseID int64     `gorm:"column:expense_id;not null;index"`
	UserID    int64     `gorm:"column:user_id;not null"`
	StepOrder int       `gorm:"column:step_order;not null"`
	Status    string    `gorm:"column:status;not null"`
	Comment   string    `gorm:"column:comment"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (ApprovalAction) TableName() string {
	return "approval_actions"
}

// ApprovalRule rows are read through sqlx, hence the db tags.
type ApprovalRule struct {
	ID         int64     `db:"id" gorm:"primaryKey"`
	CompanyID  int64     `db:"company_id" gorm:"column:company_id;not null"`
	CategoryID *int64    `db:"category_id" gorm:"column:category_id"`
	Name       string    `db:"name" gorm:"column:name"`
	Approvers  IDList    `db:"approvers" gorm:"column:approvers;not null"`
	CreatedAt  time.Time `db:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `db:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (ApprovalRule) TableName() string {
	return "approval_rules"
}
