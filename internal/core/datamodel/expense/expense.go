package expense

import (
	"time"

	"github.com/shopspring/decimal"

	approvalDatamodel "github.com/frahmantamala/expense-reimbursement/internal/core/datamodel/approval"
)

type Expense struct {
	ID                  int64                    `gorm:"primaryKey"`
	EmployeeID          int64                    `gorm:"column:employee_id;not null;index"`
	CompanyID           int64                    `gorm:"column:company_id;not null;index"`
	CategoryID          int64                    `gorm:"column:category_id;not null"`
	Description         string                   `gorm:"column:description;not null"`
	AmountOriginal      decimal.Decimal          `gorm:"column:amount_original;type:numeric(18,2);not null"`
	CurrencyOriginal    string                   `gorm:"column:currency_original;not null"`
	AmountConverted     decimal.Decimal          `gorm:"column:amount_converted;type:numeric(18,2);not null"`
	ReceiptURL          *string                  `gorm:"column:receipt_url"`
	DateIncurred        time.Time                `gorm:"column:date_incurred;type:date"`
	Status              string                   `gorm:"column:status;not null;default:draft"`
	ApprovalSequence    approvalDatamodel.IDList `gorm:"column:approval_sequence;not null"`
	CurrentApprovalStep int                      `gorm:"column:current_approval_step;not null;default:0"`
	Version             int                      `gorm:"column:version;not null;default:1"`
	SubmittedAt         *time.Time               `gorm:"column:submitted_at"`
	ProcessedAt         *time.Time               `gorm:"column:processed_at"`
	CreatedAt           time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

func (Expense) TableName() string {
	return "expenses"
}
