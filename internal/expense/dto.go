package expense

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/frahmantamala/expense-reimbursement/internal"
	"github.com/frahmantamala/expense-reimbursement/internal/approval"
	"github.com/frahmantamala/expense-reimbursement/internal/core/common/validation"
)

// CreateExpenseDTO is the body of POST /expenses/create. Category is the id
// of one of the company's categories.
type CreateExpenseDTO struct {
	Category         int64            `json:"category"`
	Description      string           `json:"description"`
	AmountOriginal   *decimal.Decimal `json:"amountOriginal"`
	CurrencyOriginal string           `json:"currencyOriginal"`
	ReceiptURL       *string          `json:"receiptUrl,omitempty"`
	DateIncurred     string           `json:"dateIncurred"`
}

// Validate normalizes the request and returns the parsed incurred date.
func (d *CreateExpenseDTO) Validate() (time.Time, error) {
	d.Description = strings.TrimSpace(d.Description)
	d.CurrencyOriginal = strings.ToUpper(strings.TrimSpace(d.CurrencyOriginal))
	if d.ReceiptURL != nil && strings.TrimSpace(*d.ReceiptURL) == "" {
		d.ReceiptURL = nil
	}

	v := validation.NewValidator()
	v.Field("category", d.Category).Required()
	v.Field("description", d.Description).Required().MaxLength(500)
	v.Field("amountOriginal", d.AmountOriginal).
		Required().
		PositiveDecimal(internal.ErrCodeInvalidAmount).
		MaxDecimalPlaces(2, internal.ErrCodeInvalidAmount)
	v.Field("currencyOriginal", d.CurrencyOriginal).Required().CurrencyCode()
	if d.ReceiptURL != nil {
		v.Field("receiptUrl", *d.ReceiptURL).MaxLength(2048)
	}
	if appErr := v.Validate(); appErr != nil {
		return time.Time{}, appErr
	}

	date, appErr := validation.ParseDate("dateIncurred", d.DateIncurred)
	if appErr != nil {
		return time.Time{}, appErr
	}
	dv := validation.NewValidator()
	dv.Field("dateIncurred", date).NotFuture()
	if appErr := dv.Validate(); appErr != nil {
		return time.Time{}, appErr
	}
	return date, nil
}

// UpdateStatusDTO is the body of PATCH /expenses/{id}/status.
type UpdateStatusDTO struct {
	Status  string `json:"status"`
	Comment string `json:"comment,omitempty"`
}

func (d *UpdateStatusDTO) Validate() error {
	d.Status = strings.ToLower(strings.TrimSpace(d.Status))
	d.Comment = strings.TrimSpace(d.Comment)

	v := validation.NewValidator()
	v.Field("status", d.Status).Required()
	v.Field("comment", d.Comment).MaxLength(1000)
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// DecideRequest is an approve or reject action on the current step.
type DecideRequest struct {
	ExpenseID int64
	Actor     approval.Actor
	Decision  string
	Comment   string
}

// ParseStatusFilter accepts an empty filter or one of the known statuses.
func ParseStatusFilter(raw string) (string, error) {
	status := strings.ToLower(strings.TrimSpace(raw))
	if status == "" || IsValidStatus(status) {
		return status, nil
	}
	return "", internal.NewValidationFieldError("status",
		"status must be one of: "+strings.Join(Statuses, ", "), internal.ErrCodeInvalidStatus)
}

type ExpensesResponse struct {
	Expenses []*View `json:"expenses"`
}

type ApprovalsResponse struct {
	Approvals []*ActionView `json:"approvals"`
}

// ApprovalSequenceResponse always reports sequential, unanimous approval;
// quorum rules are not supported.
type ApprovalSequenceResponse struct {
	Sequence               []ApproverView `json:"sequence"`
	CurrentApprovalStep    int            `json:"currentApprovalStep"`
	IsSequential           bool           `json:"isSequential"`
	MinimumPercentApproval int            `json:"minimumPercentApproval"`
}
