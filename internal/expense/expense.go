package expense

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/frahmantamala/expense-reimbursement/internal/approval"
	expenseDatamodel "github.com/frahmantamala/expense-reimbursement/internal/core/datamodel/expense"
)

const (
	StatusDraft    = "draft"
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

var Statuses = []string{StatusDraft, StatusPending, StatusApproved, StatusRejected}

func IsValidStatus(s string) bool {
	for _, status := range Statuses {
		if s == status {
			return true
		}
	}
	return false
}

// Expense keeps 0 <= CurrentApprovalStep <= len(ApprovalSequence); a step
// equal to the length means the sequence is exhausted.
type Expense struct {
	ID                  int64             `json:"id"`
	EmployeeID          int64             `json:"employeeId"`
	CompanyID           int64             `json:"companyId"`
	CategoryID          int64             `json:"categoryId"`
	Description         string            `json:"description"`
	AmountOriginal      decimal.Decimal   `json:"amountOriginal"`
	CurrencyOriginal    string            `json:"currencyOriginal"`
	AmountConverted     decimal.Decimal   `json:"amountConverted"`
	ReceiptURL          *string           `json:"receiptUrl,omitempty"`
	DateIncurred        time.Time         `json:"dateIncurred"`
	Status              string            `json:"status"`
	ApprovalSequence    approval.Sequence `json:"approvalSequence"`
	CurrentApprovalStep int               `json:"currentApprovalStep"`
	Version             int               `json:"-"`
	SubmittedAt         *time.Time        `json:"submittedAt,omitempty"`
	ProcessedAt         *time.Time        `json:"processedAt,omitempty"`
	CreatedAt           time.Time         `json:"createdAt"`
	UpdatedAt           time.Time         `json:"updatedAt"`
}

func (e *Expense) IsTerminal() bool {
	return e.Status == StatusApproved || e.Status == StatusRejected
}

func (e *Expense) CanBeSubmitted() bool {
	return e.Status == StatusDraft
}

func (e *Expense) CanBeDecided() bool {
	return e.Status == StatusPending
}

// Submit enters the workflow. An empty sequence approves immediately since
// nobody would ever be able to act on the expense.
func (e *Expense) Submit(seq approval.Sequence, now time.Time) {
	e.ApprovalSequence = seq.Clone()
	e.CurrentApprovalStep = 0
	e.SubmittedAt = &now
	e.UpdatedAt = now

	if e.ApprovalSequence.IsEmpty() {
		e.Status = StatusApproved
		e.ProcessedAt = &now
		return
	}
	e.Status = StatusPending
}

// Approve advances one step, completing the workflow on the last one.
func (e *Expense) Approve(now time.Time) {
	e.UpdatedAt = now
	if e.ApprovalSequence.IsLastStep(e.CurrentApprovalStep) {
		e.Status = StatusApproved
		e.CurrentApprovalStep = e.ApprovalSequence.Len()
		e.ProcessedAt = &now
		return
	}
	e.CurrentApprovalStep++
}

// Reject is final whatever step the expense is at.
func (e *Expense) Reject(now time.Time) {
	e.Status = StatusRejected
	e.ProcessedAt = &now
	e.UpdatedAt = now
}

func (e *Expense) Subject(employeeManagerID *int64) approval.Subject {
	return approval.Subject{
		Sequence:          e.ApprovalSequence,
		CurrentStep:       e.CurrentApprovalStep,
		EmployeeManagerID: employeeManagerID,
	}
}

// CurrentApproverID is nil unless the expense is pending on a named approver.
func (e *Expense) CurrentApproverID() *int64 {
	if e.Status != StatusPending {
		return nil
	}
	id, ok := e.ApprovalSequence.At(e.CurrentApprovalStep)
	if !ok {
		return nil
	}
	return &id
}

func NewExpense(employeeID, companyID int64, in NewExpenseInput) *Expense {
	now := time.Now()
	return &Expense{
		EmployeeID:       employeeID,
		CompanyID:        companyID,
		CategoryID:       in.CategoryID,
		Description:      in.Description,
		AmountOriginal:   in.AmountOriginal,
		CurrencyOriginal: in.CurrencyOriginal,
		AmountConverted:  in.AmountConverted,
		ReceiptURL:       in.ReceiptURL,
		DateIncurred:     in.DateIncurred,
		Status:           StatusDraft,
		ApprovalSequence: approval.Sequence{},
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// NewExpenseInput is a validated create request with the converted amount.
type NewExpenseInput struct {
	CategoryID       int64
	Description      string
	AmountOriginal   decimal.Decimal
	CurrencyOriginal string
	AmountConverted  decimal.Decimal
	ReceiptURL       *string
	DateIncurred     time.Time
}

func ToDataModel(e *Expense) *expenseDatamodel.Expense {
	return &expenseDatamodel.Expense{
		ID:                  e.ID,
		EmployeeID:          e.EmployeeID,
		CompanyID:           e.CompanyID,
		CategoryID:          e.CategoryID,
		Description:         e.Description,
		AmountOriginal:      e.AmountOriginal,
		CurrencyOriginal:    e.CurrencyOriginal,
		AmountConverted:     e.AmountConverted,
		ReceiptURL:          e.ReceiptURL,
		DateIncurred:        e.DateIncurred,
		Status:              e.Status,
		ApprovalSequence:    e.ApprovalSequence.ToDataModel(),
		CurrentApprovalStep: e.CurrentApprovalStep,
		Version:             e.Version,
		SubmittedAt:         e.SubmittedAt,
		ProcessedAt:         e.ProcessedAt,
		CreatedAt:           e.CreatedAt,
		UpdatedAt:           e.UpdatedAt,
	}
}

func FromDataModel(e *expenseDatamodel.Expense) *Expense {
	return &Expense{
		ID:                  e.ID,
		EmployeeID:          e.EmployeeID,
		CompanyID:           e.CompanyID,
		CategoryID:          e.CategoryID,
		Description:         e.Description,
		AmountOriginal:      e.AmountOriginal,
		CurrencyOriginal:    e.CurrencyOriginal,
		AmountConverted:     e.AmountConverted,
		ReceiptURL:          e.ReceiptURL,
		DateIncurred:        e.DateIncurred,
		Status:              e.Status,
		ApprovalSequence:    approval.SequenceFromDataModel(e.ApprovalSequence),
		CurrentApprovalStep: e.CurrentApprovalStep,
		Version:             e.Version,
		SubmittedAt:         e.SubmittedAt,
		ProcessedAt:         e.ProcessedAt,
		CreatedAt:           e.CreatedAt,
		UpdatedAt:           e.UpdatedAt,
	}
}

func FromDataModelSlice(expenses []*expenseDatamodel.Expense) []*Expense {
	result := make([]*Expense, len(expenses))
	for i, e := range expenses {
		result[i] = FromDataModel(e)
	}
	return result
}
