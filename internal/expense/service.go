package expense

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/frahmantamala/expense-reimbursement/internal"
	"github.com/frahmantamala/expense-reimbursement/internal/approval"
	"github.com/frahmantamala/expense-reimbursement/internal/category"
	"github.com/frahmantamala/expense-reimbursement/internal/company"
	approvalDatamodel "github.com/frahmantamala/expense-reimbursement/internal/core/datamodel/approval"
	expenseDatamodel "github.com/frahmantamala/expense-reimbursement/internal/core/datamodel/expense"
	"github.com/frahmantamala/expense-reimbursement/internal/core/events"
	coreUser "github.com/frahmantamala/expense-reimbursement/internal/core/user"
	"github.com/frahmantamala/expense-reimbursement/internal/user"
)

// ListFilter narrows a company listing. Zero values mean "any".
type ListFilter struct {
	CompanyID  int64
	EmployeeID int64
	Status     string
}

// Repository lookups return nil, nil when nothing matches. SaveTransition
// writes the expense only if its stored version still equals
// expectedVersion and returns internal.ErrConcurrentUpdate otherwise; a
// non-nil action is inserted in the same transaction.
type Repository interface {
	Create(ctx context.Context, e *expenseDatamodel.Expense) error
	GetByID(ctx context.Context, id int64) (*expenseDatamodel.Expense, error)
	List(ctx context.Context, filter ListFilter) ([]*expenseDatamodel.Expense, error)
	SaveTransition(ctx context.Context, e *expenseDatamodel.Expense, expectedVersion int, action *approvalDatamodel.ApprovalAction) error
}

type SequenceResolver interface {
	Resolve(ctx context.Context, req approval.Request) (approval.Sequence, error)
}

type AmountConverter interface {
	Convert(ctx context.Context, amount decimal.Decimal, from, to string) decimal.Decimal
}

type UserDirectory interface {
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*user.User, error)
	GetManagerID(ctx context.Context, employeeID int64) (*int64, error)
}

type CompanyLookup interface {
	GetByID(ctx context.Context, id int64) (*company.Company, error)
}

type CategoryLookup interface {
	GetForCompany(ctx context.Context, companyID, id int64) (*category.Category, error)
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*category.Category, error)
}

// Collaborators are the services the expense workflow reads from. Events
// may be nil.
type Collaborators struct {
	Resolver   SequenceResolver
	Converter  AmountConverter
	Users      UserDirectory
	Companies  CompanyLookup
	Categories CategoryLookup
	Actions    approval.ActionReader
	Events     events.Publisher
}

type Service struct {
	repo Repository
	Collaborators
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, deps Collaborators, logger *slog.Logger) *Service {
	return &Service{
		repo:          repo,
		Collaborators: deps,
		logger:        logger,
		now:           time.Now,
	}
}

// CreateExpense stores a draft with its amount converted to the company
// base currency at this moment.
func (s *Service) CreateExpense(ctx context.Context, actor approval.Actor, dto CreateExpenseDTO) (*View, error) {
	dateIncurred, err := dto.Validate()
	if err != nil {
		s.logger.Debug("expense validation failed", "user_id", actor.ID, "error", err)
		return nil, err
	}

	if _, err := s.Categories.GetForCompany(ctx, actor.CompanyID, dto.Category); err != nil {
		if errors.Is(err, internal.ErrCategoryNotFound) {
			return nil, internal.NewValidationFieldError("category", "category not found", internal.ErrCodeInvalidCategory)
		}
		return nil, err
	}

	comp, err := s.Companies.GetByID(ctx, actor.CompanyID)
	if err != nil {
		return nil, err
	}

	amount := *dto.AmountOriginal
	converted := s.Converter.Convert(ctx, amount, dto.CurrencyOriginal, comp.BaseCurrency)

	e := NewExpense(actor.ID, actor.CompanyID, NewExpenseInput{
		CategoryID:       dto.Category,
		Description:      dto.Description,
		AmountOriginal:   amount,
		CurrencyOriginal: dto.CurrencyOriginal,
		AmountConverted:  converted,
		ReceiptURL:       dto.ReceiptURL,
		DateIncurred:     dateIncurred,
	})

	row := ToDataModel(e)
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.Error("failed to create expense", "user_id", actor.ID, "error", err)
		return nil, internal.NewInternalError("failed to create expense", err)
	}
	e = FromDataModel(row)

	s.logger.Info("expense created",
		"expense_id", e.ID,
		"user_id", actor.ID,
		"amount", amount.String(),
		"currency", dto.CurrencyOriginal,
		"amount_converted", converted.String(),
		"base_currency", comp.BaseCurrency)

	return s.populate(ctx, e)
}

// UpdateStatus maps the requested status onto a workflow operation.
func (s *Service) UpdateStatus(ctx context.Context, expenseID int64, actor approval.Actor, dto UpdateStatusDTO) (*View, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	switch dto.Status {
	case StatusPending:
		return s.Submit(ctx, expenseID, actor)
	case StatusApproved, StatusRejected:
		return s.Decide(ctx, DecideRequest{
			ExpenseID: expenseID,
			Actor:     actor,
			Decision:  dto.Status,
			Comment:   dto.Comment,
		})
	default:
		return nil, internal.ErrInvalidStatusAction
	}
}

// Submit moves a draft into the workflow with a freshly resolved sequence.
func (s *Service) Submit(ctx context.Context, expenseID int64, actor approval.Actor) (*View, error) {
	e, err := s.load(ctx, expenseID, actor.CompanyID)
	if err != nil {
		return nil, err
	}

	if e.EmployeeID != actor.ID {
		s.logger.Warn("submit denied: not the owner", "expense_id", expenseID, "user_id", actor.ID)
		return nil, internal.ErrUnauthorizedAccess
	}
	if !e.CanBeSubmitted() {
		s.logger.Warn("cannot submit expense in current status", "expense_id", expenseID, "status", e.Status)
		return nil, internal.ErrInvalidExpenseStatus
	}

	seq, err := s.Resolver.Resolve(ctx, approval.Request{
		CompanyID:  e.CompanyID,
		CategoryID: e.CategoryID,
		EmployeeID: e.EmployeeID,
	})
	if err != nil {
		return nil, err
	}

	expected := e.Version
	e.Submit(seq, s.now())
	e.Version++

	if err := s.save(ctx, e, expected, nil); err != nil {
		return nil, err
	}

	if e.Status == StatusApproved {
		s.logger.Info("expense auto-approved, no approver available", "expense_id", e.ID)
		s.publish(ctx, events.EventTypeExpenseApproved, e, 0, "")
	} else {
		s.logger.Info("expense submitted", "expense_id", e.ID, "approvers", e.ApprovalSequence.Len())
		s.publish(ctx, events.EventTypeExpenseSubmitted, e, 0, "")
	}

	return s.populate(ctx, e)
}

// Decide approves or rejects the current step of a pending expense.
func (s *Service) Decide(ctx context.Context, req DecideRequest) (*View, error) {
	if !approval.IsDecision(req.Decision) {
		return nil, internal.ErrInvalidStatusAction
	}

	e, err := s.load(ctx, req.ExpenseID, req.Actor.CompanyID)
	if err != nil {
		return nil, err
	}

	if !e.CanBeDecided() {
		s.logger.Warn("cannot decide expense in current status",
			"expense_id", e.ID,
			"status", e.Status,
			"decision", req.Decision)
		return nil, internal.ErrInvalidExpenseStatus
	}

	managerID, err := s.Users.GetManagerID(ctx, e.EmployeeID)
	if err != nil && !errors.Is(err, internal.ErrUserNotFound) {
		return nil, err
	}

	decision := approval.Authorize(e.Subject(managerID), req.Actor)
	if !decision.Allowed {
		s.logger.Warn("decision denied: not the current approver",
			"expense_id", e.ID,
			"user_id", req.Actor.ID,
			"step", e.CurrentApprovalStep)
		return nil, internal.ErrNotCurrentApprover
	}
	if decision.Materialize != nil {
		e.ApprovalSequence = decision.Materialize
	}

	now := s.now()
	step := e.CurrentApprovalStep
	action := approval.NewAction(e.ID, req.Actor.ID, step, req.Decision, req.Comment)
	action.CreatedAt = now

	expected := e.Version
	if req.Decision == approval.ActionRejected {
		e.Reject(now)
	} else {
		e.Approve(now)
	}
	e.Version++

	if err := s.save(ctx, e, expected, action.ToDataModel()); err != nil {
		return nil, err
	}

	s.logger.Info("expense decision recorded",
		"expense_id", e.ID,
		"user_id", req.Actor.ID,
		"decision", req.Decision,
		"reason", decision.Reason,
		"step", step,
		"status", e.Status)

	switch {
	case e.Status == StatusRejected:
		s.publish(ctx, events.EventTypeExpenseRejected, e, req.Actor.ID, req.Comment)
	case e.Status == StatusApproved:
		s.publish(ctx, events.EventTypeExpenseApproved, e, req.Actor.ID, req.Comment)
	default:
		s.publish(ctx, events.EventTypeExpenseStepAdvanced, e, req.Actor.ID, req.Comment)
	}

	return s.populate(ctx, e)
}

// GetByID returns an expense its owner, or a manager or admin of the same
// company, may see.
func (s *Service) GetByID(ctx context.Context, expenseID int64, actor approval.Actor) (*View, error) {
	e, err := s.visible(ctx, expenseID, actor)
	if err != nil {
		return nil, err
	}
	return s.populate(ctx, e)
}

// Approvals returns the audit trail of an expense ordered by step.
func (s *Service) Approvals(ctx context.Context, expenseID int64, actor approval.Actor) ([]*ActionView, error) {
	e, err := s.visible(ctx, expenseID, actor)
	if err != nil {
		return nil, err
	}

	rows, err := s.Actions.ListByExpense(ctx, e.ID)
	if err != nil {
		s.logger.Error("failed to list approval actions", "expense_id", e.ID, "error", err)
		return nil, internal.NewInternalError("failed to list approval actions", err)
	}
	actions := approval.ActionsFromDataModel(rows)

	ids := make([]int64, len(actions))
	for i, a := range actions {
		ids[i] = a.UserID
	}
	users, err := s.Users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	l := lookups{users: users}
	out := make([]*ActionView, len(actions))
	for i, a := range actions {
		out[i] = l.action(a)
	}
	return out, nil
}

// ApprovalSequence expands the stored sequence into user details.
func (s *Service) ApprovalSequence(ctx context.Context, expenseID int64, actor approval.Actor) (*ApprovalSequenceResponse, error) {
	e, err := s.visible(ctx, expenseID, actor)
	if err != nil {
		return nil, err
	}

	users, err := s.Users.GetByIDs(ctx, e.ApprovalSequence)
	if err != nil {
		return nil, err
	}

	return &ApprovalSequenceResponse{
		Sequence:               lookups{users: users}.approvers(e.ApprovalSequence),
		CurrentApprovalStep:    e.CurrentApprovalStep,
		IsSequential:           true,
		MinimumPercentApproval: 100,
	}, nil
}

// ListForApprover picks the dashboard of the actor's role.
func (s *Service) ListForApprover(ctx context.Context, actor approval.Actor, status string) ([]*View, error) {
	switch actor.Role {
	case coreUser.RoleAdmin:
		return s.ListForAdmin(ctx, actor, status)
	case coreUser.RoleManager:
		return s.ListForManager(ctx, actor, status)
	default:
		return s.ListForEmployee(ctx, actor)
	}
}

// ListForManager shows pending expenses the manager can act on right now.
// Other statuses list the whole company.
func (s *Service) ListForManager(ctx context.Context, actor approval.Actor, status string) ([]*View, error) {
	status, err := ParseStatusFilter(status)
	if err != nil {
		return nil, err
	}

	expenses, err := s.list(ctx, ListFilter{CompanyID: actor.CompanyID, Status: status})
	if err != nil {
		return nil, err
	}

	if status == StatusPending {
		expenses, err = s.actionable(ctx, expenses, actor.ID)
		if err != nil {
			return nil, err
		}
	}

	return s.populateMany(ctx, expenses)
}

func (s *Service) ListForAdmin(ctx context.Context, actor approval.Actor, status string) ([]*View, error) {
	status, err := ParseStatusFilter(status)
	if err != nil {
		return nil, err
	}

	expenses, err := s.list(ctx, ListFilter{CompanyID: actor.CompanyID, Status: status})
	if err != nil {
		return nil, err
	}
	return s.populateMany(ctx, expenses)
}

func (s *Service) ListForEmployee(ctx context.Context, actor approval.Actor) ([]*View, error) {
	expenses, err := s.list(ctx, ListFilter{CompanyID: actor.CompanyID, EmployeeID: actor.ID})
	if err != nil {
		return nil, err
	}
	return s.populateMany(ctx, expenses)
}

// ListCompany lists every expense of the actor's company.
func (s *Service) ListCompany(ctx context.Context, actor approval.Actor) ([]*View, error) {
	expenses, err := s.list(ctx, ListFilter{CompanyID: actor.CompanyID})
	if err != nil {
		return nil, err
	}
	return s.populateMany(ctx, expenses)
}

// actionable keeps the expenses whose current step belongs to actorID,
// using the same rule as Decide.
func (s *Service) actionable(ctx context.Context, expenses []*Expense, actorID int64) ([]*Expense, error) {
	employeeIDs := make([]int64, len(expenses))
	for i, e := range expenses {
		employeeIDs[i] = e.EmployeeID
	}
	employees, err := s.Users.GetByIDs(ctx, employeeIDs)
	if err != nil {
		return nil, err
	}

	out := make([]*Expense, 0, len(expenses))
	for _, e := range expenses {
		var managerID *int64
		if emp, ok := employees[e.EmployeeID]; ok {
			managerID = emp.ManagerID
		}
		if approval.IsCurrentApprover(e.Subject(managerID), actorID) {
			out = append(out, e)
		}
	}
	return out, nil
}

// load hides expenses of other companies behind not found.
func (s *Service) load(ctx context.Context, expenseID, companyID int64) (*Expense, error) {
	row, err := s.repo.GetByID(ctx, expenseID)
	if err != nil {
		s.logger.Error("failed to get expense", "expense_id", expenseID, "error", err)
		return nil, internal.NewInternalError("failed to get expense", err)
	}
	if row == nil || row.CompanyID != companyID {
		return nil, internal.ErrExpenseNotFound
	}
	return FromDataModel(row), nil
}

func (s *Service) visible(ctx context.Context, expenseID int64, actor approval.Actor) (*Expense, error) {
	e, err := s.load(ctx, expenseID, actor.CompanyID)
	if err != nil {
		return nil, err
	}
	if e.EmployeeID != actor.ID && actor.Role != coreUser.RoleManager && actor.Role != coreUser.RoleAdmin {
		s.logger.Warn("unauthorized access to expense", "expense_id", expenseID, "user_id", actor.ID)
		return nil, internal.ErrUnauthorizedAccess
	}
	return e, nil
}

func (s *Service) list(ctx context.Context, filter ListFilter) ([]*Expense, error) {
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list expenses",
			"company_id", filter.CompanyID,
			"employee_id", filter.EmployeeID,
			"status", filter.Status,
			"error", err)
		return nil, internal.NewInternalError("failed to list expenses", err)
	}
	return FromDataModelSlice(rows), nil
}

func (s *Service) save(ctx context.Context, e *Expense, expectedVersion int, action *approvalDatamodel.ApprovalAction) error {
	err := s.repo.SaveTransition(ctx, ToDataModel(e), expectedVersion, action)
	if err == nil {
		return nil
	}
	if errors.Is(err, internal.ErrConcurrentUpdate) {
		s.logger.Warn("concurrent update detected", "expense_id", e.ID, "expected_version", expectedVersion)
		return internal.ErrConcurrentUpdate
	}
	s.logger.Error("failed to save expense transition", "expense_id", e.ID, "error", err)
	return internal.NewInternalError("failed to save expense", err)
}

func (s *Service) populate(ctx context.Context, e *Expense) (*View, error) {
	views, err := s.populateMany(ctx, []*Expense{e})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

func (s *Service) populateMany(ctx context.Context, expenses []*Expense) ([]*View, error) {
	users, err := s.Users.GetByIDs(ctx, userIDs(expenses))
	if err != nil {
		return nil, err
	}
	categories, err := s.Categories.GetByIDs(ctx, categoryIDs(expenses))
	if err != nil {
		return nil, err
	}

	l := lookups{users: users, categories: categories}
	views := make([]*View, len(expenses))
	for i, e := range expenses {
		views[i] = l.view(e)
	}
	return views, nil
}

func (s *Service) publish(ctx context.Context, eventType string, e *Expense, actorID int64, comment string) {
	if s.Events == nil {
		return
	}
	event := events.NewExpenseEvent(eventType, events.ExpenseEventParams{
		ExpenseID:      e.ID,
		CompanyID:      e.CompanyID,
		EmployeeID:     e.EmployeeID,
		ActorID:        actorID,
		NextApproverID: e.CurrentApproverID(),
		Step:           e.CurrentApprovalStep,
		Status:         e.Status,
		Comment:        comment,
	})
	if err := s.Events.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish expense event", "event_type", eventType, "expense_id", e.ID, "error", err)
	}
}
