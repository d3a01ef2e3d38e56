package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/expense-reimbursement/internal/core/events"
	"github.com/frahmantamala/expense-reimbursement/internal/user"
)

type Message struct {
	RecipientID    int64
	RecipientEmail string
	ExpenseID      int64
	EventType      string
	Subject        string
}

// Notifier delivers a message. Delivery channels live outside this service.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

type RecipientLookup interface {
	GetByID(ctx context.Context, userID int64) (*user.User, error)
}

// LogNotifier writes each message to the log instead of delivering it.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, msg Message) error {
	n.logger.InfoContext(ctx, "notification queued",
		"recipient_id", msg.RecipientID,
		"recipient_email", msg.RecipientEmail,
		"expense_id", msg.ExpenseID,
		"event_type", msg.EventType,
		"subject", msg.Subject)
	return nil
}

type EventHandler struct {
	users    RecipientLookup
	notifier Notifier
	logger   *slog.Logger
}

func NewEventHandler(users RecipientLookup, notifier Notifier, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		users:    users,
		notifier: notifier,
		logger:   logger,
	}
}

// HandleExpenseEvent tells the next approver that an expense is waiting, or
// the employee that it reached a final decision.
func (h *EventHandler) HandleExpenseEvent(ctx context.Context, event events.Event) error {
	expenseEvent, ok := event.(*events.ExpenseEvent)
	if !ok {
		h.logger.Error("invalid event type for notification handler", "event_type", event.EventType())
		return fmt.Errorf("expected ExpenseEvent, got %T", event)
	}

	recipientID, subject := route(expenseEvent)
	if recipientID == 0 {
		h.logger.Debug("no recipient for expense event",
			"event_type", expenseEvent.EventType(),
			"expense_id", expenseEvent.ExpenseID)
		return nil
	}

	recipient, err := h.users.GetByID(ctx, recipientID)
	if err != nil {
		return fmt.Errorf("lookup recipient %d: %w", recipientID, err)
	}

	msg := Message{
		RecipientID:    recipient.ID,
		RecipientEmail: recipient.Email,
		ExpenseID:      expenseEvent.ExpenseID,
		EventType:      expenseEvent.EventType(),
		Subject:        subject,
	}
	if err := h.notifier.Notify(ctx, msg); err != nil {
		return fmt.Errorf("notify user %d about expense %d: %w", recipient.ID, expenseEvent.ExpenseID, err)
	}
	return nil
}

func route(e *events.ExpenseEvent) (int64, string) {
	switch e.EventType() {
	case events.EventTypeExpenseSubmitted, events.EventTypeExpenseStepAdvanced:
		if e.NextApproverID == nil {
			return 0, ""
		}
		return *e.NextApproverID, fmt.Sprintf("Expense #%d is waiting for your approval", e.ExpenseID)
	case events.EventTypeExpenseApproved:
		return e.EmployeeID, fmt.Sprintf("Expense #%d was approved", e.ExpenseID)
	case events.EventTypeExpenseRejected:
		return e.EmployeeID, fmt.Sprintf("Expense #%d was rejected", e.ExpenseID)
	}
	return 0, ""
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	for _, t := range events.ExpenseEventTypes {
		eventBus.Subscribe(t, h.HandleExpenseEvent)
	}

	h.logger.Info("notification event handlers registered", "handlers", events.ExpenseEventTypes)
}
