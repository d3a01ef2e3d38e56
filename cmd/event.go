package cmd

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/expense-reimbursement/internal/core/events"
	"github.com/frahmantamala/expense-reimbursement/pkg/logger"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Inspect the in-process expense event bus`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish a test expense event",
	Long:  `Publish an expense workflow event to a local bus with a logging subscriber, for debugging payloads`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishTestEvent(args[0])
	},
}

var (
	eventExpenseID  int64
	eventEmployeeID int64
	eventApproverID int64
	eventStep       int
	eventComment    string
)

func publishTestEvent(eventType string) error {
	if !slices.Contains(events.ExpenseEventTypes, eventType) {
		return fmt.Errorf("unknown event type %q, expected one of %v", eventType, events.ExpenseEventTypes)
	}

	lg := logger.LoggerWrapper()
	eventBus := events.NewEventBus(lg)

	eventBus.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
		lg.Info("test handler received event",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"payload", event.Payload())
		return nil
	})

	params := events.ExpenseEventParams{
		ExpenseID:  eventExpenseID,
		EmployeeID: eventEmployeeID,
		Step:       eventStep,
		Comment:    eventComment,
	}
	if eventApproverID > 0 {
		params.NextApproverID = &eventApproverID
	}
	event := events.NewExpenseEvent(eventType, params)

	lg.Info("publishing test event", "event_type", eventType, "event_id", event.EventID())
	if err := eventBus.Publish(context.Background(), event); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	eventBus.Wait()
	lg.Info("test event published successfully")
	return nil
}

func init() {
	publishEventCmd.Flags().Int64Var(&eventExpenseID, "expense", 1, "expense id")
	publishEventCmd.Flags().Int64Var(&eventEmployeeID, "employee", 1, "employee id")
	publishEventCmd.Flags().Int64Var(&eventApproverID, "next-approver", 0, "next approver id, 0 for none")
	publishEventCmd.Flags().IntVar(&eventStep, "step", 0, "current approval step")
	publishEventCmd.Flags().StringVar(&eventComment, "comment", "", "decision comment")

	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
