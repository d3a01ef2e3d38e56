package expense_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/frahmantamala/expense-reimbursement/internal"
	"github.com/frahmantamala/expense-reimbursement/internal/approval"
	approvalDatamodel "github.com/frahmantamala/expense-reimbursement/internal/core/datamodel/approval"
	expenseDatamodel "github.com/frahmantamala/expense-reimbursement/internal/core/datamodel/expense"
	"github.com/frahmantamala/expense-reimbursement/internal/core/events"
	coreUser "github.com/frahmantamala/expense-reimbursement/internal/core/user"
	"github.com/frahmantamala/expense-reimbursement/internal/currency"
	"github.com/frahmantamala/expense-reimbursement/internal/expense"
	"github.com/frahmantamala/expense-reimbursement/internal/user"
	"github.com/frahmantamala/expense-reimbursement/pkg/logger"
)

var errRateMissing = errors.New("rate missing")

func ptr(v int64) *int64 { return &v }

func amount(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func actorOf(u *user.User) approval.Actor {
	return approval.Actor{ID: u.ID, Role: u.Role, CompanyID: u.CompanyID}
}

var _ = Describe("Expense Service", func() {
	var (
		ctx      context.Context
		repo     *memRepository
		dir      *directory
		ruleSet  *rules
		rateSrc  *rates
		bus      *recorder
		svc      *expense.Service
		admin    *user.User
		manager  *user.User
		employee *user.User
		peer     *user.User
		other    *user.User
		solo     *user.User
	)

	const (
		travelID int64 = 100
		mealsID  int64 = 101
		soloCat  int64 = 200
	)

	BeforeEach(func() {
		ctx = context.Background()

		admin = &user.User{ID: 1, CompanyID: 1, Name: "Ada", Email: "ada@acme.test", Role: coreUser.RoleAdmin}
		manager = &user.User{ID: 2, CompanyID: 1, Name: "Mia", Email: "mia@acme.test", Role: coreUser.RoleManager}
		employee = &user.User{ID: 3, CompanyID: 1, Name: "Eli", Email: "eli@acme.test", Role: coreUser.RoleEmployee, ManagerID: ptr(2)}
		peer = &user.User{ID: 4, CompanyID: 1, Name: "Pat", Email: "pat@acme.test", Role: coreUser.RoleEmployee, ManagerID: ptr(2)}
		other = &user.User{ID: 5, CompanyID: 1, Name: "Oz", Email: "oz@acme.test", Role: coreUser.RoleManager}
		solo = &user.User{ID: 6, CompanyID: 2, Name: "Sol", Email: "sol@beta.test", Role: coreUser.RoleEmployee}

		repo = newMemRepository()
		dir = newDirectory(admin, manager, employee, peer, other, solo)
		ruleSet = &rules{byCategory: map[int64]*approval.Rule{}}
		rateSrc = &rates{table: map[string]decimal.Decimal{"EURUSD": decimal.RequireFromString("1.1")}}
		bus = &recorder{}

		svc = expense.NewService(repo, expense.Collaborators{
			Resolver:  approval.NewResolver(ruleSet, dir, logger.Discard()),
			Converter: currency.NewConverter(rateSrc, logger.Discard()),
			Users:     dir,
			Companies: companies{
				1: {ID: 1, Name: "Acme", BaseCurrency: "USD"},
				2: {ID: 2, Name: "Beta", BaseCurrency: "EUR"},
			},
			Categories: categories{
				travelID: {ID: travelID, CompanyID: 1, Name: "Travel", IsActive: true},
				mealsID:  {ID: mealsID, CompanyID: 1, Name: "Meals", IsActive: true},
				soloCat:  {ID: soloCat, CompanyID: 2, Name: "Misc", IsActive: true},
			},
			Actions: repo,
			Events:  bus,
		}, logger.Discard())
	})

	create := func(owner *user.User, categoryID int64, amt, cur string) *expense.View {
		view, err := svc.CreateExpense(ctx, actorOf(owner), expense.CreateExpenseDTO{
			Category:         categoryID,
			Description:      "Client visit",
			AmountOriginal:   amount(amt),
			CurrencyOriginal: cur,
			DateIncurred:     "2024-01-15",
		})
		Expect(err).NotTo(HaveOccurred())
		return view
	}

	submit := func(owner *user.User, id int64) *expense.View {
		view, err := svc.Submit(ctx, id, actorOf(owner))
		Expect(err).NotTo(HaveOccurred())
		return view
	}

	decide := func(actor *user.User, id int64, decision string) (*expense.View, error) {
		return svc.Decide(ctx, expense.DecideRequest{
			ExpenseID: id,
			Actor:     actorOf(actor),
			Decision:  decision,
			Comment:   "looks fine",
		})
	}

	Describe("CreateExpense", func() {
		It("creates a draft without calling the rate service for the base currency", func() {
			view := create(employee, travelID, "100", "usd")

			Expect(view.Status).To(Equal(expense.StatusDraft))
			Expect(view.CurrencyOriginal).To(Equal("USD"))
			Expect(view.AmountConverted.Equal(decimal.NewFromInt(100))).To(BeTrue())
			Expect(view.ApprovalSequence).To(BeEmpty())
			Expect(view.CurrentApprovalStep).To(Equal(0))
			Expect(view.Employee.Name).To(Equal("Eli"))
			Expect(view.Category.Name).To(Equal("Travel"))
			Expect(rateSrc.calls).To(Equal(0))
		})

		It("converts foreign amounts to the base currency", func() {
			view := create(employee, travelID, "20.50", "EUR")

			Expect(view.AmountConverted.StringFixed(2)).To(Equal("22.55"))
			Expect(view.AmountOriginal.StringFixed(2)).To(Equal("20.50"))
		})

		It("keeps the original amount when the rate service is unreachable", func() {
			rateSrc.err = currency.ErrUpstreamUnavailable

			view := create(employee, travelID, "12000", "JPY")

			Expect(view.Status).To(Equal(expense.StatusDraft))
			Expect(view.AmountConverted.Equal(view.AmountOriginal)).To(BeTrue())
		})

		It("rejects categories of another company", func() {
			_, err := svc.CreateExpense(ctx, actorOf(employee), expense.CreateExpenseDTO{
				Category:         soloCat,
				Description:      "Lunch",
				AmountOriginal:   amount("10"),
				CurrencyOriginal: "USD",
				DateIncurred:     "2024-01-15",
			})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(400))
			Expect(err.Error()).To(Equal("category not found"))
		})

		DescribeTable("validates the request",
			func(dto expense.CreateExpenseDTO, message string) {
				_, err := svc.CreateExpense(ctx, actorOf(employee), dto)

				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring(message))
			},
			Entry("missing amount", expense.CreateExpenseDTO{Category: travelID, Description: "x", CurrencyOriginal: "USD", DateIncurred: "2024-01-01"}, "amountOriginal is required"),
			Entry("negative amount", expense.CreateExpenseDTO{Category: travelID, Description: "x", AmountOriginal: amount("-1"), CurrencyOriginal: "USD", DateIncurred: "2024-01-01"}, "must be positive"),
			Entry("sub-cent amount", expense.CreateExpenseDTO{Category: travelID, Description: "x", AmountOriginal: amount("1.001"), CurrencyOriginal: "USD", DateIncurred: "2024-01-01"}, "decimal places"),
			Entry("bad currency", expense.CreateExpenseDTO{Category: travelID, Description: "x", AmountOriginal: amount("1"), CurrencyOriginal: "DOLLAR", DateIncurred: "2024-01-01"}, "3-letter currency"),
			Entry("blank description", expense.CreateExpenseDTO{Category: travelID, Description: "  ", AmountOriginal: amount("1"), CurrencyOriginal: "USD", DateIncurred: "2024-01-01"}, "description is required"),
			Entry("bad date", expense.CreateExpenseDTO{Category: travelID, Description: "x", AmountOriginal: amount("1"), CurrencyOriginal: "USD", DateIncurred: "15/01/2024"}, "YYYY-MM-DD"),
			Entry("future date", expense.CreateExpenseDTO{Category: travelID, Description: "x", AmountOriginal: amount("1"), CurrencyOriginal: "USD", DateIncurred: "2999-01-01"}, "future"),
		)
	})

	Describe("Submit", func() {
		It("resolves manager then admin", func() {
			draft := create(employee, travelID, "100", "USD")

			view := submit(employee, draft.ID)

			Expect(view.Status).To(Equal(expense.StatusPending))
			Expect(view.ApprovalSequence).To(Equal(approval.Sequence{manager.ID, admin.ID}))
			Expect(view.CurrentApprovalStep).To(Equal(0))
			Expect(*view.CurrentApproverID).To(Equal(manager.ID))
			Expect(view.SubmittedAt).NotTo(BeNil())
			Expect(view.Approvers).To(HaveLen(2))
			Expect(view.Approvers[0].Name).To(Equal("Mia"))

			Expect(bus.types()).To(Equal([]string{events.EventTypeExpenseSubmitted}))
			Expect(*bus.last().NextApproverID).To(Equal(manager.ID))
		})

		It("uses a configured rule", func() {
			ruleSet.byCategory[mealsID] = &approval.Rule{ID: 9, Approvers: approval.Sequence{other.ID, admin.ID}}
			draft := create(employee, mealsID, "40", "USD")

			view := submit(employee, draft.ID)

			Expect(view.ApprovalSequence).To(Equal(approval.Sequence{other.ID, admin.ID}))
		})

		It("auto-approves when nobody can approve", func() {
			draft := create(solo, soloCat, "100", "EUR")

			view := submit(solo, draft.ID)

			Expect(view.Status).To(Equal(expense.StatusApproved))
			Expect(view.ApprovalSequence).To(BeEmpty())
			Expect(view.CurrentApprovalStep).To(Equal(0))
			Expect(view.ProcessedAt).NotTo(BeNil())
			Expect(bus.types()).To(Equal([]string{events.EventTypeExpenseApproved}))

			stored := repo.stored(draft.ID)
			Expect(stored.ApprovalSequence).NotTo(BeNil())
			Expect(stored.ApprovalSequence).To(BeEmpty())
		})

		It("refuses a second submission", func() {
			draft := create(employee, travelID, "100", "USD")
			submit(employee, draft.ID)

			_, err := svc.Submit(ctx, draft.ID, actorOf(employee))

			Expect(err).To(MatchError(internal.ErrInvalidExpenseStatus))
		})

		It("only lets the owner submit", func() {
			draft := create(employee, travelID, "100", "USD")

			_, err := svc.Submit(ctx, draft.ID, actorOf(peer))

			Expect(err).To(MatchError(internal.ErrUnauthorizedAccess))
		})

		It("hides expenses of other companies", func() {
			draft := create(employee, travelID, "100", "USD")

			_, err := svc.Submit(ctx, draft.ID, actorOf(solo))

			Expect(err).To(MatchError(internal.ErrExpenseNotFound))
		})
	})

	Describe("Decide", func() {
		var pendingID int64

		BeforeEach(func() {
			draft := create(employee, travelID, "100", "USD")
			pendingID = submit(employee, draft.ID).ID
		})

		It("walks the whole sequence", func() {
			view, err := decide(manager, pendingID, approval.ActionApproved)
			Expect(err).NotTo(HaveOccurred())
			Expect(view.Status).To(Equal(expense.StatusPending))
			Expect(view.CurrentApprovalStep).To(Equal(1))
			Expect(*view.CurrentApproverID).To(Equal(admin.ID))

			view, err = decide(admin, pendingID, approval.ActionApproved)
			Expect(err).NotTo(HaveOccurred())
			Expect(view.Status).To(Equal(expense.StatusApproved))
			Expect(view.CurrentApprovalStep).To(Equal(2))
			Expect(view.CurrentApproverID).To(BeNil())
			Expect(view.ProcessedAt).NotTo(BeNil())

			actions, err := svc.Approvals(ctx, pendingID, actorOf(employee))
			Expect(err).NotTo(HaveOccurred())
			Expect(actions).To(HaveLen(2))
			Expect(actions[0].StepOrder).To(Equal(0))
			Expect(actions[0].User.Name).To(Equal("Mia"))
			Expect(actions[1].StepOrder).To(Equal(1))
			Expect(actions[1].Comment).To(Equal("looks fine"))

			Expect(bus.types()).To(Equal([]string{
				events.EventTypeExpenseSubmitted,
				events.EventTypeExpenseStepAdvanced,
				events.EventTypeExpenseApproved,
			}))
		})

		It("rejects immediately at any step", func() {
			view, err := decide(manager, pendingID, approval.ActionRejected)

			Expect(err).NotTo(HaveOccurred())
			Expect(view.Status).To(Equal(expense.StatusRejected))
			Expect(view.CurrentApprovalStep).To(Equal(0))
			Expect(bus.last().EventType()).To(Equal(events.EventTypeExpenseRejected))
		})

		It("forbids anyone who is not the current approver", func() {
			before := repo.stored(pendingID)

			_, err := decide(peer, pendingID, approval.ActionApproved)
			Expect(err).To(MatchError(internal.ErrNotCurrentApprover))

			_, err = decide(other, pendingID, approval.ActionRejected)
			Expect(err).To(MatchError(internal.ErrNotCurrentApprover))

			_, err = decide(employee, pendingID, approval.ActionApproved)
			Expect(err).To(MatchError(internal.ErrNotCurrentApprover))

			Expect(repo.stored(pendingID)).To(Equal(before))
			Expect(repo.actions).To(BeEmpty())
		})

		It("lets an admin act out of turn", func() {
			view, err := decide(admin, pendingID, approval.ActionApproved)

			Expect(err).NotTo(HaveOccurred())
			Expect(view.CurrentApprovalStep).To(Equal(1))
			Expect(view.Status).To(Equal(expense.StatusPending))
		})

		It("never changes a terminal expense", func() {
			_, err := decide(manager, pendingID, approval.ActionRejected)
			Expect(err).NotTo(HaveOccurred())
			terminal := repo.stored(pendingID)

			for _, d := range []string{approval.ActionApproved, approval.ActionRejected} {
				_, err = decide(admin, pendingID, d)
				Expect(err).To(MatchError(internal.ErrInvalidExpenseStatus))
			}

			Expect(repo.stored(pendingID)).To(Equal(terminal))
			Expect(repo.actions).To(HaveLen(1))
		})

		It("refuses decisions on drafts", func() {
			draft := create(employee, travelID, "5", "USD")

			_, err := decide(manager, draft.ID, approval.ActionApproved)

			Expect(err).To(MatchError(internal.ErrInvalidExpenseStatus))
		})

		It("keeps the step monotonic and bounded", func() {
			steps := []int{repo.stored(pendingID).CurrentApprovalStep}
			for _, actor := range []*user.User{manager, admin} {
				_, err := decide(actor, pendingID, approval.ActionApproved)
				Expect(err).NotTo(HaveOccurred())
				stored := repo.stored(pendingID)
				Expect(stored.CurrentApprovalStep).To(BeNumerically("<=", len(stored.ApprovalSequence)))
				steps = append(steps, stored.CurrentApprovalStep)
			}

			Expect(steps).To(Equal([]int{0, 1, 2}))
		})

		It("surfaces lost races as conflicts", func() {
			repo.beforeSave = repo.bumpVersion

			_, err := decide(manager, pendingID, approval.ActionApproved)

			Expect(err).To(MatchError(internal.ErrConcurrentUpdate))
			Expect(repo.actions).To(BeEmpty())
		})

		It("reports unknown expenses", func() {
			_, err := decide(manager, 999, approval.ActionApproved)

			Expect(err).To(MatchError(internal.ErrExpenseNotFound))
		})
	})

	Describe("implicit first approver", func() {
		It("materializes the manager on an empty pending sequence", func() {
			id := repo.put(&expenseDatamodel.Expense{
				EmployeeID:       employee.ID,
				CompanyID:        1,
				CategoryID:       travelID,
				Status:           expense.StatusPending,
				ApprovalSequence: approvalDatamodel.IDList{},
			})

			view, err := decide(manager, id, approval.ActionApproved)

			Expect(err).NotTo(HaveOccurred())
			Expect(view.ApprovalSequence).To(Equal(approval.Sequence{manager.ID}))
			Expect(view.Status).To(Equal(expense.StatusApproved))
			Expect(view.CurrentApprovalStep).To(Equal(1))
		})

		It("lets the manager act at step zero of a rule sequence", func() {
			ruleSet.byCategory[mealsID] = &approval.Rule{ID: 9, Approvers: approval.Sequence{other.ID, admin.ID}}
			draft := create(employee, mealsID, "40", "USD")
			submit(employee, draft.ID)

			view, err := decide(manager, draft.ID, approval.ActionApproved)

			Expect(err).NotTo(HaveOccurred())
			Expect(view.CurrentApprovalStep).To(Equal(1))
			Expect(view.ApprovalSequence).To(Equal(approval.Sequence{other.ID, admin.ID}))
		})
	})

	Describe("UpdateStatus", func() {
		It("dispatches to submit and decide", func() {
			draft := create(employee, travelID, "100", "USD")

			view, err := svc.UpdateStatus(ctx, draft.ID, actorOf(employee), expense.UpdateStatusDTO{Status: "Pending"})
			Expect(err).NotTo(HaveOccurred())
			Expect(view.Status).To(Equal(expense.StatusPending))

			view, err = svc.UpdateStatus(ctx, draft.ID, actorOf(manager), expense.UpdateStatusDTO{Status: "rejected", Comment: "no receipt"})
			Expect(err).NotTo(HaveOccurred())
			Expect(view.Status).To(Equal(expense.StatusRejected))
		})

		It("refuses other target statuses", func() {
			draft := create(employee, travelID, "100", "USD")

			_, err := svc.UpdateStatus(ctx, draft.ID, actorOf(employee), expense.UpdateStatusDTO{Status: "draft"})

			Expect(err).To(MatchError(internal.ErrInvalidStatusAction))
		})
	})

	Describe("visibility", func() {
		var first, second, peerExpense int64

		BeforeEach(func() {
			first = submit(employee, create(employee, travelID, "10", "USD").ID).ID
			second = submit(employee, create(employee, travelID, "20", "USD").ID).ID
			peerExpense = create(peer, travelID, "30", "USD").ID
			create(solo, soloCat, "40", "EUR")

			_, err := decide(manager, second, approval.ActionApproved)
			Expect(err).NotTo(HaveOccurred())
		})

		ids := func(views []*expense.View) []int64 {
			out := make([]int64, len(views))
			for i, v := range views {
				out[i] = v.ID
			}
			return out
		}

		It("shows managers only what waits on them", func() {
			views, err := svc.ListForManager(ctx, actorOf(manager), "pending")

			Expect(err).NotTo(HaveOccurred())
			Expect(ids(views)).To(Equal([]int64{first}))

			views, err = svc.ListForManager(ctx, actorOf(other), "pending")
			Expect(err).NotTo(HaveOccurred())
			Expect(views).To(BeEmpty())
		})

		It("lists every company expense of other statuses for managers", func() {
			views, err := svc.ListForManager(ctx, actorOf(manager), "draft")

			Expect(err).NotTo(HaveOccurred())
			Expect(ids(views)).To(Equal([]int64{peerExpense}))
		})

		It("shows admins the whole company newest first", func() {
			views, err := svc.ListForAdmin(ctx, actorOf(admin), "")

			Expect(err).NotTo(HaveOccurred())
			Expect(ids(views)).To(Equal([]int64{peerExpense, second, first}))

			views, err = svc.ListForAdmin(ctx, actorOf(admin), "pending")
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(views)).To(Equal([]int64{second, first}))
		})

		It("shows employees only their own expenses", func() {
			views, err := svc.ListForEmployee(ctx, actorOf(peer))

			Expect(err).NotTo(HaveOccurred())
			Expect(ids(views)).To(Equal([]int64{peerExpense}))
		})

		It("dispatches by role", func() {
			views, err := svc.ListForApprover(ctx, actorOf(employee), "pending")
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(views)).To(Equal([]int64{second, first}))

			views, err = svc.ListForApprover(ctx, actorOf(admin), "pending")
			Expect(err).NotTo(HaveOccurred())
			Expect(views).To(HaveLen(2))
		})

		It("rejects unknown status filters", func() {
			_, err := svc.ListForAdmin(ctx, actorOf(admin), "paid")

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(400))
		})

		It("never crosses companies", func() {
			views, err := svc.ListCompany(ctx, actorOf(admin))
			Expect(err).NotTo(HaveOccurred())
			Expect(views).To(HaveLen(3))

			_, err = svc.GetByID(ctx, first, actorOf(solo))
			Expect(err).To(MatchError(internal.ErrExpenseNotFound))
		})

		It("keeps employees out of colleagues' expenses", func() {
			_, err := svc.GetByID(ctx, first, actorOf(peer))
			Expect(err).To(MatchError(internal.ErrUnauthorizedAccess))

			view, err := svc.GetByID(ctx, first, actorOf(other))
			Expect(err).NotTo(HaveOccurred())
			Expect(view.ID).To(Equal(first))
		})

		It("expands the approval sequence", func() {
			seq, err := svc.ApprovalSequence(ctx, second, actorOf(employee))

			Expect(err).NotTo(HaveOccurred())
			Expect(seq.IsSequential).To(BeTrue())
			Expect(seq.MinimumPercentApproval).To(Equal(100))
			Expect(seq.CurrentApprovalStep).To(Equal(1))
			Expect(seq.Sequence).To(HaveLen(2))
			Expect(seq.Sequence[1].Email).To(Equal("ada@acme.test"))
		})
	})

	It("wraps storage failures as unexpected errors", func() {
		repo.err = errors.New("connection refused")

		_, err := svc.ListForAdmin(ctx, actorOf(admin), "")

		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.StatusCode).To(Equal(500))
	})
})
