package expense_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/frahmantamala/expense-reimbursement/internal/approval"
	"github.com/frahmantamala/expense-reimbursement/internal/auth"
	coreUser "github.com/frahmantamala/expense-reimbursement/internal/core/user"
	"github.com/frahmantamala/expense-reimbursement/internal/currency"
	"github.com/frahmantamala/expense-reimbursement/internal/expense"
	"github.com/frahmantamala/expense-reimbursement/internal/transport"
	"github.com/frahmantamala/expense-reimbursement/internal/user"
	"github.com/frahmantamala/expense-reimbursement/pkg/logger"
)

var _ = Describe("Expense Handler Integration", func() {
	var (
		router   *chi.Mux
		admin    *auth.User
		manager  *auth.User
		employee *auth.User
	)

	const travelID int64 = 100

	BeforeEach(func() {
		users := []*user.User{
			{ID: 1, CompanyID: 1, Name: "Ada", Email: "ada@acme.test", Role: coreUser.RoleAdmin},
			{ID: 2, CompanyID: 1, Name: "Mia", Email: "mia@acme.test", Role: coreUser.RoleManager},
			{ID: 3, CompanyID: 1, Name: "Eli", Email: "eli@acme.test", Role: coreUser.RoleEmployee, ManagerID: ptr(2)},
		}
		admin = &auth.User{ID: 1, CompanyID: 1, Role: coreUser.RoleAdmin}
		manager = &auth.User{ID: 2, CompanyID: 1, Role: coreUser.RoleManager}
		employee = &auth.User{ID: 3, CompanyID: 1, Role: coreUser.RoleEmployee, ManagerID: ptr(2)}

		repo := newMemRepository()
		dir := newDirectory(users...)
		rateSrc := &rates{table: map[string]decimal.Decimal{"EURUSD": decimal.RequireFromString("1.1")}}

		svc := expense.NewService(repo, expense.Collaborators{
			Resolver:   approval.NewResolver(nil, dir, logger.Discard()),
			Converter:  currency.NewConverter(rateSrc, logger.Discard()),
			Users:      dir,
			Companies:  companies{1: {ID: 1, Name: "Acme", BaseCurrency: "USD"}},
			Categories: categories{travelID: {ID: travelID, CompanyID: 1, Name: "Travel", IsActive: true}},
			Actions:    repo,
		}, logger.Discard())
		handler := expense.NewHandler(transport.NewBaseHandler(logger.Discard()), svc)

		router = chi.NewRouter()
		router.Route("/expenses", func(r chi.Router) {
			r.Post("/create", handler.CreateExpense)
			r.Get("/manager", handler.GetManagerExpenses)
			r.Get("/admin", handler.GetAdminExpenses)
			r.Get("/admin/export", handler.ExportAdminExpenses)
			r.Get("/employee", handler.GetEmployeeExpenses)
			r.Get("/getallexpense", handler.GetAllExpenses)
			r.Get("/{id}", handler.GetExpense)
			r.Get("/{id}/approvals", handler.GetApprovals)
			r.Get("/{id}/approval-sequence", handler.GetApprovalSequence)
			r.Patch("/{id}/status", handler.UpdateStatus)
		})
	})

	do := func(method, path, body string, u *auth.User) *httptest.ResponseRecorder {
		var req *http.Request
		if body == "" {
			req = httptest.NewRequest(method, path, nil)
		} else {
			req = httptest.NewRequest(method, path, strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
		}
		if u != nil {
			req = req.WithContext(auth.ContextWithUser(req.Context(), u))
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	decodeView := func(w *httptest.ResponseRecorder) *expense.View {
		var view expense.View
		Expect(json.NewDecoder(w.Body).Decode(&view)).To(Succeed())
		return &view
	}

	createDraft := func() int64 {
		w := do(http.MethodPost, "/expenses/create",
			fmt.Sprintf(`{"category":%d,"description":"Train to Lyon","amountOriginal":42.5,"currencyOriginal":"EUR","dateIncurred":"2024-03-01"}`, travelID),
			employee)
		Expect(w.Code).To(Equal(http.StatusCreated))
		return decodeView(w).ID
	}

	status := func(id int64, value string, u *auth.User) *httptest.ResponseRecorder {
		return do(http.MethodPatch, fmt.Sprintf("/expenses/%d/status", id), fmt.Sprintf(`{"status":%q}`, value), u)
	}

	It("walks an expense from draft to approved", func() {
		id := createDraft()

		w := status(id, "pending", employee)
		Expect(w.Code).To(Equal(http.StatusOK))
		view := decodeView(w)
		Expect(view.Status).To(Equal(expense.StatusPending))
		Expect([]int64(view.ApprovalSequence)).To(Equal([]int64{2, 1}))
		Expect(*view.CurrentApproverID).To(Equal(int64(2)))

		w = status(id, "approved", manager)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(decodeView(w).CurrentApprovalStep).To(Equal(1))

		w = status(id, "approved", admin)
		Expect(w.Code).To(Equal(http.StatusOK))
		view = decodeView(w)
		Expect(view.Status).To(Equal(expense.StatusApproved))
		Expect(view.AmountConverted.StringFixed(2)).To(Equal("46.75"))

		w = do(http.MethodGet, fmt.Sprintf("/expenses/%d/approvals", id), "", employee)
		Expect(w.Code).To(Equal(http.StatusOK))
		var approvals expense.ApprovalsResponse
		Expect(json.NewDecoder(w.Body).Decode(&approvals)).To(Succeed())
		Expect(approvals.Approvals).To(HaveLen(2))
		Expect(approvals.Approvals[0].StepOrder).To(Equal(0))
		Expect(approvals.Approvals[1].UserID).To(Equal(int64(1)))
	})

	It("answers 403 when the caller is not the current approver", func() {
		id := createDraft()
		Expect(status(id, "pending", employee).Code).To(Equal(http.StatusOK))

		w := status(id, "approved", employee)

		Expect(w.Code).To(Equal(http.StatusForbidden))
		Expect(w.Body.String()).To(ContainSubstring(`"message"`))
	})

	It("answers 400 when deciding a draft", func() {
		id := createDraft()

		Expect(status(id, "rejected", manager).Code).To(Equal(http.StatusBadRequest))
	})

	It("answers 404 for unknown expenses", func() {
		Expect(status(999, "pending", employee).Code).To(Equal(http.StatusNotFound))
	})

	It("answers 400 for malformed input", func() {
		Expect(do(http.MethodPatch, "/expenses/abc/status", `{"status":"pending"}`, employee).Code).To(Equal(http.StatusBadRequest))
		Expect(do(http.MethodPost, "/expenses/create", `{"category":`, employee).Code).To(Equal(http.StatusBadRequest))
		Expect(do(http.MethodPost, "/expenses/create",
			fmt.Sprintf(`{"category":%d,"description":"x","amountOriginal":-1,"currencyOriginal":"EUR","dateIncurred":"2024-03-01"}`, travelID),
			employee).Code).To(Equal(http.StatusBadRequest))
		Expect(do(http.MethodGet, "/expenses/admin?status=paid", "", admin).Code).To(Equal(http.StatusBadRequest))
	})

	It("lists pending work for the manager", func() {
		id := createDraft()
		Expect(status(id, "pending", employee).Code).To(Equal(http.StatusOK))

		w := do(http.MethodGet, "/expenses/manager?status=pending", "", manager)

		Expect(w.Code).To(Equal(http.StatusOK))
		var resp expense.ExpensesResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Expenses).To(HaveLen(1))
		Expect(resp.Expenses[0].ID).To(Equal(id))
	})

	It("expands the approval sequence", func() {
		id := createDraft()
		Expect(status(id, "pending", employee).Code).To(Equal(http.StatusOK))

		w := do(http.MethodGet, fmt.Sprintf("/expenses/%d/approval-sequence", id), "", employee)

		Expect(w.Code).To(Equal(http.StatusOK))
		var resp expense.ApprovalSequenceResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Sequence).To(HaveLen(2))
		Expect(resp.Sequence[0].Name).To(Equal("Mia"))
		Expect(resp.IsSequential).To(BeTrue())
	})

	It("exports the admin view as a workbook", func() {
		createDraft()

		w := do(http.MethodGet, "/expenses/admin/export", "", admin)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("Content-Type")).To(ContainSubstring("spreadsheetml"))
		Expect(w.Header().Get("Content-Disposition")).To(ContainSubstring(".xlsx"))
		Expect(w.Body.Len()).To(BeNumerically(">", 0))
	})

	It("rejects anonymous callers", func() {
		Expect(do(http.MethodGet, "/expenses/employee", "", nil).Code).To(Equal(http.StatusUnauthorized))
	})
})
