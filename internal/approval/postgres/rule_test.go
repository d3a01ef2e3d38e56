package postgres_test

import (
	"context"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/expense-reimbursement/internal/approval"
	approvalPostgres "github.com/frahmantamala/expense-reimbursement/internal/approval/postgres"
)

const rulesSchema = `
CREATE TABLE approval_rules (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	company_id INTEGER NOT NULL,
	category_id INTEGER,
	name TEXT NOT NULL DEFAULT '',
	approvers TEXT NOT NULL DEFAULT '[]',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

var _ = Describe("RuleRepository", func() {
	var (
		ctx  context.Context
		db   *sqlx.DB
		repo approval.RuleFinder
	)

	insertRule := func(companyID int64, categoryID interface{}, name, approvers string) {
		_, err := db.Exec(
			`INSERT INTO approval_rules (company_id, category_id, name, approvers) VALUES (?, ?, ?, ?)`,
			companyID, categoryID, name, approvers)
		Expect(err).NotTo(HaveOccurred())
	}

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		db, err = sqlx.Connect("sqlite3", ":memory:")
		Expect(err).NotTo(HaveOccurred())
		db.SetMaxOpenConns(1)

		_, err = db.Exec(rulesSchema)
		Expect(err).NotTo(HaveOccurred())

		repo = approvalPostgres.NewRuleRepository(db)
	})

	AfterEach(func() {
		Expect(db.Close()).To(Succeed())
	})

	It("returns nil when the company has no rule", func() {
		rule, err := repo.FindRule(ctx, 1, 7)

		Expect(err).NotTo(HaveOccurred())
		Expect(rule).To(BeNil())
	})

	It("falls back to the company wide rule", func() {
		insertRule(1, nil, "default", "[5,6]")
		insertRule(1, 8, "travel", "[9]")

		rule, err := repo.FindRule(ctx, 1, 7)

		Expect(err).NotTo(HaveOccurred())
		Expect(rule.Name).To(Equal("default"))
		Expect(rule.CategoryID).To(BeNil())
		Expect(rule.Approvers).To(Equal(approval.Sequence{5, 6}))
	})

	It("prefers the category rule", func() {
		insertRule(1, nil, "default", "[5,6]")
		insertRule(1, 7, "meals", "[11,12,13]")

		rule, err := repo.FindRule(ctx, 1, 7)

		Expect(err).NotTo(HaveOccurred())
		Expect(rule.Name).To(Equal("meals"))
		Expect(*rule.CategoryID).To(Equal(int64(7)))
		Expect(rule.Approvers).To(Equal(approval.Sequence{11, 12, 13}))
	})

	It("never returns rules of another company", func() {
		insertRule(2, nil, "other", "[1]")

		rule, err := repo.FindRule(ctx, 1, 7)

		Expect(err).NotTo(HaveOccurred())
		Expect(rule).To(BeNil())
	})
})
