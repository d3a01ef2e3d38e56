package postgres_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/frahmantamala/expense-reimbursement/internal/approval"
	approvalPostgres "github.com/frahmantamala/expense-reimbursement/internal/approval/postgres"
	approvalDatamodel "github.com/frahmantamala/expense-reimbursement/internal/core/datamodel/approval"
)

type SQLiteApprovalAction struct {
	ID        int64     `gorm:"primaryKey"`
	ExpenseID int64     `gorm:"column:expense_id;not null"`
	UserID    int64     `gorm:"column:user_id;not null"`
	StepOrder int       `gorm:"column:step_order;not null"`
	Status    string    `gorm:"column:status;not null"`
	Comment   string    `gorm:"column:comment"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (SQLiteApprovalAction) TableName() string {
	return "approval_actions"
}

var _ = Describe("ActionRepository", func() {
	var (
		ctx  context.Context
		db   *gorm.DB
		repo approval.ActionReader
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())

		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)

		Expect(db.AutoMigrate(&SQLiteApprovalAction{})).To(Succeed())
		repo = approvalPostgres.NewActionRepository(db)
	})

	It("lists the trail of one expense by step", func() {
		for _, a := range []*approvalDatamodel.ApprovalAction{
			{ExpenseID: 1, UserID: 20, StepOrder: 1, Status: approval.ActionApproved},
			{ExpenseID: 2, UserID: 10, StepOrder: 0, Status: approval.ActionRejected},
			{ExpenseID: 1, UserID: 10, StepOrder: 0, Status: approval.ActionApproved, Comment: "ok"},
		} {
			Expect(db.Create(a).Error).NotTo(HaveOccurred())
		}

		actions, err := repo.ListByExpense(ctx, 1)

		Expect(err).NotTo(HaveOccurred())
		Expect(actions).To(HaveLen(2))
		Expect(actions[0].UserID).To(Equal(int64(10)))
		Expect(actions[0].Comment).To(Equal("ok"))
		Expect(actions[1].StepOrder).To(Equal(1))
	})

	It("returns an empty trail for untouched expenses", func() {
		actions, err := repo.ListByExpense(ctx, 42)

		Expect(err).NotTo(HaveOccurred())
		Expect(actions).To(BeEmpty())
	})
})
