package approval_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/expense-reimbursement/internal/approval"
	coreUser "github.com/frahmantamala/expense-reimbursement/internal/core/user"
)

func id(v int64) *int64 { return &v }

var _ = Describe("Authorize", func() {
	const (
		managerID  int64 = 10
		adminID    int64 = 20
		strangerID int64 = 30
	)

	employee := func(userID int64) approval.Actor {
		return approval.Actor{ID: userID, Role: coreUser.RoleEmployee, CompanyID: 1}
	}
	manager := func(userID int64) approval.Actor {
		return approval.Actor{ID: userID, Role: coreUser.RoleManager, CompanyID: 1}
	}

	Context("when the actor is an admin", func() {
		It("allows any step, even when not in the sequence", func() {
			s := approval.Subject{Sequence: approval.Sequence{managerID}, CurrentStep: 0}

			d := approval.Authorize(s, approval.Actor{ID: 99, Role: coreUser.RoleAdmin})

			Expect(d.Allowed).To(BeTrue())
			Expect(d.Reason).To(Equal(approval.ReasonAdmin))
			Expect(d.Materialize).To(BeNil())
		})
	})

	Context("when the actor is the current approver", func() {
		It("allows the approver of the current step", func() {
			s := approval.Subject{Sequence: approval.Sequence{managerID, adminID}, CurrentStep: 1}

			d := approval.Authorize(s, manager(adminID))

			Expect(d.Allowed).To(BeTrue())
			Expect(d.Reason).To(Equal(approval.ReasonCurrentApprover))
		})

		It("refuses an approver of an already passed step", func() {
			s := approval.Subject{
				Sequence:          approval.Sequence{managerID, adminID},
				CurrentStep:       1,
				EmployeeManagerID: id(managerID),
			}

			d := approval.Authorize(s, manager(managerID))

			Expect(d.Allowed).To(BeFalse())
		})
	})

	Context("when the actor is the employee's manager", func() {
		It("allows them at step zero even if the sequence names someone else", func() {
			s := approval.Subject{
				Sequence:          approval.Sequence{adminID},
				CurrentStep:       0,
				EmployeeManagerID: id(managerID),
			}

			d := approval.Authorize(s, manager(managerID))

			Expect(d.Allowed).To(BeTrue())
			Expect(d.Reason).To(Equal(approval.ReasonImplicitManager))
			Expect(d.Materialize).To(BeNil())
		})

		It("materializes the manager when the sequence is empty", func() {
			s := approval.Subject{Sequence: approval.Sequence{}, EmployeeManagerID: id(managerID)}

			d := approval.Authorize(s, manager(managerID))

			Expect(d.Allowed).To(BeTrue())
			Expect(d.Materialize).To(Equal(approval.Sequence{managerID}))
		})
	})

	It("forbids anyone else", func() {
		s := approval.Subject{
			Sequence:          approval.Sequence{managerID, adminID},
			EmployeeManagerID: id(managerID),
		}

		Expect(approval.Authorize(s, employee(strangerID)).Allowed).To(BeFalse())
		Expect(approval.Authorize(s, manager(strangerID)).Allowed).To(BeFalse())
		Expect(approval.Authorize(s, employee(0)).Allowed).To(BeFalse())
	})

	Describe("IsCurrentApprover", func() {
		It("agrees with Authorize for non admins", func() {
			s := approval.Subject{
				Sequence:          approval.Sequence{managerID, adminID},
				CurrentStep:       0,
				EmployeeManagerID: id(managerID),
			}

			for _, actorID := range []int64{managerID, adminID, strangerID} {
				Expect(approval.IsCurrentApprover(s, actorID)).
					To(Equal(approval.Authorize(s, manager(actorID)).Allowed))
			}
		})

		It("ignores the admin override", func() {
			s := approval.Subject{Sequence: approval.Sequence{managerID}}

			Expect(approval.IsCurrentApprover(s, adminID)).To(BeFalse())
		})

		It("is false once the sequence is exhausted", func() {
			s := approval.Subject{Sequence: approval.Sequence{managerID}, CurrentStep: 1}

			Expect(approval.IsCurrentApprover(s, managerID)).To(BeFalse())
		})
	})
})

var _ = Describe("Sequence", func() {
	It("drops zero ids and duplicates", func() {
		Expect(approval.NewSequence(3, 0, 5, 3)).To(Equal(approval.Sequence{3, 5}))
	})

	It("reports the approver of a step", func() {
		seq := approval.Sequence{3, 5}

		current, ok := seq.At(1)
		Expect(ok).To(BeTrue())
		Expect(current).To(Equal(int64(5)))

		_, ok = seq.At(2)
		Expect(ok).To(BeFalse())
	})

	It("knows the last step", func() {
		seq := approval.Sequence{3, 5}

		Expect(seq.IsLastStep(0)).To(BeFalse())
		Expect(seq.IsLastStep(1)).To(BeTrue())
		Expect(approval.Sequence{}.IsLastStep(0)).To(BeTrue())
	})

	It("never clones to nil", func() {
		var seq approval.Sequence

		Expect(seq.Clone()).NotTo(BeNil())
		Expect(seq.ToDataModel()).To(HaveLen(0))
	})
})
