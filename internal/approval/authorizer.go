package approval

import (
	coreUser "github.com/frahmantamala/expense-reimbursement/internal/core/user"
)

type Reason string

const (
	ReasonNone            Reason = ""
	ReasonAdmin           Reason = "admin"
	ReasonCurrentApprover Reason = "current_approver"
	ReasonImplicitManager Reason = "implicit_manager"
)

type Actor struct {
	ID        int64
	Role      coreUser.Role
	CompanyID int64
}

// Subject is the part of an expense that decides who may act on it.
type Subject struct {
	Sequence          Sequence
	CurrentStep       int
	EmployeeManagerID *int64
}

// Decision carries Materialize when the implicit manager acted on an empty
// sequence; the caller stores it before advancing.
type Decision struct {
	Allowed     bool
	Reason      Reason
	Materialize Sequence
}

// Authorize decides whether actor may approve or reject the current step.
func Authorize(s Subject, a Actor) Decision {
	if a.Role == coreUser.RoleAdmin {
		return Decision{Allowed: true, Reason: ReasonAdmin}
	}

	reason := approverReason(s, a.ID)
	switch reason {
	case ReasonCurrentApprover:
		return Decision{Allowed: true, Reason: reason}
	case ReasonImplicitManager:
		d := Decision{Allowed: true, Reason: reason}
		if s.Sequence.IsEmpty() {
			d.Materialize = NewSequence(*s.EmployeeManagerID)
		}
		return d
	}
	return Decision{}
}

// IsCurrentApprover is Authorize without the admin override. The pending
// dashboards use it so they list exactly what the actor can decide.
func IsCurrentApprover(s Subject, actorID int64) bool {
	return approverReason(s, actorID) != ReasonNone
}

func approverReason(s Subject, actorID int64) Reason {
	if actorID <= 0 {
		return ReasonNone
	}
	if current, ok := s.Sequence.At(s.CurrentStep); ok && current == actorID {
		return ReasonCurrentApprover
	}
	if (s.CurrentStep == 0 || s.Sequence.IsEmpty()) &&
		s.EmployeeManagerID != nil && *s.EmployeeManagerID == actorID {
		return ReasonImplicitManager
	}
	return ReasonNone
}
