package approval

import (
	approvalDatamodel "github.com/frahmantamala/expense-reimbursement/internal/core/datamodel/approval"
)

// Sequence is the ordered list of approver user ids of an expense.
// Expansion to user records happens at read time, never here.
type Sequence []int64

// At returns the approver at step, false once the sequence is exhausted.
func (s Sequence) At(step int) (int64, bool) {
	if step < 0 || step >= len(s) {
		return 0, false
	}
	return s[step], true
}

func (s Sequence) Len() int {
	return len(s)
}

func (s Sequence) IsEmpty() bool {
	return len(s) == 0
}

func (s Sequence) Contains(userID int64) bool {
	for _, id := range s {
		if id == userID {
			return true
		}
	}
	return false
}

// IsLastStep reports whether approving at step completes the sequence.
func (s Sequence) IsLastStep(step int) bool {
	return step >= len(s)-1
}

// Clone never returns nil so stored sequences always encode as a JSON array.
func (s Sequence) Clone() Sequence {
	out := make(Sequence, len(s))
	copy(out, s)
	return out
}

func (s Sequence) ToDataModel() approvalDatamodel.IDList {
	return approvalDatamodel.IDList(s.Clone())
}

func SequenceFromDataModel(l approvalDatamodel.IDList) Sequence {
	return Sequence(l).Clone()
}

// NewSequence drops zero ids and duplicates, keeping first occurrence order.
func NewSequence(ids ...int64) Sequence {
	out := make(Sequence, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
