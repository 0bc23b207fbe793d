package ledger

import (
	"fmt"

	"github.com/mmynk/billkeeper/internal/money"
)

// Kind enumerates the settlement states a bill can be in.
type Kind int

const (
	// Pending means money is still owed.
	Pending Kind = iota
	// ExactlySettled means payments cover the billed total exactly.
	ExactlySettled
	// Waived means the biller forgave the outstanding amount.
	Waived
	// Overpaid means payments exceed the billed total.
	Overpaid
)

func (k Kind) String() string {
	switch k {
	case Pending:
		return "pending"
	case ExactlySettled:
		return "settled"
	case Waived:
		return "waived"
	case Overpaid:
		return "overpaid"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Status is a derived settlement status. Amount is the remaining balance for
// Pending, the waived register for Waived, the excess for Overpaid and zero
// for ExactlySettled.
type Status struct {
	Kind   Kind
	Amount money.Amount
}

// Classify derives the settlement status from the three scalars that
// determine it. It is the only way to obtain a Status.
//
// Comparisons are exact in cents: a 1-cent remaining balance is Pending and a
// 1-cent waiver is Waived. Float data carrying rounding noise must be
// converted with money.FromFloat, which rounds to whole cents, before it
// reaches Classify.
func Classify(totalBilled, totalPaid, waived money.Amount) Status {
	if waived > 0 {
		return Status{Kind: Waived, Amount: waived}
	}
	remaining := totalBilled - (totalPaid + waived)
	switch {
	case remaining > 0:
		return Status{Kind: Pending, Amount: remaining}
	case remaining == 0:
		return Status{Kind: ExactlySettled}
	default:
		return Status{Kind: Overpaid, Amount: -remaining}
	}
}

// Settled reports whether the bill needs no further collection.
func (s Status) Settled() bool {
	return s.Kind != Pending
}

// String renders e.g. "pending 120.00" or "settled".
func (s Status) String() string {
	if s.Kind == ExactlySettled {
		return s.Kind.String()
	}
	return fmt.Sprintf("%s %s", s.Kind, s.Amount)
}

// Label is the user-facing wording of the status.
func (s Status) Label() string {
	switch s.Kind {
	case Pending:
		return "Remaining " + s.Amount.String()
	case Waived:
		return "Settled, waived " + s.Amount.String()
	case Overpaid:
		return "Overpaid " + s.Amount.String()
	default:
		return "Settled"
	}
}
