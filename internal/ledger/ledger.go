// Package ledger is the settlement reconciliation engine for a single bill.
//
// A Ledger holds the bill's line items, its payments and the waived
// adjustment register W. Totals are always recomputed from the entries and
// the settlement status is always derived with Classify; nothing is cached.
// Every mutation goes through the reconcile functions so that a bill marked
// settled-by-waiver stays waived across later edits.
//
// A Ledger is owned by one editing session and is not safe for concurrent
// use.
package ledger

import (
	"fmt"
	"slices"

	"github.com/mmynk/billkeeper/internal/money"
)

// Ledger is the in-memory state of one bill during an edit session.
type Ledger struct {
	items    []LineItem
	payments []Payment
	waived   money.Amount
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{}
}

// Restore rebuilds a ledger from persisted entries and the stored waived
// amount. Entries without an ID get one.
func Restore(items []LineItem, payments []Payment, waived money.Amount) (*Ledger, error) {
	if waived < 0 {
		return nil, fmt.Errorf("%w: waived amount %s is negative", ErrInvalidAmount, waived)
	}
	l := &Ledger{waived: waived}
	for _, item := range items {
		if item.ID == "" {
			item.ID = newID()
		}
		if err := l.checkNewItem(item); err != nil {
			return nil, err
		}
		l.items = append(l.items, item)
	}
	for _, p := range payments {
		if p.ID == "" {
			p.ID = newID()
		}
		if err := l.checkNewPayment(p); err != nil {
			return nil, err
		}
		l.payments = append(l.payments, p)
	}
	return l, nil
}

// TotalBilled is the sum of all line item amounts.
func (l *Ledger) TotalBilled() money.Amount {
	var total money.Amount
	for _, item := range l.items {
		total += item.Amount()
	}
	return total
}

// TotalPaid is the sum of all payments.
func (l *Ledger) TotalPaid() money.Amount {
	var total money.Amount
	for _, p := range l.payments {
		total += p.Amount
	}
	return total
}

// Waived is the current waived adjustment register.
func (l *Ledger) Waived() money.Amount {
	return l.waived
}

// Remaining is billed minus (paid plus waived). Negative when overpaid.
func (l *Ledger) Remaining() money.Amount {
	return l.TotalBilled() - (l.TotalPaid() + l.waived)
}

// Status classifies the current state.
func (l *Ledger) Status() Status {
	return Classify(l.TotalBilled(), l.TotalPaid(), l.waived)
}

// Items returns a copy of the line items in insertion order.
func (l *Ledger) Items() []LineItem {
	return slices.Clone(l.items)
}

// Payments returns a copy of the payments in insertion order.
func (l *Ledger) Payments() []Payment {
	return slices.Clone(l.payments)
}

// Item looks up a line item by ID.
func (l *Ledger) Item(id string) (LineItem, bool) {
	i := l.itemIndex(id)
	if i < 0 {
		return LineItem{}, false
	}
	return l.items[i], true
}

// Payment looks up a payment by ID.
func (l *Ledger) Payment(id string) (Payment, bool) {
	i := l.paymentIndex(id)
	if i < 0 {
		return Payment{}, false
	}
	return l.payments[i], true
}

// AddItem appends a line item and returns it with its ID filled in.
func (l *Ledger) AddItem(item LineItem) (LineItem, error) {
	if item.ID == "" {
		item.ID = newID()
	}
	if err := l.checkNewItem(item); err != nil {
		return LineItem{}, err
	}
	l.items = append(l.items, item)
	l.waived = AfterItemAdded(l.waived, item.Amount())
	return item, nil
}

// RemoveItem deletes the line item with the given ID and returns it.
func (l *Ledger) RemoveItem(id string) (LineItem, error) {
	i := l.itemIndex(id)
	if i < 0 {
		return LineItem{}, fmt.Errorf("%w: item %s", ErrNotFound, id)
	}
	item := l.items[i]
	l.items = slices.Delete(l.items, i, i+1)
	l.waived = AfterItemRemoved(l.waived, item.Amount())
	return item, nil
}

// ReplaceItem swaps the item carrying item.ID for the new version, keeping
// its position. It is applied as a removal followed by an addition.
func (l *Ledger) ReplaceItem(item LineItem) error {
	i := l.itemIndex(item.ID)
	if i < 0 {
		return fmt.Errorf("%w: item %s", ErrNotFound, item.ID)
	}
	if err := item.validate(); err != nil {
		return err
	}
	old := l.items[i]
	l.items[i] = item
	l.waived = AfterItemRemoved(l.waived, old.Amount())
	l.waived = AfterItemAdded(l.waived, item.Amount())
	return nil
}

// AddPayment appends a payment and returns it with its ID filled in.
func (l *Ledger) AddPayment(p Payment) (Payment, error) {
	if p.ID == "" {
		p.ID = newID()
	}
	if err := l.checkNewPayment(p); err != nil {
		return Payment{}, err
	}
	l.payments = append(l.payments, p)
	l.waived = AfterPaymentAdded(l.waived, p.Amount)
	return p, nil
}

// RemovePayment deletes the payment with the given ID and returns it.
func (l *Ledger) RemovePayment(id string) (Payment, error) {
	i := l.paymentIndex(id)
	if i < 0 {
		return Payment{}, fmt.Errorf("%w: payment %s", ErrNotFound, id)
	}
	p := l.payments[i]
	l.payments = slices.Delete(l.payments, i, i+1)
	l.waived = AfterPaymentRemoved(l.waived, p.Amount)
	return p, nil
}

// ReplacePayment swaps the payment carrying p.ID for the new version.
func (l *Ledger) ReplacePayment(p Payment) error {
	i := l.paymentIndex(p.ID)
	if i < 0 {
		return fmt.Errorf("%w: payment %s", ErrNotFound, p.ID)
	}
	if err := p.validate(); err != nil {
		return err
	}
	old := l.payments[i]
	l.payments[i] = p
	l.waived = AfterPaymentRemoved(l.waived, old.Amount)
	l.waived = AfterPaymentAdded(l.waived, p.Amount)
	return nil
}

// ToggleSettle flips a pending bill to waived (forgiving the remaining
// balance) or a waived bill back to pending. Settled and overpaid bills are
// left untouched and ErrAlreadySettled is returned. The new status is
// returned on success.
func (l *Ledger) ToggleSettle() (Status, error) {
	status := l.Status()
	switch status.Kind {
	case Pending:
		l.waived = status.Amount
	case Waived:
		l.waived = 0
	default:
		return status, fmt.Errorf("%w: %s", ErrAlreadySettled, status)
	}
	return l.Status(), nil
}

func (l *Ledger) checkNewItem(item LineItem) error {
	if l.itemIndex(item.ID) >= 0 {
		return fmt.Errorf("%w: item %s", ErrDuplicateID, item.ID)
	}
	return item.validate()
}

func (l *Ledger) checkNewPayment(p Payment) error {
	if l.paymentIndex(p.ID) >= 0 {
		return fmt.Errorf("%w: payment %s", ErrDuplicateID, p.ID)
	}
	return p.validate()
}

func (l *Ledger) itemIndex(id string) int {
	return slices.IndexFunc(l.items, func(item LineItem) bool { return item.ID == id })
}

func (l *Ledger) paymentIndex(id string) int {
	return slices.IndexFunc(l.payments, func(p Payment) bool { return p.ID == id })
}
