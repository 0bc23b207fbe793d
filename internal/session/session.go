// Package session runs one load, mutate, commit cycle of a bill's ledger
// against a storage.Store.
//
// Usage:
//
//	s, err := session.Open(ctx, store, billID)
//	if err != nil { ... }
//	if _, err := s.Ledger().AddPayment(p); err != nil { ... }
//	bill, err := s.Commit(ctx)
//
// A Session is owned by a single goroutine and is not safe for concurrent use.
package session

import (
	"context"
	"fmt"

	"github.com/mmynk/billkeeper/internal/ledger"
	"github.com/mmynk/billkeeper/internal/models"
	"github.com/mmynk/billkeeper/internal/storage"
)

// Session pairs a stored bill with its live ledger.
type Session struct {
	store  storage.Store
	bill   *models.Bill
	ledger *ledger.Ledger
}

// Open loads a bill and restores its ledger.
func Open(ctx context.Context, store storage.Store, billID string) (*Session, error) {
	bill, err := store.GetBill(ctx, billID)
	if err != nil {
		return nil, err
	}
	l, err := ToLedger(bill)
	if err != nil {
		return nil, fmt.Errorf("failed to restore ledger of bill %s: %w", billID, err)
	}
	return &Session{store: store, bill: bill, ledger: l}, nil
}

// Create validates the bill header, flattens l into it and persists a new bill.
func Create(ctx context.Context, store storage.Store, bill *models.Bill, l *ledger.Ledger) error {
	Flatten(bill, l)
	if err := bill.Validate(); err != nil {
		return err
	}
	return store.CreateBill(ctx, bill)
}

// Bill returns the header being edited. Items, payments and totals are
// overwritten from the ledger on Commit.
func (s *Session) Bill() *models.Bill {
	return s.bill
}

// Ledger returns the ledger to mutate.
func (s *Session) Ledger() *ledger.Ledger {
	return s.ledger
}

// Status classifies the ledger as it stands now.
func (s *Session) Status() ledger.Status {
	return s.ledger.Status()
}

// Commit flattens the ledger into the bill and writes it back.
func (s *Session) Commit(ctx context.Context) (*models.Bill, error) {
	Flatten(s.bill, s.ledger)
	if err := s.bill.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.UpdateBill(ctx, s.bill); err != nil {
		return nil, err
	}
	return s.bill, nil
}

// ToLedger rebuilds a ledger from a stored bill. Stored item amounts are
// ignored; they are recomputed from unit price and quantity.
func ToLedger(bill *models.Bill) (*ledger.Ledger, error) {
	items := make([]ledger.LineItem, len(bill.Items))
	for i, it := range bill.Items {
		items[i] = ledger.LineItem{
			ID:        it.ID,
			Name:      it.Name,
			Unit:      it.Unit,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
		}
	}
	payments := make([]ledger.Payment, len(bill.Payments))
	for i, p := range bill.Payments {
		payments[i] = ledger.Payment{
			ID:     p.ID,
			PaidOn: p.PaidOn,
			Amount: p.Amount,
			Note:   p.Note,
		}
	}
	return ledger.Restore(items, payments, bill.WaivedAmount)
}

// Flatten copies the ledger's entries and scalars into the bill.
func Flatten(bill *models.Bill, l *ledger.Ledger) {
	items := l.Items()
	bill.Items = make([]models.BillItem, len(items))
	for i, it := range items {
		bill.Items[i] = models.BillItem{
			ID:        it.ID,
			Name:      it.Name,
			Unit:      it.Unit,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			Amount:    it.Amount(),
		}
	}

	payments := l.Payments()
	bill.Payments = make([]models.PaymentRecord, len(payments))
	for i, p := range payments {
		bill.Payments[i] = models.PaymentRecord{
			ID:     p.ID,
			PaidOn: p.PaidOn,
			Amount: p.Amount,
			Note:   p.Note,
		}
	}

	bill.TotalAmount = l.TotalBilled()
	bill.PaidAmount = l.TotalPaid()
	bill.WaivedAmount = l.Waived()
}
