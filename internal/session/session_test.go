package session

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/billkeeper/internal/ledger"
	"github.com/mmynk/billkeeper/internal/models"
	"github.com/mmynk/billkeeper/internal/money"
	"github.com/mmynk/billkeeper/internal/storage"
	"github.com/mmynk/billkeeper/internal/storage/sqlite"
)

func setupStore(t *testing.T) storage.Store {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "session-test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpFile.Close()

	store, err := sqlite.New(tmpFile.Name())
	if err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
		os.Remove(tmpFile.Name())
	})
	return store
}

func item(name, price, qty string) ledger.LineItem {
	return ledger.LineItem{
		Name:      name,
		UnitPrice: money.MustParse(price),
		Quantity:  decimal.RequireFromString(qty),
	}
}

func TestCreateAndOpen(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	l := ledger.New()
	if _, err := l.AddItem(item("Tiles", "42.50", "12.5")); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if _, err := l.AddPayment(ledger.Payment{PaidOn: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), Amount: money.MustParse("500")}); err != nil {
		t.Fatalf("AddPayment: %v", err)
	}

	bill := &models.Bill{Title: "Kitchen"}
	if err := Create(ctx, store, bill, l); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if bill.TotalAmount != money.MustParse("531.25") {
		t.Errorf("TotalAmount = %s, want 531.25", bill.TotalAmount)
	}
	if bill.Items[0].Amount != money.MustParse("531.25") {
		t.Errorf("item Amount = %s, want 531.25", bill.Items[0].Amount)
	}

	s, err := Open(ctx, store, bill.ID)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got := s.Status()
	if got.Kind != ledger.Pending || got.Amount != money.MustParse("31.25") {
		t.Errorf("Status = %s, want pending 31.25", got)
	}
}

func TestCreateRejectsBadDates(t *testing.T) {
	store := setupStore(t)

	start := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, -1)
	bill := &models.Bill{Title: "Backwards", StartDate: &start, EndDate: &end}

	err := Create(context.Background(), store, bill, ledger.New())
	if !errors.Is(err, models.ErrInvalidDateRange) {
		t.Fatalf("expected ErrInvalidDateRange, got %v", err)
	}
	if bill.ID != "" {
		t.Error("bill should not have been stored")
	}
}

func TestCommitPersistsWaiver(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	l := ledger.New()
	l.AddItem(item("Labour", "100", "1"))
	l.AddPayment(ledger.Payment{PaidOn: time.Now(), Amount: money.MustParse("80")})
	bill := &models.Bill{Title: "Fence"}
	if err := Create(ctx, store, bill, l); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Forgive the remaining 20.00 and commit.
	s, err := Open(ctx, store, bill.ID)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	status, err := s.Ledger().ToggleSettle()
	if err != nil {
		t.Fatalf("ToggleSettle: %v", err)
	}
	if status.Kind != ledger.Waived {
		t.Fatalf("status = %s, want waived", status)
	}
	if _, err := s.Commit(ctx); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	// A later item grows the waiver instead of reopening the bill.
	s, err = Open(ctx, store, bill.ID)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.Ledger().Waived() != money.MustParse("20") {
		t.Fatalf("Waived = %s, want 20.00", s.Ledger().Waived())
	}
	if _, err := s.Ledger().AddItem(item("Paint", "15", "1")); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	saved, err := s.Commit(ctx)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if saved.WaivedAmount != money.MustParse("35") {
		t.Errorf("WaivedAmount = %s, want 35.00", saved.WaivedAmount)
	}

	stored, err := store.GetBill(ctx, bill.ID)
	if err != nil {
		t.Fatalf("GetBill: %v", err)
	}
	if stored.TotalAmount != money.MustParse("115") || stored.PaidAmount != money.MustParse("80") || stored.WaivedAmount != money.MustParse("35") {
		t.Errorf("stored scalars = %s/%s/%s, want 115.00/80.00/35.00",
			stored.TotalAmount, stored.PaidAmount, stored.WaivedAmount)
	}
	if len(stored.Items) != 2 {
		t.Errorf("stored %d items, want 2", len(stored.Items))
	}
}

func TestOpenUnknownBill(t *testing.T) {
	store := setupStore(t)
	_, err := Open(context.Background(), store, "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected storage.ErrNotFound, got %v", err)
	}
}

func TestToLedgerRecomputesAmounts(t *testing.T) {
	bill := &models.Bill{
		Items: []models.BillItem{
			// Stored amount is stale; the ledger trusts price × quantity.
			{ID: "i1", Name: "Bricks", UnitPrice: money.MustParse("0.35"), Quantity: decimal.NewFromInt(1000), Amount: money.MustParse("1")},
		},
		WaivedAmount: money.MustParse("5"),
	}
	l, err := ToLedger(bill)
	if err != nil {
		t.Fatalf("ToLedger: %v", err)
	}
	if l.TotalBilled() != money.MustParse("350") {
		t.Errorf("TotalBilled = %s, want 350.00", l.TotalBilled())
	}
	if l.Status().Kind != ledger.Waived {
		t.Errorf("Status = %s, want waived", l.Status())
	}

	bill.WaivedAmount = -1
	if _, err := ToLedger(bill); !errors.Is(err, ledger.ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount for negative waiver, got %v", err)
	}
}
