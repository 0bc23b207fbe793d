package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/billkeeper/internal/money"
)

// LineItem is one billed line: unit price times quantity.
type LineItem struct {
	ID        string
	Name      string
	Unit      string
	UnitPrice money.Amount
	Quantity  decimal.Decimal
}

// Amount is UnitPrice × Quantity rounded to minor units. Items held by a
// Ledger have passed validate, so the product is always in range.
func (i LineItem) Amount() money.Amount {
	a, _ := i.UnitPrice.Times(i.Quantity)
	return a
}

func (i LineItem) validate() error {
	if i.UnitPrice < 0 {
		return fmt.Errorf("%w: unit price %s is negative", ErrInvalidAmount, i.UnitPrice)
	}
	if err := money.ValidateQuantity(i.Quantity); err != nil {
		return err
	}
	if _, err := i.UnitPrice.Times(i.Quantity); err != nil {
		return fmt.Errorf("item amount: %w", err)
	}
	return nil
}

// Payment is one payment received against the bill.
type Payment struct {
	ID     string
	PaidOn time.Time
	Amount money.Amount
	Note   string
}

func (p Payment) validate() error {
	if p.Amount < 0 {
		return fmt.Errorf("%w: payment %s is negative", ErrInvalidAmount, p.Amount)
	}
	return nil
}

func newID() string {
	return uuid.New().String()
}
