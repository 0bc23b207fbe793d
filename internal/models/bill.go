package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/billkeeper/internal/money"
)

// ErrInvalidDateRange is returned when a bill's end date precedes its start date.
var ErrInvalidDateRange = errors.New("end date is before start date")

// Bill is the stored form of a billed job: its header fields, the flattened
// ledger totals and the item and payment rows.
type Bill struct {
	// ID is the unique identifier for the bill (UUID format).
	ID string

	// Title names the job, e.g. "Kitchen remodel".
	// Auto-generated from the client and date when empty.
	Title string

	// Client is who the bill is addressed to.
	Client string

	// Address is the job site.
	Address string

	// StartDate and EndDate bound the work period. Either may be nil.
	StartDate *time.Time
	EndDate   *time.Time

	// Note is free text shown on the bill.
	Note string

	// Items are the billed line items, in display order.
	Items []BillItem

	// Payments are the payments received, in display order.
	Payments []PaymentRecord

	// TotalAmount is the sum of item amounts at the last commit.
	TotalAmount money.Amount

	// PaidAmount is the sum of payments at the last commit.
	PaidAmount money.Amount

	// WaivedAmount is the waived adjustment register.
	WaivedAmount money.Amount

	// CreatedAt and UpdatedAt are Unix timestamps.
	CreatedAt int64
	UpdatedAt int64
}

// Validate checks bill-level fields.
func (b *Bill) Validate() error {
	if b.StartDate != nil && b.EndDate != nil && b.EndDate.Before(*b.StartDate) {
		return fmt.Errorf("%w: %s < %s", ErrInvalidDateRange,
			b.EndDate.Format(time.DateOnly), b.StartDate.Format(time.DateOnly))
	}
	if b.WaivedAmount < 0 {
		return fmt.Errorf("%w: waived amount", money.ErrInvalidAmount)
	}
	return nil
}

// BillItem is a stored line item.
type BillItem struct {
	// ID is the unique identifier for the item (UUID format).
	ID string

	// Name describes the work or material, e.g. "Floor tiles".
	Name string

	// Unit is the unit of measure, e.g. "m2" or "hour". Optional.
	Unit string

	// UnitPrice is the price per unit.
	UnitPrice money.Amount

	// Quantity is the number of units; may be fractional.
	Quantity decimal.Decimal

	// Amount is UnitPrice × Quantity, stored for reporting.
	Amount money.Amount
}

// PaymentRecord is a stored payment.
type PaymentRecord struct {
	// ID is the unique identifier for the payment (UUID format).
	ID string

	// PaidOn is the payment date.
	PaidOn time.Time

	// Amount is the amount received.
	Amount money.Amount

	// Note is an optional remark, e.g. "deposit" or "bank transfer".
	Note string
}
