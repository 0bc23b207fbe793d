package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mmynk/billkeeper/internal/ledger"
	"github.com/mmynk/billkeeper/internal/models"
	"github.com/mmynk/billkeeper/internal/money"
)

// errInvalidInput marks request fields that fail basic validation.
var errInvalidInput = errors.New("invalid input")

// now is replaced in tests.
var now = time.Now

func requireBillID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: bill_id is required", errInvalidInput)
	}
	return nil
}

func parseDate(field, s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %q is not YYYY-MM-DD", errInvalidInput, field, s)
	}
	return &t, nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.DateOnly)
}

func toLineItem(in ItemInput) (ledger.LineItem, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return ledger.LineItem{}, fmt.Errorf("%w: item name is required", errInvalidInput)
	}
	price, err := money.Parse(in.UnitPrice)
	if err != nil {
		return ledger.LineItem{}, fmt.Errorf("unit price: %w", err)
	}
	qty, err := money.ParseQuantity(in.Quantity)
	if err != nil {
		return ledger.LineItem{}, fmt.Errorf("quantity: %w", err)
	}
	return ledger.LineItem{
		Name:      name,
		Unit:      strings.TrimSpace(in.Unit),
		UnitPrice: price,
		Quantity:  qty,
	}, nil
}

func toPayment(in PaymentInput) (ledger.Payment, error) {
	amount, err := money.Parse(in.Amount)
	if err != nil {
		return ledger.Payment{}, fmt.Errorf("payment amount: %w", err)
	}
	paidOn, err := parseDate("paid_on", in.PaidOn)
	if err != nil {
		return ledger.Payment{}, err
	}
	if paidOn == nil {
		y, m, d := now().Date()
		today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		paidOn = &today
	}
	return ledger.Payment{
		PaidOn: *paidOn,
		Amount: amount,
		Note:   strings.TrimSpace(in.Note),
	}, nil
}

func toStatus(s ledger.Status) Status {
	out := Status{Kind: s.Kind.String(), Label: s.Label()}
	if s.Kind != ledger.ExactlySettled {
		out.Amount = s.Amount.String()
	}
	return out
}

// billStatus classifies the persisted scalars of a bill.
func billStatus(b *models.Bill) ledger.Status {
	return ledger.Classify(b.TotalAmount, b.PaidAmount, b.WaivedAmount)
}

func toBillMessage(b *models.Bill) *Bill {
	msg := &Bill{
		ID:           b.ID,
		Title:        b.Title,
		Client:       b.Client,
		Address:      b.Address,
		StartDate:    formatDate(b.StartDate),
		EndDate:      formatDate(b.EndDate),
		Note:         b.Note,
		Items:        make([]Item, len(b.Items)),
		Payments:     make([]Payment, len(b.Payments)),
		TotalAmount:  b.TotalAmount.String(),
		PaidAmount:   b.PaidAmount.String(),
		WaivedAmount: b.WaivedAmount.String(),
		Remaining:    (b.TotalAmount - b.PaidAmount - b.WaivedAmount).String(),
		Status:       toStatus(billStatus(b)),
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
	for i, it := range b.Items {
		msg.Items[i] = Item{
			ID:        it.ID,
			Name:      it.Name,
			Unit:      it.Unit,
			UnitPrice: it.UnitPrice.String(),
			Quantity:  it.Quantity.String(),
			Amount:    it.Amount.String(),
		}
	}
	for i, p := range b.Payments {
		msg.Payments[i] = Payment{
			ID:     p.ID,
			PaidOn: p.PaidOn.Format(time.DateOnly),
			Amount: p.Amount.String(),
			Note:   p.Note,
		}
	}
	return msg
}

func toBillSummary(b *models.Bill) BillSummary {
	return BillSummary{
		ID:           b.ID,
		Title:        b.Title,
		Client:       b.Client,
		TotalAmount:  b.TotalAmount.String(),
		PaidAmount:   b.PaidAmount.String(),
		WaivedAmount: b.WaivedAmount.String(),
		Status:       toStatus(billStatus(b)),
		CreatedAt:    b.CreatedAt,
	}
}
