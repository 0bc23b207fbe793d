package ledger

import "github.com/mmynk/billkeeper/internal/money"

// The functions below keep the waived register W in step with item and
// payment changes. A positive W means the bill is being presented as waived;
// the waiver then absorbs or releases each delta. With W at zero the totals
// move on their own and W is left alone. All of them keep W >= 0.

// AfterItemAdded returns W after an item of the given amount is added.
func AfterItemAdded(waived, delta money.Amount) money.Amount {
	if waived > 0 {
		return waived + delta
	}
	return waived
}

// AfterItemRemoved returns W after an item is removed. A waiver too small to
// absorb the removal is cleared and the bill falls back to remaining-based
// classification (settled or overpaid).
func AfterItemRemoved(waived, delta money.Amount) money.Amount {
	if waived <= 0 {
		return waived
	}
	if waived > delta {
		return waived - delta
	}
	return 0
}

// AfterPaymentAdded returns W after a payment is recorded. The payment eats
// into the waiver first; any excess surfaces as an overpayment.
func AfterPaymentAdded(waived, delta money.Amount) money.Amount {
	if waived <= 0 {
		return waived
	}
	if delta < waived {
		return waived - delta
	}
	return 0
}

// AfterPaymentRemoved returns W after a payment is deleted. Un-paying restores
// the waiver that covered it.
//
// TODO: confirm with product whether W should instead be re-derived from the
// pre-payment remaining balance; this keeps the unconditional growth.
func AfterPaymentRemoved(waived, delta money.Amount) money.Amount {
	if waived > 0 {
		return waived + delta
	}
	return waived
}
