package ledger

import (
	"errors"

	"github.com/mmynk/billkeeper/internal/money"
)

var (
	// ErrInvalidAmount is money.ErrInvalidAmount, re-exported for callers
	// that only import ledger.
	ErrInvalidAmount = money.ErrInvalidAmount

	ErrNotFound       = errors.New("entry not found")
	ErrDuplicateID    = errors.New("duplicate entry id")
	ErrAlreadySettled = errors.New("bill is already settled")
)
