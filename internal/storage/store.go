// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/billkeeper/internal/models"
)

// ErrNotFound is returned when a bill does not exist.
var ErrNotFound = errors.New("bill not found")

// ListOptions narrows ListBills.
type ListOptions struct {
	// Client filters by exact client name when non-empty.
	Client string

	// Limit caps the number of bills returned; zero means 50.
	Limit int

	// Offset skips that many bills, newest first.
	Offset int
}

// Store defines the interface for bill storage operations.
// The settlement engine never talks to it directly: a session loads a bill,
// edits it in memory and hands the flattened result back on commit.
type Store interface {
	// CreateBill persists a new bill with its items and payments.
	// Empty IDs, CreatedAt and Title are filled in by the store.
	CreateBill(ctx context.Context, bill *models.Bill) error

	// GetBill retrieves a bill with its items and payments.
	// Returns an error wrapping ErrNotFound if the bill does not exist.
	GetBill(ctx context.Context, billID string) (*models.Bill, error)

	// UpdateBill replaces the bill's header, totals, items and payments.
	// Returns an error wrapping ErrNotFound if the bill does not exist.
	UpdateBill(ctx context.Context, bill *models.Bill) error

	// DeleteBill removes a bill and, by cascade, its items and payments.
	DeleteBill(ctx context.Context, billID string) error

	// ListBills returns bill headers and totals, newest first.
	// Items and Payments are not loaded.
	ListBills(ctx context.Context, opts ListOptions) ([]*models.Bill, error)

	// SaveEvent appends a change notification to the audit trail.
	SaveEvent(ctx context.Context, event models.BillEvent) error

	// ListEvents returns the events recorded for a bill, oldest first.
	ListEvents(ctx context.Context, billID string) ([]models.BillEvent, error)

	// Close releases any resources held by the store.
	Close() error
}
