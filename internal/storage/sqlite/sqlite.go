// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/billkeeper/internal/models"
	"github.com/mmynk/billkeeper/internal/money"
	"github.com/mmynk/billkeeper/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

const dateLayout = time.DateOnly

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Pragmas in the DSN apply to every pooled connection
	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateBill persists a new bill to the database.
func (s *SQLiteStore) CreateBill(ctx context.Context, bill *models.Bill) error {
	// Generate IDs if not set
	if bill.ID == "" {
		bill.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if bill.CreatedAt == 0 {
		bill.CreatedAt = now
	}
	bill.UpdatedAt = now
	if bill.Title == "" {
		bill.Title = generateTitle(bill.Client, time.Unix(bill.CreatedAt, 0))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO bills (id, title, client, address, start_date, end_date, note,
		 total_amount, paid_amount, waived_amount, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		bill.ID, bill.Title, bill.Client, bill.Address,
		formatDate(bill.StartDate), formatDate(bill.EndDate), bill.Note,
		bill.TotalAmount.Cents(), bill.PaidAmount.Cents(), bill.WaivedAmount.Cents(),
		bill.CreatedAt, bill.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert bill: %w", err)
	}

	if err := insertChildren(ctx, tx, bill); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// UpdateBill rewrites the bill row and replaces its items and payments.
func (s *SQLiteStore) UpdateBill(ctx context.Context, bill *models.Bill) error {
	bill.UpdatedAt = time.Now().Unix()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE bills SET title = ?, client = ?, address = ?, start_date = ?, end_date = ?,
		 note = ?, total_amount = ?, paid_amount = ?, waived_amount = ?, updated_at = ?
		 WHERE id = ?`,
		bill.Title, bill.Client, bill.Address,
		formatDate(bill.StartDate), formatDate(bill.EndDate), bill.Note,
		bill.TotalAmount.Cents(), bill.PaidAmount.Cents(), bill.WaivedAmount.Cents(),
		bill.UpdatedAt, bill.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update bill: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, bill.ID)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM bill_items WHERE bill_id = ?", bill.ID); err != nil {
		return fmt.Errorf("failed to clear items: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM payment_records WHERE bill_id = ?", bill.ID); err != nil {
		return fmt.Errorf("failed to clear payments: %w", err)
	}

	if err := insertChildren(ctx, tx, bill); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func insertChildren(ctx context.Context, tx *sql.Tx, bill *models.Bill) error {
	for i := range bill.Items {
		item := &bill.Items[i]
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO bill_items (id, bill_id, position, name, unit, unit_price, quantity, amount)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			item.ID, bill.ID, i, item.Name, item.Unit,
			item.UnitPrice.Cents(), item.Quantity.String(), item.Amount.Cents(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert item: %w", err)
		}
	}

	for i := range bill.Payments {
		p := &bill.Payments[i]
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO payment_records (id, bill_id, position, paid_on, amount, note)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			p.ID, bill.ID, i, p.PaidOn.Format(dateLayout), p.Amount.Cents(), p.Note,
		)
		if err != nil {
			return fmt.Errorf("failed to insert payment: %w", err)
		}
	}
	return nil
}

// GetBill retrieves a bill by ID, including all items and payments.
func (s *SQLiteStore) GetBill(ctx context.Context, billID string) (*models.Bill, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, client, address, start_date, end_date, note,
		 total_amount, paid_amount, waived_amount, created_at, updated_at
		 FROM bills WHERE id = ?`,
		billID,
	)
	bill, err := scanBill(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, billID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bill: %w", err)
	}

	if bill.Items, err = s.getItems(ctx, billID); err != nil {
		return nil, err
	}
	if bill.Payments, err = s.getPayments(ctx, billID); err != nil {
		return nil, err
	}

	return bill, nil
}

func (s *SQLiteStore) getItems(ctx context.Context, billID string) ([]models.BillItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, unit, unit_price, quantity, amount
		 FROM bill_items WHERE bill_id = ? ORDER BY position`,
		billID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}
	defer rows.Close()

	var items []models.BillItem
	for rows.Next() {
		var item models.BillItem
		var unitPrice, amount int64
		var qty string
		if err := rows.Scan(&item.ID, &item.Name, &item.Unit, &unitPrice, &qty, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		item.Quantity, err = decimal.NewFromString(qty)
		if err != nil {
			return nil, fmt.Errorf("failed to parse quantity of item %s: %w", item.ID, err)
		}
		item.UnitPrice = money.FromCents(unitPrice)
		item.Amount = money.FromCents(amount)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}
	return items, nil
}

func (s *SQLiteStore) getPayments(ctx context.Context, billID string) ([]models.PaymentRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, paid_on, amount, note
		 FROM payment_records WHERE bill_id = ? ORDER BY position`,
		billID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get payments: %w", err)
	}
	defer rows.Close()

	var payments []models.PaymentRecord
	for rows.Next() {
		var p models.PaymentRecord
		var paidOn string
		var amount int64
		if err := rows.Scan(&p.ID, &paidOn, &amount, &p.Note); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		p.PaidOn, err = time.Parse(dateLayout, paidOn)
		if err != nil {
			return nil, fmt.Errorf("failed to parse date of payment %s: %w", p.ID, err)
		}
		p.Amount = money.FromCents(amount)
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}
	return payments, nil
}

// DeleteBill removes a bill by ID. Items and payments go with it.
func (s *SQLiteStore) DeleteBill(ctx context.Context, billID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM bills WHERE id = ?", billID)
	if err != nil {
		return fmt.Errorf("failed to delete bill: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, billID)
	}
	return nil
}

// ListBills returns bill headers, newest first.
func (s *SQLiteStore) ListBills(ctx context.Context, opts storage.ListOptions) ([]*models.Bill, error) {
	if opts.Limit <= 0 {
		opts.Limit = 50
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}

	query := `SELECT id, title, client, address, start_date, end_date, note,
		total_amount, paid_amount, waived_amount, created_at, updated_at
		FROM bills`
	var args []any
	if opts.Client != "" {
		query += " WHERE client = ?"
		args = append(args, opts.Client)
	}
	query += " ORDER BY created_at DESC, id LIMIT ? OFFSET ?"
	args = append(args, opts.Limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}
	defer rows.Close()

	var bills []*models.Bill
	for rows.Next() {
		bill, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bill: %w", err)
		}
		bills = append(bills, bill)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bills: %w", err)
	}
	return bills, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBill(row scanner) (*models.Bill, error) {
	bill := &models.Bill{}
	var start, end sql.NullString
	var total, paid, waived int64
	err := row.Scan(&bill.ID, &bill.Title, &bill.Client, &bill.Address, &start, &end, &bill.Note,
		&total, &paid, &waived, &bill.CreatedAt, &bill.UpdatedAt)
	if err != nil {
		return nil, err
	}
	bill.TotalAmount = money.FromCents(total)
	bill.PaidAmount = money.FromCents(paid)
	bill.WaivedAmount = money.FromCents(waived)
	if bill.StartDate, err = parseDate(start); err != nil {
		return nil, err
	}
	if bill.EndDate, err = parseDate(end); err != nil {
		return nil, err
	}
	return bill, nil
}

func formatDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(dateLayout)
}

func parseDate(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s.String)
	if err != nil {
		return nil, fmt.Errorf("invalid stored date %q: %w", s.String, err)
	}
	return &t, nil
}

// generateTitle creates an auto-generated title from the client and date.
func generateTitle(client string, created time.Time) string {
	if client == "" {
		return fmt.Sprintf("Bill - %s", created.Format("Jan 2, 2006"))
	}
	return fmt.Sprintf("%s - %s", client, created.Format("Jan 2, 2006"))
}
