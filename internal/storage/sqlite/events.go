package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/billkeeper/internal/models"
)

// SaveEvent appends a change notification to the audit trail.
func (s *SQLiteStore) SaveEvent(ctx context.Context, event models.BillEvent) error {
	// Generate ID if not set
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt == 0 {
		event.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bill_events (id, bill_id, event_type, status, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		event.ID, event.BillID, string(event.Type), event.Status, event.Detail, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	return nil
}

// ListEvents retrieves all events for a bill, oldest first.
func (s *SQLiteStore) ListEvents(ctx context.Context, billID string) ([]models.BillEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, bill_id, event_type, status, detail, created_at
		 FROM bill_events WHERE bill_id = ? ORDER BY created_at, rowid`,
		billID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []models.BillEvent
	for rows.Next() {
		var e models.BillEvent
		var eventType string
		if err := rows.Scan(&e.ID, &e.BillID, &eventType, &e.Status, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.Type = models.EventType(eventType)
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}

	return events, nil
}
