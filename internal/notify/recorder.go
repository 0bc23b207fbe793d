package notify

import (
	"context"

	"github.com/mmynk/billkeeper/internal/models"
)

// EventSaver persists events. storage.Store satisfies it.
type EventSaver interface {
	SaveEvent(ctx context.Context, event models.BillEvent) error
}

// Recorder returns a subscriber that appends every event to the audit trail.
func Recorder(saver EventSaver) Subscriber {
	return SubscriberFunc(saver.SaveEvent)
}
