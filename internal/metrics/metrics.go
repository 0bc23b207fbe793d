// Package metrics exposes prometheus counters for ledger activity.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mmynk/billkeeper/internal/ledger"
	"github.com/mmynk/billkeeper/internal/models"
)

const namespace = "billkeeper"

// Ledger operation labels.
const (
	OpCreateBill    = "create_bill"
	OpDeleteBill    = "delete_bill"
	OpAddItem       = "add_item"
	OpRemoveItem    = "remove_item"
	OpUpdateItem    = "update_item"
	OpAddPayment    = "add_payment"
	OpRemovePayment = "remove_payment"
	OpUpdatePayment = "update_payment"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	operations *prometheus.CounterVec
	toggles    *prometheus.CounterVec
	events     *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_operations_total",
			Help:      "Ledger mutations by operation and outcome.",
		}, []string{"op", "result"}),
		toggles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settle_toggles_total",
			Help:      "Settle toggles by resulting status.",
		}, []string{"result"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bill_events_total",
			Help:      "Bill change events delivered, by type.",
		}, []string{"type"}),
	}
	reg.MustRegister(m.operations, m.toggles, m.events)
	return m
}

// Operation counts one mutation. err == nil records "ok".
func (m *Metrics) Operation(op string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.operations.WithLabelValues(op, result).Inc()
}

// Toggle counts one settle toggle. A failed toggle is recorded as
// "already_settled".
func (m *Metrics) Toggle(status ledger.Status, err error) {
	if m == nil {
		return
	}
	result := status.Kind.String()
	if err != nil {
		result = "already_settled"
	}
	m.toggles.WithLabelValues(result).Inc()
}

// Handle counts a delivered event. It lets Metrics subscribe to the notify bus.
func (m *Metrics) Handle(_ context.Context, event models.BillEvent) error {
	if m == nil {
		return nil
	}
	m.events.WithLabelValues(string(event.Type)).Inc()
	return nil
}
