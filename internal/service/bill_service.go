package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/mmynk/billkeeper/internal/ledger"
	"github.com/mmynk/billkeeper/internal/metrics"
	"github.com/mmynk/billkeeper/internal/models"
	"github.com/mmynk/billkeeper/internal/money"
	"github.com/mmynk/billkeeper/internal/notify"
	"github.com/mmynk/billkeeper/internal/session"
	"github.com/mmynk/billkeeper/internal/storage"
)

// Ensure BillService implements BillServiceHandler
var _ BillServiceHandler = (*BillService)(nil)

const lockStripes = 64

// BillService implements the Connect BillService.
type BillService struct {
	store   storage.Store
	events  notify.Publisher
	metrics *metrics.Metrics

	// Edits of one bill are serialized: load, mutate and commit must not
	// interleave with another edit of the same bill.
	locks [lockStripes]sync.Mutex
}

// Option configures a BillService.
type Option func(*BillService)

// WithPublisher sends change events to p after each successful commit.
func WithPublisher(p notify.Publisher) Option {
	return func(s *BillService) { s.events = p }
}

// WithMetrics records ledger operations on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *BillService) { s.metrics = m }
}

// NewBillService creates a new BillService with the given storage backend.
func NewBillService(store storage.Store, opts ...Option) *BillService {
	s := &BillService{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *BillService) lock(billID string) func() {
	h := fnv.New32a()
	h.Write([]byte(billID))
	mu := &s.locks[h.Sum32()%lockStripes]
	mu.Lock()
	return mu.Unlock
}

func (s *BillService) publish(typ models.EventType, bill *models.Bill, detail string) {
	if s.events == nil {
		return
	}
	s.events.Publish(models.BillEvent{
		Type:      typ,
		BillID:    bill.ID,
		Status:    billStatus(bill).String(),
		Detail:    detail,
		CreatedAt: bill.UpdatedAt,
	})
}

// toConnectError maps domain errors onto Connect codes.
func toConnectError(err error) error {
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return err
	}
	switch {
	case errors.Is(err, money.ErrInvalidAmount),
		errors.Is(err, models.ErrInvalidDateRange),
		errors.Is(err, ledger.ErrDuplicateID),
		errors.Is(err, errInvalidInput):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, ledger.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, ledger.ErrAlreadySettled):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

// edit runs one session against a bill: open, apply fn, commit.
func (s *BillService) edit(ctx context.Context, billID string, fn func(*ledger.Ledger) error) (*models.Bill, error) {
	if err := requireBillID(billID); err != nil {
		return nil, err
	}
	defer s.lock(billID)()

	sess, err := session.Open(ctx, s.store, billID)
	if err != nil {
		return nil, err
	}
	if err := fn(sess.Ledger()); err != nil {
		return nil, err
	}
	bill, err := sess.Commit(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to commit bill %s: %w", billID, err)
	}
	return bill, nil
}

// CreateBill creates a new bill and persists it to storage.
func (s *BillService) CreateBill(ctx context.Context, req *connect.Request[CreateBillRequest]) (*connect.Response[BillResponse], error) {
	bill, err := s.createBill(ctx, req.Msg)
	s.metrics.Operation(metrics.OpCreateBill, err)
	if err != nil {
		slog.Error("CreateBill failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Bill created", "bill_id", bill.ID, "items", len(bill.Items), "payments", len(bill.Payments))
	s.publish(models.EventBillAdded, bill, "")
	return connect.NewResponse(&BillResponse{Bill: toBillMessage(bill)}), nil
}

func (s *BillService) createBill(ctx context.Context, msg *CreateBillRequest) (*models.Bill, error) {
	start, err := parseDate("start_date", msg.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate("end_date", msg.EndDate)
	if err != nil {
		return nil, err
	}

	l := ledger.New()
	for i, in := range msg.Items {
		item, err := toLineItem(in)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i+1, err)
		}
		if _, err := l.AddItem(item); err != nil {
			return nil, fmt.Errorf("item %d: %w", i+1, err)
		}
	}
	for i, in := range msg.Payments {
		p, err := toPayment(in)
		if err != nil {
			return nil, fmt.Errorf("payment %d: %w", i+1, err)
		}
		if _, err := l.AddPayment(p); err != nil {
			return nil, fmt.Errorf("payment %d: %w", i+1, err)
		}
	}

	bill := &models.Bill{
		Title:     msg.Title,
		Client:    msg.Client,
		Address:   msg.Address,
		StartDate: start,
		EndDate:   end,
		Note:      msg.Note,
	}
	if err := session.Create(ctx, s.store, bill, l); err != nil {
		return nil, err
	}
	return bill, nil
}

// GetBill retrieves a bill by ID from storage.
func (s *BillService) GetBill(ctx context.Context, req *connect.Request[GetBillRequest]) (*connect.Response[BillResponse], error) {
	if err := requireBillID(req.Msg.BillID); err != nil {
		return nil, toConnectError(err)
	}

	bill, err := s.store.GetBill(ctx, req.Msg.BillID)
	if err != nil {
		slog.Error("GetBill failed", "bill_id", req.Msg.BillID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&BillResponse{Bill: toBillMessage(bill)}), nil
}

// ListBills returns bill summaries, newest first.
func (s *BillService) ListBills(ctx context.Context, req *connect.Request[ListBillsRequest]) (*connect.Response[ListBillsResponse], error) {
	if req.Msg.Limit < 0 || req.Msg.Offset < 0 {
		return nil, toConnectError(fmt.Errorf("%w: limit and offset must not be negative", errInvalidInput))
	}

	bills, err := s.store.ListBills(ctx, storage.ListOptions{
		Client: req.Msg.Client,
		Limit:  req.Msg.Limit,
		Offset: req.Msg.Offset,
	})
	if err != nil {
		slog.Error("ListBills failed", "error", err)
		return nil, toConnectError(err)
	}

	summaries := make([]BillSummary, len(bills))
	for i, b := range bills {
		summaries[i] = toBillSummary(b)
	}
	return connect.NewResponse(&ListBillsResponse{Bills: summaries}), nil
}

// DeleteBill removes a bill with its items and payments. Its event history is kept.
func (s *BillService) DeleteBill(ctx context.Context, req *connect.Request[DeleteBillRequest]) (*connect.Response[emptypb.Empty], error) {
	billID := req.Msg.BillID
	if err := requireBillID(billID); err != nil {
		return nil, toConnectError(err)
	}

	unlock := s.lock(billID)
	err := s.store.DeleteBill(ctx, billID)
	unlock()
	s.metrics.Operation(metrics.OpDeleteBill, err)
	if err != nil {
		slog.Error("DeleteBill failed", "bill_id", billID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Bill deleted", "bill_id", billID)
	s.publish(models.EventBillDeleted, &models.Bill{ID: billID, UpdatedAt: now().Unix()}, "")
	return connect.NewResponse(&emptypb.Empty{}), nil
}

// AddItem appends a line item. On a waived bill the waiver grows by the item amount.
func (s *BillService) AddItem(ctx context.Context, req *connect.Request[AddItemRequest]) (*connect.Response[AddItemResponse], error) {
	var added ledger.LineItem
	bill, err := s.edit(ctx, req.Msg.BillID, func(l *ledger.Ledger) error {
		item, err := toLineItem(req.Msg.Item)
		if err != nil {
			return err
		}
		added, err = l.AddItem(item)
		return err
	})
	s.metrics.Operation(metrics.OpAddItem, err)
	if err != nil {
		slog.Error("AddItem failed", "bill_id", req.Msg.BillID, "error", err)
		return nil, toConnectError(err)
	}

	s.publish(models.EventBillUpdated, bill, "item added: "+added.ID)
	return connect.NewResponse(&AddItemResponse{ItemID: added.ID, Bill: toBillMessage(bill)}), nil
}

// RemoveItem deletes a line item.
func (s *BillService) RemoveItem(ctx context.Context, req *connect.Request[RemoveItemRequest]) (*connect.Response[BillResponse], error) {
	bill, err := s.edit(ctx, req.Msg.BillID, func(l *ledger.Ledger) error {
		_, err := l.RemoveItem(req.Msg.ItemID)
		return err
	})
	s.metrics.Operation(metrics.OpRemoveItem, err)
	if err != nil {
		slog.Error("RemoveItem failed", "bill_id", req.Msg.BillID, "item_id", req.Msg.ItemID, "error", err)
		return nil, toConnectError(err)
	}

	s.publish(models.EventBillUpdated, bill, "item removed: "+req.Msg.ItemID)
	return connect.NewResponse(&BillResponse{Bill: toBillMessage(bill)}), nil
}

// UpdateItem replaces a line item in place.
func (s *BillService) UpdateItem(ctx context.Context, req *connect.Request[UpdateItemRequest]) (*connect.Response[BillResponse], error) {
	bill, err := s.edit(ctx, req.Msg.BillID, func(l *ledger.Ledger) error {
		item, err := toLineItem(req.Msg.Item)
		if err != nil {
			return err
		}
		item.ID = req.Msg.ItemID
		return l.ReplaceItem(item)
	})
	s.metrics.Operation(metrics.OpUpdateItem, err)
	if err != nil {
		slog.Error("UpdateItem failed", "bill_id", req.Msg.BillID, "item_id", req.Msg.ItemID, "error", err)
		return nil, toConnectError(err)
	}

	s.publish(models.EventBillUpdated, bill, "item updated: "+req.Msg.ItemID)
	return connect.NewResponse(&BillResponse{Bill: toBillMessage(bill)}), nil
}

// AddPayment records a payment. On a waived bill the payment is taken out of the waiver first.
func (s *BillService) AddPayment(ctx context.Context, req *connect.Request[AddPaymentRequest]) (*connect.Response[AddPaymentResponse], error) {
	var added ledger.Payment
	bill, err := s.edit(ctx, req.Msg.BillID, func(l *ledger.Ledger) error {
		p, err := toPayment(req.Msg.Payment)
		if err != nil {
			return err
		}
		added, err = l.AddPayment(p)
		return err
	})
	s.metrics.Operation(metrics.OpAddPayment, err)
	if err != nil {
		slog.Error("AddPayment failed", "bill_id", req.Msg.BillID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Payment added", "bill_id", bill.ID, "payment_id", added.ID, "amount", added.Amount.String())
	s.publish(models.EventPaymentAdded, bill, added.ID)
	return connect.NewResponse(&AddPaymentResponse{PaymentID: added.ID, Bill: toBillMessage(bill)}), nil
}

// RemovePayment deletes a payment.
func (s *BillService) RemovePayment(ctx context.Context, req *connect.Request[RemovePaymentRequest]) (*connect.Response[BillResponse], error) {
	bill, err := s.edit(ctx, req.Msg.BillID, func(l *ledger.Ledger) error {
		_, err := l.RemovePayment(req.Msg.PaymentID)
		return err
	})
	s.metrics.Operation(metrics.OpRemovePayment, err)
	if err != nil {
		slog.Error("RemovePayment failed", "bill_id", req.Msg.BillID, "payment_id", req.Msg.PaymentID, "error", err)
		return nil, toConnectError(err)
	}

	s.publish(models.EventPaymentDeleted, bill, req.Msg.PaymentID)
	return connect.NewResponse(&BillResponse{Bill: toBillMessage(bill)}), nil
}

// UpdatePayment replaces a payment in place.
func (s *BillService) UpdatePayment(ctx context.Context, req *connect.Request[UpdatePaymentRequest]) (*connect.Response[BillResponse], error) {
	bill, err := s.edit(ctx, req.Msg.BillID, func(l *ledger.Ledger) error {
		p, err := toPayment(req.Msg.Payment)
		if err != nil {
			return err
		}
		p.ID = req.Msg.PaymentID
		return l.ReplacePayment(p)
	})
	s.metrics.Operation(metrics.OpUpdatePayment, err)
	if err != nil {
		slog.Error("UpdatePayment failed", "bill_id", req.Msg.BillID, "payment_id", req.Msg.PaymentID, "error", err)
		return nil, toConnectError(err)
	}

	s.publish(models.EventPaymentUpdated, bill, req.Msg.PaymentID)
	return connect.NewResponse(&BillResponse{Bill: toBillMessage(bill)}), nil
}

// ToggleSettle waives the balance of a pending bill or reopens a waived one.
func (s *BillService) ToggleSettle(ctx context.Context, req *connect.Request[ToggleSettleRequest]) (*connect.Response[BillResponse], error) {
	var status ledger.Status
	bill, err := s.edit(ctx, req.Msg.BillID, func(l *ledger.Ledger) error {
		var err error
		status, err = l.ToggleSettle()
		return err
	})
	if err == nil || errors.Is(err, ledger.ErrAlreadySettled) {
		s.metrics.Toggle(status, err)
	}
	if err != nil {
		slog.Warn("ToggleSettle failed", "bill_id", req.Msg.BillID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Bill settlement toggled", "bill_id", bill.ID, "status", status.String())
	s.publish(models.EventBillUpdated, bill, "settle toggled: "+status.Kind.String())
	return connect.NewResponse(&BillResponse{Bill: toBillMessage(bill)}), nil
}

// ListBillEvents returns the change history of a bill, oldest first.
func (s *BillService) ListBillEvents(ctx context.Context, req *connect.Request[ListBillEventsRequest]) (*connect.Response[ListBillEventsResponse], error) {
	if err := requireBillID(req.Msg.BillID); err != nil {
		return nil, toConnectError(err)
	}

	events, err := s.store.ListEvents(ctx, req.Msg.BillID)
	if err != nil {
		slog.Error("ListBillEvents failed", "bill_id", req.Msg.BillID, "error", err)
		return nil, toConnectError(err)
	}

	out := make([]Event, len(events))
	for i, e := range events {
		out[i] = Event{
			ID:        e.ID,
			Type:      string(e.Type),
			Status:    e.Status,
			Detail:    e.Detail,
			CreatedAt: e.CreatedAt,
		}
	}
	return connect.NewResponse(&ListBillEventsResponse{Events: out}), nil
}
