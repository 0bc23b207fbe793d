package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/mmynk/billkeeper/internal/metrics"
	"github.com/mmynk/billkeeper/internal/middleware"
	"github.com/mmynk/billkeeper/internal/notify"
	"github.com/mmynk/billkeeper/internal/storage/sqlite"
)

type testEnv struct {
	client *BillServiceClient
	bus    *notify.Bus
	reg    *prometheus.Registry
}

// setupTestServer creates a test server backed by a temp SQLite database.
func setupTestServer(t *testing.T) (*testEnv, func()) {
	t.Helper()

	// Create temp database
	tmpFile, err := os.CreateTemp("", "test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpFile.Close()

	store, err := sqlite.New(tmpFile.Name())
	if err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("failed to create store: %v", err)
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	bus := notify.NewBus(100)
	bus.Subscribe(notify.Recorder(store))
	bus.Subscribe(m)
	bus.Start()

	svc := NewBillService(store, WithPublisher(bus), WithMetrics(m))
	path, handler := NewBillServiceHandler(svc, connect.WithInterceptors(middleware.LoggingInterceptor()))

	mux := http.NewServeMux()
	mux.Handle(path, handler)
	server := httptest.NewServer(mux)

	env := &testEnv{
		client: NewBillServiceClient(http.DefaultClient, server.URL),
		bus:    bus,
		reg:    reg,
	}

	cleanup := func() {
		server.Close()
		bus.Shutdown()
		store.Close()
		os.Remove(tmpFile.Name())
	}

	return env, cleanup
}

// counterValue reads one labelled counter from the registry.
func counterValue(t *testing.T, reg *prometheus.Registry, name, label, value string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if hasLabel(m, label, value) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func hasLabel(m *dto.Metric, name, value string) bool {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name && lp.GetValue() == value {
			return true
		}
	}
	return false
}

func createBill(t *testing.T, client *BillServiceClient, req *CreateBillRequest) *Bill {
	t.Helper()
	resp, err := client.CreateBill(context.Background(), connect.NewRequest(req))
	if err != nil {
		t.Fatalf("CreateBill failed: %v", err)
	}
	return resp.Msg.Bill
}

func assertCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	if got := connect.CodeOf(err); got != want {
		t.Fatalf("expected code %v, got %v (%v)", want, got, err)
	}
}

func assertStatus(t *testing.T, bill *Bill, kind, amount string) {
	t.Helper()
	if bill.Status.Kind != kind || bill.Status.Amount != amount {
		t.Fatalf("status = %s %q, want %s %q", bill.Status.Kind, bill.Status.Amount, kind, amount)
	}
}

func TestCreateBill(t *testing.T) {
	env, cleanup := setupTestServer(t)
	defer cleanup()

	bill := createBill(t, env.client, &CreateBillRequest{
		Title:     "Kitchen remodel",
		Client:    "Jane Doe",
		StartDate: "2024-03-01",
		EndDate:   "2024-03-20",
		Items: []ItemInput{
			{Name: "Floor tiles", Unit: "m2", UnitPrice: "42.50", Quantity: "12.5"},
			{Name: "Labour", Unit: "hour", UnitPrice: "35", Quantity: "8"},
		},
		Payments: []PaymentInput{
			{PaidOn: "2024-03-02", Amount: "300", Note: "deposit"},
		},
	})

	if bill.ID == "" {
		t.Fatal("expected bill ID")
	}
	if bill.TotalAmount != "811.25" || bill.PaidAmount != "300.00" || bill.WaivedAmount != "0.00" {
		t.Errorf("totals = %s/%s/%s, want 811.25/300.00/0.00", bill.TotalAmount, bill.PaidAmount, bill.WaivedAmount)
	}
	if bill.Remaining != "511.25" {
		t.Errorf("remaining = %s, want 511.25", bill.Remaining)
	}
	assertStatus(t, bill, "pending", "511.25")
	if bill.Status.Label != "Remaining 511.25" {
		t.Errorf("label = %q", bill.Status.Label)
	}
	if len(bill.Items) != 2 || bill.Items[0].Amount != "531.25" {
		t.Errorf("items = %+v", bill.Items)
	}
	if bill.StartDate != "2024-03-01" || bill.EndDate != "2024-03-20" {
		t.Errorf("dates = %s..%s", bill.StartDate, bill.EndDate)
	}

	got, err := env.client.GetBill(context.Background(), connect.NewRequest(&GetBillRequest{BillID: bill.ID}))
	if err != nil {
		t.Fatalf("GetBill failed: %v", err)
	}
	if got.Msg.Bill.Title != "Kitchen remodel" || len(got.Msg.Bill.Payments) != 1 {
		t.Errorf("GetBill returned %+v", got.Msg.Bill)
	}
	if got.Msg.Bill.Payments[0].PaidOn != "2024-03-02" || got.Msg.Bill.Payments[0].Note != "deposit" {
		t.Errorf("payment = %+v", got.Msg.Bill.Payments[0])
	}
}

func TestCreateBill_EmptyIsSettled(t *testing.T) {
	env, cleanup := setupTestServer(t)
	defer cleanup()

	bill := createBill(t, env.client, &CreateBillRequest{Client: "Acme"})
	assertStatus(t, bill, "settled", "")
	if bill.Title == "" {
		t.Error("expected generated title")
	}
}

func TestCreateBill_InvalidInput(t *testing.T) {
	env, cleanup := setupTestServer(t)
	defer cleanup()

	tests := []struct {
		name string
		req  *CreateBillRequest
	}{
		{"negative unit price", &CreateBillRequest{Items: []ItemInput{{Name: "Tiles", UnitPrice: "-1", Quantity: "1"}}}},
		{"negative quantity", &CreateBillRequest{Items: []ItemInput{{Name: "Tiles", UnitPrice: "1", Quantity: "-2"}}}},
		{"unparsable price", &CreateBillRequest{Items: []ItemInput{{Name: "Tiles", UnitPrice: "abc", Quantity: "1"}}}},
		{"missing item name", &CreateBillRequest{Items: []ItemInput{{UnitPrice: "1", Quantity: "1"}}}},
		{"negative payment", &CreateBillRequest{Payments: []PaymentInput{{Amount: "-5"}}}},
		{"end before start", &CreateBillRequest{StartDate: "2024-05-10", EndDate: "2024-05-01"}},
		{"bad date format", &CreateBillRequest{StartDate: "10/05/2024"}},
		{"item amount out of range", &CreateBillRequest{Items: []ItemInput{{Name: "Steel", UnitPrice: "1000000000", Quantity: "100000000"}}}},
		{"decimal comma", &CreateBillRequest{Items: []ItemInput{{Name: "Tiles", UnitPrice: "12,50", Quantity: "1"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.client.CreateBill(context.Background(), connect.NewRequest(tt.req))
			assertCode(t, err, connect.CodeInvalidArgument)
		})
	}
}

func TestGetBill_Errors(t *testing.T) {
	env, cleanup := setupTestServer(t)
	defer cleanup()

	_, err := env.client.GetBill(context.Background(), connect.NewRequest(&GetBillRequest{BillID: "missing"}))
	assertCode(t, err, connect.CodeNotFound)

	_, err = env.client.GetBill(context.Background(), connect.NewRequest(&GetBillRequest{}))
	assertCode(t, err, connect.CodeInvalidArgument)
}

func TestWaiverLifecycle(t *testing.T) {
	env, cleanup := setupTestServer(t)
	defer cleanup()
	ctx := context.Background()

	bill := createBill(t, env.client, &CreateBillRequest{
		Items:    []ItemInput{{Name: "Fence", UnitPrice: "100", Quantity: "1"}},
		Payments: []PaymentInput{{Amount: "80"}},
	})
	assertStatus(t, bill, "pending", "20.00")

	// Forgive the remaining 20.00.
	resp, err := env.client.ToggleSettle(ctx, connect.NewRequest(&ToggleSettleRequest{BillID: bill.ID}))
	if err != nil {
		t.Fatalf("ToggleSettle failed: %v", err)
	}
	assertStatus(t, resp.Msg.Bill, "waived", "20.00")
	if resp.Msg.Bill.Remaining != "0.00" {
		t.Errorf("remaining = %s, want 0.00", resp.Msg.Bill.Remaining)
	}

	// A new item grows the waiver; the bill stays settled.
	added, err := env.client.AddItem(ctx, connect.NewRequest(&AddItemRequest{
		BillID: bill.ID,
		Item:   ItemInput{Name: "Paint", UnitPrice: "15", Quantity: "1"},
	}))
	if err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	if added.Msg.ItemID == "" {
		t.Error("expected item ID")
	}
	assertStatus(t, added.Msg.Bill, "waived", "35.00")

	// A payment larger than the waiver clears it and overpays.
	paid, err := env.client.AddPayment(ctx, connect.NewRequest(&AddPaymentRequest{
		BillID:  bill.ID,
		Payment: PaymentInput{PaidOn: "2024-06-01", Amount: "50"},
	}))
	if err != nil {
		t.Fatalf("AddPayment failed: %v", err)
	}
	assertStatus(t, paid.Msg.Bill, "overpaid", "15.00")

	// Nothing left to toggle.
	_, err = env.client.ToggleSettle(ctx, connect.NewRequest(&ToggleSettleRequest{BillID: bill.ID}))
	assertCode(t, err, connect.CodeFailedPrecondition)

	// Removing that payment reopens the balance.
	removed, err := env.client.RemovePayment(ctx, connect.NewRequest(&RemovePaymentRequest{
		BillID:    bill.ID,
		PaymentID: paid.Msg.PaymentID,
	}))
	if err != nil {
		t.Fatalf("RemovePayment failed: %v", err)
	}
	assertStatus(t, removed.Msg.Bill, "pending", "35.00")
}

func TestToggleSettle_Unwaive(t *testing.T) {
	env, cleanup := setupTestServer(t)
	defer cleanup()
	ctx := context.Background()

	bill := createBill(t, env.client, &CreateBillRequest{
		Items: []ItemInput{{Name: "Survey", UnitPrice: "200", Quantity: "1"}},
	})

	for _, want := range []string{"waived", "pending", "waived"} {
		resp, err := env.client.ToggleSettle(ctx, connect.NewRequest(&ToggleSettleRequest{BillID: bill.ID}))
		if err != nil {
			t.Fatalf("ToggleSettle failed: %v", err)
		}
		assertStatus(t, resp.Msg.Bill, want, "200.00")
	}

	if got := counterValue(t, env.reg, "billkeeper_settle_toggles_total", "result", "waived"); got != 2 {
		t.Errorf("waived toggles = %v, want 2", got)
	}
}

func TestItemEdits(t *testing.T) {
	env, cleanup := setupTestServer(t)
	defer cleanup()
	ctx := context.Background()

	bill := createBill(t, env.client, &CreateBillRequest{
		Items: []ItemInput{
			{Name: "Cabinets", UnitPrice: "300", Quantity: "2"},
			{Name: "Handles", UnitPrice: "4.99", Quantity: "10"},
		},
	})
	handleID := bill.Items[1].ID

	updated, err := env.client.UpdateItem(ctx, connect.NewRequest(&UpdateItemRequest{
		BillID: bill.ID,
		ItemID: handleID,
		Item:   ItemInput{Name: "Brass handles", UnitPrice: "7.25", Quantity: "12"},
	}))
	if err != nil {
		t.Fatalf("UpdateItem failed: %v", err)
	}
	got := updated.Msg.Bill
	if got.Items[1].ID != handleID || got.Items[1].Name != "Brass handles" || got.Items[1].Amount != "87.00" {
		t.Errorf("updated item = %+v", got.Items[1])
	}
	if got.TotalAmount != "687.00" {
		t.Errorf("total = %s, want 687.00", got.TotalAmount)
	}

	removed, err := env.client.RemoveItem(ctx, connect.NewRequest(&RemoveItemRequest{BillID: bill.ID, ItemID: handleID}))
	if err != nil {
		t.Fatalf("RemoveItem failed: %v", err)
	}
	if len(removed.Msg.Bill.Items) != 1 || removed.Msg.Bill.TotalAmount != "600.00" {
		t.Errorf("after remove: %+v", removed.Msg.Bill)
	}

	t.Run("unknown item", func(t *testing.T) {
		_, err := env.client.RemoveItem(ctx, connect.NewRequest(&RemoveItemRequest{BillID: bill.ID, ItemID: "nope"}))
		assertCode(t, err, connect.CodeNotFound)

		_, err = env.client.UpdateItem(ctx, connect.NewRequest(&UpdateItemRequest{
			BillID: bill.ID, ItemID: "nope",
			Item: ItemInput{Name: "X", UnitPrice: "1", Quantity: "1"},
		}))
		assertCode(t, err, connect.CodeNotFound)
	})

	t.Run("invalid replacement leaves bill unchanged", func(t *testing.T) {
		_, err := env.client.UpdateItem(ctx, connect.NewRequest(&UpdateItemRequest{
			BillID: bill.ID, ItemID: bill.Items[0].ID,
			Item: ItemInput{Name: "Cabinets", UnitPrice: "-300", Quantity: "2"},
		}))
		assertCode(t, err, connect.CodeInvalidArgument)

		resp, err := env.client.GetBill(ctx, connect.NewRequest(&GetBillRequest{BillID: bill.ID}))
		if err != nil {
			t.Fatalf("GetBill failed: %v", err)
		}
		if resp.Msg.Bill.TotalAmount != "600.00" {
			t.Errorf("total = %s, want 600.00", resp.Msg.Bill.TotalAmount)
		}
	})

	t.Run("unknown bill", func(t *testing.T) {
		_, err := env.client.AddItem(ctx, connect.NewRequest(&AddItemRequest{
			BillID: "missing",
			Item:   ItemInput{Name: "X", UnitPrice: "1", Quantity: "1"},
		}))
		assertCode(t, err, connect.CodeNotFound)
	})
}

func TestPaymentEdits(t *testing.T) {
	env, cleanup := setupTestServer(t)
	defer cleanup()
	ctx := context.Background()

	today := time.Date(2024, 7, 4, 15, 30, 0, 0, time.UTC)
	now = func() time.Time { return today }
	defer func() { now = time.Now }()

	bill := createBill(t, env.client, &CreateBillRequest{
		Items: []ItemInput{{Name: "Roof", UnitPrice: "1000", Quantity: "1"}},
	})

	added, err := env.client.AddPayment(ctx, connect.NewRequest(&AddPaymentRequest{
		BillID:  bill.ID,
		Payment: PaymentInput{Amount: "400"},
	}))
	if err != nil {
		t.Fatalf("AddPayment failed: %v", err)
	}
	if added.Msg.Bill.Payments[0].PaidOn != "2024-07-04" {
		t.Errorf("paid on = %s, want today", added.Msg.Bill.Payments[0].PaidOn)
	}

	updated, err := env.client.UpdatePayment(ctx, connect.NewRequest(&UpdatePaymentRequest{
		BillID:    bill.ID,
		PaymentID: added.Msg.PaymentID,
		Payment:   PaymentInput{PaidOn: "2024-07-05", Amount: "1,000.00", Note: "paid in full"},
	}))
	if err != nil {
		t.Fatalf("UpdatePayment failed: %v", err)
	}
	assertStatus(t, updated.Msg.Bill, "settled", "")
	if p := updated.Msg.Bill.Payments[0]; p.ID != added.Msg.PaymentID || p.Note != "paid in full" {
		t.Errorf("payment = %+v", p)
	}

	_, err = env.client.RemovePayment(ctx, connect.NewRequest(&RemovePaymentRequest{BillID: bill.ID, PaymentID: "nope"}))
	assertCode(t, err, connect.CodeNotFound)

	_, err = env.client.AddPayment(ctx, connect.NewRequest(&AddPaymentRequest{
		BillID:  bill.ID,
		Payment: PaymentInput{Amount: "NaN"},
	}))
	assertCode(t, err, connect.CodeInvalidArgument)
}

func TestDeleteBill(t *testing.T) {
	env, cleanup := setupTestServer(t)
	defer cleanup()
	ctx := context.Background()

	bill := createBill(t, env.client, &CreateBillRequest{
		Items: []ItemInput{{Name: "Demolition", UnitPrice: "500", Quantity: "1"}},
	})

	if _, err := env.client.DeleteBill(ctx, connect.NewRequest(&DeleteBillRequest{BillID: bill.ID})); err != nil {
		t.Fatalf("DeleteBill failed: %v", err)
	}

	_, err := env.client.GetBill(ctx, connect.NewRequest(&GetBillRequest{BillID: bill.ID}))
	assertCode(t, err, connect.CodeNotFound)

	_, err = env.client.DeleteBill(ctx, connect.NewRequest(&DeleteBillRequest{BillID: bill.ID}))
	assertCode(t, err, connect.CodeNotFound)
}

func TestListBills(t *testing.T) {
	env, cleanup := setupTestServer(t)
	defer cleanup()
	ctx := context.Background()

	createBill(t, env.client, &CreateBillRequest{Client: "Acme", Items: []ItemInput{{Name: "A", UnitPrice: "10", Quantity: "1"}}})
	createBill(t, env.client, &CreateBillRequest{Client: "Globex"})
	createBill(t, env.client, &CreateBillRequest{Client: "Acme"})

	tests := []struct {
		name string
		req  *ListBillsRequest
		want int
	}{
		{"all", &ListBillsRequest{}, 3},
		{"by client", &ListBillsRequest{Client: "Acme"}, 2},
		{"limit", &ListBillsRequest{Limit: 1}, 1},
		{"offset", &ListBillsRequest{Offset: 2}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := env.client.ListBills(ctx, connect.NewRequest(tt.req))
			if err != nil {
				t.Fatalf("ListBills failed: %v", err)
			}
			if len(resp.Msg.Bills) != tt.want {
				t.Errorf("got %d bills, want %d", len(resp.Msg.Bills), tt.want)
			}
		})
	}

	resp, err := env.client.ListBills(ctx, connect.NewRequest(&ListBillsRequest{Client: "Acme"}))
	if err != nil {
		t.Fatalf("ListBills failed: %v", err)
	}
	kinds := map[string]int{}
	for _, b := range resp.Msg.Bills {
		kinds[b.Status.Kind]++
	}
	if kinds["pending"] != 1 || kinds["settled"] != 1 {
		t.Errorf("status kinds = %v, want one pending and one settled", kinds)
	}

	_, err = env.client.ListBills(ctx, connect.NewRequest(&ListBillsRequest{Limit: -1}))
	assertCode(t, err, connect.CodeInvalidArgument)
}

func TestListBillEvents(t *testing.T) {
	env, cleanup := setupTestServer(t)
	defer cleanup()
	ctx := context.Background()

	bill := createBill(t, env.client, &CreateBillRequest{
		Items: []ItemInput{{Name: "Plumbing", UnitPrice: "250", Quantity: "1"}},
	})
	paid, err := env.client.AddPayment(ctx, connect.NewRequest(&AddPaymentRequest{
		BillID: bill.ID, Payment: PaymentInput{Amount: "100"},
	}))
	if err != nil {
		t.Fatalf("AddPayment failed: %v", err)
	}
	if _, err := env.client.ToggleSettle(ctx, connect.NewRequest(&ToggleSettleRequest{BillID: bill.ID})); err != nil {
		t.Fatalf("ToggleSettle failed: %v", err)
	}
	if _, err := env.client.DeleteBill(ctx, connect.NewRequest(&DeleteBillRequest{BillID: bill.ID})); err != nil {
		t.Fatalf("DeleteBill failed: %v", err)
	}

	// Flush the bus so every event has reached the store.
	env.bus.Shutdown()

	resp, err := env.client.ListBillEvents(ctx, connect.NewRequest(&ListBillEventsRequest{BillID: bill.ID}))
	if err != nil {
		t.Fatalf("ListBillEvents failed: %v", err)
	}
	events := resp.Msg.Events
	wantTypes := []string{"bill.added", "payment.added", "bill.updated", "bill.deleted"}
	if len(events) != len(wantTypes) {
		t.Fatalf("got %d events, want %d: %+v", len(events), len(wantTypes), events)
	}
	for i, want := range wantTypes {
		if events[i].Type != want {
			t.Errorf("event %d type = %s, want %s", i, events[i].Type, want)
		}
	}
	if events[1].Detail != paid.Msg.PaymentID || events[1].Status != "pending 150.00" {
		t.Errorf("payment event = %+v", events[1])
	}
	if events[2].Status != "waived 150.00" {
		t.Errorf("toggle event status = %s, want waived 150.00", events[2].Status)
	}

	if got := counterValue(t, env.reg, "billkeeper_bill_events_total", "type", "payment.added"); got != 1 {
		t.Errorf("payment.added events = %v, want 1", got)
	}
}
