package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mmynk/billkeeper/internal/metrics"
	"github.com/mmynk/billkeeper/internal/service"
	"github.com/mmynk/billkeeper/internal/storage/sqlite"
)

func setupRouter(t *testing.T) *httptest.Server {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "bills.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	reg := prometheus.NewRegistry()
	svc := service.NewBillService(store, service.WithMetrics(metrics.New(reg)))
	server := httptest.NewServer(newRouter(svc, reg, "https://bills.example.com"))
	t.Cleanup(server.Close)
	return server
}

func TestHealthz(t *testing.T) {
	server := setupRouter(t)

	resp, err := http.Get(server.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Errorf("healthz = %d %q", resp.StatusCode, body)
	}
}

func TestRouterServesBillService(t *testing.T) {
	server := setupRouter(t)
	client := service.NewBillServiceClient(http.DefaultClient, server.URL)

	created, err := client.CreateBill(context.Background(), connect.NewRequest(&service.CreateBillRequest{
		Items: []service.ItemInput{{Name: "Drywall", UnitPrice: "12.00", Quantity: "30"}},
	}))
	if err != nil {
		t.Fatalf("CreateBill: %v", err)
	}
	if created.Msg.Bill.TotalAmount != "360.00" {
		t.Errorf("total = %s, want 360.00", created.Msg.Bill.TotalAmount)
	}

	resp, err := http.Get(server.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `billkeeper_ledger_operations_total{op="create_bill",result="ok"} 1`) {
		t.Errorf("metrics output missing create_bill counter:\n%s", body)
	}
}

func TestCORSPreflight(t *testing.T) {
	server := setupRouter(t)

	req, _ := http.NewRequest(http.MethodOptions, server.URL+service.BillServiceGetBillProcedure, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://bills.example.com" {
		t.Errorf("Allow-Origin = %q", got)
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_PATH", "")
	t.Setenv("EVENT_BUFFER", "not-a-number")
	t.Setenv("CORS_ORIGIN", "")

	cfg := loadConfig()
	if cfg.port != "9090" {
		t.Errorf("port = %s, want 9090", cfg.port)
	}
	if cfg.dbPath != "./data/bills.db" {
		t.Errorf("dbPath = %s", cfg.dbPath)
	}
	if cfg.eventBuffer != 100 {
		t.Errorf("eventBuffer = %d, want default 100", cfg.eventBuffer)
	}
	if cfg.corsOrigin != "*" {
		t.Errorf("corsOrigin = %s, want *", cfg.corsOrigin)
	}

	t.Setenv("EVENT_BUFFER", "512")
	if got := loadConfig().eventBuffer; got != 512 {
		t.Errorf("eventBuffer = %d, want 512", got)
	}
}
