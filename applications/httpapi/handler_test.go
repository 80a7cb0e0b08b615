package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/globalprime/inventory-platform/domain/limit"
	"github.com/globalprime/inventory-platform/domain/position"
	"github.com/globalprime/inventory-platform/engine/inventory"
	"github.com/globalprime/inventory-platform/engine/limitengine"
	"github.com/globalprime/inventory-platform/engine/positionengine"
	"github.com/globalprime/inventory-platform/infrastructure/hotlog"
)

func testHandler() *Handler {
	log := hotlog.New("httpapi-test", io.Discard)
	positions := positionengine.New(time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC), nil)
	inv := inventory.New()
	limits := limitengine.New()
	locates := NewMemoryLocateRepository()
	return NewHandler(positions, inv, limits, locates, nil, nil, log)
}

func doRequest(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthzReturnsOK(t *testing.T) {
	h := testHandler()
	router := NewRouter(h)
	rec := doRequest(t, router, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestStatsReportsTrackedCounts(t *testing.T) {
	h := testHandler()
	if err := h.Positions.Trade("SEC1", "BOOK1", position.SideBuy, 100, time.Now(), time.Now()); err != nil {
		t.Fatalf("unexpected trade error: %v", err)
	}

	router := NewRouter(h)
	rec := doRequest(t, router, http.MethodGet, "/stats", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal stats: %v", err)
	}
	if body["tracked_securities"].(float64) != 1 {
		t.Errorf("expected tracked_securities == 1, got %v", body["tracked_securities"])
	}
	if _, ok := body["uptime_seconds"]; !ok {
		t.Error("expected uptime_seconds in stats response")
	}
}

func TestGetPositionNotFound(t *testing.T) {
	h := testHandler()
	router := NewRouter(h)
	rec := doRequest(t, router, http.MethodGet, "/positions/SEC1/BOOK1", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestGetPositionReturnsExistingPosition(t *testing.T) {
	h := testHandler()
	if err := h.Positions.Trade("SEC1", "BOOK1", position.SideBuy, 100, time.Now(), time.Now().AddDate(0, 0, 1)); err != nil {
		t.Fatalf("unexpected trade error: %v", err)
	}

	router := NewRouter(h)
	rec := doRequest(t, router, http.MethodGet, "/positions/SEC1/BOOK1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var pos position.Position
	if err := json.Unmarshal(rec.Body.Bytes(), &pos); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if pos.ContractualQty != 100 {
		t.Errorf("expected contractual qty 100, got %d", pos.ContractualQty)
	}
}

func TestGetLimitRejectsInvalidOwnerKind(t *testing.T) {
	h := testHandler()
	router := NewRouter(h)
	rec := doRequest(t, router, http.MethodGet, "/limits/bogus/C1/SEC1", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetLimitReturnsExistingLimit(t *testing.T) {
	h := testHandler()
	h.Limits.Rebuild(limit.Key{OwnerKind: limit.OwnerClient, OwnerID: "C1", SecurityID: "SEC1"}, 100, 200)

	router := NewRouter(h)
	rec := doRequest(t, router, http.MethodGet, "/limits/client/C1/SEC1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestSubmitLocateCreatesRequest(t *testing.T) {
	h := testHandler()
	router := NewRouter(h)

	body := submitLocateRequest{ClientID: "C1", SecurityID: "SEC1", RequestedQty: 500, BusinessDate: "2026-07-31"}
	rec := doRequest(t, router, http.MethodPost, "/locates/", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSubmitLocateRejectsMissingFields(t *testing.T) {
	h := testHandler()
	router := NewRouter(h)

	rec := doRequest(t, router, http.MethodPost, "/locates/", submitLocateRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetLocateNotFound(t *testing.T) {
	h := testHandler()
	router := NewRouter(h)
	rec := doRequest(t, router, http.MethodGet, "/locates/nonexistent", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestValidateShortSellUnconfiguredReturnsServiceUnavailable(t *testing.T) {
	h := testHandler()
	router := NewRouter(h)

	body := validateShortSellRequest{ClientID: "C1", SecurityID: "SEC1", Book: "BOOK1", Qty: 100}
	rec := doRequest(t, router, http.MethodPost, "/shortsell/validate", body)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
