package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/globalprime/inventory-platform/domain/limit"
	"github.com/globalprime/inventory-platform/domain/locate"
	"github.com/globalprime/inventory-platform/engine/inventory"
	"github.com/globalprime/inventory-platform/engine/limitengine"
	"github.com/globalprime/inventory-platform/engine/positionengine"
	"github.com/globalprime/inventory-platform/engine/shortsell"
	"github.com/globalprime/inventory-platform/infrastructure/cache"
	"github.com/globalprime/inventory-platform/infrastructure/hotlog"
	"github.com/globalprime/inventory-platform/infrastructure/service"
)

// inventorySnapshotTTL bounds how stale a served inventory snapshot may be.
// getInventory is the highest-fanout endpoint on this surface (polled by
// every desk's blotter), so a short-lived cache absorbs repeat reads of
// the same (market, security) cell between engine recomputes without the
// client ever seeing data older than this window.
const inventorySnapshotTTL = 2 * time.Second

// Handler bundles the engine references the HTTP surface queries and
// mutates. All fields are required except Shortsell and Hub: Shortsell is
// nil until the validator is wired for a given book-to-AU mapping, and Hub
// is nil when no delta stream is configured (streamDeltas then answers 503).
type Handler struct {
	Positions *positionengine.Engine
	Inventory *inventory.Engine
	Limits    *limitengine.Engine
	Locates   LocateRepository
	Shortsell *shortsell.Validator
	Hub       *DeltaHub

	health      *service.DeepHealthChecker
	startedAt   time.Time
	log         hotlog.Logger
	invSnapshot *cache.SnapshotCache
}

// LocateRepository persists and retrieves locate requests by ID.
type LocateRepository interface {
	Save(req *locate.Request) error
	Get(id string) (*locate.Request, bool)
	NextID() string
}

// NewHandler builds a Handler. log is the structured request/response
// logger shared with the router's logging middleware.
func NewHandler(positions *positionengine.Engine, inv *inventory.Engine, limits *limitengine.Engine, locates LocateRepository, validator *shortsell.Validator, hub *DeltaHub, log hotlog.Logger) *Handler {
	h := &Handler{
		Positions:   positions,
		Inventory:   inv,
		Limits:      limits,
		Locates:     locates,
		Shortsell:   validator,
		Hub:         hub,
		health:      service.NewDeepHealthChecker(2 * time.Second),
		startedAt:   time.Now(),
		log:         log,
		invSnapshot: cache.NewSnapshotCache(cache.CacheConfig{DefaultTTL: inventorySnapshotTTL}),
	}

	h.health.Register("positions", engineLiveness("positions", func() bool { return h.Positions != nil }))
	h.health.Register("inventory", engineLiveness("inventory", func() bool { return h.Inventory != nil }))
	h.health.Register("limits", engineLiveness("limits", func() bool { return h.Limits != nil }))
	h.health.Register("locates", engineLiveness("locates", func() bool { return h.Locates != nil }))

	return h
}

// engineLiveness adapts a simple non-nil check into the component-health
// shape the deep health checker aggregates across all registered parts.
func engineLiveness(name string, alive func() bool) service.HealthCheckFunc {
	return func(ctx context.Context) *service.ComponentHealth {
		status := "healthy"
		if !alive() {
			status = "unhealthy"
		}
		return &service.ComponentHealth{Name: name, Status: status, CheckedAt: time.Now()}
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func (h *Handler) getPosition(w http.ResponseWriter, r *http.Request) {
	security := chi.URLParam(r, "security")
	book := chi.URLParam(r, "book")

	pos, ok := h.Positions.Get(security, book)
	if !ok {
		writeError(w, http.StatusNotFound, errNotFound("position"))
		return
	}
	writeJSON(w, http.StatusOK, pos)
}

func (h *Handler) listPositionsBySecurity(w http.ResponseWriter, r *http.Request) {
	security := chi.URLParam(r, "security")
	writeJSON(w, http.StatusOK, h.Positions.BySecurity(security))
}

func (h *Handler) getInventory(w http.ResponseWriter, r *http.Request) {
	market := chi.URLParam(r, "market")
	security := chi.URLParam(r, "security")
	cacheKey := market + "|" + security

	if cached, ok := h.invSnapshot.Get(cacheKey); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	key := inventory.Key{SecurityID: security, Market: market}
	snap := h.Inventory.Get(key)
	h.invSnapshot.Set(cacheKey, snap, inventorySnapshotTTL)
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) getLimit(w http.ResponseWriter, r *http.Request) {
	ownerKind := limit.OwnerKind(chi.URLParam(r, "ownerKind"))
	if !ownerKind.Valid() {
		writeError(w, http.StatusBadRequest, errInvalid("ownerKind"))
		return
	}
	ownerID := chi.URLParam(r, "ownerID")
	security := chi.URLParam(r, "security")

	rec, ok := h.Limits.Get(limit.Key{OwnerKind: ownerKind, OwnerID: ownerID, SecurityID: security})
	if !ok {
		writeError(w, http.StatusNotFound, errNotFound("limit"))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func parseLimitParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errInvalid("limit")
	}
	return n, nil
}

func errNotFound(resource string) error  { return &apiError{msg: resource + " not found"} }
func errInvalid(field string) error      { return &apiError{msg: "invalid " + field} }

type apiError struct{ msg string }

func (e *apiError) Error() string { return e.msg }

// clockNow is overridable in tests.
var clockNow = time.Now
