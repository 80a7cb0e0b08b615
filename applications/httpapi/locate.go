package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/globalprime/inventory-platform/domain/locate"
)

type submitLocateRequest struct {
	ClientID     string `json:"client_id"`
	SecurityID   string `json:"security_id"`
	RequestedQty int64  `json:"requested_qty"`
	BusinessDate string `json:"business_date"` // YYYY-MM-DD
	TTLHours     int    `json:"ttl_hours"`
}

// submitLocate creates a locate request in the received state and saves it
// through the caller-supplied repository. Nothing in this package moves the
// request past received.
func (h *Handler) submitLocate(w http.ResponseWriter, r *http.Request) {
	var body submitLocateRequest
	if err := decodeJSON(r.Body, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if body.ClientID == "" || body.SecurityID == "" || body.RequestedQty <= 0 {
		writeError(w, http.StatusBadRequest, errInvalid("locate request"))
		return
	}

	businessDate, err := time.Parse("2006-01-02", body.BusinessDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, errInvalid("business_date"))
		return
	}

	ttl := time.Duration(body.TTLHours) * time.Hour
	if ttl <= 0 {
		// Default TTL is end of the business date (§4.6 "Expiry").
		ttl = businessDate.AddDate(0, 0, 1).Sub(clockNow())
	}

	req := &locate.Request{
		ID:           h.Locates.NextID(),
		ClientID:     body.ClientID,
		SecurityID:   body.SecurityID,
		RequestedQty: body.RequestedQty,
		BusinessDate: businessDate,
		State:        locate.StateReceived,
		CreatedAt:    clockNow(),
		ExpiresAt:    clockNow().Add(ttl),
	}
	if err := h.Locates.Save(req); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (h *Handler) getLocate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	req, ok := h.Locates.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, errNotFound("locate request"))
		return
	}
	writeJSON(w, http.StatusOK, req)
}
