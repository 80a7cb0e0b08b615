package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/globalprime/inventory-platform/domain/limit"
	"github.com/globalprime/inventory-platform/engine/shortsell"
)

type validateShortSellRequest struct {
	ClientID   string `json:"client_id"`
	OrderID    string `json:"order_id"`
	SecurityID string `json:"security_id"`
	Book       string `json:"book"`
	Qty        int64  `json:"qty"`
}

// validateShortSell runs the two-stage client/AU reservation check under
// the 150ms budget (§4.7), returning a rejection rather than an HTTP error
// for any business-level rejection reason.
func (h *Handler) validateShortSell(w http.ResponseWriter, r *http.Request) {
	if h.Shortsell == nil {
		writeError(w, http.StatusServiceUnavailable, errInvalid("short-sell validator not configured"))
		return
	}

	var body validateShortSellRequest
	if err := decodeJSON(r.Body, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if body.ClientID == "" || body.SecurityID == "" || body.Book == "" || body.Qty <= 0 {
		writeError(w, http.StatusBadRequest, errInvalid("validate request"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), shortsell.Budget)
	defer cancel()

	order := shortsell.Order{
		OrderID:    body.OrderID,
		SecurityID: body.SecurityID,
		Book:       body.Book,
		Side:       limit.SideShortSell,
		Qty:        body.Qty,
	}
	decision := h.Shortsell.Validate(ctx, body.ClientID, order)
	writeJSON(w, http.StatusOK, decision)
}

type cancelShortSellRequest struct {
	Approved             bool   `json:"approved"`
	ClientReservationID  string `json:"client_reservation_id"`
	AUReservationID      string `json:"au_reservation_id"`
}

func (h *Handler) cancelShortSell(w http.ResponseWriter, r *http.Request) {
	if h.Shortsell == nil {
		writeError(w, http.StatusServiceUnavailable, errInvalid("short-sell validator not configured"))
		return
	}

	var body cancelShortSellRequest
	if err := decodeJSON(r.Body, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	decision := shortsell.Decision{
		Approved:             body.Approved,
		ClientReservationID:  body.ClientReservationID,
		AUReservationID:      body.AUReservationID,
	}
	if err := h.Shortsell.Cancel(decision); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "canceled", "at": time.Now().UTC().Format(time.RFC3339)})
}
