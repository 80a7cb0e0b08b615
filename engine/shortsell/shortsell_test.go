package shortsell

import (
	"context"
	"testing"

	"github.com/globalprime/inventory-platform/domain/limit"
	"github.com/globalprime/inventory-platform/engine/limitengine"
)

func mapBookToAU(book, market string) (string, bool) {
	if book == "BOOK1" {
		return "AU1", true
	}
	return "", false
}

func TestValidateRejectsUnmappedBook(t *testing.T) {
	v := New(limitengine.New(), mapBookToAU, "US")
	d := v.Validate(context.Background(), "C1", Order{Book: "UNKNOWN", SecurityID: "SEC1", Side: limit.SideShortSell, Qty: 10})
	if d.Approved || d.Reason != RejectUnmappedBook {
		t.Errorf("expected unmapped rejection, got %+v", d)
	}
}

func TestValidateApprovesWithinBothLimits(t *testing.T) {
	limits := limitengine.New()
	limits.Rebuild(limit.Key{OwnerKind: limit.OwnerClient, OwnerID: "C1", SecurityID: "SEC1"}, 0, 1000)
	limits.Rebuild(limit.Key{OwnerKind: limit.OwnerAU, OwnerID: "AU1", SecurityID: "SEC1"}, 0, 1000)

	v := New(limits, mapBookToAU, "US")
	d := v.Validate(context.Background(), "C1", Order{Book: "BOOK1", SecurityID: "SEC1", Side: limit.SideShortSell, Qty: 100})
	if !d.Approved {
		t.Fatalf("expected approval, got reason %s", d.Reason)
	}
	if d.ClientReservationID == "" || d.AUReservationID == "" {
		t.Error("expected both reservation ids populated")
	}
}

func TestValidateReleasesClientReservationOnAURejection(t *testing.T) {
	limits := limitengine.New()
	limits.Rebuild(limit.Key{OwnerKind: limit.OwnerClient, OwnerID: "C1", SecurityID: "SEC1"}, 0, 1000)
	limits.Rebuild(limit.Key{OwnerKind: limit.OwnerAU, OwnerID: "AU1", SecurityID: "SEC1"}, 0, 10)

	v := New(limits, mapBookToAU, "US")
	d := v.Validate(context.Background(), "C1", Order{Book: "BOOK1", SecurityID: "SEC1", Side: limit.SideShortSell, Qty: 100})
	if d.Approved {
		t.Fatal("expected rejection due to AU headroom")
	}
	if d.Reason != RejectAUHeadroom {
		t.Errorf("expected RejectAUHeadroom, got %s", d.Reason)
	}

	clientRec, _ := limits.Get(limit.Key{OwnerKind: limit.OwnerClient, OwnerID: "C1", SecurityID: "SEC1"})
	if clientRec.ReservedShort != 0 {
		t.Errorf("expected client reservation released after AU rejection, got %d", clientRec.ReservedShort)
	}
}

func TestCancelReleasesBothReservations(t *testing.T) {
	limits := limitengine.New()
	limits.Rebuild(limit.Key{OwnerKind: limit.OwnerClient, OwnerID: "C1", SecurityID: "SEC1"}, 0, 1000)
	limits.Rebuild(limit.Key{OwnerKind: limit.OwnerAU, OwnerID: "AU1", SecurityID: "SEC1"}, 0, 1000)

	v := New(limits, mapBookToAU, "US")
	d := v.Validate(context.Background(), "C1", Order{Book: "BOOK1", SecurityID: "SEC1", Side: limit.SideShortSell, Qty: 100})
	if !d.Approved {
		t.Fatalf("expected approval, got %+v", d)
	}

	if err := v.Cancel(d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	clientRec, _ := limits.Get(limit.Key{OwnerKind: limit.OwnerClient, OwnerID: "C1", SecurityID: "SEC1"})
	if clientRec.ReservedShort != 0 {
		t.Errorf("expected client reservation released on cancel, got %d", clientRec.ReservedShort)
	}
}

func TestCancelRejectsUnapprovedDecision(t *testing.T) {
	v := New(limitengine.New(), mapBookToAU, "US")
	if err := v.Cancel(Decision{Approved: false}); err == nil {
		t.Error("expected error canceling an unapproved decision")
	}
}
