package limit

import "testing"

func TestKeyString(t *testing.T) {
	k := Key{OwnerKind: OwnerClient, OwnerID: "C1", SecurityID: "SEC1"}
	if k.String() == "" {
		t.Error("expected non-empty key string")
	}
}

func TestHeadroom(t *testing.T) {
	l := &Limit{ShortSellLimit: 100, ReservedShort: 40}
	if got := l.Headroom(SideShortSell); got != 60 {
		t.Errorf("expected headroom 60, got %d", got)
	}
}

func TestReserveSucceedsWithinHeadroom(t *testing.T) {
	l := &Limit{ShortSellLimit: 100}
	if !l.Reserve(SideShortSell, 60) {
		t.Fatal("expected reservation to succeed")
	}
	if l.ReservedShort != 60 {
		t.Errorf("expected reserved short 60, got %d", l.ReservedShort)
	}
}

func TestReserveFailsBeyondHeadroom(t *testing.T) {
	l := &Limit{ShortSellLimit: 100, ReservedShort: 90}
	if l.Reserve(SideShortSell, 20) {
		t.Error("expected reservation to fail beyond headroom")
	}
	if l.ReservedShort != 90 {
		t.Error("expected no mutation on failed reservation")
	}
}

func TestReserveRejectsNegativeQty(t *testing.T) {
	l := &Limit{ShortSellLimit: 100}
	if l.Reserve(SideShortSell, -5) {
		t.Error("expected reservation of negative qty to fail")
	}
}

func TestReleaseFloorsAtZero(t *testing.T) {
	l := &Limit{ShortSellLimit: 100, ReservedShort: 10}
	l.Release(SideShortSell, 50)
	if l.ReservedShort != 0 {
		t.Errorf("expected reserved short floored at 0, got %d", l.ReservedShort)
	}
}

func TestCommitReducesReservationNotLimit(t *testing.T) {
	l := &Limit{ShortSellLimit: 100, ReservedShort: 50}
	l.Commit(SideShortSell, 50)
	if l.ReservedShort != 0 {
		t.Errorf("expected reservation cleared, got %d", l.ReservedShort)
	}
	if l.ShortSellLimit != 100 {
		t.Errorf("expected limit unchanged, got %d", l.ShortSellLimit)
	}
}
