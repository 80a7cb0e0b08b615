package security

import "testing"

func TestTypeValid(t *testing.T) {
	if !TypeEquity.Valid() {
		t.Error("expected equity to be valid")
	}
	if Type("crypto").Valid() {
		t.Error("expected crypto to be invalid")
	}
}

func TestExternalIDKey(t *testing.T) {
	id := ExternalID{Source: "bloomberg", IDType: "isin", Value: "US0378331005"}
	if id.Key() != "bloomberg:isin:US0378331005" {
		t.Errorf("unexpected key: %s", id.Key())
	}
}

func TestHasExternalID(t *testing.T) {
	sec := &Security{ExternalIDs: []ExternalID{{Source: "reuters", IDType: "ric", Value: "AAPL.O"}}}
	if !sec.HasExternalID(ExternalID{Source: "reuters", IDType: "ric", Value: "AAPL.O"}) {
		t.Error("expected existing external id to be found")
	}
	if sec.HasExternalID(ExternalID{Source: "reuters", IDType: "ric", Value: "MSFT.O"}) {
		t.Error("expected unrelated external id to be absent")
	}
}

func TestEqualIgnoresProviderVersion(t *testing.T) {
	a := &Security{Type: TypeEquity, Issuer: "Apple", Market: "US", Currency: "USD", Status: StatusActive, ProviderVersion: 1}
	b := &Security{Type: TypeEquity, Issuer: "Apple", Market: "US", Currency: "USD", Status: StatusActive, ProviderVersion: 5}

	if !a.Equal(b) {
		t.Error("expected equal securities despite differing provider version")
	}
}

func TestEqualDetectsDifference(t *testing.T) {
	a := &Security{Type: TypeEquity, Status: StatusActive}
	b := &Security{Type: TypeEquity, Status: StatusSuspended}

	if a.Equal(b) {
		t.Error("expected inequality on status change")
	}
}
