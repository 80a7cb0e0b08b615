package aggregationunit

import "testing"

func TestKey(t *testing.T) {
	au := AggregationUnit{Market: "US", Name: "AU-1"}
	if au.Key() != "US:AU-1" {
		t.Errorf("unexpected key: %s", au.Key())
	}
}

func TestTypeValid(t *testing.T) {
	if !TypeLong.Valid() {
		t.Error("expected long to be valid")
	}
	if Type("hedge").Valid() {
		t.Error("expected hedge to be invalid")
	}
}
