package availability

import "testing"

func TestTypeValid(t *testing.T) {
	if !TypeFirm.Valid() {
		t.Error("expected firm to be valid")
	}
	if Type("tentative").Valid() {
		t.Error("expected tentative to be invalid")
	}
}

func TestExclusive(t *testing.T) {
	a := Availability{Type: TypeExclusive}
	if !a.Exclusive() {
		t.Error("expected exclusive type to report Exclusive() true")
	}
	a.Type = TypeFirm
	if a.Exclusive() {
		t.Error("expected firm type to report Exclusive() false")
	}
}
