package database

import "testing"

func TestValidateISIN(t *testing.T) {
	tests := []struct {
		name    string
		isin    string
		wantErr bool
	}{
		{"valid apple isin", "US0378331005", false},
		{"valid exxon isin", "US30231G1022", false},
		{"empty", "", true},
		{"too short", "US123", true},
		{"lowercase", "us0378331005", true},
		{"missing check digit", "US037833100", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateISIN(tt.isin)
			if tt.wantErr && err == nil {
				t.Errorf("expected error for isin %q", tt.isin)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error for isin %q: %v", tt.isin, err)
			}
		})
	}
}

func TestValidateID(t *testing.T) {
	if err := ValidateID(""); err == nil {
		t.Error("expected error for empty id")
	}
	if err := ValidateID("acct-001"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateID("550e8400-e29b-41d4-a716-446655440000"); err != nil {
		t.Errorf("unexpected error for uuid: %v", err)
	}
}

func TestValidateLimitAndOffset(t *testing.T) {
	if got := ValidateLimit(0, 50, 1000); got != 50 {
		t.Errorf("expected default 50, got %d", got)
	}
	if got := ValidateLimit(5000, 50, 1000); got != 1000 {
		t.Errorf("expected cap 1000, got %d", got)
	}
	if got := ValidateOffset(-5); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(10, 20)
	if p.Limit != 10 || p.Offset != 20 {
		t.Errorf("unexpected pagination: %+v", p)
	}
	if p.ToQuery() != "limit=10&offset=20" {
		t.Errorf("unexpected query: %s", p.ToQuery())
	}
}

func TestNewNotFoundError(t *testing.T) {
	err := NewNotFoundError("locate_request", "req-123")
	if !IsNotFound(err) {
		t.Errorf("expected IsNotFound true")
	}
	if err.Error() != "locate_request with id 'req-123' not found" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}
