package redaction

import "testing"

func TestRedactStringMasksAPIKey(t *testing.T) {
	r := NewRedactor(DefaultConfig())
	out := r.RedactString(`connecting with api_key=sk_live_abc123`)
	if out == `connecting with api_key=sk_live_abc123` {
		t.Fatal("expected api_key value to be redacted")
	}
}

func TestRedactStringDisabledIsNoop(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = false
	r := NewRedactor(cfg)

	in := `password=hunter2`
	if got := r.RedactString(in); got != in {
		t.Errorf("expected disabled redactor to pass text through unchanged, got %q", got)
	}
}

func TestRedactMapMasksBlockedFieldNames(t *testing.T) {
	r := NewRedactor(DefaultConfig())
	out := r.RedactMap(map[string]interface{}{
		"password": "hunter2",
		"book":     "BOOK1",
	})

	if out["password"] != DefaultConfig().RedactionText {
		t.Errorf("expected password field redacted, got %v", out["password"])
	}
	if out["book"] != "BOOK1" {
		t.Errorf("expected unrelated field untouched, got %v", out["book"])
	}
}

func TestRedactMapRecursesIntoNestedMaps(t *testing.T) {
	r := NewRedactor(DefaultConfig())
	out := r.RedactMap(map[string]interface{}{
		"config": map[string]interface{}{
			"token": "abc123",
		},
	})

	nested := out["config"].(map[string]interface{})
	if nested["token"] != DefaultConfig().RedactionText {
		t.Errorf("expected nested token field redacted, got %v", nested["token"])
	}
}
