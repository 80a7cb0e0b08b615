package hotlog

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestLoggerEventApplied(t *testing.T) {
	var buf bytes.Buffer
	l := New("position-engine", &buf)
	l = l.ForPartition("SEC1")
	l.Logger = l.Logger.Level(-1) // debug
	l.EventApplied("trade", "evt-1", 42)

	out := buf.String()
	if !strings.Contains(out, "SEC1") || !strings.Contains(out, "evt-1") {
		t.Errorf("expected output to contain partition key and event id, got %q", out)
	}
}

func TestLoggerInvariantViolation(t *testing.T) {
	var buf bytes.Buffer
	l := New("position-engine", &buf)
	l.InvariantViolation("non-negative-ladder-bucket", errors.New("bucket went negative"))

	out := buf.String()
	if !strings.Contains(out, "non-negative-ladder-bucket") {
		t.Errorf("expected output to contain invariant name, got %q", out)
	}
}
