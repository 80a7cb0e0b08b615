package errors

import (
	"errors"
	"net/http"
	"testing"
)

func TestServiceError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ServiceError
		want string
	}{
		{
			name: "error without underlying error",
			err:  New(ErrCodeInvalidInput, "test message", http.StatusBadRequest),
			want: "[VAL_3001] test message",
		},
		{
			name: "error with underlying error",
			err:  Wrap(ErrCodeInternal, "test message", http.StatusInternalServerError, errors.New("underlying")),
			want: "[SVC_9001] test message: underlying",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestServiceError_Unwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	err := Wrap(ErrCodeInternal, "test", http.StatusInternalServerError, underlying)

	if got := err.Unwrap(); got != underlying {
		t.Errorf("Unwrap() = %v, want %v", got, underlying)
	}
}

func TestServiceError_WithDetails(t *testing.T) {
	err := New(ErrCodeInvalidInput, "test", http.StatusBadRequest)
	err.WithDetails("field", "security_id").WithDetails("reason", "unresolved")

	if len(err.Details) != 2 {
		t.Errorf("Details length = %d, want 2", len(err.Details))
	}
	if err.Details["field"] != "security_id" {
		t.Errorf("Details[field] = %v, want security_id", err.Details["field"])
	}
}

func TestServiceError_WithCorrelationID(t *testing.T) {
	err := New(ErrCodeInternal, "test", http.StatusInternalServerError).WithCorrelationID("corr-1")
	if err.CorrelationID != "corr-1" {
		t.Errorf("CorrelationID = %v, want corr-1", err.CorrelationID)
	}
}

func TestIsBusinessRejection(t *testing.T) {
	cases := []struct {
		err  *ServiceError
		want bool
	}{
		{InsufficientInventory("SEC1", 100, 50), true},
		{InsufficientLimit("client:SEC1", "short", 100, 50), true},
		{UnmappedBook("B1"), true},
		{UnknownReservation("res-1"), true},
		{StaleVersion("security", 2, 1), true},
		{InvalidInput("field", "reason"), false},
		{Internal("boom", nil), false},
	}
	for _, c := range cases {
		if got := c.err.IsBusinessRejection(); got != c.want {
			t.Errorf("IsBusinessRejection(%s) = %v, want %v", c.err.Code, got, c.want)
		}
	}
}

func TestInsufficientInventory(t *testing.T) {
	err := InsufficientInventory("SEC1", 1000, 400)
	if err.Code != ErrCodeInsufficientInventory {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInsufficientInventory)
	}
	if err.Details["requested"] != int64(1000) || err.Details["available"] != int64(400) {
		t.Errorf("unexpected details: %+v", err.Details)
	}
}

func TestInsufficientLimit(t *testing.T) {
	err := InsufficientLimit("AU:SEC1", "short", 400, 200)
	if err.Code != ErrCodeInsufficientLimit {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInsufficientLimit)
	}
}

func TestUnmappedBook(t *testing.T) {
	err := UnmappedBook("B1")
	if err.Code != ErrCodeUnmappedBook {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeUnmappedBook)
	}
}

func TestUnknownReservation(t *testing.T) {
	err := UnknownReservation("res-42")
	if err.Code != ErrCodeUnknownReservation {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeUnknownReservation)
	}
}

func TestStaleVersion(t *testing.T) {
	err := StaleVersion("security", 5, 3)
	if err.HTTPStatus != http.StatusConflict {
		t.Errorf("HTTPStatus = %d, want %d", err.HTTPStatus, http.StatusConflict)
	}
}

func TestNotFoundAlreadyExistsConflict(t *testing.T) {
	nf := NotFound("position", "B1:SEC1")
	if nf.HTTPStatus != http.StatusNotFound {
		t.Errorf("NotFound HTTPStatus = %d, want %d", nf.HTTPStatus, http.StatusNotFound)
	}
	ae := AlreadyExists("locate", "loc-1")
	if ae.HTTPStatus != http.StatusConflict {
		t.Errorf("AlreadyExists HTTPStatus = %d, want %d", ae.HTTPStatus, http.StatusConflict)
	}
	c := Conflict("duplicate rule version")
	if c.HTTPStatus != http.StatusConflict {
		t.Errorf("Conflict HTTPStatus = %d, want %d", c.HTTPStatus, http.StatusConflict)
	}
}

func TestDependencyTimeoutOverloadCircuit(t *testing.T) {
	underlying := errors.New("dial tcp: i/o timeout")
	dt := DependencyTimeout("postgres.write", underlying)
	if dt.Code != ErrCodeDependencyTimeout {
		t.Errorf("Code = %v, want %v", dt.Code, ErrCodeDependencyTimeout)
	}
	ov := DependencyOverloaded("market.price")
	if ov.HTTPStatus != http.StatusServiceUnavailable {
		t.Errorf("HTTPStatus = %d, want %d", ov.HTTPStatus, http.StatusServiceUnavailable)
	}
	co := CircuitOpen("redis")
	if co.Code != ErrCodeCircuitOpen {
		t.Errorf("Code = %v, want %v", co.Code, ErrCodeCircuitOpen)
	}
}

func TestInvariantViolationAndEngineHalted(t *testing.T) {
	err := InvariantViolation("non-negative-ladder-bucket", "SEC1", errors.New("bucket went negative"))
	if err.Code != ErrCodeInvariantViolation {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvariantViolation)
	}
	halted := EngineHalted("SEC1")
	if halted.Code != ErrCodeEngineHalted {
		t.Errorf("Code = %v, want %v", halted.Code, ErrCodeEngineHalted)
	}
}

func TestShortSellTimeoutAndLocateRuleRoute(t *testing.T) {
	to := ShortSellTimeout("ord-1", "151ms")
	if to.Code != ErrCodeShortSellTimeout {
		t.Errorf("Code = %v, want %v", to.Code, ErrCodeShortSellTimeout)
	}
	route := LocateRuleRouteToReview("loc-1")
	if route.Code != ErrCodeLocateRuleRoute {
		t.Errorf("Code = %v, want %v", route.Code, ErrCodeLocateRuleRoute)
	}
}

func TestIsServiceErrorGetServiceErrorGetHTTPStatus(t *testing.T) {
	svcErr := InvalidInput("field", "reason")
	wrapped := Internal("outer failure", svcErr)

	if !IsServiceError(wrapped) {
		t.Error("expected wrapped error to be detected as a ServiceError")
	}
	if got := GetServiceError(wrapped); got == nil || got.Code != ErrCodeInternal {
		t.Errorf("GetServiceError returned wrong error: %+v", got)
	}
	if status := GetHTTPStatus(svcErr); status != http.StatusBadRequest {
		t.Errorf("GetHTTPStatus = %d, want %d", status, http.StatusBadRequest)
	}
	if status := GetHTTPStatus(errors.New("plain")); status != http.StatusInternalServerError {
		t.Errorf("GetHTTPStatus for plain error = %d, want %d", status, http.StatusInternalServerError)
	}
}
