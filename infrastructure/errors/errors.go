// Package errors provides unified structured error handling for the
// inventory platform, matching the error-kind taxonomy of the system design:
// validation, business-rule rejection, transient dependency, engine
// invariant violation, and SLA timeout.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code.
type ErrorCode string

const (
	// Validation errors (3xxx) — schema, missing fields, unresolved identifier.
	// Never retried automatically.
	ErrCodeInvalidInput     ErrorCode = "VAL_3001"
	ErrCodeMissingParameter ErrorCode = "VAL_3002"
	ErrCodeInvalidFormat    ErrorCode = "VAL_3003"
	ErrCodeOutOfRange       ErrorCode = "VAL_3004"
	ErrCodeUnresolvedID     ErrorCode = "VAL_3005"
	ErrCodeStaleVersion     ErrorCode = "VAL_3006"

	// Resource errors (4xxx)
	ErrCodeNotFound      ErrorCode = "RES_4001"
	ErrCodeAlreadyExists ErrorCode = "RES_4002"
	ErrCodeConflict      ErrorCode = "RES_4003"

	// Business-rule rejection (5xxx) — first-class outcomes, not faults.
	// Logged at info level with the decision reason, never as an error.
	ErrCodeInsufficientInventory ErrorCode = "BIZ_5001"
	ErrCodeInsufficientLimit     ErrorCode = "BIZ_5002"
	ErrCodeUnmappedBook          ErrorCode = "BIZ_5003"
	ErrCodeUnknownReservation    ErrorCode = "BIZ_5004"

	// Transient dependency errors (6xxx) — persistence timeout, fabric
	// overload. Eligible for backoff/retry; capped retries open a circuit.
	ErrCodeDependencyTimeout  ErrorCode = "DEP_6001"
	ErrCodeDependencyOverload ErrorCode = "DEP_6002"
	ErrCodeCircuitOpen        ErrorCode = "DEP_6003"

	// Engine invariant violation (7xxx) — halts the affected partition.
	ErrCodeInvariantViolation ErrorCode = "ENG_7001"
	ErrCodeEngineHalted       ErrorCode = "ENG_7002"

	// SLA boundary timeouts (8xxx)
	ErrCodeShortSellTimeout ErrorCode = "TIMEOUT_8001"
	ErrCodeLocateRuleRoute  ErrorCode = "TIMEOUT_8002"

	// Internal/unclassified (9xxx)
	ErrCodeInternal ErrorCode = "SVC_9001"
)

// ServiceError represents a structured error with code, message, HTTP
// status, and machine-readable details. Every outcome returned across a
// request/response surface (locate submission, short-sell validation)
// carries a ServiceError and the triggering correlation-id.
type ServiceError struct {
	Code          ErrorCode              `json:"code"`
	Message       string                 `json:"message"`
	HTTPStatus    int                    `json:"-"`
	Details       map[string]interface{} `json:"details,omitempty"`
	CorrelationID string                 `json:"correlation_id,omitempty"`
	Err           error                  `json:"-"`
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// WithDetails adds additional details to the error.
func (e *ServiceError) WithDetails(key string, value interface{}) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithCorrelationID stamps the error with the triggering request's
// correlation-id so it can be traced across asynchronous boundaries.
func (e *ServiceError) WithCorrelationID(id string) *ServiceError {
	e.CorrelationID = id
	return e
}

// IsBusinessRejection reports whether the error is a first-class business
// outcome (insufficient inventory/limit, stale version, unmapped book)
// rather than a fault — callers should log these at info, not error, level.
func (e *ServiceError) IsBusinessRejection() bool {
	switch e.Code {
	case ErrCodeInsufficientInventory, ErrCodeInsufficientLimit, ErrCodeUnmappedBook,
		ErrCodeUnknownReservation, ErrCodeStaleVersion:
		return true
	default:
		return false
	}
}

func New(code ErrorCode, message string, httpStatus int) *ServiceError {
	return &ServiceError{Code: code, Message: message, HTTPStatus: httpStatus}
}

func Wrap(code ErrorCode, message string, httpStatus int, err error) *ServiceError {
	return &ServiceError{Code: code, Message: message, HTTPStatus: httpStatus, Err: err}
}

// Validation errors

func InvalidInput(field, reason string) *ServiceError {
	return New(ErrCodeInvalidInput, "invalid input", http.StatusBadRequest).
		WithDetails("field", field).WithDetails("reason", reason)
}

func MissingParameter(param string) *ServiceError {
	return New(ErrCodeMissingParameter, "missing required parameter", http.StatusBadRequest).
		WithDetails("parameter", param)
}

func InvalidFormat(field, expected string) *ServiceError {
	return New(ErrCodeInvalidFormat, "invalid format", http.StatusBadRequest).
		WithDetails("field", field).WithDetails("expected", expected)
}

func OutOfRange(field string, minValue, maxValue interface{}) *ServiceError {
	return New(ErrCodeOutOfRange, "value out of range", http.StatusBadRequest).
		WithDetails("field", field).WithDetails("min", minValue).WithDetails("max", maxValue)
}

func UnresolvedIdentifier(source, idType, value string) *ServiceError {
	return New(ErrCodeUnresolvedID, "identifier did not resolve to an internal id", http.StatusUnprocessableEntity).
		WithDetails("source", source).WithDetails("id_type", idType).WithDetails("value", value)
}

func StaleVersion(entity string, current, incoming int64) *ServiceError {
	return New(ErrCodeStaleVersion, "rejected: incoming version is not newer than current", http.StatusConflict).
		WithDetails("entity", entity).WithDetails("current_version", current).WithDetails("incoming_version", incoming)
}

// Resource errors

func NotFound(resource, id string) *ServiceError {
	return New(ErrCodeNotFound, "resource not found", http.StatusNotFound).
		WithDetails("resource", resource).WithDetails("id", id)
}

func AlreadyExists(resource, id string) *ServiceError {
	return New(ErrCodeAlreadyExists, "resource already exists", http.StatusConflict).
		WithDetails("resource", resource).WithDetails("id", id)
}

func Conflict(message string) *ServiceError {
	return New(ErrCodeConflict, message, http.StatusConflict)
}

// Business-rule rejections — first-class outcomes (§7), not errors in the
// operational sense, but still returned via this type so call sites have a
// single outcome shape to branch on.

func InsufficientInventory(security string, requested, available int64) *ServiceError {
	return New(ErrCodeInsufficientInventory, "insufficient inventory", http.StatusOK).
		WithDetails("security", security).WithDetails("requested", requested).WithDetails("available", available)
}

func InsufficientLimit(key string, side string, requested, headroom int64) *ServiceError {
	return New(ErrCodeInsufficientLimit, "insufficient limit headroom", http.StatusOK).
		WithDetails("key", key).WithDetails("side", side).
		WithDetails("requested", requested).WithDetails("headroom", headroom)
}

func UnmappedBook(book string) *ServiceError {
	return New(ErrCodeUnmappedBook, "book does not map to an aggregation unit", http.StatusOK).
		WithDetails("book", book)
}

func UnknownReservation(reservationID string) *ServiceError {
	return New(ErrCodeUnknownReservation, "unknown or already-resolved reservation", http.StatusOK).
		WithDetails("reservation_id", reservationID)
}

// Transient dependency errors

func DependencyTimeout(operation string, err error) *ServiceError {
	return Wrap(ErrCodeDependencyTimeout, "dependency call timed out", http.StatusGatewayTimeout, err).
		WithDetails("operation", operation)
}

func DependencyOverloaded(stream string) *ServiceError {
	return New(ErrCodeDependencyOverload, "overloaded: credit window exceeded", http.StatusServiceUnavailable).
		WithDetails("stream", stream)
}

func CircuitOpen(dependency string) *ServiceError {
	return New(ErrCodeCircuitOpen, "circuit open", http.StatusServiceUnavailable).
		WithDetails("dependency", dependency)
}

// Engine invariant violations — halt the affected partition.

func InvariantViolation(invariant string, partitionKey string, err error) *ServiceError {
	return Wrap(ErrCodeInvariantViolation, "engine invariant violated", http.StatusInternalServerError, err).
		WithDetails("invariant", invariant).WithDetails("partition_key", partitionKey)
}

func EngineHalted(partitionKey string) *ServiceError {
	return New(ErrCodeEngineHalted, "partition halted pending replay", http.StatusServiceUnavailable).
		WithDetails("partition_key", partitionKey)
}

// SLA timeouts

func ShortSellTimeout(orderID string, elapsed string) *ServiceError {
	return New(ErrCodeShortSellTimeout, "short-sell validation exceeded SLA deadline", http.StatusGatewayTimeout).
		WithDetails("order_id", orderID).WithDetails("elapsed", elapsed)
}

func LocateRuleRouteToReview(locateID string) *ServiceError {
	return New(ErrCodeLocateRuleRoute, "auto-rule evaluation exceeded deadline, routed to review", http.StatusOK).
		WithDetails("locate_id", locateID)
}

func Internal(message string, err error) *ServiceError {
	return Wrap(ErrCodeInternal, message, http.StatusInternalServerError, err)
}

// Helper functions

func IsServiceError(err error) bool {
	var serviceErr *ServiceError
	return errors.As(err, &serviceErr)
}

func GetServiceError(err error) *ServiceError {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr
	}
	return nil
}

func GetHTTPStatus(err error) int {
	if serviceErr := GetServiceError(err); serviceErr != nil {
		return serviceErr.HTTPStatus
	}
	return http.StatusInternalServerError
}
