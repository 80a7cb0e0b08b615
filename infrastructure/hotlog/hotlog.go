// Package hotlog provides a near-zero-allocation structured logger for the
// position, inventory, and event-fabric packages that must sustain
// 300,000 events/sec. infrastructure/logging (logrus) is fine for the
// application/query layer but its per-call Entry allocation is too heavy
// for this path, so the hot engines use zerolog instead.
package hotlog

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger with the fields every hot-path log line
// carries: component and partition key.
type Logger struct {
	zerolog.Logger
}

// New builds a Logger writing JSON lines to w (os.Stdout in production).
func New(component string, w io.Writer) Logger {
	if w == nil {
		w = os.Stdout
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano
	base := zerolog.New(w).With().Timestamp().Str("component", component).Logger()
	return Logger{Logger: base}
}

// ForPartition returns a child logger with the partition key attached,
// cheap enough to call once per worker rather than per event.
func (l Logger) ForPartition(partitionKey string) Logger {
	return Logger{Logger: l.Logger.With().Str("partition_key", partitionKey).Logger()}
}

// EventApplied logs successful application of an event at debug level —
// disabled in production by default to stay on the allocation budget.
func (l Logger) EventApplied(stream, eventID string, seq uint64) {
	l.Debug().Str("stream", stream).Str("event_id", eventID).Uint64("sequence", seq).Msg("applied")
}

// EventDeduped logs a duplicate delivery drop.
func (l Logger) EventDeduped(stream, eventID string) {
	l.Debug().Str("stream", stream).Str("event_id", eventID).Msg("deduped")
}

// InvariantViolation logs an engine invariant violation immediately before
// the partition halts.
func (l Logger) InvariantViolation(invariant string, err error) {
	l.Error().Err(err).Str("invariant", invariant).Msg("invariant violation, halting partition")
}
