package fabric

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/globalprime/inventory-platform/domain/event"
	"github.com/globalprime/inventory-platform/infrastructure/hotlog"
	"github.com/globalprime/inventory-platform/infrastructure/state"
)

// MaxPoisonAttempts is K, the number of consecutive apply failures an
// event may accumulate before the partition worker diverts it to the
// dead-letter stream instead of retrying forever (§4.1 "poison message").
const MaxPoisonAttempts = 5

// Handler applies one envelope to whatever engine state owns its
// partition key. A non-nil error is treated as a transient apply failure
// unless it satisfies the Invariant interface, in which case the
// partition halts rather than retrying.
type Handler func(ctx context.Context, env event.Envelope) error

// InvariantError marks an apply failure as an invariant violation: the
// partition worker halts rather than retrying or poison-queuing it,
// because retrying a violated invariant can never succeed (§4.3 "engine
// halts the affected partition").
type InvariantError struct {
	Invariant string
	Err       error
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant %s violated: %v", e.Invariant, e.Err)
}

func (e *InvariantError) Unwrap() error { return e.Err }

// WorkerState is the partition worker's own lifecycle, independent of the
// events it processes.
type WorkerState string

const (
	WorkerInit     WorkerState = "process-init"
	WorkerReady    WorkerState = "ready"
	WorkerDraining WorkerState = "draining"
	WorkerClosed   WorkerState = "closed"
	WorkerHalted   WorkerState = "halted"
)

// DeadLetter is a poisoned or halt-triggering envelope diverted out of the
// ordered stream for manual replay via the dead-letter tooling.
type DeadLetter struct {
	Envelope event.Envelope
	Reason   string
	Attempts int
}

// DLQSink receives envelopes the partition worker could not apply.
type DLQSink interface {
	Send(ctx context.Context, dl DeadLetter) error
}

// PartitionWorker is the single writer for one partition key: it applies
// envelopes strictly in arrival order, deduplicates by fingerprint, and
// halts on invariant violation rather than silently skipping (§5
// "single-writer-per-partition-key").
type PartitionWorker struct {
	PartitionKey string
	Handler      Handler
	Dedup        Deduper
	DLQ          DLQSink
	Log          hotlog.Logger

	// Credit is the backpressure limiter bounding how fast this worker
	// accepts new envelopes, so a slow downstream consumer throttles
	// ingestion instead of unbounded queue growth.
	Credit *rate.Limiter

	// Checkpoint persists the halted/ready lifecycle state across process
	// restarts, so a redeployed engine doesn't silently resume consuming a
	// partition an operator halted for investigation. Nil means in-memory
	// only (state resets to process-init on restart).
	Checkpoint *state.PersistentState

	mu       sync.Mutex
	state    WorkerState
	sequence uint64
}

// NewPartitionWorker builds a worker with a default credit window of
// creditPerSecond envelopes/sec and burst capacity equal to that rate.
func NewPartitionWorker(key string, handler Handler, dedup Deduper, dlq DLQSink, log hotlog.Logger, creditPerSecond float64) *PartitionWorker {
	if creditPerSecond <= 0 {
		creditPerSecond = 50000
	}
	return &PartitionWorker{
		PartitionKey: key,
		Handler:      handler,
		Dedup:        dedup,
		DLQ:          dlq,
		Log:          log.ForPartition(key),
		Credit:       rate.NewLimiter(rate.Limit(creditPerSecond), int(creditPerSecond)),
		state:        WorkerInit,
	}
}

// State reports the worker's current lifecycle state.
func (w *PartitionWorker) State() WorkerState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *PartitionWorker) setState(s WorkerState) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()

	if w.Checkpoint != nil {
		if err := w.Checkpoint.Save(context.Background(), w.PartitionKey, []byte(s)); err != nil {
			w.Log.InvariantViolation("partition.checkpoint-save", err)
		}
	}
}

// WithCheckpoint attaches a persistence backend for the worker's lifecycle
// state and restores a previously halted state from it, so a restarted
// process doesn't resume consuming a partition an operator halted.
func (w *PartitionWorker) WithCheckpoint(store *state.PersistentState) *PartitionWorker {
	w.Checkpoint = store
	if data, err := store.Load(context.Background(), w.PartitionKey); err == nil && WorkerState(data) == WorkerHalted {
		w.mu.Lock()
		w.state = WorkerHalted
		w.mu.Unlock()
	}
	return w
}

// Ready transitions process-init -> ready, the point at which the worker
// may begin accepting envelopes.
func (w *PartitionWorker) Ready() {
	w.setState(WorkerReady)
}

// Drain transitions ready -> draining: in-flight envelopes finish, no new
// ones are accepted.
func (w *PartitionWorker) Drain() {
	w.setState(WorkerDraining)
}

// Close transitions draining -> closed.
func (w *PartitionWorker) Close() {
	w.setState(WorkerClosed)
}

// Apply processes one envelope: waits for credit, deduplicates, applies
// via Handler, and on repeated transient failure or an invariant
// violation diverts to the DLQ and/or halts the partition.
func (w *PartitionWorker) Apply(ctx context.Context, env event.Envelope) error {
	if w.State() == WorkerHalted {
		return fmt.Errorf("partition %s halted, rejecting event %s", w.PartitionKey, env.ID)
	}
	if st := w.State(); st == WorkerDraining || st == WorkerClosed {
		return fmt.Errorf("partition %s %s, rejecting event %s", w.PartitionKey, st, env.ID)
	}

	if err := w.Credit.Wait(ctx); err != nil {
		return err
	}

	dup, err := w.Dedup.SeenOrRecord(ctx, env.Key().String())
	if err != nil {
		return fmt.Errorf("dedup check failed: %w", err)
	}
	if dup {
		w.Log.EventDeduped(env.Stream, env.ID)
		return nil
	}

	var attempts int
	for {
		attempts++
		applyErr := w.Handler(ctx, env)
		if applyErr == nil {
			w.mu.Lock()
			w.sequence++
			seq := w.sequence
			w.mu.Unlock()
			w.Log.EventApplied(env.Stream, env.ID, seq)
			return nil
		}

		var invErr *InvariantError
		if asInvariantError(applyErr, &invErr) {
			w.Log.InvariantViolation(invErr.Invariant, invErr.Err)
			w.setState(WorkerHalted)
			if w.DLQ != nil {
				_ = w.DLQ.Send(ctx, DeadLetter{Envelope: env, Reason: invErr.Error(), Attempts: attempts})
			}
			return invErr
		}

		if attempts >= MaxPoisonAttempts {
			if w.DLQ != nil {
				if sendErr := w.DLQ.Send(ctx, DeadLetter{Envelope: env, Reason: applyErr.Error(), Attempts: attempts}); sendErr != nil {
					return fmt.Errorf("poison event %s: apply failed (%v) and DLQ send failed: %w", env.ID, applyErr, sendErr)
				}
			}
			return nil
		}
	}
}

func asInvariantError(err error, target **InvariantError) bool {
	for err != nil {
		if ie, ok := err.(*InvariantError); ok {
			*target = ie
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
