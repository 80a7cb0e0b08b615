package fabric

import (
	"context"
	"encoding/json"
	"time"

	"github.com/globalprime/inventory-platform/infrastructure/database"
)

// dlqRow is the persisted shape of a DeadLetter, scanned/written via the
// generic sqlx helpers in infrastructure/database.
type dlqRow struct {
	ID           int64     `db:"id"`
	Stream       string    `db:"stream"`
	EventID      string    `db:"event_id"`
	PartitionKey string    `db:"partition_key"`
	Payload      []byte    `db:"payload"`
	Reason       string    `db:"reason"`
	Attempts     int       `db:"attempts"`
	CreatedAt    time.Time `db:"created_at"`
}

// PostgresDLQ persists dead-lettered envelopes to the dead_letters table
// for later inspection and replay via cmd/dlqtool.
type PostgresDLQ struct {
	repo *database.Repository
}

// NewPostgresDLQ builds a DLQSink backed by repo.
func NewPostgresDLQ(repo *database.Repository) *PostgresDLQ {
	return &PostgresDLQ{repo: repo}
}

// Send implements DLQSink.
func (d *PostgresDLQ) Send(ctx context.Context, dl DeadLetter) error {
	payload, err := json.Marshal(dl.Envelope)
	if err != nil {
		return err
	}

	row := dlqRow{
		Stream:       dl.Envelope.Stream,
		EventID:      dl.Envelope.ID,
		PartitionKey: dl.Envelope.Key().String(),
		Payload:      payload,
		Reason:       dl.Reason,
		Attempts:     dl.Attempts,
		CreatedAt:    time.Now().UTC(),
	}

	_, err = d.repo.DB().NamedExecContext(ctx, `
		INSERT INTO dead_letters (stream, event_id, partition_key, payload, reason, attempts, created_at)
		VALUES (:stream, :event_id, :partition_key, :payload, :reason, :attempts, :created_at)
	`, row)
	return err
}

// List returns up to limit dead letters for stream, oldest first, for the
// replay tool to iterate.
func (d *PostgresDLQ) List(ctx context.Context, stream string, limit int) ([]dlqRow, error) {
	var rows []dlqRow
	err := d.repo.DB().SelectContext(ctx, &rows, `
		SELECT id, stream, event_id, partition_key, payload, reason, attempts, created_at
		FROM dead_letters
		WHERE stream = $1
		ORDER BY created_at ASC
		LIMIT $2
	`, stream, limit)
	return rows, err
}

// Delete removes a dead letter once it has been successfully replayed.
func (d *PostgresDLQ) Delete(ctx context.Context, id int64) error {
	return database.GenericDelete(ctx, d.repo, "dead_letters", "id", id)
}
