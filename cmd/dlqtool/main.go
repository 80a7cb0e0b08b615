// Command dlqtool inspects and replays dead-lettered envelopes persisted
// by the event fabric's PostgresDLQ sink.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/globalprime/inventory-platform/domain/event"
	"github.com/globalprime/inventory-platform/infrastructure/config"
	"github.com/globalprime/inventory-platform/infrastructure/database"
	"github.com/globalprime/inventory-platform/infrastructure/fabric"
)

func main() {
	stream := flag.String("stream", "", "stream to list or replay")
	limit := flag.Int("limit", 50, "max rows to list")
	replay := flag.Bool("replay", false, "republish listed rows and delete them from the dead-letter table")
	brokers := flag.String("brokers", "localhost:9092", "comma-separated Kafka-compatible seed brokers")
	flag.Parse()

	if *stream == "" {
		fmt.Fprintln(os.Stderr, "dlqtool: -stream is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dsn := config.GetEnv("DATABASE_URL", "")
	repo, err := database.NewRepository(ctx, database.DefaultConfig(dsn))
	if err != nil {
		fmt.Fprintf(os.Stderr, "dlqtool: database: %v\n", err)
		os.Exit(1)
	}
	defer repo.Close()

	dlq := fabric.NewPostgresDLQ(repo)

	rows, err := dlq.List(ctx, *stream, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dlqtool: list: %v\n", err)
		os.Exit(1)
	}

	if !*replay {
		for _, r := range rows {
			fmt.Printf("%d\t%s\t%s\t%s\tattempts=%d\t%s\n", r.ID, r.Stream, r.EventID, r.PartitionKey, r.Attempts, r.Reason)
		}
		return
	}

	bus, err := fabric.NewBus(fabric.Config{SeedBrokers: config.SplitAndTrimCSV(*brokers), ClientID: "inventory-platform-dlqtool"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "dlqtool: fabric: %v\n", err)
		os.Exit(1)
	}
	defer bus.Close()

	for _, r := range rows {
		var env event.Envelope
		if err := json.Unmarshal(r.Payload, &env); err != nil {
			fmt.Fprintf(os.Stderr, "dlqtool: skipping row %d, bad payload: %v\n", r.ID, err)
			continue
		}
		if err := bus.Publish(ctx, env, r.PartitionKey); err != nil {
			fmt.Fprintf(os.Stderr, "dlqtool: replay row %d failed: %v\n", r.ID, err)
			continue
		}
		if err := dlq.Delete(ctx, r.ID); err != nil {
			fmt.Fprintf(os.Stderr, "dlqtool: delete row %d failed: %v\n", r.ID, err)
			continue
		}
		fmt.Printf("replayed %d (%s)\n", r.ID, r.EventID)
	}
}
