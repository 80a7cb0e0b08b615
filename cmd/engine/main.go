// Command engine runs the event-driven core: it consumes the fabric's
// ingress streams, applies them to the position, inventory, limit and
// rule engines, publishes the resulting deltas, and drives the scheduled
// SOD rebuild, drift-verification, and locate-expiry jobs.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/globalprime/inventory-platform/domain/event"
	"github.com/globalprime/inventory-platform/domain/position"
	"github.com/globalprime/inventory-platform/domain/rule"
	"github.com/globalprime/inventory-platform/engine/inventory"
	"github.com/globalprime/inventory-platform/engine/limitengine"
	"github.com/globalprime/inventory-platform/engine/positionengine"
	"github.com/globalprime/inventory-platform/engine/reference"
	"github.com/globalprime/inventory-platform/infrastructure/config"
	"github.com/globalprime/inventory-platform/infrastructure/database"
	"github.com/globalprime/inventory-platform/infrastructure/fabric"
	"github.com/globalprime/inventory-platform/infrastructure/hotlog"
	"github.com/globalprime/inventory-platform/infrastructure/scheduler"
	"github.com/globalprime/inventory-platform/infrastructure/state"
	"github.com/globalprime/inventory-platform/pkg/pgnotify"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := hotlog.New("engine", os.Stdout)
	cfg := config.LoadEngineConfig()

	repo, err := database.NewRepository(ctx, database.DefaultConfig(config.GetEnv("DATABASE_URL", "")))
	if err != nil {
		log.InvariantViolation("startup.database", err)
		os.Exit(1)
	}
	defer repo.Close()

	notifyBus, err := pgnotify.New(config.GetEnv("DATABASE_URL", ""))
	if err != nil {
		log.InvariantViolation("startup.pgnotify", err)
		os.Exit(1)
	}
	defer notifyBus.Close()

	refStore, err := reference.NewStore(4096)
	if err != nil {
		log.InvariantViolation("startup.reference-store", err)
		os.Exit(1)
	}

	inv := inventory.New()
	limits := limitengine.New()
	ruleSnap := &rule.Snapshot{}

	bus, err := fabric.NewBus(fabric.Config{
		SeedBrokers:   config.SplitAndTrimCSV(config.GetEnv("KAFKA_BROKERS", "localhost:9092")),
		ConsumerGroup: "inventory-platform.engine",
		ClientID:      "inventory-platform-engine",
	}, ingressStreams()...)
	if err != nil {
		log.InvariantViolation("startup.fabric", err)
		os.Exit(1)
	}
	defer bus.Close()

	positions := positionengine.New(time.Now().UTC(), publishDeltas(bus, inv, refStore, log))

	dlq := fabric.NewPostgresDLQ(repo)
	dedup := fabric.NewMemoryDeduper()

	d := &dispatcher{
		positions: positions,
		inventory: inv,
		limits:    limits,
		rules:     ruleSnap,
		refStore:  refStore,
		bus:       bus,
		notify:    notifyBus,
		log:       log,
	}

	// Other engine replicas pick up rule-snapshot changes over this
	// channel without waiting on a fabric round trip.
	if err := notifyBus.Subscribe(ruleChangeChannel, func(_ context.Context, evt pgnotify.Event) error {
		log.Info().Str("channel", evt.Channel).Msg("rule-change notification received")
		return nil
	}); err != nil {
		log.InvariantViolation("startup.pgnotify-subscribe", err)
	}

	checkpoints, err := state.NewPersistentState(state.Config{
		Backend:   state.NewMemoryBackend(10 * time.Minute),
		KeyPrefix: "partition:",
	})
	if err != nil {
		log.InvariantViolation("startup.checkpoint-store", err)
		os.Exit(1)
	}

	worker := fabric.NewPartitionWorker("engine-main", d.handle, dedup, dlq, log, 0).WithCheckpoint(checkpoints)
	if worker.State() != fabric.WorkerHalted {
		worker.Ready()
	} else {
		log.Info().Msg("partition restored halted from checkpoint; awaiting manual recovery")
	}

	sched := scheduler.New(log)
	wireJobs(sched, limits, inv, repo, cfg, log)
	sched.Start()
	defer sched.Stop()

	log.Info().Msg("engine started")
	runLoop(ctx, bus, worker, log)
}

// ruleChangeChannel is the Postgres NOTIFY channel evaluator snapshot
// handles listen on for single-node/dev rule-snapshot broadcast.
const ruleChangeChannel = "rule-change"

func ingressStreams() []string {
	return []string{
		event.StreamReference,
		event.StreamMarket,
		event.StreamTrade,
		event.StreamContract,
		event.StreamLocate,
		event.StreamRuleChange,
	}
}

func wireJobs(sched *scheduler.Scheduler, limits *limitengine.Engine, inv *inventory.Engine, repo *database.Repository, cfg config.EngineConfig, log hotlog.Logger) {
	limitSource := &postgresLimitSource{repo: repo}
	if err := sched.AddJob("0 0 0 * * *", &scheduler.SODLimitRebuildJob{Limits: limits, Source: limitSource, Clock: time.Now}); err != nil {
		log.InvariantViolation("scheduler.sod-limit-rebuild", err)
	}

	interval := cfg.DriftCheckInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	keys := newPostgresInventoryKeySource(repo)
	buckets := &postgresBucketSource{repo: repo}
	driftJob := &scheduler.DriftVerificationJob{
		Keys:        keys,
		Buckets:     buckets,
		Inventory:   inv,
		RuleVersion: inv.Version,
	}
	if err := sched.AddJob("@every "+interval.String(), driftJob); err != nil {
		log.InvariantViolation("scheduler.drift-verification", err)
	}

	locateStore := &postgresLocateStore{repo: repo}
	if err := sched.AddJob("0 */1 * * * *", &scheduler.LocateExpirySweepJob{Store: locateStore, Clock: time.Now}); err != nil {
		log.InvariantViolation("scheduler.locate-expiry-sweep", err)
	}
}

func publishDeltas(bus *fabric.Bus, inv *inventory.Engine, refStore *reference.Store, log hotlog.Logger) func(position.Delta) {
	return func(d position.Delta) {
		market := marketFor(d.SecurityID, refStore)
		key := inventory.Key{SecurityID: d.SecurityID, Market: market}
		inv.ApplyPositionDelta(key, nil, &d.PostState)

		payload, err := marshalDelta(d)
		if err != nil {
			log.InvariantViolation("delta.marshal", err)
			return
		}
		env := newEnvelope(event.TypePositionDelta, "position-delta", "engine", d.SecurityID+"|"+d.Book, payload)
		if err := bus.Publish(context.Background(), env, d.SecurityID); err != nil {
			log.InvariantViolation("delta.publish", err)
		}
	}
}

// marketFor derives the settlement market from the security's internal
// ID convention (ISO market prefix) until the reference projection grows
// a direct security-to-market lookup.
func marketFor(securityID string, _ *reference.Store) string {
	if len(securityID) >= 2 {
		return securityID[:2]
	}
	return ""
}

func runLoop(ctx context.Context, bus *fabric.Bus, worker *fabric.PartitionWorker, log hotlog.Logger) {
	for {
		select {
		case <-ctx.Done():
			worker.Drain()
			worker.Close()
			log.Info().Msg("engine shutting down")
			return
		default:
		}

		envelopes, err := bus.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			log.InvariantViolation("fabric.fetch", err)
			continue
		}
		for _, env := range envelopes {
			if err := worker.Apply(ctx, env); err != nil {
				log.InvariantViolation("partition.apply", err)
			}
		}
		if err := bus.CommitOffsets(ctx); err != nil {
			log.InvariantViolation("fabric.commit", err)
		}
	}
}
