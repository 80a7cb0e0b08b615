package scheduler

import (
	"context"
	"time"

	"github.com/globalprime/inventory-platform/domain/limit"
	"github.com/globalprime/inventory-platform/domain/locate"
	"github.com/globalprime/inventory-platform/engine/inventory"
	"github.com/globalprime/inventory-platform/engine/limitengine"
)

// LimitSource supplies the long/short sell limits to rebuild at SOD; it is
// typically a reference-data repository keyed by (owner, security).
type LimitSource interface {
	LoadLimits(ctx context.Context, businessDate time.Time) ([]LimitRow, error)
}

// LimitRow is one limit rebuild row.
type LimitRow struct {
	Key            limit.Key
	LongSellLimit  int64
	ShortSellLimit int64
}

// SODLimitRebuildJob rebuilds every client/AU limit at the start-of-day
// boundary (§4.5 "rebuild(business-date) at SOD"), dropping any
// reservations carried from the prior business date.
type SODLimitRebuildJob struct {
	Limits *limitengine.Engine
	Source LimitSource
	Clock  func() time.Time
}

func (j *SODLimitRebuildJob) Name() string { return "sod-limit-rebuild" }

func (j *SODLimitRebuildJob) Run(ctx context.Context) error {
	now := time.Now
	if j.Clock != nil {
		now = j.Clock
	}
	rows, err := j.Source.LoadLimits(ctx, now().UTC())
	if err != nil {
		return err
	}
	for _, row := range rows {
		j.Limits.Rebuild(row.Key, row.LongSellLimit, row.ShortSellLimit)
	}
	return nil
}

// InventoryKeySource enumerates the (security, market, business-date) keys
// the drift sweep recomputes from scratch.
type InventoryKeySource interface {
	ActiveKeys(ctx context.Context) ([]inventory.Key, error)
}

// BucketSource supplies the freshly-aggregated buckets a full recompute
// needs for one key, bypassing the incremental delta path.
type BucketSource interface {
	LoadBuckets(ctx context.Context, key inventory.Key) (inventory.Buckets, error)
}

// DriftVerificationJob periodically performs a full recompute of every
// active inventory key, the defense against incremental-delta drift
// (§4.4 "a full recompute is triggered... by periodic drift-verification").
type DriftVerificationJob struct {
	Keys       InventoryKeySource
	Buckets    BucketSource
	Inventory  *inventory.Engine
	RuleVersion func() int64
}

func (j *DriftVerificationJob) Name() string { return "inventory-drift-verification" }

func (j *DriftVerificationJob) Run(ctx context.Context) error {
	keys, err := j.Keys.ActiveKeys(ctx)
	if err != nil {
		return err
	}
	ruleVersion := int64(0)
	if j.RuleVersion != nil {
		ruleVersion = j.RuleVersion()
	}
	for _, key := range keys {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		buckets, err := j.Buckets.LoadBuckets(ctx, key)
		if err != nil {
			return err
		}
		j.Inventory.FullRecompute(key, buckets, ruleVersion)
	}
	return nil
}

// LocateStore is the minimal surface the expiry sweep needs: enumerate
// non-terminal requests and persist expiry transitions.
type LocateStore interface {
	OpenRequests(ctx context.Context) ([]*locate.Request, error)
	Save(ctx context.Context, req *locate.Request) error
}

// LocateExpirySweepJob transitions locate requests past their TTL to
// expired (§4.6 "Expiry: locate-requests unresolved after TTL... →
// expired").
type LocateExpirySweepJob struct {
	Store LocateStore
	Clock func() time.Time
}

func (j *LocateExpirySweepJob) Name() string { return "locate-expiry-sweep" }

func (j *LocateExpirySweepJob) Run(ctx context.Context) error {
	now := time.Now
	if j.Clock != nil {
		now = j.Clock
	}
	asOf := now().UTC()

	requests, err := j.Store.OpenRequests(ctx)
	if err != nil {
		return err
	}
	for _, req := range requests {
		if !req.Expired(asOf) {
			continue
		}
		if err := req.Transition(locate.StateExpired); err != nil {
			continue
		}
		if err := j.Store.Save(ctx, req); err != nil {
			return err
		}
	}
	return nil
}
