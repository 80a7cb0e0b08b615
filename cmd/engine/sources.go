package main

import (
	"context"
	"time"

	"github.com/globalprime/inventory-platform/domain/limit"
	"github.com/globalprime/inventory-platform/domain/locate"
	"github.com/globalprime/inventory-platform/engine/inventory"
	"github.com/globalprime/inventory-platform/infrastructure/database"
	"github.com/globalprime/inventory-platform/infrastructure/fallback"
	"github.com/globalprime/inventory-platform/infrastructure/scheduler"
)

// activeKeysCacheKey is the single fallback-cache slot the inventory key
// source keeps warm: the drift sweep always wants the whole universe, so
// there's nothing to key by beyond "the last successful listing".
const activeKeysCacheKey = "active-keys"

// postgresLimitSource loads the client/AU limit book for the SOD rebuild
// job from the limits reference table.
type postgresLimitSource struct {
	repo *database.Repository
}

type limitRow struct {
	OwnerKind      string `db:"owner_kind"`
	OwnerID        string `db:"owner_id"`
	SecurityID     string `db:"security_id"`
	LongSellLimit  int64  `db:"long_sell_limit"`
	ShortSellLimit int64  `db:"short_sell_limit"`
}

func (s *postgresLimitSource) LoadLimits(ctx context.Context, businessDate time.Time) ([]scheduler.LimitRow, error) {
	rows, err := database.GenericList[limitRow](ctx, s.repo, "limit_book", "owner_id")
	if err != nil {
		return nil, err
	}
	out := make([]scheduler.LimitRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, scheduler.LimitRow{
			Key:            limit.Key{OwnerKind: limit.OwnerKind(r.OwnerKind), OwnerID: r.OwnerID, SecurityID: r.SecurityID},
			LongSellLimit:  r.LongSellLimit,
			ShortSellLimit: r.ShortSellLimit,
		})
	}
	return out, nil
}

// postgresInventoryKeySource enumerates the (security, market) pairs with
// an open inventory projection, the universe the drift sweep recomputes.
// A transient listing failure falls back to the last successful listing
// rather than skipping the sweep cycle outright — a stale universe still
// catches drift on everything it contains, where an empty one catches
// nothing.
type postgresInventoryKeySource struct {
	repo     *database.Repository
	fallback *fallback.Handler
}

func newPostgresInventoryKeySource(repo *database.Repository) *postgresInventoryKeySource {
	return &postgresInventoryKeySource{repo: repo, fallback: fallback.NewHandler(fallback.DefaultConfig())}
}

type inventoryKeyRow struct {
	SecurityID string `db:"security_id"`
	Market     string `db:"market"`
}

func (s *postgresInventoryKeySource) ActiveKeys(ctx context.Context) ([]inventory.Key, error) {
	result := s.fallback.Execute(ctx, func(ctx context.Context) (interface{}, error) {
		rows, err := database.GenericList[inventoryKeyRow](ctx, s.repo, "inventory_projection", "security_id")
		if err != nil {
			return nil, err
		}
		out := make([]inventory.Key, 0, len(rows))
		for _, r := range rows {
			out = append(out, inventory.Key{SecurityID: r.SecurityID, Market: r.Market})
		}
		return out, nil
	})

	if result.Err == nil {
		keys := result.Value.([]inventory.Key)
		s.fallback.SetCache(activeKeysCacheKey, keys, 24*time.Hour)
		return keys, nil
	}

	if cached, ok := s.fallback.GetCache(activeKeysCacheKey); ok {
		return cached.([]inventory.Key), nil
	}
	return nil, result.Err
}

// postgresBucketSource reloads the raw inclusion/exclusion buckets for one
// inventory key from the depot/contract/locate projections, bypassing the
// incremental delta path for a full recompute.
type postgresBucketSource struct {
	repo *database.Repository
}

type bucketRow struct {
	IncludeLong              int64 `db:"include_long"`
	ExcludeSLABLoaned        int64 `db:"exclude_slab_loaned"`
	ExcludePayToHold         int64 `db:"exclude_pay_to_hold"`
	ExcludeReserved          int64 `db:"exclude_reserved"`
	ExcludePendingCA         int64 `db:"exclude_pending_ca"`
	AlreadyPledged           int64 `db:"already_pledged"`
	BorrowContracts          int64 `db:"borrow_contracts"`
	RequiredCover            int64 `db:"required_cover"`
	ApprovedLocateDecrement  int64 `db:"approved_locate_decrement"`
}

func (s *postgresBucketSource) LoadBuckets(ctx context.Context, key inventory.Key) (inventory.Buckets, error) {
	row, err := database.GenericGetByField[bucketRow](ctx, s.repo, "inventory_bucket_snapshot", "security_id", key.SecurityID)
	if err != nil {
		return inventory.Buckets{}, err
	}
	return inventory.Buckets{
		IncludeLong:              row.IncludeLong,
		ExcludeSLABLoaned:        row.ExcludeSLABLoaned,
		ExcludePayToHold:         row.ExcludePayToHold,
		ExcludeReserved:          row.ExcludeReserved,
		ExcludePendingCA:         row.ExcludePendingCA,
		AlreadyPledged:           row.AlreadyPledged,
		BorrowContracts:          row.BorrowContracts,
		RequiredCover:            row.RequiredCover,
		ApprovedLocateDecrement:  row.ApprovedLocateDecrement,
	}, nil
}

// postgresLocateStore backs the locate-expiry sweep directly off the
// locate_request table, independent of the HTTP-facing in-memory
// repository used for request/response handling.
type postgresLocateStore struct {
	repo *database.Repository
}

type locateRow struct {
	ID           string    `db:"id"`
	ClientID     string    `db:"client_id"`
	SecurityID   string    `db:"security_id"`
	RequestedQty int64     `db:"requested_qty"`
	BusinessDate time.Time `db:"business_date"`
	State        string    `db:"state"`
	ApprovedQty  int64     `db:"approved_qty"`
	DecrementQty int64     `db:"decrement_qty"`
	ExecutedQty  int64     `db:"executed_qty"`
	CreatedAt    time.Time `db:"created_at"`
	ExpiresAt    time.Time `db:"expires_at"`
}

func (s *postgresLocateStore) OpenRequests(ctx context.Context) ([]*locate.Request, error) {
	query, args := database.NewQuery().IsFalse("terminal").Build()
	rows, err := database.GenericListWithQuery[locateRow](ctx, s.repo, "locate_request", query, args...)
	if err != nil {
		return nil, err
	}
	out := make([]*locate.Request, 0, len(rows))
	for _, r := range rows {
		out = append(out, &locate.Request{
			ID:           r.ID,
			ClientID:     r.ClientID,
			SecurityID:   r.SecurityID,
			RequestedQty: r.RequestedQty,
			BusinessDate: r.BusinessDate,
			State:        locate.State(r.State),
			ApprovedQty:  r.ApprovedQty,
			DecrementQty: r.DecrementQty,
			ExecutedQty:  r.ExecutedQty,
			CreatedAt:    r.CreatedAt,
			ExpiresAt:    r.ExpiresAt,
		})
	}
	return out, nil
}

func (s *postgresLocateStore) Save(ctx context.Context, req *locate.Request) error {
	row := locateRow{
		ID:           req.ID,
		ClientID:     req.ClientID,
		SecurityID:   req.SecurityID,
		RequestedQty: req.RequestedQty,
		BusinessDate: req.BusinessDate,
		State:        string(req.State),
		ApprovedQty:  req.ApprovedQty,
		DecrementQty: req.DecrementQty,
		ExecutedQty:  req.ExecutedQty,
		CreatedAt:    req.CreatedAt,
		ExpiresAt:    req.ExpiresAt,
	}
	return database.GenericUpsert(ctx, s.repo, "locate_request",
		[]string{"id", "client_id", "security_id", "requested_qty", "business_date", "state", "approved_qty", "decrement_qty", "executed_qty", "created_at", "expires_at"},
		"id",
		"client_id = EXCLUDED.client_id, state = EXCLUDED.state, approved_qty = EXCLUDED.approved_qty, decrement_qty = EXCLUDED.decrement_qty, executed_qty = EXCLUDED.executed_qty, expires_at = EXCLUDED.expires_at",
		&row)
}
