package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/globalprime/inventory-platform/domain/limit"
	"github.com/globalprime/inventory-platform/domain/locate"
	"github.com/globalprime/inventory-platform/engine/inventory"
	"github.com/globalprime/inventory-platform/engine/limitengine"
)

type fakeLimitSource struct {
	rows []LimitRow
}

func (f *fakeLimitSource) LoadLimits(ctx context.Context, businessDate time.Time) ([]LimitRow, error) {
	return f.rows, nil
}

func TestSODLimitRebuildJobRebuildsEachRow(t *testing.T) {
	eng := limitengine.New()
	key := limit.Key{OwnerKind: limit.OwnerClient, OwnerID: "C1", SecurityID: "SEC1"}
	job := &SODLimitRebuildJob{
		Limits: eng,
		Source: &fakeLimitSource{rows: []LimitRow{{Key: key, LongSellLimit: 100, ShortSellLimit: 200}}},
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec, ok := eng.Get(key)
	if !ok {
		t.Fatal("expected limit rebuilt")
	}
	if rec.ShortSellLimit != 200 || rec.LongSellLimit != 100 {
		t.Errorf("unexpected limit rebuild %+v", rec)
	}
}

type fakeKeySource struct {
	keys []inventory.Key
}

func (f *fakeKeySource) ActiveKeys(ctx context.Context) ([]inventory.Key, error) {
	return f.keys, nil
}

type fakeBucketSource struct {
	buckets inventory.Buckets
}

func (f *fakeBucketSource) LoadBuckets(ctx context.Context, key inventory.Key) (inventory.Buckets, error) {
	return f.buckets, nil
}

func TestDriftVerificationJobRecomputesEveryKey(t *testing.T) {
	key := inventory.Key{SecurityID: "SEC1", Market: "US"}
	eng := inventory.New()
	job := &DriftVerificationJob{
		Keys:      &fakeKeySource{keys: []inventory.Key{key}},
		Buckets:   &fakeBucketSource{buckets: inventory.Buckets{IncludeLong: 500}},
		Inventory: eng,
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snap := eng.Get(key)
	if snap.ForLoan != 500 {
		t.Errorf("expected ForLoan 500, got %d", snap.ForLoan)
	}
}

type fakeLocateStore struct {
	open  []*locate.Request
	saved []*locate.Request
}

func (f *fakeLocateStore) OpenRequests(ctx context.Context) ([]*locate.Request, error) {
	return f.open, nil
}

func (f *fakeLocateStore) Save(ctx context.Context, req *locate.Request) error {
	f.saved = append(f.saved, req)
	return nil
}

func TestLocateExpirySweepJobExpiresPastTTL(t *testing.T) {
	now := time.Date(2026, 7, 31, 20, 0, 0, 0, time.UTC)
	expired := &locate.Request{ID: "L1", State: locate.StateUnderReview, ExpiresAt: now.Add(-time.Hour)}
	notYet := &locate.Request{ID: "L2", State: locate.StateUnderReview, ExpiresAt: now.Add(time.Hour)}
	store := &fakeLocateStore{open: []*locate.Request{expired, notYet}}

	job := &LocateExpirySweepJob{Store: store, Clock: func() time.Time { return now }}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if expired.State != locate.StateExpired {
		t.Errorf("expected expired request transitioned, got %s", expired.State)
	}
	if notYet.State != locate.StateUnderReview {
		t.Errorf("expected non-expired request untouched, got %s", notYet.State)
	}
	if len(store.saved) != 1 || store.saved[0].ID != "L1" {
		t.Errorf("expected only the expired request saved, got %+v", store.saved)
	}
}
