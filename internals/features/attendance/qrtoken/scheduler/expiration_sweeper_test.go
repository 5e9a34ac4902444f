package scheduler

import (
	"context"
	"testing"
	"time"

	"smartattendance_backend/internals/features/attendance/qrtoken/model"
	"smartattendance_backend/internals/features/attendance/qrtoken/service"
)

type sweeperStore struct {
	records []*model.QrCodeRecordModel
}

func (f *sweeperStore) Transact(ctx context.Context, fn func(tx service.TokenStore) error) error {
	return fn(f)
}

func (f *sweeperStore) LockOrganisation(ctx context.Context, orgID uint64) error { return nil }

func (f *sweeperStore) Create(ctx context.Context, rec *model.QrCodeRecordModel) error {
	f.records = append(f.records, rec)
	return nil
}

func (f *sweeperStore) Save(ctx context.Context, rec *model.QrCodeRecordModel) error { return nil }

func (f *sweeperStore) FindByID(ctx context.Context, id uint64) (*model.QrCodeRecordModel, error) {
	for _, rec := range f.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, nil
}

func (f *sweeperStore) ActiveByOrganisation(ctx context.Context, orgID uint64) ([]model.QrCodeRecordModel, error) {
	return nil, nil
}

func (f *sweeperStore) DeactivateByOrganisation(ctx context.Context, orgID uint64, clearAutoRotating bool) error {
	return nil
}

func (f *sweeperStore) Deactivate(ctx context.Context, id uint64) error {
	for _, rec := range f.records {
		if rec.ID == id {
			rec.Active = false
		}
	}
	return nil
}

func (f *sweeperStore) ActiveAutoRotating(ctx context.Context) ([]model.QrCodeRecordModel, error) {
	var out []model.QrCodeRecordModel
	for _, rec := range f.records {
		if rec.Active && rec.AutoRotating {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (f *sweeperStore) HasActiveAutoRotating(ctx context.Context, orgID uint64) (bool, error) {
	return false, nil
}

func (f *sweeperStore) IncrementScanCount(ctx context.Context, id uint64) error { return nil }

func token(id, orgID uint64, expiresAt time.Time, active, rotating bool, scans int) *model.QrCodeRecordModel {
	rec := &model.QrCodeRecordModel{
		Code:           "test",
		OrganisationID: orgID,
		ExpiresAt:      expiresAt,
		Active:         active,
		AutoRotating:   rotating,
		ScanCount:      scans,
	}
	rec.ID = id
	return rec
}

func TestSweepOnceRetiresOnlyExpiredRotatingTokens(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	store := &sweeperStore{records: []*model.QrCodeRecordModel{
		token(1, 1, now.Add(-time.Minute), true, true, 3),   // expired, must go
		token(2, 1, now.Add(4*time.Minute), true, true, 0),  // fresh, stays
		token(3, 2, now.Add(-time.Second), true, true, 7),   // expired, other org, must go
		token(4, 2, now.Add(-time.Hour), false, true, 0),    // already inactive
		token(5, 2, now.Add(-time.Minute), true, false, 0),  // rotation stopped, out of scope
	}}

	sweeper := NewExpirationSweeper(store, time.Minute)
	sweeper.Now = func() time.Time { return now }

	n, err := sweeper.SweepOnce(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 2 {
		t.Fatalf("retired %d tokens, want 2", n)
	}

	for _, tc := range []struct {
		id     uint64
		active bool
	}{
		{1, false},
		{2, true},
		{3, false},
		{4, false},
		{5, true},
	} {
		rec, _ := store.FindByID(context.Background(), tc.id)
		if rec.Active != tc.active {
			t.Fatalf("token %d active = %v, want %v", tc.id, rec.Active, tc.active)
		}
	}

	// The sweep never touches scan counters.
	rec, _ := store.FindByID(context.Background(), 1)
	if rec.ScanCount != 3 {
		t.Fatalf("scan count changed to %d", rec.ScanCount)
	}
}

func TestSweepOnceIsIdempotent(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	store := &sweeperStore{records: []*model.QrCodeRecordModel{
		token(1, 1, now.Add(-time.Minute), true, true, 0),
	}}

	sweeper := NewExpirationSweeper(store, time.Minute)
	sweeper.Now = func() time.Time { return now }

	first, err := sweeper.SweepOnce(context.Background())
	if err != nil {
		t.Fatalf("first sweep: %v", err)
	}
	second, err := sweeper.SweepOnce(context.Background())
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if first != 1 || second != 0 {
		t.Fatalf("sweeps retired (%d, %d), want (1, 0)", first, second)
	}
}

func TestStopTwiceDoesNotPanic(t *testing.T) {
	sweeper := NewExpirationSweeper(&sweeperStore{}, time.Minute)
	sweeper.Start()

	sweeper.Stop()
	sweeper.Stop()
}

func TestSweepOnceEmptyStore(t *testing.T) {
	sweeper := NewExpirationSweeper(&sweeperStore{}, time.Minute)

	n, err := sweeper.SweepOnce(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 0 {
		t.Fatalf("retired %d tokens from an empty store", n)
	}
}
