package service

import (
	"context"
	"testing"
	"time"

	"github.com/bytedance/sonic"

	"smartattendance_backend/internals/configs"
	"smartattendance_backend/internals/features/attendance/qrtoken/dto"
	"smartattendance_backend/internals/features/attendance/qrtoken/model"
	orgModel "smartattendance_backend/internals/features/organisations/organisation/model"
	helper "smartattendance_backend/internals/helpers"
)

// fakeTokenStore is an in-memory TokenStore. Transact runs the callback
// against the same store; the production transaction semantics are exercised
// against the real database, not here. It records mutating calls in order so
// tests can assert the organisation lock is taken before any write.
type fakeTokenStore struct {
	records []*model.QrCodeRecordModel
	nextID  uint64
	ops     []string
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{nextID: 1}
}

func (f *fakeTokenStore) Transact(ctx context.Context, fn func(tx TokenStore) error) error {
	return fn(f)
}

func (f *fakeTokenStore) LockOrganisation(ctx context.Context, orgID uint64) error {
	f.ops = append(f.ops, "lock")
	return nil
}

func (f *fakeTokenStore) Create(ctx context.Context, rec *model.QrCodeRecordModel) error {
	f.ops = append(f.ops, "create")
	rec.ID = f.nextID
	f.nextID++
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeTokenStore) Save(ctx context.Context, rec *model.QrCodeRecordModel) error {
	for i, existing := range f.records {
		if existing.ID == rec.ID {
			f.records[i] = rec
			return nil
		}
	}
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeTokenStore) FindByID(ctx context.Context, id uint64) (*model.QrCodeRecordModel, error) {
	for _, rec := range f.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, nil
}

func (f *fakeTokenStore) ActiveByOrganisation(ctx context.Context, orgID uint64) ([]model.QrCodeRecordModel, error) {
	var out []model.QrCodeRecordModel
	for _, rec := range f.records {
		if rec.OrganisationID == orgID && rec.Active {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (f *fakeTokenStore) DeactivateByOrganisation(ctx context.Context, orgID uint64, clearAutoRotating bool) error {
	f.ops = append(f.ops, "deactivate")
	for _, rec := range f.records {
		if rec.OrganisationID == orgID && rec.Active {
			rec.Active = false
			if clearAutoRotating {
				rec.AutoRotating = false
			}
		}
	}
	return nil
}

func (f *fakeTokenStore) Deactivate(ctx context.Context, id uint64) error {
	for _, rec := range f.records {
		if rec.ID == id {
			rec.Active = false
		}
	}
	return nil
}

func (f *fakeTokenStore) ActiveAutoRotating(ctx context.Context) ([]model.QrCodeRecordModel, error) {
	var out []model.QrCodeRecordModel
	for _, rec := range f.records {
		if rec.Active && rec.AutoRotating {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (f *fakeTokenStore) HasActiveAutoRotating(ctx context.Context, orgID uint64) (bool, error) {
	for _, rec := range f.records {
		if rec.OrganisationID == orgID && rec.Active && rec.AutoRotating {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTokenStore) IncrementScanCount(ctx context.Context, id uint64) error {
	for _, rec := range f.records {
		if rec.ID == id {
			rec.ScanCount++
		}
	}
	return nil
}

func (f *fakeTokenStore) activeCount(orgID uint64) int {
	n := 0
	for _, rec := range f.records {
		if rec.OrganisationID == orgID && rec.Active {
			n++
		}
	}
	return n
}

type fakeOrgStore struct {
	orgs map[uint64]*orgModel.OrganisationModel
}

func (f *fakeOrgStore) FindByID(ctx context.Context, id uint64) (*orgModel.OrganisationModel, error) {
	return f.orgs[id], nil
}

func ptrFloat(v float64) *float64 { return &v }
func ptrInt(v int) *int           { return &v }

func newTestService(store *fakeTokenStore, org *orgModel.OrganisationModel) *TokenService {
	orgs := &fakeOrgStore{orgs: map[uint64]*orgModel.OrganisationModel{}}
	if org != nil {
		orgs.orgs[org.ID] = org
	}
	svc := NewTokenService(store, orgs, []byte("unit-test-secret"))
	return svc
}

func testOrg(id uint64) *orgModel.OrganisationModel {
	org := &orgModel.OrganisationModel{
		Name:      "Test Org",
		Latitude:  ptrFloat(5.60),
		Longitude: ptrFloat(-0.20),
	}
	org.ID = id
	return org
}

func TestIssueLeavesSingleActiveToken(t *testing.T) {
	store := newFakeTokenStore()
	svc := newTestService(store, testOrg(1))
	ctx := context.Background()

	first, err := svc.Issue(ctx, 9, 1, dto.StartQrCodeRequest{})
	if err != nil {
		t.Fatalf("first issue: %v", err)
	}
	second, err := svc.Issue(ctx, 9, 1, dto.StartQrCodeRequest{})
	if err != nil {
		t.Fatalf("second issue: %v", err)
	}

	if store.activeCount(1) != 1 {
		t.Fatalf("expected exactly one active token, got %d", store.activeCount(1))
	}
	got, _ := store.FindByID(ctx, first.ID)
	if got.Active {
		t.Fatal("first token should have been deactivated by reissue")
	}
	if !second.Active || !second.AutoRotating {
		t.Fatal("new token should be active and auto-rotating")
	}
	if second.Payload == nil || second.Signature == nil {
		t.Fatal("issued token should carry payload and signature")
	}
}

// The organisation lock is the only serialization point that exists even
// when the active set is empty; every mutating flow must take it before
// touching token rows.
func TestIssueTakesOrganisationLockBeforeWriting(t *testing.T) {
	store := newFakeTokenStore()
	svc := newTestService(store, testOrg(1))

	if _, err := svc.Issue(context.Background(), 9, 1, dto.StartQrCodeRequest{}); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if len(store.ops) == 0 || store.ops[0] != "lock" {
		t.Fatalf("ops = %v, want the organisation lock first", store.ops)
	}
	if indexOf(store.ops, "deactivate") > indexOf(store.ops, "create") {
		t.Fatalf("ops = %v, deactivate must precede create", store.ops)
	}
}

func TestGetCurrentActiveTakesOrganisationLockBeforeWriting(t *testing.T) {
	store := newFakeTokenStore()
	svc := newTestService(store, testOrg(1))

	// Empty active set: the lazy issue path has no token row to lock.
	if _, err := svc.GetCurrentActive(context.Background(), 1); err != nil {
		t.Fatalf("get current: %v", err)
	}
	if len(store.ops) == 0 || store.ops[0] != "lock" {
		t.Fatalf("ops = %v, want the organisation lock first", store.ops)
	}
	if indexOf(store.ops, "create") < 0 {
		t.Fatalf("ops = %v, want a create after the lock", store.ops)
	}
}

func TestStopTakesOrganisationLockBeforeWriting(t *testing.T) {
	store := newFakeTokenStore()
	svc := newTestService(store, testOrg(1))
	ctx := context.Background()

	if _, err := svc.Issue(ctx, 9, 1, dto.StartQrCodeRequest{}); err != nil {
		t.Fatalf("issue: %v", err)
	}
	store.ops = nil
	if err := svc.Stop(ctx, 1); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if len(store.ops) == 0 || store.ops[0] != "lock" {
		t.Fatalf("ops = %v, want the organisation lock first", store.ops)
	}
}

func indexOf(ops []string, op string) int {
	for i, o := range ops {
		if o == op {
			return i
		}
	}
	return -1
}

func TestIssueUnknownOrganisation(t *testing.T) {
	svc := newTestService(newFakeTokenStore(), nil)

	_, err := svc.Issue(context.Background(), 9, 404, dto.StartQrCodeRequest{})
	if !helper.IsAppCode(err, helper.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestIssueClampsRadius(t *testing.T) {
	cases := []struct {
		name string
		req  *int
		want int
	}{
		{"default", nil, configs.DefaultRadiusMeters},
		{"below minimum", ptrInt(3), configs.MinRadiusMeters},
		{"above maximum", ptrInt(5000), configs.MaxRadiusMeters},
		{"in range", ptrInt(250), 250},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newFakeTokenStore()
			svc := newTestService(store, testOrg(1))

			rec, err := svc.Issue(context.Background(), 9, 1, dto.StartQrCodeRequest{RadiusMeters: tc.req})
			if err != nil {
				t.Fatalf("issue: %v", err)
			}
			if rec.RadiusMeters != tc.want {
				t.Fatalf("radius = %d, want %d", rec.RadiusMeters, tc.want)
			}
		})
	}
}

func TestIssueCoordinateFallbacks(t *testing.T) {
	t.Run("request wins", func(t *testing.T) {
		svc := newTestService(newFakeTokenStore(), testOrg(1))
		rec, err := svc.Issue(context.Background(), 9, 1, dto.StartQrCodeRequest{
			Latitude:  ptrFloat(1.25),
			Longitude: ptrFloat(2.5),
		})
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		if rec.Latitude != 1.25 || rec.Longitude != 2.5 {
			t.Fatalf("got (%v, %v), want request coordinates", rec.Latitude, rec.Longitude)
		}
	})

	t.Run("organisation fallback", func(t *testing.T) {
		svc := newTestService(newFakeTokenStore(), testOrg(1))
		rec, err := svc.Issue(context.Background(), 9, 1, dto.StartQrCodeRequest{})
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		if rec.Latitude != 5.60 || rec.Longitude != -0.20 {
			t.Fatalf("got (%v, %v), want organisation coordinates", rec.Latitude, rec.Longitude)
		}
	})

	t.Run("configured default", func(t *testing.T) {
		org := testOrg(1)
		org.Latitude = nil
		org.Longitude = nil
		svc := newTestService(newFakeTokenStore(), org)
		rec, err := svc.Issue(context.Background(), 9, 1, dto.StartQrCodeRequest{})
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		if rec.Latitude != configs.DefaultLatitude || rec.Longitude != configs.DefaultLongitude {
			t.Fatalf("got (%v, %v), want configured defaults", rec.Latitude, rec.Longitude)
		}
	})
}

func TestGetCurrentActiveReusesFreshToken(t *testing.T) {
	store := newFakeTokenStore()
	svc := newTestService(store, testOrg(1))
	ctx := context.Background()

	issued, err := svc.Issue(ctx, 9, 1, dto.StartQrCodeRequest{})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	got, err := svc.GetCurrentActive(ctx, 1)
	if err != nil {
		t.Fatalf("get current: %v", err)
	}
	if got.ID != issued.ID {
		t.Fatalf("fresh token should be reused, got id %d want %d", got.ID, issued.ID)
	}
}

func TestGetCurrentActiveRefreshesExpiredToken(t *testing.T) {
	store := newFakeTokenStore()
	svc := newTestService(store, testOrg(1))
	ctx := context.Background()

	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { return base }
	issued, err := svc.Issue(ctx, 9, 1, dto.StartQrCodeRequest{RadiusMeters: ptrInt(300)})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	svc.Now = func() time.Time { return base.Add(configs.QRTokenTTL + time.Minute) }
	got, err := svc.GetCurrentActive(ctx, 1)
	if err != nil {
		t.Fatalf("get current: %v", err)
	}
	if got.ID == issued.ID {
		t.Fatal("expired token should have been replaced")
	}
	old, _ := store.FindByID(ctx, issued.ID)
	if old.Active {
		t.Fatal("expired token should have been deactivated")
	}
	// Replacement inherits the previous issuer settings.
	if got.RadiusMeters != 300 {
		t.Fatalf("replacement radius = %d, want inherited 300", got.RadiusMeters)
	}
	if got.CreatedByID == nil || *got.CreatedByID != 9 {
		t.Fatal("replacement should inherit the original issuer")
	}
}

func TestGetCurrentActiveIssuesWhenNoneExists(t *testing.T) {
	store := newFakeTokenStore()
	svc := newTestService(store, testOrg(1))

	got, err := svc.GetCurrentActive(context.Background(), 1)
	if err != nil {
		t.Fatalf("get current: %v", err)
	}
	if got == nil || !got.Active {
		t.Fatal("expected a freshly issued active token")
	}
	if store.activeCount(1) != 1 {
		t.Fatalf("expected one active token, got %d", store.activeCount(1))
	}
}

func TestStopClearsAutoRotation(t *testing.T) {
	store := newFakeTokenStore()
	svc := newTestService(store, testOrg(1))
	ctx := context.Background()

	if _, err := svc.Issue(ctx, 9, 1, dto.StartQrCodeRequest{}); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := svc.Stop(ctx, 1); err != nil {
		t.Fatalf("stop: %v", err)
	}

	if store.activeCount(1) != 0 {
		t.Fatal("stop should deactivate every active token")
	}
	rotating, err := svc.IsAutoRotating(ctx, 1)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if rotating {
		t.Fatal("rotation flag should be cleared after stop")
	}
}

func TestValidateAcceptsIssuedPayload(t *testing.T) {
	store := newFakeTokenStore()
	svc := newTestService(store, testOrg(1))
	ctx := context.Background()

	issued, err := svc.Issue(ctx, 9, 1, dto.StartQrCodeRequest{})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	rec, payload, err := svc.Validate(ctx, *issued.Payload)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if rec.ID != issued.ID {
		t.Fatalf("validated record id = %d, want %d", rec.ID, issued.ID)
	}
	if payload.OrganisationID != 1 {
		t.Fatalf("payload organisation = %d, want 1", payload.OrganisationID)
	}
}

func TestValidateRejectionLadder(t *testing.T) {
	store := newFakeTokenStore()
	svc := newTestService(store, testOrg(1))
	ctx := context.Background()

	issued, err := svc.Issue(ctx, 9, 1, dto.StartQrCodeRequest{})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	t.Run("garbage payload", func(t *testing.T) {
		_, _, err := svc.Validate(ctx, "{not json")
		if !helper.IsAppCode(err, helper.CodeInvalidPayload) {
			t.Fatalf("expected INVALID_PAYLOAD, got %v", err)
		}
	})

	t.Run("tampered signature", func(t *testing.T) {
		var payload dto.QrCodePayload
		if err := sonic.Unmarshal([]byte(*issued.Payload), &payload); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		payload.Signature = payload.Signature[:63] + "0"
		raw, _ := sonic.Marshal(payload)

		_, _, err := svc.Validate(ctx, string(raw))
		if !helper.IsAppCode(err, helper.CodeInvalidSignature) {
			t.Fatalf("expected INVALID_SIGNATURE, got %v", err)
		}
	})

	t.Run("forged organisation", func(t *testing.T) {
		// Re-signing for a different organisation without the key is the
		// attack; flipping the org id alone must break the signature.
		var payload dto.QrCodePayload
		if err := sonic.Unmarshal([]byte(*issued.Payload), &payload); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		payload.OrganisationID = 2
		raw, _ := sonic.Marshal(payload)

		_, _, err := svc.Validate(ctx, string(raw))
		if !helper.IsAppCode(err, helper.CodeInvalidSignature) {
			t.Fatalf("expected INVALID_SIGNATURE, got %v", err)
		}
	})

	t.Run("unknown token id", func(t *testing.T) {
		var payload dto.QrCodePayload
		if err := sonic.Unmarshal([]byte(*issued.Payload), &payload); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		payload.QrCodeID = 9999
		raw, _ := sonic.Marshal(payload)

		_, _, err := svc.Validate(ctx, string(raw))
		if !helper.IsAppCode(err, helper.CodeNotFound) {
			t.Fatalf("expected NOT_FOUND, got %v", err)
		}
	})

	t.Run("inactive token", func(t *testing.T) {
		if err := store.Deactivate(ctx, issued.ID); err != nil {
			t.Fatalf("deactivate: %v", err)
		}
		_, _, err := svc.Validate(ctx, *issued.Payload)
		if !helper.IsAppCode(err, helper.CodeInactive) {
			t.Fatalf("expected INACTIVE, got %v", err)
		}
	})
}

func TestValidateExpiredTokenDeactivates(t *testing.T) {
	store := newFakeTokenStore()
	svc := newTestService(store, testOrg(1))
	ctx := context.Background()

	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { return base }
	issued, err := svc.Issue(ctx, 9, 1, dto.StartQrCodeRequest{})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	svc.Now = func() time.Time { return base.Add(configs.QRTokenTTL + time.Second) }
	_, _, err = svc.Validate(ctx, *issued.Payload)
	if !helper.IsAppCode(err, helper.CodeExpired) {
		t.Fatalf("expected EXPIRED, got %v", err)
	}

	rec, _ := store.FindByID(ctx, issued.ID)
	if rec.Active {
		t.Fatal("expired token should be deactivated as a validation side effect")
	}
}

func TestIncrementScan(t *testing.T) {
	store := newFakeTokenStore()
	svc := newTestService(store, testOrg(1))
	ctx := context.Background()

	issued, err := svc.Issue(ctx, 9, 1, dto.StartQrCodeRequest{})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := svc.IncrementScan(ctx, issued.ID); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if err := svc.IncrementScan(ctx, issued.ID); err != nil {
		t.Fatalf("increment: %v", err)
	}

	rec, _ := store.FindByID(ctx, issued.ID)
	if rec.ScanCount != 2 {
		t.Fatalf("scan count = %d, want 2", rec.ScanCount)
	}
}
