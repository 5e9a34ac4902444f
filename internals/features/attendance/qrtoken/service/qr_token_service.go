package service

import (
	"context"
	"log"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"

	"smartattendance_backend/internals/configs"
	"smartattendance_backend/internals/features/attendance/qrtoken/dto"
	"smartattendance_backend/internals/features/attendance/qrtoken/model"
	orgModel "smartattendance_backend/internals/features/organisations/organisation/model"
	helper "smartattendance_backend/internals/helpers"
)

// TokenStore is the persistence boundary for QR token records.
type TokenStore interface {
	// Transact runs fn inside one transaction; the TokenStore passed to fn
	// is bound to that transaction.
	Transact(ctx context.Context, fn func(tx TokenStore) error) error

	// LockOrganisation takes an exclusive lock on the organisation row for
	// the duration of the surrounding transaction. Locking the token rows
	// themselves is not enough: when the organisation has no active token
	// there is no row to lock, and two issuers could both observe the empty
	// set and each create an active token.
	LockOrganisation(ctx context.Context, orgID uint64) error

	Create(ctx context.Context, rec *model.QrCodeRecordModel) error
	Save(ctx context.Context, rec *model.QrCodeRecordModel) error
	// FindByID returns (nil, nil) when the id is unknown.
	FindByID(ctx context.Context, id uint64) (*model.QrCodeRecordModel, error)
	ActiveByOrganisation(ctx context.Context, orgID uint64) ([]model.QrCodeRecordModel, error)
	// DeactivateByOrganisation is idempotent; deactivating zero rows is fine.
	DeactivateByOrganisation(ctx context.Context, orgID uint64, clearAutoRotating bool) error
	// Deactivate is idempotent on already-inactive rows.
	Deactivate(ctx context.Context, id uint64) error
	ActiveAutoRotating(ctx context.Context) ([]model.QrCodeRecordModel, error)
	HasActiveAutoRotating(ctx context.Context, orgID uint64) (bool, error)
	IncrementScanCount(ctx context.Context, id uint64) error
}

type OrganisationStore interface {
	// FindByID returns (nil, nil) when the organisation is unknown.
	FindByID(ctx context.Context, id uint64) (*orgModel.OrganisationModel, error)
}

// TokenService owns issuance, validation, rotation stop and lazy refresh of
// QR tokens. Stateless beyond its injected dependencies; construct once.
type TokenService struct {
	Store  TokenStore
	Orgs   OrganisationStore
	Secret []byte
	Now    func() time.Time
}

func NewTokenService(store TokenStore, orgs OrganisationStore, secret []byte) *TokenService {
	return &TokenService{Store: store, Orgs: orgs, Secret: secret, Now: time.Now}
}

// Issue starts rotation for the organisation: any currently active token is
// deactivated and a fresh 5-minute token is created, all in one transaction
// with the organisation row locked so two racing issuers serialize and
// cannot leave two active rows.
func (s *TokenService) Issue(ctx context.Context, adminID, orgID uint64, req dto.StartQrCodeRequest) (*model.QrCodeRecordModel, error) {
	org, err := s.Orgs.FindByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, helper.NotFoundErr("Organisation not found")
	}

	var rec *model.QrCodeRecordModel
	err = s.Store.Transact(ctx, func(tx TokenStore) error {
		if err := tx.LockOrganisation(ctx, orgID); err != nil {
			return err
		}
		if err := tx.DeactivateByOrganisation(ctx, orgID, false); err != nil {
			return err
		}

		now := s.Now()
		rec = &model.QrCodeRecordModel{
			Code:           GenerateUniqueCode(),
			OrganisationID: orgID,
			CreatedByID:    &adminID,
			Latitude:       resolveLatitude(org, req.Latitude),
			Longitude:      resolveLongitude(org, req.Longitude),
			RadiusMeters:   clampRadius(req.RadiusMeters),
			ExpiresAt:      now.Add(configs.QRTokenTTL),
			Active:         true,
			AutoRotating:   true,
			ScanCount:      0,
		}
		if err := tx.Create(ctx, rec); err != nil {
			return err
		}
		// Signature and payload embed the persisted id, so they are set in a
		// second write after Create assigns it.
		return s.attachPayload(ctx, tx, rec)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// GetCurrentActive returns the organisation's active token, lazily issuing a
// replacement when none exists or the current one has expired. Safe under
// concurrent callers and against the sweeper: deactivation is idempotent and
// the whole refresh runs with the organisation row locked, so a caller that
// waited on the lock re-reads and finds the replacement instead of creating
// another one.
func (s *TokenService) GetCurrentActive(ctx context.Context, orgID uint64) (*model.QrCodeRecordModel, error) {
	org, err := s.Orgs.FindByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, helper.NotFoundErr("Organisation not found")
	}

	var rec *model.QrCodeRecordModel
	err = s.Store.Transact(ctx, func(tx TokenStore) error {
		if err := tx.LockOrganisation(ctx, orgID); err != nil {
			return err
		}
		active, err := tx.ActiveByOrganisation(ctx, orgID)
		if err != nil {
			return err
		}

		if len(active) == 0 {
			rec, err = s.createFresh(ctx, tx, org, nil)
			return err
		}

		current := active[0]
		if current.IsExpired(s.Now()) {
			log.Printf("[QR] active token expired for org %d, refreshing", orgID)
			if err := tx.Deactivate(ctx, current.ID); err != nil {
				return err
			}
			rec, err = s.createFresh(ctx, tx, org, &current)
			return err
		}

		if current.Payload == nil || current.Signature == nil {
			if err := s.attachPayload(ctx, tx, &current); err != nil {
				return err
			}
		}
		rec = &current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Stop deactivates every active token for the organisation and clears the
// auto-rotating flag so the sweeper and lazy refresh leave it alone.
func (s *TokenService) Stop(ctx context.Context, orgID uint64) error {
	return s.Store.Transact(ctx, func(tx TokenStore) error {
		if err := tx.LockOrganisation(ctx, orgID); err != nil {
			return err
		}
		if err := tx.DeactivateByOrganisation(ctx, orgID, true); err != nil {
			return err
		}
		log.Printf("[QR] stopped rotation for org %d", orgID)
		return nil
	})
}

func (s *TokenService) IsAutoRotating(ctx context.Context, orgID uint64) (bool, error) {
	return s.Store.HasActiveAutoRotating(ctx, orgID)
}

// Validate checks a scanned payload: parse, signature, existence, active
// flag, organisation binding, expiry, in that order, so a bad signature
// never reaches the later steps. The geofence check stays with the caller.
func (s *TokenService) Validate(ctx context.Context, rawPayload string) (*model.QrCodeRecordModel, *dto.QrCodePayload, error) {
	var payload dto.QrCodePayload
	if err := sonic.Unmarshal([]byte(rawPayload), &payload); err != nil {
		return nil, nil, helper.ValidationErr(helper.CodeInvalidPayload, "Invalid QR payload")
	}

	expected := Sign(s.Secret, payload.OrganisationID, payload.ExpiresAt)
	if !SignatureEqual(expected, payload.Signature) {
		return nil, nil, helper.SecurityErr(helper.CodeInvalidSignature, "Invalid signature")
	}

	rec, err := s.Store.FindByID(ctx, payload.QrCodeID)
	if err != nil {
		return nil, nil, err
	}
	if rec == nil {
		return nil, nil, helper.NotFoundErr("QR code not found")
	}

	if !rec.Active {
		return nil, nil, helper.NewAppError(fiber.StatusConflict, helper.CodeInactive, "This QR code is no longer active")
	}

	if rec.OrganisationID != payload.OrganisationID {
		return nil, nil, helper.SecurityErr(helper.CodeWrongOrganisation, "Wrong organisation QR")
	}

	if rec.IsExpired(s.Now()) {
		if err := s.Store.Deactivate(ctx, rec.ID); err != nil {
			return nil, nil, err
		}
		return nil, nil, helper.ExpiredErr("Expired QR code")
	}

	return rec, &payload, nil
}

// IncrementScan bumps the token's scan counter atomically at the storage
// layer; callers invoke it only after an accepted validation.
func (s *TokenService) IncrementScan(ctx context.Context, tokenID uint64) error {
	return s.Store.IncrementScanCount(ctx, tokenID)
}

func (s *TokenService) createFresh(ctx context.Context, tx TokenStore, org *orgModel.OrganisationModel, previous *model.QrCodeRecordModel) (*model.QrCodeRecordModel, error) {
	now := s.Now()
	rec := &model.QrCodeRecordModel{
		Code:           GenerateUniqueCode(),
		OrganisationID: org.ID,
		Latitude:       resolveLatitude(org, nil),
		Longitude:      resolveLongitude(org, nil),
		RadiusMeters:   configs.DefaultRadiusMeters,
		ExpiresAt:      now.Add(configs.QRTokenTTL),
		Active:         true,
		AutoRotating:   true,
		ScanCount:      0,
	}
	if previous != nil {
		rec.CreatedByID = previous.CreatedByID
		rec.Latitude = previous.Latitude
		rec.Longitude = previous.Longitude
		rec.RadiusMeters = previous.RadiusMeters
	}
	if err := tx.Create(ctx, rec); err != nil {
		return nil, err
	}
	if err := s.attachPayload(ctx, tx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *TokenService) attachPayload(ctx context.Context, tx TokenStore, rec *model.QrCodeRecordModel) error {
	sig := Sign(s.Secret, rec.OrganisationID, rec.ExpiresAt)
	payload := dto.QrCodePayload{
		QrCodeID:              rec.ID,
		OrganisationID:        rec.OrganisationID,
		OrganisationLatitude:  rec.Latitude,
		OrganisationLongitude: rec.Longitude,
		ExpiresAt:             rec.ExpiresAt,
		Signature:             sig,
	}
	raw, err := sonic.Marshal(payload)
	if err != nil {
		return err
	}
	body := string(raw)
	rec.Signature = &sig
	rec.Payload = &body
	return tx.Save(ctx, rec)
}

func resolveLatitude(org *orgModel.OrganisationModel, requested *float64) float64 {
	if requested != nil {
		return *requested
	}
	if org.Latitude != nil {
		return *org.Latitude
	}
	log.Printf("[QR] org %d has no reference latitude, using default", org.ID)
	return configs.DefaultLatitude
}

func resolveLongitude(org *orgModel.OrganisationModel, requested *float64) float64 {
	if requested != nil {
		return *requested
	}
	if org.Longitude != nil {
		return *org.Longitude
	}
	return configs.DefaultLongitude
}

func clampRadius(requested *int) int {
	if requested == nil {
		return configs.DefaultRadiusMeters
	}
	r := *requested
	if r < configs.MinRadiusMeters {
		return configs.MinRadiusMeters
	}
	if r > configs.MaxRadiusMeters {
		return configs.MaxRadiusMeters
	}
	return r
}
