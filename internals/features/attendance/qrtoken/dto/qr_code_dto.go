package dto

import (
	"time"

	"smartattendance_backend/internals/features/attendance/qrtoken/model"
)

// QrCodePayload is the wire format a scanning client QR-encodes and later
// submits verbatim. Field names and shapes are part of the public contract;
// ExpiresAt serializes as an ISO-8601 instant.
type QrCodePayload struct {
	QrCodeID              uint64    `json:"qrCodeId"`
	OrganisationID        uint64    `json:"organisationId"`
	OrganisationLatitude  float64   `json:"organisationLatitude"`
	OrganisationLongitude float64   `json:"organisationLongitude"`
	ExpiresAt             time.Time `json:"expiresAt"`
	Signature             string    `json:"signature"`
}

// StartQrCodeRequest starts rotation for the admin's organisation.
// Coordinates and radius are optional; the service resolves fallbacks and
// clamps the radius rather than rejecting it.
type StartQrCodeRequest struct {
	Latitude     *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude    *float64 `json:"longitude" validate:"omitempty,longitude"`
	RadiusMeters *int     `json:"radius_meters" validate:"omitempty"`
}

type QrCodeResponse struct {
	ID           uint64    `json:"id"`
	Code         string    `json:"code"`
	Payload      string    `json:"payload"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	RadiusMeters int       `json:"radius_meters"`
	ExpiresAt    time.Time `json:"expires_at"`
	Active       bool      `json:"active"`
	AutoRotating bool      `json:"auto_rotating"`
	ScanCount    int       `json:"scan_count"`
}

type QrStatusResponse struct {
	AutoRotating bool `json:"auto_rotating"`
}

func ToQrCodeResponse(rec *model.QrCodeRecordModel) QrCodeResponse {
	payload := ""
	if rec.Payload != nil {
		payload = *rec.Payload
	}
	return QrCodeResponse{
		ID:           rec.ID,
		Code:         rec.Code,
		Payload:      payload,
		Latitude:     rec.Latitude,
		Longitude:    rec.Longitude,
		RadiusMeters: rec.RadiusMeters,
		ExpiresAt:    rec.ExpiresAt,
		Active:       rec.Active,
		AutoRotating: rec.AutoRotating,
		ScanCount:    rec.ScanCount,
	}
}
