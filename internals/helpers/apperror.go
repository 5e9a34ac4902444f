package helper

import (
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/gofiber/fiber/v2"
)

// Stable machine-readable rejection codes. Every user-facing rejection in
// the attendance core maps to exactly one of these.
const (
	CodeInvalidPayload      = "INVALID_PAYLOAD"
	CodeInvalidSignature    = "INVALID_SIGNATURE"
	CodeNotFound            = "NOT_FOUND"
	CodeInactive            = "INACTIVE"
	CodeWrongOrganisation   = "WRONG_ORGANISATION"
	CodeExpired             = "EXPIRED"
	CodeLocationRequired    = "LOCATION_REQUIRED"
	CodeWrongOrganisationQR = "WRONG_ORGANISATION_QR"
	CodeAlreadyCheckedIn    = "ALREADY_CHECKED_IN"
	CodeNoOpenSession       = "NO_OPEN_SESSION"
	CodeAlreadyCheckedOut   = "ALREADY_CHECKED_OUT"
	CodeTooFar              = "TOO_FAR"
	CodeInvalidCheckoutTime = "INVALID_CHECKOUT_TIME"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
)

// AppError is a recoverable, user-facing rejection. Anything else that
// reaches the boundary is treated as an internal error.
type AppError struct {
	Status  int     `json:"-"`
	Code    string  `json:"code"`
	Message string  `json:"message"`
	Meters  float64 `json:"meters,omitempty"` // only set on geofence rejections
}

func (e *AppError) Error() string { return e.Message }

func NewAppError(status int, code, message string) *AppError {
	return &AppError{Status: status, Code: code, Message: message}
}

func ValidationErr(code, message string) *AppError {
	return NewAppError(fiber.StatusBadRequest, code, message)
}

func SecurityErr(code, message string) *AppError {
	return NewAppError(fiber.StatusUnauthorized, code, message)
}

func NotFoundErr(message string) *AppError {
	return NewAppError(fiber.StatusNotFound, CodeNotFound, message)
}

func ConflictErr(code, message string) *AppError {
	return NewAppError(fiber.StatusConflict, code, message)
}

func ExpiredErr(message string) *AppError {
	return NewAppError(fiber.StatusGone, CodeExpired, message)
}

// GeofenceErr carries the computed distance for the user-facing message.
func GeofenceErr(distanceMeters float64) *AppError {
	rounded := math.Round(distanceMeters)
	e := NewAppError(fiber.StatusBadRequest, CodeTooFar,
		fmt.Sprintf("You are too far (%.0f meters away)", rounded))
	e.Meters = rounded
	return e
}

func IsAppCode(err error, code string) bool {
	var ae *AppError
	return errors.As(err, &ae) && ae.Code == code
}

// FromError renders a service error through the JSON envelope.
// AppError and *fiber.Error keep their status; anything else becomes a
// generic 500 so internals never leak to the caller.
func FromError(c *fiber.Ctx, err error) error {
	var ae *AppError
	if errors.As(err, &ae) {
		body := fiber.Map{
			"code":    ae.Status,
			"status":  "error",
			"error":   ae.Code,
			"message": ae.Message,
		}
		if ae.Meters > 0 {
			body["meters"] = ae.Meters
		}
		return c.Status(ae.Status).JSON(body)
	}
	if fe, ok := err.(*fiber.Error); ok {
		return Error(c, fe.Code, fe.Message)
	}
	log.Printf("[ERROR] unexpected: %v", err)
	return Error(c, fiber.StatusInternalServerError, "Internal server error")
}
