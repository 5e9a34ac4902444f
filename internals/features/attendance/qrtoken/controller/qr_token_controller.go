package controller

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	qrcode "github.com/skip2/go-qrcode"

	"smartattendance_backend/internals/features/attendance/qrtoken/dto"
	"smartattendance_backend/internals/features/attendance/qrtoken/service"
	helper "smartattendance_backend/internals/helpers"
)

type QrTokenController struct {
	Service  *service.TokenService
	validate *validator.Validate
}

func NewQrTokenController(svc *service.TokenService) *QrTokenController {
	return &QrTokenController{Service: svc, validate: validator.New()}
}

// POST /api/qrcode/start (admin)
func (qc *QrTokenController) Start(c *fiber.Ctx) error {
	adminID, orgID, err := callerContext(c)
	if err != nil {
		return err
	}

	var req dto.StartQrCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := qc.validate.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	rec, err := qc.Service.Issue(c.UserContext(), adminID, orgID, req)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.SuccessWithCode(c, fiber.StatusCreated, "QR rotation started", dto.ToQrCodeResponse(rec))
}

// POST /api/qrcode/stop (admin)
func (qc *QrTokenController) Stop(c *fiber.Ctx) error {
	_, orgID, err := callerContext(c)
	if err != nil {
		return err
	}
	if err := qc.Service.Stop(c.UserContext(), orgID); err != nil {
		return helper.FromError(c, err)
	}
	return helper.Success(c, "QR rotation stopped", nil)
}

// GET /api/qrcode/active. Lazy refresh keeps this always serving a live token.
func (qc *QrTokenController) Active(c *fiber.Ctx) error {
	_, orgID, err := callerContext(c)
	if err != nil {
		return err
	}
	rec, err := qc.Service.GetCurrentActive(c.UserContext(), orgID)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.Success(c, "Active QR token", dto.ToQrCodeResponse(rec))
}

// GET /api/qrcode/active/image renders the active token's payload as PNG.
func (qc *QrTokenController) ActiveImage(c *fiber.Ctx) error {
	_, orgID, err := callerContext(c)
	if err != nil {
		return err
	}
	rec, err := qc.Service.GetCurrentActive(c.UserContext(), orgID)
	if err != nil {
		return helper.FromError(c, err)
	}
	if rec.Payload == nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Token payload missing")
	}

	png, err := qrcode.Encode(*rec.Payload, qrcode.Medium, 320)
	if err != nil {
		return helper.FromError(c, err)
	}
	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(png)
}

// GET /api/qrcode/status (admin)
func (qc *QrTokenController) Status(c *fiber.Ctx) error {
	_, orgID, err := callerContext(c)
	if err != nil {
		return err
	}
	rotating, err := qc.Service.IsAutoRotating(c.UserContext(), orgID)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.Success(c, "QR status", dto.QrStatusResponse{AutoRotating: rotating})
}

// callerContext pulls the authenticated user id and explicit organisation
// context placed by the auth middleware.
func callerContext(c *fiber.Ctx) (userID uint64, orgID uint64, err error) {
	userID, ok := c.Locals("user_id").(uint64)
	if !ok {
		return 0, 0, fiber.NewError(fiber.StatusUnauthorized, "Invalid user context")
	}
	orgID, ok = c.Locals("organisation_id").(uint64)
	if !ok {
		return 0, 0, fiber.NewError(fiber.StatusUnauthorized, "No organisation context")
	}
	return userID, orgID, nil
}
