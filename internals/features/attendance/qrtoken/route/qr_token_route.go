package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"smartattendance_backend/internals/configs"
	"smartattendance_backend/internals/features/attendance/qrtoken/controller"
	"smartattendance_backend/internals/features/attendance/qrtoken/repository"
	"smartattendance_backend/internals/features/attendance/qrtoken/service"
	orgRepository "smartattendance_backend/internals/features/organisations/organisation/repository"
	authMiddleware "smartattendance_backend/internals/middlewares/auth"
)

func QrTokenRoutes(api fiber.Router, db *gorm.DB) {
	svc := service.NewTokenService(
		repository.NewTokenRepository(db),
		orgRepository.NewOrganisationRepository(db),
		[]byte(configs.QRSigningSecret),
	)
	ctrl := controller.NewQrTokenController(svc)

	qr := api.Group("/qrcode", authMiddleware.AuthMiddleware())

	// Admin-only rotation control
	admin := qr.Group("", authMiddleware.RequireRoles(authMiddleware.RoleAdmin, authMiddleware.RoleSuperAdmin))
	admin.Post("/start", ctrl.Start)
	admin.Post("/stop", ctrl.Stop)
	admin.Get("/status", ctrl.Status)

	// Any authenticated member of the organisation can fetch the code
	qr.Get("/active", ctrl.Active)
	qr.Get("/active/image", ctrl.ActiveImage)
}
