package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"smartattendance_backend/internals/configs"
	qrRepository "smartattendance_backend/internals/features/attendance/qrtoken/repository"
	qrService "smartattendance_backend/internals/features/attendance/qrtoken/service"
	"smartattendance_backend/internals/features/attendance/records/controller"
	"smartattendance_backend/internals/features/attendance/records/repository"
	"smartattendance_backend/internals/features/attendance/records/service"
	orgRepository "smartattendance_backend/internals/features/organisations/organisation/repository"
	userRepository "smartattendance_backend/internals/features/users/user/repository"
	authMiddleware "smartattendance_backend/internals/middlewares/auth"
)

func AttendanceRoutes(api fiber.Router, db *gorm.DB) {
	users := userRepository.NewUserRepository(db)
	orgs := orgRepository.NewOrganisationRepository(db)
	tokens := qrService.NewTokenService(
		qrRepository.NewTokenRepository(db),
		orgs,
		[]byte(configs.QRSigningSecret),
	)
	svc := service.NewAttendanceService(repository.NewAttendanceRepository(db), tokens, users, orgs)

	ctrl := controller.NewAttendanceController(svc, users)
	adminCtrl := controller.NewAdminAttendanceController(svc)

	att := api.Group("/attendance", authMiddleware.AuthMiddleware())
	att.Post("/check-in", ctrl.CheckIn)
	att.Post("/check-out", ctrl.CheckOut)
	att.Post("/qr/check-in", ctrl.QrCheckIn)
	att.Post("/qr/check-out", ctrl.QrCheckOut)
	att.Get("/today", ctrl.Today)
	att.Get("/recent", ctrl.Recent)
	att.Get("/history", ctrl.History)
	att.Get("/report", ctrl.Report)
	att.Get("/report/export", ctrl.ReportExport)

	admin := api.Group("/admin/attendance",
		authMiddleware.AuthMiddleware(),
		authMiddleware.RequireRoles(authMiddleware.RoleAdmin, authMiddleware.RoleSuperAdmin),
	)
	admin.Get("", adminCtrl.Records)
	admin.Get("/report", adminCtrl.Report)
	admin.Get("/report/export", adminCtrl.ReportExport)
	admin.Put("/:id/checkout", adminCtrl.UpdateCheckOut)
	admin.Delete("/:id", adminCtrl.Delete)
}
