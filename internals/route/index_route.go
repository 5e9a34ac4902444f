package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	qrRoute "smartattendance_backend/internals/features/attendance/qrtoken/route"
	attendanceRoute "smartattendance_backend/internals/features/attendance/records/route"
	authRoute "smartattendance_backend/internals/features/users/auth/route"
)

// SetupRoutes mounts every feature group under /api.
func SetupRoutes(app *fiber.App, db *gorm.DB) {
	BaseRoutes(app)

	api := app.Group("/api")
	authRoute.AuthRoutes(api, db)
	qrRoute.QrTokenRoutes(api, db)
	attendanceRoute.AttendanceRoutes(api, db)
}
