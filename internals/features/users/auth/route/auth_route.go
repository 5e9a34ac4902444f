package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"smartattendance_backend/internals/configs"
	"smartattendance_backend/internals/features/users/auth/controller"
	"smartattendance_backend/internals/features/users/auth/service"
	userRepository "smartattendance_backend/internals/features/users/user/repository"
	"smartattendance_backend/internals/middlewares"
	authMiddleware "smartattendance_backend/internals/middlewares/auth"
)

func AuthRoutes(api fiber.Router, db *gorm.DB) {
	svc := service.NewAuthService(userRepository.NewUserRepository(db), []byte(configs.JWTSecret))
	ctrl := controller.NewAuthController(svc)

	auth := api.Group("/auth")
	auth.Post("/login", middlewares.LoginRateLimiter(), ctrl.Login)
	auth.Get("/me", authMiddleware.AuthMiddleware(), ctrl.Me)
}
