package controller

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"smartattendance_backend/internals/features/users/auth/dto"
	"smartattendance_backend/internals/features/users/auth/service"
	helper "smartattendance_backend/internals/helpers"
)

type AuthController struct {
	Service  *service.AuthService
	validate *validator.Validate
}

func NewAuthController(svc *service.AuthService) *AuthController {
	return &AuthController{Service: svc, validate: validator.New()}
}

// POST /api/auth/login
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := ac.validate.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	resp, err := ac.Service.Login(c.UserContext(), req)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.Success(c, "Login successful", resp)
}

// GET /api/auth/me
func (ac *AuthController) Me(c *fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(uint64)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid user context")
	}

	info, err := ac.Service.Profile(c.UserContext(), userID)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.Success(c, "Current user", info)
}
