package auth

import (
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"

	"smartattendance_backend/internals/configs"
)

// AuthMiddleware verifies the bearer token and places the claims the
// attendance core needs (user id, role, organisation context) into Locals.
func AuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, err := extractBearerToken(c)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}

		secretKey := configs.JWTSecret
		if secretKey == "" {
			log.Println("[ERROR] JWT_SECRET is empty")
			return fiber.NewError(fiber.StatusInternalServerError, "Missing JWT secret")
		}

		claims := jwt.MapClaims{}
		if _, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secretKey), nil
		}); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - invalid token")
		}

		if exp, ok := claims["exp"].(float64); ok {
			if time.Now().After(time.Unix(int64(exp), 0)) {
				return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - token expired")
			}
		}

		userID, ok := claims["user_id"].(float64)
		if !ok || userID <= 0 {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - invalid user id")
		}
		c.Locals("user_id", uint64(userID))

		if role, ok := claims["role"].(string); ok {
			c.Locals("role", role)
		}

		// Organisation context is an explicit claim, never ambient state.
		if orgID, ok := claims["organisation_id"].(float64); ok && orgID > 0 {
			c.Locals("organisation_id", uint64(orgID))
		}

		return c.Next()
	}
}

func extractBearerToken(c *fiber.Ctx) (string, error) {
	header := c.Get("Authorization")
	if header == "" {
		return "", fiber.NewError(fiber.StatusUnauthorized, "Missing Authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", fiber.NewError(fiber.StatusUnauthorized, "Invalid Authorization header")
	}
	return parts[1], nil
}
