package middleware

import (
	"github.com/gofiber/fiber/v2"
)

// RequireRole returns a middleware that lets through only users carrying the
// given role tag. It must run after JWTMiddleware.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := CurrentUser(c)
		if err != nil {
			return ErrorResponse(c, err)
		}
		if user == nil {
			return JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized: User not found", nil)
		}
		if !user.HasRole(role) {
			return JsonResponse(c, fiber.StatusForbidden, false, "You do not have permission to access this resource!", nil)
		}
		return c.Next()
	}
}
