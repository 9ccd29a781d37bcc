package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"saccolink/internal/core/scope"
	"saccolink/internal/core/services"
	"saccolink/internal/pkg/jwt"
	"saccolink/internal/pkg/response"
)

// PrincipalKey is the locals key holding the resolved principal
const PrincipalKey = "principal"

// AuthMiddleware creates authentication middleware. The user row is
// re-loaded on every request so deactivating a user or a sacco takes
// effect immediately, not at token expiry.
func AuthMiddleware(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var accessToken string

		// 1. Try to get token from cookie first
		accessToken = c.Cookies("access_token")

		// 2. If not in cookie, try Authorization header
		if accessToken == "" {
			authHeader := c.Get("Authorization")
			if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
				accessToken = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		// 3. No token found
		if accessToken == "" {
			return response.Unauthorized(c, "Access token required")
		}

		// 4. Validate token
		claims, err := authService.ValidateAccessToken(accessToken)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return response.Unauthorized(c, "Access token expired")
			}
			return response.Unauthorized(c, "Invalid access token")
		}

		// 5. Re-load the user so mid-session deactivation is honored
		user, err := authService.GetUserByID(c.Context(), claims.UserID)
		if err != nil {
			return response.Unauthorized(c, "Invalid access token")
		}
		if !user.IsActive {
			return response.Unauthorized(c, "Account is deactivated")
		}
		if err := authService.CheckSaccoActive(c.Context(), user); err != nil {
			if errors.Is(err, services.ErrSaccoDeactivated) {
				return response.Forbidden(c, "Sacco is deactivated")
			}
			return response.InternalServerError(c, "Failed to verify account")
		}

		// 6. Set principal in context
		c.Locals(PrincipalKey, scope.FromUser(user))

		return c.Next()
	}
}

// GetPrincipal returns the principal stored by AuthMiddleware. The zero
// principal (unauthenticated) is returned when the middleware did not run.
func GetPrincipal(c *fiber.Ctx) scope.Principal {
	p, _ := c.Locals(PrincipalKey).(scope.Principal)
	return p
}

// RoleMiddleware creates role-based authorization middleware
func RoleMiddleware(allowedRoles ...scope.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := GetPrincipal(c)
		if !p.Authenticated {
			return response.Unauthorized(c, "Unauthorized")
		}

		for _, allowed := range allowedRoles {
			if p.Role == allowed {
				return c.Next()
			}
		}

		return response.Forbidden(c, "You don't have permission to access this resource")
	}
}

// SystemAdminOnly allows only system administrators
func SystemAdminOnly() fiber.Handler {
	return RoleMiddleware(scope.RoleSystemAdmin)
}

// RegionalOrAbove allows regional and system administrators
func RegionalOrAbove() fiber.Handler {
	return RoleMiddleware(scope.RoleSystemAdmin, scope.RoleRegionalAdmin)
}

// StaffOnly allows any administrator role, excludes plain members
func StaffOnly() fiber.Handler {
	return RoleMiddleware(scope.RoleSystemAdmin, scope.RoleRegionalAdmin, scope.RoleSaccoAdmin)
}
