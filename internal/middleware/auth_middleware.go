package middleware

import (
	"crypto/subtle"
	"errors"
	"strings"

	"komagene-kasa/internal/model"
	"komagene-kasa/internal/repository"
	"komagene-kasa/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// WebhookSecretHeader carries the shared secret of the order import hook.
const WebhookSecretHeader = "X-Webhook-Secret"

// SessionSource exposes the profile of the device session.
type SessionSource interface {
	UserProfile() *model.UserProfile
}

// RequireAuth is middleware that validates JWT token and sets user info in context.
// When the remote database cannot be reached, a token belonging to the
// device's active profile is still accepted so the till keeps working offline.
func RequireAuth(userRepo repository.UserRepository, session SessionSource) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(401).JSON(fiber.Map{"error": "Missing authorization token"})
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid authorization format. Use: Bearer <token>"})
		}

		claims, err := jwt.ValidateToken(parts[1])
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid or expired token"})
		}

		// The device holds one branch's data.
		if profile := session.UserProfile(); profile != nil && profile.BranchID != "" && profile.BranchID != claims.BranchID {
			return c.Status(403).JSON(fiber.Map{"error": "Token belongs to another branch"})
		}

		user, err := userRepo.FindByID(claims.UserID)
		switch {
		case err == nil:
			if !user.IsActive {
				return c.Status(401).JSON(fiber.Map{"error": "Account disabled"})
			}
			if user.TokenVersion != claims.TokenVersion {
				return c.Status(401).JSON(fiber.Map{"error": "Session expired (logged in on another device)"})
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			return c.Status(401).JSON(fiber.Map{"error": "User not found"})
		default:
			profile := session.UserProfile()
			if profile == nil || profile.ID != claims.UserID.String() {
				return c.Status(401).JSON(fiber.Map{"error": "Session not available offline"})
			}
			c.Locals("offline", true)
		}

		c.Locals("user_id", claims.UserID.String())
		c.Locals("user_email", claims.Email)
		c.Locals("user_name", claims.Name)
		c.Locals("branch_id", claims.BranchID)
		c.Locals("role_code", claims.RoleCode)
		c.Locals("user_privileges", claims.Privileges)

		return c.Next()
	}
}

// RequirePrivilege checks if the authenticated user has the required privilege
func RequirePrivilege(requiredPrivilege string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		privileges, ok := c.Locals("user_privileges").([]string)
		if !ok {
			return c.Status(403).JSON(fiber.Map{"error": "No privileges found"})
		}

		for _, p := range privileges {
			if p == requiredPrivilege {
				return c.Next()
			}
		}

		return c.Status(403).JSON(fiber.Map{
			"error": "Forbidden: requires '" + requiredPrivilege + "' privilege",
		})
	}
}

// RequireAnyPrivilege checks if the user has at least one of the specified privileges
func RequireAnyPrivilege(requiredPrivileges ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		privileges, ok := c.Locals("user_privileges").([]string)
		if !ok {
			return c.Status(403).JSON(fiber.Map{"error": "No privileges found"})
		}

		for _, userPriv := range privileges {
			for _, reqPriv := range requiredPrivileges {
				if userPriv == reqPriv {
					return c.Next()
				}
			}
		}

		return c.Status(403).JSON(fiber.Map{
			"error": "Forbidden: requires one of " + strings.Join(requiredPrivileges, ", ") + " privileges",
		})
	}
}

// RequireWebhookSecret guards the extension endpoints. With no secret
// configured the hook is disabled.
func RequireWebhookSecret(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if secret == "" {
			return c.Status(503).JSON(fiber.Map{"error": "Order import is not configured"})
		}
		got := c.Get(WebhookSecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid webhook secret"})
		}
		return c.Next()
	}
}
