package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/bloomdesk/internal/session"
)

const sessionContextKey = "currentSession"

// Authenticator resolves a bearer token to a live session.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*session.Session, error)
}

// AuthMiddleware validates bearer tokens and loads the operator session into context.
func AuthMiddleware(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
		}

		sess, err := auth.Authenticate(c.UserContext(), strings.TrimSpace(parts[1]))
		if err != nil {
			return err
		}

		c.Locals(sessionContextKey, sess)
		return c.Next()
	}
}

// GetSession extracts the authenticated session from context.
func GetSession(c *fiber.Ctx) (*session.Session, bool) {
	sess, ok := c.Locals(sessionContextKey).(*session.Session)
	return sess, ok && sess != nil
}
