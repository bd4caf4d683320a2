package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/bloomdesk/internal/middleware"
	"github.com/example/bloomdesk/internal/services"
)

// AuthHandler bundles dependencies for authentication endpoints.
type AuthHandler struct {
	auth *services.AuthService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login exchanges operator credentials for a bearer token.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Username == "" || req.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing required fields")
	}

	token, sess, err := h.auth.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"token":      token,
			"username":   sess.Username,
			"expires_at": sess.ExpiresAt,
		},
	})
}

// Logout ends the caller's session.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sess, ok := middleware.GetSession(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	if err := h.auth.Logout(c.UserContext(), sess.ID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}

// Me returns the signed-in operator.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	sess, ok := middleware.GetSession(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	return c.JSON(fiber.Map{"success": true, "data": sess})
}
