package handler

import (
	"go-warehouse-ws/internal/apperror"
	"go-warehouse-ws/internal/middleware"
	"go-warehouse-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login handles user authentication
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req service.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return middleware.Fail(c, err)
	}

	response, err := h.authService.Login(c.UserContext(), &req)
	if err != nil {
		return middleware.Fail(c, err)
	}

	return c.JSON(response)
}

// ResetPassword handles password change
// POST /api/v1/auth/reset-password
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req service.ResetPasswordRequest
	if err := parseBody(c, &req); err != nil {
		return middleware.Fail(c, err)
	}

	if err := h.authService.ResetPassword(c.UserContext(), &req); err != nil {
		return middleware.Fail(c, err)
	}

	return c.JSON(fiber.Map{"message": "Password updated successfully"})
}

func (h *AuthHandler) Heartbeat(c *fiber.Ctx) error {
	if err := h.authService.Heartbeat(c.UserContext(), actorOf(c)); err != nil {
		return middleware.Fail(c, err)
	}

	return c.JSON(fiber.Map{"message": "Heartbeat received", "status": "online"})
}

// Logout ends the caller's session on every device.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.authService.Logout(c.UserContext(), actorOf(c)); err != nil {
		return middleware.Fail(c, err)
	}

	return c.JSON(fiber.Map{"message": "Logged out"})
}

// ValidateTokenRequest represents the validate token request body
type ValidateTokenRequest struct {
	Token string `json:"token"`
}

// ValidateToken handles JWT token validation
// POST /api/v1/auth/validate-token
func (h *AuthHandler) ValidateToken(c *fiber.Ctx) error {
	var req ValidateTokenRequest
	if err := parseBody(c, &req); err != nil {
		return middleware.Fail(c, err)
	}

	if req.Token == "" {
		return middleware.Fail(c, apperror.Validation("INVALID_INPUT", "Token is required"))
	}

	response, err := h.authService.ValidateToken(c.UserContext(), req.Token)
	if err != nil {
		return middleware.Fail(c, err)
	}

	return c.JSON(response)
}

// Me returns the caller's profile with resolved permissions.
// GET /api/v1/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	token, err := middleware.BearerToken(c)
	if err != nil {
		return middleware.Fail(c, err)
	}

	response, err := h.authService.ValidateToken(c.UserContext(), token)
	if err != nil {
		return middleware.Fail(c, err)
	}

	return c.JSON(response.User)
}
