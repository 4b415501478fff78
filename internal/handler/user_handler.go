package handler

import (
	"go-warehouse-ws/internal/middleware"
	"go-warehouse-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// CreateUser handles user creation
// POST /api/v1/users
func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	var req service.CreateUserRequest
	if err := parseBody(c, &req); err != nil {
		return middleware.Fail(c, err)
	}

	user, err := h.userService.CreateUser(c.UserContext(), actorOf(c), &req)
	if err != nil {
		return middleware.Fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User created successfully",
		"data":    user,
	})
}

// UpdatePermissions replaces the permission flags and, optionally, the
// active flag.
// PUT /api/v1/users/:id/permissions
func (h *UserHandler) UpdatePermissions(c *fiber.Ctx) error {
	userID, err := parseID(c, "user")
	if err != nil {
		return middleware.Fail(c, err)
	}

	var req service.UpdateUserRequest
	if err := parseBody(c, &req); err != nil {
		return middleware.Fail(c, err)
	}

	user, err := h.userService.UpdateUser(c.UserContext(), actorOf(c), userID, &req)
	if err != nil {
		return middleware.Fail(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Permissions updated successfully",
		"data":    user,
	})
}

// GetUsers returns all users
// GET /api/v1/users
func (h *UserHandler) GetUsers(c *fiber.Ctx) error {
	users, err := h.userService.GetAllUsers(c.UserContext(), actorOf(c))
	if err != nil {
		return middleware.Fail(c, err)
	}
	return c.JSON(users)
}

func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	userID, err := parseID(c, "user")
	if err != nil {
		return middleware.Fail(c, err)
	}

	user, err := h.userService.GetUserByID(c.UserContext(), actorOf(c), userID)
	if err != nil {
		return middleware.Fail(c, err)
	}
	return c.JSON(user)
}

func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	userID, err := parseID(c, "user")
	if err != nil {
		return middleware.Fail(c, err)
	}

	if err := h.userService.DeleteUser(c.UserContext(), actorOf(c), userID); err != nil {
		return middleware.Fail(c, err)
	}

	return c.JSON(fiber.Map{"message": "User deleted successfully"})
}
