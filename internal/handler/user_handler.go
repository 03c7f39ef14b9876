package handler

import (
	"komagene-kasa/internal/service"

	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func actor(c *fiber.Ctx) service.Actor {
	role, _ := c.Locals("role_code").(string)
	return service.Actor{UserID: getUserID(c), BranchID: getBranchID(c), RoleCode: role}
}

// CreateUser adds a cashier (or another owner) to the caller's branch.
// POST /api/v1/users
func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	var req service.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	user, err := h.userService.CreateUser(&req, actor(c))
	if err != nil {
		return fail(c, err)
	}

	return c.Status(201).JSON(fiber.Map{
		"message": "User created successfully",
		"data":    user.ToResponse(),
	})
}

// GET /api/v1/users
func (h *UserHandler) GetUsers(c *fiber.Ctx) error {
	users, err := h.userService.ListUsers(actor(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(users)
}

// DeactivateUser
// DELETE /api/v1/users/:id
func (h *UserHandler) DeactivateUser(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid user ID"})
	}
	if err := h.userService.DeactivateUser(id, actor(c)); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "User deactivated"})
}
