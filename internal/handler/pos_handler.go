package handler

import (
	"komagene-kasa/internal/service"

	"github.com/gofiber/fiber/v2"
)

type PosHandler struct {
	service service.PosService
}

func NewPosHandler(s service.PosService) *PosHandler {
	return &PosHandler{service: s}
}

// POST /api/v1/pos/checkout
func (h *PosHandler) Checkout(c *fiber.Ctx) error {
	var req service.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	res, err := h.service.Checkout(req, getBranchID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.Status(201).JSON(res)
}
