package handler

import (
	"komagene-kasa/internal/model"
	"komagene-kasa/internal/service"

	"github.com/gofiber/fiber/v2"
)

type OrderHandler struct {
	service service.OrderService
}

func NewOrderHandler(s service.OrderService) *OrderHandler {
	return &OrderHandler{service: s}
}

// Import receives orders captured by the browser extension.
// POST /api/v1/orders/import
func (h *OrderHandler) Import(c *fiber.Ctx) error {
	var order model.ExternalOrder
	if err := c.BodyParser(&order); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	res, err := h.service.Import(order)
	if err != nil {
		return fail(c, err)
	}
	if res.Duplicate {
		return c.JSON(fiber.Map{"message": "Order already imported", "data": res})
	}
	return c.Status(201).JSON(fiber.Map{"message": "Order imported", "data": res})
}
