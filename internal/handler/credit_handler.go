package handler

import (
	"komagene-kasa/internal/model"
	"komagene-kasa/internal/service"

	"github.com/gofiber/fiber/v2"
)

type CreditHandler struct {
	service service.CreditService
}

func NewCreditHandler(s service.CreditService) *CreditHandler {
	return &CreditHandler{service: s}
}

type PayRequest struct {
	Date string `json:"date"`
}

// GET /api/v1/ledgers?customer=
func (h *CreditHandler) List(c *fiber.Ctx) error {
	return c.JSON(h.service.List(c.Query("customer")))
}

// POST /api/v1/ledgers
func (h *CreditHandler) Create(c *fiber.Ctx) error {
	var item model.LedgerItem
	if err := c.BodyParser(&item); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	created, err := h.service.Add(item)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Credit tab opened", "data": created})
}

// DELETE /api/v1/ledgers/:id
func (h *CreditHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.Remove(c.Params("id")); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Credit tab removed"})
}

// POST /api/v1/ledgers/:id/pay
func (h *CreditHandler) Pay(c *fiber.Ctx) error {
	var req PayRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
		}
	}
	rec, err := h.service.Pay(c.Params("id"), req.Date)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Credit tab paid", "data": rec})
}
