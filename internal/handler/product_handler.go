package handler

import (
	"komagene-kasa/internal/model"
	"komagene-kasa/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ProductHandler struct {
	service service.ProductService
}

func NewProductHandler(s service.ProductService) *ProductHandler {
	return &ProductHandler{service: s}
}

// GET /api/v1/products
func (h *ProductHandler) List(c *fiber.Ctx) error {
	products, err := h.service.List(getBranchID(c))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch products"})
	}
	return c.JSON(products)
}

// POST /api/v1/products
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var product model.Product
	if err := c.BodyParser(&product); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if err := h.service.Create(&product, getUserID(c), getBranchID(c)); err != nil {
		return fail(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Product created", "data": product})
}

// PUT /api/v1/products/:id
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}
	var product model.Product
	if err := c.BodyParser(&product); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	updated, err := h.service.Update(id, &product, getUserID(c), getBranchID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Product updated", "data": updated})
}

// DELETE /api/v1/products/:id
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}
	if err := h.service.Delete(id, getUserID(c), getBranchID(c)); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Product deleted"})
}

// Menu is the public signage feed.
// GET /api/v1/signage/menu?branch_id=
func (h *ProductHandler) Menu(c *fiber.Ctx) error {
	branchID := c.Query("branch_id")
	if branchID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "branch_id is required"})
	}
	menu, err := h.service.Menu(branchID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to load menu"})
	}
	return c.JSON(fiber.Map{"branch_id": branchID, "categories": menu})
}
