package handler

import (
	"komagene-kasa/internal/store"

	"github.com/gofiber/fiber/v2"
)

type SettingsHandler struct {
	store *store.Store
}

func NewSettingsHandler(st *store.Store) *SettingsHandler {
	return &SettingsHandler{store: st}
}

type UpdateSettingsRequest struct {
	Theme      *string `json:"theme"`
	Brightness *int    `json:"brightness"`
}

// GET /api/v1/settings
func (h *SettingsHandler) Get(c *fiber.Ctx) error {
	return c.JSON(h.store.Settings())
}

// PUT /api/v1/settings
func (h *SettingsHandler) Update(c *fiber.Ctx) error {
	var req UpdateSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if req.Theme != nil {
		if *req.Theme != "light" && *req.Theme != "dark" {
			return c.Status(400).JSON(fiber.Map{"error": "Theme must be light or dark"})
		}
		h.store.SetTheme(*req.Theme)
	}
	if req.Brightness != nil {
		h.store.SetBrightness(*req.Brightness)
	}
	return c.JSON(h.store.Settings())
}
