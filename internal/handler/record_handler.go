package handler

import (
	"komagene-kasa/internal/model"
	"komagene-kasa/internal/service"

	"github.com/gofiber/fiber/v2"
)

type RecordHandler struct {
	service service.RecordService
}

func NewRecordHandler(s service.RecordService) *RecordHandler {
	return &RecordHandler{service: s}
}

// GET /api/v1/records?start=&end=&q=&sort=&dir=
func (h *RecordHandler) List(c *fiber.Ctx) error {
	records, err := h.service.List(service.RecordQuery{
		Start:  c.Query("start"),
		End:    c.Query("end"),
		Search: c.Query("q"),
		Sort:   c.Query("sort"),
		Dir:    c.Query("dir"),
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"data": records, "count": len(records)})
}

// GET /api/v1/records/:id
func (h *RecordHandler) Get(c *fiber.Ctx) error {
	rec, err := h.service.Get(c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(rec)
}

// POST /api/v1/records
func (h *RecordHandler) Create(c *fiber.Ctx) error {
	var rec model.DailyRecord
	if err := c.BodyParser(&rec); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	created, err := h.service.Create(rec)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Record created", "data": created})
}

// PUT /api/v1/records/:id
func (h *RecordHandler) Update(c *fiber.Ctx) error {
	var rec model.DailyRecord
	if err := c.BodyParser(&rec); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	updated, err := h.service.Update(c.Params("id"), rec)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Record updated", "data": updated})
}

// DELETE /api/v1/records/:id
func (h *RecordHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.Params("id")); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Record deleted"})
}

// POST /api/v1/records/:id/close
func (h *RecordHandler) Close(c *fiber.Ctx) error {
	rec, err := h.service.Close(c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Day closed", "data": rec})
}
