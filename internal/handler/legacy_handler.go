package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"komagene-kasa/internal/ledger"
	"komagene-kasa/internal/legacy"
	"komagene-kasa/internal/model"

	"github.com/gofiber/fiber/v2"
)

// LegacyHandler serves the old single-file ledger still kept on some
// devices. Every route answers 404 when the device has none.
type LegacyHandler struct {
	ledger *legacy.Ledger
	now    func() time.Time
}

// NewLegacyHandler takes the opened ledger, or nil.
func NewLegacyHandler(l *legacy.Ledger, now func() time.Time) *LegacyHandler {
	return &LegacyHandler{ledger: l, now: now}
}

// Available is the group middleware; it answers 404 without a ledger.
func (h *LegacyHandler) Available(c *fiber.Ctx) error {
	if h.ledger == nil {
		return fail(c, legacy.ErrNoLedger)
	}
	return c.Next()
}

func validRowDate(date string) bool {
	if date == "" {
		return true
	}
	_, err := time.Parse(model.DateLayout, date)
	return err == nil
}

// GET /api/v1/legacy/rows?start=&end=&q=&sort=&dir=
func (h *LegacyHandler) List(c *fiber.Ctx) error {
	field, dir, err := ledger.ParseSort(c.Query("sort"), c.Query("dir"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	records := h.ledger.Query(c.Query("start"), c.Query("end"), c.Query("q"), field, dir)
	return c.JSON(fiber.Map{"data": records, "count": len(records)})
}

// POST /api/v1/legacy/rows
func (h *LegacyHandler) Create(c *fiber.Ctx) error {
	var row legacy.Row
	if err := c.BodyParser(&row); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if !validRowDate(row.Date) {
		return c.Status(400).JSON(fiber.Map{"error": "date must be YYYY-MM-DD"})
	}
	added, err := h.ledger.Add(row)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Row created", "data": added})
}

// PUT /api/v1/legacy/rows/:id
func (h *LegacyHandler) Update(c *fiber.Ctx) error {
	var row legacy.Row
	if err := c.BodyParser(&row); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if row.Date == "" || !validRowDate(row.Date) {
		return c.Status(400).JSON(fiber.Map{"error": "date must be YYYY-MM-DD"})
	}
	row.ID = c.Params("id")
	if err := h.ledger.Update(row); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Row updated", "data": row})
}

// DELETE /api/v1/legacy/rows/:id
func (h *LegacyHandler) Delete(c *fiber.Ctx) error {
	if err := h.ledger.Delete(c.Params("id")); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Row deleted"})
}

// GET /api/v1/legacy/summary
func (h *LegacyHandler) Summary(c *fiber.Ctx) error {
	return c.JSON(h.ledger.Summary())
}

// GET /api/v1/legacy/export.csv
func (h *LegacyHandler) ExportCSV(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := h.ledger.ExportCSV(&buf); err != nil {
		return fail(c, err)
	}
	return attachment(c, ledger.CSVFileName(h.now().In(model.BusinessLocation)), "text/csv; charset=utf-8", buf.Bytes())
}

// GET /api/v1/legacy/backup
func (h *LegacyHandler) Backup(c *fiber.Ctx) error {
	data, err := json.MarshalIndent(h.ledger.Backup(), "", "  ")
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to encode backup"})
	}
	name := fmt.Sprintf("gunkasa-yedek-%s.json", model.BusinessDay(h.now()))
	return attachment(c, name, fiber.MIMEApplicationJSONCharsetUTF8, data)
}

// POST /api/v1/legacy/restore?confirm=true
// The body is a legacy backup file.
func (h *LegacyHandler) Restore(c *fiber.Ctx) error {
	b, err := legacy.DecodeBackup(c.Body())
	if err != nil {
		return fail(c, err)
	}
	if err := h.ledger.Restore(b, c.QueryBool("confirm", false)); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Legacy backup restored", "rows": len(b.Data)})
}
