package handler

import (
	"encoding/json"
	"time"

	"komagene-kasa/internal/service"

	"github.com/gofiber/fiber/v2"
)

type BackupHandler struct {
	service service.BackupService
	now     func() time.Time
}

func NewBackupHandler(s service.BackupService, now func() time.Time) *BackupHandler {
	if now == nil {
		now = time.Now
	}
	return &BackupHandler{service: s, now: now}
}

// GET /api/v1/backup
func (h *BackupHandler) Download(c *fiber.Ctx) error {
	b := h.service.Export()
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to encode backup"})
	}
	name := service.BackupFileName(h.now().In(service.Istanbul))
	return attachment(c, name, fiber.MIMEApplicationJSONCharsetUTF8, data)
}

// POST /api/v1/backup/restore?confirm=true
// The body is a backup file as downloaded.
func (h *BackupHandler) Restore(c *fiber.Ctx) error {
	confirmed := c.QueryBool("confirm", false)
	n, err := h.service.Restore(c.Body(), confirmed)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Backup restored", "records": n})
}
