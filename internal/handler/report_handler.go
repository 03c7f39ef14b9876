package handler

import (
	"bytes"
	"fmt"
	"time"

	"komagene-kasa/internal/ledger"
	"komagene-kasa/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ReportHandler struct {
	service service.ReportService
	now     func() time.Time
}

func NewReportHandler(s service.ReportService, now func() time.Time) *ReportHandler {
	if now == nil {
		now = time.Now
	}
	return &ReportHandler{service: s, now: now}
}

func rangeOf(c *fiber.Ctx) service.Range {
	return service.Range{Start: c.Query("start"), End: c.Query("end")}
}

// GET /api/v1/reports/summary
func (h *ReportHandler) Summary(c *fiber.Ctx) error {
	s, err := h.service.Summary(rangeOf(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(s)
}

// GET /api/v1/reports/best-worst
func (h *ReportHandler) BestWorst(c *fiber.Ctx) error {
	bw, err := h.service.BestWorst(rangeOf(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(bw)
}

// GET /api/v1/reports/forecast?window=
func (h *ReportHandler) Forecast(c *fiber.Ctx) error {
	window := c.QueryInt("window", 0)
	if window < 0 || window == 1 {
		return c.Status(400).JSON(fiber.Map{"error": "window must be at least 2 days"})
	}
	return c.JSON(h.service.Forecast(window))
}

func attachment(c *fiber.Ctx, name, contentType string, body []byte) error {
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, name))
	return c.Send(body)
}

// GET /api/v1/reports/export.csv
func (h *ReportHandler) ExportCSV(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := h.service.ExportCSV(&buf, rangeOf(c)); err != nil {
		return fail(c, err)
	}
	return attachment(c, ledger.CSVFileName(h.now().In(service.Istanbul)), "text/csv; charset=utf-8", buf.Bytes())
}

// GET /api/v1/reports/export.xlsx
func (h *ReportHandler) ExportXLSX(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := h.service.ExportXLSX(&buf, rangeOf(c)); err != nil {
		return fail(c, err)
	}
	return attachment(c, ledger.XLSXFileName(h.now().In(service.Istanbul)),
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
