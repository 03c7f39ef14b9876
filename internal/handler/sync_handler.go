package handler

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"komagene-kasa/internal/syncer"
	"komagene-kasa/internal/ws"

	"github.com/gofiber/fiber/v2"
)

// pushTimeout bounds one explicit sync run.
const pushTimeout = 2 * time.Minute

type SyncHandler struct {
	syncer *syncer.Syncer
	hub    *ws.Hub
}

// NewSyncHandler wires the sync endpoints. hub may be nil.
func NewSyncHandler(s *syncer.Syncer, hub *ws.Hub) *SyncHandler {
	return &SyncHandler{syncer: s, hub: hub}
}

// GET /api/v1/sync/status
func (h *SyncHandler) Status(c *fiber.Ctx) error {
	return c.JSON(h.syncer.Status())
}

func (h *SyncHandler) progress(p syncer.Progress) {
	if h.hub == nil {
		return
	}
	msg, _ := json.Marshal(fiber.Map{
		"type":  "sync_progress",
		"done":  p.Done,
		"total": p.Total,
		"kind":  p.Kind,
		"id":    p.ID,
	})
	h.hub.Publish(msg)
}

// POST /api/v1/sync/push
func (h *SyncHandler) Push(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), pushTimeout)
	defer cancel()

	res, err := h.syncer.Push(ctx, h.progress)
	if err != nil {
		var failure *syncer.Failure
		if errors.As(err, &failure) {
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error(), "result": res})
		}
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Sync finished", "result": res})
}

// POST /api/v1/sync/pull
func (h *SyncHandler) Pull(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), pushTimeout)
	defer cancel()

	n, err := h.syncer.Pull(ctx)
	if err != nil {
		if errors.Is(err, syncer.ErrNoSession) || errors.Is(err, syncer.ErrSyncInProgress) {
			return fail(c, err)
		}
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Pulled remote data", "applied": n})
}
