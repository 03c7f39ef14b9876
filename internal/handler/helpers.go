package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"komagene-kasa/internal/legacy"
	"komagene-kasa/internal/service"
	"komagene-kasa/internal/store"
	"komagene-kasa/internal/syncer"
)

// Helpers reading the identity set by the auth middleware.
func getUserID(c *fiber.Ctx) string {
	userID, ok := c.Locals("user_id").(string)
	if !ok {
		return "system"
	}
	return userID
}

func getBranchID(c *fiber.Ctx) string {
	branchID, _ := c.Locals("branch_id").(string)
	return branchID
}

func parseUUID(id string) (uuid.UUID, error) {
	return uuid.Parse(id)
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrRecordNotFound),
		errors.Is(err, store.ErrLedgerNotFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, legacy.ErrNoLedger),
		errors.Is(err, legacy.ErrRowNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrRecordClosed),
		errors.Is(err, syncer.ErrSyncInProgress),
		errors.Is(err, syncer.ErrNoSession),
		errors.Is(err, service.ErrEmailExists):
		return fiber.StatusConflict
	case errors.Is(err, service.ErrWrongBranch),
		errors.Is(err, service.ErrOwnerOnly),
		errors.Is(err, service.ErrNoBranch),
		errors.Is(err, service.ErrSelfDisable):
		return fiber.StatusForbidden
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrInvalidDate),
		errors.Is(err, store.ErrInvalidDate),
		errors.Is(err, store.ErrUnknownChannel),
		errors.Is(err, service.ErrEmptyBasket),
		errors.Is(err, service.ErrUnknownRole),
		errors.Is(err, service.ErrInvalidPaymentMethod),
		errors.Is(err, service.ErrProductUnavailable),
		errors.Is(err, store.ErrRestoreNotConfirmed),
		errors.Is(err, store.ErrRestoreRejected),
		errors.Is(err, store.ErrLegacyBackup),
		errors.Is(err, legacy.ErrRestoreNotConfirmed),
		errors.Is(err, legacy.ErrInvalidBackup):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func fail(c *fiber.Ctx, err error) error {
	return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
}
