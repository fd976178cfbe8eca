package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/nikhilthakur8/payping/app/repository"
	"github.com/nikhilthakur8/payping/internal/pkg/middleware"
	"github.com/nikhilthakur8/payping/internal/pkg/webhook"
)

// WebhookController serves the merchant-facing webhook delivery endpoints.
type WebhookController struct {
	logs    repository.CallbackRepository
	retrier *webhook.Retrier
}

func NewWebhookController(logs repository.CallbackRepository, retrier *webhook.Retrier) *WebhookController {
	return &WebhookController{logs: logs, retrier: retrier}
}

// HandleListLogs lists the merchant's callback logs, optionally filtered by
// delivery status.
func (wc *WebhookController) HandleListLogs(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing authentication"})
	}

	status := c.Query("status")
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}

	logs, total, err := wc.logs.ListByUser(user.ID, status, (page-1)*limit, limit)
	if err != nil {
		log.Errorf("[API] Webhook log listing failed for user %d: %v", user.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to list webhook logs"})
	}

	return c.JSON(fiber.Map{
		"logs":  logs,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// HandleRetry performs one manual delivery attempt on a log in retry state.
func (wc *WebhookController) HandleRetry(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing authentication"})
	}

	id := c.Params("id")
	entry, err := wc.logs.GetByUUIDAndUser(id, user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Webhook log not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load webhook log"})
	}

	if err := wc.retrier.ManualRetry(entry, user); err != nil {
		switch {
		case errors.Is(err, webhook.ErrAlreadyDelivered),
			errors.Is(err, webhook.ErrDeliveryInFlight),
			errors.Is(err, webhook.ErrPermanentlyFailed):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
		}
		log.Errorf("[API] Manual retry failed for log %s: %v", entry.UUID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Retry attempt could not be persisted"})
	}

	return c.JSON(fiber.Map{
		"uuid":          entry.UUID,
		"status":        entry.Status,
		"attempts":      entry.Attempts,
		"next_retry_at": entry.NextRetryAt,
	})
}
