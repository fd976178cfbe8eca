package controllers

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/nikhilthakur8/payping/app/repository"
	"github.com/nikhilthakur8/payping/internal/pkg/cache"
)

// paymentPageTTL keeps the public payment page out of the database on
// refresh storms while staying fresh enough for status polling.
const paymentPageTTL = 30 * time.Second

// PaymentPageController serves the public, unauthenticated payment page.
type PaymentPageController struct {
	orders repository.OrderRepository
}

func NewPaymentPageController(orders repository.OrderRepository) *PaymentPageController {
	return &PaymentPageController{orders: orders}
}

// HandlePaymentPage returns the details a payer needs to complete an order.
// No merchant secrets leave this endpoint.
func (pc *PaymentPageController) HandlePaymentPage(c *fiber.Ctx) error {
	ref := c.Params("ref")
	if ref == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Order reference missing"})
	}

	cacheKey := cache.PaymentPageKey(ref)
	if cached, err := cache.Get(cacheKey); err == nil && cached != "" {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.SendString(cached)
	}

	order, err := pc.orders.GetByInternalRef(ref)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Order not found"})
		}
		log.Errorf("[API] Payment page lookup failed for %s: %v", ref, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load order"})
	}

	page := fiber.Map{
		"ref":        order.InternalRef,
		"amount":     order.Amount,
		"note":       order.Note,
		"status":     order.Status,
		"qr_payload": order.QRPayload,
		"merchant":   order.User.Name,
		"created_at": order.CreatedAt,
	}

	if body, err := json.Marshal(page); err == nil {
		if err := cache.Set(cacheKey, string(body), paymentPageTTL); err != nil {
			log.Debugf("[API] Payment page cache write failed for %s: %v", ref, err)
		}
	}

	return c.JSON(page)
}
