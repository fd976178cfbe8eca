package controllers

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/nikhilthakur8/payping/app/repository"
	"github.com/nikhilthakur8/payping/internal/pkg/cache"
	"github.com/nikhilthakur8/payping/internal/pkg/middleware"
)

// statsTTL bounds staleness of the dashboard aggregates.
const statsTTL = 30 * time.Second

// DashboardController serves merchant dashboard aggregates.
type DashboardController struct {
	orders repository.OrderRepository
}

func NewDashboardController(orders repository.OrderRepository) *DashboardController {
	return &DashboardController{orders: orders}
}

// HandleStats returns order counts and collected volume for the merchant.
func (dc *DashboardController) HandleStats(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing authentication"})
	}

	cacheKey := cache.StatsKey(user.ID)
	if cached, err := cache.Get(cacheKey); err == nil && cached != "" {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.SendString(cached)
	}

	stats, err := dc.orders.GetStatsByUserID(user.ID)
	if err != nil {
		log.Errorf("[API] Stats lookup failed for user %d: %v", user.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load statistics"})
	}

	if body, err := json.Marshal(stats); err == nil {
		if err := cache.Set(cacheKey, string(body), statsTTL); err != nil {
			log.Debugf("[API] Stats cache write failed for user %d: %v", user.ID, err)
		}
	}

	return c.JSON(stats)
}
