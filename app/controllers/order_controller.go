package controllers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/nikhilthakur8/payping/app/repository"
	"github.com/nikhilthakur8/payping/internal/pkg/middleware"
	"github.com/nikhilthakur8/payping/internal/pkg/payment"
	"github.com/nikhilthakur8/payping/internal/pkg/provider"
)

// OrderController serves the merchant-facing order endpoints.
type OrderController struct {
	payments *payment.Service
	orders   repository.OrderRepository
}

func NewOrderController(payments *payment.Service, orders repository.OrderRepository) *OrderController {
	return &OrderController{payments: payments, orders: orders}
}

// HandleCreate creates a new payment link order for the authenticated merchant.
func (oc *OrderController) HandleCreate(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing authentication"})
	}

	var req payment.CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	resp, err := oc.payments.CreateOrder(user, req)
	if err != nil {
		var vErrs validator.ValidationErrors
		switch {
		case errors.As(err, &vErrs):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Amount must be greater than zero"})
		case errors.Is(err, payment.ErrDuplicateOrder):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "conflict", "message": "An order with this client reference already exists"})
		case errors.Is(err, payment.ErrNoDefaultAccount):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "No default provider account configured"})
		}
		log.Errorf("[API] Order creation failed for user %d: %v", user.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to create order"})
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

// HandleList lists the merchant's orders, optionally filtered by status.
func (oc *OrderController) HandleList(c *fiber.Ctx) error {
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

	orders, total, err := oc.orders.ListByUser(user.ID, status, (page-1)*limit, limit)
	if err != nil {
		log.Errorf("[API] Order listing failed for user %d: %v", user.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to list orders"})
	}

	return c.JSON(fiber.Map{
		"orders": orders,
		"total":  total,
		"page":   page,
		"limit":  limit,
	})
}

// HandleStatus reconciles one order on demand and returns its current state.
func (oc *OrderController) HandleStatus(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing authentication"})
	}

	ref := c.Params("ref")
	order, err := oc.orders.GetByInternalRef(ref)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Order not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load order"})
	}
	if order.UserID != user.ID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Order not found"})
	}

	resp, err := oc.payments.CheckStatus(c.Context(), ref)
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrOrderNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Order not found"})
		case errors.Is(err, payment.ErrProviderConfig), errors.Is(err, provider.ErrUnknownProvider):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Provider configuration missing for this order"})
		}
		log.Errorf("[API] Status check failed for order %s: %v", ref, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "bad_gateway", "message": "Provider status check failed"})
	}

	return c.JSON(resp)
}
