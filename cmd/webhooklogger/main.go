package main

import (
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/nikhilthakur8/payping/internal/pkg/env"
	"github.com/nikhilthakur8/payping/internal/pkg/webhook"
)

// webhooklogger is a development sink for outbound callbacks: point a
// merchant's callback URL at it and it prints every delivery, verifying
// the signature when WEBHOOK_SECRET is set.
func main() {
	env.SetupEnvFile()
	secret := env.GetEnv("WEBHOOK_SECRET", "")

	app := fiber.New(fiber.Config{AppName: "payping-webhooklogger"})
	app.Use(recover.New(), logger.New())

	app.Post("/webhook", func(c *fiber.Ctx) error {
		body := c.Body()

		if secret != "" {
			sig := c.Get(webhook.SignatureHeader)
			if !webhook.Verify(body, sig, secret) {
				log.Warnf("[WebhookLogger] Signature verification FAILED (sig=%q)", sig)
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid signature"})
			}
			log.Info("[WebhookLogger] Signature verified")
		}

		var payload webhook.Payload
		if err := json.Unmarshal(body, &payload); err != nil {
			log.Warnf("[WebhookLogger] Unparseable payload: %v", err)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
		}

		utr := "null"
		if payload.UTR != nil {
			utr = *payload.UTR
		}
		log.Infof("[WebhookLogger] %s ref=%s amount=%.2f utr=%s provider=%s txnTime=%s",
			payload.Status, payload.Ref, payload.Amount, utr, payload.Provider, payload.TxnTime)

		return c.JSON(fiber.Map{"received": true})
	})

	addr := fmt.Sprintf("%s:%s", env.GetEnv("LOGGER_HOST", "localhost"), env.GetEnv("LOGGER_PORT", "5001"))
	if err := app.Listen(addr); err != nil {
		log.Fatal(err)
	}
}
