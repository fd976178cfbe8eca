package webhook

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/nikhilthakur8/payping/app/models"
	"github.com/nikhilthakur8/payping/app/repository"
	"github.com/nikhilthakur8/payping/internal/pkg/env"
)

// Dispatcher delivers order-status webhooks to merchant endpoints.
// Creation of the delivery record is idempotent per (order, event status);
// of N concurrent triggers for the same event exactly one performs the
// initial HTTP attempt.
type Dispatcher struct {
	logs   repository.CallbackRepository
	client *http.Client
	now    func() time.Time
}

// NewDispatcher creates a dispatcher. The HTTP timeout bounds every attempt
// so a hanging merchant endpoint cannot stall a sweep tick.
func NewDispatcher(logs repository.CallbackRepository) *Dispatcher {
	timeout := time.Duration(env.GetEnvInt("WEBHOOK_TIMEOUT_SECONDS", 10)) * time.Second
	return &Dispatcher{
		logs:   logs,
		client: &http.Client{Timeout: timeout},
		now:    time.Now,
	}
}

// NewDispatcherWithClient is used by tests to inject transport and clock.
func NewDispatcherWithClient(logs repository.CallbackRepository, client *http.Client, now func() time.Time) *Dispatcher {
	return &Dispatcher{logs: logs, client: client, now: now}
}

// Dispatch notifies the merchant that order reached a terminal status.
// No-op when the merchant has no callback URL. Store failures abort the
// dispatch; a later trigger for the same event re-derives it and retries.
func (d *Dispatcher) Dispatch(order *models.PaymentOrder, user *models.User, providerName string) {
	if user == nil || !user.HasWebhook() {
		return
	}

	body, err := json.Marshal(buildPayload(order, providerName))
	if err != nil {
		log.Errorf("[Webhook] Failed to build payload for order %s: %v", order.InternalRef, err)
		return
	}

	entry := &models.CallbackLog{
		UserID:      user.ID,
		OrderID:     order.ID,
		URL:         user.CallbackURL,
		EventStatus: order.Status,
		Payload:     string(body),
		Status:      models.CallbackStatusPending,
	}

	created, stored, err := d.logs.CreateIfNotExists(entry)
	if err != nil {
		log.Errorf("[Webhook] Failed to create callback log for order %s: %v", order.InternalRef, err)
		return
	}
	if !created {
		// Lost the race against a concurrent trigger for the same event;
		// the winner owns the initial attempt.
		return
	}

	if err := d.Attempt(stored, user); err != nil {
		log.Errorf("[Webhook] Failed to persist attempt for log %s: %v", stored.UUID, err)
	}
}

// Attempt performs exactly one delivery try against the merchant's current
// configuration and persists the resulting transition. The payload snapshot
// is immutable; URL and signature are re-derived from user so config changes
// apply to retries. Transport errors count like a non-2xx response.
func (d *Dispatcher) Attempt(entry *models.CallbackLog, user *models.User) error {
	url := entry.URL
	secret := ""
	if user != nil {
		if user.CallbackURL != "" {
			url = user.CallbackURL
		}
		secret = user.WebhookSecret
	}

	delivered := d.post(url, []byte(entry.Payload), secret)
	ApplyAttempt(entry, delivered, d.now())

	if err := d.logs.Update(entry); err != nil {
		return err
	}

	if delivered {
		log.Infof("[Webhook] Delivered log %s (attempt %d)", entry.UUID, entry.Attempts)
	} else {
		log.Warnf("[Webhook] Delivery failed for log %s (attempt %d, status %s)", entry.UUID, entry.Attempts, entry.Status)
	}
	return nil
}

func (d *Dispatcher) post(url string, body []byte, secret string) bool {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set(SignatureHeader, Sign(body, secret))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func buildPayload(order *models.PaymentOrder, providerName string) Payload {
	var utr *string
	if order.UTR != "" {
		utr = &order.UTR
	}

	txnTime := order.UpdatedAt
	if order.TxnTime != nil {
		txnTime = *order.TxnTime
	}

	if providerName == "" {
		providerName = "Unknown"
	}

	return Payload{
		Status:   order.Status,
		UTR:      utr,
		Ref:      order.ClientRef,
		Amount:   order.Amount,
		TxnTime:  txnTime,
		Provider: providerName,
	}
}
