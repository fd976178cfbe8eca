package webhook

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/nikhilthakur8/payping/app/models"
	"github.com/nikhilthakur8/payping/app/repository"
	"github.com/nikhilthakur8/payping/internal/pkg/env"
)

// Manual retry gating errors, surfaced verbatim at the API.
var (
	ErrAlreadyDelivered  = errors.New("this webhook was already delivered successfully")
	ErrDeliveryInFlight  = errors.New("this webhook is already being processed")
	ErrPermanentlyFailed = errors.New("this webhook has permanently failed and cannot be retried")
)

// Retrier replays callback logs through the dispatcher's attempt logic:
// scheduled retries whose backoff elapsed, plus pending logs that never got
// their first attempt (crash between record creation and POST).
type Retrier struct {
	logs         repository.CallbackRepository
	users        repository.UserRepository
	dispatcher   *Dispatcher
	pendingGrace time.Duration
	now          func() time.Time
}

// NewRetrier wires a retrier against the shared stores.
func NewRetrier(logs repository.CallbackRepository, users repository.UserRepository, dispatcher *Dispatcher) *Retrier {
	grace := time.Duration(env.GetEnvInt("WEBHOOK_PENDING_GRACE_MINUTES", 10)) * time.Minute
	return &Retrier{
		logs:         logs,
		users:        users,
		dispatcher:   dispatcher,
		pendingGrace: grace,
		now:          time.Now,
	}
}

// NewRetrierWithClock is used by tests to control time.
func NewRetrierWithClock(logs repository.CallbackRepository, users repository.UserRepository, dispatcher *Dispatcher, pendingGrace time.Duration, now func() time.Time) *Retrier {
	return &Retrier{logs: logs, users: users, dispatcher: dispatcher, pendingGrace: pendingGrace, now: now}
}

// SweepOnce processes all currently due logs sequentially. Per-log failures
// are logged and skipped so one broken merchant cannot block the tick.
func (r *Retrier) SweepOnce() (int, error) {
	now := r.now()
	due, err := r.logs.FindDue(now, now.Add(-r.pendingGrace))
	if err != nil {
		return 0, err
	}
	if len(due) == 0 {
		return 0, nil
	}

	log.Infof("[Webhook] Retry sweep found %d due log(s)", len(due))

	processed := 0
	for i := range due {
		entry := &due[i]
		user, err := r.users.GetByID(entry.UserID)
		if err != nil {
			log.Errorf("[Webhook] Retry sweep: user %d lookup failed for log %s: %v", entry.UserID, entry.UUID, err)
			continue
		}
		if err := r.dispatcher.Attempt(entry, user); err != nil {
			log.Errorf("[Webhook] Retry sweep: attempt persist failed for log %s: %v", entry.UUID, err)
			continue
		}
		processed++
	}
	return processed, nil
}

// ManualRetry performs one user-triggered attempt on a log in retry state.
// Success, pending and permanently failed logs are rejected; a manual
// attempt consumes the same attempts counter as scheduled ones.
func (r *Retrier) ManualRetry(entry *models.CallbackLog, user *models.User) error {
	switch entry.Status {
	case models.CallbackStatusSuccess:
		return ErrAlreadyDelivered
	case models.CallbackStatusPending:
		return ErrDeliveryInFlight
	case models.CallbackStatusFailed:
		return ErrPermanentlyFailed
	}

	return r.dispatcher.Attempt(entry, user)
}
