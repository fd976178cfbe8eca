package webhook

import (
	"time"

	"github.com/nikhilthakur8/payping/app/models"
)

// retryBackoff is the delay before retry n+1, indexed by attempts after
// increment: 5m -> 30m -> 12h -> 24h. A failure past the last slot
// exhausts the log permanently.
var retryBackoff = [...]time.Duration{
	5 * time.Minute,
	30 * time.Minute,
	12 * time.Hour,
	24 * time.Hour,
}

// MaxAttempts is the total number of delivery tries per log, the initial
// attempt included.
const MaxAttempts = len(retryBackoff) + 1

// ApplyAttempt folds one delivery outcome into the log's retry state.
// It is a pure transition on the in-memory record; callers persist it.
func ApplyAttempt(log *models.CallbackLog, delivered bool, now time.Time) {
	log.Attempts++

	if delivered {
		log.Status = models.CallbackStatusSuccess
		log.NextRetryAt = nil
		return
	}

	if log.Attempts <= len(retryBackoff) {
		log.Status = models.CallbackStatusRetry
		next := now.Add(retryBackoff[log.Attempts-1])
		log.NextRetryAt = &next
		return
	}

	log.Status = models.CallbackStatusFailed
	log.NextRetryAt = nil
}
