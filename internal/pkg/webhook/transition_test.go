package webhook

import (
	"testing"
	"time"

	"github.com/nikhilthakur8/payping/app/models"
)

func TestApplyAttemptBackoffSchedule(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	entry := &models.CallbackLog{Status: models.CallbackStatusPending}

	wantDelays := []time.Duration{
		5 * time.Minute,
		30 * time.Minute,
		12 * time.Hour,
		24 * time.Hour,
	}

	for i, delay := range wantDelays {
		ApplyAttempt(entry, false, now)
		if entry.Attempts != i+1 {
			t.Fatalf("attempt %d: attempts = %d", i+1, entry.Attempts)
		}
		if entry.Status != models.CallbackStatusRetry {
			t.Fatalf("attempt %d: status = %q, want retry", i+1, entry.Status)
		}
		if entry.NextRetryAt == nil || !entry.NextRetryAt.Equal(now.Add(delay)) {
			t.Fatalf("attempt %d: nextRetryAt = %v, want %v", i+1, entry.NextRetryAt, now.Add(delay))
		}
	}

	// Fifth failure exhausts retries permanently.
	ApplyAttempt(entry, false, now)
	if entry.Attempts != 5 {
		t.Fatalf("attempts = %d, want 5", entry.Attempts)
	}
	if entry.Status != models.CallbackStatusFailed {
		t.Fatalf("status = %q, want failed", entry.Status)
	}
	if entry.NextRetryAt != nil {
		t.Fatalf("nextRetryAt = %v, want nil", entry.NextRetryAt)
	}
}

func TestApplyAttemptSuccess(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		entry    models.CallbackLog
		attempts int
	}{
		{name: "first attempt", entry: models.CallbackLog{Status: models.CallbackStatusPending}, attempts: 1},
		{name: "after retries", entry: models.CallbackLog{Status: models.CallbackStatusRetry, Attempts: 3}, attempts: 4},
	}

	for _, tt := range tests {
		entry := tt.entry
		ApplyAttempt(&entry, true, now)
		if entry.Status != models.CallbackStatusSuccess {
			t.Fatalf("%s: status = %q, want success", tt.name, entry.Status)
		}
		if entry.Attempts != tt.attempts {
			t.Fatalf("%s: attempts = %d, want %d", tt.name, entry.Attempts, tt.attempts)
		}
		if entry.NextRetryAt != nil {
			t.Fatalf("%s: nextRetryAt should be cleared", tt.name)
		}
	}
}

func TestMaxAttempts(t *testing.T) {
	if MaxAttempts != 5 {
		t.Fatalf("MaxAttempts = %d, want 5", MaxAttempts)
	}
}
