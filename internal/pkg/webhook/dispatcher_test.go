package webhook

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilthakur8/payping/app/models"
)

// fakeCallbackRepo is an in-memory CallbackRepository with the same
// conditional-insert semantics as the MySQL unique index.
type fakeCallbackRepo struct {
	mu     sync.Mutex
	logs   map[string]*models.CallbackLog
	nextID uint
}

func newFakeCallbackRepo() *fakeCallbackRepo {
	return &fakeCallbackRepo{logs: make(map[string]*models.CallbackLog)}
}

func eventKey(orderID uint, eventStatus string) string {
	return fmt.Sprintf("%d:%s", orderID, eventStatus)
}

func (f *fakeCallbackRepo) CreateIfNotExists(entry *models.CallbackLog) (bool, *models.CallbackLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := eventKey(entry.OrderID, entry.EventStatus)
	if existing, ok := f.logs[key]; ok {
		copied := *existing
		return false, &copied, nil
	}

	f.nextID++
	stored := *entry
	stored.ID = f.nextID
	stored.UUID = fmt.Sprintf("log-%d", f.nextID)
	stored.CreatedAt = time.Now()
	f.logs[key] = &stored

	copied := stored
	return true, &copied, nil
}

func (f *fakeCallbackRepo) Update(entry *models.CallbackLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *entry
	f.logs[eventKey(entry.OrderID, entry.EventStatus)] = &copied
	return nil
}

func (f *fakeCallbackRepo) GetByUUIDAndUser(uuid string, userID uint) (*models.CallbackLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, entry := range f.logs {
		if entry.UUID == uuid && entry.UserID == userID {
			copied := *entry
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("callback log %s not found", uuid)
}

func (f *fakeCallbackRepo) FindDue(now time.Time, pendingBefore time.Time) ([]models.CallbackLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var due []models.CallbackLog
	for _, entry := range f.logs {
		switch {
		case entry.Status == models.CallbackStatusRetry && entry.NextRetryAt != nil && !entry.NextRetryAt.After(now):
			due = append(due, *entry)
		case entry.Status == models.CallbackStatusPending && entry.CreatedAt.Before(pendingBefore):
			due = append(due, *entry)
		}
	}
	return due, nil
}

func (f *fakeCallbackRepo) ListByUser(userID uint, status string, offset, limit int) ([]models.CallbackLog, int64, error) {
	return nil, 0, nil
}

func (f *fakeCallbackRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.logs)
}

func (f *fakeCallbackRepo) get(orderID uint, eventStatus string) *models.CallbackLog {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.logs[eventKey(orderID, eventStatus)]
	if !ok {
		return nil
	}
	copied := *entry
	return &copied
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uint]*models.User
}

func (f *fakeUserRepo) Create(u *models.User) error { return nil }
func (f *fakeUserRepo) GetByID(id uint) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d not found", id)
	}
	copied := *u
	return &copied, nil
}
func (f *fakeUserRepo) GetByEmail(email string) (*models.User, error)     { return nil, nil }
func (f *fakeUserRepo) GetByAPIKeyHash(hash string) (*models.User, error) { return nil, nil }
func (f *fakeUserRepo) Update(u *models.User) error                       { return nil }

func testOrder(status string) *models.PaymentOrder {
	txnTime := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return &models.PaymentOrder{
		ID:          7,
		UserID:      3,
		InternalRef: "PAYPING000007",
		ClientRef:   "INV-1",
		Amount:      100.00,
		Status:      status,
		UTR:         "UTR123",
		TxnTime:     &txnTime,
		UpdatedAt:   txnTime,
	}
}

func TestDispatchIdempotentUnderRace(t *testing.T) {
	var hits int32
	var hitMu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hitMu.Lock()
		hits++
		hitMu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	repo := newFakeCallbackRepo()
	d := NewDispatcherWithClient(repo, server.Client(), time.Now)

	order := testOrder(models.OrderStatusSuccess)
	user := &models.User{ID: 3, CallbackURL: server.URL, WebhookSecret: "whsec_x"}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.Dispatch(order, user, "Paytm")
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, repo.count(), "exactly one log per (order, status)")
	hitMu.Lock()
	defer hitMu.Unlock()
	assert.LessOrEqual(t, hits, int32(1), "at most one initial HTTP attempt")
	assert.Equal(t, int32(1), hits, "the race winner performs the attempt")
}

func TestDispatchNoCallbackURL(t *testing.T) {
	repo := newFakeCallbackRepo()
	d := NewDispatcherWithClient(repo, http.DefaultClient, time.Now)

	d.Dispatch(testOrder(models.OrderStatusFailed), &models.User{ID: 3}, "Paytm")

	assert.Equal(t, 0, repo.count(), "webhooks are opt-in; no URL means no log")
}

func TestDispatchPayloadAndSignature(t *testing.T) {
	type received struct {
		body      []byte
		signature string
		content   string
	}
	var got received
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got = received{
			body:      body,
			signature: r.Header.Get(SignatureHeader),
			content:   r.Header.Get("Content-Type"),
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	repo := newFakeCallbackRepo()
	d := NewDispatcherWithClient(repo, server.Client(), time.Now)

	secret := "whsec_payload_test"
	user := &models.User{ID: 3, CallbackURL: server.URL, WebhookSecret: secret}
	d.Dispatch(testOrder(models.OrderStatusSuccess), user, "Paytm")

	require.NotEmpty(t, got.body)
	assert.Equal(t, "application/json", got.content)
	assert.True(t, Verify(got.body, got.signature, secret), "signature must cover the exact body bytes")

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(got.body, &payload))
	assert.Equal(t, "success", payload["status"])
	assert.Equal(t, "UTR123", payload["utr"])
	assert.Equal(t, "INV-1", payload["ref"])
	assert.Equal(t, 100.00, payload["amount"])
	assert.Equal(t, "Paytm", payload["provider"])

	entry := repo.get(7, models.OrderStatusSuccess)
	require.NotNil(t, entry)
	assert.Equal(t, models.CallbackStatusSuccess, entry.Status)
	assert.Equal(t, 1, entry.Attempts)
}

func TestDispatchOmitsSignatureWithoutSecret(t *testing.T) {
	var header string
	var present bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Get(SignatureHeader)
		_, present = r.Header[http.CanonicalHeaderKey(SignatureHeader)]
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	repo := newFakeCallbackRepo()
	d := NewDispatcherWithClient(repo, server.Client(), time.Now)

	d.Dispatch(testOrder(models.OrderStatusFailed), &models.User{ID: 3, CallbackURL: server.URL}, "Paytm")

	assert.False(t, present, "signature header must be omitted entirely, got %q", header)
}

func TestAttemptFailureSchedulesRetry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeCallbackRepo()
	d := NewDispatcherWithClient(repo, server.Client(), func() time.Time { return now })

	user := &models.User{ID: 3, CallbackURL: server.URL}
	d.Dispatch(testOrder(models.OrderStatusFailed), user, "Paytm")

	entry := repo.get(7, models.OrderStatusFailed)
	require.NotNil(t, entry)
	assert.Equal(t, models.CallbackStatusRetry, entry.Status)
	assert.Equal(t, 1, entry.Attempts)
	require.NotNil(t, entry.NextRetryAt)
	assert.True(t, entry.NextRetryAt.Equal(now.Add(5*time.Minute)))
}

func TestAttemptTransportErrorPersistsTransition(t *testing.T) {
	now := time.Now()
	repo := newFakeCallbackRepo()
	d := NewDispatcherWithClient(repo, &http.Client{Timeout: 100 * time.Millisecond}, func() time.Time { return now })

	// Unroutable target: the transport error must count like a non-2xx.
	user := &models.User{ID: 3, CallbackURL: "http://127.0.0.1:1/callback"}
	d.Dispatch(testOrder(models.OrderStatusFailed), user, "Paytm")

	entry := repo.get(7, models.OrderStatusFailed)
	require.NotNil(t, entry)
	assert.Equal(t, models.CallbackStatusRetry, entry.Status)
	assert.Equal(t, 1, entry.Attempts)
}

func TestManualRetryGating(t *testing.T) {
	repo := newFakeCallbackRepo()
	d := NewDispatcherWithClient(repo, http.DefaultClient, time.Now)
	r := NewRetrierWithClock(repo, &fakeUserRepo{}, d, 10*time.Minute, time.Now)

	user := &models.User{ID: 3}

	tests := []struct {
		status  string
		wantErr error
	}{
		{status: models.CallbackStatusSuccess, wantErr: ErrAlreadyDelivered},
		{status: models.CallbackStatusPending, wantErr: ErrDeliveryInFlight},
		{status: models.CallbackStatusFailed, wantErr: ErrPermanentlyFailed},
	}
	for _, tt := range tests {
		err := r.ManualRetry(&models.CallbackLog{Status: tt.status}, user)
		assert.ErrorIs(t, err, tt.wantErr, "status %s", tt.status)
	}
}

func TestFourFailuresThenManualSuccess(t *testing.T) {
	var respondOK bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if respondOK {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeCallbackRepo()
	d := NewDispatcherWithClient(repo, server.Client(), func() time.Time { return now })
	users := &fakeUserRepo{users: map[uint]*models.User{3: {ID: 3, CallbackURL: server.URL}}}
	retrier := NewRetrierWithClock(repo, users, d, 10*time.Minute, func() time.Time { return now })

	user := &models.User{ID: 3, CallbackURL: server.URL}
	d.Dispatch(testOrder(models.OrderStatusSuccess), user, "Paytm")

	// Three scheduled retries, each after the backoff elapses.
	for i := 0; i < 3; i++ {
		entry := repo.get(7, models.OrderStatusSuccess)
		require.NotNil(t, entry.NextRetryAt)
		now = entry.NextRetryAt.Add(time.Second)
		processed, err := retrier.SweepOnce()
		require.NoError(t, err)
		assert.Equal(t, 1, processed)
	}

	entry := repo.get(7, models.OrderStatusSuccess)
	assert.Equal(t, 4, entry.Attempts)
	assert.Equal(t, models.CallbackStatusRetry, entry.Status)

	// Fifth, manual attempt succeeds.
	respondOK = true
	require.NoError(t, retrier.ManualRetry(entry, user))

	final := repo.get(7, models.OrderStatusSuccess)
	assert.Equal(t, models.CallbackStatusSuccess, final.Status)
	assert.Equal(t, 5, final.Attempts)
	assert.Nil(t, final.NextRetryAt)
}

func TestSweepRecoversStuckPendingLog(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	now := time.Now()
	repo := newFakeCallbackRepo()
	d := NewDispatcherWithClient(repo, server.Client(), func() time.Time { return now })
	users := &fakeUserRepo{users: map[uint]*models.User{3: {ID: 3, CallbackURL: server.URL}}}
	retrier := NewRetrierWithClock(repo, users, d, 10*time.Minute, func() time.Time { return now })

	// A log created but never attempted, older than the grace window.
	created, stored, err := repo.CreateIfNotExists(&models.CallbackLog{
		UserID:      3,
		OrderID:     9,
		URL:         server.URL,
		EventStatus: models.OrderStatusFailed,
		Payload:     `{"status":"failed"}`,
		Status:      models.CallbackStatusPending,
	})
	require.NoError(t, err)
	require.True(t, created)
	stored.CreatedAt = now.Add(-15 * time.Minute)
	require.NoError(t, repo.Update(stored))

	processed, err := retrier.SweepOnce()
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.Equal(t, 1, hits)

	entry := repo.get(9, models.OrderStatusFailed)
	assert.Equal(t, models.CallbackStatusSuccess, entry.Status)
	assert.Equal(t, 1, entry.Attempts)
}
