package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/nikhilthakur8/payping/internal/pkg/env"
	"github.com/nikhilthakur8/payping/internal/pkg/payment"
	"github.com/nikhilthakur8/payping/internal/pkg/webhook"
)

// Manager runs the two background loops: the order expiry sweep and the
// webhook retry sweep.
type Manager struct {
	payments      *payment.Service
	retrier       *webhook.Retrier
	cleanupTicker *time.Ticker
	retryTicker   *time.Ticker
	stopCh        chan struct{}
	wg            sync.WaitGroup
	mu            sync.Mutex
	running       bool
}

// NewManager wires the background scheduler against the shared services.
func NewManager(payments *payment.Service, retrier *webhook.Retrier) *Manager {
	return &Manager{
		payments: payments,
		retrier:  retrier,
	}
}

// Start starts the background sweeps. Calling Start on a running manager is
// a no-op.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	// Recreate stop channel for each start cycle so the manager can be
	// restarted safely.
	m.stopCh = make(chan struct{})
	m.running = true
	log.Info("[Scheduler] Starting background tasks")

	cleanupInterval := time.Duration(env.GetEnvInt("ORDER_CLEANUP_INTERVAL_MINUTES", 2)) * time.Minute
	retryInterval := time.Duration(env.GetEnvInt("WEBHOOK_RETRY_INTERVAL_MINUTES", 5)) * time.Minute

	m.cleanupTicker = time.NewTicker(cleanupInterval)
	m.wg.Add(1)
	go m.cleanupWorker(cleanupInterval)

	m.retryTicker = time.NewTicker(retryInterval)
	m.wg.Add(1)
	go m.retryWorker(retryInterval)

	log.Info("[Scheduler] Started successfully")
}

// Stop stops the background sweeps and waits for in-flight ticks to finish.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	log.Info("[Scheduler] Stopping background tasks...")

	if m.cleanupTicker != nil {
		m.cleanupTicker.Stop()
	}
	if m.retryTicker != nil {
		m.retryTicker.Stop()
	}

	close(m.stopCh)
	m.stopCh = nil
	m.running = false

	m.wg.Wait()

	log.Info("[Scheduler] Stopped successfully")
}

// IsRunning returns whether the manager is currently running.
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// cleanupWorker periodically fails pending orders that outlived the expiry
// window.
func (m *Manager) cleanupWorker(interval time.Duration) {
	defer m.wg.Done()
	log.Infof("[Scheduler] Started order cleanup worker (interval: %s)", interval)

	for {
		select {
		case <-m.stopCh:
			log.Info("[Scheduler] Order cleanup worker stopping")
			return
		case <-m.cleanupTicker.C:
			log.Debug("[Scheduler] Running expired order cleanup")
			if _, err := m.payments.ExpireStaleOrders(context.Background()); err != nil {
				log.Errorf("[Scheduler] Error expiring stale orders: %v", err)
			}
		}
	}
}

// retryWorker periodically replays due webhook deliveries.
func (m *Manager) retryWorker(interval time.Duration) {
	defer m.wg.Done()
	log.Infof("[Scheduler] Started webhook retry worker (interval: %s)", interval)

	for {
		select {
		case <-m.stopCh:
			log.Info("[Scheduler] Webhook retry worker stopping")
			return
		case <-m.retryTicker.C:
			log.Debug("[Scheduler] Running webhook retry sweep")
			if _, err := m.retrier.SweepOnce(); err != nil {
				log.Errorf("[Scheduler] Error sweeping webhook retries: %v", err)
			}
		}
	}
}
