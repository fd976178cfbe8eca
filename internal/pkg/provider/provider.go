package provider

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// Normalized transaction states reported by status adapters.
const (
	StatusSuccess = "success"
	StatusPending = "pending"
)

// ErrUnknownProvider is returned when no adapter is registered for a code.
var ErrUnknownProvider = errors.New("unknown payment provider")

// StatusResult is the provider-agnostic shape of a status lookup.
type StatusResult struct {
	Status      string
	UTR         string
	TxnTime     *time.Time
	RawResponse string
}

// StatusAdapter queries one payment provider for the state of an order.
// Implementations live outside the reconciliation core and are registered
// by code at startup.
type StatusAdapter interface {
	Name() string
	Status(ctx context.Context, merchantID, orderRef string) (*StatusResult, error)
}

// Registry maps provider codes to status adapters.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]StatusAdapter
}

func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]StatusAdapter)}
}

// Register adds an adapter under the given code (case-insensitive).
func (r *Registry) Register(code string, adapter StatusAdapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[strings.ToLower(code)] = adapter
}

// Get resolves an adapter by code, or ErrUnknownProvider.
func (r *Registry) Get(code string) (StatusAdapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	adapter, ok := r.adapters[strings.ToLower(code)]
	if !ok {
		return nil, ErrUnknownProvider
	}
	return adapter, nil
}

// DefaultRegistry returns a registry with all built-in adapters.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(PaytmProviderCode, NewPaytmClient())
	return r
}
