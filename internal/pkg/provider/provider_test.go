package provider

import (
	"context"
	"errors"
	"testing"
)

type stubAdapter struct{ name string }

func (s *stubAdapter) Name() string { return s.name }
func (s *stubAdapter) Status(ctx context.Context, merchantID, orderRef string) (*StatusResult, error) {
	return &StatusResult{Status: StatusPending}, nil
}

func TestRegistryGet(t *testing.T) {
	r := NewRegistry()
	r.Register("Paytm", &stubAdapter{name: "Paytm"})

	adapter, err := r.Get("paytm")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if adapter.Name() != "Paytm" {
		t.Fatalf("unexpected adapter %q", adapter.Name())
	}

	// Lookup is case-insensitive both ways.
	if _, err := r.Get("PAYTM"); err != nil {
		t.Fatalf("unexpected error for upper-case code: %v", err)
	}
}

func TestRegistryUnknownProvider(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("phonepe")
	if !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("expected ErrUnknownProvider, got %v", err)
	}
}

func TestDefaultRegistryHasPaytm(t *testing.T) {
	r := DefaultRegistry()
	adapter, err := r.Get(PaytmProviderCode)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if adapter.Name() != "Paytm" {
		t.Fatalf("unexpected adapter %q", adapter.Name())
	}
}

func TestParsePaytmTxnDate(t *testing.T) {
	tests := []struct {
		in string
		ok bool
	}{
		{in: "2024-05-01 12:34:56.0", ok: true},
		{in: "2024-05-01 12:34:56", ok: true},
		{in: "", ok: false},
		{in: "not-a-date", ok: false},
	}

	for _, tt := range tests {
		got, ok := parsePaytmTxnDate(tt.in)
		if ok != tt.ok {
			t.Fatalf("parsePaytmTxnDate(%q) ok = %v, want %v", tt.in, ok, tt.ok)
		}
		if ok && got.Year() != 2024 {
			t.Fatalf("parsePaytmTxnDate(%q) = %v, wrong year", tt.in, got)
		}
	}
}
