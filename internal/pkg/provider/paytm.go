package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nikhilthakur8/payping/internal/pkg/env"
)

const (
	PaytmProviderCode = "paytm"

	defaultPaytmStatusURL = "https://securegw.paytm.in/order/status"
)

// PaytmClient queries the Paytm order status gateway.
type PaytmClient struct {
	StatusURL string

	HTTPClient *http.Client
}

type paytmStatusResponse struct {
	Status    string `json:"STATUS"`
	BankTxnID string `json:"BANKTXNID"`
	TxnDate   string `json:"TXNDATE"`
}

// NewPaytmClient builds a client from the environment with sane defaults.
func NewPaytmClient() *PaytmClient {
	return &PaytmClient{
		StatusURL: strings.TrimSpace(env.GetEnv("PAYTM_STATUS_URL", defaultPaytmStatusURL)),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (p *PaytmClient) Name() string {
	return "Paytm"
}

// Status fetches and normalizes the gateway's view of one order.
func (p *PaytmClient) Status(ctx context.Context, merchantID, orderRef string) (*StatusResult, error) {
	jsonData := fmt.Sprintf(`{"MID":"%s","ORDERID":"%s"}`, merchantID, orderRef)
	reqURL := p.StatusURL + "?JsonData=" + url.QueryEscape(jsonData)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("paytm status request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("paytm status read failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("paytm status returned HTTP %d", resp.StatusCode)
	}

	var data paytmStatusResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("paytm status parse failed: %w", err)
	}

	result := &StatusResult{
		Status:      StatusPending,
		UTR:         data.BankTxnID,
		RawResponse: string(body),
	}
	if data.Status == "TXN_SUCCESS" {
		result.Status = StatusSuccess
	}
	if t, ok := parsePaytmTxnDate(data.TxnDate); ok {
		result.TxnTime = &t
	}
	return result, nil
}

// parsePaytmTxnDate handles the gateway's date formats, with and without
// fractional seconds.
func parsePaytmTxnDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{
		"2006-01-02 15:04:05.0",
		"2006-01-02 15:04:05",
		time.RFC3339,
	} {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
