package payment

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/nikhilthakur8/payping/app/models"
	"github.com/nikhilthakur8/payping/app/repository"
	"github.com/nikhilthakur8/payping/internal/pkg/env"
	"github.com/nikhilthakur8/payping/internal/pkg/provider"
)

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrDuplicateOrder   = errors.New("order with this reference already exists")
	ErrNoDefaultAccount = errors.New("default provider account not found")
	ErrProviderConfig   = errors.New("provider configuration missing for this account")
)

// Notifier is the dispatch entry point the reconciler calls on terminal
// transitions. Satisfied by *webhook.Dispatcher.
type Notifier interface {
	Dispatch(order *models.PaymentOrder, user *models.User, providerName string)
}

// CreateOrderRequest is the validated input for a new payment link.
type CreateOrderRequest struct {
	Amount    float64 `json:"amount" validate:"required,gt=0"`
	Note      string  `json:"note" validate:"max=255"`
	ClientRef string  `json:"client_ref" validate:"max=100"`
}

// CreateOrderResponse mirrors what the original API hands back to merchants.
type CreateOrderResponse struct {
	Amount    float64 `json:"amount"`
	Note      string  `json:"note,omitempty"`
	UPILink   string  `json:"upi_link"`
	QRPayload string  `json:"qr_payload"`
}

// StatusResponse is the merchant-facing view of an order's state.
type StatusResponse struct {
	Status    string     `json:"status"`
	UTR       *string    `json:"utr"`
	TxnID     string     `json:"txnID"`
	Provider  string     `json:"provider"`
	Amount    float64    `json:"amount"`
	ClientRef string     `json:"clientRef"`
	TxnTime   *time.Time `json:"txnTime"`
}

// Service owns order lifecycle and status reconciliation. It is the only
// component that mutates order status, always through the repository's
// conditional transitions.
type Service struct {
	orders    repository.OrderRepository
	accounts  repository.ProviderAccountRepository
	providers *provider.Registry
	notifier  Notifier
	expiry    time.Duration
	now       func() time.Time
	validate  *validator.Validate
}

// NewService wires the payment service. The expiry window applies to both
// the on-demand check and the periodic sweep so the two paths agree on when
// a pending order is stale.
func NewService(orders repository.OrderRepository, accounts repository.ProviderAccountRepository, providers *provider.Registry, notifier Notifier) *Service {
	expiry := time.Duration(env.GetEnvInt("ORDER_EXPIRY_MINUTES", 10)) * time.Minute
	return &Service{
		orders:    orders,
		accounts:  accounts,
		providers: providers,
		notifier:  notifier,
		expiry:    expiry,
		now:       time.Now,
		validate:  validator.New(),
	}
}

// NewServiceWithClock is used by tests to control time and expiry.
func NewServiceWithClock(orders repository.OrderRepository, accounts repository.ProviderAccountRepository, providers *provider.Registry, notifier Notifier, expiry time.Duration, now func() time.Time) *Service {
	return &Service{
		orders:    orders,
		accounts:  accounts,
		providers: providers,
		notifier:  notifier,
		expiry:    expiry,
		now:       now,
		validate:  validator.New(),
	}
}

// CreateOrder issues a new payment link against the merchant's default
// provider account.
func (s *Service) CreateOrder(user *models.User, req CreateOrderRequest) (*CreateOrderResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	account, err := s.accounts.GetDefaultForUser(user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoDefaultAccount
		}
		return nil, err
	}

	seq, err := s.orders.NextSequence(models.CounterKeyOrderID)
	if err != nil {
		return nil, err
	}
	internalRef := models.FormatInternalRef(seq)

	clientRef := req.ClientRef
	if clientRef == "" {
		clientRef = internalRef
	}
	if _, err := s.orders.GetByUserAndClientRef(user.ID, clientRef); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateOrder, clientRef)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	note := req.Note
	if note == "" {
		note = "Payment"
	}
	qrPayload := fmt.Sprintf("upi://pay?pa=%s&pn=%s&am=%.2f&cu=INR&tn=%s&tr=%s",
		account.VPA,
		url.QueryEscape(user.Name),
		req.Amount,
		url.QueryEscape(note),
		internalRef,
	)
	upiLink := fmt.Sprintf("%s/payment/%s", env.GetEnv("FRONTEND_URL", "http://localhost:3000"), internalRef)

	order := &models.PaymentOrder{
		UserID:            user.ID,
		ProviderAccountID: account.ID,
		InternalRef:       internalRef,
		ClientRef:         clientRef,
		Amount:            req.Amount,
		Note:              req.Note,
		UPILink:           upiLink,
		QRPayload:         qrPayload,
		Status:            models.OrderStatusPending,
	}
	if err := s.orders.Create(order); err != nil {
		return nil, err
	}

	return &CreateOrderResponse{
		Amount:    req.Amount,
		Note:      req.Note,
		UPILink:   upiLink,
		QRPayload: qrPayload,
	}, nil
}

// CheckStatus reconciles one order on demand. Terminal orders are returned
// as-is. A pending order past the expiry window fails and triggers the
// webhook; otherwise the provider is asked, and only a positive settlement
// mutates the order. Adapter and configuration errors never mutate state.
func (s *Service) CheckStatus(ctx context.Context, internalRef string) (*StatusResponse, error) {
	order, err := s.orders.GetByInternalRef(internalRef)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if order.IsTerminal() {
		return buildStatusResponse(order), nil
	}

	now := s.now()
	if order.CreatedAt.Before(now.Add(-s.expiry)) {
		if err := s.expireOrder(order); err != nil {
			return nil, err
		}
		return buildStatusResponse(order), nil
	}

	providerCode := order.ProviderAccount.Provider.Code
	merchantID := order.ProviderAccount.MerchantID
	if providerCode == "" || merchantID == "" {
		return nil, ErrProviderConfig
	}

	adapter, err := s.providers.Get(providerCode)
	if err != nil {
		return nil, err
	}

	result, err := adapter.Status(ctx, merchantID, internalRef)
	if err != nil {
		return nil, err
	}

	if result.Status == provider.StatusSuccess {
		txnTime := now
		if result.TxnTime != nil {
			txnTime = *result.TxnTime
		}
		transitioned, err := s.orders.MarkSuccess(order.ID, result.UTR, txnTime, result.RawResponse)
		if err != nil {
			return nil, err
		}
		if transitioned {
			order.Status = models.OrderStatusSuccess
			order.UTR = result.UTR
			order.TxnTime = &txnTime
			order.ProviderResponse = result.RawResponse
			s.notifier.Dispatch(order, &order.User, order.ProviderAccount.Provider.Name)
		}
	}

	return buildStatusResponse(order), nil
}

// ExpireStaleOrders fails every pending order older than the expiry window
// and dispatches a webhook for each. This catches orders nobody polls.
// It never talks to providers, so it cannot fail on adapter errors.
func (s *Service) ExpireStaleOrders(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.expiry)
	orders, err := s.orders.FindExpiredPending(cutoff)
	if err != nil {
		return 0, err
	}
	if len(orders) == 0 {
		return 0, nil
	}

	log.Infof("[Payment] Found %d expired order(s), processing", len(orders))

	expired := 0
	for i := range orders {
		select {
		case <-ctx.Done():
			return expired, ctx.Err()
		default:
		}

		order := &orders[i]
		if err := s.expireOrder(order); err != nil {
			log.Errorf("[Payment] Failed to expire order %s: %v", order.InternalRef, err)
			continue
		}
		expired++
	}
	return expired, nil
}

// expireOrder performs the conditional pending->failed transition and
// dispatches only when this caller actually won the transition, so repeated
// expiry checks produce a single webhook event.
func (s *Service) expireOrder(order *models.PaymentOrder) error {
	transitioned, err := s.orders.MarkFailed(order.ID)
	if err != nil {
		return err
	}

	order.Status = models.OrderStatusFailed
	order.ProviderResponse = ""

	if transitioned {
		log.Infof("[Payment] Order %s expired, sending webhook", order.InternalRef)
		s.notifier.Dispatch(order, &order.User, order.ProviderAccount.Provider.Name)
	}
	return nil
}

func buildStatusResponse(order *models.PaymentOrder) *StatusResponse {
	var utr *string
	if order.UTR != "" {
		utr = &order.UTR
	}
	return &StatusResponse{
		Status:    order.Status,
		UTR:       utr,
		TxnID:     order.InternalRef,
		Provider:  order.ProviderAccount.Provider.Name,
		Amount:    order.Amount,
		ClientRef: order.ClientRef,
		TxnTime:   order.TxnTime,
	}
}
