package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"storefront/internal/usecase"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
)

// StripeSessionFetcher はStripeのCheckout Sessionを取得する。
// グローバルのstripe.Keyは使わず、キーとbackendを持つ
type StripeSessionFetcher struct {
	client session.Client
}

type StripeConfig struct {
	SecretKey string
	// 空なら本番API。テストではhttptestのURLを入れる
	APIURL  string
	Timeout time.Duration
}

func NewStripeSessionFetcher(cfg StripeConfig) *StripeSessionFetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	bc := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: timeout},
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
		MaxNetworkRetries: stripe.Int64(0),
	}
	if u := strings.TrimSpace(cfg.APIURL); u != "" {
		bc.URL = stripe.String(strings.TrimRight(u, "/"))
	}

	return &StripeSessionFetcher{
		client: session.Client{
			B:   stripe.GetBackendWithConfig(stripe.APIBackend, bc),
			Key: cfg.SecretKey,
		},
	}
}

func (f *StripeSessionFetcher) FetchSession(ctx context.Context, sessionID string) (usecase.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := f.client.Get(sessionID, params)
	if err != nil {
		if isStripeNotFound(err) {
			return usecase.CheckoutSession{}, fmt.Errorf("stripe session %s: %w", sessionID, usecase.ErrPaymentNotFound)
		}
		return usecase.CheckoutSession{}, fmt.Errorf("stripe get session: %w", err)
	}

	return toCheckoutSession(s), nil
}

func toCheckoutSession(s *stripe.CheckoutSession) usecase.CheckoutSession {
	email := s.CustomerEmail
	if email == "" && s.CustomerDetails != nil {
		email = s.CustomerDetails.Email
	}
	return usecase.CheckoutSession{
		ID:               s.ID,
		PaymentStatus:    string(s.PaymentStatus),
		AmountTotalCents: s.AmountTotal,
		Currency:         string(s.Currency),
		CustomerEmail:    strings.ToLower(strings.TrimSpace(email)),
		Metadata:         s.Metadata,
	}
}

func isStripeNotFound(err error) bool {
	var se *stripe.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.HTTPStatusCode == http.StatusNotFound || se.Code == stripe.ErrorCodeResourceMissing
}
