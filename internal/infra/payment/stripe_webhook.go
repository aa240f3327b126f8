package payment

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

var (
	ErrStripeWebhookUnconfigured = errors.New("stripe webhook secret is not configured")
	ErrStripeSignature           = errors.New("invalid stripe signature")
)

// 決済完了として扱うイベント
var checkoutEvents = map[stripe.EventType]bool{
	"checkout.session.completed":               true,
	"checkout.session.async_payment_succeeded": true,
}

type StripeEvent struct {
	ID        string
	Type      string
	SessionID string
}

type StripeWebhookVerifier struct {
	secret string
}

func NewStripeWebhookVerifier(secret string) *StripeWebhookVerifier {
	return &StripeWebhookVerifier{secret: strings.TrimSpace(secret)}
}

// Parse は署名を検証し、Checkout完了系のイベントならセッションIDを返す。
// 対象外のイベントは ok=false
func (v *StripeWebhookVerifier) Parse(payload []byte, sigHeader string) (StripeEvent, bool, error) {
	if v.secret == "" {
		return StripeEvent{}, false, ErrStripeWebhookUnconfigured
	}
	if strings.TrimSpace(sigHeader) == "" {
		return StripeEvent{}, false, ErrStripeSignature
	}

	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, v.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return StripeEvent{}, false, fmt.Errorf("%w: %v", ErrStripeSignature, err)
	}

	out := StripeEvent{ID: event.ID, Type: string(event.Type)}
	if !checkoutEvents[event.Type] {
		return out, false, nil
	}

	var s stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
		return out, false, fmt.Errorf("decode checkout.session: %w", err)
	}
	if s.ID == "" {
		return out, false, fmt.Errorf("checkout.session without id")
	}
	out.SessionID = s.ID
	return out, true, nil
}
