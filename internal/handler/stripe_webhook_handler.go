package handler

import (
	"errors"
	"io"
	"net/http"

	"storefront/internal/infra/payment"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const maxStripeBodyBytes = 1 << 20

type StripeWebhookResponse struct {
	Received bool   `json:"received"`
	Status   string `json:"status"`
}

// StripeWebhookHandler はCheckout完了イベントを受けて、checkout確認と同じ経路で記録する
type StripeWebhookHandler struct {
	verifier *payment.StripeWebhookVerifier
	uc       *usecase.CheckoutUsecase
	log      zerolog.Logger
}

func NewStripeWebhookHandler(verifier *payment.StripeWebhookVerifier, uc *usecase.CheckoutUsecase, log zerolog.Logger) *StripeWebhookHandler {
	return &StripeWebhookHandler{verifier: verifier, uc: uc, log: log.With().Str("component", "stripe_webhook").Logger()}
}

func (h *StripeWebhookHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/webhooks/stripe", h.receive)
}

func (h *StripeWebhookHandler) receive(c echo.Context) error {
	req := c.Request()
	payload, err := io.ReadAll(io.LimitReader(req.Body, maxStripeBodyBytes))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "failed to read body"})
	}

	ev, ok, err := h.verifier.Parse(payload, req.Header.Get("Stripe-Signature"))
	switch {
	case errors.Is(err, payment.ErrStripeWebhookUnconfigured):
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "stripe webhook is not configured"})
	case errors.Is(err, payment.ErrStripeSignature):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid signature"})
	case err != nil:
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid event", Detail: err.Error()})
	}

	l := h.log.With().Str("event_id", ev.ID).Str("type", ev.Type).Logger()
	if !ok {
		l.Info().Msg("stripe event ignored")
		return c.JSON(http.StatusOK, StripeWebhookResponse{Received: true, Status: "ignored"})
	}

	if _, err := h.uc.Verify(req.Context(), ev.SessionID); err != nil {
		if errors.Is(err, usecase.ErrPaymentIncomplete) {
			//async_payment_succeeded がまた来るので2xxで受ける
			return c.JSON(http.StatusAccepted, StripeWebhookResponse{Received: true, Status: "pending"})
		}
		l.Error().Err(err).Str("session_id", ev.SessionID).Msg("stripe event processing failed")
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, StripeWebhookResponse{Received: true, Status: "processed"})
}
