package usecase

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/webhook"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const paymentStatusPaid = "paid"

// CheckoutSession は決済プロバイダのセッションのうち使う項目だけ
type CheckoutSession struct {
	ID               string
	PaymentStatus    string
	AmountTotalCents int64
	Currency         string
	CustomerEmail    string
	Metadata         map[string]string
}

// SessionFetcher は決済プロバイダからセッションを取る。
// セッションが無いときは ErrPaymentNotFound を返す
type SessionFetcher interface {
	FetchSession(ctx context.Context, sessionID string) (CheckoutSession, error)
}

type CheckoutUsecase struct {
	fetcher SessionFetcher
	ledger  *LedgerUsecase
	timeout time.Duration
	log     zerolog.Logger
}

func NewCheckoutUsecase(fetcher SessionFetcher, ledger *LedgerUsecase, timeout time.Duration, log zerolog.Logger) *CheckoutUsecase {
	return &CheckoutUsecase{
		fetcher: fetcher,
		ledger:  ledger,
		timeout: timeout,
		log:     log.With().Str("component", "checkout").Logger(),
	}
}

type VerifyResult struct {
	OK          bool   `json:"ok"`
	OrderNumber string `json:"order_number"`
	SessionID   string `json:"session_id"`
}

// Verify は決済完了を確認して注文（と寄付）を記録する。
// 同じsession_idで何度呼ばれても注文は1件
func (u *CheckoutUsecase) Verify(ctx context.Context, sessionID string) (VerifyResult, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return VerifyResult{}, NewValidationError("session_id", "is required")
	}
	l := u.log.With().Str("session_id", sessionID).Logger()

	fetchCtx := ctx
	if u.timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	sess, err := u.fetcher.FetchSession(fetchCtx, sessionID)
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			l.Info().Msg("checkout session not found")
			return VerifyResult{}, err
		}
		l.Error().Err(err).Msg("checkout session fetch failed")
		return VerifyResult{}, &HTTPError{Status: http.StatusBadGateway, Message: "payment_provider_unavailable", Detail: err.Error()}
	}

	if sess.PaymentStatus != paymentStatusPaid {
		l.Info().Str("payment_status", sess.PaymentStatus).Msg("checkout session not paid yet")
		return VerifyResult{}, ErrPaymentIncomplete
	}

	orderNumber, f := u.orderFieldsFromSession(l, sess)

	res, err := u.ledger.Reconcile(ctx, OrderKey{SessionID: sessionID, OrderNumber: orderNumber}, f)
	if err != nil {
		return VerifyResult{}, err
	}

	return VerifyResult{OK: true, OrderNumber: res.Order.OrderNumber, SessionID: sessionID}, nil
}

func (u *CheckoutUsecase) orderFieldsFromSession(l zerolog.Logger, sess CheckoutSession) (string, OrderFields) {
	md := sess.Metadata
	if md == nil {
		md = map[string]string{}
	}
	get := func(k string) string { return strings.TrimSpace(md[k]) }

	orderNumber := get("order_number")
	if orderNumber == "" {
		orderNumber = fallbackOrderNumber()
	}

	f := OrderFields{
		Status:           model.OrderStatusCompleted,
		ProductName:      get("product_name"),
		Quantity:         1,
		AmountTotalCents: sess.AmountTotalCents,
		Currency:         sess.Currency,
		CauseName:        get("cause_name"),
		CustomerEmail:    sess.CustomerEmail,
	}

	if q := get("quantity"); q != "" {
		if n, err := strconv.ParseInt(q, 10, 64); err == nil && n > 0 {
			f.Quantity = n
		} else {
			l.Warn().Str("quantity", q).Msg("ignoring invalid quantity metadata")
		}
	}

	if c := get("donation_cents"); c != "" {
		if n, err := strconv.ParseInt(c, 10, 64); err == nil && n > 0 {
			f.DonationCents = n
		} else {
			l.Warn().Str("donation_cents", c).Msg("ignoring invalid donation metadata")
		}
	} else if a := get("donation_amount"); a != "" {
		if n, err := webhook.ParseMajorUnits("donation_amount", a); err == nil {
			f.DonationCents = n
		} else {
			l.Warn().Str("donation_amount", a).Msg("ignoring invalid donation metadata")
		}
	}

	if c := get("cause_id"); c != "" {
		if id, err := strconv.ParseInt(c, 10, 64); err == nil && id > 0 {
			f.CauseID = &id
		} else {
			l.Warn().Str("cause_id", c).Msg("ignoring invalid cause metadata")
		}
	}

	return orderNumber, f
}

// ORD-<12桁hex>
func fallbackOrderNumber() string {
	return "ORD-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}
