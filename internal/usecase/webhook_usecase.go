package usecase

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"unicode/utf8"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	"storefront/internal/webhook"

	"github.com/rs/zerolog"
)

// 監査ログに残す生ペイロードの上限
const maxAuditPayloadBytes = 4 << 10

type SubmissionValidator interface {
	ValidateSubmission(sub webhook.Submission) error
}

type WebhookUsecase struct {
	ledger    *LedgerUsecase
	orders    repo.OrderRepository
	donations repo.DonationRepository
	audits    repo.AuditLogRepository
	validator SubmissionValidator
	secret    string
	log       zerolog.Logger
}

func NewWebhookUsecase(
	ledger *LedgerUsecase,
	orders repo.OrderRepository,
	donations repo.DonationRepository,
	audits repo.AuditLogRepository,
	validator SubmissionValidator,
	secret string,
	log zerolog.Logger,
) *WebhookUsecase {
	return &WebhookUsecase{
		ledger:    ledger,
		orders:    orders,
		donations: donations,
		audits:    audits,
		validator: validator,
		secret:    secret,
		log:       log.With().Str("component", "webhook").Logger(),
	}
}

type WebhookInput struct {
	ContentType string
	Body        []byte
	Query       url.Values
	Header      http.Header
}

type WebhookResult struct {
	Success          bool   `json:"success"`
	OrderNumber      string `json:"orderNumber"`
	AlreadyProcessed bool   `json:"alreadyProcessed,omitempty"`
}

// Ingest はフォームwebhookを1件処理する。
// 送信側は200以外で再送してくるので、同じ送信は2回目以降 alreadyProcessed で返す
func (u *WebhookUsecase) Ingest(ctx context.Context, in WebhookInput) (WebhookResult, error) {
	fields, decodeErr := webhook.Decode(in.ContentType, in.Body)

	orderNumber := ""
	if decodeErr == nil {
		orderNumber = webhook.Extract(fields)[webhook.FieldOrderNumber]
		if orderNumber == "" {
			orderNumber = webhook.FallbackOrderNumber(in.Body)
		}
	}
	l := u.log.With().Str("order_number", orderNumber).Logger()

	//結果に関係なく受信は必ず残す
	u.auditReceived(ctx, l, in, orderNumber)

	if decodeErr != nil {
		l.Warn().Err(decodeErr).Msg("webhook payload could not be decoded")
		return WebhookResult{}, NewValidationError("payload", decodeErr.Error())
	}

	if u.secret != "" {
		got := webhook.Secret(fields, in.Query, in.Header)
		if subtle.ConstantTimeCompare([]byte(got), []byte(u.secret)) != 1 {
			l.Warn().Msg("webhook secret mismatch")
			return WebhookResult{}, ErrSecretMismatch
		}
	}

	sub, err := webhook.Normalize(fields, in.Body)
	if err != nil {
		return WebhookResult{}, asValidationError(err)
	}
	if err := u.validator.ValidateSubmission(sub); err != nil {
		l.Warn().Err(err).Msg("webhook submission rejected")
		return WebhookResult{}, asValidationError(err)
	}

	done, err := u.alreadyProcessed(ctx, sub.OrderNumber)
	if err != nil {
		l.Error().Err(err).Msg("idempotency lookup failed")
		return WebhookResult{}, storeWriteError("find_submission", sub.OrderNumber, err)
	}
	if done {
		l.Info().Msg("webhook already processed")
		return WebhookResult{Success: true, OrderNumber: sub.OrderNumber, AlreadyProcessed: true}, nil
	}

	switch sub.Kind() {
	case webhook.KindDonation:
		_, err = u.ledger.RecordDonation(ctx, DonationInput{
			Reference:   sub.OrderNumber,
			CauseID:     sub.CauseID,
			AmountCents: sub.DonationCents,
			Email:       sub.Email,
		})
	default:
		f := OrderFields{
			Status:           model.OrderStatusCompleted,
			ProductName:      sub.ProductName,
			Quantity:         sub.Quantity,
			AmountTotalCents: sub.AmountTotalCents,
			Currency:         sub.Currency,
			DonationCents:    sub.DonationCents,
			CauseName:        sub.CauseName,
			CustomerEmail:    sub.Email,
		}
		if sub.CauseID > 0 {
			id := sub.CauseID
			f.CauseID = &id
		}
		_, err = u.ledger.Reconcile(ctx, OrderKey{OrderNumber: sub.OrderNumber}, f)
	}
	if err != nil {
		return WebhookResult{}, err
	}

	l.Info().Str("kind", string(sub.Kind())).Msg("webhook processed")
	return WebhookResult{Success: true, OrderNumber: sub.OrderNumber}, nil
}

// 注文があっても寄付がまだなら未処理とみなす。
// 前回が寄付の途中で失敗していれば、再送でReconcileからやり直せる
func (u *WebhookUsecase) alreadyProcessed(ctx context.Context, orderNumber string) (bool, error) {
	o, found, err := u.orders.FindByOrderNumber(ctx, orderNumber)
	if err != nil {
		return false, err
	}
	if found {
		if !o.HasDonation() {
			return true, nil
		}
		_, found, err = u.donations.FindByOrderID(ctx, o.ID)
		return found, err
	}
	_, found, err = u.donations.FindByReference(ctx, orderNumber)
	return found, err
}

// 監査ログの失敗で本処理は止めない（ログには残す）
func (u *WebhookUsecase) auditReceived(ctx context.Context, l zerolog.Logger, in WebhookInput, orderNumber string) {
	details, err := json.Marshal(map[string]interface{}{
		"content_type": in.ContentType,
		"size":         len(in.Body),
		"payload":      truncateUTF8(webhook.RedactSecrets(in.Body), maxAuditPayloadBytes),
	})
	if err != nil {
		l.Error().Err(err).Msg("audit details marshal failed")
		return
	}

	entry := model.AuditLog{
		Action:     model.AuditActionWebhookReceived,
		EntityType: model.AuditEntityWebhook,
		EntityID:   orderNumber,
		Details:    string(details),
	}
	if err := u.audits.Create(ctx, entry); err != nil {
		l.Error().Err(err).Msg("audit log write failed")
	}
}

func truncateUTF8(b []byte, max int) string {
	if len(b) <= max {
		return string(b)
	}
	b = b[:max]
	//途中で切れたマルチバイト文字を落とす
	for i := 0; i < utf8.UTFMax-1 && len(b) > 0; i++ {
		r, size := utf8.DecodeLastRune(b)
		if r != utf8.RuneError || size != 1 {
			break
		}
		b = b[:len(b)-1]
	}
	return string(b)
}

func asValidationError(err error) error {
	var fe *webhook.FieldError
	if errors.As(err, &fe) {
		return NewValidationError(fe.Field, fe.Reason)
	}
	return NewValidationError("payload", err.Error())
}
