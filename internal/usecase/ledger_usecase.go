package usecase

import (
	"context"
	"errors"
	"strings"

	"storefront/internal/domain/model"
	"storefront/internal/milestone"
	repo "storefront/internal/repository"

	"github.com/rs/zerolog"
)

// LedgerUsecase は注文と寄付を「1回だけ」記録し、寄付先の累計を加算する。
// checkout確認とwebhookの両方がここを通る
type LedgerUsecase struct {
	tx        repo.TransactionManager
	orders    repo.OrderRepository
	donations repo.DonationRepository
	log       zerolog.Logger
	goalCents int64
}

func NewLedgerUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	donations repo.DonationRepository,
	log zerolog.Logger,
	goalCents int64,
) *LedgerUsecase {
	if goalCents <= 0 {
		goalCents = milestone.DefaultGoalCents
	}
	return &LedgerUsecase{
		tx:        tx,
		orders:    orders,
		donations: donations,
		log:       log.With().Str("component", "ledger").Logger(),
		goalCents: goalCents,
	}
}

// OrderKey は注文の冪等キー。session_idがあれば優先する
type OrderKey struct {
	SessionID   string
	OrderNumber string
}

func (k OrderKey) String() string {
	if k.SessionID != "" {
		return "session:" + k.SessionID
	}
	return "order_number:" + k.OrderNumber
}

// OrderFields は注文に書き込む値。空の項目は既存の値を残す
type OrderFields struct {
	Status           model.OrderStatus
	ProductName      string
	Quantity         int64
	AmountTotalCents int64
	Currency         string
	DonationCents    int64
	CauseID          *int64
	CauseName        string
	CustomerEmail    string
}

type DonationInput struct {
	Reference   string
	CauseID     int64
	AmountCents int64
	Email       string
}

type DonationResult struct {
	//今回の呼び出しで寄付行を作ったか（リプレイならfalse）
	Recorded   bool
	CauseFound bool
	Crossing   milestone.Crossing
}

type ReconcileResult struct {
	Order    model.Order
	Created  bool
	Donation *DonationResult
}

// Reconcile は注文を探して更新、なければ作成する。
// 同時に作成された場合は一意制約違反をリプレイとみなして再取得→更新する
func (u *LedgerUsecase) Reconcile(ctx context.Context, key OrderKey, f OrderFields) (ReconcileResult, error) {
	key.SessionID = strings.TrimSpace(key.SessionID)
	key.OrderNumber = strings.TrimSpace(key.OrderNumber)
	if key.SessionID == "" && key.OrderNumber == "" {
		return ReconcileResult{}, NewValidationError("order_number", "is required")
	}

	l := u.log.With().
		Str("key", key.String()).
		Str("order_number", key.OrderNumber).
		Str("session_id", key.SessionID).
		Logger()

	existing, found, err := u.findOrder(ctx, key)
	if err != nil {
		l.Error().Err(err).Msg("order lookup failed")
		return ReconcileResult{}, storeWriteError("find_order", key.String(), err)
	}

	var out ReconcileResult
	if found {
		order, err := u.updateOrder(ctx, existing, f)
		if err != nil {
			l.Error().Err(err).Msg("order update failed")
			return ReconcileResult{}, storeWriteError("update_order", key.String(), err)
		}
		out.Order = order
		l.Info().Int64("order_id", order.ID).Msg("order updated")
	} else {
		if key.OrderNumber == "" {
			return ReconcileResult{}, NewValidationError("order_number", "is required")
		}
		order := newOrder(key, f)
		err := u.orders.Create(ctx, &order)
		switch {
		case err == nil:
			out.Order = order
			out.Created = true
			l.Info().Int64("order_id", order.ID).Msg("order created")
		case errors.Is(err, repo.ErrDuplicate):
			//他のリクエストが先に作った
			existing, found, ferr := u.findOrder(ctx, key)
			if ferr != nil || !found {
				if ferr == nil {
					ferr = err
				}
				l.Error().Err(ferr).Msg("order re-find after duplicate failed")
				return ReconcileResult{}, storeWriteError("find_order", key.String(), ferr)
			}
			order, uerr := u.updateOrder(ctx, existing, f)
			if uerr != nil {
				l.Error().Err(uerr).Msg("order update failed")
				return ReconcileResult{}, storeWriteError("update_order", key.String(), uerr)
			}
			out.Order = order
			l.Info().Int64("order_id", order.ID).Msg("duplicate insert treated as replay")
		default:
			l.Error().Err(err).Msg("order insert failed")
			return ReconcileResult{}, storeWriteError("create_order", key.String(), err)
		}
	}

	if !out.Order.HasDonation() {
		return out, nil
	}

	orderID := out.Order.ID
	d := model.Donation{
		OrderID:       &orderID,
		CauseID:       *out.Order.CauseID,
		AmountCents:   out.Order.DonationCents,
		CustomerEmail: out.Order.CustomerEmail,
	}

	_, exists, err := u.donations.FindByOrderID(ctx, orderID)
	if err != nil {
		l.Error().Err(err).Msg("donation lookup failed")
		return ReconcileResult{}, storeWriteError("find_donation", d.IdempotencyKey(), err)
	}
	if exists {
		out.Donation = &DonationResult{}
		return out, nil
	}

	res, err := u.recordDonation(ctx, d)
	if err != nil {
		return ReconcileResult{}, err
	}
	out.Donation = &res
	return out, nil
}

// RecordDonation は注文を伴わない寄付（フォームの寄付のみ送信）を記録する
func (u *LedgerUsecase) RecordDonation(ctx context.Context, in DonationInput) (DonationResult, error) {
	ref := strings.TrimSpace(in.Reference)
	if ref == "" {
		return DonationResult{}, NewValidationError("reference", "is required")
	}
	if in.CauseID <= 0 {
		return DonationResult{}, NewValidationError("cause_id", "is required")
	}
	if in.AmountCents <= 0 {
		return DonationResult{}, NewValidationError("donation_amount", "must be positive")
	}

	d := model.Donation{
		Reference:     &ref,
		CauseID:       in.CauseID,
		AmountCents:   in.AmountCents,
		CustomerEmail: in.Email,
	}

	_, exists, err := u.donations.FindByReference(ctx, ref)
	if err != nil {
		u.log.Error().Err(err).Str("key", d.IdempotencyKey()).Msg("donation lookup failed")
		return DonationResult{}, storeWriteError("find_donation", d.IdempotencyKey(), err)
	}
	if exists {
		return DonationResult{}, nil
	}
	return u.recordDonation(ctx, d)
}

// 寄付の作成と累計の加算は同じトランザクション。
// 行が作られたときだけ加算するので、同じキーで何度呼ばれても1回分しか増えない
func (u *LedgerUsecase) recordDonation(ctx context.Context, d model.Donation) (DonationResult, error) {
	key := d.IdempotencyKey()
	l := u.log.With().
		Str("key", key).
		Int64("cause_id", d.CauseID).
		Int64("amount_cents", d.AmountCents).
		Logger()

	var out DonationResult
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		inserted, err := r.Donations().CreateIfAbsent(ctx, &d)
		if err != nil {
			return storeWriteError("create_donation", key, err)
		}
		if !inserted {
			return nil
		}
		out.Recorded = true

		ok, err := r.Causes().IncrementRaised(ctx, d.CauseID, d.AmountCents)
		if err != nil {
			return storeWriteError("increment_raised", key, err)
		}
		if !ok {
			//寄付行は正とする。累計は後から再計算で直せる
			l.Warn().Msg("cause not found; donation kept without aggregate update")
			return nil
		}
		out.CauseFound = true

		cause, err := r.Causes().FindByID(ctx, d.CauseID)
		if err != nil {
			return storeWriteError("find_cause", key, err)
		}
		goal := cause.GoalCents
		if goal <= 0 {
			goal = u.goalCents
		}
		out.Crossing = milestone.Cross(cause.RaisedCents-d.AmountCents, cause.RaisedCents, goal)
		return nil
	})
	if err != nil {
		l.Error().Err(err).Msg("donation write failed")
		return DonationResult{}, err
	}

	switch {
	case !out.Recorded:
		l.Info().Msg("donation already recorded")
	case out.Crossing.Reached():
		l.Info().
			Int64("milestones_crossed", out.Crossing.Crossed).
			Int64("milestone_count", out.Crossing.AfterCount).
			Msg("donation recorded; milestone reached")
	default:
		l.Info().Msg("donation recorded")
	}
	return out, nil
}

func (u *LedgerUsecase) findOrder(ctx context.Context, key OrderKey) (model.Order, bool, error) {
	if key.SessionID != "" {
		o, found, err := u.orders.FindBySessionID(ctx, key.SessionID)
		if err != nil || found {
			return o, found, err
		}
	}
	if key.OrderNumber != "" {
		return u.orders.FindByOrderNumber(ctx, key.OrderNumber)
	}
	return model.Order{}, false, nil
}

func (u *LedgerUsecase) updateOrder(ctx context.Context, o model.Order, f OrderFields) (model.Order, error) {
	applyFields(&o, f)
	if err := u.orders.Update(ctx, o); err != nil {
		return model.Order{}, err
	}
	return o, nil
}

func newOrder(key OrderKey, f OrderFields) model.Order {
	o := model.Order{
		OrderNumber: key.OrderNumber,
		Status:      model.OrderStatusPending,
		Quantity:    1,
		Currency:    "usd",
	}
	if key.SessionID != "" {
		sid := key.SessionID
		o.SessionID = &sid
	}
	applyFields(&o, f)
	return o
}

func applyFields(o *model.Order, f OrderFields) {
	o.Status = o.Status.Advance(f.Status)
	if f.ProductName != "" {
		o.ProductName = f.ProductName
	}
	if f.Quantity > 0 {
		o.Quantity = f.Quantity
	}
	if f.AmountTotalCents > 0 {
		o.AmountTotalCents = f.AmountTotalCents
	}
	if f.Currency != "" {
		o.Currency = strings.ToLower(f.Currency)
	}
	if f.DonationCents > 0 {
		o.DonationCents = f.DonationCents
	}
	if f.CauseID != nil && *f.CauseID > 0 {
		id := *f.CauseID
		o.CauseID = &id
	}
	if f.CauseName != "" {
		o.CauseName = f.CauseName
	}
	if f.CustomerEmail != "" {
		o.CustomerEmail = f.CustomerEmail
	}
}
