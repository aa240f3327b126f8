package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/milestone"
	repo "storefront/internal/repository"

	"github.com/rs/zerolog"
)

type CauseUsecase struct {
	tx        repo.TransactionManager
	causes    repo.CauseRepository
	goalCents int64
	log       zerolog.Logger
}

func NewCauseUsecase(tx repo.TransactionManager, causes repo.CauseRepository, goalCents int64, log zerolog.Logger) *CauseUsecase {
	if goalCents <= 0 {
		goalCents = milestone.DefaultGoalCents
	}
	return &CauseUsecase{
		tx:        tx,
		causes:    causes,
		goalCents: goalCents,
		log:       log.With().Str("component", "cause").Logger(),
	}
}

type CauseOutput struct {
	ID        int64              `json:"id"`
	Name      string             `json:"name"`
	Milestone milestone.Progress `json:"milestone"`
	UpdatedAt time.Time          `json:"updated_at"`
}

type CreateCauseInput struct {
	Name      string
	GoalCents int64
}

type RecalculateOutput struct {
	CauseID     int64 `json:"cause_id"`
	BeforeCents int64 `json:"before_cents"`
	AfterCents  int64 `json:"after_cents"`
}

// Get はマイルストーンを毎回 raised_cents から計算し直して返す
func (u *CauseUsecase) Get(ctx context.Context, causeID int64) (CauseOutput, error) {
	if causeID <= 0 {
		return CauseOutput{}, NewHTTPError(http.StatusBadRequest, "invalid cause id")
	}

	c, err := u.causes.FindByID(ctx, causeID)
	if errors.Is(err, repo.ErrNotFound) {
		return CauseOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return CauseOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return u.toOutput(c), nil
}

func (u *CauseUsecase) Create(ctx context.Context, in CreateCauseInput) (CauseOutput, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || len(name) > 255 {
		return CauseOutput{}, NewValidationError("name", "is required")
	}
	if in.GoalCents < 0 {
		return CauseOutput{}, NewValidationError("goal_cents", "must not be negative")
	}
	goal := in.GoalCents
	if goal == 0 {
		goal = u.goalCents
	}

	c := model.Cause{Name: name, GoalCents: goal}
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.Causes().Create(ctx, &c); err != nil {
			return err
		}
		details, _ := json.Marshal(map[string]interface{}{"name": c.Name, "goal_cents": c.GoalCents})
		return r.AuditLogs().Create(ctx, model.AuditLog{
			Action:     model.AuditActionCreateCause,
			EntityType: model.AuditEntityCause,
			EntityID:   strconv.FormatInt(c.ID, 10),
			Details:    string(details),
		})
	})
	if err != nil {
		u.log.Error().Err(err).Str("name", name).Msg("cause create failed")
		return CauseOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.log.Info().Int64("cause_id", c.ID).Msg("cause created")
	return u.toOutput(c), nil
}

// Recalculate は raised_cents を寄付行の合計で置き換える（集計値の修復）。
// 行ロック中に読み替えるので、同時の加算とは前後どちらかに並ぶ
func (u *CauseUsecase) Recalculate(ctx context.Context, causeID int64) (RecalculateOutput, error) {
	if causeID <= 0 {
		return RecalculateOutput{}, NewHTTPError(http.StatusBadRequest, "invalid cause id")
	}

	out := RecalculateOutput{CauseID: causeID}
	key := strconv.FormatInt(causeID, 10)

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		c, err := r.Causes().FindByIDForUpdate(ctx, causeID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return storeWriteError("lock_cause", key, err)
		}

		sum, err := r.Donations().SumByCause(ctx, causeID)
		if err != nil {
			return storeWriteError("sum_donations", key, err)
		}
		if err := r.Causes().SetRaised(ctx, causeID, sum); err != nil {
			return storeWriteError("set_raised", key, err)
		}

		out.BeforeCents = c.RaisedCents
		out.AfterCents = sum

		details, _ := json.Marshal(map[string]int64{"before": c.RaisedCents, "after": sum})
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			Action:     model.AuditActionRecalculateCause,
			EntityType: model.AuditEntityCause,
			EntityID:   key,
			Details:    string(details),
		}); err != nil {
			return storeWriteError("audit_recalculate", key, err)
		}
		return nil
	})
	if err != nil {
		if _, ok := AsHTTPError(err); !ok {
			err = storeWriteError("recalculate", key, err)
		}
		u.log.Error().Err(err).Int64("cause_id", causeID).Msg("cause recalculate failed")
		return RecalculateOutput{}, err
	}

	u.log.Info().
		Int64("cause_id", causeID).
		Int64("before_cents", out.BeforeCents).
		Int64("after_cents", out.AfterCents).
		Msg("cause recalculated")
	return out, nil
}

func (u *CauseUsecase) toOutput(c model.Cause) CauseOutput {
	goal := c.GoalCents
	if goal <= 0 {
		goal = u.goalCents
	}
	return CauseOutput{
		ID:        c.ID,
		Name:      c.Name,
		Milestone: milestone.Evaluate(c.RaisedCents, goal),
		UpdatedAt: c.UpdatedAt,
	}
}
