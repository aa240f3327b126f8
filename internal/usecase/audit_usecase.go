package usecase

import (
	"context"
	"net/http"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type AuditLogUsecase struct {
	audits repo.AuditLogRepository
}

func NewAuditLogUsecase(audits repo.AuditLogRepository) *AuditLogUsecase {
	return &AuditLogUsecase{audits: audits}
}

// GET /admin/audit-logs の入力。空文字は絞り込みなし
type ListAuditLogsInput struct {
	Action     string
	EntityType string
	EntityID   string
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

type ListAuditLogsOutput struct {
	Items  []model.AuditLog `json:"items"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

var knownActions = map[model.AuditAction]bool{
	model.AuditActionWebhookReceived:  true,
	model.AuditActionRecalculateCause: true,
	model.AuditActionCreateCause:      true,
}

func (u *AuditLogUsecase) List(ctx context.Context, in ListAuditLogsInput) (ListAuditLogsOutput, error) {
	if in.Limit <= 0 {
		in.Limit = 50
	}
	if in.Limit > 200 {
		return ListAuditLogsOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if in.Offset < 0 {
		return ListAuditLogsOutput{}, NewHTTPError(http.StatusBadRequest, "invalid offset")
	}
	if in.From != nil && in.To != nil && in.From.After(*in.To) {
		return ListAuditLogsOutput{}, NewHTTPError(http.StatusBadRequest, "invalid range")
	}

	f := repo.AuditLogFilter{
		CreatedFrom: in.From,
		CreatedTo:   in.To,
		Limit:       in.Limit,
		Offset:      in.Offset,
	}
	if in.Action != "" {
		a := model.AuditAction(in.Action)
		if !knownActions[a] {
			return ListAuditLogsOutput{}, NewHTTPError(http.StatusBadRequest, "invalid action")
		}
		f.Action = &a
	}
	if in.EntityType != "" {
		et := model.AuditEntityType(in.EntityType)
		f.EntityType = &et
	}
	if in.EntityID != "" {
		id := in.EntityID
		f.EntityID = &id
	}

	logs, err := u.audits.List(ctx, f)
	if err != nil {
		return ListAuditLogsOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if logs == nil {
		logs = []model.AuditLog{}
	}
	return ListAuditLogsOutput{Items: logs, Limit: in.Limit, Offset: in.Offset}, nil
}
