package handler

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"storefront/internal/pricing"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type CauseCreateRequest struct {
	Name      string `json:"name"`
	GoalCents int64  `json:"goal_cents"`
}

type PrefetchRequest struct {
	Items []pricing.Item `json:"items"`
}

// /admin 配下（寄付先の管理・監査ログ・価格の先読み）
type AdminHandler struct {
	causes     *usecase.CauseUsecase
	audits     *usecase.AuditLogUsecase
	prefetcher *pricing.Prefetcher

	//ブレーカーとキャッシュは共有なので、先読みは同時に1本だけ
	prefetchMu sync.Mutex
}

func NewAdminHandler(causes *usecase.CauseUsecase, audits *usecase.AuditLogUsecase, prefetcher *pricing.Prefetcher) *AdminHandler {
	return &AdminHandler{causes: causes, audits: audits, prefetcher: prefetcher}
}

// admin グループ（JWT + ADMIN）に登録する
func (h *AdminHandler) RegisterRoutes(admin *echo.Group) {
	admin.POST("/causes", h.createCause)
	admin.POST("/causes/:id/recalculate", h.recalculateCause)
	admin.GET("/audit-logs", h.listAuditLogs)
	admin.POST("/prices/prefetch", h.prefetchPrices)
	admin.GET("/prices/breaker", h.breakerState)
}

func (h *AdminHandler) createCause(c echo.Context) error {
	var req CauseCreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.causes.Create(c.Request().Context(), usecase.CreateCauseInput{
		Name:      req.Name,
		GoalCents: req.GoalCents,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *AdminHandler) recalculateCause(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	out, err := h.causes.Recalculate(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminHandler) listAuditLogs(c echo.Context) error {
	in := usecase.ListAuditLogsInput{
		Action:     c.QueryParam("action"),
		EntityType: c.QueryParam("entity_type"),
		EntityID:   c.QueryParam("entity_id"),
	}

	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
		}
		in.Limit = l
	}
	if v := c.QueryParam("offset"); v != "" {
		o, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid offset"})
		}
		in.Offset = o
	}
	if v := c.QueryParam("from"); v != "" {
		tm, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid from"})
		}
		in.From = &tm
	}
	if v := c.QueryParam("to"); v != "" {
		tm, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid to"})
		}
		in.To = &tm
	}

	out, err := h.audits.List(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminHandler) prefetchPrices(c echo.Context) error {
	var req PrefetchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if len(req.Items) == 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "items is required"})
	}
	for _, it := range req.Items {
		if it.Key() == "" {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid item"})
		}
	}

	if !h.prefetchMu.TryLock() {
		return c.JSON(http.StatusConflict, ErrorResponse{Error: "prefetch already running"})
	}
	defer h.prefetchMu.Unlock()

	report := h.prefetcher.Run(c.Request().Context(), req.Items)
	return c.JSON(http.StatusOK, report)
}

func (h *AdminHandler) breakerState(c echo.Context) error {
	return c.JSON(http.StatusOK, h.prefetcher.Breaker().State())
}
