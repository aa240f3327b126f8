package handler

import (
	"errors"
	"net/http"
	"strconv"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 支払い未完了のときにクライアントへ返す再試行までの秒数
const verifyRetryAfterSeconds = 2

type VerifyRequest struct {
	SessionID string `json:"session_id"`
}

type PendingResponse struct {
	OK         bool   `json:"ok"`
	Status     string `json:"status"`
	RetryAfter int    `json:"retry_after"`
}

type CheckoutHandler struct {
	uc *usecase.CheckoutUsecase
}

func NewCheckoutHandler(uc *usecase.CheckoutUsecase) *CheckoutHandler {
	return &CheckoutHandler{uc: uc}
}

func (h *CheckoutHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/checkout/verify", h.verify)
}

func (h *CheckoutHandler) verify(c echo.Context) error {
	var req VerifyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if req.SessionID == "" {
		req.SessionID = c.QueryParam("session_id")
	}

	out, err := h.uc.Verify(c.Request().Context(), req.SessionID)
	if errors.Is(err, usecase.ErrPaymentIncomplete) {
		//決済がまだ確定していないだけなので、少し待って再度呼んでもらう
		c.Response().Header().Set("Retry-After", strconv.Itoa(verifyRetryAfterSeconds))
		return c.JSON(http.StatusAccepted, PendingResponse{OK: false, Status: "pending", RetryAfter: verifyRetryAfterSeconds})
	}
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}
