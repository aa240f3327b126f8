package handler

import (
	"io"
	"net/http"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// フォームwebhookの本文の上限
const maxWebhookBodyBytes = 1 << 20

type FormWebhookHandler struct {
	uc *usecase.WebhookUsecase
}

func NewFormWebhookHandler(uc *usecase.WebhookUsecase) *FormWebhookHandler {
	return &FormWebhookHandler{uc: uc}
}

func (h *FormWebhookHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/webhooks/forms", h.receive)
}

func (h *FormWebhookHandler) receive(c echo.Context) error {
	req := c.Request()
	body, err := io.ReadAll(io.LimitReader(req.Body, maxWebhookBodyBytes+1))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "failed to read body"})
	}
	if len(body) > maxWebhookBodyBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "payload too large"})
	}

	out, err := h.uc.Ingest(req.Context(), usecase.WebhookInput{
		ContentType: req.Header.Get(echo.HeaderContentType),
		Body:        body,
		Query:       c.QueryParams(),
		Header:      req.Header,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
