package handler

import (
	"net/http"
	"strconv"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /causes の公開API
type CauseHandler struct {
	uc *usecase.CauseUsecase
}

func NewCauseHandler(uc *usecase.CauseUsecase) *CauseHandler {
	return &CauseHandler{uc: uc}
}

func (h *CauseHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/causes/:id", h.detail)
}

func (h *CauseHandler) detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	out, err := h.uc.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
