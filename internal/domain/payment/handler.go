package payment

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinora/clinora/internal/platform/respond"
	"github.com/clinora/clinora/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/payments", h.Record)
	api.GET("/customers/:id/payments", h.History)
	api.GET("/customers/:id/debt", h.Debt)
}

func (h *Handler) Record(c echo.Context) error {
	var in RecordInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	p, err := h.svc.Record(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return respond.Created(c, p)
}

func (h *Handler) History(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.History(c.Request().Context(), id, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	if items == nil {
		items = []*Payment{}
	}
	return respond.Page(c, items, total, pg)
}

func (h *Handler) Debt(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	debt, err := h.svc.Debt(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond.OK(c, debt)
}
