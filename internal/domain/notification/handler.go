package notification

import (
	"net/http"
	"time"

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
	api.GET("/notifications", h.List)
	api.GET("/notifications/count", h.Count)
	api.POST("/notifications", h.Create)
	api.DELETE("/notifications/:id", h.Delete)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, err := h.svc.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	if items == nil {
		items = []*Notification{}
	}
	return respond.OK(c, items)
}

func (h *Handler) Count(c echo.Context) error {
	var after *time.Time
	if raw := c.QueryParam("after"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "after must be RFC 3339")
		}
		after = &t
	}
	count, err := h.svc.UnreadCount(c.Request().Context(), after)
	if err != nil {
		return err
	}
	return respond.OK(c, map[string]int{"count": count})
}

func (h *Handler) Create(c echo.Context) error {
	var body struct {
		Text string `json:"text"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	n, err := h.svc.Create(c.Request().Context(), body.Text)
	if err != nil {
		return err
	}
	return respond.Created(c, n)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return respond.OK(c, map[string]bool{"deleted": true})
}
