package customer

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
	api.GET("/customers", h.List)
	api.GET("/customers/stats", h.Stats)
	api.GET("/customers/:id", h.Get)
	api.POST("/customers", h.Create)
	api.PUT("/customers/:id", h.Update)
	api.DELETE("/customers/:id", h.Delete)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := ListFilter{
		Search:   c.QueryParam("search"),
		Gender:   c.QueryParam("gender"),
		IsActive: c.QueryParam("is_active") != "false",
		Limit:    pg.Limit,
		Offset:   pg.Offset,
	}
	items, total, err := h.svc.List(c.Request().Context(), f)
	if err != nil {
		return err
	}
	if items == nil {
		items = []*Customer{}
	}
	return respond.Page(c, items, total, pg)
}

func (h *Handler) Stats(c echo.Context) error {
	stats, err := h.svc.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return respond.OK(c, stats)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	cust, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond.OK(c, cust)
}

func (h *Handler) Create(c echo.Context) error {
	var in Input
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	cust, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return respond.Created(c, cust)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var in Input
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	cust, err := h.svc.Update(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return respond.OK(c, cust)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return respond.OK(c, map[string]string{"message": "customer deactivated"})
}
