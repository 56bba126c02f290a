package device

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinora/clinora/internal/platform/auth"
	"github.com/clinora/clinora/internal/platform/respond"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/devices", h.List)
	api.GET("/devices/:id", h.Get)

	admin := api.Group("", auth.RequireRole("admin"))
	admin.POST("/devices", h.Create)
	admin.PUT("/devices/:id", h.Update)
	admin.DELETE("/devices/:id", h.Delete)
}

func (h *Handler) List(c echo.Context) error {
	devices, err := h.svc.List(c.Request().Context())
	if err != nil {
		return err
	}
	if devices == nil {
		devices = []*Device{}
	}
	return respond.OK(c, devices)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	d, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond.OK(c, d)
}

func (h *Handler) Create(c echo.Context) error {
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	d, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return respond.Created(c, d)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var in struct {
		Capacity int `json:"capacity"`
	}
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	d, err := h.svc.UpdateCapacity(c.Request().Context(), id, in.Capacity)
	if err != nil {
		return err
	}
	return respond.OK(c, d)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return respond.OK(c, map[string]string{"message": "device deleted"})
}
