package appointment

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinora/clinora/internal/platform/auth"
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
	api.GET("/appointments", h.List)
	api.GET("/appointments/today", h.Today)
	api.GET("/appointments/upcoming", h.Upcoming)
	api.GET("/appointments/stats", h.Stats)
	api.GET("/appointments/range", h.Range)
	api.GET("/appointments/:id", h.Get)

	write := api.Group("", auth.RequireRole("staff"))
	write.POST("/appointments", h.Create)
	write.POST("/appointments/availability", h.CheckAvailability)
	write.PUT("/appointments/:id", h.Update)
	write.PATCH("/appointments/:id/status", h.UpdateStatus)
	write.POST("/appointments/:id/complete", h.Complete)
	write.DELETE("/appointments/:id", h.Cancel)
}

func parseTimeParam(c echo.Context, name string) (time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return time.Time{}, echo.NewHTTPError(http.StatusBadRequest, name+" is required")
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		// Bare dates are accepted for calendar-style queries.
		t, err = time.Parse("2006-01-02", raw)
	}
	if err != nil {
		return time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return t, nil
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := ListFilter{Limit: pg.Limit, Offset: pg.Offset}

	if raw := c.QueryParam("start_date"); raw != "" {
		start, err := parseTimeParam(c, "start_date")
		if err != nil {
			return err
		}
		end, err := parseTimeParam(c, "end_date")
		if err != nil {
			return err
		}
		f.StartDate, f.EndDate = &start, &end
	}
	if raw := c.QueryParam("customer_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid customer_id")
		}
		f.CustomerID = &id
	}
	if raw := c.QueryParam("status"); raw != "" {
		f.Status = Status(raw)
	}
	f.DeviceName = c.QueryParam("device_name")

	items, total, err := h.svc.List(c.Request().Context(), f)
	if err != nil {
		return err
	}
	if items == nil {
		items = []*Appointment{}
	}
	return respond.Page(c, items, total, pg)
}

func (h *Handler) Range(c echo.Context) error {
	start, err := parseTimeParam(c, "start_date")
	if err != nil {
		return err
	}
	end, err := parseTimeParam(c, "end_date")
	if err != nil {
		return err
	}
	items, err := h.svc.Range(c.Request().Context(), start, end)
	if err != nil {
		return err
	}
	if items == nil {
		items = []*Appointment{}
	}
	return respond.OK(c, items)
}

func (h *Handler) Today(c echo.Context) error {
	items, err := h.svc.Today(c.Request().Context())
	if err != nil {
		return err
	}
	if items == nil {
		items = []*Appointment{}
	}
	return respond.OK(c, items)
}

func (h *Handler) Upcoming(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = n
	}
	items, err := h.svc.Upcoming(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	if items == nil {
		items = []*Appointment{}
	}
	return respond.OK(c, items)
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
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond.OK(c, a)
}

func (h *Handler) Create(c echo.Context) error {
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	a, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return respond.Created(c, a)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var in UpdateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	a, err := h.svc.Update(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return respond.OK(c, a)
}

func (h *Handler) CheckAvailability(c echo.Context) error {
	var in AvailabilityInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	avail, err := h.svc.CheckAvailability(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return respond.OK(c, avail)
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var in struct {
		Status Status `json:"status"`
	}
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	a, err := h.svc.UpdateStatus(c.Request().Context(), id, in.Status)
	if err != nil {
		return err
	}
	return respond.OK(c, a)
}

func (h *Handler) Complete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.Complete(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond.OK(c, a)
}

func (h *Handler) Cancel(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.Cancel(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond.OK(c, a)
}
