package report

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

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
	api.GET("/dashboard", h.Dashboard)

	admin := api.Group("/reports", auth.RequireRole("admin"))
	admin.GET("/revenue/daily", h.DailyRevenue)
	admin.GET("/revenue/monthly", h.MonthlyRevenue)
	admin.GET("/appointments", h.AppointmentStats)
	admin.GET("/top-devices", h.TopDevices)
	admin.GET("/outstanding-debts", h.OutstandingDebts)
	admin.GET("/summary", h.Summary)
	admin.GET("/summary/export", h.ExportSummary)
}

// parseDate accepts a bare date, defaulting to today when absent.
func parseDate(c echo.Context, param string) (time.Time, error) {
	raw := c.QueryParam(param)
	if raw == "" {
		return time.Now(), nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		return time.Time{}, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("%s must be YYYY-MM-DD", param))
	}
	return t, nil
}

// parseRange reads start_date/end_date, defaulting to the last 30 days. The
// end date is extended to the end of its day so the range is inclusive.
func parseRange(c echo.Context) (time.Time, time.Time, error) {
	end, err := parseDate(c, "end_date")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := end.AddDate(0, 0, -30)
	if raw := c.QueryParam("start_date"); raw != "" {
		start, err = time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			return time.Time{}, time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "start_date must be YYYY-MM-DD")
		}
	}
	end = time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, end.Location()).
		AddDate(0, 0, 1).Add(-time.Nanosecond)
	if end.Before(start) {
		return time.Time{}, time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "end_date must not precede start_date")
	}
	return start, end, nil
}

func (h *Handler) DailyRevenue(c echo.Context) error {
	date, err := parseDate(c, "date")
	if err != nil {
		return err
	}
	out, err := h.svc.DailyRevenue(c.Request().Context(), date)
	if err != nil {
		return err
	}
	return respond.OK(c, out)
}

func (h *Handler) MonthlyRevenue(c echo.Context) error {
	now := time.Now()
	year, month := now.Year(), int(now.Month())
	if raw := c.QueryParam("year"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "year must be a number")
		}
		year = v
	}
	if raw := c.QueryParam("month"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "month must be a number")
		}
		month = v
	}
	out, err := h.svc.MonthlyRevenue(c.Request().Context(), year, month)
	if err != nil {
		return err
	}
	return respond.OK(c, out)
}

func (h *Handler) AppointmentStats(c echo.Context) error {
	out, err := h.svc.AppointmentStats(c.Request().Context())
	if err != nil {
		return err
	}
	return respond.OK(c, out)
}

func (h *Handler) TopDevices(c echo.Context) error {
	start, end, err := parseRange(c)
	if err != nil {
		return err
	}
	limit := 5
	if raw := c.QueryParam("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a number")
		}
		limit = v
	}
	out, err := h.svc.TopDevices(c.Request().Context(), start, end, limit)
	if err != nil {
		return err
	}
	return respond.OK(c, out)
}

func (h *Handler) OutstandingDebts(c echo.Context) error {
	min := 0.0
	if raw := c.QueryParam("min_amount"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "min_amount must be a number")
		}
		min = v
	}
	out, err := h.svc.OutstandingDebts(c.Request().Context(), min)
	if err != nil {
		return err
	}
	return respond.OK(c, out)
}

func (h *Handler) Summary(c echo.Context) error {
	start, end, err := parseRange(c)
	if err != nil {
		return err
	}
	out, err := h.svc.Summary(c.Request().Context(), start, end)
	if err != nil {
		return err
	}
	return respond.OK(c, out)
}

func (h *Handler) ExportSummary(c echo.Context) error {
	start, end, err := parseRange(c)
	if err != nil {
		return err
	}
	data, err := h.svc.ExportSummary(c.Request().Context(), start, end)
	if err != nil {
		return err
	}
	filename := fmt.Sprintf("summary_%s_%s.xlsx", start.Format("2006-01-02"), end.Format("2006-01-02"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, filename))
	return c.Blob(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func (h *Handler) Dashboard(c echo.Context) error {
	out, err := h.svc.Dashboard(c.Request().Context())
	if err != nil {
		return err
	}
	return respond.OK(c, out)
}
