package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinora/clinora/internal/platform/respond"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterPublicRoutes mounts the endpoints reachable without a bearer
// token.
func (h *Handler) RegisterPublicRoutes(g *echo.Group) {
	g.POST("/auth/login", h.Login)
	g.POST("/auth/refresh", h.Refresh)
}

// RegisterRoutes mounts the endpoints that require an authenticated caller.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/auth/logout", h.Logout)
	api.GET("/auth/me", h.Me)
}

func (h *Handler) Login(c echo.Context) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	session, err := h.svc.Login(c.Request().Context(), body.Email, body.Password)
	if err != nil {
		return err
	}
	return respond.OK(c, session)
}

func (h *Handler) Refresh(c echo.Context) error {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	session, err := h.svc.Refresh(c.Request().Context(), body.RefreshToken)
	if err != nil {
		return err
	}
	return respond.OK(c, session)
}

func (h *Handler) Logout(c echo.Context) error {
	if err := h.svc.Logout(c.Request().Context()); err != nil {
		return err
	}
	return respond.OK(c, map[string]bool{"logged_out": true})
}

func (h *Handler) Me(c echo.Context) error {
	u, err := h.svc.Me(c.Request().Context())
	if err != nil {
		return err
	}
	return respond.OK(c, u)
}
