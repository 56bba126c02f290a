// Package tenant resolves the company a request acts on. Every entity in the
// system is scoped to a company; the identifier is taken exclusively from the
// verified JWT claims so a client can never address another tenant's rows.
package tenant

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type contextKey string

const companyIDKey contextKey = "company_id"

// Middleware copies the authenticated company ID from the echo context (set
// by the auth middleware) into the request context. Requests without a
// resolvable company are rejected before reaching any handler.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, _ := c.Get("jwt_company_id").(string)
			if raw == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing tenant identity")
			}

			companyID, err := uuid.Parse(raw)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid tenant identifier")
			}

			ctx := context.WithValue(c.Request().Context(), companyIDKey, companyID)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set("company_id", companyID)

			return next(c)
		}
	}
}

// FromContext retrieves the company ID bound to the request, or uuid.Nil.
func FromContext(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(companyIDKey).(uuid.UUID)
	return id
}

// WithCompany returns a context carrying companyID; used by tests and CLI
// paths that run outside the HTTP middleware chain.
func WithCompany(ctx context.Context, companyID uuid.UUID) context.Context {
	return context.WithValue(ctx, companyIDKey, companyID)
}
