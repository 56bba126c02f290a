// Package respond renders the success envelope used by every API endpoint.
// Error responses are rendered by the central error handler; together they
// give clients a single shape to parse.
package respond

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinora/clinora/pkg/pagination"
)

type envelope struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data"`
	Pagination interface{} `json:"pagination,omitempty"`
}

// OK writes a 200 response wrapping data.
func OK(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, envelope{Success: true, Data: data})
}

// Created writes a 201 response wrapping data.
func Created(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, envelope{Success: true, Data: data})
}

// Page writes a 200 response wrapping a page of results plus paging metadata.
func Page(c echo.Context, data interface{}, total int, pg pagination.Params) error {
	meta := pagination.NewResponse(nil, total, pg.Limit, pg.Offset)
	return c.JSON(http.StatusOK, envelope{
		Success: true,
		Data:    data,
		Pagination: map[string]interface{}{
			"total":    meta.Total,
			"limit":    meta.Limit,
			"offset":   meta.Offset,
			"has_more": meta.HasMore,
		},
	})
}
