package apperr

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type errorBody struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

type envelope struct {
	Success bool      `json:"success"`
	Error   errorBody `json:"error"`
}

// HTTPErrorHandler returns an echo error handler that renders application
// errors as {success:false, error:{code,message,errors}}. Unknown errors are
// logged and reported as a generic 500 so internals never leak to clients.
func HTTPErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		body := errorBody{Code: "INTERNAL_ERROR", Message: "an unexpected error occurred"}

		switch {
		case As(err) != nil:
			appErr := As(err)
			status = appErr.Status
			body = errorBody{Code: appErr.Code, Message: appErr.Message, Errors: appErr.Details}
		default:
			if httpErr, ok := err.(*echo.HTTPError); ok {
				status = httpErr.Code
				body = errorBody{Code: codeForStatus(status), Message: messageOf(httpErr)}
			} else {
				rid, _ := c.Get("request_id").(string)
				logger.Error().Err(err).
					Str("request_id", rid).
					Str("path", c.Request().URL.Path).
					Msg("unhandled error")
			}
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, envelope{Success: false, Error: body})
		}
		if writeErr != nil {
			logger.Error().Err(writeErr).Msg("failed to write error response")
		}
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "VALIDATION_ERROR"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusTooManyRequests:
		return "TOO_MANY_REQUESTS"
	default:
		return "INTERNAL_ERROR"
	}
}

func messageOf(httpErr *echo.HTTPError) string {
	if msg, ok := httpErr.Message.(string); ok {
		return msg
	}
	return http.StatusText(httpErr.Code)
}
