package http

import (
	"errors"
	"log/slog"
	"net/http"

	"pizzeria/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// KindUnauthenticated is reported for missing or unusable credentials.
const KindUnauthenticated errs.Kind = "Unauthenticated"

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    int       `json:"code"`
	Kind    errs.Kind `json:"kind"`
	Message string    `json:"message"`
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind errs.Kind) int {
	switch kind {
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindForbidden:
		return http.StatusForbidden
	case errs.KindIllegalTransition, errs.KindInvalidArgument, errs.KindInsufficientBalance:
		return http.StatusBadRequest
	case errs.KindInvalidState, errs.KindConflict:
		return http.StatusConflict
	case errs.KindUnavailable:
		return http.StatusServiceUnavailable
	case KindUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func kindForStatus(status int) errs.Kind {
	switch status {
	case http.StatusNotFound:
		return errs.KindNotFound
	case http.StatusForbidden:
		return errs.KindForbidden
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return errs.KindInvalidArgument
	case http.StatusUnauthorized:
		return KindUnauthenticated
	case http.StatusConflict:
		return errs.KindConflict
	case http.StatusServiceUnavailable:
		return errs.KindUnavailable
	default:
		return errs.KindInternal
	}
}

// NewErrorHandler renders errors returned by handlers and middleware as ErrorResponse.
// Internal errors are logged and their message is not exposed.
func NewErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		resp := errorResponseFor(err)
		if resp.Kind == errs.KindInternal {
			logger.ErrorContext(c.Request().Context(), "request failed",
				"method", c.Request().Method, "path", c.Path(), "error", err)
			resp.Message = http.StatusText(resp.Code)
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(resp.Code)
		} else {
			writeErr = c.JSON(resp.Code, resp)
		}
		if writeErr != nil {
			logger.ErrorContext(c.Request().Context(), "writing error response", "error", writeErr)
		}
	}
}

func errorResponseFor(err error) ErrorResponse {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		message, ok := httpErr.Message.(string)
		if !ok {
			message = http.StatusText(httpErr.Code)
		}
		return ErrorResponse{Code: httpErr.Code, Kind: kindForStatus(httpErr.Code), Message: message}
	}

	kind := errs.KindOf(err)
	return ErrorResponse{Code: StatusFor(kind), Kind: kind, Message: err.Error()}
}
