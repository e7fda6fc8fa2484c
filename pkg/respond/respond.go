// Package respond renders the API's uniform response envelope and maps the
// domain error taxonomy onto HTTP statuses.
package respond

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinq/clinq/internal/platform/apperr"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *errorBody  `json:"error,omitempty"`
}

// OK writes a success envelope with the given status and payload.
func OK(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, envelope{Success: true, Data: data})
}

// Error writes a failure envelope. Tagged domain errors map to 400/409/404/503
// by kind; anything untagged is a 500 with its detail withheld.
func Error(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	body := errorBody{Code: "INTERNAL", Message: "internal server error"}

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		body = errorBody{Code: appErr.Code, Message: appErr.Message}
		switch appErr.Kind {
		case apperr.KindValidation:
			status = http.StatusBadRequest
		case apperr.KindConflict:
			status = http.StatusConflict
		case apperr.KindNotFound:
			status = http.StatusNotFound
		case apperr.KindUnavailable:
			status = http.StatusServiceUnavailable
			body.Message = "store unavailable"
		}
	}

	return c.JSON(status, envelope{Success: false, Error: &body})
}
