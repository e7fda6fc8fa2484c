package middleware

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
)

// BodyLimit caps request body size. Booking and schedule payloads are tiny,
// so the cap protects the JSON binder from oversized uploads. The limit is
// enforced with a wrapping reader even when Content-Length is absent.
func BodyLimit(limit int64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Body == nil || req.Body == http.NoBody {
				return next(c)
			}
			if req.ContentLength > limit {
				return payloadTooLarge(c)
			}
			req.Body = &limitedBody{ReadCloser: req.Body, remaining: limit, c: c}
			return next(c)
		}
	}
}

type limitedBody struct {
	io.ReadCloser
	remaining int64
	c         echo.Context
}

func (b *limitedBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	b.remaining -= int64(n)
	if b.remaining < 0 {
		return n, echo.ErrStatusRequestEntityTooLarge
	}
	return n, err
}

func payloadTooLarge(c echo.Context) error {
	return c.JSON(http.StatusRequestEntityTooLarge, map[string]interface{}{
		"success": false,
		"error": map[string]string{
			"code":    "INVALID_INPUT",
			"message": "request body too large",
		},
	})
}
