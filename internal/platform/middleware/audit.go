package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hospital/backoffice/internal/platform/auth"
)

// Audit logs every mutating /api/v1 call with the acting employee, so
// charge additions and payments can be traced to a person.
func Audit(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Method == http.MethodGet || req.Method == http.MethodHead ||
				!strings.HasPrefix(req.URL.Path, "/api/v1/") {
				return next(c)
			}

			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}

			rid, _ := c.Get("request_id").(string)
			evt := logger.Info().
				Str("audit", "billing").
				Str("request_id", rid).
				Str("method", req.Method).
				Str("route", c.Path()).
				Int("status", status).
				Bool("success", err == nil && status < 400)
			if id, idErr := auth.EmployeeIDFromContext(req.Context()); idErr == nil {
				evt = evt.Str("employee_id", id.String())
			}
			for _, name := range c.ParamNames() {
				evt = evt.Str("param_"+name, c.Param(name))
			}
			evt.Msg("mutation")

			return err
		}
	}
}
