package logging

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// UserIDFunc resolves the authenticated user of a request, if any.
type UserIDFunc func(c echo.Context) (uint, bool)

// ContextRequestID copies echo's request id into the request context so
// services can log through Ctx.
func ContextRequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Response().Header().Get(echo.HeaderXRequestID)
			if id == "" {
				id = c.Request().Header.Get(echo.HeaderXRequestID)
			}
			if id != "" {
				req := c.Request()
				c.SetRequest(req.WithContext(WithRequestID(req.Context(), id)))
			}
			return next(c)
		}
	}
}

// RequestLogger logs one line per request.
func RequestLogger(userID UserIDFunc) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			evt := Info()
			if v.Status >= 500 {
				evt = Error().Err(v.Error)
			}
			evt = evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID)
			if userID != nil {
				if id, ok := userID(c); ok {
					evt = evt.Uint("user_id", id)
				}
			}
			evt.Msg("request")
			return nil
		},
	})
}
