package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// RequestLogger はリクエストごとに1行のアクセスログを出す
func RequestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			ev := log.Info()
			if res.Status >= 500 {
				ev = log.Error().Err(err)
			} else if res.Status >= 400 {
				ev = log.Warn()
			}
			ev.Str("method", req.Method).
				Str("path", c.Path()).
				Str("uri", req.RequestURI).
				Int("status", res.Status).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Dur("latency", time.Since(start)).
				Msg("request")
			return nil
		}
	}
}
