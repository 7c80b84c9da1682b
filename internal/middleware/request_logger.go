package middleware

import (
	"strconv"
	"time"

	"storefront/internal/infra/observability"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// 1リクエスト1行のアクセスログとHTTPメトリクス
func RequestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				//echoのHTTPErrorなどはここでレスポンス化しておく
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()
			latency := time.Since(start)
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			status := strconv.Itoa(res.Status)

			observability.HTTPRequestDuration.WithLabelValues(req.Method, route, status).Observe(latency.Seconds())
			observability.HTTPRequestsTotal.WithLabelValues(req.Method, route, status).Inc()

			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("route", route),
				zap.Int("status", res.Status),
				zap.Duration("latency", latency),
				zap.String("request_id", res.Header().Get(echo.HeaderXRequestID)),
			}
			if res.Status >= 500 {
				logger.Error("request", fields...)
			} else {
				logger.Info("request", fields...)
			}
			return nil
		}
	}
}
