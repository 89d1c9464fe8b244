package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// ContextKeyLogger holds the request scoped *logrus.Entry.
const ContextKeyLogger = "logger"

// Logging writes one structured entry per HTTP request. Handlers can pick up
// the request-scoped entry with LoggerFromContext.
func Logging(logger *logrus.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			entry := logger.WithFields(logrus.Fields{
				"request_id": RequestIDFromContext(c),
				"method":     c.Request().Method,
				"path":       c.Request().URL.Path,
			})
			c.Set(ContextKeyLogger, entry)

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			fields := logrus.Fields{
				"status":  c.Response().Status,
				"latency": time.Since(start).String(),
			}
			if err != nil {
				entry.WithFields(fields).WithError(err).Error("request failed")
			} else {
				entry.WithFields(fields).Info("request completed")
			}
			return err
		}
	}
}

// LoggerFromContext returns the request logger, or a standard one when the
// logging middleware did not run.
func LoggerFromContext(c echo.Context) logrus.FieldLogger {
	if entry, ok := c.Get(ContextKeyLogger).(*logrus.Entry); ok {
		return entry
	}
	return logrus.StandardLogger()
}
