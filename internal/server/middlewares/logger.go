package middlewares

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

// Logger returns a middleware that logs every served request.
func Logger(log logrus.FieldLogger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		HandleError:  true,
		LogStatus:    true,
		LogMethod:    true,
		LogURI:       true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogError:     true,
		LogUserAgent: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			entry := log.WithFields(logrus.Fields{
				"status":     v.Status,
				"method":     v.Method,
				"uri":        v.URI,
				"latency":    v.Latency.String(),
				"remote_ip":  v.RemoteIP,
				"user_agent": v.UserAgent,
			})
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}

			entry.Info("Request")
			return nil
		},
	})
}
