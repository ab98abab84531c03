package middlewares

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mdouchement/itemd/internal/apierror"
	"github.com/mdouchement/itemd/internal/database"
	"github.com/sirupsen/logrus"
)

// DatabaseContextKey is the key to retrieve the database handle from echo.Context.
const DatabaseContextKey = "database"

// A Connector provides the shared database handle.
type Connector interface {
	Connect(ctx context.Context) (database.Client, error)
}

// Database ensures the database is reachable before running the handler
// and stores its handle into echo.Context.
func Database(connector Connector, log logrus.FieldLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			db, err := connector.Connect(c.Request().Context())
			if err != nil {
				log.WithError(err).Warn("Database unavailable")
				return c.JSON(http.StatusServiceUnavailable, apierror.Unavailable("Database unavailable", err))
			}

			c.Set(DatabaseContextKey, db)
			return next(c)
		}
	}
}
