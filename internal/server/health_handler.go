package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/mdouchement/itemd/internal/database"
)

// health contains the liveness handler.
type health struct {
	gateway *database.Gateway
}

// Check probes the database and reports its reachability.
func (h *health) Check(c echo.Context) error {
	ctx := c.Request().Context()

	db, err := h.gateway.Connect(ctx)
	if err == nil {
		err = db.Ping(ctx)
	}

	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{
			"status":   "unhealthy",
			"database": "disconnected",
			"error":    err.Error(),
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC(),
	})
}
