package middlewares

import (
	"fmt"
	"net/http"

	"github.com/gofrs/uuid"
	"github.com/labstack/echo/v4"
	"github.com/mdouchement/itemd/internal/apierror"
	"github.com/sirupsen/logrus"
)

// HTTPErrorHandler returns a handler that formats rendered errors.
// Unclassified errors are logged and rendered without any detail.
func HTTPErrorHandler(log logrus.FieldLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		switch err := err.(type) {
		case *echo.HTTPError:
			if err.Internal != nil {
				log.WithError(err.Internal).Debug("Error [ECHO]")
			}
			render(c, err.Code, echo.Map{
				"error": fmt.Sprint(err.Message),
			})
		case *apierror.Error:
			status := apierror.StatusCode(err)
			if status >= http.StatusInternalServerError {
				log.WithError(err).WithField("status", status).Error("Request failed")
			}
			render(c, status, err)
		default:
			internal(log, err, c)
		}
	}
}

func internal(log logrus.FieldLogger, err error, c echo.Context) {
	id := uuid.Must(uuid.NewV4()).String()
	log.WithError(err).WithField("error_id", id).Errorf("Unhandled error: %+v", err)

	render(c, http.StatusInternalServerError, echo.Map{
		"error": "Internal server error",
	})
}

func render(c echo.Context, code int, payload any) {
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, payload)
}
