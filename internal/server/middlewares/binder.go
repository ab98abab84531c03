package middlewares

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mdouchement/itemd/internal/apierror"
)

var (
	// ErrEmptyBody is returned when an item write carries no body.
	ErrEmptyBody = apierror.Validation("Name and description are required")
	// ErrMalformedBody is returned when the body cannot be decoded into the request parameters.
	ErrMalformedBody = apierror.Validation("Invalid request body")
)

type binder struct {
	echo.DefaultBinder
	writes map[string]bool
}

// NewBinder returns a binder that renders decoding failures as API errors.
func NewBinder() echo.Binder {
	return &binder{
		writes: map[string]bool{
			http.MethodPost: true,
			http.MethodPut:  true,
		},
	}
}

// Bind implements the echo.Bind interface.
func (b *binder) Bind(i any, c echo.Context) error {
	if c.Request().ContentLength == 0 && b.writes[c.Request().Method] {
		// Nothing to decode, so neither name nor description is present.
		return ErrEmptyBody
	}

	if err := b.DefaultBinder.Bind(i, c); err != nil {
		return ErrMalformedBody
	}
	return nil
}
