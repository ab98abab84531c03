package model

import (
	"github.com/gofrs/uuid"
	"github.com/pkg/errors"
)

// ErrInvalidID is returned when a string is not a well-formed item identifier.
var ErrInvalidID = errors.New("invalid identifier")

// NewID returns a new random identifier.
func NewID() string {
	return uuid.Must(uuid.NewV4()).String()
}

// ParseID checks that s is a well-formed identifier and returns its canonical form.
func ParseID(s string) (string, error) {
	id, err := uuid.FromString(s)
	if err != nil {
		return "", errors.Wrapf(ErrInvalidID, "%q", s)
	}
	return id.String(), nil
}

// IsInvalidID returns true if err is caused by a malformed identifier.
func IsInvalidID(err error) bool {
	return errors.Cause(err) == ErrInvalidID
}
