package handlers

import (
	"errors"

	"github.com/uclergnlts/tav-egitim/httpx"
	"gorm.io/gorm"
)

// notFound names the resource in a record-not-found error.
func notFound(err error, resource string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		e := httpx.NotFound(resource)
		e.Err = err
		return e
	}
	return err
}

// duplicate replaces the generic conflict message for unique violations.
func duplicate(err error, msg string) error {
	if httpx.IsUniqueViolation(err) {
		e := httpx.Conflict(msg)
		e.Err = err
		return e
	}
	return err
}
