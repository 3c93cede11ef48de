// Package apperr defines the error taxonomy shared by the billing domains and
// the mapping from those errors to HTTP responses.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicate    = errors.New("duplicate entry")
	ErrIllegalState = errors.New("illegal state")
	ErrValidation   = errors.New("validation failed")
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

func NotFound(format string, args ...interface{}) error {
	return wrap(ErrNotFound, format, args...)
}

func Duplicate(format string, args ...interface{}) error {
	return wrap(ErrDuplicate, format, args...)
}

func IllegalState(format string, args ...interface{}) error {
	return wrap(ErrIllegalState, format, args...)
}

func Validation(format string, args ...interface{}) error {
	return wrap(ErrValidation, format, args...)
}

func wrap(kind error, format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), kind)
}

// FromPG translates driver errors into the taxonomy. what names the entity
// for the message, e.g. "room 4f1c...". Unknown errors are returned unchanged.
func FromPG(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return NotFound("%s", what)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%s (%s): %w", what, pgErr.ConstraintName, ErrDuplicate)
	}
	return err
}

// Status returns the HTTP status code for err.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate), errors.Is(err, ErrIllegalState):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// HTTPError converts a service error into an echo.HTTPError. Infrastructure
// errors are reported without their internal detail.
func HTTPError(err error) *echo.HTTPError {
	status := Status(err)
	if status == http.StatusInternalServerError {
		return echo.NewHTTPError(status, "internal server error").SetInternal(err)
	}
	return echo.NewHTTPError(status, err.Error())
}
