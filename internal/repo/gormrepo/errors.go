package gormrepo

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"gorm.io/gorm"

	"event-portal/internal/domain"
)

// translate maps a gorm or driver error onto the domain taxonomy.
func translate(op, entity, key string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrStorage):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.NotFound(entity, key)
	case isDupKey(err):
		return domain.Conflict(entity, key, "already exists")
	case unavailable(err):
		return domain.Unavailable(op, err)
	}
	return domain.Storage(op, err)
}

func isDupKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "Duplicate entry")
}

func unavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) ||
		errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne)
}
