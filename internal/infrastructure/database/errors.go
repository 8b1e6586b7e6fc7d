package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/marque-api/internal/domain"
	"gorm.io/gorm"
)

// wrap translates store errors into domain errors. Failures that mean the store cannot
// be reached become domain.ErrStoreUnavailable; record-not-found becomes domain.ErrNotFound.
func wrap(market domain.Market, op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	if unavailable(err) {
		return fmt.Errorf("%s on %s store: %v: %w", op, market, err, domain.ErrStoreUnavailable)
	}
	return fmt.Errorf("%s on %s store: %w", op, market, err)
}

func unavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne)
}
