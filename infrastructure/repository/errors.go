package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"net"
	"strings"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/vfg2006/daylog-migrator/internal/domain"
)

// classify marca falhas de conexão com domain.ErrStoreUnavailable e preserva o erro original
func classify(err error, msg string) error {
	if err == nil {
		return nil
	}
	if isUnavailable(err) {
		return errors.Wrap(&unavailableError{err: err}, msg)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return errors.Wrapf(err, "%s (código: %s)", msg, pqErr.Code)
	}
	return errors.Wrap(err, msg)
}

func isUnavailable(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// classe 08: connection exception; 57P01..57P03: servidor encerrando ou indisponível
		return pqErr.Code.Class() == "08" || strings.HasPrefix(string(pqErr.Code), "57P0")
	}
	return strings.Contains(err.Error(), "database is closed")
}

type unavailableError struct {
	err error
}

func (e *unavailableError) Error() string {
	return domain.ErrStoreUnavailable.Error() + ": " + e.err.Error()
}

func (e *unavailableError) Unwrap() error {
	return e.err
}

func (e *unavailableError) Is(target error) bool {
	return target == domain.ErrStoreUnavailable
}
