package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrGameNotFound      = errors.New("game not found")
	ErrGameFull          = errors.New("game is full")
	ErrBookingNotFound   = errors.New("booking not found")
	ErrBookingExists     = errors.New("booking already exists")
	ErrUserNotFound      = errors.New("user not found")
	ErrUserEmailExists   = errors.New("user with email already exists")
	ErrOrganizerNotFound = errors.New("organizer not found")
	ErrReminderNotFound  = errors.New("reminder not found")

	// ErrUnavailable marks failures reaching the database. Only these are
	// worth retrying.
	ErrUnavailable = errors.New("storage unavailable")
)

func classify(err error) error {
	if err == nil || errors.Is(err, ErrUnavailable) {
		return err
	}
	if isConnectivity(err) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}

func isConnectivity(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// class 08: connection exception, 57P01..57P03: admin shutdown / cannot connect now
		return len(pgErr.Code) >= 2 && pgErr.Code[:2] == "08" ||
			pgErr.Code == "57P01" || pgErr.Code == "57P02" || pgErr.Code == "57P03"
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return pgconn.SafeToRetry(err)
}
