package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound signals an absent row.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate signals a unique-constraint violation.
var ErrDuplicate = errors.New("duplicate record")

const uniqueViolationCode = "23505"

// translateError maps driver errors to repository sentinels so services
// never pattern-match on pgx internals.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return ErrDuplicate
	}
	return err
}
