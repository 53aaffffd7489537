package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/uptrace/bun/driver/pgdriver"
)

const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
)

// errDuplicate is returned when an insert collides with an existing id.
var errDuplicate = errors.New("duplicate record")

// mapError translates driver errors into domain errors. notFound is the
// domain error for a missing row or a dangling foreign key.
func mapError(err error, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}

	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		switch pgErr.Field('C') {
		case uniqueViolationCode:
			return fmt.Errorf("%w: %v", errDuplicate, err)
		case foreignKeyViolationCode:
			return fmt.Errorf("%w: %v", notFound, err)
		}
	}
	return err
}
