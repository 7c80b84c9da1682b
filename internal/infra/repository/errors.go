package repository

import (
	"errors"
	"fmt"

	repo "storefront/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation = "23505"
	pgStringTooLong   = "22001"
	pgNumericOverflow = "22003"
)

// GORM / Postgres のエラーをrepositoryのエラーに寄せる
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repo.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return repo.ErrConflict
		case pgStringTooLong, pgNumericOverflow:
			return fmt.Errorf("%w: %s", repo.ErrValueOutOfRange, pgErr.Message)
		}
	}
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func normalizePage(page, limit, def, max int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > max {
		limit = def
	}
	return page, limit
}
