package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/tair/rfid-textile/internal/lot/domain"
)

// MapError translates gorm and driver failures into domain errors
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.NewError(domain.CodeNotFound, op, "record not found", err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.NewError(domain.CodeConflict, op, "duplicate key", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return domain.NewPersistenceError(op, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505": // unique_violation
			return domain.NewError(domain.CodeConflict, op, "duplicate key: "+pgErr.ConstraintName, err)
		case "40001", "40P01", "55P03", "57014": // serialization, deadlock, lock_not_available, query_canceled
			return domain.NewPersistenceError(op, err)
		}
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "unique constraint failed") || strings.Contains(msg, "duplicate key") {
		return domain.NewError(domain.CodeConflict, op, "duplicate key", err)
	}
	return domain.NewPersistenceError(op, err)
}
