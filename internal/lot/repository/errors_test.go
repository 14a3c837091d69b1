package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/tair/rfid-textile/internal/lot/domain"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want domain.ErrorCode
	}{
		{"record not found", gorm.ErrRecordNotFound, domain.CodeNotFound},
		{"gorm duplicate", gorm.ErrDuplicatedKey, domain.CodeConflict},
		{"postgres unique violation", &pgconn.PgError{Code: "23505", ConstraintName: "idx_jeans_epc"}, domain.CodeConflict},
		{"postgres deadlock", &pgconn.PgError{Code: "40P01"}, domain.CodePersistence},
		{"sqlite unique", errors.New("UNIQUE constraint failed: jeans.epc"), domain.CodeConflict},
		{"deadline", context.DeadlineExceeded, domain.CodePersistence},
		{"anything else", errors.New("disk full"), domain.CodePersistence},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError("op", tt.err)
			if domain.CodeOf(got) != tt.want {
				t.Fatalf("MapError(%v) code = %s, want %s", tt.err, domain.CodeOf(got), tt.want)
			}
			if !errors.Is(got, tt.err) {
				t.Fatalf("MapError must keep the cause")
			}
		})
	}

	if MapError("op", nil) != nil {
		t.Fatalf("nil stays nil")
	}
	typed := domain.NewValidationError("op", "bad")
	if MapError("other", typed) != typed {
		t.Fatalf("domain errors pass through unchanged")
	}
}
