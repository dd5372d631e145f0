package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestPgErrorPredicates(t *testing.T) {
	dup := &pgconn.PgError{Code: codeUniqueViolation}
	fk := &pgconn.PgError{Code: codeForeignKeyViolation}

	tests := []struct {
		name    string
		err     error
		dup     bool
		noRows  bool
		foreign bool
	}{
		{name: "unique violation", err: dup, dup: true},
		{name: "wrapped unique violation", err: fmt.Errorf("insert resource: %w", dup), dup: true},
		{name: "foreign key violation", err: fk, foreign: true},
		{name: "wrapped foreign key violation", err: fmt.Errorf("upsert permission: %w", fk), foreign: true},
		{name: "no rows", err: pgx.ErrNoRows, noRows: true},
		{name: "wrapped no rows", err: fmt.Errorf("get resource: %w", pgx.ErrNoRows), noRows: true},
		{name: "unrelated error", err: errors.New("connection refused")},
		{name: "nil", err: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPgDuplicateError(tt.err); got != tt.dup {
				t.Errorf("IsPgDuplicateError() = %v, want %v", got, tt.dup)
			}
			if got := IsPgNoRowsError(tt.err); got != tt.noRows {
				t.Errorf("IsPgNoRowsError() = %v, want %v", got, tt.noRows)
			}
			if got := IsPgForeignKeyError(tt.err); got != tt.foreign {
				t.Errorf("IsPgForeignKeyError() = %v, want %v", got, tt.foreign)
			}
		})
	}
}
