package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestErrorClassification(t *testing.T) {
	wrap := func(code string) error {
		return fmt.Errorf("query: %w", &pgconn.PgError{Code: code})
	}

	tests := []struct {
		name  string
		err   error
		check func(error) bool
		want  bool
	}{
		{"duplicate", wrap("23505"), IsPgDuplicateError, true},
		{"foreign key", wrap("23503"), IsPgForeignKeyError, true},
		{"check", wrap("23514"), IsPgCheckViolation, true},
		{"invalid uuid", wrap("22P02"), IsPgInvalidTextError, true},
		{"no rows", fmt.Errorf("scan: %w", pgx.ErrNoRows), IsPgNoRowsError, true},
		{"other code", wrap("23505"), IsPgForeignKeyError, false},
		{"plain error", errors.New("boom"), IsPgDuplicateError, false},
		{"nil", nil, IsPgInvalidTextError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.check(tt.err))
		})
	}
}

func TestNewTableNames(t *testing.T) {
	assert.Equal(t, "dev_chat_nodes", NewTableNames("dev_").Nodes)
	assert.Equal(t, "chat_nodes", NewTableNames("").Nodes)
}
