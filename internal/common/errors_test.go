package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionError_IsMatchesKind(t *testing.T) {
	connect := &ConnectionError{Kind: ConnectKind, Err: errors.New("dial tcp: refused")}
	migrate := &ConnectionError{Kind: MigrateKind, Err: errors.New("syntax error")}

	assert.ErrorIs(t, connect, ErrConnect)
	assert.NotErrorIs(t, connect, ErrMigrate)
	assert.ErrorIs(t, migrate, ErrMigrate)
	assert.NotErrorIs(t, migrate, ErrConnect)

	assert.Equal(t, "database connection failed: dial tcp: refused", connect.Error())
	assert.Equal(t, "database migration failed: syntax error", migrate.Error())
}

func TestConnectionError_UnwrapsCause(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("wrapped: %w", &ConnectionError{Kind: ConnectKind, Err: cause})

	assert.ErrorIs(t, err, cause)

	var ce *ConnectionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ConnectKind, ce.Kind)
	assert.Equal(t, "connect", ce.Kind.String())
}

func TestDataError_Kinds(t *testing.T) {
	tests := []struct {
		name    string
		err     *DataError
		want    error
		notWant []error
		msg     string
	}{
		{
			name:    "not found",
			err:     NotFound("user"),
			want:    ErrorNotFound,
			notWant: []error{ErrorQuery, ErrorConflict},
			msg:     "no user found with that query",
		},
		{
			name:    "query",
			err:     QueryError(errors.New("db down")),
			want:    ErrorQuery,
			notWant: []error{ErrorNotFound, ErrorConflict},
			msg:     "db error: db down",
		},
		{
			name:    "conflict",
			err:     ConflictError("user", errors.New("duplicate key")),
			want:    ErrorConflict,
			notWant: []error{ErrorNotFound, ErrorQuery},
			msg:     "user already exists: duplicate key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.want)
			for _, nw := range tt.notWant {
				assert.NotErrorIs(t, tt.err, nw)
			}
			assert.Equal(t, tt.msg, tt.err.Error())
		})
	}
}

func TestDataError_QueryWrapsConnectionError(t *testing.T) {
	err := QueryError(&ConnectionError{Kind: MigrateKind, Err: errors.New("dirty")})

	assert.ErrorIs(t, err, ErrorQuery)
	assert.ErrorIs(t, err, ErrMigrate)

	var ce *ConnectionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, MigrateKind, ce.Kind)
}
