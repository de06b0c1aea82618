// Package common defines the error taxonomy shared by the storage core and
// the layers above it. Callers should use errors.Is / errors.As to match
// these values; the protocol mapping lives at the transport boundary.
package common

import (
	"errors"
	"fmt"
)

var (
	// Connection-level errors.
	ErrConnect = errors.New("database connection failed")
	ErrMigrate = errors.New("database migration failed")

	// Repository-level errors.
	ErrorQuery    = errors.New("db error")
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("already exists")

	// Service-level errors.
	ErrorUnauthorized = errors.New("unauthorized")

	// Session token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// ConnectionErrorKind classifies a failure to bring up the shared pool.
type ConnectionErrorKind int

const (
	// ConnectKind: the driver could not open or reach the database.
	ConnectKind ConnectionErrorKind = iota + 1
	// MigrateKind: pending schema migrations failed to apply.
	MigrateKind
)

func (k ConnectionErrorKind) String() string {
	switch k {
	case ConnectKind:
		return "connect"
	case MigrateKind:
		return "migrate"
	default:
		return "unknown"
	}
}

// ConnectionError is returned by the connection manager.
type ConnectionError struct {
	Kind ConnectionErrorKind
	Err  error
}

func (e *ConnectionError) sentinel() error {
	if e.Kind == MigrateKind {
		return ErrMigrate
	}
	return ErrConnect
}

func (e *ConnectionError) Error() string {
	if e.Err == nil {
		return e.sentinel().Error()
	}
	return fmt.Sprintf("%s: %v", e.sentinel(), e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for this error's kind.
func (e *ConnectionError) Is(target error) bool {
	return target == e.sentinel()
}

// DataErrorKind classifies a failed repository operation.
type DataErrorKind int

const (
	// QueryKind covers any storage failure not otherwise classified,
	// including connectivity (the ConnectionError is wrapped).
	QueryKind DataErrorKind = iota + 1
	// NotFoundKind: no row existed or the row failed the statement's predicate.
	NotFoundKind
	// ConflictKind: a uniqueness constraint rejected the write.
	ConflictKind
)

func (k DataErrorKind) String() string {
	switch k {
	case QueryKind:
		return "query"
	case NotFoundKind:
		return "not_found"
	case ConflictKind:
		return "conflict"
	default:
		return "unknown"
	}
}

// DataError is returned by repositories. Entity names the model involved
// for NotFound and Conflict ("user").
type DataError struct {
	Kind   DataErrorKind
	Entity string
	Err    error
}

func (e *DataError) sentinel() error {
	switch e.Kind {
	case NotFoundKind:
		return ErrorNotFound
	case ConflictKind:
		return ErrorConflict
	default:
		return ErrorQuery
	}
}

func (e *DataError) Error() string {
	switch e.Kind {
	case NotFoundKind:
		return fmt.Sprintf("no %s found with that query", e.Entity)
	case ConflictKind:
		if e.Err != nil {
			return fmt.Sprintf("%s %s: %v", e.Entity, ErrorConflict, e.Err)
		}
		return fmt.Sprintf("%s %s", e.Entity, ErrorConflict)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", ErrorQuery, e.Err)
		}
		return ErrorQuery.Error()
	}
}

func (e *DataError) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for this error's kind.
func (e *DataError) Is(target error) bool {
	return target == e.sentinel()
}

// NotFound builds a NotFound error for the named entity.
func NotFound(entity string) *DataError {
	return &DataError{Kind: NotFoundKind, Entity: entity}
}

// QueryError wraps an underlying storage failure.
func QueryError(err error) *DataError {
	return &DataError{Kind: QueryKind, Err: err}
}

// ConflictError wraps a uniqueness violation for the named entity.
func ConflictError(entity string, err error) *DataError {
	return &DataError{Kind: ConflictKind, Entity: entity, Err: err}
}
