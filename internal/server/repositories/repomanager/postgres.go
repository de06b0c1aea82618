// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// vending repositories bound to the shared connection manager.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/cdn/internal/server/repositories/users"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations.
type PostgresRepositoryManager struct {
	conn  users.Connector
	users users.Repository
}

// Users returns the users.Repository bound to the shared pool.
func (m *PostgresRepositoryManager) Users() users.Repository {
	return m.users
}

// RunMigrations forces the lazy bootstrap: the first Acquire opens the pool
// and applies all pending migrations; later calls are no-ops.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	_, err := m.conn.Acquire(ctx)
	return err
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager(conn users.Connector) RepositoryManager {
	return &PostgresRepositoryManager{
		conn:  conn,
		users: users.NewPostgresRepository(conn),
	}
}
