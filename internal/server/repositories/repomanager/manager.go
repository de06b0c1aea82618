package repomanager

import (
	"context"

	"github.com/dmitrijs2005/cdn/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Users() users.Repository
}
