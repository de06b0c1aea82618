package users

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/cdn/internal/server/models"
)

// Connector hands out the shared pool; it is satisfied by *database.Manager.
type Connector interface {
	Acquire(ctx context.Context) (*sql.DB, error)
}

type Repository interface {
	Create(ctx context.Context, creation models.UserCreation) (*models.User, error)
	Get(ctx context.Context, id int64) (*models.User, error)
	Edit(ctx context.Context, user *models.User, update models.UserUpdate) (*models.User, error)
}
