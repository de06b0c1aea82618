// Package users is the only place that issues SQL against the users table.
// Passwords are hashed and verified by pgcrypto inside the statements
// themselves, so no plaintext is compared in Go and no check-then-write
// window exists.
//
// The unit tests match SQL text with go-sqlmock. The behavior of the
// statements themselves is covered by postgres_integration_test.go, which
// runs only when CDN_TEST_DATABASE_DSN points at a PostgreSQL with pgcrypto:
//
//	make postgres-up test-integration
package users

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/cdn/internal/common"
	"github.com/dmitrijs2005/cdn/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const entity = "user"

// SQLSTATE unique_violation.
const uniqueViolation = "23505"

type PostgresRepository struct {
	conn Connector
}

func NewPostgresRepository(conn Connector) *PostgresRepository {
	return &PostgresRepository{conn: conn}
}

// Create stores a new user with a freshly salted hash of the plaintext password.
func (r *PostgresRepository) Create(ctx context.Context, creation models.UserCreation) (*models.User, error) {
	db, err := r.conn.Acquire(ctx)
	if err != nil {
		return nil, common.QueryError(err)
	}

	query :=
		`INSERT INTO users (username, email, password)
		 VALUES ($1, $2, crypt($3, gen_salt('bf', 8)))
		 RETURNING id, username, email, password, created_at
		 `

	user, err := scanUser(db.QueryRowContext(ctx, query,
		creation.Username, creation.Email, creation.Password))
	if err != nil {
		return nil, classify(err)
	}

	return user, nil
}

// Get fetches a user by primary key.
func (r *PostgresRepository) Get(ctx context.Context, id int64) (*models.User, error) {
	db, err := r.conn.Acquire(ctx)
	if err != nil {
		return nil, common.QueryError(err)
	}

	query :=
		`SELECT id, username, email, password, created_at FROM users
		 WHERE id = $1
		 `

	user, err := scanUser(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NotFound(entity)
		}
		return nil, classify(err)
	}

	return user, nil
}

// Edit applies update to user in a single conditional statement.
//
// Username and email are coalesced. The password is replaced only when a new
// one is given and the stored hash is null or the old password verifies.
// When an old password is given but does not verify, the row predicate
// fails, nothing is written and NotFound is returned.
func (r *PostgresRepository) Edit(ctx context.Context, user *models.User, update models.UserUpdate) (*models.User, error) {
	db, err := r.conn.Acquire(ctx)
	if err != nil {
		return nil, common.QueryError(err)
	}

	query :=
		`UPDATE users
		 SET
		     username = COALESCE($1, username),
		     email = COALESCE($2, email),
		     password = CASE
		         WHEN $4::TEXT IS NOT NULL
		             AND (password IS NULL OR crypt($3::TEXT, password) = password)
		         THEN crypt($4::TEXT, gen_salt('bf', 8))
		         ELSE password
		     END
		 WHERE id = $5
		     AND ($3::TEXT IS NULL OR crypt($3::TEXT, password) = password)
		 RETURNING id, username, email, password, created_at
		 `

	edited, err := scanUser(db.QueryRowContext(ctx, query,
		update.Username, update.Email, update.OldPassword, update.NewPassword, user.ID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NotFound(entity)
		}
		return nil, classify(err)
	}

	return edited, nil
}

func scanUser(row *sql.Row) (*models.User, error) {
	var (
		user     models.User
		password sql.NullString
	)

	if err := row.Scan(&user.ID, &user.Username, &user.Email, &password, &user.CreatedAt); err != nil {
		return nil, err
	}
	user.Password = password.String

	return &user, nil
}

func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return common.ConflictError(entity, err)
	}
	return common.QueryError(err)
}
