// Package services contains server-side business logic. This file implements
// UserService, the caller of the user repository: it applies the public
// projection to every result and issues session tokens.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/cdn/internal/common"
	"github.com/dmitrijs2005/cdn/internal/server/auth"
	"github.com/dmitrijs2005/cdn/internal/server/config"
	"github.com/dmitrijs2005/cdn/internal/server/models"
	"github.com/dmitrijs2005/cdn/internal/server/repositories/repomanager"
)

// Session is what a successful registration returns to the outside.
type Session struct {
	User  models.UserResult `json:"user"`
	Token string            `json:"token"`
}

// UserService provides account operations:
// - Register: create a user and open a session
// - Profile / Update: read and edit, returning only the public view
// - Authenticate: resolve a session token to the full record for trusted callers
type UserService struct {
	repomanager             repomanager.RepositoryManager
	jwtSecret               []byte
	sessionValidityDuration time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		repomanager:             m,
		jwtSecret:               []byte(cfg.SecretKey),
		sessionValidityDuration: cfg.SessionValidityDuration,
	}
}

// Register creates the user and returns its public view with a session token.
// Repository errors are returned unchanged.
func (s *UserService) Register(ctx context.Context, creation models.UserCreation) (*Session, error) {
	user, err := s.repomanager.Users().Create(ctx, creation)
	if err != nil {
		return nil, err
	}

	token, err := auth.GenerateToken(user.ID, s.jwtSecret, s.sessionValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("error generating session token: %w", err)
	}

	return &Session{User: user.Result(), Token: token}, nil
}

// Profile returns the public view of user id.
func (s *UserService) Profile(ctx context.Context, id int64) (models.UserResult, error) {
	user, err := s.repomanager.Users().Get(ctx, id)
	if err != nil {
		return models.UserResult{}, err
	}
	return user.Result(), nil
}

// Update applies a partial update to user id. A wrong old password surfaces
// as common.ErrorNotFound, exactly as the repository reports it.
func (s *UserService) Update(ctx context.Context, id int64, update models.UserUpdate) (models.UserResult, error) {
	repo := s.repomanager.Users()

	user, err := repo.Get(ctx, id)
	if err != nil {
		return models.UserResult{}, err
	}

	edited, err := repo.Edit(ctx, user, update)
	if err != nil {
		return models.UserResult{}, err
	}

	return edited.Result(), nil
}

// Authenticate resolves a session token to the full user record. The record
// must not leave the process; project it with Result before sending it out.
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	id, err := auth.GetUserIDFromToken(token, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorUnauthorized, err)
	}

	user, err := s.repomanager.Users().Get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, err
	}

	return user, nil
}
