package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clubhouse/clubhouse/internal/shared"
	"github.com/clubhouse/clubhouse/internal/users"
)

// Registration is a validated signup request.
type Registration struct {
	FirstName string
	LastName  string
	Username  string
	Password  string
}

// Service wraps authentication business rules.
type Service struct {
	users    users.Repository
	sessions SessionRepository
	hasher   Hasher
}

// NewService constructs a new Service.
func NewService(userRepo users.Repository, sessions SessionRepository, hasher Hasher) *Service {
	return &Service{users: userRepo, sessions: sessions, hasher: hasher}
}

// Register creates a non-member account. It returns shared.ErrDuplicate when
// the username is taken and writes nothing in that case.
func (s *Service) Register(ctx context.Context, reg Registration) (*users.User, error) {
	hash, err := s.hasher.Hash(reg.Password)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.FindByUsername(ctx, reg.Username); err == nil {
		return nil, shared.ErrDuplicate
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("check username: %w", err)
	}

	user := &users.User{
		Username:     reg.Username,
		FirstName:    reg.FirstName,
		LastName:     reg.LastName,
		PasswordHash: hash,
		IsMember:     false,
	}
	if err := s.users.Insert(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate validates username/password credentials. Unknown users and
// wrong passwords both yield shared.ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*users.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if err := s.hasher.Verify(user.PasswordHash, password); err != nil {
		return nil, err
	}
	return user, nil
}

// RegisterSession persists the session metadata in postgres.
func (s *Service) RegisterSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	return s.sessions.CreateSession(ctx, id, userID, expiresAt, ip, ua)
}

// RemoveSession deletes a session record from postgres.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.sessions.DeleteSession(ctx, id)
}
