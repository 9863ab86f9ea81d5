package users

import (
	"context"
	"crypto/subtle"
	"errors"
)

// ErrIncorrectPasscode is returned when the membership passcode does not match.
var ErrIncorrectPasscode = errors.New("incorrect membership passcode")

// Service handles membership unlocks.
type Service struct {
	repo   Repository
	secret []byte
}

// NewService builds Service instance. membershipSecret is the passcode that
// unlocks member status for any account.
func NewService(repo Repository, membershipSecret string) *Service {
	return &Service{repo: repo, secret: []byte(membershipSecret)}
}

// UnlockMembership marks the user as a member when passcode matches the
// configured secret. A member stays a member; no write happens twice.
func (s *Service) UnlockMembership(ctx context.Context, userID int64, passcode string) (*User, error) {
	if len(s.secret) == 0 || subtle.ConstantTimeCompare([]byte(passcode), s.secret) != 1 {
		return nil, ErrIncorrectPasscode
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.IsMember {
		return user, nil
	}
	user.IsMember = true
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
