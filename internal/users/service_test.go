package users

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clubhouse/clubhouse/internal/shared"
)

// memRepo is an in-memory Repository used across the package tests.
type memRepo struct {
	users   map[int64]*User
	nextID  int64
	updates int
	findErr error
}

func newMemRepo(seed ...*User) *memRepo {
	repo := &memRepo{users: make(map[int64]*User), nextID: 1}
	for _, u := range seed {
		_ = repo.Insert(context.Background(), u)
	}
	return repo
}

func (m *memRepo) FindByID(ctx context.Context, id int64) (*User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	u, ok := m.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (m *memRepo) FindByUsername(ctx context.Context, username string) (*User, error) {
	for _, u := range m.users {
		if u.Username == username {
			clone := *u
			return &clone, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memRepo) Insert(ctx context.Context, user *User) error {
	user.ID = m.nextID
	m.nextID++
	clone := *user
	m.users[user.ID] = &clone
	return nil
}

func (m *memRepo) Update(ctx context.Context, user *User) error {
	if _, ok := m.users[user.ID]; !ok {
		return shared.ErrNotFound
	}
	clone := *user
	m.users[user.ID] = &clone
	m.updates++
	return nil
}

func TestUnlockMembershipWrongPasscode(t *testing.T) {
	repo := newMemRepo(&User{Username: "jane"})
	svc := NewService(repo, "open-sesame")

	_, err := svc.UnlockMembership(context.Background(), 1, "guess")
	assert.ErrorIs(t, err, ErrIncorrectPasscode)
	assert.False(t, repo.users[1].IsMember)
	assert.Zero(t, repo.updates)
}

func TestUnlockMembershipGrantsOnce(t *testing.T) {
	repo := newMemRepo(&User{Username: "jane"})
	svc := NewService(repo, "open-sesame")

	user, err := svc.UnlockMembership(context.Background(), 1, "open-sesame")
	require.NoError(t, err)
	assert.True(t, user.IsMember)
	assert.True(t, repo.users[1].IsMember)

	_, err = svc.UnlockMembership(context.Background(), 1, "open-sesame")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.updates, "already a member, nothing to write")
}

func TestUnlockMembershipMissingUser(t *testing.T) {
	svc := NewService(newMemRepo(), "open-sesame")

	_, err := svc.UnlockMembership(context.Background(), 99, "open-sesame")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestUnlockMembershipEmptySecretNeverMatches(t *testing.T) {
	svc := NewService(newMemRepo(&User{Username: "jane"}), "")

	_, err := svc.UnlockMembership(context.Background(), 1, "")
	assert.ErrorIs(t, err, ErrIncorrectPasscode)
}

func TestUnlockMembershipStoreFailure(t *testing.T) {
	repo := newMemRepo(&User{Username: "jane"})
	repo.findErr = errors.New("connection reset")
	svc := NewService(repo, "open-sesame")

	_, err := svc.UnlockMembership(context.Background(), 1, "open-sesame")
	assert.EqualError(t, err, "connection reset")
}
