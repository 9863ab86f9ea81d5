package users

import (
	"time"

	"github.com/clubhouse/clubhouse/internal/shared"
)

// User is a registered board account.
type User struct {
	ID           int64
	Username     string
	FirstName    string
	LastName     string
	PasswordHash string
	IsMember     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity projects the account onto the request identity used by views.
func (u *User) Identity() *shared.Identity {
	if u == nil {
		return nil
	}
	return &shared.Identity{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		IsMember:  u.IsMember,
	}
}
