package messages

import (
	"strings"
	"time"
)

// Message is a post on the board. Title and Text hold HTML-escaped text.
type Message struct {
	ID        int64
	AuthorID  *int64
	Title     string
	Text      string
	CreatedAt time.Time
	Author    *Author
}

// Author is the display data of a message's writer. It is nil once the
// account behind a message is gone.
type Author struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
}

// FullName joins first and last name.
func (a *Author) FullName() string {
	if a == nil {
		return ""
	}
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// Draft is the validated input for a new message.
type Draft struct {
	Title string
	Text  string
}
