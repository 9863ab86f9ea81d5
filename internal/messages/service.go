package messages

import (
	"context"

	"github.com/clubhouse/clubhouse/internal/forms"
)

// Service wraps message board rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns all messages in store order.
func (s *Service) List(ctx context.Context) ([]Message, error) {
	return s.repo.FindAll(ctx)
}

// Get returns one message with its author.
func (s *Service) Get(ctx context.Context, id int64) (*Message, error) {
	return s.repo.FindByID(ctx, id)
}

// Create stores a draft written by authorID. Title and text are escaped here
// so the stored form never carries raw markup.
func (s *Service) Create(ctx context.Context, authorID int64, draft Draft) (*Message, error) {
	msg := &Message{
		AuthorID: &authorID,
		Title:    forms.Escape(draft.Title),
		Text:     forms.Escape(draft.Text),
	}
	if err := s.repo.Insert(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// Delete removes a message. Any signed-in user may delete any message.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Remove(ctx, id)
}
