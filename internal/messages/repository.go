package messages

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clubhouse/clubhouse/internal/shared"
)

// Repository defines persistence operations for messages.
type Repository interface {
	FindAll(ctx context.Context) ([]Message, error)
	FindByID(ctx context.Context, id int64) (*Message, error)
	Insert(ctx context.Context, msg *Message) error
	Remove(ctx context.Context, id int64) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const selectWithAuthor = `SELECT m.id, m.author_id, m.title, m.text, m.created_at,
	u.id, u.username, u.first_name, u.last_name
	FROM messages m
	LEFT JOIN users u ON u.id = m.author_id`

// FindAll returns every message with its author, oldest first.
func (r *PGRepository) FindAll(ctx context.Context) ([]Message, error) {
	rows, err := r.pool.Query(ctx, selectWithAuthor+` ORDER BY m.id`)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, *msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return out, nil
}

// FindByID fetches a message with its author.
func (r *PGRepository) FindByID(ctx context.Context, id int64) (*Message, error) {
	msg, err := scanMessage(r.pool.QueryRow(ctx, selectWithAuthor+` WHERE m.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("find message: %w", err)
	}
	return msg, nil
}

// Insert persists a new message and fills its generated fields.
func (r *PGRepository) Insert(ctx context.Context, msg *Message) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO messages (author_id, title, text) VALUES ($1, $2, $3) RETURNING id, created_at`,
		msg.AuthorID, msg.Title, msg.Text,
	).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// Remove deletes the message with id.
func (r *PGRepository) Remove(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM messages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanMessage(row pgx.Row) (*Message, error) {
	var (
		msg       Message
		authorRef pgtype.Int8
		userID    pgtype.Int8
		username  pgtype.Text
		firstName pgtype.Text
		lastName  pgtype.Text
	)
	if err := row.Scan(&msg.ID, &authorRef, &msg.Title, &msg.Text, &msg.CreatedAt,
		&userID, &username, &firstName, &lastName); err != nil {
		return nil, err
	}
	if authorRef.Valid {
		id := authorRef.Int64
		msg.AuthorID = &id
	}
	if userID.Valid {
		msg.Author = &Author{
			ID:        userID.Int64,
			Username:  username.String,
			FirstName: firstName.String,
			LastName:  lastName.String,
		}
	}
	return &msg, nil
}

var _ Repository = (*PGRepository)(nil)
