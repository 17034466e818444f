package database

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const createMessage = `-- name: CreateMessage :exec
INSERT INTO messages (id, chat_id, sender, text, created_at)
VALUES ($1, $2, $3, $4, $5)
`

type CreateMessageParams struct {
	ID        uuid.UUID
	ChatID    uuid.UUID
	Sender    string
	Text      string
	CreatedAt time.Time
}

func (q *Queries) CreateMessage(ctx context.Context, arg CreateMessageParams) error {
	_, err := q.db.ExecContext(ctx, createMessage,
		arg.ID,
		arg.ChatID,
		arg.Sender,
		arg.Text,
		arg.CreatedAt,
	)
	return err
}

const listMessages = `-- name: ListMessages :many
SELECT id, chat_id, sender, text, created_at, seq FROM messages
WHERE chat_id = $1
ORDER BY seq ASC
`

func (q *Queries) ListMessages(ctx context.Context, chatID uuid.UUID) ([]Message, error) {
	rows, err := q.db.QueryContext(ctx, listMessages, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Message
	for rows.Next() {
		var i Message
		if err := rows.Scan(
			&i.ID,
			&i.ChatID,
			&i.Sender,
			&i.Text,
			&i.CreatedAt,
			&i.Seq,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
