package database

import (
	"context"

	"github.com/google/uuid"
)

const createChat = `-- name: CreateChat :one
INSERT INTO chats (id, user_id, title)
VALUES ($1, $2, $3)
RETURNING id, user_id, title, created_at
`

type CreateChatParams struct {
	ID     uuid.UUID
	UserID string
	Title  string
}

func (q *Queries) CreateChat(ctx context.Context, arg CreateChatParams) (Chat, error) {
	row := q.db.QueryRowContext(ctx, createChat, arg.ID, arg.UserID, arg.Title)
	var i Chat
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Title,
		&i.CreatedAt,
	)
	return i, err
}

const getChat = `-- name: GetChat :one
SELECT id, user_id, title, created_at FROM chats
WHERE id = $1 AND user_id = $2
`

type GetChatParams struct {
	ID     uuid.UUID
	UserID string
}

func (q *Queries) GetChat(ctx context.Context, arg GetChatParams) (Chat, error) {
	row := q.db.QueryRowContext(ctx, getChat, arg.ID, arg.UserID)
	var i Chat
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Title,
		&i.CreatedAt,
	)
	return i, err
}

const listChats = `-- name: ListChats :many
SELECT id, user_id, title, created_at FROM chats
WHERE user_id = $1
ORDER BY created_at DESC
`

func (q *Queries) ListChats(ctx context.Context, userID string) ([]Chat, error) {
	rows, err := q.db.QueryContext(ctx, listChats, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Chat
	for rows.Next() {
		var i Chat
		if err := rows.Scan(
			&i.ID,
			&i.UserID,
			&i.Title,
			&i.CreatedAt,
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

const updateChatTitle = `-- name: UpdateChatTitle :exec
UPDATE chats
SET title = $1
WHERE id = $2
`

type UpdateChatTitleParams struct {
	Title string
	ID    uuid.UUID
}

func (q *Queries) UpdateChatTitle(ctx context.Context, arg UpdateChatTitleParams) error {
	_, err := q.db.ExecContext(ctx, updateChatTitle, arg.Title, arg.ID)
	return err
}

const deleteChat = `-- name: DeleteChat :execrows
DELETE FROM chats
WHERE id = $1 AND user_id = $2
`

type DeleteChatParams struct {
	ID     uuid.UUID
	UserID string
}

func (q *Queries) DeleteChat(ctx context.Context, arg DeleteChatParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteChat, arg.ID, arg.UserID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
