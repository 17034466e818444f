package database

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

const createRoadmap = `-- name: CreateRoadmap :one
INSERT INTO roadmaps (id, user_id, role, plan)
VALUES ($1, $2, $3, $4)
RETURNING id, user_id, role, plan, created_at
`

type CreateRoadmapParams struct {
	ID     uuid.UUID
	UserID string
	Role   string
	Plan   json.RawMessage
}

func (q *Queries) CreateRoadmap(ctx context.Context, arg CreateRoadmapParams) (Roadmap, error) {
	row := q.db.QueryRowContext(ctx, createRoadmap,
		arg.ID,
		arg.UserID,
		arg.Role,
		arg.Plan,
	)
	var i Roadmap
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Role,
		&i.Plan,
		&i.CreatedAt,
	)
	return i, err
}

const listRoadmaps = `-- name: ListRoadmaps :many
SELECT id, user_id, role, plan, created_at FROM roadmaps
WHERE user_id = $1
ORDER BY created_at DESC
`

func (q *Queries) ListRoadmaps(ctx context.Context, userID string) ([]Roadmap, error) {
	rows, err := q.db.QueryContext(ctx, listRoadmaps, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Roadmap
	for rows.Next() {
		var i Roadmap
		if err := rows.Scan(
			&i.ID,
			&i.UserID,
			&i.Role,
			&i.Plan,
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

const deleteRoadmap = `-- name: DeleteRoadmap :execrows
DELETE FROM roadmaps
WHERE id = $1 AND user_id = $2
`

type DeleteRoadmapParams struct {
	ID     uuid.UUID
	UserID string
}

func (q *Queries) DeleteRoadmap(ctx context.Context, arg DeleteRoadmapParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteRoadmap, arg.ID, arg.UserID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
