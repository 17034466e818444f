package database

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

const createOrUpdateResumeCritique = `-- name: CreateOrUpdateResumeCritique :exec
INSERT INTO resume_critiques (
id, critique, resume_id)
VALUES ($1, $2, $3)
ON CONFLICT (resume_id)
DO UPDATE SET
    critique = EXCLUDED.critique,
    updated_at = CURRENT_TIMESTAMP
`

type CreateOrUpdateResumeCritiqueParams struct {
	ID       uuid.UUID
	Critique json.RawMessage
	ResumeID uuid.UUID
}

func (q *Queries) CreateOrUpdateResumeCritique(ctx context.Context, arg CreateOrUpdateResumeCritiqueParams) error {
	_, err := q.db.ExecContext(ctx, createOrUpdateResumeCritique, arg.ID, arg.Critique, arg.ResumeID)
	return err
}

const getResumeCritique = `-- name: GetResumeCritique :one
SELECT id, resume_id, critique, created_at, updated_at FROM resume_critiques
WHERE resume_id = $1
`

func (q *Queries) GetResumeCritique(ctx context.Context, resumeID uuid.UUID) (ResumeCritique, error) {
	row := q.db.QueryRowContext(ctx, getResumeCritique, resumeID)
	var i ResumeCritique
	err := row.Scan(
		&i.ID,
		&i.ResumeID,
		&i.Critique,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
