package database

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Chat struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

type Message struct {
	ID        uuid.UUID `json:"id"`
	ChatID    uuid.UUID `json:"chat_id"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	Seq       int64     `json:"seq"`
}

type Resume struct {
	ID               uuid.UUID `json:"id"`
	UserID           string    `json:"user_id"`
	OriginalFilename string    `json:"original_filename"`
	Mime             string    `json:"mime"`
	SizeBytes        int64     `json:"size_bytes"`
	ObjectKey        string    `json:"object_key"`
	UploadStatus     string    `json:"upload_status"`
	CreatedAt        time.Time `json:"created_at"`
}

type ResumeCritique struct {
	ID        uuid.UUID       `json:"id"`
	ResumeID  uuid.UUID       `json:"resume_id"`
	Critique  json.RawMessage `json:"critique"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type Roadmap struct {
	ID        uuid.UUID       `json:"id"`
	UserID    string          `json:"user_id"`
	Role      string          `json:"role"`
	Plan      json.RawMessage `json:"plan"`
	CreatedAt time.Time       `json:"created_at"`
}

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
