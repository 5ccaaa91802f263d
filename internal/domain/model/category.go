package model

import (
	"strings"
	"time"
)

type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description"`
	PaperCount  int       `json:"paper_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CategoryOption is the id/name pair offered by the admin paper form.
type CategoryOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Precondition is an optional optimistic-concurrency check for updates.
// When ExpectedUpdatedAt is set the update only applies if the row still
// carries that timestamp.
type Precondition struct {
	ExpectedUpdatedAt *time.Time `json:"expected_updated_at,omitempty"`
}

type CategoryInput struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Precondition
}

func (in CategoryInput) Normalized() CategoryInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	return in
}
