package education

import (
	"time"

	"github.com/google/uuid"
)

// Article is patient education content: condition explainers, posture
// guides, recovery expectations.
type Article struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Slug      string    `db:"slug" json:"slug"`
	Title     string    `db:"title" json:"title"`
	Body      string    `db:"body" json:"body"`
	Category  string    `db:"category" json:"category"`
	Published bool      `db:"published" json:"published"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Exercise is a prescribed home exercise with demonstration media.
type Exercise struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Slug        string    `db:"slug" json:"slug"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	VideoURL    string    `db:"video_url" json:"video_url"`
	Sets        int       `db:"sets" json:"sets"`
	Reps        int       `db:"reps" json:"reps"`
	Published   bool      `db:"published" json:"published"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
