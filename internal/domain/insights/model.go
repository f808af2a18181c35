package insights

import (
	"time"

	"github.com/google/uuid"
)

const (
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

// Insight is one finding produced by an analyzer, persisted so the front
// desk can review it later.
type Insight struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	Analyzer  string     `db:"analyzer" json:"analyzer"`
	Kind      string     `db:"kind" json:"kind"`
	SubjectID *uuid.UUID `db:"subject_id" json:"subject_id,omitempty"`
	Score     float64    `db:"score" json:"score"`
	Summary   string     `db:"summary" json:"summary"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// Run records one analyzer invocation, successful or not. Failures keep
// their error message so a broken analyzer is visible without log digging.
type Run struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Analyzer     string    `db:"analyzer" json:"analyzer"`
	Status       string    `db:"status" json:"status"`
	Error        *string   `db:"error" json:"error,omitempty"`
	InsightCount int       `db:"insight_count" json:"insight_count"`
	StartedAt    time.Time `db:"started_at" json:"started_at"`
	FinishedAt   time.Time `db:"finished_at" json:"finished_at"`
}
