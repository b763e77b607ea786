package models

import "time"

// GradeBand maps a percentage range onto a grade and grade point.
type GradeBand struct {
	ID            string  `db:"id" json:"id"`
	ScaleID       string  `db:"scale_id" json:"scale_id"`
	MinPercentage float64 `db:"min_percentage" json:"min_percentage"`
	MaxPercentage float64 `db:"max_percentage" json:"max_percentage"`
	Grade         string  `db:"grade" json:"grade"`
	GradePoint    float64 `db:"grade_point" json:"grade_point"`
	Description   *string `db:"description" json:"description,omitempty"`
}

// GradingScale is a named, ordered set of grade bands. Bands must tile
// [0,100] without gaps or overlaps; this is enforced at creation time.
type GradingScale struct {
	ID        string      `db:"id" json:"id"`
	TenantID  string      `db:"tenant_id" json:"tenant_id"`
	Name      string      `db:"name" json:"name"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt time.Time   `db:"updated_at" json:"updated_at"`
	Bands     []GradeBand `json:"bands,omitempty"`
}

// GradeResolution is the outcome of resolving a percentage against a scale.
type GradeResolution struct {
	Grade      string  `json:"grade"`
	GradePoint float64 `json:"grade_point"`
}
