package models

import "time"

// AnalyticsSource indicates which dataset a snapshot was derived from.
type AnalyticsSource string

const (
	// AnalyticsSourceLive means the snapshot was computed from the marks
	// ledger of an unpublished exam.
	AnalyticsSourceLive AnalyticsSource = "LIVE"
	// AnalyticsSourcePublished means the snapshot reflects the published
	// result set and matches what students see.
	AnalyticsSourcePublished AnalyticsSource = "PUBLISHED"
)

// SubjectSnapshot aggregates statistics for one exam subject.
// Percentage aggregates cover non-absent entries only; TotalStudents
// counts absentees as well.
type SubjectSnapshot struct {
	ExamSubjectID     string  `json:"exam_subject_id"`
	SubjectID         string  `json:"subject_id"`
	SubjectName       string  `json:"subject_name,omitempty"`
	TotalStudents     int     `json:"total_students"`
	AbsentCount       int     `json:"absent_count"`
	AveragePercentage float64 `json:"average_percentage"`
	HighestPercentage float64 `json:"highest_percentage"`
	LowestPercentage  float64 `json:"lowest_percentage"`
	PassRate          float64 `json:"pass_rate"`
}

// ExamSnapshot aggregates statistics across a whole exam. Derived on
// demand, never persisted.
type ExamSnapshot struct {
	ExamID            string            `json:"exam_id"`
	Source            AnalyticsSource   `json:"source"`
	TotalStudents     int               `json:"total_students"`
	AveragePercentage float64           `json:"average_percentage"`
	HighestPercentage float64           `json:"highest_percentage"`
	LowestPercentage  float64           `json:"lowest_percentage"`
	PassRate          float64           `json:"pass_rate"`
	Subjects          []SubjectSnapshot `json:"subjects"`
	GeneratedAt       time.Time         `json:"generated_at"`
}

// SystemMetrics is a lightweight instrumentation snapshot exposed on the
// metrics endpoints.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"average_db_query_duration_ms"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
