package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/exam-engine-api/internal/models"
	appErrors "github.com/noah-isme/exam-engine-api/pkg/errors"
)

// ResultRepository handles published result persistence.
type ResultRepository struct {
	db *sqlx.DB
}

// NewResultRepository creates a new result repository.
func NewResultRepository(db *sqlx.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

type resultRow struct {
	ID             string    `db:"id"`
	ExamID         string    `db:"exam_id"`
	StudentID      string    `db:"student_id"`
	GradingScaleID string    `db:"grading_scale_id"`
	TotalMarks     float64   `db:"total_marks"`
	ObtainedMarks  float64   `db:"obtained_marks"`
	Percentage     float64   `db:"percentage"`
	Grade          string    `db:"grade"`
	GradePoint     float64   `db:"grade_point"`
	Rank           *int      `db:"rank"`
	PublishedBy    *string   `db:"published_by"`
	PublishedAt    time.Time `db:"published_at"`
	PerSubject     string    `db:"per_subject"`
}

func (row resultRow) toModel() (models.PublishedResult, error) {
	result := models.PublishedResult{
		ID:             row.ID,
		ExamID:         row.ExamID,
		StudentID:      row.StudentID,
		GradingScaleID: row.GradingScaleID,
		TotalMarks:     row.TotalMarks,
		ObtainedMarks:  row.ObtainedMarks,
		Percentage:     row.Percentage,
		Grade:          row.Grade,
		GradePoint:     row.GradePoint,
		Rank:           row.Rank,
		PublishedBy:    row.PublishedBy,
		PublishedAt:    row.PublishedAt,
	}
	if row.PerSubject != "" {
		if err := json.Unmarshal([]byte(row.PerSubject), &result.PerSubject); err != nil {
			return result, fmt.Errorf("decode per subject json: %w", err)
		}
	}
	return result, nil
}

// ReplaceForExam atomically replaces the exam's whole result set and moves
// the exam into RESULTS_PUBLISHED. A per-exam advisory lock is taken with
// try-lock semantics so a concurrent publish fails fast instead of
// interleaving writes; the lock is released at transaction end.
func (r *ResultRepository) ReplaceForExam(ctx context.Context, examID string, results []models.PublishedResult) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	var locked bool
	if err := tx.GetContext(ctx, &locked, "SELECT pg_try_advisory_xact_lock(hashtext($1))", examID); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("acquire publish lock: %w", err)
	}
	if !locked {
		tx.Rollback() //nolint:errcheck
		return appErrors.Clone(appErrors.ErrPublishInProgress, fmt.Sprintf("publish already running for exam %s", examID))
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM published_results WHERE exam_id = $1", examID); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("clear published results: %w", err)
	}
	const query = `INSERT INTO published_results (id, exam_id, student_id, grading_scale_id, total_marks, obtained_marks, percentage, grade, grade_point, rank, published_by, published_at, per_subject)
        VALUES (:id, :exam_id, :student_id, :grading_scale_id, :total_marks, :obtained_marks, :percentage, :grade, :grade_point, :rank, :published_by, :published_at, :per_subject)`
	for i := range results {
		if results[i].ID == "" {
			results[i].ID = uuid.NewString()
		}
		perSubject, err := json.Marshal(results[i].PerSubject)
		if err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("encode per subject json: %w", err)
		}
		row := resultRow{
			ID:             results[i].ID,
			ExamID:         results[i].ExamID,
			StudentID:      results[i].StudentID,
			GradingScaleID: results[i].GradingScaleID,
			TotalMarks:     results[i].TotalMarks,
			ObtainedMarks:  results[i].ObtainedMarks,
			Percentage:     results[i].Percentage,
			Grade:          results[i].Grade,
			GradePoint:     results[i].GradePoint,
			Rank:           results[i].Rank,
			PublishedBy:    results[i].PublishedBy,
			PublishedAt:    results[i].PublishedAt,
			PerSubject:     string(perSubject),
		}
		if _, err := tx.NamedExecContext(ctx, query, row); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("insert published result: %w", err)
		}
	}
	const statusQuery = `UPDATE exams SET status = $1, updated_at = $2 WHERE id = $3`
	if _, err := tx.ExecContext(ctx, statusQuery, models.ExamStatusResultsPublished, time.Now().UTC(), examID); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("mark exam published: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit publish: %w", err)
	}
	return nil
}

// ListByExam returns the current result set ordered by rank then student id.
func (r *ResultRepository) ListByExam(ctx context.Context, examID string) ([]models.PublishedResult, error) {
	const query = `SELECT id, exam_id, student_id, grading_scale_id, total_marks, obtained_marks, percentage, grade, grade_point, rank, published_by, published_at, per_subject
        FROM published_results WHERE exam_id = $1 ORDER BY rank NULLS LAST, student_id`
	var rows []resultRow
	if err := r.db.SelectContext(ctx, &rows, query, examID); err != nil {
		return nil, fmt.Errorf("list published results: %w", err)
	}
	results := make([]models.PublishedResult, 0, len(rows))
	for _, row := range rows {
		result, err := row.toModel()
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

// FindByStudent returns one student's published result for the exam.
func (r *ResultRepository) FindByStudent(ctx context.Context, examID, studentID string) (*models.PublishedResult, error) {
	const query = `SELECT id, exam_id, student_id, grading_scale_id, total_marks, obtained_marks, percentage, grade, grade_point, rank, published_by, published_at, per_subject
        FROM published_results WHERE exam_id = $1 AND student_id = $2`
	var row resultRow
	if err := r.db.GetContext(ctx, &row, query, examID, studentID); err != nil {
		return nil, err
	}
	result, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ExistsForExam reports whether the exam has any published result.
func (r *ResultRepository) ExistsForExam(ctx context.Context, examID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM published_results WHERE exam_id = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, examID); err != nil && err != sql.ErrNoRows {
		return false, fmt.Errorf("check published results: %w", err)
	}
	return exists, nil
}
