package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/exam-engine-api/internal/models"
)

// SubjectRepository reads the subject catalog for display names.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository creates a new subject repository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// NamesByIDs returns subject names keyed by id. Unknown ids are omitted.
func (r *SubjectRepository) NamesByIDs(ctx context.Context, ids []string) (map[string]string, error) {
	result := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	query, args, err := sqlx.In("SELECT id, name FROM subjects WHERE id IN (?)", ids)
	if err != nil {
		return nil, fmt.Errorf("build subject name query: %w", err)
	}
	query = r.db.Rebind(query)
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, args...); err != nil {
		return nil, fmt.Errorf("fetch subject names: %w", err)
	}
	for _, subject := range subjects {
		result[subject.ID] = subject.Name
	}
	return result, nil
}
