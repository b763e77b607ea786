package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-engine-api/internal/models"
	appErrors "github.com/noah-isme/exam-engine-api/pkg/errors"
)

type markRepo interface {
	BulkUpsert(ctx context.Context, marks []models.Mark) error
	ListBySubject(ctx context.Context, examSubjectID string) ([]models.Mark, error)
	StudentsWithMarks(ctx context.Context, examSubjectID string) (map[string]bool, error)
}

type rosterRepo interface {
	Exists(ctx context.Context, studentID string) (bool, error)
	ListEnrolled(ctx context.Context, tenantID string) ([]models.StudentRef, error)
	NamesByIDs(ctx context.Context, ids []string) (map[string]string, error)
}

type markExamReader interface {
	FindByID(ctx context.Context, id string) (*models.Exam, error)
}

type markSubjectReader interface {
	FindByID(ctx context.Context, id string) (*models.ExamSubject, error)
}

// MarkEntryInput is one student's entry in a batch.
type MarkEntryInput struct {
	StudentID     string   `json:"student_id" validate:"required"`
	MarksObtained *float64 `json:"marks_obtained"`
	IsAbsent      bool     `json:"is_absent"`
	Remarks       *string  `json:"remarks"`
}

// EnterMarksRequest is an atomic batch of entries for one exam subject.
type EnterMarksRequest struct {
	ExamSubjectID string           `json:"exam_subject_id" validate:"required"`
	Entries       []MarkEntryInput `json:"entries" validate:"required,min=1,dive"`
	EnteredBy     *string          `json:"-"`
}

// MarkService owns the marks ledger for exam subjects.
type MarkService struct {
	marks     markRepo
	exams     markExamReader
	subjects  markSubjectReader
	roster    rosterRepo
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMarkService constructs MarkService.
func NewMarkService(marks markRepo, exams markExamReader, subjects markSubjectReader, roster rosterRepo, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *MarkService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MarkService{marks: marks, exams: exams, subjects: subjects, roster: roster, cache: cache, validator: validate, logger: logger}
}

// EnterMarks validates and persists a batch of entries as one unit. A single
// invalid entry rejects the whole batch and nothing is written.
func (s *MarkService) EnterMarks(ctx context.Context, req EnterMarksRequest) ([]models.Mark, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid marks payload")
	}
	subject, err := s.subjects.FindByID(ctx, req.ExamSubjectID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("exam subject %s not found", req.ExamSubjectID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam subject")
	}
	exam, err := s.exams.FindByID(ctx, subject.ExamID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam")
	}

	switch exam.Status {
	case models.ExamStatusInProgress, models.ExamStatusCompleted:
	case models.ExamStatusResultsPublished:
		return nil, appErrors.Clone(appErrors.ErrExamLocked, fmt.Sprintf("exam %s has published results", exam.ID))
	default:
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("marks cannot be entered while the exam is %s", exam.Status))
	}

	// A COMPLETED exam accepts corrections only, never first-time entries.
	var existing map[string]bool
	if exam.Status == models.ExamStatusCompleted {
		existing, err = s.marks.StudentsWithMarks(ctx, req.ExamSubjectID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load existing marks")
		}
	}

	seen := make(map[string]bool, len(req.Entries))
	marks := make([]models.Mark, 0, len(req.Entries))
	for _, entry := range req.Entries {
		if seen[entry.StudentID] {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s appears twice in the batch", entry.StudentID))
		}
		seen[entry.StudentID] = true

		if entry.IsAbsent {
			if entry.MarksObtained != nil {
				return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("absent student %s cannot carry marks", entry.StudentID))
			}
		} else {
			if entry.MarksObtained == nil {
				return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s needs marks or an absent flag", entry.StudentID))
			}
			if *entry.MarksObtained < 0 || *entry.MarksObtained > subject.TotalMarks {
				return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("marks %.2f for student %s are outside [0, %.2f]", *entry.MarksObtained, entry.StudentID, subject.TotalMarks))
			}
		}

		known, err := s.roster.Exists(ctx, entry.StudentID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student")
		}
		if !known {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("student %s not found", entry.StudentID))
		}
		if existing != nil && !existing[entry.StudentID] {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("exam is completed; student %s has no entry to correct", entry.StudentID))
		}

		marks = append(marks, models.Mark{
			ExamSubjectID: req.ExamSubjectID,
			StudentID:     entry.StudentID,
			MarksObtained: entry.MarksObtained,
			IsAbsent:      entry.IsAbsent,
			Remarks:       entry.Remarks,
			EnteredBy:     req.EnteredBy,
		})
	}

	if err := s.marks.BulkUpsert(ctx, marks); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save marks")
	}
	if s.cache != nil {
		s.cache.BumpExamVersion(ctx, exam.ID)
	}
	s.logger.Info("marks entered",
		zap.String("exam_id", exam.ID),
		zap.String("exam_subject_id", req.ExamSubjectID),
		zap.Int("count", len(marks)))
	return marks, nil
}

// GetMarks returns the ledger entries for one exam subject.
func (s *MarkService) GetMarks(ctx context.Context, examSubjectID string) ([]models.Mark, error) {
	if _, err := s.subjects.FindByID(ctx, examSubjectID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("exam subject %s not found", examSubjectID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam subject")
	}
	marks, err := s.marks.ListBySubject(ctx, examSubjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load marks")
	}
	return marks, nil
}

// SeedSheet builds a mark sheet of every enrolled student with whatever
// ledger entries already exist merged in.
func (s *MarkService) SeedSheet(ctx context.Context, examSubjectID string) ([]models.MarkSheetRow, error) {
	subject, err := s.subjects.FindByID(ctx, examSubjectID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("exam subject %s not found", examSubjectID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam subject")
	}
	exam, err := s.exams.FindByID(ctx, subject.ExamID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam")
	}
	students, err := s.roster.ListEnrolled(ctx, exam.TenantID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	marks, err := s.marks.ListBySubject(ctx, examSubjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load marks")
	}
	byStudent := make(map[string]*models.Mark, len(marks))
	for i := range marks {
		byStudent[marks[i].StudentID] = &marks[i]
	}
	rows := make([]models.MarkSheetRow, 0, len(students))
	for _, student := range students {
		rows = append(rows, models.MarkSheetRow{
			StudentID:   student.ID,
			StudentName: student.FullName,
			Mark:        byStudent[student.ID],
		})
	}
	return rows, nil
}
