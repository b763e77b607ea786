package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-engine-api/internal/models"
	appErrors "github.com/noah-isme/exam-engine-api/pkg/errors"
)

type examRepo interface {
	Create(ctx context.Context, exam *models.Exam) error
	FindByID(ctx context.Context, id string) (*models.Exam, error)
	List(ctx context.Context, filter models.ExamFilter) ([]models.Exam, int, error)
	UpdateStatus(ctx context.Context, examID string, from, to models.ExamStatus) (bool, error)
}

type examSubjectRepo interface {
	FindByID(ctx context.Context, id string) (*models.ExamSubject, error)
	ListByExam(ctx context.Context, examID string) ([]models.ExamSubject, error)
	Update(ctx context.Context, subject *models.ExamSubject) error
}

type subjectMarkReader interface {
	HasMarks(ctx context.Context, examSubjectID string) (bool, error)
	ListBySubject(ctx context.Context, examSubjectID string) ([]models.Mark, error)
}

type publishedChecker interface {
	ExistsForExam(ctx context.Context, examID string) (bool, error)
}

// ExamSubjectInput is one subject slot of an exam creation payload.
type ExamSubjectInput struct {
	SubjectID    string     `json:"subject_id" validate:"required"`
	ExamDate     *time.Time `json:"exam_date"`
	TotalMarks   float64    `json:"total_marks" validate:"gt=0"`
	PassingMarks float64    `json:"passing_marks" validate:"gte=0"`
}

// CreateExamRequest schedules a new exam with its subjects.
type CreateExamRequest struct {
	TenantID    string             `json:"tenant_id" validate:"required"`
	BranchID    *string            `json:"branch_id"`
	TermID      string             `json:"term_id" validate:"required"`
	Name        string             `json:"name" validate:"required"`
	Type        models.ExamType    `json:"type" validate:"required,oneof=CLASS_TEST MIDTERM FINAL QUIZ PRACTICAL ASSIGNMENT"`
	StartDate   time.Time          `json:"start_date" validate:"required"`
	EndDate     time.Time          `json:"end_date" validate:"required"`
	Description *string            `json:"description"`
	CreatedBy   *string            `json:"-"`
	Subjects    []ExamSubjectInput `json:"subjects" validate:"required,min=1,dive"`
}

// UpdateSubjectRequest is an administrative correction of one subject slot.
type UpdateSubjectRequest struct {
	ExamDate     *time.Time `json:"exam_date"`
	TotalMarks   float64    `json:"total_marks" validate:"gt=0"`
	PassingMarks float64    `json:"passing_marks" validate:"gte=0"`
}

// ExamService owns exam scheduling and the lifecycle state machine.
type ExamService struct {
	exams     examRepo
	subjects  examSubjectRepo
	marks     subjectMarkReader
	results   publishedChecker
	validator *validator.Validate
	logger    *zap.Logger
}

// NewExamService constructs ExamService.
func NewExamService(exams examRepo, subjects examSubjectRepo, marks subjectMarkReader, results publishedChecker, validate *validator.Validate, logger *zap.Logger) *ExamService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExamService{exams: exams, subjects: subjects, marks: marks, results: results, validator: validate, logger: logger}
}

// Create validates the exam and all subject slots before persisting them
// together; nothing is written when any slot is invalid.
func (s *ExamService) Create(ctx context.Context, req CreateExamRequest) (*models.Exam, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exam payload")
	}
	if req.EndDate.Before(req.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_date must not be after end_date")
	}
	seen := make(map[string]bool, len(req.Subjects))
	subjects := make([]models.ExamSubject, 0, len(req.Subjects))
	for _, input := range req.Subjects {
		if seen[input.SubjectID] {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("subject %s listed twice", input.SubjectID))
		}
		seen[input.SubjectID] = true
		if err := validateSubjectBounds(input.TotalMarks, input.PassingMarks, input.SubjectID); err != nil {
			return nil, err
		}
		if input.ExamDate != nil && (input.ExamDate.Before(req.StartDate) || input.ExamDate.After(req.EndDate)) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("exam_date for subject %s is outside the exam window", input.SubjectID))
		}
		subjects = append(subjects, models.ExamSubject{
			SubjectID:    input.SubjectID,
			ExamDate:     input.ExamDate,
			TotalMarks:   input.TotalMarks,
			PassingMarks: input.PassingMarks,
		})
	}
	exam := &models.Exam{
		TenantID:    req.TenantID,
		BranchID:    req.BranchID,
		TermID:      req.TermID,
		Name:        req.Name,
		Type:        req.Type,
		Status:      models.ExamStatusDraft,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Description: req.Description,
		CreatedBy:   req.CreatedBy,
		Subjects:    subjects,
	}
	if err := s.exams.Create(ctx, exam); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create exam")
	}
	return exam, nil
}

// Get returns one exam with its subjects.
func (s *ExamService) Get(ctx context.Context, id string) (*models.Exam, error) {
	exam, err := s.exams.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("exam %s not found", id))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam")
	}
	subjects, err := s.subjects.ListByExam(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam subjects")
	}
	exam.Subjects = subjects
	return exam, nil
}

// List returns exams matching the filter with pagination metadata.
func (s *ExamService) List(ctx context.Context, filter models.ExamFilter) ([]models.Exam, *models.Pagination, error) {
	if filter.TenantID == "" {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "tenant scope required")
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	exams, total, err := s.exams.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list exams")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return exams, pagination, nil
}

// UpdateStatus advances the exam one step through the lifecycle. The jump
// into RESULTS_PUBLISHED belongs to the publisher and is rejected here.
func (s *ExamService) UpdateStatus(ctx context.Context, examID string, newStatus models.ExamStatus) (*models.Exam, error) {
	if !newStatus.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown exam status %q", newStatus))
	}
	if newStatus == models.ExamStatusResultsPublished {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "results are published through the publish operation")
	}
	exam, err := s.Get(ctx, examID)
	if err != nil {
		return nil, err
	}
	if exam.Status.Next() != newStatus {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("cannot move exam from %s to %s", exam.Status, newStatus))
	}
	updated, err := s.exams.UpdateStatus(ctx, examID, exam.Status, newStatus)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update exam status")
	}
	if !updated {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("exam status changed concurrently; expected %s", exam.Status))
	}
	exam.Status = newStatus
	return exam, nil
}

// UpdateSubject applies an administrative correction to a subject slot.
// Corrections are rejected once the exam has published results, and bound
// changes must not invalidate marks already on the ledger.
func (s *ExamService) UpdateSubject(ctx context.Context, examSubjectID string, req UpdateSubjectRequest) (*models.ExamSubject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
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
	published, err := s.results.ExistsForExam(ctx, exam.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check published results")
	}
	if published || exam.Status == models.ExamStatusResultsPublished {
		return nil, appErrors.Clone(appErrors.ErrExamLocked, fmt.Sprintf("exam %s has published results", exam.ID))
	}
	if err := validateSubjectBounds(req.TotalMarks, req.PassingMarks, subject.SubjectID); err != nil {
		return nil, err
	}
	if req.ExamDate != nil && (req.ExamDate.Before(exam.StartDate) || req.ExamDate.After(exam.EndDate)) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "exam_date is outside the exam window")
	}
	hasMarks, err := s.marks.HasMarks(ctx, examSubjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check marks")
	}
	if hasMarks {
		if exam.Status == models.ExamStatusScheduled {
			return nil, appErrors.Clone(appErrors.ErrValidation, "subject bounds are locked once marks exist")
		}
		marks, err := s.marks.ListBySubject(ctx, examSubjectID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load marks")
		}
		for _, mark := range marks {
			if !mark.IsAbsent && mark.MarksObtained != nil && *mark.MarksObtained > req.TotalMarks {
				return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s already scored above the new total", mark.StudentID))
			}
		}
	}
	subject.ExamDate = req.ExamDate
	subject.TotalMarks = req.TotalMarks
	subject.PassingMarks = req.PassingMarks
	if err := s.subjects.Update(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update exam subject")
	}
	return subject, nil
}

func validateSubjectBounds(totalMarks, passingMarks float64, subjectID string) error {
	if totalMarks <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("total_marks must be positive for subject %s", subjectID))
	}
	if passingMarks < 0 || passingMarks > totalMarks {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("passing_marks must be between 0 and total_marks for subject %s", subjectID))
	}
	return nil
}
