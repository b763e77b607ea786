package service

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/exam-engine-api/internal/models"
	appErrors "github.com/noah-isme/exam-engine-api/pkg/errors"
)

type publishExamReader interface {
	FindByID(ctx context.Context, id string) (*models.Exam, error)
}

type publishSubjectReader interface {
	ListByExam(ctx context.Context, examID string) ([]models.ExamSubject, error)
}

type publishMarkReader interface {
	FetchByExam(ctx context.Context, examID string) (map[string][]models.Mark, error)
}

type publishScaleReader interface {
	FindByID(ctx context.Context, id string) (*models.GradingScale, error)
}

type resultRepo interface {
	ReplaceForExam(ctx context.Context, examID string, results []models.PublishedResult) error
	ListByExam(ctx context.Context, examID string) ([]models.PublishedResult, error)
	FindByStudent(ctx context.Context, examID, studentID string) (*models.PublishedResult, error)
	ExistsForExam(ctx context.Context, examID string) (bool, error)
}

// PublishService computes, ranks and publishes the result set of an exam.
type PublishService struct {
	exams    publishExamReader
	subjects publishSubjectReader
	marks    publishMarkReader
	scales   publishScaleReader
	results  resultRepo
	cache    *CacheService
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewPublishService constructs PublishService.
func NewPublishService(exams publishExamReader, subjects publishSubjectReader, marks publishMarkReader, scales publishScaleReader, results resultRepo, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *PublishService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PublishService{exams: exams, subjects: subjects, marks: marks, scales: scales, results: results, cache: cache, metrics: metrics, logger: logger}
}

// Publish computes the full result set from the marks ledger and replaces
// any previous publication atomically. The exam must be COMPLETED; an exam
// already in RESULTS_PUBLISHED may be re-published after corrections.
func (s *PublishService) Publish(ctx context.Context, examID, scaleID string, publishedBy *string) ([]models.PublishedResult, error) {
	results, err := s.publish(ctx, examID, scaleID, publishedBy)
	if s.metrics != nil {
		outcome := "success"
		if err != nil {
			outcome = "failure"
			if appErr := appErrors.FromError(err); appErr.Code == appErrors.ErrPublishInProgress.Code {
				outcome = "contention"
			}
		}
		s.metrics.RecordPublish(outcome)
	}
	return results, err
}

func (s *PublishService) publish(ctx context.Context, examID, scaleID string, publishedBy *string) ([]models.PublishedResult, error) {
	exam, err := s.exams.FindByID(ctx, examID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("exam %s not found", examID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam")
	}
	if exam.Status != models.ExamStatusCompleted && exam.Status != models.ExamStatusResultsPublished {
		return nil, appErrors.Clone(appErrors.ErrExamNotReady, fmt.Sprintf("exam %s is %s; only completed exams publish", examID, exam.Status))
	}
	scale, err := s.scales.FindByID(ctx, scaleID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("grading scale %s not found", scaleID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grading scale")
	}
	subjects, err := s.subjects.ListByExam(ctx, examID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam subjects")
	}
	if len(subjects) == 0 {
		return nil, appErrors.Clone(appErrors.ErrExamNotReady, fmt.Sprintf("exam %s has no subjects", examID))
	}
	marksBySubject, err := s.marks.FetchByExam(ctx, examID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load marks")
	}

	results, err := buildResults(exam, scale, subjects, marksBySubject, publishedBy)
	if err != nil {
		return nil, err
	}
	rankResults(results)

	if err := s.results.ReplaceForExam(ctx, examID, results); err != nil {
		if appErr := appErrors.FromError(err); appErr.Code == appErrors.ErrPublishInProgress.Code {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish results")
	}
	if s.cache != nil {
		s.cache.BumpExamVersion(ctx, examID)
	}
	s.logger.Info("results published",
		zap.String("exam_id", examID),
		zap.String("grading_scale_id", scaleID),
		zap.Int("students", len(results)))
	return results, nil
}

// Results returns the published result set; callers hit the live analytics
// endpoints instead when the exam is not published.
func (s *PublishService) Results(ctx context.Context, examID string) ([]models.PublishedResult, error) {
	published, err := s.results.ExistsForExam(ctx, examID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check results")
	}
	if !published {
		return nil, appErrors.Clone(appErrors.ErrResultsNotPublished, fmt.Sprintf("exam %s has no published results", examID))
	}
	results, err := s.results.ListByExam(ctx, examID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load results")
	}
	return results, nil
}

// StudentResult returns one student's published result.
func (s *PublishService) StudentResult(ctx context.Context, examID, studentID string) (*models.PublishedResult, error) {
	result, err := s.results.FindByStudent(ctx, examID, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			published, existsErr := s.results.ExistsForExam(ctx, examID)
			if existsErr == nil && !published {
				return nil, appErrors.Clone(appErrors.ErrResultsNotPublished, fmt.Sprintf("exam %s has no published results", examID))
			}
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no result for student %s in exam %s", studentID, examID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load result")
	}
	return result, nil
}

// buildResults rolls the marks ledger up into one PublishedResult per
// student that has at least one ledger entry. A subject without an entry
// for a student counts as absent.
func buildResults(exam *models.Exam, scale *models.GradingScale, subjects []models.ExamSubject, marksBySubject map[string][]models.Mark, publishedBy *string) ([]models.PublishedResult, error) {
	markIndex := make(map[string]map[string]models.Mark, len(subjects))
	studentIDs := make(map[string]bool)
	var examTotal float64
	for _, subject := range subjects {
		examTotal += subject.TotalMarks
		byStudent := make(map[string]models.Mark)
		for _, mark := range marksBySubject[subject.ID] {
			byStudent[mark.StudentID] = mark
			studentIDs[mark.StudentID] = true
		}
		markIndex[subject.ID] = byStudent
	}

	now := time.Now().UTC()
	results := make([]models.PublishedResult, 0, len(studentIDs))
	for studentID := range studentIDs {
		var obtained float64
		allAbsent := true
		lines := make([]models.SubjectResultLine, 0, len(subjects))
		for _, subject := range subjects {
			line := models.SubjectResultLine{
				SubjectID:     subject.SubjectID,
				ExamSubjectID: subject.ID,
				TotalMarks:    subject.TotalMarks,
				PassingMarks:  subject.PassingMarks,
				IsAbsent:      true,
			}
			if mark, ok := markIndex[subject.ID][studentID]; ok && !mark.IsAbsent && mark.MarksObtained != nil {
				line.IsAbsent = false
				line.MarksObtained = mark.MarksObtained
				line.Percentage = *mark.MarksObtained / subject.TotalMarks * 100
				line.Passed = *mark.MarksObtained >= subject.PassingMarks
				allAbsent = false
				obtained += *mark.MarksObtained
			}
			resolution, err := resolveGrade(scale.Bands, line.Percentage)
			if err != nil {
				return nil, err
			}
			line.Grade = resolution.Grade
			lines = append(lines, line)
		}

		var percentage float64
		if !allAbsent && examTotal > 0 {
			percentage = obtained / examTotal * 100
		}
		resolution, err := resolveGrade(scale.Bands, percentage)
		if err != nil {
			return nil, err
		}
		results = append(results, models.PublishedResult{
			ExamID:         exam.ID,
			StudentID:      studentID,
			GradingScaleID: scale.ID,
			TotalMarks:     examTotal,
			ObtainedMarks:  obtained,
			Percentage:     percentage,
			Grade:          resolution.Grade,
			GradePoint:     resolution.GradePoint,
			PublishedBy:    publishedBy,
			PublishedAt:    now,
			PerSubject:     lines,
		})
	}
	return results, nil
}

// rankResults assigns standard competition ranks in place. Ties compare on
// the percentage rounded to two decimals and share a rank; the next rank
// skips accordingly. Students absent in every subject stay unranked.
func rankResults(results []models.PublishedResult) {
	rankable := make([]*models.PublishedResult, 0, len(results))
	for i := range results {
		if allAbsent(results[i]) {
			continue
		}
		rankable = append(rankable, &results[i])
	}
	sort.SliceStable(rankable, func(i, j int) bool {
		pi, pj := roundPct(rankable[i].Percentage), roundPct(rankable[j].Percentage)
		if pi != pj {
			return pi > pj
		}
		return rankable[i].StudentID < rankable[j].StudentID
	})
	for i := range rankable {
		rank := i + 1
		if i > 0 && roundPct(rankable[i].Percentage) == roundPct(rankable[i-1].Percentage) {
			rank = *rankable[i-1].Rank
		}
		r := rank
		rankable[i].Rank = &r
	}
	// Deterministic output order regardless of map iteration above.
	sort.SliceStable(results, func(i, j int) bool {
		ri, rj := results[i].Rank, results[j].Rank
		switch {
		case ri == nil && rj == nil:
			return results[i].StudentID < results[j].StudentID
		case ri == nil:
			return false
		case rj == nil:
			return true
		case *ri != *rj:
			return *ri < *rj
		}
		return results[i].StudentID < results[j].StudentID
	})
}

func allAbsent(result models.PublishedResult) bool {
	for _, line := range result.PerSubject {
		if !line.IsAbsent {
			return false
		}
	}
	return true
}

func roundPct(p float64) float64 {
	return math.Round(p*100) / 100
}
