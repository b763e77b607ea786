package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/exam-engine-api/internal/models"
	appErrors "github.com/noah-isme/exam-engine-api/pkg/errors"
)

type analyticsSubjectNamer interface {
	NamesByIDs(ctx context.Context, ids []string) (map[string]string, error)
}

type analyticsResultReader interface {
	ListByExam(ctx context.Context, examID string) ([]models.PublishedResult, error)
	ExistsForExam(ctx context.Context, examID string) (bool, error)
}

// entryStat is the common shape analytics aggregates over, whether sourced
// from the marks ledger or from published per-subject lines.
type entryStat struct {
	studentID  string
	absent     bool
	percentage float64
	passed     bool
}

// AnalyticsService derives exam and subject statistics on demand. Snapshots
// are never persisted; Redis holds them keyed by the exam's version token
// so any mark write or publish naturally invalidates them.
type AnalyticsService struct {
	exams        publishExamReader
	examSubjects publishSubjectReader
	marks        publishMarkReader
	results      analyticsResultReader
	subjectNames analyticsSubjectNamer
	cache        *CacheService
	metrics      *MetricsService
	cacheTTL     time.Duration
	logger       *zap.Logger
}

// NewAnalyticsService constructs AnalyticsService.
func NewAnalyticsService(exams publishExamReader, examSubjects publishSubjectReader, marks publishMarkReader, results analyticsResultReader, subjectNames analyticsSubjectNamer, cache *CacheService, metrics *MetricsService, cacheTTL time.Duration, logger *zap.Logger) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &AnalyticsService{
		exams:        exams,
		examSubjects: examSubjects,
		marks:        marks,
		results:      results,
		subjectNames: subjectNames,
		cache:        cache,
		metrics:      metrics,
		cacheTTL:     cacheTTL,
		logger:       logger,
	}
}

// ExamSnapshot returns the aggregate statistics for one exam and whether
// they came from cache. The source is the published result set when one
// exists, otherwise the live marks ledger.
func (s *AnalyticsService) ExamSnapshot(ctx context.Context, examID string) (*models.ExamSnapshot, bool, error) {
	exam, err := s.exams.FindByID(ctx, examID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("exam %s not found", examID))
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam")
	}

	var cacheKey string
	if s.cache != nil && s.cache.Enabled() {
		version := s.cache.ExamVersion(ctx, examID)
		cacheKey = fmt.Sprintf("analytics:exam:%s:v%d", examID, version)
		var cached models.ExamSnapshot
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, true, nil
		}
	}

	published, err := s.results.ExistsForExam(ctx, examID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check results")
	}

	var snapshot *models.ExamSnapshot
	if published {
		snapshot, err = s.publishedSnapshot(ctx, examID)
	} else {
		snapshot, err = s.liveSnapshot(ctx, examID)
	}
	if err != nil {
		return nil, false, err
	}
	snapshot.ExamID = exam.ID

	if cacheKey != "" {
		if err := s.cache.Set(ctx, cacheKey, snapshot, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache analytics snapshot", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return snapshot, false, nil
}

// SubjectSnapshot returns the aggregate statistics for one exam subject.
func (s *AnalyticsService) SubjectSnapshot(ctx context.Context, examID, examSubjectID string) (*models.SubjectSnapshot, bool, error) {
	full, cached, err := s.ExamSnapshot(ctx, examID)
	if err != nil {
		return nil, false, err
	}
	for i := range full.Subjects {
		if full.Subjects[i].ExamSubjectID == examSubjectID {
			return &full.Subjects[i], cached, nil
		}
	}
	return nil, false, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("exam subject %s not found in exam %s", examSubjectID, examID))
}

func (s *AnalyticsService) liveSnapshot(ctx context.Context, examID string) (*models.ExamSnapshot, error) {
	subjects, err := s.examSubjects.ListByExam(ctx, examID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam subjects")
	}
	start := time.Now()
	marksBySubject, err := s.marks.FetchByExam(ctx, examID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load marks")
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("analytics_live_fetch", time.Since(start))
	}

	bySubject := make(map[string][]entryStat, len(subjects))
	for _, subject := range subjects {
		stats := make([]entryStat, 0, len(marksBySubject[subject.ID]))
		for _, mark := range marksBySubject[subject.ID] {
			stat := entryStat{studentID: mark.StudentID, absent: true}
			if !mark.IsAbsent && mark.MarksObtained != nil {
				stat.absent = false
				stat.percentage = *mark.MarksObtained / subject.TotalMarks * 100
				stat.passed = *mark.MarksObtained >= subject.PassingMarks
			}
			stats = append(stats, stat)
		}
		bySubject[subject.ID] = stats
	}
	return s.assemble(ctx, subjects, bySubject, models.AnalyticsSourceLive)
}

func (s *AnalyticsService) publishedSnapshot(ctx context.Context, examID string) (*models.ExamSnapshot, error) {
	subjects, err := s.examSubjects.ListByExam(ctx, examID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam subjects")
	}
	results, err := s.results.ListByExam(ctx, examID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load results")
	}

	bySubject := make(map[string][]entryStat, len(subjects))
	for _, result := range results {
		for _, line := range result.PerSubject {
			bySubject[line.ExamSubjectID] = append(bySubject[line.ExamSubjectID], entryStat{
				studentID:  result.StudentID,
				absent:     line.IsAbsent,
				percentage: line.Percentage,
				passed:     line.Passed,
			})
		}
	}
	return s.assemble(ctx, subjects, bySubject, models.AnalyticsSourcePublished)
}

// assemble applies the shared formulas: percentage aggregates and pass rate
// run over non-absent entries only, totalStudents counts absentees too.
func (s *AnalyticsService) assemble(ctx context.Context, subjects []models.ExamSubject, bySubject map[string][]entryStat, source models.AnalyticsSource) (*models.ExamSnapshot, error) {
	subjectIDs := make([]string, 0, len(subjects))
	for _, subject := range subjects {
		subjectIDs = append(subjectIDs, subject.SubjectID)
	}
	names := map[string]string{}
	if s.subjectNames != nil && len(subjectIDs) > 0 {
		var err error
		names, err = s.subjectNames.NamesByIDs(ctx, subjectIDs)
		if err != nil {
			s.logger.Warn("failed to load subject names", zap.Error(err))
			names = map[string]string{}
		}
	}

	snapshot := &models.ExamSnapshot{
		Source:      source,
		Subjects:    make([]models.SubjectSnapshot, 0, len(subjects)),
		GeneratedAt: time.Now().UTC(),
	}
	var all []entryStat
	students := make(map[string]bool)
	for _, subject := range subjects {
		stats := bySubject[subject.ID]
		sub := aggregate(stats)
		sub.ExamSubjectID = subject.ID
		sub.SubjectID = subject.SubjectID
		sub.SubjectName = names[subject.SubjectID]
		snapshot.Subjects = append(snapshot.Subjects, sub)
		for _, stat := range stats {
			students[stat.studentID] = true
		}
		all = append(all, stats...)
	}
	overall := aggregate(all)
	snapshot.TotalStudents = len(students)
	snapshot.AveragePercentage = overall.AveragePercentage
	snapshot.HighestPercentage = overall.HighestPercentage
	snapshot.LowestPercentage = overall.LowestPercentage
	snapshot.PassRate = overall.PassRate
	return snapshot, nil
}

func aggregate(stats []entryStat) models.SubjectSnapshot {
	snapshot := models.SubjectSnapshot{TotalStudents: len(stats)}
	var sum float64
	var attempted, passed int
	for _, stat := range stats {
		if stat.absent {
			snapshot.AbsentCount++
			continue
		}
		if attempted == 0 || stat.percentage > snapshot.HighestPercentage {
			snapshot.HighestPercentage = stat.percentage
		}
		if attempted == 0 || stat.percentage < snapshot.LowestPercentage {
			snapshot.LowestPercentage = stat.percentage
		}
		sum += stat.percentage
		attempted++
		if stat.passed {
			passed++
		}
	}
	if attempted > 0 {
		snapshot.AveragePercentage = sum / float64(attempted)
		snapshot.PassRate = float64(passed) / float64(attempted) * 100
	}
	return snapshot
}
