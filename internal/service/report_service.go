package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/exam-engine-api/internal/models"
	appErrors "github.com/noah-isme/exam-engine-api/pkg/errors"
	"github.com/noah-isme/exam-engine-api/pkg/export"
)

type reportResultReader interface {
	FindByStudent(ctx context.Context, examID, studentID string) (*models.PublishedResult, error)
	ExistsForExam(ctx context.Context, examID string) (bool, error)
}

type reportNamer interface {
	NamesByIDs(ctx context.Context, ids []string) (map[string]string, error)
}

// ReportService assembles per-student report card documents from published
// results. Rendering beyond CSV/PDF byte encoding is out of scope here.
type ReportService struct {
	exams       publishExamReader
	results     reportResultReader
	students    reportNamer
	subjects    reportNamer
	csvExporter *export.CSVExporter
	pdfExporter *export.PDFExporter
	logger      *zap.Logger
}

// NewReportService constructs ReportService.
func NewReportService(exams publishExamReader, results reportResultReader, students, subjects reportNamer, csvExporter *export.CSVExporter, pdfExporter *export.PDFExporter, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		exams:       exams,
		results:     results,
		students:    students,
		subjects:    subjects,
		csvExporter: csvExporter,
		pdfExporter: pdfExporter,
		logger:      logger,
	}
}

// BuildReportCard assembles one student's full exam breakdown. It requires
// the exam's results to be published.
func (s *ReportService) BuildReportCard(ctx context.Context, examID, studentID string) (*models.ReportCardDocument, error) {
	exam, err := s.exams.FindByID(ctx, examID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("exam %s not found", examID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam")
	}
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

	subjectIDs := make([]string, 0, len(result.PerSubject))
	for _, line := range result.PerSubject {
		subjectIDs = append(subjectIDs, line.SubjectID)
	}
	subjectNames := map[string]string{}
	if len(subjectIDs) > 0 {
		subjectNames, err = s.subjects.NamesByIDs(ctx, subjectIDs)
		if err != nil {
			s.logger.Warn("failed to load subject names", zap.Error(err))
			subjectNames = map[string]string{}
		}
	}
	studentName := ""
	if names, err := s.students.NamesByIDs(ctx, []string{studentID}); err == nil {
		studentName = names[studentID]
	}

	rows := make([]models.ReportCardRow, 0, len(result.PerSubject))
	for _, line := range result.PerSubject {
		rows = append(rows, models.ReportCardRow{
			SubjectID:     line.SubjectID,
			SubjectName:   subjectNames[line.SubjectID],
			TotalMarks:    line.TotalMarks,
			PassingMarks:  line.PassingMarks,
			MarksObtained: line.MarksObtained,
			IsAbsent:      line.IsAbsent,
			Percentage:    line.Percentage,
			Grade:         line.Grade,
			Passed:        line.Passed,
		})
	}
	return &models.ReportCardDocument{
		StudentID:     studentID,
		StudentName:   studentName,
		ExamID:        exam.ID,
		ExamName:      exam.Name,
		TermID:        exam.TermID,
		Rows:          rows,
		TotalMarks:    result.TotalMarks,
		ObtainedMarks: result.ObtainedMarks,
		Percentage:    result.Percentage,
		Grade:         result.Grade,
		GradePoint:    result.GradePoint,
		Rank:          result.Rank,
		PublishedAt:   result.PublishedAt,
	}, nil
}

// ExportReportCard renders the report card as csv or pdf bytes.
func (s *ReportService) ExportReportCard(ctx context.Context, examID, studentID, format string) ([]byte, string, error) {
	doc, err := s.BuildReportCard(ctx, examID, studentID)
	if err != nil {
		return nil, "", err
	}
	dataset := reportDataset(doc)
	switch strings.ToLower(format) {
	case "csv", "":
		payload, err := s.csvExporter.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return payload, "text/csv", nil
	case "pdf":
		payload, err := s.pdfExporter.Render(dataset, fmt.Sprintf("Report Card - %s", doc.ExamName))
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func reportDataset(doc *models.ReportCardDocument) export.Dataset {
	rank := "-"
	if doc.Rank != nil {
		rank = fmt.Sprintf("%d", *doc.Rank)
	}
	dataset := export.Dataset{
		Headers: []string{"Subject", "Total", "Passing", "Obtained", "Percentage", "Grade", "Status"},
		Summary: [][2]string{
			{"Student", doc.StudentName},
			{"Exam", doc.ExamName},
			{"Overall", fmt.Sprintf("%.2f / %.2f (%.2f%%)", doc.ObtainedMarks, doc.TotalMarks, doc.Percentage)},
			{"Grade", doc.Grade},
			{"Rank", rank},
		},
	}
	for _, row := range doc.Rows {
		obtained := "Absent"
		status := "Absent"
		if !row.IsAbsent && row.MarksObtained != nil {
			obtained = fmt.Sprintf("%.2f", *row.MarksObtained)
			if row.Passed {
				status = "Pass"
			} else {
				status = "Fail"
			}
		}
		name := row.SubjectName
		if name == "" {
			name = row.SubjectID
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Subject":    name,
			"Total":      fmt.Sprintf("%.2f", row.TotalMarks),
			"Passing":    fmt.Sprintf("%.2f", row.PassingMarks),
			"Obtained":   obtained,
			"Percentage": fmt.Sprintf("%.2f", row.Percentage),
			"Grade":      row.Grade,
			"Status":     status,
		})
	}
	return dataset
}
