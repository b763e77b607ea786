package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/exam-engine-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestExamRepositoryCreateTransactional(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewExamRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO exams")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO exam_subjects")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO exam_subjects")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	exam := &models.Exam{
		TenantID:  "t1",
		TermID:    "term-1",
		Name:      "Finals",
		Type:      models.ExamTypeFinal,
		Status:    models.ExamStatusDraft,
		StartDate: time.Now(),
		EndDate:   time.Now().AddDate(0, 0, 7),
		Subjects: []models.ExamSubject{
			{SubjectID: "math", TotalMarks: 100, PassingMarks: 40},
			{SubjectID: "english", TotalMarks: 100, PassingMarks: 40},
		},
	}
	require.NoError(t, repo.Create(context.Background(), exam))
	require.NotEmpty(t, exam.ID)
	require.Equal(t, exam.ID, exam.Subjects[0].ExamID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExamRepositoryCreateRollsBackOnSubjectFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewExamRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO exams")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO exam_subjects")).
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	exam := &models.Exam{
		TenantID:  "t1",
		TermID:    "term-1",
		Name:      "Finals",
		Type:      models.ExamTypeFinal,
		Status:    models.ExamStatusDraft,
		StartDate: time.Now(),
		EndDate:   time.Now().AddDate(0, 0, 7),
		Subjects:  []models.ExamSubject{{SubjectID: "math", TotalMarks: 100, PassingMarks: 40}},
	}
	require.Error(t, repo.Create(context.Background(), exam))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExamRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewExamRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM exams WHERE tenant_id = $1 AND term_id = $2 AND status = $3")).
		WithArgs("t1", "term-1", models.ExamStatusCompleted).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	rows := sqlmock.NewRows([]string{"id", "tenant_id", "branch_id", "term_id", "name", "type", "status", "start_date", "end_date", "description", "created_by", "created_at", "updated_at"}).
		AddRow("exam-1", "t1", nil, "term-1", "Midterm", "MIDTERM", "COMPLETED", time.Now(), time.Now(), nil, nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, tenant_id, branch_id, term_id, name, type, status")).
		WithArgs("t1", "term-1", models.ExamStatusCompleted, 20, 0).
		WillReturnRows(rows)

	exams, total, err := repo.List(context.Background(), models.ExamFilter{
		TenantID: "t1",
		TermID:   "term-1",
		Status:   models.ExamStatusCompleted,
		Page:     1,
		PageSize: 20,
	})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, exams, 1)
	require.Equal(t, "exam-1", exams[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExamRepositoryUpdateStatusCAS(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewExamRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE exams SET status")).
		WithArgs(models.ExamStatusScheduled, sqlmock.AnyArg(), "exam-1", models.ExamStatusDraft).
		WillReturnResult(sqlmock.NewResult(0, 1))

	updated, err := repo.UpdateStatus(context.Background(), "exam-1", models.ExamStatusDraft, models.ExamStatusScheduled)
	require.NoError(t, err)
	require.True(t, updated)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE exams SET status")).
		WithArgs(models.ExamStatusInProgress, sqlmock.AnyArg(), "exam-1", models.ExamStatusScheduled).
		WillReturnResult(sqlmock.NewResult(0, 0))

	updated, err = repo.UpdateStatus(context.Background(), "exam-1", models.ExamStatusScheduled, models.ExamStatusInProgress)
	require.NoError(t, err)
	require.False(t, updated, "stale expected status updates nothing")
	require.NoError(t, mock.ExpectationsWereMet())
}
