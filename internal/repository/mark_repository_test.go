package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/exam-engine-api/internal/models"
)

func ptrFloat(v float64) *float64 {
	return &v
}

func TestMarkRepositoryBulkUpsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewMarkRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO marks")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO marks")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	marks := []models.Mark{
		{ExamSubjectID: "es-1", StudentID: "stu-a", MarksObtained: ptrFloat(80)},
		{ExamSubjectID: "es-1", StudentID: "stu-b", IsAbsent: true},
	}
	require.NoError(t, repo.BulkUpsert(context.Background(), marks))
	require.NotEmpty(t, marks[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkRepositoryBulkUpsertRollsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewMarkRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO marks")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO marks")).
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	marks := []models.Mark{
		{ExamSubjectID: "es-1", StudentID: "stu-a", MarksObtained: ptrFloat(80)},
		{ExamSubjectID: "es-1", StudentID: "stu-b", MarksObtained: ptrFloat(70)},
	}
	require.Error(t, repo.BulkUpsert(context.Background(), marks))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkRepositoryListBySubject(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewMarkRepository(db)
	rows := sqlmock.NewRows([]string{"id", "exam_subject_id", "student_id", "marks_obtained", "is_absent", "remarks", "entered_by", "created_at", "updated_at"}).
		AddRow("m1", "es-1", "stu-a", 80.0, false, nil, "teacher-1", time.Now(), time.Now()).
		AddRow("m2", "es-1", "stu-b", nil, true, nil, "teacher-1", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM marks WHERE exam_subject_id = $1 ORDER BY student_id")).
		WithArgs("es-1").
		WillReturnRows(rows)

	marks, err := repo.ListBySubject(context.Background(), "es-1")
	require.NoError(t, err)
	require.Len(t, marks, 2)
	require.Equal(t, 80.0, *marks[0].MarksObtained)
	require.True(t, marks[1].IsAbsent)
	require.Nil(t, marks[1].MarksObtained)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkRepositoryFetchByExamGroupsBySubject(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewMarkRepository(db)
	rows := sqlmock.NewRows([]string{"id", "exam_subject_id", "student_id", "marks_obtained", "is_absent", "remarks", "entered_by", "created_at", "updated_at"}).
		AddRow("m1", "es-1", "stu-a", 80.0, false, nil, nil, time.Now(), time.Now()).
		AddRow("m2", "es-2", "stu-a", 60.0, false, nil, nil, time.Now(), time.Now()).
		AddRow("m3", "es-1", "stu-b", 90.0, false, nil, nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("JOIN exam_subjects es ON es.id = m.exam_subject_id")).
		WithArgs("exam-1").
		WillReturnRows(rows)

	grouped, err := repo.FetchByExam(context.Background(), "exam-1")
	require.NoError(t, err)
	require.Len(t, grouped, 2)
	require.Len(t, grouped["es-1"], 2)
	require.Len(t, grouped["es-2"], 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkRepositoryStudentsWithMarks(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewMarkRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT student_id FROM marks WHERE exam_subject_id = $1")).
		WithArgs("es-1").
		WillReturnRows(sqlmock.NewRows([]string{"student_id"}).AddRow("stu-a").AddRow("stu-b"))

	students, err := repo.StudentsWithMarks(context.Background(), "es-1")
	require.NoError(t, err)
	require.True(t, students["stu-a"])
	require.True(t, students["stu-b"])
	require.False(t, students["stu-c"])
	require.NoError(t, mock.ExpectationsWereMet())
}
