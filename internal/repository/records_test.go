package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visa-locker/internal/common/database"
	"visa-locker/internal/common/errors"
	"visa-locker/internal/common/logger"
	"visa-locker/internal/locker"
	"visa-locker/internal/questionnaire/answers"
)

func newMockRepo(t *testing.T) (*RecordRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := NewRecordRepository(database.NewPostgresFromDB(db), logger.NewTestLogger(t))
	repo.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }
	return repo, mock
}

func TestLoad(t *testing.T) {
	repo, mock := newMockRepo(t)
	updated := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT personal, questions, co_travelers`).
		WithArgs("tok").
		WillReturnRows(sqlmock.NewRows([]string{"personal", "questions", "co_travelers", "percentage", "locked", "submitted_at", "updated_at"}).
			AddRow([]byte(`{"first_name":"Ada"}`), []byte(`{"form_complete":"1"}`), []byte(`[{"id":7,"first_name":"Max"}]`), 100, true, updated, updated))

	rec, err := repo.Load(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "Ada", rec.Record.Personal["first_name"])
	assert.True(t, rec.Record.IsLocked())
	assert.Equal(t, "7", rec.Record.CoTravelers[0].ID.String())
	require.NotNil(t, rec.SubmittedAt)
	assert.Equal(t, 100, rec.Percentage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(sqlmock.Sqlmock)
		wantCode errors.ErrorCode
	}{
		{
			name: "missing row",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(`SELECT personal`).WithArgs("tok").
					WillReturnRows(sqlmock.NewRows([]string{"personal"}))
			},
			wantCode: errors.ErrCodeRecordNotFound,
		},
		{
			name: "query failure",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(`SELECT personal`).WithArgs("tok").WillReturnError(fmt.Errorf("connection reset"))
			},
			wantCode: errors.ErrCodeQueryExecutionFailed,
		},
		{
			name: "corrupt json",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(`SELECT personal`).WithArgs("tok").
					WillReturnRows(sqlmock.NewRows([]string{"personal", "questions", "co_travelers", "percentage", "locked", "submitted_at", "updated_at"}).
						AddRow([]byte(`{`), nil, nil, 0, false, nil, time.Now()))
			},
			wantCode: errors.ErrCodeQueryExecutionFailed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepo(t)
			tt.setup(mock)

			_, err := repo.Load(context.Background(), "tok")
			stdErr, ok := errors.AsStandard(err)
			require.True(t, ok, "got %v", err)
			assert.Equal(t, tt.wantCode, stdErr.Code)
		})
	}
}

func TestOnSubmitted(t *testing.T) {
	repo, mock := newMockRepo(t)
	submitted := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO applicant_records`).
		WithArgs("tok", []byte(`{"first_name":"Ada"}`), []byte(`{"form_complete":"1"}`), 100, submitted).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO audit_log`).
		WithArgs(sqlmock.AnyArg(), EventRecordLocked, "applicant_record", "tok", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.OnSubmitted(context.Background(), locker.Submission{
		Token:       "tok",
		Country:     "France",
		Percentage:  100,
		SubmittedAt: submitted,
		Snapshot: answers.Snapshot{
			Personal:  answers.PersonalInfo{"first_name": "Ada"},
			Questions: answers.QuestionAnswers{"form_complete": "1"},
			Locked:    true,
		},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOnSubmittedRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO applicant_records`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO audit_log`).WillReturnError(fmt.Errorf("disk full"))
	mock.ExpectRollback()

	err := repo.OnSubmitted(context.Background(), locker.Submission{Token: "tok"})
	require.Error(t, err)
	assert.True(t, errors.IsRetryable(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateReadiness(t *testing.T) {
	t.Run("updated", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE applicant_records SET percentage`).
			WithArgs("tok", 80, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO audit_log`).
			WithArgs(sqlmock.AnyArg(), EventReadinessScored, "applicant_record", "tok", []byte(`{"missing":["city"],"percentage":80}`), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		require.NoError(t, repo.UpdateReadiness(context.Background(), "tok", 80, []string{"city"}))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown token", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE applicant_records`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.UpdateReadiness(context.Background(), "nope", 10, nil)
		stdErr, ok := errors.AsStandard(err)
		require.True(t, ok)
		assert.Equal(t, errors.ErrCodeRecordNotFound, stdErr.Code)
	})
}

func TestAudit(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(`INSERT INTO audit_log`).
		WithArgs(sqlmock.AnyArg(), EventSummaryIndexed, "applicant_record", "tok", []byte(`{"index":"applicant-summaries"}`), repo.now().UTC()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Audit(context.Background(), EventSummaryIndexed, "tok", map[string]interface{}{"index": "applicant-summaries"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}
