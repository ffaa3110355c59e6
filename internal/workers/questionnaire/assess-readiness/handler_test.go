package assessreadiness

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visa-locker/internal/common/database"
	"visa-locker/internal/common/errors"
	"visa-locker/internal/common/logger"
	"visa-locker/internal/questionnaire/answers"
	"visa-locker/internal/questionnaire/progress"
	"visa-locker/internal/repository"
)

// ==========================
// Test Helper Functions
// ==========================

func partialPersonal() answers.PersonalInfo {
	return answers.PersonalInfo{
		"first_name":     "Ada",
		"last_name":      "Lovelace",
		"email":          "ada@example.com",
		"travel_country": "France",
		"visa_type":      "Tourist",
	}
}

type testEnv struct {
	handler *Handler
	sql     sqlmock.Sqlmock
	drafts  *repository.DraftCache
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rc := database.NewRedisFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	drafts := repository.NewDraftCache(rc, time.Hour)
	log := logger.NewTestLogger(t)

	h, err := NewHandler(DefaultConfig(), ServiceDependencies{
		Drafts:  drafts,
		Records: repository.NewRecordRepository(database.NewPostgresFromDB(db), log),
	}, log)
	require.NoError(t, err)
	return &testEnv{handler: h, sql: mock, drafts: drafts}
}

func expectReadiness(m sqlmock.Sqlmock, token string, pct int) {
	m.ExpectBegin()
	m.ExpectExec(`UPDATE applicant_records SET percentage`).
		WithArgs(token, pct, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	m.ExpectExec(`INSERT INTO audit_log`).WillReturnResult(sqlmock.NewResult(1, 1))
	m.ExpectCommit()
}

// ==========================
// Core Functionality Tests
// ==========================

func TestExecuteFromDraft(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	store := answers.NewStore(partialPersonal(), answers.QuestionAnswers{"stay_type": "tourist"})
	require.NoError(t, env.drafts.SaveDraft(ctx, "tok", store.Snapshot()))
	want := progress.NewCalculator(nil, nil).Compute(store)

	expectReadiness(env.sql, "tok", want.Percentage)

	out, err := env.handler.Execute(ctx, &Input{Token: "tok"})
	require.NoError(t, err)
	assert.Equal(t, SourceDraft, out.Source)
	assert.Equal(t, want.Percentage, out.Percentage)
	assert.Equal(t, want.Missing, out.Missing)
	assert.NotEmpty(t, out.Missing)
	assert.Less(t, out.Percentage, 100)
	assert.False(t, out.Ready)
	assert.False(t, out.PersonalComplete)
	assert.NoError(t, env.sql.ExpectationsWereMet())
}

func TestExecuteFallsBackToRecord(t *testing.T) {
	env := setup(t)

	env.sql.ExpectQuery(`SELECT personal, questions, co_travelers`).
		WithArgs("tok").
		WillReturnRows(sqlmock.NewRows([]string{"personal", "questions", "co_travelers", "percentage", "locked", "submitted_at", "updated_at"}).
			AddRow([]byte(`{"first_name":"Ada"}`), []byte(`{"form_complete":"1"}`), nil, 100, true, time.Now(), time.Now()))
	expectReadiness(env.sql, "tok", 100)

	out, err := env.handler.Execute(context.Background(), &Input{Token: "tok"})
	require.NoError(t, err)
	assert.Equal(t, SourceRecord, out.Source)
	assert.True(t, out.Locked)
	assert.Equal(t, 100, out.Percentage)
	assert.NoError(t, env.sql.ExpectationsWereMet())
}

func TestExecuteUnknownToken(t *testing.T) {
	env := setup(t)
	env.sql.ExpectQuery(`SELECT personal`).WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"personal"}))

	_, err := env.handler.Execute(context.Background(), &Input{Token: "nope"})
	stdErr, ok := errors.AsStandard(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeRecordNotFound, stdErr.Code)
	assert.False(t, stdErr.Retryable)
}

type brokenDrafts struct{}

func (brokenDrafts) LoadDraft(context.Context, string) (*repository.Draft, bool, error) {
	return nil, false, errors.NewCacheFailedError("get_draft", fmt.Errorf("i/o timeout"))
}

type fakeRecords struct {
	record  *repository.StoredRecord
	updated []int
	err     error
}

func (f *fakeRecords) Load(context.Context, string) (*repository.StoredRecord, error) {
	return f.record, nil
}

func (f *fakeRecords) UpdateReadiness(_ context.Context, _ string, pct int, _ []string) error {
	f.updated = append(f.updated, pct)
	return f.err
}

func TestExecuteCacheErrorUsesRecord(t *testing.T) {
	records := &fakeRecords{record: &repository.StoredRecord{Token: "tok"}}
	svc := NewService(ServiceDependencies{Drafts: brokenDrafts{}, Records: records, Logger: logger.NewTestLogger(t)})

	out, err := svc.Execute(context.Background(), &Input{Token: "tok"})
	require.NoError(t, err)
	assert.Equal(t, SourceRecord, out.Source)
	assert.Equal(t, []int{out.Percentage}, records.updated)
}

func TestExecuteWriteFailure(t *testing.T) {
	records := &fakeRecords{
		record: &repository.StoredRecord{Token: "tok"},
		err:    errors.NewQueryExecutionFailedError("update_readiness", fmt.Errorf("conn closed")),
	}
	svc := NewService(ServiceDependencies{Records: records})

	_, err := svc.Execute(context.Background(), &Input{Token: "tok"})
	assert.True(t, errors.IsRetryable(err))
}

// ==========================
// Input and Config Tests
// ==========================

func TestParseInput(t *testing.T) {
	tests := []struct {
		name      string
		variables string
		wantToken string
		wantErr   bool
	}{
		{name: "valid", variables: `{"token":"abc","other":1}`, wantToken: "abc"},
		{name: "missing token", variables: `{"other":1}`, wantErr: true},
		{name: "empty token", variables: `{"token":""}`, wantErr: true},
		{name: "wrong type", variables: `{"token":42}`, wantErr: true},
		{name: "not json", variables: `{`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := ParseInput(tt.variables)
			if tt.wantErr {
				stdErr, ok := errors.AsStandard(err)
				require.True(t, ok)
				assert.Equal(t, errors.ErrCodeFormatError, stdErr.Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantToken, in.Token)
		})
	}
}

func TestNewHandlerValidation(t *testing.T) {
	_, err := NewHandler(&Config{Timeout: 0, MaxJobsActive: 1}, ServiceDependencies{Records: &fakeRecords{}}, nil)
	assert.Error(t, err)

	_, err = NewHandler(nil, ServiceDependencies{}, nil)
	assert.Error(t, err)

	h, err := NewHandler(nil, ServiceDependencies{Records: &fakeRecords{}}, nil)
	require.NoError(t, err)
	assert.True(t, h.IsEnabled())
	assert.Equal(t, 10*time.Second, h.GetConfig().Timeout)
}
