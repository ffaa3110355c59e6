// Package repository persists applicant records, audit events and draft
// snapshots for the back-office workers.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"visa-locker/internal/common/database"
	"visa-locker/internal/common/errors"
	"visa-locker/internal/common/logger"
	"visa-locker/internal/locker"
	"visa-locker/internal/models"

	"github.com/google/uuid"
)

const (
	EventRecordLocked    = "record_locked"
	EventReadinessScored = "readiness_scored"
	EventSummaryIndexed  = "summary_indexed"
	EventNotified        = "submission_notified"
)

// StoredRecord is one row of applicant_records.
type StoredRecord struct {
	Token       string
	Record      models.ApplicantRecord
	Percentage  int
	Locked      bool
	SubmittedAt *time.Time
	UpdatedAt   time.Time
}

// RecordRepository reads and writes applicant_records and audit_log.
type RecordRepository struct {
	pg     *database.PostgresClient
	logger logger.Logger
	now    func() time.Time
}

func NewRecordRepository(pg *database.PostgresClient, log logger.Logger) *RecordRepository {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &RecordRepository{
		pg:     pg,
		logger: logger.Component(log, "record-repository"),
		now:    time.Now,
	}
}

var _ locker.SubmissionHook = (*RecordRepository)(nil)

func (r *RecordRepository) Load(ctx context.Context, token string) (*StoredRecord, error) {
	var (
		personalJSON, questionsJSON, travelersJSON []byte
		submittedAt                                sql.NullTime
	)
	rec := &StoredRecord{Token: token}
	err := r.pg.DB.QueryRowContext(ctx, `
		SELECT personal, questions, co_travelers, percentage, locked, submitted_at, updated_at
		FROM applicant_records
		WHERE token = $1`, token).
		Scan(&personalJSON, &questionsJSON, &travelersJSON, &rec.Percentage, &rec.Locked, &submittedAt, &rec.UpdatedAt)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewRecordNotFoundError(token)
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("load_record", err)
	}

	if err := unmarshalColumn(personalJSON, &rec.Record.Personal); err != nil {
		return nil, errors.NewQueryExecutionFailedError("decode_personal", err)
	}
	if err := unmarshalColumn(questionsJSON, &rec.Record.Questions); err != nil {
		return nil, errors.NewQueryExecutionFailedError("decode_questions", err)
	}
	if err := unmarshalColumn(travelersJSON, &rec.Record.CoTravelers); err != nil {
		return nil, errors.NewQueryExecutionFailedError("decode_co_travelers", err)
	}
	if submittedAt.Valid {
		t := submittedAt.Time
		rec.SubmittedAt = &t
	}
	return rec, nil
}

func unmarshalColumn(raw []byte, out interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}

// OnSubmitted stores the locked snapshot and its audit event in one
// transaction.
func (r *RecordRepository) OnSubmitted(ctx context.Context, sub locker.Submission) error {
	personalJSON, err := json.Marshal(sub.Snapshot.Personal)
	if err != nil {
		return fmt.Errorf("marshal personal: %w", err)
	}
	questionsJSON, err := json.Marshal(sub.Snapshot.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}

	err = r.pg.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO applicant_records (token, personal, questions, percentage, locked, submitted_at, updated_at)
			VALUES ($1, $2, $3, $4, TRUE, $5, $5)
			ON CONFLICT (token) DO UPDATE SET
				personal = EXCLUDED.personal,
				questions = EXCLUDED.questions,
				percentage = EXCLUDED.percentage,
				locked = TRUE,
				submitted_at = EXCLUDED.submitted_at,
				updated_at = EXCLUDED.updated_at`,
			sub.Token, personalJSON, questionsJSON, sub.Percentage, sub.SubmittedAt,
		); err != nil {
			return err
		}
		return r.insertAudit(ctx, tx, EventRecordLocked, sub.Token, map[string]interface{}{
			"country":  sub.Country,
			"visaType": sub.VisaType,
			"center":   sub.Center,
		})
	})
	if err != nil {
		return errors.NewQueryExecutionFailedError("save_submission", err)
	}

	r.logger.Info("submission stored", map[string]interface{}{"country": sub.Country})
	return nil
}

// UpdateReadiness records the assessed percentage of a record.
func (r *RecordRepository) UpdateReadiness(ctx context.Context, token string, pct int, missing []string) error {
	err := r.pg.InTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE applicant_records SET percentage = $2, updated_at = $3
			WHERE token = $1`, token, pct, r.now().UTC())
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return errors.NewRecordNotFoundError(token)
		}
		return r.insertAudit(ctx, tx, EventReadinessScored, token, map[string]interface{}{
			"percentage": pct,
			"missing":    missing,
		})
	})
	if _, ok := errors.AsStandard(err); ok {
		return err
	}
	if err != nil {
		return errors.NewQueryExecutionFailedError("update_readiness", err)
	}
	return nil
}

// Audit writes a standalone audit event.
func (r *RecordRepository) Audit(ctx context.Context, event, token string, details map[string]interface{}) error {
	detailsJSON := marshalDetails(r.logger, details)
	_, err := r.pg.DB.ExecContext(ctx, `
		INSERT INTO audit_log (id, event_type, resource_type, resource_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.New().String(), event, "applicant_record", token, detailsJSON, r.now().UTC(),
	)
	if err != nil {
		r.logger.Warn("audit log insert failed", map[string]interface{}{"event": event, "error": err})
		return errors.NewQueryExecutionFailedError("audit", err)
	}
	return nil
}

func (r *RecordRepository) insertAudit(ctx context.Context, tx *sql.Tx, event, token string, details map[string]interface{}) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO audit_log (id, event_type, resource_type, resource_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.New().String(), event, "applicant_record", token, marshalDetails(r.logger, details), r.now().UTC(),
	)
	return err
}

func marshalDetails(log logger.Logger, details map[string]interface{}) []byte {
	b, err := json.Marshal(details)
	if err != nil {
		log.Warn("failed to marshal audit details", map[string]interface{}{"error": err})
		return []byte("{}")
	}
	return b
}
