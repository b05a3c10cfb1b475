package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"scholartrack/internal/models"
)

// InterviewRepository handles database operations for interviews
type InterviewRepository struct {
	db *sql.DB
}

// NewInterviewRepository creates a new interview repository
func NewInterviewRepository(db *sql.DB) *InterviewRepository {
	return &InterviewRepository{db: db}
}

// Create creates the interview owned by an application. The unique
// constraint on application_id enforces at most one interview per
// application.
func (r *InterviewRepository) Create(iv *models.Interview) error {
	query := `
		INSERT INTO interviews
			(application_id, interviewer_id, scheduled_at, location, interview_type, status, recommendation, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRow(
		query,
		iv.ApplicationID,
		iv.InterviewerID,
		iv.ScheduledAt,
		iv.Location,
		iv.Type,
		iv.Status,
		iv.Recommendation,
		iv.Notes,
	).Scan(&iv.ID, &iv.CreatedAt, &iv.UpdatedAt)
}

// GetByApplicationID retrieves the interview of an application
func (r *InterviewRepository) GetByApplicationID(applicationID uint) (*models.Interview, error) {
	var iv models.Interview
	var scores []byte
	query := `
		SELECT id, application_id, interviewer_id, scheduled_at, location, interview_type,
		       status, reschedule_reason, scores, recommendation, notes, completed_at,
		       created_at, updated_at
		FROM interviews
		WHERE application_id = $1
	`
	err := r.db.QueryRow(query, applicationID).Scan(
		&iv.ID,
		&iv.ApplicationID,
		&iv.InterviewerID,
		&iv.ScheduledAt,
		&iv.Location,
		&iv.Type,
		&iv.Status,
		&iv.RescheduleReason,
		&scores,
		&iv.Recommendation,
		&iv.Notes,
		&iv.CompletedAt,
		&iv.CreatedAt,
		&iv.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if scores != nil {
		if err := json.Unmarshal(scores, &iv.Scores); err != nil {
			return nil, fmt.Errorf("failed to decode interview scores: %w", err)
		}
	}
	return &iv, nil
}

// Reschedule swaps the interview to the new slot in one statement, so no
// intermediate rescheduled state is ever observable.
func (r *InterviewRepository) Reschedule(id uint, reason string, newWhen time.Time, newLocation *string) (int64, error) {
	query := `
		UPDATE interviews
		SET scheduled_at = $2,
		    location = COALESCE($3, location),
		    reschedule_reason = $4,
		    status = 'scheduled',
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND status = 'scheduled'
	`
	return r.execRows(query, id, newWhen, newLocation, reason)
}

// FlagReschedule records an applicant's reschedule request. Only the reason
// changes; the slot and status stay untouched until staff confirm a new time.
func (r *InterviewRepository) FlagReschedule(id uint, reason string) (int64, error) {
	query := `
		UPDATE interviews
		SET reschedule_reason = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND status = 'scheduled'
	`
	return r.execRows(query, id, reason)
}

// Complete marks a scheduled interview completed with its criterion scores.
// Zero rows means the interview was already completed or cancelled.
func (r *InterviewRepository) Complete(id uint, scores map[string]float64, recommendation string, notes *string, now time.Time) (int64, error) {
	encoded, err := json.Marshal(scores)
	if err != nil {
		return 0, fmt.Errorf("failed to encode interview scores: %w", err)
	}
	query := `
		UPDATE interviews
		SET status = 'completed', scores = $2, recommendation = $3,
		    notes = COALESCE($4, notes), completed_at = $5, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND status = 'scheduled' AND completed_at IS NULL
	`
	return r.execRows(query, id, encoded, recommendation, notes, now)
}

// CancelPending voids a not-yet-completed interview when its application
// leaves the evaluation phase.
func (r *InterviewRepository) CancelPending(applicationID uint) (int64, error) {
	query := `
		UPDATE interviews
		SET status = 'cancelled', updated_at = CURRENT_TIMESTAMP
		WHERE application_id = $1 AND status IN ('scheduled', 'rescheduled')
	`
	return r.execRows(query, applicationID)
}

func (r *InterviewRepository) execRows(query string, args ...interface{}) (int64, error) {
	res, err := r.db.Exec(query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
