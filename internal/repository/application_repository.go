package repository

import (
	"database/sql"
	"time"

	"scholartrack/internal/models"
)

// ApplicationRepository handles database operations for applications
type ApplicationRepository struct {
	db *sql.DB
}

// NewApplicationRepository creates a new application repository
func NewApplicationRepository(db *sql.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

const applicationColumns = `
	id, scholarship_id, applicant_id, status, priority, reviewer_id,
	applied_at, verified_at, approved_at, rejected_at, evaluation_score,
	stipend_status, stipend_amount, stipend_released_at, renewal_status,
	academic_year, semester, created_at, updated_at
`

func scanApplication(row interface{ Scan(...interface{}) error }) (*models.Application, error) {
	var a models.Application
	err := row.Scan(
		&a.ID,
		&a.ScholarshipID,
		&a.ApplicantID,
		&a.Status,
		&a.Priority,
		&a.ReviewerID,
		&a.AppliedAt,
		&a.VerifiedAt,
		&a.ApprovedAt,
		&a.RejectedAt,
		&a.EvaluationScore,
		&a.StipendStatus,
		&a.StipendAmount,
		&a.StipendReleasedAt,
		&a.RenewalStatus,
		&a.AcademicYear,
		&a.Semester,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create creates a new application in draft status
func (r *ApplicationRepository) Create(a *models.Application) error {
	query := `
		INSERT INTO applications
			(scholarship_id, applicant_id, status, priority, academic_year, semester)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, stipend_status, renewal_status, created_at, updated_at
	`
	return r.db.QueryRow(
		query,
		a.ScholarshipID,
		a.ApplicantID,
		a.Status,
		a.Priority,
		a.AcademicYear,
		a.Semester,
	).Scan(&a.ID, &a.StipendStatus, &a.RenewalStatus, &a.CreatedAt, &a.UpdatedAt)
}

// GetByID retrieves an application by ID
func (r *ApplicationRepository) GetByID(id uint) (*models.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1`
	a, err := scanApplication(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetByApplicantID retrieves all applications of an applicant
func (r *ApplicationRepository) GetByApplicantID(applicantID uint) ([]models.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE applicant_id = $1 ORDER BY created_at DESC`
	return r.queryApplications(query, applicantID)
}

// GetByStatus retrieves all applications with the given status
func (r *ApplicationRepository) GetByStatus(status string) ([]models.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE status = $1 ORDER BY created_at ASC`
	return r.queryApplications(query, status)
}

// GetByScholarshipID retrieves all applications targeting a scholarship,
// with applicant details for the staff queue.
func (r *ApplicationRepository) GetByScholarshipID(scholarshipID uint) ([]models.ApplicationWithDetails, error) {
	query := `
		SELECT
			a.id, a.scholarship_id, a.applicant_id, a.status, a.priority, a.reviewer_id,
			a.applied_at, a.verified_at, a.approved_at, a.rejected_at, a.evaluation_score,
			a.stipend_status, a.stipend_amount, a.stipend_released_at, a.renewal_status,
			a.academic_year, a.semester, a.created_at, a.updated_at,
			CONCAT(u.first_name, ' ', u.last_name) AS applicant_name,
			u.email AS applicant_email,
			s.name AS scholarship_name
		FROM applications a
		INNER JOIN users u ON a.applicant_id = u.id
		INNER JOIN scholarships s ON a.scholarship_id = s.id
		WHERE a.scholarship_id = $1
		ORDER BY a.created_at ASC
	`
	rows, err := r.db.Query(query, scholarshipID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var applications []models.ApplicationWithDetails
	for rows.Next() {
		var a models.ApplicationWithDetails
		err := rows.Scan(
			&a.ID, &a.ScholarshipID, &a.ApplicantID, &a.Status, &a.Priority, &a.ReviewerID,
			&a.AppliedAt, &a.VerifiedAt, &a.ApprovedAt, &a.RejectedAt, &a.EvaluationScore,
			&a.StipendStatus, &a.StipendAmount, &a.StipendReleasedAt, &a.RenewalStatus,
			&a.AcademicYear, &a.Semester, &a.CreatedAt, &a.UpdatedAt,
			&a.ApplicantName, &a.ApplicantEmail, &a.ScholarshipName,
		)
		if err != nil {
			return nil, err
		}
		applications = append(applications, a)
	}
	return applications, rows.Err()
}

// MarkSubmitted moves a draft application to submitted, consuming the
// applied_at milestone. Zero rows means the state changed or the milestone
// was already consumed.
func (r *ApplicationRepository) MarkSubmitted(id uint, now time.Time) (int64, error) {
	query := `
		UPDATE applications
		SET status = 'submitted', applied_at = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND status = 'draft' AND applied_at IS NULL
	`
	return r.execRows(query, id, now)
}

// MarkResubmitted moves an incomplete application back to submitted without
// touching the applied_at milestone.
func (r *ApplicationRepository) MarkResubmitted(id uint) (int64, error) {
	query := `
		UPDATE applications
		SET status = 'submitted', updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND status = 'incomplete'
	`
	return r.execRows(query, id)
}

// AssignReviewer assigns a staff reviewer to a submitted application
func (r *ApplicationRepository) AssignReviewer(id, reviewerID uint) (int64, error) {
	query := `
		UPDATE applications
		SET reviewer_id = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND status = 'submitted'
	`
	return r.execRows(query, id, reviewerID)
}

// MarkUnderVerification moves a submitted application with an assigned
// reviewer into verification.
func (r *ApplicationRepository) MarkUnderVerification(id uint) (int64, error) {
	query := `
		UPDATE applications
		SET status = 'under_verification', updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND status = 'submitted' AND reviewer_id IS NOT NULL
	`
	return r.execRows(query, id)
}

// MarkVerified moves an application under verification to verified,
// consuming the verified_at milestone.
func (r *ApplicationRepository) MarkVerified(id uint, now time.Time) (int64, error) {
	query := `
		UPDATE applications
		SET status = 'verified', verified_at = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND status = 'under_verification' AND verified_at IS NULL
	`
	return r.execRows(query, id, now)
}

// MarkIncomplete flags an application under verification as incomplete
func (r *ApplicationRepository) MarkIncomplete(id uint) (int64, error) {
	query := `
		UPDATE applications
		SET status = 'incomplete', updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND status = 'under_verification'
	`
	return r.execRows(query, id)
}

// MarkUnderEvaluation moves a verified application into evaluation
func (r *ApplicationRepository) MarkUnderEvaluation(id uint) (int64, error) {
	query := `
		UPDATE applications
		SET status = 'under_evaluation', updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND status = 'verified'
	`
	return r.execRows(query, id)
}

// MarkApproved moves an application under evaluation to approved, consuming
// the approved_at milestone and switching the stipend sub-state to pending.
func (r *ApplicationRepository) MarkApproved(id uint, now time.Time) (int64, error) {
	query := `
		UPDATE applications
		SET status = 'approved', approved_at = $2, stipend_status = 'pending', updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND status = 'under_evaluation' AND approved_at IS NULL
	`
	return r.execRows(query, id, now)
}

// MarkRejected moves an application under evaluation to rejected, consuming
// the rejected_at milestone.
func (r *ApplicationRepository) MarkRejected(id uint, now time.Time) (int64, error) {
	query := `
		UPDATE applications
		SET status = 'rejected', rejected_at = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND status = 'under_evaluation' AND rejected_at IS NULL
	`
	return r.execRows(query, id, now)
}

// MarkRevoked reverses an approval into rejected. The approved_at milestone
// is preserved as part of the audit trail.
func (r *ApplicationRepository) MarkRevoked(id uint, now time.Time) (int64, error) {
	query := `
		UPDATE applications
		SET status = 'rejected', rejected_at = COALESCE(rejected_at, $2),
		    stipend_status = 'none', updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND status = 'approved'
	`
	return r.execRows(query, id, now)
}

// SetEvaluationScore stores the evaluation score computed from a completed
// interview.
func (r *ApplicationRepository) SetEvaluationScore(id uint, score float64) (int64, error) {
	query := `
		UPDATE applications
		SET evaluation_score = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND status = 'under_evaluation'
	`
	return r.execRows(query, id, score)
}

// UpdateStipend updates the stipend sub-state of an approved application
func (r *ApplicationRepository) UpdateStipend(id uint, status string, amount *float64, releasedAt *time.Time) (int64, error) {
	query := `
		UPDATE applications
		SET stipend_status = $2,
		    stipend_amount = COALESCE($3, stipend_amount),
		    stipend_released_at = COALESCE($4, stipend_released_at),
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND status = 'approved'
	`
	return r.execRows(query, id, status, amount, releasedAt)
}

// UpdateRenewal updates the renewal sub-state of an approved application
func (r *ApplicationRepository) UpdateRenewal(id uint, status string) (int64, error) {
	query := `
		UPDATE applications
		SET renewal_status = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND status = 'approved'
	`
	return r.execRows(query, id, status)
}

// GetDraftsOlderThan retrieves draft applications untouched since the cutoff,
// used for reminder emails.
func (r *ApplicationRepository) GetDraftsOlderThan(cutoff time.Time) ([]models.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE status = 'draft' AND updated_at < $1`
	return r.queryApplications(query, cutoff)
}

func (r *ApplicationRepository) queryApplications(query string, args ...interface{}) ([]models.Application, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var applications []models.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		applications = append(applications, *a)
	}
	return applications, rows.Err()
}

func (r *ApplicationRepository) execRows(query string, args ...interface{}) (int64, error) {
	res, err := r.db.Exec(query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
