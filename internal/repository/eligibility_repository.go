package repository

import (
	"database/sql"

	"scholartrack/internal/models"
)

// EligibilityRepository handles database operations for externally produced
// eligibility verdicts.
type EligibilityRepository struct {
	db *sql.DB
}

// NewEligibilityRepository creates a new eligibility repository
func NewEligibilityRepository(db *sql.DB) *EligibilityRepository {
	return &EligibilityRepository{db: db}
}

// Record stores or replaces the verdict for an application
func (r *EligibilityRepository) Record(result *models.EligibilityResult) error {
	query := `
		INSERT INTO eligibility_results (application_id, scholarship_id, eligible)
		VALUES ($1, $2, $3)
		ON CONFLICT (application_id, scholarship_id)
		DO UPDATE SET eligible = $3, evaluated_at = CURRENT_TIMESTAMP
		RETURNING id, evaluated_at
	`
	return r.db.QueryRow(query, result.ApplicationID, result.ScholarshipID, result.Eligible).
		Scan(&result.ID, &result.EvaluatedAt)
}

// MeetsEligibility returns the recorded verdict for an application against a
// scholarship. A missing verdict counts as not eligible.
func (r *EligibilityRepository) MeetsEligibility(applicationID, scholarshipID uint) (bool, error) {
	var eligible bool
	query := `
		SELECT eligible FROM eligibility_results
		WHERE application_id = $1 AND scholarship_id = $2
	`
	err := r.db.QueryRow(query, applicationID, scholarshipID).Scan(&eligible)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return eligible, nil
}
