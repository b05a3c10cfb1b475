package repository

import (
	"database/sql"
	"time"

	"scholartrack/internal/models"
)

// ScholarshipRepository handles database operations for scholarships
type ScholarshipRepository struct {
	db *sql.DB
}

// NewScholarshipRepository creates a new scholarship repository
func NewScholarshipRepository(db *sql.DB) *ScholarshipRepository {
	return &ScholarshipRepository{db: db}
}

const scholarshipColumns = `
	id, name, description, slots_total, slots_available, beneficiaries_count,
	deadline, status, eligibility_criteria, academic_year, created_at, updated_at
`

func scanScholarship(row interface{ Scan(...interface{}) error }) (*models.Scholarship, error) {
	var s models.Scholarship
	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.Description,
		&s.SlotsTotal,
		&s.SlotsAvailable,
		&s.BeneficiariesCount,
		&s.Deadline,
		&s.Status,
		&s.EligibilityCriteria,
		&s.AcademicYear,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create creates a new scholarship with all slots available
func (r *ScholarshipRepository) Create(s *models.Scholarship) error {
	query := `
		INSERT INTO scholarships
			(name, description, slots_total, slots_available, beneficiaries_count,
			 deadline, status, eligibility_criteria, academic_year)
		VALUES ($1, $2, $3, $3, 0, $4, $5, $6, $7)
		RETURNING id, slots_available, beneficiaries_count, created_at, updated_at
	`
	return r.db.QueryRow(
		query,
		s.Name,
		s.Description,
		s.SlotsTotal,
		s.Deadline,
		s.Status,
		s.EligibilityCriteria,
		s.AcademicYear,
	).Scan(&s.ID, &s.SlotsAvailable, &s.BeneficiariesCount, &s.CreatedAt, &s.UpdatedAt)
}

// GetByID retrieves a scholarship by ID
func (r *ScholarshipRepository) GetByID(id uint) (*models.Scholarship, error) {
	query := `SELECT ` + scholarshipColumns + ` FROM scholarships WHERE id = $1`
	s, err := scanScholarship(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetByStatus retrieves all scholarships with the given status
func (r *ScholarshipRepository) GetByStatus(status string) ([]models.Scholarship, error) {
	query := `SELECT ` + scholarshipColumns + ` FROM scholarships WHERE status = $1 ORDER BY deadline ASC`
	rows, err := r.db.Query(query, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scholarships []models.Scholarship
	for rows.Next() {
		s, err := scanScholarship(rows)
		if err != nil {
			return nil, err
		}
		scholarships = append(scholarships, *s)
	}
	return scholarships, rows.Err()
}

// GetAll retrieves all scholarships
func (r *ScholarshipRepository) GetAll() ([]models.Scholarship, error) {
	query := `SELECT ` + scholarshipColumns + ` FROM scholarships ORDER BY created_at DESC`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scholarships []models.Scholarship
	for rows.Next() {
		s, err := scanScholarship(rows)
		if err != nil {
			return nil, err
		}
		scholarships = append(scholarships, *s)
	}
	return scholarships, rows.Err()
}

// UpdateStatus moves a scholarship to a new status when it is still in the
// expected one. Returns the number of rows changed.
func (r *ScholarshipRepository) UpdateStatus(id uint, fromStatus, toStatus string) (int64, error) {
	query := `
		UPDATE scholarships
		SET status = $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND status = $2
	`
	res, err := r.db.Exec(query, id, fromStatus, toStatus)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeactivateExpired marks active scholarships past their deadline inactive
// and returns how many were swept.
func (r *ScholarshipRepository) DeactivateExpired(now time.Time) (int64, error) {
	query := `
		UPDATE scholarships
		SET status = 'inactive', updated_at = CURRENT_TIMESTAMP
		WHERE status = 'active' AND deadline < $1
	`
	res, err := r.db.Exec(query, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
