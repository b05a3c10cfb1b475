package testutil

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"scholartrack/internal/models"

	"golang.org/x/crypto/bcrypt"
)

// Fixtures holds test data
type Fixtures struct {
	DB            *sql.DB
	AdminUser     *models.User
	StaffUser     *models.User
	ApplicantUser *models.User
	Scholarship   *models.Scholarship
}

// SetupFixtures creates the baseline test data: one user per role and an
// active scholarship with two slots.
func SetupFixtures(t *testing.T, db *sql.DB) *Fixtures {
	t.Helper()

	fixtures := &Fixtures{
		DB: db,
	}

	// Roles are seeded by the migrations
	adminRole := getRole(t, db, models.RoleAdmin)
	staffRole := getRole(t, db, models.RoleOSASStaff)
	applicantRole := getRole(t, db, models.RoleApplicant)

	fixtures.AdminUser = CreateUser(t, db, "admin@test.edu", "Admin", "User", nil, []uint{adminRole.ID})
	fixtures.StaffUser = CreateUser(t, db, "staff@test.edu", "Staff", "User", nil, []uint{staffRole.ID})
	studentNo := "2023-00123"
	fixtures.ApplicantUser = CreateUser(t, db, "applicant@test.edu", "Applicant", "User", &studentNo, []uint{applicantRole.ID})

	fixtures.Scholarship = fixtures.CreateScholarship(t, 2, models.ScholarshipActive)

	return fixtures
}

// getRole reads a seeded role by name
func getRole(t *testing.T, db *sql.DB, name string) *models.Role {
	t.Helper()

	var role models.Role
	err := db.QueryRow(
		"SELECT id, name, created_at, updated_at FROM roles WHERE name = $1",
		name,
	).Scan(&role.ID, &role.Name, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		t.Fatalf("Failed to get role %s: %v", name, err)
	}

	return &role
}

// CreateUser creates a user with the specified roles
func CreateUser(t *testing.T, db *sql.DB, email, firstName, lastName string, studentNo *string, roleIDs []uint) *models.User {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	var user models.User
	err = db.QueryRow(`
		INSERT INTO users (email, password_hash, first_name, last_name, student_no)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, email, first_name, last_name, student_no, is_active, created_at, updated_at
	`, email, string(hashedPassword), firstName, lastName, studentNo).Scan(
		&user.ID, &user.Email, &user.FirstName, &user.LastName,
		&user.StudentNo, &user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("Failed to create user %s: %v", email, err)
	}

	for _, roleID := range roleIDs {
		_, err := db.Exec("INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)", user.ID, roleID)
		if err != nil {
			t.Fatalf("Failed to assign role %d to user %s: %v", roleID, email, err)
		}
	}

	return &user
}

// CreateScholarship creates a scholarship with the given free slot count
func (f *Fixtures) CreateScholarship(t *testing.T, slots int, status string) *models.Scholarship {
	t.Helper()

	deadline := time.Now().Add(30 * 24 * time.Hour)

	var scholarship models.Scholarship
	err := f.DB.QueryRow(`
		INSERT INTO scholarships (name, slots_total, slots_available, beneficiaries_count, deadline, status, academic_year)
		VALUES ($1, $2, $2, 0, $3, $4, $5)
		RETURNING id, name, slots_total, slots_available, beneficiaries_count, deadline, status, academic_year, created_at, updated_at
	`, fmt.Sprintf("Test Scholarship %d", time.Now().UnixNano()), slots, deadline, status, "2026-2027").Scan(
		&scholarship.ID, &scholarship.Name, &scholarship.SlotsTotal, &scholarship.SlotsAvailable,
		&scholarship.BeneficiariesCount, &scholarship.Deadline, &scholarship.Status,
		&scholarship.AcademicYear, &scholarship.CreatedAt, &scholarship.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("Failed to create scholarship: %v", err)
	}

	return &scholarship
}

// CreateApplication creates an application in the given lifecycle status
func (f *Fixtures) CreateApplication(t *testing.T, applicantID, scholarshipID uint, status string) *models.Application {
	t.Helper()

	var application models.Application
	err := f.DB.QueryRow(`
		INSERT INTO applications (scholarship_id, applicant_id, status, academic_year, semester)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, scholarship_id, applicant_id, status, priority, stipend_status, renewal_status,
			academic_year, semester, created_at, updated_at
	`, scholarshipID, applicantID, status, "2026-2027", fmt.Sprintf("sem-%d", time.Now().UnixNano())).Scan(
		&application.ID, &application.ScholarshipID, &application.ApplicantID, &application.Status,
		&application.Priority, &application.StipendStatus, &application.RenewalStatus,
		&application.AcademicYear, &application.Semester, &application.CreatedAt, &application.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("Failed to create application: %v", err)
	}

	return &application
}

// AttachRequiredDocuments uploads every document kind the submit gate checks
func (f *Fixtures) AttachRequiredDocuments(t *testing.T, applicationID uint) {
	t.Helper()

	for _, kind := range []string{"application_form", "grade_report", "enrollment_proof"} {
		_, err := f.DB.Exec(`
			INSERT INTO documents (application_id, kind, storage_key)
			VALUES ($1, $2, $3)
		`, applicationID, kind, fmt.Sprintf("s3://test/%d/%s.pdf", applicationID, kind))
		if err != nil {
			t.Fatalf("Failed to attach document %s: %v", kind, err)
		}
	}
}

// RecordEligibility stores the external eligibility verdict for an application
func (f *Fixtures) RecordEligibility(t *testing.T, applicationID, scholarshipID uint, eligible bool) {
	t.Helper()

	_, err := f.DB.Exec(`
		INSERT INTO eligibility_results (application_id, scholarship_id, eligible)
		VALUES ($1, $2, $3)
	`, applicationID, scholarshipID, eligible)
	if err != nil {
		t.Fatalf("Failed to record eligibility: %v", err)
	}
}

// ReadyForSubmit attaches documents and a positive eligibility verdict so the
// application passes every submit gate.
func (f *Fixtures) ReadyForSubmit(t *testing.T, application *models.Application) {
	t.Helper()

	f.AttachRequiredDocuments(t, application.ID)
	f.RecordEligibility(t, application.ID, application.ScholarshipID, true)
}
