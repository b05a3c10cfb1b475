package models

import (
	"time"
)

// Scholarship statuses
const (
	ScholarshipDraft    = "draft"
	ScholarshipUpcoming = "upcoming"
	ScholarshipActive   = "active"
	ScholarshipInactive = "inactive"
)

// Application statuses
const (
	StatusDraft             = "draft"
	StatusSubmitted         = "submitted"
	StatusUnderVerification = "under_verification"
	StatusVerified          = "verified"
	StatusUnderEvaluation   = "under_evaluation"
	StatusApproved          = "approved"
	StatusRejected          = "rejected"
	StatusIncomplete        = "incomplete"
)

// Application priorities
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Stipend sub-states
const (
	StipendNone       = "none"
	StipendPending    = "pending"
	StipendProcessing = "processing"
	StipendReleased   = "released"
)

// Renewal sub-states
const (
	RenewalNone       = "none"
	RenewalEligible   = "eligible"
	RenewalIneligible = "ineligible"
	RenewalPending    = "pending"
)

// Interview statuses
const (
	InterviewScheduled   = "scheduled"
	InterviewRescheduled = "rescheduled"
	InterviewCompleted   = "completed"
	InterviewCancelled   = "cancelled"
)

// Interview types
const (
	InterviewInPerson = "in_person"
	InterviewOnline   = "online"
	InterviewPhone    = "phone"
)

// Interview recommendations
const (
	RecommendApproved = "approved"
	RecommendRejected = "rejected"
	RecommendPending  = "pending"
)

// Role names
const (
	RoleApplicant = "applicant"
	RoleOSASStaff = "osas_staff"
	RoleAdmin     = "admin"
)

// Remark kinds for the append-only application remark trail
const (
	RemarkVerifierComment         = "verifier_comment"
	RemarkCommitteeRecommendation = "committee_recommendation"
	RemarkAdminRemark             = "admin_remark"
)

// Scholarship represents a funded scholarship program.
// Invariant: 0 <= slots_available <= slots_total and
// beneficiaries_count = slots_total - slots_available, maintained by the
// capacity ledger and backed by a database CHECK constraint.
type Scholarship struct {
	ID                  uint      `json:"id" db:"id"`
	Name                string    `json:"name" db:"name"`
	Description         *string   `json:"description,omitempty" db:"description"`
	SlotsTotal          int       `json:"slots_total" db:"slots_total"`
	SlotsAvailable      int       `json:"slots_available" db:"slots_available"`
	BeneficiariesCount  int       `json:"beneficiaries_count" db:"beneficiaries_count"`
	Deadline            time.Time `json:"deadline" db:"deadline"`
	Status              string    `json:"status" db:"status"`
	EligibilityCriteria string    `json:"eligibility_criteria,omitempty" db:"eligibility_criteria"`
	AcademicYear        string    `json:"academic_year" db:"academic_year"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time `json:"updated_at" db:"updated_at"`
}

// Application represents a student's scholarship application.
// Milestone timestamps are set exactly once; re-firing a consumed milestone
// fails with a conflict instead of overwriting it.
type Application struct {
	ID                uint       `json:"id" db:"id"`
	ScholarshipID     uint       `json:"scholarship_id" db:"scholarship_id"`
	ApplicantID       uint       `json:"applicant_id" db:"applicant_id"`
	Status            string     `json:"status" db:"status"`
	Priority          string     `json:"priority" db:"priority"`
	ReviewerID        *uint      `json:"reviewer_id,omitempty" db:"reviewer_id"`
	AppliedAt         *time.Time `json:"applied_at,omitempty" db:"applied_at"`
	VerifiedAt        *time.Time `json:"verified_at,omitempty" db:"verified_at"`
	ApprovedAt        *time.Time `json:"approved_at,omitempty" db:"approved_at"`
	RejectedAt        *time.Time `json:"rejected_at,omitempty" db:"rejected_at"`
	EvaluationScore   *float64   `json:"evaluation_score,omitempty" db:"evaluation_score"`
	StipendStatus     string     `json:"stipend_status" db:"stipend_status"`
	StipendAmount     *float64   `json:"stipend_amount,omitempty" db:"stipend_amount"`
	StipendReleasedAt *time.Time `json:"stipend_released_at,omitempty" db:"stipend_released_at"`
	RenewalStatus     string     `json:"renewal_status" db:"renewal_status"`
	AcademicYear      string     `json:"academic_year" db:"academic_year"`
	Semester          string     `json:"semester" db:"semester"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`

	// Owned interview, loaded separately
	Interview *Interview `json:"interview,omitempty" db:"-"`
}

// ApplicationWithDetails includes applicant and scholarship information
type ApplicationWithDetails struct {
	Application
	ApplicantName   string `json:"applicant_name,omitempty"`
	ApplicantEmail  string `json:"applicant_email,omitempty"`
	ScholarshipName string `json:"scholarship_name,omitempty"`
}

// Interview represents the interview owned by an application
type Interview struct {
	ID               uint               `json:"id" db:"id"`
	ApplicationID    uint               `json:"application_id" db:"application_id"`
	InterviewerID    uint               `json:"interviewer_id" db:"interviewer_id"`
	ScheduledAt      time.Time          `json:"scheduled_at" db:"scheduled_at"`
	Location         *string            `json:"location,omitempty" db:"location"`
	Type             string             `json:"interview_type" db:"interview_type"`
	Status           string             `json:"status" db:"status"`
	RescheduleReason *string            `json:"reschedule_reason,omitempty" db:"reschedule_reason"`
	Scores           map[string]float64 `json:"scores,omitempty" db:"scores"`
	Recommendation   string             `json:"recommendation" db:"recommendation"`
	Notes            *string            `json:"notes,omitempty" db:"notes"`
	CompletedAt      *time.Time         `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt        time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at" db:"updated_at"`
}

// ApplicationRemark is one entry in the append-only remark trail of an
// application. The remark text is encrypted at rest; ChainHash links each
// entry to its predecessor for the same application.
type ApplicationRemark struct {
	ID            uint      `json:"id" db:"id"`
	ApplicationID uint      `json:"application_id" db:"application_id"`
	AuthorID      uint      `json:"author_id" db:"author_id"`
	Kind          string    `json:"kind" db:"kind"`
	Remark        string    `json:"remark" db:"-"` // decrypted, never stored in plain
	Ciphertext    []byte    `json:"-" db:"ciphertext"`
	Nonce         []byte    `json:"-" db:"nonce"`
	KeyVersion    int       `json:"key_version" db:"key_version"`
	PrevChainHash string    `json:"prev_chain_hash" db:"prev_chain_hash"`
	ChainHash     string    `json:"chain_hash" db:"chain_hash"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// User represents a portal user (applicant, staff, or admin)
type User struct {
	ID           uint      `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name" db:"last_name"`
	StudentNo    *string   `json:"student_no,omitempty" db:"student_no"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Role represents a user role
type Role struct {
	ID        uint      `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// UserRole represents the many-to-many relationship between users and roles
type UserRole struct {
	UserID    uint      `json:"user_id" db:"user_id"`
	RoleID    uint      `json:"role_id" db:"role_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// UserWithRoles extends User with roles information
type UserWithRoles struct {
	User
	Roles []Role `json:"roles"`
}

// AuditLog represents an audit log entry
type AuditLog struct {
	ID        uint      `json:"id" db:"id"`
	UserID    *uint     `json:"user_id,omitempty" db:"user_id"`
	Action    string    `json:"action" db:"action"`
	Resource  string    `json:"resource" db:"resource"`
	Details   string    `json:"details,omitempty" db:"details"`
	IPAddress string    `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent string    `json:"user_agent,omitempty" db:"user_agent"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Document represents an opaque attachment row. The portal's upload surface
// writes these; the engine only checks that every required kind is present.
type Document struct {
	ID            uint      `json:"id" db:"id"`
	ApplicationID uint      `json:"application_id" db:"application_id"`
	Kind          string    `json:"kind" db:"kind"`
	StorageKey    string    `json:"storage_key" db:"storage_key"`
	UploadedAt    time.Time `json:"uploaded_at" db:"uploaded_at"`
}

// EligibilityResult records the verdict of the external eligibility
// evaluation for an applicant against a scholarship's criteria.
type EligibilityResult struct {
	ID            uint      `json:"id" db:"id"`
	ApplicationID uint      `json:"application_id" db:"application_id"`
	ScholarshipID uint      `json:"scholarship_id" db:"scholarship_id"`
	Eligible      bool      `json:"eligible" db:"eligible"`
	EvaluatedAt   time.Time `json:"evaluated_at" db:"evaluated_at"`
}
