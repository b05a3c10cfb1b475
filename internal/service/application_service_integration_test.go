package service_test

import (
	"bytes"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"scholartrack/internal/apperrors"
	"scholartrack/internal/capacity"
	"scholartrack/internal/events"
	"scholartrack/internal/locks"
	"scholartrack/internal/models"
	"scholartrack/internal/repository"
	"scholartrack/internal/securestore"
	"scholartrack/internal/service"
	"scholartrack/internal/testutil"
)

type testServices struct {
	app        *service.ApplicationService
	interviews *service.InterviewService
	dispatcher *events.Dispatcher
}

func newTestServices(t *testing.T, db *sql.DB) *testServices {
	t.Helper()

	cipher, err := securestore.NewWithStaticKey(bytes.Repeat([]byte{0x5a}, 32))
	if err != nil {
		t.Fatalf("Failed to create remark cipher: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	scholarshipRepo := repository.NewScholarshipRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	interviewRepo := repository.NewInterviewRepository(db)
	remarkRepo := repository.NewRemarkRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	eligibilityRepo := repository.NewEligibilityRepository(db)

	keyed := locks.NewKeyed()
	dispatcher := events.NewDispatcher()

	appSvc := service.NewApplicationService(
		applicationRepo,
		scholarshipRepo,
		userRepo,
		remarkRepo,
		interviewRepo,
		auditRepo,
		documentRepo,
		eligibilityRepo,
		capacity.NewLedger(db),
		cipher,
		keyed,
		dispatcher,
	)
	ivSvc := service.NewInterviewService(interviewRepo, applicationRepo, userRepo, auditRepo, keyed, dispatcher)

	return &testServices{app: appSvc, interviews: ivSvc, dispatcher: dispatcher}
}

func applicantActor(u *models.User) service.Actor {
	return service.Actor{ID: u.ID, Roles: []string{models.RoleApplicant}}
}

func staffActor(u *models.User) service.Actor {
	return service.Actor{ID: u.ID, Roles: []string{models.RoleOSASStaff}}
}

func adminActor(u *models.User) service.Actor {
	return service.Actor{ID: u.ID, Roles: []string{models.RoleAdmin}}
}

func slotsAvailable(t *testing.T, db *sql.DB, scholarshipID uint) int {
	t.Helper()
	var slots int
	if err := db.QueryRow("SELECT slots_available FROM scholarships WHERE id = $1", scholarshipID).Scan(&slots); err != nil {
		t.Fatalf("Failed to read slots_available: %v", err)
	}
	return slots
}

func TestApplicationLifecycle(t *testing.T) {
	containers := testutil.SetupPostgres(t)
	defer containers.Cleanup(t)

	fixtures := testutil.SetupFixtures(t, containers.DB)
	svcs := newTestServices(t, containers.DB)

	applicant := applicantActor(fixtures.ApplicantUser)
	staff := staffActor(fixtures.StaffUser)

	// Draft
	app, err := svcs.app.CreateDraft(applicant, fixtures.Scholarship.ID, fixtures.ApplicantUser.ID, "2026-2027", "first")
	if err != nil {
		t.Fatalf("CreateDraft failed: %v", err)
	}
	if app.Status != models.StatusDraft {
		t.Fatalf("Expected status %s, got %s", models.StatusDraft, app.Status)
	}

	// Submit
	fixtures.ReadyForSubmit(t, app)
	app, err = svcs.app.Submit(applicant, app.ID)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if app.Status != models.StatusSubmitted {
		t.Fatalf("Expected status %s, got %s", models.StatusSubmitted, app.Status)
	}
	if app.AppliedAt == nil {
		t.Fatal("Expected applied_at to be set on submission")
	}
	appliedAt := *app.AppliedAt

	// Verification
	if _, err = svcs.app.AssignReviewer(staff, app.ID, fixtures.StaffUser.ID); err != nil {
		t.Fatalf("AssignReviewer failed: %v", err)
	}
	if _, err = svcs.app.BeginVerification(staff, app.ID); err != nil {
		t.Fatalf("BeginVerification failed: %v", err)
	}
	app, err = svcs.app.Verify(staff, app.ID, "All documents check out")
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if app.Status != models.StatusVerified || app.VerifiedAt == nil {
		t.Fatalf("Expected verified with timestamp, got %s", app.Status)
	}

	// Evaluation with interview
	if _, err = svcs.app.BeginEvaluation(staff, app.ID); err != nil {
		t.Fatalf("BeginEvaluation failed: %v", err)
	}
	when := time.Now().Add(48 * time.Hour)
	if _, err = svcs.interviews.Schedule(staff, app.ID, fixtures.StaffUser.ID, when, nil, models.InterviewOnline, nil); err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}
	interview, err := svcs.interviews.Complete(staff, app.ID, map[string]float64{"academics": 90, "need": 80}, models.RecommendApproved, nil)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if interview.Status != models.InterviewCompleted {
		t.Fatalf("Expected interview completed, got %s", interview.Status)
	}

	app, err = svcs.app.GetApplication(staff, app.ID)
	if err != nil {
		t.Fatalf("GetApplication failed: %v", err)
	}
	if app.EvaluationScore == nil || *app.EvaluationScore != 85.00 {
		t.Fatalf("Expected evaluation score 85.00, got %v", app.EvaluationScore)
	}

	// Decision
	app, err = svcs.app.Decide(staff, app.ID, true, "Strong academic record")
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if app.Status != models.StatusApproved || app.ApprovedAt == nil {
		t.Fatalf("Expected approved with timestamp, got %s", app.Status)
	}
	if got := slotsAvailable(t, containers.DB, fixtures.Scholarship.ID); got != 1 {
		t.Fatalf("Expected 1 slot left after approval, got %d", got)
	}

	// applied_at never moves once set
	if app.AppliedAt == nil || !app.AppliedAt.Equal(appliedAt) {
		t.Fatalf("applied_at changed during the lifecycle: %v vs %v", app.AppliedAt, appliedAt)
	}

	// Stipend and renewal sub-states
	amount := 15000.00
	app, err = svcs.app.RecordStipend(staff, app.ID, models.StipendReleased, &amount, nil)
	if err != nil {
		t.Fatalf("RecordStipend failed: %v", err)
	}
	if app.StipendStatus != models.StipendReleased || app.StipendReleasedAt == nil {
		t.Fatalf("Expected released stipend with timestamp, got %s", app.StipendStatus)
	}
	app, err = svcs.app.SetRenewalStatus(staff, app.ID, models.RenewalEligible)
	if err != nil {
		t.Fatalf("SetRenewalStatus failed: %v", err)
	}
	if app.RenewalStatus != models.RenewalEligible {
		t.Fatalf("Expected renewal eligible, got %s", app.RenewalStatus)
	}

	svcs.dispatcher.Wait()
}

func TestSubmitGates(t *testing.T) {
	containers := testutil.SetupPostgres(t)
	defer containers.Cleanup(t)

	fixtures := testutil.SetupFixtures(t, containers.DB)
	svcs := newTestServices(t, containers.DB)
	applicant := applicantActor(fixtures.ApplicantUser)

	app, err := svcs.app.CreateDraft(applicant, fixtures.Scholarship.ID, fixtures.ApplicantUser.ID, "2026-2027", "first")
	if err != nil {
		t.Fatalf("CreateDraft failed: %v", err)
	}

	// Missing documents
	if _, err := svcs.app.Submit(applicant, app.ID); !apperrors.Is(err, apperrors.KindValidation) {
		t.Fatalf("Expected validation error for missing documents, got %v", err)
	}

	// Documents present but applicant ineligible
	fixtures.AttachRequiredDocuments(t, app.ID)
	fixtures.RecordEligibility(t, app.ID, app.ScholarshipID, false)
	if _, err := svcs.app.Submit(applicant, app.ID); !apperrors.Is(err, apperrors.KindValidation) {
		t.Fatalf("Expected validation error for failed eligibility, got %v", err)
	}

	// The application never left draft
	got, err := svcs.app.GetApplication(applicant, app.ID)
	if err != nil {
		t.Fatalf("GetApplication failed: %v", err)
	}
	if got.Status != models.StatusDraft || got.AppliedAt != nil {
		t.Fatalf("Expected untouched draft, got %s applied_at=%v", got.Status, got.AppliedAt)
	}
}

func TestMilestoneTimestampIsOneShot(t *testing.T) {
	containers := testutil.SetupPostgres(t)
	defer containers.Cleanup(t)

	fixtures := testutil.SetupFixtures(t, containers.DB)
	svcs := newTestServices(t, containers.DB)
	applicant := applicantActor(fixtures.ApplicantUser)

	app, err := svcs.app.CreateDraft(applicant, fixtures.Scholarship.ID, fixtures.ApplicantUser.ID, "2026-2027", "first")
	if err != nil {
		t.Fatalf("CreateDraft failed: %v", err)
	}
	fixtures.ReadyForSubmit(t, app)
	if _, err := svcs.app.Submit(applicant, app.ID); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	// Force the status back without clearing the milestone. The consumed
	// milestone must refuse a second submission.
	if _, err := containers.DB.Exec("UPDATE applications SET status = 'draft' WHERE id = $1", app.ID); err != nil {
		t.Fatalf("Failed to reset status: %v", err)
	}
	if _, err := svcs.app.Submit(applicant, app.ID); !apperrors.Is(err, apperrors.KindConflict) {
		t.Fatalf("Expected conflict on consumed milestone, got %v", err)
	}
}

func TestIncompleteResubmitCycle(t *testing.T) {
	containers := testutil.SetupPostgres(t)
	defer containers.Cleanup(t)

	fixtures := testutil.SetupFixtures(t, containers.DB)
	svcs := newTestServices(t, containers.DB)
	applicant := applicantActor(fixtures.ApplicantUser)
	staff := staffActor(fixtures.StaffUser)

	app, err := svcs.app.CreateDraft(applicant, fixtures.Scholarship.ID, fixtures.ApplicantUser.ID, "2026-2027", "first")
	if err != nil {
		t.Fatalf("CreateDraft failed: %v", err)
	}
	fixtures.ReadyForSubmit(t, app)
	if _, err := svcs.app.Submit(applicant, app.ID); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if _, err := svcs.app.AssignReviewer(staff, app.ID, fixtures.StaffUser.ID); err != nil {
		t.Fatalf("AssignReviewer failed: %v", err)
	}
	if _, err := svcs.app.BeginVerification(staff, app.ID); err != nil {
		t.Fatalf("BeginVerification failed: %v", err)
	}

	app, err = svcs.app.FlagIncomplete(staff, app.ID, "Grade report is from the wrong semester")
	if err != nil {
		t.Fatalf("FlagIncomplete failed: %v", err)
	}
	if app.Status != models.StatusIncomplete {
		t.Fatalf("Expected incomplete, got %s", app.Status)
	}

	// Only the applicant may resubmit
	if _, err := svcs.app.Resubmit(staff, app.ID); !apperrors.Is(err, apperrors.KindAuthorization) {
		t.Fatalf("Expected authorization error for staff resubmit, got %v", err)
	}

	app, err = svcs.app.Resubmit(applicant, app.ID)
	if err != nil {
		t.Fatalf("Resubmit failed: %v", err)
	}
	if app.Status != models.StatusSubmitted {
		t.Fatalf("Expected submitted after resubmit, got %s", app.Status)
	}
}

// evaluatedApplication creates an application directly in under_evaluation
// with a recorded score, the minimal state Decide accepts.
func evaluatedApplication(t *testing.T, fixtures *testutil.Fixtures, applicantID, scholarshipID uint) *models.Application {
	t.Helper()
	app := fixtures.CreateApplication(t, applicantID, scholarshipID, models.StatusUnderEvaluation)
	if _, err := fixtures.DB.Exec("UPDATE applications SET evaluation_score = 88.50 WHERE id = $1", app.ID); err != nil {
		t.Fatalf("Failed to set evaluation score: %v", err)
	}
	return app
}

func TestApprovalExhaustsCapacity(t *testing.T) {
	containers := testutil.SetupPostgres(t)
	defer containers.Cleanup(t)

	fixtures := testutil.SetupFixtures(t, containers.DB)
	svcs := newTestServices(t, containers.DB)
	staff := staffActor(fixtures.StaffUser)

	scholarship := fixtures.CreateScholarship(t, 1, models.ScholarshipActive)
	first := evaluatedApplication(t, fixtures, fixtures.ApplicantUser.ID, scholarship.ID)
	second := evaluatedApplication(t, fixtures, fixtures.ApplicantUser.ID, scholarship.ID)

	if _, err := svcs.app.Decide(staff, first.ID, true, ""); err != nil {
		t.Fatalf("First approval failed: %v", err)
	}

	_, err := svcs.app.Decide(staff, second.ID, true, "")
	if !apperrors.Is(err, apperrors.KindCapacityExhausted) {
		t.Fatalf("Expected capacity exhausted, got %v", err)
	}

	// The loser stays in evaluation and can still be rejected
	app, err := svcs.app.GetApplication(staff, second.ID)
	if err != nil {
		t.Fatalf("GetApplication failed: %v", err)
	}
	if app.Status != models.StatusUnderEvaluation {
		t.Fatalf("Expected under_evaluation after exhausted approval, got %s", app.Status)
	}
	if app, err = svcs.app.Decide(staff, second.ID, false, ""); err != nil {
		t.Fatalf("Rejection after exhaustion failed: %v", err)
	}
	if app.Status != models.StatusRejected {
		t.Fatalf("Expected rejected, got %s", app.Status)
	}
}

func TestDecideBlockedByPendingInterview(t *testing.T) {
	containers := testutil.SetupPostgres(t)
	defer containers.Cleanup(t)

	fixtures := testutil.SetupFixtures(t, containers.DB)
	svcs := newTestServices(t, containers.DB)
	staff := staffActor(fixtures.StaffUser)

	scholarship := fixtures.CreateScholarship(t, 1, models.ScholarshipActive)
	app := evaluatedApplication(t, fixtures, fixtures.ApplicantUser.ID, scholarship.ID)

	when := time.Now().Add(48 * time.Hour)
	if _, err := svcs.interviews.Schedule(staff, app.ID, fixtures.StaffUser.ID, when, nil, models.InterviewOnline, nil); err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}

	// A scheduled interview blocks the decision either way
	if _, err := svcs.app.Decide(staff, app.ID, true, ""); !apperrors.Is(err, apperrors.KindValidation) {
		t.Fatalf("Expected validation error for approval with pending interview, got %v", err)
	}
	if _, err := svcs.app.Decide(staff, app.ID, false, ""); !apperrors.Is(err, apperrors.KindValidation) {
		t.Fatalf("Expected validation error for rejection with pending interview, got %v", err)
	}

	got, err := svcs.app.GetApplication(staff, app.ID)
	if err != nil {
		t.Fatalf("GetApplication failed: %v", err)
	}
	if got.Status != models.StatusUnderEvaluation {
		t.Fatalf("Expected under_evaluation, got %s", got.Status)
	}
	if slots := slotsAvailable(t, containers.DB, scholarship.ID); slots != 1 {
		t.Fatalf("Expected slot untouched, got %d available", slots)
	}

	// Completing the interview clears the precondition
	if _, err := svcs.interviews.Complete(staff, app.ID, map[string]float64{"overall": 90}, models.RecommendApproved, nil); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if got, err = svcs.app.Decide(staff, app.ID, true, ""); err != nil {
		t.Fatalf("Decide after completion failed: %v", err)
	}
	if got.Status != models.StatusApproved {
		t.Fatalf("Expected approved, got %s", got.Status)
	}
}

func TestConcurrentApprovalsNeverOversell(t *testing.T) {
	containers := testutil.SetupPostgres(t)
	defer containers.Cleanup(t)

	fixtures := testutil.SetupFixtures(t, containers.DB)
	svcs := newTestServices(t, containers.DB)
	staff := staffActor(fixtures.StaffUser)

	const slots = 2
	const candidates = 6

	scholarship := fixtures.CreateScholarship(t, slots, models.ScholarshipActive)
	apps := make([]*models.Application, candidates)
	for i := range apps {
		user := testutil.CreateUser(t, containers.DB, fmt.Sprintf("candidate%d@test.edu", i), "Candidate", fmt.Sprintf("User%d", i), nil, nil)
		apps[i] = evaluatedApplication(t, fixtures, user.ID, scholarship.ID)
	}

	var wg sync.WaitGroup
	errs := make([]error, candidates)
	for i := range apps {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svcs.app.Decide(staff, apps[i].ID, true, "")
		}(i)
	}
	wg.Wait()

	approved, exhausted := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			approved++
		case apperrors.Is(err, apperrors.KindCapacityExhausted):
			exhausted++
		default:
			t.Fatalf("Unexpected approval error: %v", err)
		}
	}
	if approved != slots {
		t.Fatalf("Expected exactly %d approvals, got %d", slots, approved)
	}
	if exhausted != candidates-slots {
		t.Fatalf("Expected %d capacity errors, got %d", candidates-slots, exhausted)
	}
	if got := slotsAvailable(t, containers.DB, scholarship.ID); got != 0 {
		t.Fatalf("Expected 0 slots left, got %d", got)
	}
}

func TestRevokeReleasesSlot(t *testing.T) {
	containers := testutil.SetupPostgres(t)
	defer containers.Cleanup(t)

	fixtures := testutil.SetupFixtures(t, containers.DB)
	svcs := newTestServices(t, containers.DB)
	staff := staffActor(fixtures.StaffUser)
	admin := adminActor(fixtures.AdminUser)

	scholarship := fixtures.CreateScholarship(t, 1, models.ScholarshipActive)
	app := evaluatedApplication(t, fixtures, fixtures.ApplicantUser.ID, scholarship.ID)
	if _, err := svcs.app.Decide(staff, app.ID, true, ""); err != nil {
		t.Fatalf("Approval failed: %v", err)
	}
	if got := slotsAvailable(t, containers.DB, scholarship.ID); got != 0 {
		t.Fatalf("Expected 0 slots after approval, got %d", got)
	}

	// Revocation is admin only
	if _, err := svcs.app.Revoke(staff, app.ID, "audit finding"); !apperrors.Is(err, apperrors.KindAuthorization) {
		t.Fatalf("Expected authorization error for staff revoke, got %v", err)
	}

	revoked, err := svcs.app.Revoke(admin, app.ID, "Enrollment lapsed mid-semester")
	if err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	if revoked.Status != models.StatusRejected {
		t.Fatalf("Expected rejected after revoke, got %s", revoked.Status)
	}
	if got := slotsAvailable(t, containers.DB, scholarship.ID); got != 1 {
		t.Fatalf("Expected slot released after revoke, got %d available", got)
	}
}

func TestRemarkTrail(t *testing.T) {
	containers := testutil.SetupPostgres(t)
	defer containers.Cleanup(t)

	fixtures := testutil.SetupFixtures(t, containers.DB)
	svcs := newTestServices(t, containers.DB)
	applicant := applicantActor(fixtures.ApplicantUser)
	staff := staffActor(fixtures.StaffUser)

	app := fixtures.CreateApplication(t, fixtures.ApplicantUser.ID, fixtures.Scholarship.ID, models.StatusUnderVerification)
	if _, err := containers.DB.Exec("UPDATE applications SET reviewer_id = $1 WHERE id = $2", fixtures.StaffUser.ID, app.ID); err != nil {
		t.Fatalf("Failed to assign reviewer: %v", err)
	}

	if _, err := svcs.app.Verify(staff, app.ID, "Transcript matches registrar records"); err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if _, err := svcs.app.BeginEvaluation(staff, app.ID); err != nil {
		t.Fatalf("BeginEvaluation failed: %v", err)
	}
	if _, err := containers.DB.Exec("UPDATE applications SET evaluation_score = 91.00 WHERE id = $1", app.ID); err != nil {
		t.Fatalf("Failed to set evaluation score: %v", err)
	}
	if _, err := svcs.app.Decide(staff, app.ID, true, "Committee vote 5-0"); err != nil {
		t.Fatalf("Decide failed: %v", err)
	}

	// Applicants never see the trail
	if _, err := svcs.app.GetRemarks(applicant, app.ID); !apperrors.Is(err, apperrors.KindAuthorization) {
		t.Fatalf("Expected authorization error for applicant, got %v", err)
	}

	remarks, err := svcs.app.GetRemarks(staff, app.ID)
	if err != nil {
		t.Fatalf("GetRemarks failed: %v", err)
	}
	if len(remarks) != 2 {
		t.Fatalf("Expected 2 remarks, got %d", len(remarks))
	}
	if remarks[0].Kind != models.RemarkVerifierComment || remarks[0].Remark != "Transcript matches registrar records" {
		t.Fatalf("Unexpected first remark: %s %q", remarks[0].Kind, remarks[0].Remark)
	}
	if remarks[1].Kind != models.RemarkCommitteeRecommendation || remarks[1].Remark != "Committee vote 5-0" {
		t.Fatalf("Unexpected second remark: %s %q", remarks[1].Kind, remarks[1].Remark)
	}

	// Tampering with a stored ciphertext breaks the chain check
	if _, err := containers.DB.Exec("UPDATE application_remarks SET ciphertext = ciphertext || '\\x00'::bytea WHERE id = $1", remarks[0].ID); err != nil {
		t.Fatalf("Failed to tamper with remark: %v", err)
	}
	if _, err := svcs.app.GetRemarks(staff, app.ID); err == nil {
		t.Fatal("Expected integrity failure after tampering, got nil")
	}
}
