package service_test

import (
	"testing"
	"time"

	"scholartrack/internal/apperrors"
	"scholartrack/internal/models"
	"scholartrack/internal/testutil"
)

func TestInterviewWorkflow(t *testing.T) {
	containers := testutil.SetupPostgres(t)
	defer containers.Cleanup(t)

	fixtures := testutil.SetupFixtures(t, containers.DB)
	svcs := newTestServices(t, containers.DB)
	applicant := applicantActor(fixtures.ApplicantUser)
	staff := staffActor(fixtures.StaffUser)

	app := fixtures.CreateApplication(t, fixtures.ApplicantUser.ID, fixtures.Scholarship.ID, models.StatusUnderEvaluation)
	when := time.Now().Add(72 * time.Hour)
	room := "OSAS Room 204"

	interview, err := svcs.interviews.Schedule(staff, app.ID, fixtures.StaffUser.ID, when, &room, models.InterviewInPerson, nil)
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}
	if interview.Status != models.InterviewScheduled {
		t.Fatalf("Expected scheduled, got %s", interview.Status)
	}

	// An application owns at most one interview
	if _, err := svcs.interviews.Schedule(staff, app.ID, fixtures.StaffUser.ID, when, &room, models.InterviewInPerson, nil); !apperrors.Is(err, apperrors.KindConflict) {
		t.Fatalf("Expected conflict on second schedule, got %v", err)
	}

	// An applicant's request only records the reason; status and slot are
	// untouched
	interview, err = svcs.interviews.Reschedule(applicant, app.ID, "Class conflict on that day", nil, nil)
	if err != nil {
		t.Fatalf("Applicant reschedule failed: %v", err)
	}
	if interview.Status != models.InterviewScheduled {
		t.Fatalf("Expected scheduled after applicant request, got %s", interview.Status)
	}
	if !interview.ScheduledAt.Equal(when) {
		t.Fatalf("Applicant request moved the slot: %v", interview.ScheduledAt)
	}
	if interview.RescheduleReason == nil || *interview.RescheduleReason != "Class conflict on that day" {
		t.Fatalf("Expected reschedule reason recorded, got %v", interview.RescheduleReason)
	}

	// Staff confirm a new time in one swap, no intermediate state
	newWhen := time.Now().Add(7 * 24 * time.Hour)
	interview, err = svcs.interviews.Reschedule(staff, app.ID, "Moved per applicant request", &newWhen, nil)
	if err != nil {
		t.Fatalf("Staff reschedule failed: %v", err)
	}
	if interview.Status != models.InterviewScheduled || !interview.ScheduledAt.Equal(newWhen) {
		t.Fatalf("Expected scheduled at new time, got %s at %v", interview.Status, interview.ScheduledAt)
	}

	// Complete writes the mean score onto the application
	interview, err = svcs.interviews.Complete(staff, app.ID, map[string]float64{"academics": 70, "need": 80, "fit": 85}, models.RecommendApproved, nil)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if interview.Status != models.InterviewCompleted || interview.CompletedAt == nil {
		t.Fatalf("Expected completed with timestamp, got %s", interview.Status)
	}

	got, err := svcs.app.GetApplication(staff, app.ID)
	if err != nil {
		t.Fatalf("GetApplication failed: %v", err)
	}
	if got.EvaluationScore == nil || *got.EvaluationScore != 78.33 {
		t.Fatalf("Expected mean score 78.33, got %v", got.EvaluationScore)
	}

	// Completing twice is a conflict
	if _, err := svcs.interviews.Complete(staff, app.ID, map[string]float64{"overall": 99}, models.RecommendApproved, nil); !apperrors.Is(err, apperrors.KindConflict) {
		t.Fatalf("Expected conflict on double complete, got %v", err)
	}
}

func TestCompleteAfterRescheduleRequest(t *testing.T) {
	containers := testutil.SetupPostgres(t)
	defer containers.Cleanup(t)

	fixtures := testutil.SetupFixtures(t, containers.DB)
	svcs := newTestServices(t, containers.DB)
	applicant := applicantActor(fixtures.ApplicantUser)
	staff := staffActor(fixtures.StaffUser)

	app := fixtures.CreateApplication(t, fixtures.ApplicantUser.ID, fixtures.Scholarship.ID, models.StatusUnderEvaluation)
	when := time.Now().Add(48 * time.Hour)
	if _, err := svcs.interviews.Schedule(staff, app.ID, fixtures.StaffUser.ID, when, nil, models.InterviewOnline, nil); err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}

	if _, err := svcs.interviews.Reschedule(applicant, app.ID, "Exam clash", nil, nil); err != nil {
		t.Fatalf("Applicant reschedule failed: %v", err)
	}

	// The interview is still scheduled, so staff may complete it without
	// acting on the request
	interview, err := svcs.interviews.Complete(staff, app.ID, map[string]float64{"overall": 82}, models.RecommendApproved, nil)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if interview.Status != models.InterviewCompleted {
		t.Fatalf("Expected completed, got %s", interview.Status)
	}
}

func TestScheduleValidation(t *testing.T) {
	containers := testutil.SetupPostgres(t)
	defer containers.Cleanup(t)

	fixtures := testutil.SetupFixtures(t, containers.DB)
	svcs := newTestServices(t, containers.DB)
	staff := staffActor(fixtures.StaffUser)
	future := time.Now().Add(24 * time.Hour)

	// Scheduling requires the application to be under evaluation
	submitted := fixtures.CreateApplication(t, fixtures.ApplicantUser.ID, fixtures.Scholarship.ID, models.StatusSubmitted)
	if _, err := svcs.interviews.Schedule(staff, submitted.ID, fixtures.StaffUser.ID, future, nil, models.InterviewOnline, nil); !apperrors.Is(err, apperrors.KindValidation) {
		t.Fatalf("Expected validation error for wrong application status, got %v", err)
	}

	app := fixtures.CreateApplication(t, fixtures.ApplicantUser.ID, fixtures.Scholarship.ID, models.StatusUnderEvaluation)

	// The slot must be in the future
	past := time.Now().Add(-time.Hour)
	if _, err := svcs.interviews.Schedule(staff, app.ID, fixtures.StaffUser.ID, past, nil, models.InterviewOnline, nil); !apperrors.Is(err, apperrors.KindValidation) {
		t.Fatalf("Expected validation error for past slot, got %v", err)
	}

	// In-person interviews need a location
	if _, err := svcs.interviews.Schedule(staff, app.ID, fixtures.StaffUser.ID, future, nil, models.InterviewInPerson, nil); !apperrors.Is(err, apperrors.KindValidation) {
		t.Fatalf("Expected validation error for missing location, got %v", err)
	}

	// Applicants cannot schedule at all
	if _, err := svcs.interviews.Schedule(applicantActor(fixtures.ApplicantUser), app.ID, fixtures.StaffUser.ID, future, nil, models.InterviewOnline, nil); !apperrors.Is(err, apperrors.KindAuthorization) {
		t.Fatalf("Expected authorization error for applicant, got %v", err)
	}
}

func TestRescheduleValidation(t *testing.T) {
	containers := testutil.SetupPostgres(t)
	defer containers.Cleanup(t)

	fixtures := testutil.SetupFixtures(t, containers.DB)
	svcs := newTestServices(t, containers.DB)
	applicant := applicantActor(fixtures.ApplicantUser)
	staff := staffActor(fixtures.StaffUser)

	app := fixtures.CreateApplication(t, fixtures.ApplicantUser.ID, fixtures.Scholarship.ID, models.StatusUnderEvaluation)
	when := time.Now().Add(48 * time.Hour)
	if _, err := svcs.interviews.Schedule(staff, app.ID, fixtures.StaffUser.ID, when, nil, models.InterviewPhone, nil); err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}

	// A reason is always required
	if _, err := svcs.interviews.Reschedule(applicant, app.ID, "", nil, nil); !apperrors.Is(err, apperrors.KindValidation) {
		t.Fatalf("Expected validation error for empty reason, got %v", err)
	}

	// Applicants cannot pick the new time
	newWhen := time.Now().Add(96 * time.Hour)
	if _, err := svcs.interviews.Reschedule(applicant, app.ID, "conflict", &newWhen, nil); !apperrors.Is(err, apperrors.KindValidation) {
		t.Fatalf("Expected validation error for applicant-set time, got %v", err)
	}

	// Staff must provide the new time
	if _, err := svcs.interviews.Reschedule(staff, app.ID, "room change", nil, nil); !apperrors.Is(err, apperrors.KindValidation) {
		t.Fatalf("Expected validation error for staff without time, got %v", err)
	}

	// Another applicant cannot touch this interview
	other := testutil.CreateUser(t, containers.DB, "other@test.edu", "Other", "Applicant", nil, nil)
	if _, err := svcs.interviews.Reschedule(applicantActor(other), app.ID, "not mine", nil, nil); !apperrors.Is(err, apperrors.KindAuthorization) {
		t.Fatalf("Expected authorization error for foreign applicant, got %v", err)
	}
}
