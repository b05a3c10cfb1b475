package service

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"scholartrack/internal/apperrors"
	"scholartrack/internal/events"
	"scholartrack/internal/locks"
	"scholartrack/internal/models"
	"scholartrack/internal/repository"
)

// InterviewService runs the interview sub-workflow owned by an application.
// It shares the keyed lock with the review orchestrator so interview
// operations and lifecycle transitions on the same application never
// interleave.
type InterviewService struct {
	ivRepo     *repository.InterviewRepository
	appRepo    *repository.ApplicationRepository
	userRepo   *repository.UserRepository
	auditRepo  *repository.AuditRepository
	locks      *locks.Keyed
	dispatcher *events.Dispatcher
}

// NewInterviewService creates a new interview service
func NewInterviewService(
	ivRepo *repository.InterviewRepository,
	appRepo *repository.ApplicationRepository,
	userRepo *repository.UserRepository,
	auditRepo *repository.AuditRepository,
	keyed *locks.Keyed,
	dispatcher *events.Dispatcher,
) *InterviewService {
	return &InterviewService{
		ivRepo:     ivRepo,
		appRepo:    appRepo,
		userRepo:   userRepo,
		auditRepo:  auditRepo,
		locks:      keyed,
		dispatcher: dispatcher,
	}
}

// Schedule creates the interview for an application under evaluation. The
// slot must be strictly in the future. Scheduling does not change the
// application's top-level status.
func (s *InterviewService) Schedule(actor Actor, applicationID, interviewerID uint, when time.Time, location *string, interviewType string, notes *string) (*models.Interview, error) {
	if !roleAllowed(EventScheduleInterview, actor.Roles) {
		return nil, apperrors.Authorizationf("not permitted")
	}
	if !when.After(time.Now()) {
		return nil, apperrors.Validationf("interview must be scheduled in the future")
	}
	switch interviewType {
	case models.InterviewInPerson, models.InterviewOnline, models.InterviewPhone:
	default:
		return nil, apperrors.Validationf("invalid interview type %q", interviewType)
	}
	if interviewType == models.InterviewInPerson && (location == nil || *location == "") {
		return nil, apperrors.Validationf("an in-person interview requires a location")
	}

	s.locks.Lock(applicationID)
	defer s.locks.Unlock(applicationID)

	app, err := s.appRepo.GetByID(applicationID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, apperrors.NotFoundf("application %d not found", applicationID)
	}
	if !statusAllowed(EventScheduleInterview, app.Status) {
		return nil, apperrors.Validationf("application %d is %s, interviews are scheduled during %s", applicationID, app.Status, models.StatusUnderEvaluation)
	}

	interviewer, err := s.userRepo.GetByID(interviewerID)
	if err != nil {
		return nil, err
	}
	if interviewer == nil {
		return nil, apperrors.NotFoundf("user %d not found", interviewerID)
	}

	existing, err := s.ivRepo.GetByApplicationID(applicationID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.Conflictf("application %d already has an interview", applicationID)
	}

	interview := &models.Interview{
		ApplicationID:  applicationID,
		InterviewerID:  interviewerID,
		ScheduledAt:    when,
		Location:       location,
		Type:           interviewType,
		Status:         models.InterviewScheduled,
		Recommendation: models.RecommendPending,
		Notes:          notes,
	}
	if err := s.ivRepo.Create(interview); err != nil {
		return nil, err
	}

	s.audit(actor.ID, "schedule_interview", fmt.Sprintf("Scheduled interview %d for application %d", interview.ID, applicationID))
	s.dispatcher.Publish(events.InterviewScheduled{
		ApplicationID: applicationID,
		ApplicantID:   app.ApplicantID,
		ScheduledAt:   when,
		Location:      locationOrEmpty(location),
	})

	return interview, nil
}

// Reschedule handles both reschedule paths. An applicant may only flag the
// interview with a reason; the slot and status stay untouched until staff
// confirm a new time, which lands in one atomic swap.
func (s *InterviewService) Reschedule(actor Actor, applicationID uint, reason string, newWhen *time.Time, newLocation *string) (*models.Interview, error) {
	if !roleAllowed(EventRescheduleInterview, actor.Roles) {
		return nil, apperrors.Authorizationf("not permitted")
	}
	if reason == "" {
		return nil, apperrors.Validationf("a reschedule reason is required")
	}

	staff := isStaff(actor.Roles)
	if !staff && newWhen != nil {
		return nil, apperrors.Validationf("only staff may set the new interview time")
	}
	if staff {
		if newWhen == nil {
			return nil, apperrors.Validationf("a new interview time is required")
		}
		if !newWhen.After(time.Now()) {
			return nil, apperrors.Validationf("the new interview time must be in the future")
		}
	}

	s.locks.Lock(applicationID)
	defer s.locks.Unlock(applicationID)

	app, err := s.appRepo.GetByID(applicationID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, apperrors.NotFoundf("application %d not found", applicationID)
	}
	if !staff && app.ApplicantID != actor.ID {
		return nil, apperrors.Authorizationf("not permitted")
	}

	interview, err := s.ivRepo.GetByApplicationID(applicationID)
	if err != nil {
		return nil, err
	}
	if interview == nil {
		return nil, apperrors.NotFoundf("application %d has no interview", applicationID)
	}
	if interview.Status != models.InterviewScheduled {
		return nil, apperrors.Conflictf("interview %d is %s, expected %s", interview.ID, interview.Status, models.InterviewScheduled)
	}

	var rows int64
	if staff {
		rows, err = s.ivRepo.Reschedule(interview.ID, reason, *newWhen, newLocation)
	} else {
		rows, err = s.ivRepo.FlagReschedule(interview.ID, reason)
	}
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, apperrors.Conflictf("interview %d state changed, refresh and retry", interview.ID)
	}

	if staff {
		s.audit(actor.ID, "reschedule_interview", fmt.Sprintf("Rescheduled interview %d for application %d", interview.ID, applicationID))
		s.dispatcher.Publish(events.InterviewRescheduled{
			ApplicationID: applicationID,
			ApplicantID:   app.ApplicantID,
			ScheduledAt:   *newWhen,
			Location:      locationOrEmpty(newLocation),
			Reason:        reason,
		})
	} else {
		s.audit(actor.ID, "request_reschedule", fmt.Sprintf("Reschedule requested for interview %d of application %d", interview.ID, applicationID))
	}

	return s.ivRepo.GetByApplicationID(applicationID)
}

// Complete records scores and a recommendation, then writes the mean score
// onto the application. Completing twice yields a conflict and leaves the
// evaluation score untouched.
func (s *InterviewService) Complete(actor Actor, applicationID uint, scores map[string]float64, recommendation string, notes *string) (*models.Interview, error) {
	if !roleAllowed(EventCompleteInterview, actor.Roles) {
		return nil, apperrors.Authorizationf("not permitted")
	}
	if len(scores) == 0 {
		return nil, apperrors.Validationf("at least one criterion score is required")
	}
	for name, score := range scores {
		if score < 0 || score > 100 {
			return nil, apperrors.Validationf("score for %q must be between 0 and 100", name)
		}
	}
	switch recommendation {
	case models.RecommendApproved, models.RecommendRejected, models.RecommendPending:
	default:
		return nil, apperrors.Validationf("invalid recommendation %q", recommendation)
	}

	s.locks.Lock(applicationID)
	defer s.locks.Unlock(applicationID)

	app, err := s.appRepo.GetByID(applicationID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, apperrors.NotFoundf("application %d not found", applicationID)
	}
	if !statusAllowed(EventCompleteInterview, app.Status) {
		return nil, apperrors.Validationf("application %d is %s, interviews complete during %s", applicationID, app.Status, models.StatusUnderEvaluation)
	}

	interview, err := s.ivRepo.GetByApplicationID(applicationID)
	if err != nil {
		return nil, err
	}
	if interview == nil {
		return nil, apperrors.NotFoundf("application %d has no interview", applicationID)
	}
	rows, err := s.ivRepo.Complete(interview.ID, scores, recommendation, notes, time.Now())
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, apperrors.Conflictf("interview %d was already completed", interview.ID)
	}

	mean := MeanScore(scores)
	if _, err := s.appRepo.SetEvaluationScore(applicationID, mean); err != nil {
		return nil, err
	}

	s.audit(actor.ID, "complete_interview", fmt.Sprintf("Completed interview %d for application %d (score %.2f)", interview.ID, applicationID, mean))
	s.dispatcher.Publish(events.InterviewCompleted{
		ApplicationID:  applicationID,
		ApplicantID:    app.ApplicantID,
		MeanScore:      mean,
		Recommendation: recommendation,
	})

	return s.ivRepo.GetByApplicationID(applicationID)
}

// GetByApplication returns the interview for an application. Applicants may
// only read their own.
func (s *InterviewService) GetByApplication(actor Actor, applicationID uint) (*models.Interview, error) {
	app, err := s.appRepo.GetByID(applicationID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, apperrors.NotFoundf("application %d not found", applicationID)
	}
	if app.ApplicantID != actor.ID && !isStaff(actor.Roles) {
		return nil, apperrors.Authorizationf("not permitted")
	}
	return s.ivRepo.GetByApplicationID(applicationID)
}

// MeanScore computes the arithmetic mean of the criterion scores rounded to
// two decimals. Criterion scores are commensurable 0..100 scales, so the
// plain mean is the documented policy.
func MeanScore(scores map[string]float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, score := range scores {
		sum += score
	}
	mean := sum / float64(len(scores))
	return math.Round(mean*100) / 100
}

func locationOrEmpty(location *string) string {
	if location == nil {
		return ""
	}
	return *location
}

func (s *InterviewService) audit(actorID uint, action, details string) {
	err := s.auditRepo.Create(&models.AuditLog{
		UserID:   &actorID,
		Action:   action,
		Resource: "interview",
		Details:  details,
	})
	if err != nil {
		slog.Error("Failed to write audit log", "action", action, "error", err)
	}
}
