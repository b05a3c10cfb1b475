package service

import (
	"fmt"
	"log/slog"
	"time"

	"scholartrack/internal/apperrors"
	"scholartrack/internal/capacity"
	"scholartrack/internal/events"
	"scholartrack/internal/locks"
	"scholartrack/internal/models"
	"scholartrack/internal/repository"
	"scholartrack/internal/securestore"
)

// Actor is the resolved caller identity passed down from the auth layer.
type Actor struct {
	ID    uint
	Roles []string
}

// DocumentChecker answers whether an application's required documents are on file.
type DocumentChecker interface {
	DocumentsComplete(applicationID uint) (bool, error)
}

// EligibilityChecker answers whether an applicant meets a scholarship's criteria.
type EligibilityChecker interface {
	MeetsEligibility(applicationID, scholarshipID uint) (bool, error)
}

// ApplicationService is the review orchestrator: it owns every lifecycle
// transition of an application. Operations serialize per application through
// the keyed lock; the capacity ledger's guarded UPDATE serializes per
// scholarship and is always called while the application lock is held, never
// the other way around.
type ApplicationService struct {
	appRepo     *repository.ApplicationRepository
	schRepo     *repository.ScholarshipRepository
	userRepo    *repository.UserRepository
	remarkRepo  *repository.RemarkRepository
	ivRepo      *repository.InterviewRepository
	auditRepo   *repository.AuditRepository
	documents   DocumentChecker
	eligibility EligibilityChecker
	ledger      *capacity.Ledger
	cipher      *securestore.RemarkCipher
	locks       *locks.Keyed
	dispatcher  *events.Dispatcher
}

// NewApplicationService creates the review orchestrator
func NewApplicationService(
	appRepo *repository.ApplicationRepository,
	schRepo *repository.ScholarshipRepository,
	userRepo *repository.UserRepository,
	remarkRepo *repository.RemarkRepository,
	ivRepo *repository.InterviewRepository,
	auditRepo *repository.AuditRepository,
	documents DocumentChecker,
	eligibility EligibilityChecker,
	ledger *capacity.Ledger,
	cipher *securestore.RemarkCipher,
	keyed *locks.Keyed,
	dispatcher *events.Dispatcher,
) *ApplicationService {
	return &ApplicationService{
		appRepo:     appRepo,
		schRepo:     schRepo,
		userRepo:    userRepo,
		remarkRepo:  remarkRepo,
		ivRepo:      ivRepo,
		auditRepo:   auditRepo,
		documents:   documents,
		eligibility: eligibility,
		ledger:      ledger,
		cipher:      cipher,
		locks:       keyed,
		dispatcher:  dispatcher,
	}
}

// CreateDraft creates a new draft application. Applicants create their own;
// staff may create one on an applicant's behalf.
func (s *ApplicationService) CreateDraft(actor Actor, scholarshipID, applicantID uint, academicYear, semester string) (*models.Application, error) {
	if applicantID != actor.ID && !isStaff(actor.Roles) {
		return nil, apperrors.Authorizationf("cannot create an application for another applicant")
	}
	if academicYear == "" || semester == "" {
		return nil, apperrors.Validationf("academic year and semester are required")
	}

	scholarship, err := s.schRepo.GetByID(scholarshipID)
	if err != nil {
		return nil, err
	}
	if scholarship == nil {
		return nil, apperrors.NotFoundf("scholarship %d not found", scholarshipID)
	}
	if scholarship.Status != models.ScholarshipActive {
		return nil, apperrors.Validationf("scholarship %d is not open for applications", scholarshipID)
	}

	app := &models.Application{
		ScholarshipID: scholarshipID,
		ApplicantID:   applicantID,
		Status:        models.StatusDraft,
		Priority:      models.PriorityMedium,
		StipendStatus: models.StipendNone,
		RenewalStatus: models.RenewalNone,
		AcademicYear:  academicYear,
		Semester:      semester,
	}
	if err := s.appRepo.Create(app); err != nil {
		return nil, err
	}

	s.audit(actor.ID, "create", fmt.Sprintf("Created draft application %d for scholarship %d", app.ID, scholarshipID))
	return app, nil
}

// Submit moves a draft into the review queue once documents and eligibility
// check out. The applied_at milestone is set exactly once.
func (s *ApplicationService) Submit(actor Actor, applicationID uint) (*models.Application, error) {
	if !roleAllowed(EventSubmit, actor.Roles) {
		return nil, apperrors.Authorizationf("not permitted")
	}

	s.locks.Lock(applicationID)
	defer s.locks.Unlock(applicationID)

	app, err := s.loadOwned(actor, applicationID)
	if err != nil {
		return nil, err
	}
	if !statusAllowed(EventSubmit, app.Status) {
		return nil, apperrors.Conflictf("application %d is %s, expected %s", applicationID, app.Status, models.StatusDraft)
	}

	scholarship, err := s.schRepo.GetByID(app.ScholarshipID)
	if err != nil {
		return nil, err
	}
	if scholarship == nil {
		return nil, apperrors.NotFoundf("scholarship %d not found", app.ScholarshipID)
	}
	if scholarship.Status != models.ScholarshipActive {
		return nil, apperrors.Validationf("scholarship %d is not accepting applications", scholarship.ID)
	}
	if time.Now().After(scholarship.Deadline) {
		return nil, apperrors.Validationf("scholarship %d deadline has passed", scholarship.ID)
	}

	complete, err := s.documents.DocumentsComplete(applicationID)
	if err != nil {
		return nil, err
	}
	if !complete {
		return nil, apperrors.Validationf("required documents are missing")
	}

	eligible, err := s.eligibility.MeetsEligibility(applicationID, app.ScholarshipID)
	if err != nil {
		return nil, err
	}
	if !eligible {
		return nil, apperrors.Validationf("applicant does not meet the eligibility criteria")
	}

	rows, err := s.appRepo.MarkSubmitted(applicationID, time.Now())
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, apperrors.Conflictf("application %d was already submitted", applicationID)
	}

	s.audit(actor.ID, "submit", fmt.Sprintf("Submitted application %d", applicationID))
	s.dispatcher.Publish(events.ApplicationSubmitted{
		ApplicationID: applicationID,
		ApplicantID:   app.ApplicantID,
		ScholarshipID: app.ScholarshipID,
		OccurredAt:    time.Now(),
	})

	return s.appRepo.GetByID(applicationID)
}

// Resubmit returns an incomplete application to the review queue. The
// applied_at milestone is not touched; it records the first submission.
func (s *ApplicationService) Resubmit(actor Actor, applicationID uint) (*models.Application, error) {
	if !roleAllowed(EventResubmit, actor.Roles) {
		return nil, apperrors.Authorizationf("not permitted")
	}

	s.locks.Lock(applicationID)
	defer s.locks.Unlock(applicationID)

	app, err := s.loadOwned(actor, applicationID)
	if err != nil {
		return nil, err
	}
	if !statusAllowed(EventResubmit, app.Status) {
		return nil, apperrors.Conflictf("application %d is %s, expected %s", applicationID, app.Status, models.StatusIncomplete)
	}

	rows, err := s.appRepo.MarkResubmitted(applicationID)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, apperrors.Conflictf("application %d state changed, refresh and retry", applicationID)
	}

	s.audit(actor.ID, "resubmit", fmt.Sprintf("Resubmitted application %d", applicationID))
	s.dispatcher.Publish(events.ApplicationSubmitted{
		ApplicationID: applicationID,
		ApplicantID:   app.ApplicantID,
		ScholarshipID: app.ScholarshipID,
		Resubmission:  true,
		OccurredAt:    time.Now(),
	})

	return s.appRepo.GetByID(applicationID)
}

// AssignReviewer attaches a staff reviewer to a submitted application.
func (s *ApplicationService) AssignReviewer(actor Actor, applicationID, reviewerID uint) (*models.Application, error) {
	if !roleAllowed(EventAssignReviewer, actor.Roles) {
		return nil, apperrors.Authorizationf("not permitted")
	}

	s.locks.Lock(applicationID)
	defer s.locks.Unlock(applicationID)

	reviewer, err := s.userRepo.GetByID(reviewerID)
	if err != nil {
		return nil, err
	}
	if reviewer == nil {
		return nil, apperrors.NotFoundf("user %d not found", reviewerID)
	}
	reviewerRoles, err := s.userRepo.GetUserRoles(reviewerID)
	if err != nil {
		return nil, err
	}
	roleNames := make([]string, 0, len(reviewerRoles))
	for _, role := range reviewerRoles {
		roleNames = append(roleNames, role.Name)
	}
	if !isStaff(roleNames) {
		return nil, apperrors.Validationf("user %d is not a staff reviewer", reviewerID)
	}

	rows, err := s.appRepo.AssignReviewer(applicationID, reviewerID)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, apperrors.Conflictf("application %d is not awaiting reviewer assignment", applicationID)
	}

	s.audit(actor.ID, "assign_reviewer", fmt.Sprintf("Assigned reviewer %d to application %d", reviewerID, applicationID))
	return s.appRepo.GetByID(applicationID)
}

// BeginVerification moves a submitted application into verification. A
// reviewer must already be assigned.
func (s *ApplicationService) BeginVerification(actor Actor, applicationID uint) (*models.Application, error) {
	if !roleAllowed(EventBeginVerification, actor.Roles) {
		return nil, apperrors.Authorizationf("not permitted")
	}

	s.locks.Lock(applicationID)
	defer s.locks.Unlock(applicationID)

	app, err := s.load(applicationID)
	if err != nil {
		return nil, err
	}
	if !statusAllowed(EventBeginVerification, app.Status) {
		return nil, apperrors.Conflictf("application %d is %s, expected %s", applicationID, app.Status, models.StatusSubmitted)
	}
	if app.ReviewerID == nil {
		return nil, apperrors.Validationf("application %d has no reviewer assigned", applicationID)
	}

	rows, err := s.appRepo.MarkUnderVerification(applicationID)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, apperrors.Conflictf("application %d state changed, refresh and retry", applicationID)
	}

	s.audit(actor.ID, "begin_verification", fmt.Sprintf("Started verification of application %d", applicationID))
	return s.appRepo.GetByID(applicationID)
}

// Verify marks an application as verified. The verifier's comment is required
// and lands in the encrypted remark trail; verified_at is set exactly once.
func (s *ApplicationService) Verify(actor Actor, applicationID uint, comment string) (*models.Application, error) {
	if !roleAllowed(EventVerify, actor.Roles) {
		return nil, apperrors.Authorizationf("not permitted")
	}
	if comment == "" {
		return nil, apperrors.Validationf("verifier comment is required")
	}

	s.locks.Lock(applicationID)
	defer s.locks.Unlock(applicationID)

	app, err := s.load(applicationID)
	if err != nil {
		return nil, err
	}
	if !statusAllowed(EventVerify, app.Status) {
		return nil, apperrors.Conflictf("application %d is %s, expected %s", applicationID, app.Status, models.StatusUnderVerification)
	}

	rows, err := s.appRepo.MarkVerified(applicationID, time.Now())
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, apperrors.Conflictf("application %d was already verified", applicationID)
	}

	if err := s.appendRemark(applicationID, actor.ID, models.RemarkVerifierComment, comment); err != nil {
		slog.Error("Failed to append verifier comment", "application_id", applicationID, "error", err)
	}

	s.audit(actor.ID, "verify", fmt.Sprintf("Verified application %d", applicationID))
	return s.appRepo.GetByID(applicationID)
}

// FlagIncomplete sends an application back to the applicant. The reason is
// required so the applicant knows what to fix.
func (s *ApplicationService) FlagIncomplete(actor Actor, applicationID uint, reason string) (*models.Application, error) {
	if !roleAllowed(EventFlagIncomplete, actor.Roles) {
		return nil, apperrors.Authorizationf("not permitted")
	}
	if reason == "" {
		return nil, apperrors.Validationf("a reason explaining the gap is required")
	}

	s.locks.Lock(applicationID)
	defer s.locks.Unlock(applicationID)

	app, err := s.load(applicationID)
	if err != nil {
		return nil, err
	}
	if !statusAllowed(EventFlagIncomplete, app.Status) {
		return nil, apperrors.Conflictf("application %d is %s, expected %s", applicationID, app.Status, models.StatusUnderVerification)
	}

	rows, err := s.appRepo.MarkIncomplete(applicationID)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, apperrors.Conflictf("application %d state changed, refresh and retry", applicationID)
	}

	if err := s.appendRemark(applicationID, actor.ID, models.RemarkVerifierComment, reason); err != nil {
		slog.Error("Failed to append incomplete reason", "application_id", applicationID, "error", err)
	}

	s.audit(actor.ID, "flag_incomplete", fmt.Sprintf("Flagged application %d incomplete", applicationID))
	s.dispatcher.Publish(events.ApplicationFlaggedIncomplete{
		ApplicationID: applicationID,
		ApplicantID:   app.ApplicantID,
		Reason:        reason,
		OccurredAt:    time.Now(),
	})

	return s.appRepo.GetByID(applicationID)
}

// BeginEvaluation moves a verified application into evaluation.
func (s *ApplicationService) BeginEvaluation(actor Actor, applicationID uint) (*models.Application, error) {
	if !roleAllowed(EventBeginEvaluation, actor.Roles) {
		return nil, apperrors.Authorizationf("not permitted")
	}

	s.locks.Lock(applicationID)
	defer s.locks.Unlock(applicationID)

	app, err := s.load(applicationID)
	if err != nil {
		return nil, err
	}
	if !statusAllowed(EventBeginEvaluation, app.Status) {
		return nil, apperrors.Conflictf("application %d is %s, expected %s", applicationID, app.Status, models.StatusVerified)
	}

	rows, err := s.appRepo.MarkUnderEvaluation(applicationID)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, apperrors.Conflictf("application %d state changed, refresh and retry", applicationID)
	}

	s.audit(actor.ID, "begin_evaluation", fmt.Sprintf("Started evaluation of application %d", applicationID))
	return s.appRepo.GetByID(applicationID)
}

// Decide ends the evaluation phase. Approval claims a scholarship slot
// through the capacity ledger; when the ledger reports the scholarship
// exhausted the application stays in under_evaluation and the caller sees
// the resource condition, not a rejection.
func (s *ApplicationService) Decide(actor Actor, applicationID uint, approve bool, rationale string) (*models.Application, error) {
	if !roleAllowed(EventDecide, actor.Roles) {
		return nil, apperrors.Authorizationf("not permitted")
	}

	s.locks.Lock(applicationID)
	defer s.locks.Unlock(applicationID)

	app, err := s.load(applicationID)
	if err != nil {
		return nil, err
	}
	if !statusAllowed(EventDecide, app.Status) {
		return nil, apperrors.Conflictf("application %d is %s, expected %s", applicationID, app.Status, models.StatusUnderEvaluation)
	}
	if app.EvaluationScore == nil {
		return nil, apperrors.Validationf("application %d has no evaluation score", applicationID)
	}
	interview, err := s.ivRepo.GetByApplicationID(applicationID)
	if err != nil {
		return nil, err
	}
	if interview != nil && interview.Status != models.InterviewCompleted {
		return nil, apperrors.Validationf("application %d has an interview that is not completed", applicationID)
	}

	now := time.Now()
	if approve {
		// All validation is done; the ledger call is the final gate. Its
		// guarded UPDATE serializes concurrent approvals per scholarship.
		if err := s.ledger.Reserve(app.ScholarshipID); err != nil {
			return nil, err
		}
		rows, err := s.appRepo.MarkApproved(applicationID, now)
		if err == nil && rows == 0 {
			err = apperrors.Conflictf("application %d was already decided", applicationID)
		}
		if err != nil {
			// Give the slot back; the application did not become a beneficiary.
			if relErr := s.ledger.Release(app.ScholarshipID); relErr != nil {
				slog.Error("Failed to release slot after aborted approval", "scholarship_id", app.ScholarshipID, "error", relErr)
			}
			return nil, err
		}
	} else {
		rows, err := s.appRepo.MarkRejected(applicationID, now)
		if err != nil {
			return nil, err
		}
		if rows == 0 {
			return nil, apperrors.Conflictf("application %d was already decided", applicationID)
		}
		if _, err := s.ivRepo.CancelPending(applicationID); err != nil {
			slog.Error("Failed to cancel pending interview", "application_id", applicationID, "error", err)
		}
	}

	if rationale != "" {
		if err := s.appendRemark(applicationID, actor.ID, models.RemarkCommitteeRecommendation, rationale); err != nil {
			slog.Error("Failed to append decision rationale", "application_id", applicationID, "error", err)
		}
	}

	if approve {
		s.audit(actor.ID, "approve", fmt.Sprintf("Approved application %d", applicationID))
		s.dispatcher.Publish(events.ApplicationApproved{
			ApplicationID: applicationID,
			ApplicantID:   app.ApplicantID,
			ScholarshipID: app.ScholarshipID,
			OccurredAt:    now,
		})
	} else {
		s.audit(actor.ID, "reject", fmt.Sprintf("Rejected application %d", applicationID))
		s.dispatcher.Publish(events.ApplicationRejected{
			ApplicationID: applicationID,
			ApplicantID:   app.ApplicantID,
			ScholarshipID: app.ScholarshipID,
			OccurredAt:    now,
		})
	}

	return s.appRepo.GetByID(applicationID)
}

// Revoke reverses an approval after a post-approval audit. The slot returns
// to the scholarship and the application lands in rejected; rejected_at keeps
// its first value when the application was rejected before.
func (s *ApplicationService) Revoke(actor Actor, applicationID uint, reason string) (*models.Application, error) {
	if !roleAllowed(EventRevoke, actor.Roles) {
		return nil, apperrors.Authorizationf("not permitted")
	}
	if reason == "" {
		return nil, apperrors.Validationf("a revocation reason is required")
	}

	s.locks.Lock(applicationID)
	defer s.locks.Unlock(applicationID)

	app, err := s.load(applicationID)
	if err != nil {
		return nil, err
	}
	if !statusAllowed(EventRevoke, app.Status) {
		return nil, apperrors.Conflictf("application %d is %s, expected %s", applicationID, app.Status, models.StatusApproved)
	}

	rows, err := s.appRepo.MarkRevoked(applicationID, time.Now())
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, apperrors.Conflictf("application %d state changed, refresh and retry", applicationID)
	}

	if err := s.ledger.Release(app.ScholarshipID); err != nil {
		slog.Error("Failed to release slot on revocation", "scholarship_id", app.ScholarshipID, "error", err)
	}
	if _, err := s.ivRepo.CancelPending(applicationID); err != nil {
		slog.Error("Failed to cancel pending interview", "application_id", applicationID, "error", err)
	}
	if err := s.appendRemark(applicationID, actor.ID, models.RemarkAdminRemark, reason); err != nil {
		slog.Error("Failed to append revocation remark", "application_id", applicationID, "error", err)
	}

	s.audit(actor.ID, "revoke", fmt.Sprintf("Revoked approval of application %d", applicationID))
	s.dispatcher.Publish(events.ApplicationRejected{
		ApplicationID: applicationID,
		ApplicantID:   app.ApplicantID,
		ScholarshipID: app.ScholarshipID,
		Revoked:       true,
		OccurredAt:    time.Now(),
	})

	return s.appRepo.GetByID(applicationID)
}

// RecordStipend updates the disbursement sub-state of an approved
// application. The sub-state evolves independently of the admission decision.
func (s *ApplicationService) RecordStipend(actor Actor, applicationID uint, status string, amount *float64, releasedAt *time.Time) (*models.Application, error) {
	if !roleAllowed(EventRecordStipend, actor.Roles) {
		return nil, apperrors.Authorizationf("not permitted")
	}
	switch status {
	case models.StipendPending, models.StipendProcessing, models.StipendReleased:
	default:
		return nil, apperrors.Validationf("invalid stipend status %q", status)
	}
	if amount != nil && *amount <= 0 {
		return nil, apperrors.Validationf("stipend amount must be positive")
	}
	if status == models.StipendReleased && releasedAt == nil {
		now := time.Now()
		releasedAt = &now
	}

	s.locks.Lock(applicationID)
	defer s.locks.Unlock(applicationID)

	app, err := s.load(applicationID)
	if err != nil {
		return nil, err
	}
	if !statusAllowed(EventRecordStipend, app.Status) {
		return nil, apperrors.Conflictf("application %d is %s, expected %s", applicationID, app.Status, models.StatusApproved)
	}

	rows, err := s.appRepo.UpdateStipend(applicationID, status, amount, releasedAt)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, apperrors.Conflictf("application %d state changed, refresh and retry", applicationID)
	}

	s.audit(actor.ID, "record_stipend", fmt.Sprintf("Recorded stipend %s for application %d", status, applicationID))
	if amount != nil {
		s.dispatcher.Publish(events.StipendRecorded{
			ApplicationID: applicationID,
			ApplicantID:   app.ApplicantID,
			Amount:        *amount,
			Status:        status,
			OccurredAt:    time.Now(),
		})
	}

	return s.appRepo.GetByID(applicationID)
}

// SetRenewalStatus updates the renewal sub-state of an approved application.
func (s *ApplicationService) SetRenewalStatus(actor Actor, applicationID uint, status string) (*models.Application, error) {
	if !roleAllowed(EventSetRenewalStatus, actor.Roles) {
		return nil, apperrors.Authorizationf("not permitted")
	}
	switch status {
	case models.RenewalEligible, models.RenewalIneligible, models.RenewalPending:
	default:
		return nil, apperrors.Validationf("invalid renewal status %q", status)
	}

	s.locks.Lock(applicationID)
	defer s.locks.Unlock(applicationID)

	app, err := s.load(applicationID)
	if err != nil {
		return nil, err
	}
	if !statusAllowed(EventSetRenewalStatus, app.Status) {
		return nil, apperrors.Conflictf("application %d is %s, expected %s", applicationID, app.Status, models.StatusApproved)
	}

	rows, err := s.appRepo.UpdateRenewal(applicationID, status)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, apperrors.Conflictf("application %d state changed, refresh and retry", applicationID)
	}

	s.audit(actor.ID, "set_renewal_status", fmt.Sprintf("Set renewal status %s on application %d", status, applicationID))
	return s.appRepo.GetByID(applicationID)
}

// GetApplication returns the application snapshot with its interview loaded.
// Applicants may only read their own applications.
func (s *ApplicationService) GetApplication(actor Actor, applicationID uint) (*models.Application, error) {
	app, err := s.loadOwned(actor, applicationID)
	if err != nil {
		return nil, err
	}
	interview, err := s.ivRepo.GetByApplicationID(applicationID)
	if err != nil {
		return nil, err
	}
	app.Interview = interview
	return app, nil
}

// GetByApplicant lists an applicant's own applications.
func (s *ApplicationService) GetByApplicant(actor Actor, applicantID uint) ([]models.Application, error) {
	if applicantID != actor.ID && !isStaff(actor.Roles) {
		return nil, apperrors.Authorizationf("not permitted")
	}
	return s.appRepo.GetByApplicantID(applicantID)
}

// GetByStatus lists applications in a given lifecycle status. Staff only.
func (s *ApplicationService) GetByStatus(actor Actor, status string) ([]models.Application, error) {
	if !isStaff(actor.Roles) {
		return nil, apperrors.Authorizationf("not permitted")
	}
	return s.appRepo.GetByStatus(status)
}

// GetByScholarship lists applications with applicant details. Staff only.
func (s *ApplicationService) GetByScholarship(actor Actor, scholarshipID uint) ([]models.ApplicationWithDetails, error) {
	if !isStaff(actor.Roles) {
		return nil, apperrors.Authorizationf("not permitted")
	}
	return s.appRepo.GetByScholarshipID(scholarshipID)
}

// GetRemarks returns the decrypted remark trail after validating the hash
// chain. Staff only; applicants never see reviewer remarks.
func (s *ApplicationService) GetRemarks(actor Actor, applicationID uint) ([]models.ApplicationRemark, error) {
	if !isStaff(actor.Roles) {
		return nil, apperrors.Authorizationf("not permitted")
	}

	remarks, err := s.remarkRepo.GetByApplicationID(applicationID)
	if err != nil {
		return nil, err
	}
	if err := securestore.ValidateChain(remarks); err != nil {
		return nil, fmt.Errorf("remark trail integrity check failed: %w", err)
	}

	for i := range remarks {
		plaintext, err := s.cipher.Decrypt(applicationID, remarks[i].Kind, remarks[i].Ciphertext, remarks[i].Nonce)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt remark %d: %w", remarks[i].ID, err)
		}
		remarks[i].Remark = plaintext
	}
	return remarks, nil
}

// appendRemark encrypts and chains one remark onto the application's trail.
// Caller must hold the application lock so the chain head cannot move.
func (s *ApplicationService) appendRemark(applicationID, authorID uint, kind, text string) error {
	ciphertext, nonce, err := s.cipher.Encrypt(applicationID, kind, text)
	if err != nil {
		return err
	}

	prev, err := s.remarkRepo.LatestChainHash(applicationID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	remark := &models.ApplicationRemark{
		ApplicationID: applicationID,
		AuthorID:      authorID,
		Kind:          kind,
		Ciphertext:    ciphertext,
		Nonce:         nonce,
		KeyVersion:    s.cipher.KeyVersion(),
		PrevChainHash: prev,
		ChainHash:     securestore.ChainHash(prev, applicationID, authorID, kind, ciphertext, now),
		CreatedAt:     now,
	}
	return s.remarkRepo.Append(remark)
}

// load fetches an application or returns NotFound.
func (s *ApplicationService) load(applicationID uint) (*models.Application, error) {
	app, err := s.appRepo.GetByID(applicationID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, apperrors.NotFoundf("application %d not found", applicationID)
	}
	return app, nil
}

// loadOwned fetches an application, additionally enforcing that pure
// applicants only touch their own.
func (s *ApplicationService) loadOwned(actor Actor, applicationID uint) (*models.Application, error) {
	app, err := s.load(applicationID)
	if err != nil {
		return nil, err
	}
	if app.ApplicantID != actor.ID && !isStaff(actor.Roles) {
		return nil, apperrors.Authorizationf("not permitted")
	}
	return app, nil
}

func (s *ApplicationService) audit(actorID uint, action, details string) {
	err := s.auditRepo.Create(&models.AuditLog{
		UserID:   &actorID,
		Action:   action,
		Resource: "application",
		Details:  details,
	})
	if err != nil {
		slog.Error("Failed to write audit log", "action", action, "error", err)
	}
}
