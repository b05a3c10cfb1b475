package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"scholartrack/internal/service"
)

// CreateApplicationRequest represents the request body for creating a draft
type CreateApplicationRequest struct {
	ScholarshipID uint   `json:"scholarship_id"`
	ApplicantID   *uint  `json:"applicant_id,omitempty"` // staff may draft on behalf of an applicant
	AcademicYear  string `json:"academic_year"`
	Semester      string `json:"semester"`
}

// AssignReviewerRequest represents the request body for reviewer assignment
type AssignReviewerRequest struct {
	ReviewerID uint `json:"reviewer_id"`
}

// VerifyRequest represents the request body for marking an application verified
type VerifyRequest struct {
	Comment string `json:"comment"`
}

// FlagIncompleteRequest represents the request body for flagging an application incomplete
type FlagIncompleteRequest struct {
	Reason string `json:"reason"`
}

// DecisionRequest represents the committee decision request body
type DecisionRequest struct {
	Approve   bool   `json:"approve"`
	Rationale string `json:"rationale,omitempty"`
}

// RevokeRequest represents the request body for revoking an approval
type RevokeRequest struct {
	Reason string `json:"reason"`
}

// StipendRequest represents the request body for recording stipend progress
type StipendRequest struct {
	Status     string   `json:"status"`
	Amount     *float64 `json:"amount,omitempty"`
	ReleasedAt *string  `json:"released_at,omitempty"` // RFC 3339
}

// RenewalRequest represents the request body for setting renewal status
type RenewalRequest struct {
	Status string `json:"status"`
}

// ApplicationHandler handles application lifecycle requests
type ApplicationHandler struct {
	appService  *service.ApplicationService
	userService *service.UserService
}

// NewApplicationHandler creates a new application handler
func NewApplicationHandler(appService *service.ApplicationService, userService *service.UserService) *ApplicationHandler {
	return &ApplicationHandler{
		appService:  appService,
		userService: userService,
	}
}

// Create creates a new draft application
// @Summary Create draft application
// @Description Create a draft application for an active scholarship
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param application body CreateApplicationRequest true "Application data"
// @Success 201 {object} models.Application
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Scholarship not found"
// @Router /applications [post]
func (h *ApplicationHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(r, h.userService)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	var req CreateApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	applicantID := actor.ID
	if req.ApplicantID != nil {
		applicantID = *req.ApplicantID
	}

	app, err := h.appService.CreateDraft(actor, req.ScholarshipID, applicantID, req.AcademicYear, req.Semester)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, app)
}

// Submit submits a draft application for review
// @Summary Submit application
// @Description Submit a draft application. Requires complete documents and met eligibility.
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Success 200 {object} models.Application
// @Failure 400 {object} map[string]string "Validation failed"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Application not found"
// @Failure 409 {object} map[string]string "Not in draft"
// @Router /applications/{id}/submit [post]
func (h *ApplicationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(actor service.Actor, id uint) (interface{}, error) {
		return h.appService.Submit(actor, id)
	})
}

// Resubmit returns an incomplete application to the review queue
// @Summary Resubmit application
// @Description Resubmit an application that was flagged incomplete
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Success 200 {object} models.Application
// @Failure 400 {object} map[string]string "Validation failed"
// @Failure 403 {object} map[string]string "Applicant only"
// @Failure 409 {object} map[string]string "Not incomplete"
// @Router /applications/{id}/resubmit [post]
func (h *ApplicationHandler) Resubmit(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(actor service.Actor, id uint) (interface{}, error) {
		return h.appService.Resubmit(actor, id)
	})
}

// AssignReviewer assigns a staff reviewer to an application
// @Summary Assign reviewer
// @Description Assign a staff member as reviewer of a submitted application
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Param reviewer body AssignReviewerRequest true "Reviewer"
// @Success 200 {object} models.Application
// @Failure 400 {object} map[string]string "Reviewer is not staff"
// @Failure 403 {object} map[string]string "Staff only"
// @Failure 409 {object} map[string]string "Wrong status"
// @Router /applications/{id}/reviewer [post]
func (h *ApplicationHandler) AssignReviewer(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(r, h.userService)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidApplicationID)
		return
	}

	var req AssignReviewerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	app, err := h.appService.AssignReviewer(actor, id, req.ReviewerID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, app)
}

// BeginVerification moves a submitted application into verification
// @Summary Begin verification
// @Description Move a submitted application with an assigned reviewer into verification
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Success 200 {object} models.Application
// @Failure 400 {object} map[string]string "No reviewer assigned"
// @Failure 403 {object} map[string]string "Staff only"
// @Failure 409 {object} map[string]string "Wrong status"
// @Router /applications/{id}/verification [post]
func (h *ApplicationHandler) BeginVerification(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(actor service.Actor, id uint) (interface{}, error) {
		return h.appService.BeginVerification(actor, id)
	})
}

// Verify marks an application's documents as verified
// @Summary Verify application
// @Description Mark an application under verification as verified
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Param verification body VerifyRequest true "Verifier comment"
// @Success 200 {object} models.Application
// @Failure 400 {object} map[string]string "Comment required"
// @Failure 403 {object} map[string]string "Staff only"
// @Failure 409 {object} map[string]string "Wrong status"
// @Router /applications/{id}/verify [post]
func (h *ApplicationHandler) Verify(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(r, h.userService)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidApplicationID)
		return
	}

	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	app, err := h.appService.Verify(actor, id, req.Comment)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, app)
}

// FlagIncomplete sends an application back to the applicant
// @Summary Flag incomplete
// @Description Flag an application under verification as incomplete
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Param flag body FlagIncompleteRequest true "Reason"
// @Success 200 {object} models.Application
// @Failure 400 {object} map[string]string "Reason required"
// @Failure 403 {object} map[string]string "Staff only"
// @Failure 409 {object} map[string]string "Wrong status"
// @Router /applications/{id}/incomplete [post]
func (h *ApplicationHandler) FlagIncomplete(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(r, h.userService)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidApplicationID)
		return
	}

	var req FlagIncompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	app, err := h.appService.FlagIncomplete(actor, id, req.Reason)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, app)
}

// BeginEvaluation moves a verified application into evaluation
// @Summary Begin evaluation
// @Description Move a verified application into committee evaluation
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Success 200 {object} models.Application
// @Failure 403 {object} map[string]string "Staff only"
// @Failure 409 {object} map[string]string "Wrong status"
// @Router /applications/{id}/evaluation [post]
func (h *ApplicationHandler) BeginEvaluation(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(actor service.Actor, id uint) (interface{}, error) {
		return h.appService.BeginEvaluation(actor, id)
	})
}

// Decide records the committee decision for an evaluated application
// @Summary Decide application
// @Description Approve or reject an application under evaluation. Approval reserves a scholarship slot.
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Param decision body DecisionRequest true "Decision"
// @Success 200 {object} models.Application
// @Failure 400 {object} map[string]string "Evaluation not finished"
// @Failure 403 {object} map[string]string "Staff only"
// @Failure 409 {object} map[string]string "Wrong status or no slots available"
// @Router /applications/{id}/decision [post]
func (h *ApplicationHandler) Decide(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(r, h.userService)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidApplicationID)
		return
	}

	var req DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	app, err := h.appService.Decide(actor, id, req.Approve, req.Rationale)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, app)
}

// Revoke withdraws an approved application and frees its slot
// @Summary Revoke approval
// @Description Revoke an approved application (admin only). Releases the reserved slot.
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Param revocation body RevokeRequest true "Reason"
// @Success 200 {object} models.Application
// @Failure 400 {object} map[string]string "Reason required"
// @Failure 403 {object} map[string]string "Admin only"
// @Failure 409 {object} map[string]string "Not approved"
// @Router /applications/{id}/revoke [post]
func (h *ApplicationHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(r, h.userService)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidApplicationID)
		return
	}

	var req RevokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	app, err := h.appService.Revoke(actor, id, req.Reason)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, app)
}

// RecordStipend updates stipend progress for an approved application
// @Summary Record stipend
// @Description Record stipend disbursement progress for an approved application
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Param stipend body StipendRequest true "Stipend data"
// @Success 200 {object} models.Application
// @Failure 400 {object} map[string]string "Invalid stipend data"
// @Failure 403 {object} map[string]string "Staff only"
// @Failure 409 {object} map[string]string "Not approved"
// @Router /applications/{id}/stipend [put]
func (h *ApplicationHandler) RecordStipend(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(r, h.userService)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidApplicationID)
		return
	}

	var req StipendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	var releasedAt *time.Time
	if req.ReleasedAt != nil {
		parsed, err := time.Parse(time.RFC3339, *req.ReleasedAt)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid released_at timestamp (expected RFC 3339)")
			return
		}
		releasedAt = &parsed
	}

	app, err := h.appService.RecordStipend(actor, id, req.Status, req.Amount, releasedAt)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, app)
}

// SetRenewalStatus updates the renewal standing of an approved application
// @Summary Set renewal status
// @Description Set renewal standing for an approved application
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Param renewal body RenewalRequest true "Renewal status"
// @Success 200 {object} models.Application
// @Failure 400 {object} map[string]string "Invalid status"
// @Failure 403 {object} map[string]string "Staff only"
// @Failure 409 {object} map[string]string "Not approved"
// @Router /applications/{id}/renewal [put]
func (h *ApplicationHandler) SetRenewalStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(r, h.userService)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidApplicationID)
		return
	}

	var req RenewalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	app, err := h.appService.SetRenewalStatus(actor, id, req.Status)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, app)
}

// Get retrieves a single application
// @Summary Get application
// @Description Get an application with its interview. Applicants only see their own.
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Success 200 {object} models.Application
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Application not found"
// @Router /applications/{id} [get]
func (h *ApplicationHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(actor service.Actor, id uint) (interface{}, error) {
		return h.appService.GetApplication(actor, id)
	})
}

// ListMine lists the authenticated applicant's applications
// @Summary List own applications
// @Description List all applications of the authenticated user
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Application
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /applications/mine [get]
func (h *ApplicationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(r, h.userService)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	apps, err := h.appService.GetByApplicant(actor, actor.ID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, apps)
}

// ListByStatus lists applications in a given status (staff only)
// @Summary List applications by status
// @Description List all applications in the given lifecycle status (staff only)
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param status query string true "Application status"
// @Success 200 {array} models.Application
// @Failure 400 {object} map[string]string "Unknown status"
// @Failure 403 {object} map[string]string "Staff only"
// @Router /applications [get]
func (h *ApplicationHandler) ListByStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(r, h.userService)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	apps, err := h.appService.GetByStatus(actor, r.URL.Query().Get("status"))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, apps)
}

// ListByScholarship lists applications for a scholarship (staff only)
// @Summary List scholarship applications
// @Description List all applications for a scholarship with applicant details (staff only)
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Scholarship ID"
// @Success 200 {array} models.ApplicationWithDetails
// @Failure 403 {object} map[string]string "Staff only"
// @Router /scholarships/{id}/applications [get]
func (h *ApplicationHandler) ListByScholarship(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(r, h.userService)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidScholarshipID)
		return
	}

	apps, err := h.appService.GetByScholarship(actor, id)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, apps)
}

// GetRemarks returns the decrypted remark trail of an application
// @Summary Get application remarks
// @Description Get the decrypted, chain-verified remark trail (staff only)
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Success 200 {array} models.ApplicationRemark
// @Failure 403 {object} map[string]string "Staff only"
// @Failure 409 {object} map[string]string "Remark chain integrity failure"
// @Router /applications/{id}/remarks [get]
func (h *ApplicationHandler) GetRemarks(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(actor service.Actor, id uint) (interface{}, error) {
		return h.appService.GetRemarks(actor, id)
	})
}

// transition handles the common shape of body-less application operations:
// resolve the actor, parse the ID, call the service, respond.
func (h *ApplicationHandler) transition(w http.ResponseWriter, r *http.Request, op func(service.Actor, uint) (interface{}, error)) {
	actor, ok := requestActor(r, h.userService)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidApplicationID)
		return
	}

	result, err := op(actor, id)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}
