package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"scholartrack/internal/service"
)

// ScheduleInterviewRequest represents the request body for scheduling an interview
type ScheduleInterviewRequest struct {
	InterviewerID uint    `json:"interviewer_id"`
	ScheduledAt   string  `json:"scheduled_at"` // RFC 3339
	Location      *string `json:"location,omitempty"`
	Type          string  `json:"interview_type"`
	Notes         *string `json:"notes,omitempty"`
}

// RescheduleInterviewRequest represents the request body for rescheduling.
// Applicants send only a reason; staff must additionally send the new time.
type RescheduleInterviewRequest struct {
	Reason      string  `json:"reason"`
	ScheduledAt *string `json:"scheduled_at,omitempty"` // RFC 3339, staff only
	Location    *string `json:"location,omitempty"`
}

// CompleteInterviewRequest represents the request body for completing an interview
type CompleteInterviewRequest struct {
	Scores         map[string]float64 `json:"scores"`
	Recommendation string             `json:"recommendation"`
	Notes          *string            `json:"notes,omitempty"`
}

// InterviewHandler handles interview sub-workflow requests
type InterviewHandler struct {
	interviewService *service.InterviewService
	userService      *service.UserService
}

// NewInterviewHandler creates a new interview handler
func NewInterviewHandler(interviewService *service.InterviewService, userService *service.UserService) *InterviewHandler {
	return &InterviewHandler{
		interviewService: interviewService,
		userService:      userService,
	}
}

// Schedule schedules the interview for an application under evaluation
// @Summary Schedule interview
// @Description Schedule the interview for an application under evaluation (staff only)
// @Tags Interviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Param interview body ScheduleInterviewRequest true "Interview data"
// @Success 201 {object} models.Interview
// @Failure 400 {object} map[string]string "Invalid interview data"
// @Failure 403 {object} map[string]string "Staff only"
// @Failure 409 {object} map[string]string "Interview already exists"
// @Router /applications/{id}/interview [post]
func (h *InterviewHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(r, h.userService)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	applicationID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidApplicationID)
		return
	}

	var req ScheduleInterviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	when, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid scheduled_at timestamp (expected RFC 3339)")
		return
	}

	interview, err := h.interviewService.Schedule(actor, applicationID, req.InterviewerID, when, req.Location, req.Type, req.Notes)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, interview)
}

// Reschedule reschedules or requests rescheduling of an interview
// @Summary Reschedule interview
// @Description Staff move the interview to a new time; applicants request rescheduling with a reason only
// @Tags Interviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Param reschedule body RescheduleInterviewRequest true "Reschedule data"
// @Success 200 {object} models.Interview
// @Failure 400 {object} map[string]string "Invalid reschedule data"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 409 {object} map[string]string "Interview not in scheduled state"
// @Router /applications/{id}/interview/reschedule [post]
func (h *InterviewHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(r, h.userService)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	applicationID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidApplicationID)
		return
	}

	var req RescheduleInterviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	var newWhen *time.Time
	if req.ScheduledAt != nil {
		parsed, err := time.Parse(time.RFC3339, *req.ScheduledAt)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid scheduled_at timestamp (expected RFC 3339)")
			return
		}
		newWhen = &parsed
	}

	interview, err := h.interviewService.Reschedule(actor, applicationID, req.Reason, newWhen, req.Location)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, interview)
}

// Complete records the outcome of an interview
// @Summary Complete interview
// @Description Record scores and recommendation for a scheduled interview (staff only)
// @Tags Interviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Param outcome body CompleteInterviewRequest true "Interview outcome"
// @Success 200 {object} models.Interview
// @Failure 400 {object} map[string]string "Invalid scores or recommendation"
// @Failure 403 {object} map[string]string "Staff only"
// @Failure 409 {object} map[string]string "Already completed"
// @Router /applications/{id}/interview/complete [post]
func (h *InterviewHandler) Complete(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(r, h.userService)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	applicationID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidApplicationID)
		return
	}

	var req CompleteInterviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	interview, err := h.interviewService.Complete(actor, applicationID, req.Scores, req.Recommendation, req.Notes)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, interview)
}

// Get retrieves the interview of an application
// @Summary Get interview
// @Description Get the interview owned by an application. Applicants only see their own.
// @Tags Interviews
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Success 200 {object} models.Interview
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "No interview scheduled"
// @Router /applications/{id}/interview [get]
func (h *InterviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(r, h.userService)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	applicationID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidApplicationID)
		return
	}

	interview, err := h.interviewService.GetByApplication(actor, applicationID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, interview)
}
