package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"scholartrack/internal/models"
	"scholartrack/internal/service"
)

// ScholarshipRequest represents the request body for creating a scholarship
type ScholarshipRequest struct {
	Name                string  `json:"name"`
	Description         *string `json:"description,omitempty"`
	SlotsTotal          int     `json:"slots_total"`
	Deadline            string  `json:"deadline"` // RFC 3339
	EligibilityCriteria string  `json:"eligibility_criteria,omitempty"`
	AcademicYear        string  `json:"academic_year"`
}

// ScholarshipHandler handles scholarship program requests
type ScholarshipHandler struct {
	scholarshipService *service.ScholarshipService
	userService        *service.UserService
}

// NewScholarshipHandler creates a new scholarship handler
func NewScholarshipHandler(scholarshipService *service.ScholarshipService, userService *service.UserService) *ScholarshipHandler {
	return &ScholarshipHandler{
		scholarshipService: scholarshipService,
		userService:        userService,
	}
}

// Create creates a new scholarship program in draft status
// @Summary Create scholarship
// @Description Create a scholarship program with a fixed slot capacity (staff only)
// @Tags Scholarships
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param scholarship body ScholarshipRequest true "Scholarship data"
// @Success 201 {object} models.Scholarship
// @Failure 400 {object} map[string]string "Invalid scholarship data"
// @Failure 403 {object} map[string]string "Staff only"
// @Router /scholarships [post]
func (h *ScholarshipHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(r, h.userService)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	var req ScholarshipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	deadline, err := time.Parse(time.RFC3339, req.Deadline)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid deadline timestamp (expected RFC 3339)")
		return
	}

	scholarship := &models.Scholarship{
		Name:                req.Name,
		Description:         req.Description,
		SlotsTotal:          req.SlotsTotal,
		Deadline:            deadline,
		EligibilityCriteria: req.EligibilityCriteria,
		AcademicYear:        req.AcademicYear,
	}

	created, err := h.scholarshipService.Create(actor, scholarship)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

// Publish moves a draft scholarship to upcoming
// @Summary Publish scholarship
// @Description Publish a draft scholarship (staff only)
// @Tags Scholarships
// @Produce json
// @Security BearerAuth
// @Param id path int true "Scholarship ID"
// @Success 200 {object} models.Scholarship
// @Failure 403 {object} map[string]string "Staff only"
// @Failure 409 {object} map[string]string "Not in draft"
// @Router /scholarships/{id}/publish [post]
func (h *ScholarshipHandler) Publish(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, h.scholarshipService.Publish)
}

// Activate opens a scholarship for applications
// @Summary Activate scholarship
// @Description Open an upcoming scholarship for applications (staff only)
// @Tags Scholarships
// @Produce json
// @Security BearerAuth
// @Param id path int true "Scholarship ID"
// @Success 200 {object} models.Scholarship
// @Failure 403 {object} map[string]string "Staff only"
// @Failure 409 {object} map[string]string "Not upcoming"
// @Router /scholarships/{id}/activate [post]
func (h *ScholarshipHandler) Activate(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, h.scholarshipService.Activate)
}

// Deactivate closes a scholarship to new applications
// @Summary Deactivate scholarship
// @Description Close an active scholarship (staff only)
// @Tags Scholarships
// @Produce json
// @Security BearerAuth
// @Param id path int true "Scholarship ID"
// @Success 200 {object} models.Scholarship
// @Failure 403 {object} map[string]string "Staff only"
// @Failure 409 {object} map[string]string "Not active"
// @Router /scholarships/{id}/deactivate [post]
func (h *ScholarshipHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, h.scholarshipService.Deactivate)
}

// Get retrieves a scholarship
// @Summary Get scholarship
// @Description Get a scholarship with its current slot availability
// @Tags Scholarships
// @Produce json
// @Security BearerAuth
// @Param id path int true "Scholarship ID"
// @Success 200 {object} models.Scholarship
// @Failure 404 {object} map[string]string "Scholarship not found"
// @Router /scholarships/{id} [get]
func (h *ScholarshipHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidScholarshipID)
		return
	}

	scholarship, err := h.scholarshipService.Get(id)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, scholarship)
}

// List lists scholarships visible to the user
// @Summary List scholarships
// @Description List scholarships. Staff see all, applicants see active ones.
// @Tags Scholarships
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Scholarship
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /scholarships [get]
func (h *ScholarshipHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(r, h.userService)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	scholarships, err := h.scholarshipService.List(actor)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, scholarships)
}

func (h *ScholarshipHandler) changeStatus(w http.ResponseWriter, r *http.Request, op func(service.Actor, uint) (*models.Scholarship, error)) {
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

	scholarship, err := op(actor, id)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, scholarship)
}
