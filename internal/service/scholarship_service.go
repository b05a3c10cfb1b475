package service

import (
	"fmt"
	"log/slog"
	"time"

	"scholartrack/internal/apperrors"
	"scholartrack/internal/models"
	"scholartrack/internal/repository"
)

// ScholarshipService manages scholarship programs. Slot counters are owned
// by the capacity ledger; this service never touches them directly.
type ScholarshipService struct {
	schRepo   *repository.ScholarshipRepository
	auditRepo *repository.AuditRepository
}

// NewScholarshipService creates a new scholarship service
func NewScholarshipService(schRepo *repository.ScholarshipRepository, auditRepo *repository.AuditRepository) *ScholarshipService {
	return &ScholarshipService{
		schRepo:   schRepo,
		auditRepo: auditRepo,
	}
}

// Create creates a scholarship in draft status with all slots available.
func (s *ScholarshipService) Create(actor Actor, scholarship *models.Scholarship) (*models.Scholarship, error) {
	if !isStaff(actor.Roles) {
		return nil, apperrors.Authorizationf("not permitted")
	}
	if scholarship.Name == "" {
		return nil, apperrors.Validationf("scholarship name is required")
	}
	if scholarship.SlotsTotal <= 0 {
		return nil, apperrors.Validationf("slots_total must be positive")
	}
	if !scholarship.Deadline.After(time.Now()) {
		return nil, apperrors.Validationf("deadline must be in the future")
	}
	if scholarship.AcademicYear == "" {
		return nil, apperrors.Validationf("academic year is required")
	}

	scholarship.Status = models.ScholarshipDraft
	if err := s.schRepo.Create(scholarship); err != nil {
		return nil, err
	}

	s.audit(actor.ID, "create", fmt.Sprintf("Created scholarship %d (%s, %d slots)", scholarship.ID, scholarship.Name, scholarship.SlotsTotal))
	return scholarship, nil
}

// Publish moves a draft scholarship to upcoming.
func (s *ScholarshipService) Publish(actor Actor, id uint) (*models.Scholarship, error) {
	return s.changeStatus(actor, id, models.ScholarshipDraft, models.ScholarshipUpcoming, "publish")
}

// Activate opens an upcoming scholarship for applications.
func (s *ScholarshipService) Activate(actor Actor, id uint) (*models.Scholarship, error) {
	return s.changeStatus(actor, id, models.ScholarshipUpcoming, models.ScholarshipActive, "activate")
}

// Deactivate closes an active scholarship.
func (s *ScholarshipService) Deactivate(actor Actor, id uint) (*models.Scholarship, error) {
	return s.changeStatus(actor, id, models.ScholarshipActive, models.ScholarshipInactive, "deactivate")
}

func (s *ScholarshipService) changeStatus(actor Actor, id uint, from, to, action string) (*models.Scholarship, error) {
	if !isStaff(actor.Roles) {
		return nil, apperrors.Authorizationf("not permitted")
	}

	rows, err := s.schRepo.UpdateStatus(id, from, to)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		scholarship, getErr := s.schRepo.GetByID(id)
		if getErr != nil {
			return nil, getErr
		}
		if scholarship == nil {
			return nil, apperrors.NotFoundf("scholarship %d not found", id)
		}
		return nil, apperrors.Conflictf("scholarship %d is %s, expected %s", id, scholarship.Status, from)
	}

	s.audit(actor.ID, action, fmt.Sprintf("Scholarship %d: %s -> %s", id, from, to))
	return s.schRepo.GetByID(id)
}

// Get returns a scholarship by id.
func (s *ScholarshipService) Get(id uint) (*models.Scholarship, error) {
	scholarship, err := s.schRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if scholarship == nil {
		return nil, apperrors.NotFoundf("scholarship %d not found", id)
	}
	return scholarship, nil
}

// ListActive returns scholarships open for applications.
func (s *ScholarshipService) ListActive() ([]models.Scholarship, error) {
	return s.schRepo.GetByStatus(models.ScholarshipActive)
}

// List returns all scholarships. Staff only; applicants see the active list.
func (s *ScholarshipService) List(actor Actor) ([]models.Scholarship, error) {
	if !isStaff(actor.Roles) {
		return s.ListActive()
	}
	return s.schRepo.GetAll()
}

func (s *ScholarshipService) audit(actorID uint, action, details string) {
	err := s.auditRepo.Create(&models.AuditLog{
		UserID:   &actorID,
		Action:   action,
		Resource: "scholarship",
		Details:  details,
	})
	if err != nil {
		slog.Error("Failed to write audit log", "action", action, "error", err)
	}
}
