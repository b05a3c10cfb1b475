package scheduler

import (
	"fmt"
	"log/slog"
	"time"

	"scholartrack/internal/config"
	"scholartrack/internal/email"
	"scholartrack/internal/repository"
	"scholartrack/internal/securestore"
)

// Scheduler runs the periodic portal tasks: deactivating scholarships past
// their deadline, reminding applicants about stale drafts, and validating
// the remark hash chains.
type Scheduler struct {
	appRepo      *repository.ApplicationRepository
	schRepo      *repository.ScholarshipRepository
	userRepo     *repository.UserRepository
	remarkRepo   *repository.RemarkRepository
	emailService *email.Service
	config       *config.SchedulerConfig
	stopChan     chan bool
}

// NewScheduler creates a new scheduler
func NewScheduler(
	appRepo *repository.ApplicationRepository,
	schRepo *repository.ScholarshipRepository,
	userRepo *repository.UserRepository,
	remarkRepo *repository.RemarkRepository,
	emailService *email.Service,
	cfg *config.SchedulerConfig,
) *Scheduler {
	return &Scheduler{
		appRepo:      appRepo,
		schRepo:      schRepo,
		userRepo:     userRepo,
		remarkRepo:   remarkRepo,
		emailService: emailService,
		config:       cfg,
		stopChan:     make(chan bool),
	}
}

// Start starts all enabled tasks
func (s *Scheduler) Start() {
	slog.Info("Starting scheduler",
		"deadline_sweep_enabled", s.config.EnableDeadlineSweep,
		"draft_reminders_enabled", s.config.EnableDraftReminders,
		"chain_check_enabled", s.config.EnableChainCheck)

	if s.config.EnableDeadlineSweep {
		go s.runInterval(s.config.DeadlineSweepInterval, "deadline_sweep", s.sweepDeadlines)
	}
	if s.config.EnableDraftReminders {
		go s.runInterval(s.config.DraftReminderInterval, "draft_reminders", s.sendDraftReminders)
	}
	if s.config.EnableChainCheck {
		go s.runInterval(s.config.ChainCheckInterval, "chain_check", s.validateRemarkChains)
	}

	slog.Info("Scheduler started")
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	slog.Info("Stopping scheduler")
	close(s.stopChan)
}

// runInterval runs a task at regular intervals, once immediately on start
func (s *Scheduler) runInterval(interval time.Duration, taskName string, task func()) {
	slog.Info("Starting interval task", "task", taskName, "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	task()

	for {
		select {
		case <-ticker.C:
			slog.Info("Running interval task", "task", taskName)
			task()
		case <-s.stopChan:
			return
		}
	}
}

// sweepDeadlines deactivates active scholarships whose deadline has passed
func (s *Scheduler) sweepDeadlines() {
	count, err := s.schRepo.DeactivateExpired(time.Now())
	if err != nil {
		slog.Error("Deadline sweep failed", "error", err)
		return
	}
	if count > 0 {
		slog.Info("Deadline sweep deactivated scholarships", "count", count)
	}
}

// sendDraftReminders nudges applicants whose draft is older than the reminder interval
func (s *Scheduler) sendDraftReminders() {
	cutoff := time.Now().Add(-s.config.DraftReminderInterval)
	drafts, err := s.appRepo.GetDraftsOlderThan(cutoff)
	if err != nil {
		slog.Error("Failed to get stale draft applications", "error", err)
		return
	}

	remindersSent := 0
	for _, app := range drafts {
		user, err := s.userRepo.GetByID(app.ApplicantID)
		if err != nil || user == nil {
			slog.Error("Failed to get applicant", "applicant_id", app.ApplicantID, "error", err)
			continue
		}

		scholarshipName := ""
		if scholarship, err := s.schRepo.GetByID(app.ScholarshipID); err == nil && scholarship != nil {
			scholarshipName = scholarship.Name
		}

		daysSinceCreation := int(time.Since(app.CreatedAt).Hours() / 24)
		err = s.emailService.SendDraftReminderEmail(user.Email, user.FirstName, scholarshipName, app.ID, daysSinceCreation)
		if err != nil {
			slog.Error("Failed to send draft reminder",
				"application_id", app.ID,
				"user_email", user.Email,
				"error", err,
			)
			continue
		}

		remindersSent++
	}

	slog.Info("Draft reminders completed", "reminders_sent", remindersSent)
}

// validateRemarkChains checks every application's remark hash chain and
// alerts admins when a chain does not verify
func (s *Scheduler) validateRemarkChains() {
	slog.Info("Starting remark chain validation")

	applicationIDs, err := s.remarkRepo.ApplicationIDs()
	if err != nil {
		slog.Error("Failed to list applications with remarks", "error", err)
		return
	}
	if len(applicationIDs) == 0 {
		return
	}

	var failed []string
	var allErrors []string
	valid := 0

	for _, appID := range applicationIDs {
		remarks, err := s.remarkRepo.GetByApplicationID(appID)
		if err != nil {
			slog.Error("Failed to load remark trail", "application_id", appID, "error", err)
			failed = append(failed, fmt.Sprintf("%d", appID))
			allErrors = append(allErrors, fmt.Sprintf("Application %d: %v", appID, err))
			continue
		}

		if err := securestore.ValidateChain(remarks); err != nil {
			slog.Warn("Remark chain validation failed", "application_id", appID, "error", err)
			failed = append(failed, fmt.Sprintf("%d", appID))
			allErrors = append(allErrors, fmt.Sprintf("Application %d: %v", appID, err))
			continue
		}
		valid++
	}

	slog.Info("Remark chain validation completed",
		"total_applications", len(applicationIDs),
		"valid", valid,
		"failed", len(failed),
	)

	if len(failed) > 0 {
		s.sendChainAlerts(len(applicationIDs), valid, failed, allErrors)
	}
}

// sendChainAlerts emails every admin about failed chains
func (s *Scheduler) sendChainAlerts(total, valid int, failed, errs []string) {
	admins, err := s.userRepo.GetByRoleName("admin")
	if err != nil {
		slog.Error("Failed to get admin users for chain alert", "error", err)
		return
	}
	if len(admins) == 0 {
		slog.Warn("No admin users found to send chain alert")
		return
	}

	alertsSent := 0
	for _, admin := range admins {
		if admin.Email == "" {
			continue
		}
		if err := s.emailService.SendChainAlert(admin.Email, admin.FirstName, total, valid, failed, errs); err != nil {
			slog.Error("Failed to send chain alert", "admin_email", admin.Email, "error", err)
			continue
		}
		alertsSent++
	}

	slog.Info("Chain alerts completed", "alerts_sent", alertsSent)
}
