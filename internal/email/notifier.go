package email

import (
	"log/slog"

	"scholartrack/internal/events"
	"scholartrack/internal/models"
)

// UserDirectory resolves recipients for notifications.
type UserDirectory interface {
	GetByID(id uint) (*models.User, error)
}

// ScholarshipDirectory resolves scholarship names for notifications.
type ScholarshipDirectory interface {
	GetByID(id uint) (*models.Scholarship, error)
}

// Notifier turns domain events into applicant emails.
type Notifier struct {
	emails       *Service
	users        UserDirectory
	scholarships ScholarshipDirectory
}

// NewNotifier creates a notifier backed by the given email service
func NewNotifier(emails *Service, users UserDirectory, scholarships ScholarshipDirectory) *Notifier {
	return &Notifier{
		emails:       emails,
		users:        users,
		scholarships: scholarships,
	}
}

// Register subscribes the notifier to all lifecycle events it handles.
func (n *Notifier) Register(d *events.Dispatcher) {
	d.Subscribe(events.ApplicationSubmitted{}.Name(), n.handle)
	d.Subscribe(events.ApplicationFlaggedIncomplete{}.Name(), n.handle)
	d.Subscribe(events.ApplicationApproved{}.Name(), n.handle)
	d.Subscribe(events.ApplicationRejected{}.Name(), n.handle)
	d.Subscribe(events.InterviewScheduled{}.Name(), n.handle)
	d.Subscribe(events.InterviewRescheduled{}.Name(), n.handle)
	d.Subscribe(events.StipendRecorded{}.Name(), n.handle)
}

func (n *Notifier) handle(e events.Event) {
	var err error

	switch ev := e.(type) {
	case events.ApplicationSubmitted:
		user, scholarship, lookupErr := n.lookup(ev.ApplicantID, ev.ScholarshipID)
		if lookupErr != nil || user == nil {
			err = lookupErr
			break
		}
		err = n.emails.SendSubmissionConfirmation(user.Email, user.FirstName, scholarship.Name, ev.ApplicationID, ev.Resubmission)

	case events.ApplicationFlaggedIncomplete:
		user, lookupErr := n.users.GetByID(ev.ApplicantID)
		if lookupErr != nil || user == nil {
			err = lookupErr
			break
		}
		err = n.emails.SendIncompleteNotification(user.Email, user.FirstName, ev.ApplicationID, ev.Reason)

	case events.ApplicationApproved:
		user, scholarship, lookupErr := n.lookup(ev.ApplicantID, ev.ScholarshipID)
		if lookupErr != nil || user == nil {
			err = lookupErr
			break
		}
		err = n.emails.SendApprovalNotification(user.Email, user.FirstName, scholarship.Name, ev.ApplicationID)

	case events.ApplicationRejected:
		user, scholarship, lookupErr := n.lookup(ev.ApplicantID, ev.ScholarshipID)
		if lookupErr != nil || user == nil {
			err = lookupErr
			break
		}
		err = n.emails.SendRejectionNotification(user.Email, user.FirstName, scholarship.Name, ev.ApplicationID, ev.Revoked)

	case events.InterviewScheduled:
		user, lookupErr := n.users.GetByID(ev.ApplicantID)
		if lookupErr != nil || user == nil {
			err = lookupErr
			break
		}
		err = n.emails.SendInterviewNotice(user.Email, user.FirstName, ev.ApplicationID, ev.ScheduledAt, ev.Location, false)

	case events.InterviewRescheduled:
		user, lookupErr := n.users.GetByID(ev.ApplicantID)
		if lookupErr != nil || user == nil {
			err = lookupErr
			break
		}
		err = n.emails.SendInterviewNotice(user.Email, user.FirstName, ev.ApplicationID, ev.ScheduledAt, ev.Location, true)

	case events.StipendRecorded:
		user, lookupErr := n.users.GetByID(ev.ApplicantID)
		if lookupErr != nil || user == nil {
			err = lookupErr
			break
		}
		err = n.emails.SendStipendNotice(user.Email, user.FirstName, ev.ApplicationID, ev.Amount, ev.Status)
	}

	if err != nil {
		slog.Error("Failed to send notification email", "event", e.Name(), "error", err)
	}
}

func (n *Notifier) lookup(applicantID, scholarshipID uint) (*models.User, *models.Scholarship, error) {
	user, err := n.users.GetByID(applicantID)
	if err != nil {
		return nil, nil, err
	}
	scholarship, err := n.scholarships.GetByID(scholarshipID)
	if err != nil {
		return nil, nil, err
	}
	if user == nil || scholarship == nil {
		return nil, nil, nil
	}
	return user, scholarship, nil
}
