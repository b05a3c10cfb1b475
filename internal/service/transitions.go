package service

import (
	"scholartrack/internal/models"
)

// Lifecycle events. Every orchestrator operation maps to exactly one event;
// the tables below carry the role allow-list and the statuses the event may
// fire from so that adding a role or transition is a table edit, not new
// branching.
const (
	EventSubmit              = "submit"
	EventResubmit            = "resubmit"
	EventAssignReviewer      = "assign_reviewer"
	EventBeginVerification   = "begin_verification"
	EventVerify              = "verify"
	EventFlagIncomplete      = "flag_incomplete"
	EventBeginEvaluation     = "begin_evaluation"
	EventScheduleInterview   = "schedule_interview"
	EventRescheduleInterview = "reschedule_interview"
	EventCompleteInterview   = "complete_interview"
	EventDecide              = "decide"
	EventRevoke              = "revoke"
	EventRecordStipend       = "record_stipend"
	EventSetRenewalStatus    = "set_renewal_status"
)

// transitionRule describes where an event may fire from and who may fire it.
type transitionRule struct {
	from  []string
	roles []string
}

var transitionRules = map[string]transitionRule{
	EventSubmit: {
		from:  []string{models.StatusDraft},
		roles: []string{models.RoleApplicant, models.RoleOSASStaff, models.RoleAdmin},
	},
	EventResubmit: {
		from:  []string{models.StatusIncomplete},
		roles: []string{models.RoleApplicant},
	},
	EventAssignReviewer: {
		from:  []string{models.StatusSubmitted},
		roles: []string{models.RoleOSASStaff, models.RoleAdmin},
	},
	EventBeginVerification: {
		from:  []string{models.StatusSubmitted},
		roles: []string{models.RoleOSASStaff, models.RoleAdmin},
	},
	EventVerify: {
		from:  []string{models.StatusUnderVerification},
		roles: []string{models.RoleOSASStaff, models.RoleAdmin},
	},
	EventFlagIncomplete: {
		from:  []string{models.StatusUnderVerification},
		roles: []string{models.RoleOSASStaff, models.RoleAdmin},
	},
	EventBeginEvaluation: {
		from:  []string{models.StatusVerified},
		roles: []string{models.RoleOSASStaff, models.RoleAdmin},
	},
	EventScheduleInterview: {
		from:  []string{models.StatusUnderEvaluation},
		roles: []string{models.RoleOSASStaff, models.RoleAdmin},
	},
	EventRescheduleInterview: {
		from:  []string{models.StatusUnderEvaluation},
		roles: []string{models.RoleApplicant, models.RoleOSASStaff, models.RoleAdmin},
	},
	EventCompleteInterview: {
		from:  []string{models.StatusUnderEvaluation},
		roles: []string{models.RoleOSASStaff, models.RoleAdmin},
	},
	EventDecide: {
		from:  []string{models.StatusUnderEvaluation},
		roles: []string{models.RoleOSASStaff, models.RoleAdmin},
	},
	EventRevoke: {
		from:  []string{models.StatusApproved},
		roles: []string{models.RoleAdmin},
	},
	EventRecordStipend: {
		from:  []string{models.StatusApproved},
		roles: []string{models.RoleOSASStaff, models.RoleAdmin},
	},
	EventSetRenewalStatus: {
		from:  []string{models.StatusApproved},
		roles: []string{models.RoleOSASStaff, models.RoleAdmin},
	},
}

// roleAllowed reports whether any of the caller's roles may fire the event.
func roleAllowed(event string, roles []string) bool {
	rule, ok := transitionRules[event]
	if !ok {
		return false
	}
	for _, allowed := range rule.roles {
		for _, role := range roles {
			if role == allowed {
				return true
			}
		}
	}
	return false
}

// statusAllowed reports whether the event may fire from the given status.
func statusAllowed(event, status string) bool {
	rule, ok := transitionRules[event]
	if !ok {
		return false
	}
	for _, from := range rule.from {
		if from == status {
			return true
		}
	}
	return false
}

func hasRole(roles []string, name string) bool {
	for _, role := range roles {
		if role == name {
			return true
		}
	}
	return false
}

// isStaff reports whether the caller carries a staff or admin role.
func isStaff(roles []string) bool {
	return hasRole(roles, models.RoleOSASStaff) || hasRole(roles, models.RoleAdmin)
}
