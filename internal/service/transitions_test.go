package service

import (
	"testing"

	"scholartrack/internal/models"
)

func TestRoleAllowed(t *testing.T) {
	tests := []struct {
		name    string
		event   string
		roles   []string
		allowed bool
	}{
		{"applicant submits", EventSubmit, []string{models.RoleApplicant}, true},
		{"staff submits on behalf", EventSubmit, []string{models.RoleOSASStaff}, true},
		{"applicant resubmits", EventResubmit, []string{models.RoleApplicant}, true},
		{"staff cannot resubmit", EventResubmit, []string{models.RoleOSASStaff}, false},
		{"applicant cannot verify", EventVerify, []string{models.RoleApplicant}, false},
		{"applicant cannot schedule interview", EventScheduleInterview, []string{models.RoleApplicant}, false},
		{"applicant cannot decide", EventDecide, []string{models.RoleApplicant}, false},
		{"staff decides", EventDecide, []string{models.RoleOSASStaff}, true},
		{"admin decides", EventDecide, []string{models.RoleAdmin}, true},
		{"staff cannot revoke", EventRevoke, []string{models.RoleOSASStaff}, false},
		{"admin revokes", EventRevoke, []string{models.RoleAdmin}, true},
		{"applicant may request reschedule", EventRescheduleInterview, []string{models.RoleApplicant}, true},
		{"multiple roles use the strongest", EventVerify, []string{models.RoleApplicant, models.RoleAdmin}, true},
		{"no roles", EventVerify, nil, false},
		{"unknown event", "promote", []string{models.RoleAdmin}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := roleAllowed(tt.event, tt.roles); got != tt.allowed {
				t.Errorf("roleAllowed(%s, %v) = %v, want %v", tt.event, tt.roles, got, tt.allowed)
			}
		})
	}
}

func TestStatusAllowed(t *testing.T) {
	tests := []struct {
		name    string
		event   string
		status  string
		allowed bool
	}{
		{"submit from draft", EventSubmit, models.StatusDraft, true},
		{"submit from submitted", EventSubmit, models.StatusSubmitted, false},
		{"resubmit from incomplete", EventResubmit, models.StatusIncomplete, true},
		{"resubmit from draft", EventResubmit, models.StatusDraft, false},
		{"verify from under_verification", EventVerify, models.StatusUnderVerification, true},
		{"verify from submitted", EventVerify, models.StatusSubmitted, false},
		{"decide from under_evaluation", EventDecide, models.StatusUnderEvaluation, true},
		{"decide from verified", EventDecide, models.StatusVerified, false},
		{"revoke from approved", EventRevoke, models.StatusApproved, true},
		{"revoke from rejected", EventRevoke, models.StatusRejected, false},
		{"stipend only while approved", EventRecordStipend, models.StatusUnderEvaluation, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusAllowed(tt.event, tt.status); got != tt.allowed {
				t.Errorf("statusAllowed(%s, %s) = %v, want %v", tt.event, tt.status, got, tt.allowed)
			}
		})
	}
}

func TestEveryEventHasRolesAndSources(t *testing.T) {
	for event, rule := range transitionRules {
		if len(rule.roles) == 0 {
			t.Errorf("event %s has an empty role allow-list", event)
		}
		if len(rule.from) == 0 {
			t.Errorf("event %s has no source statuses", event)
		}
	}
}

func TestIsStaff(t *testing.T) {
	if isStaff([]string{models.RoleApplicant}) {
		t.Error("applicant should not count as staff")
	}
	if !isStaff([]string{models.RoleOSASStaff}) {
		t.Error("osas_staff should count as staff")
	}
	if !isStaff([]string{models.RoleApplicant, models.RoleAdmin}) {
		t.Error("admin should count as staff")
	}
}
