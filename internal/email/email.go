package email

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/smtp"
	"time"

	"scholartrack/internal/config"
)

// Service handles email operations
type Service struct {
	config *config.EmailConfig
}

// NewService creates a new email service
func NewService(cfg *config.EmailConfig) *Service {
	return &Service{
		config: cfg,
	}
}

// SendSubmissionConfirmation confirms that an application entered the review queue
func (s *Service) SendSubmissionConfirmation(to, name, scholarshipName string, applicationID uint, resubmission bool) error {
	subject := "Application Received - ScholarTrack"
	intro := "Your scholarship application has been received and is now in the review queue."
	if resubmission {
		subject = "Resubmission Received - ScholarTrack"
		intro = "Your updated application has been received and returns to the review queue."
	}

	applicationURL := fmt.Sprintf("%s/applications/%d", s.config.PortalURL, applicationID)

	body := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Application Received</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #4a90e2;">Application Received</h2>
        <p>Hello %s,</p>
        <p>%s</p>
        <div style="background-color: #e3f2fd; border-left: 4px solid #2196f3; padding: 15px; margin: 20px 0;">
            <p style="margin: 5px 0;"><strong>Scholarship:</strong> %s</p>
            <p style="margin: 5px 0;"><strong>Application:</strong> #%d</p>
        </div>
        <p>You will be notified as your application moves through verification and evaluation.
        Please keep your contact details up to date.</p>
        <div style="text-align: center; margin: 30px 0;">
            <a href="%s" style="background-color: #4a90e2; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px; display: inline-block;">View Application</a>
        </div>
        <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
        <p style="color: #999; font-size: 12px;">This is an automated email. Please do not reply.</p>
    </div>
</body>
</html>
`, name, intro, scholarshipName, applicationID, applicationURL)

	return s.sendEmail(to, subject, body)
}

// SendIncompleteNotification tells the applicant what is missing and that
// they can fix and resubmit
func (s *Service) SendIncompleteNotification(to, name string, applicationID uint, reason string) error {
	subject := "Action Required: Your Application Is Incomplete"

	applicationURL := fmt.Sprintf("%s/applications/%d/edit", s.config.PortalURL, applicationID)

	body := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Application Incomplete</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #e74c3c;">Your Application Needs Attention</h2>
        <p>Hello %s,</p>
        <p>During verification, your application #%d was flagged as incomplete.</p>
        <div style="background-color: #fff3cd; border-left: 4px solid #ffc107; padding: 15px; margin: 20px 0;">
            <p style="margin: 5px 0;"><strong>What is missing:</strong></p>
            <p style="margin: 5px 0;">%s</p>
        </div>
        <p>Please provide the missing requirements and resubmit. Your application will
        return to the review queue and does not lose its place in the cycle.</p>
        <div style="text-align: center; margin: 30px 0;">
            <a href="%s" style="background-color: #4a90e2; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px; display: inline-block;">Complete Application</a>
        </div>
        <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
        <p style="color: #999; font-size: 12px;">This is an automated email. Please do not reply.</p>
    </div>
</body>
</html>
`, name, applicationID, reason, applicationURL)

	return s.sendEmail(to, subject, body)
}

// SendApprovalNotification congratulates an applicant on being awarded a slot
func (s *Service) SendApprovalNotification(to, name, scholarshipName string, applicationID uint) error {
	subject := "Congratulations! Your Scholarship Application Was Approved"

	applicationURL := fmt.Sprintf("%s/applications/%d", s.config.PortalURL, applicationID)

	body := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Application Approved</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #27ae60;">Congratulations, %s!</h2>
        <p>Your application #%d for <strong>%s</strong> has been approved.
        A slot has been reserved for you and you are now a beneficiary of this program.</p>
        <p><strong>Next steps:</strong></p>
        <ul>
            <li>Watch for stipend disbursement notices on your portal account.</li>
            <li>Keep your enrollment documents current for renewal evaluation.</li>
            <li>Contact the scholarship office if any of your details change.</li>
        </ul>
        <div style="text-align: center; margin: 30px 0;">
            <a href="%s" style="background-color: #27ae60; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px; display: inline-block;">View Award Details</a>
        </div>
        <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
        <p style="color: #999; font-size: 12px;">This is an automated email. Please do not reply.</p>
    </div>
</body>
</html>
`, name, applicationID, scholarshipName, applicationURL)

	return s.sendEmail(to, subject, body)
}

// SendRejectionNotification informs an applicant of a rejection or revocation
func (s *Service) SendRejectionNotification(to, name, scholarshipName string, applicationID uint, revoked bool) error {
	subject := "Update on Your Scholarship Application"

	outcome := "was not approved in this review cycle"
	if revoked {
		outcome = "has had its award revoked"
	}

	body := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Application Decision</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #4a90e2;">Application Decision</h2>
        <p>Hello %s,</p>
        <p>We regret to inform you that your application #%d for <strong>%s</strong> %s.</p>
        <p>You may apply again in a future academic term. If you believe this decision
        was made in error, please contact the scholarship office.</p>
        <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
        <p style="color: #999; font-size: 12px;">This is an automated email. Please do not reply.</p>
    </div>
</body>
</html>
`, name, applicationID, scholarshipName, outcome)

	return s.sendEmail(to, subject, body)
}

// SendInterviewNotice sends the schedule or an updated schedule for an interview
func (s *Service) SendInterviewNotice(to, name string, applicationID uint, when time.Time, location string, rescheduled bool) error {
	subject := "Interview Scheduled - ScholarTrack"
	intro := "An interview has been scheduled for your scholarship application."
	if rescheduled {
		subject = "Interview Rescheduled - ScholarTrack"
		intro = "Your scholarship interview has been moved to a new slot."
	}

	body := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Interview Notice</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #4a90e2;">Interview Notice</h2>
        <p>Hello %s,</p>
        <p>%s</p>
        <div style="background-color: #e3f2fd; border-left: 4px solid #2196f3; padding: 15px; margin: 20px 0;">
            <p style="margin: 5px 0;"><strong>Application:</strong> #%d</p>
            <p style="margin: 5px 0;"><strong>Date and time:</strong> %s</p>
            <p style="margin: 5px 0;"><strong>Location:</strong> %s</p>
        </div>
        <p>Please bring a valid school ID and arrive ten minutes early. If you cannot
        attend, request a reschedule through the portal as soon as possible.</p>
        <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
        <p style="color: #999; font-size: 12px;">This is an automated email. Please do not reply.</p>
    </div>
</body>
</html>
`, name, intro, applicationID, when.Format("Monday, 02 January 2006 at 15:04 MST"), location)

	return s.sendEmail(to, subject, body)
}

// SendStipendNotice informs a beneficiary about a recorded disbursement
func (s *Service) SendStipendNotice(to, name string, applicationID uint, amount float64, status string) error {
	subject := "Stipend Disbursement Update - ScholarTrack"

	body := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Stipend Update</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #4a90e2;">Stipend Disbursement Update</h2>
        <p>Hello %s,</p>
        <div style="background-color: #d4edda; border-left: 4px solid #28a745; padding: 15px; margin: 20px 0;">
            <p style="margin: 5px 0;"><strong>Application:</strong> #%d</p>
            <p style="margin: 5px 0;"><strong>Amount:</strong> %.2f</p>
            <p style="margin: 5px 0;"><strong>Status:</strong> %s</p>
        </div>
        <p>If the status is "released", the amount should reflect in your disbursement
        account within a few business days.</p>
        <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
        <p style="color: #999; font-size: 12px;">This is an automated email. Please do not reply.</p>
    </div>
</body>
</html>
`, name, applicationID, amount, status)

	return s.sendEmail(to, subject, body)
}

// SendDraftReminderEmail nudges an applicant about an unsubmitted draft
func (s *Service) SendDraftReminderEmail(to, name, scholarshipName string, applicationID uint, daysSinceCreation int) error {
	subject := "Reminder: Your Scholarship Application Is Still a Draft"

	applicationURL := fmt.Sprintf("%s/applications/%d/edit", s.config.PortalURL, applicationID)

	body := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Draft Reminder</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #4a90e2;">Your Application Is Waiting</h2>
        <p>Hello %s,</p>
        <p>You started an application for <strong>%s</strong> but have not submitted it yet.</p>
        <div style="background-color: #e3f2fd; border-left: 4px solid #2196f3; padding: 15px; margin: 20px 0;">
            <p style="margin: 5px 0;"><strong>Status:</strong> Draft</p>
            <p style="margin: 5px 0;"><strong>Created:</strong> %d days ago</p>
        </div>
        <p>Applications that remain drafts past the scholarship deadline cannot be considered.</p>
        <div style="text-align: center; margin: 30px 0;">
            <a href="%s" style="background-color: #4a90e2; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px; display: inline-block;">Continue Application</a>
        </div>
        <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
        <p style="color: #999; font-size: 12px;">You will receive this reminder weekly while the application remains a draft.</p>
    </div>
</body>
</html>
`, name, scholarshipName, daysSinceCreation, applicationURL)

	return s.sendEmail(to, subject, body)
}

// SendChainAlert sends a critical alert to admins when remark chain validation fails
func (s *Service) SendChainAlert(to, adminName string, totalApplications, validApplications int, failedApplications, errs []string) error {
	subject := "CRITICAL: Remark Chain Validation Failed - Data Integrity Issue"

	errorListHTML := ""
	for i, err := range errs {
		if i >= 20 { // Limit to first 20 errors in email
			errorListHTML += fmt.Sprintf("<li style='color: #721c24;'><em>... and %d more errors (see logs for details)</em></li>", len(errs)-20)
			break
		}
		errorListHTML += fmt.Sprintf("<li style='color: #721c24;'>%s</li>", err)
	}

	failedList := ""
	for i, appID := range failedApplications {
		if i >= 10 { // Limit to first 10 application IDs
			failedList += fmt.Sprintf("<li><code>... and %d more applications</code></li>", len(failedApplications)-10)
			break
		}
		failedList += fmt.Sprintf("<li><code>%s</code></li>", appID)
	}

	body := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>CRITICAL: Remark Chain Validation Failed</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 700px; margin: 0 auto; padding: 20px;">
        <div style="background-color: #f8d7da; border-left: 5px solid #dc3545; padding: 20px; margin-bottom: 20px;">
            <h2 style="color: #721c24; margin-top: 0;">CRITICAL SECURITY ALERT</h2>
            <p style="font-size: 16px; font-weight: bold; color: #721c24;">Remark Chain Validation Failed - Potential Data Tampering Detected</p>
        </div>
        <p>Hello %s,</p>
        <p>The scheduled validation of the application remark hash chains found
        <strong>inconsistencies</strong>. This may indicate tampering with encrypted
        reviewer remarks.</p>
        <div style="background-color: #fff3cd; border: 2px solid #ffc107; padding: 15px; margin: 20px 0;">
            <h3 style="margin-top: 0; color: #856404;">Validation result:</h3>
            <table style="width: 100%%; border-collapse: collapse;">
                <tr>
                    <td style="padding: 8px; border-bottom: 1px solid #ddd;"><strong>Applications checked:</strong></td>
                    <td style="padding: 8px; border-bottom: 1px solid #ddd; text-align: right;">%d</td>
                </tr>
                <tr style="background-color: #d4edda;">
                    <td style="padding: 8px; border-bottom: 1px solid #ddd;"><strong>Valid chains:</strong></td>
                    <td style="padding: 8px; border-bottom: 1px solid #ddd; text-align: right; color: #155724;">%d</td>
                </tr>
                <tr style="background-color: #f8d7da;">
                    <td style="padding: 8px;"><strong>Broken chains:</strong></td>
                    <td style="padding: 8px; text-align: right; color: #721c24; font-weight: bold;">%d</td>
                </tr>
            </table>
        </div>
        <h3 style="color: #dc3545;">Affected applications:</h3>
        <ul style="background-color: #f8f9fa; padding: 15px; border-left: 3px solid #dc3545;">
            %s
        </ul>
        <h3 style="color: #dc3545;">Error details:</h3>
        <ul style="background-color: #f8f9fa; padding: 15px; border-left: 3px solid #dc3545; font-family: 'Courier New', monospace; font-size: 13px;">
            %s
        </ul>
        <div style="background-color: #d1ecf1; border-left: 5px solid #0c5460; padding: 15px; margin: 20px 0;">
            <h3 style="margin-top: 0; color: #0c5460;">Immediate actions required:</h3>
            <ol style="margin: 10px 0;">
                <li><strong>Check system logs:</strong> Review backend logs for suspicious activity</li>
                <li><strong>Check Vault:</strong> Review the Vault audit logs for unauthorized access</li>
                <li><strong>Database forensics:</strong> Examine the PostgreSQL logs</li>
                <li><strong>Escalate:</strong> Inform the security team</li>
            </ol>
        </div>
        <div style="background-color: #e7f3ff; padding: 15px; margin: 20px 0; border-radius: 5px;">
            <p style="margin: 5px 0;"><strong>Validation time:</strong> %s</p>
            <p style="margin: 5px 0;"><strong>System:</strong> ScholarTrack Remark Trail</p>
            <p style="margin: 5px 0;"><strong>Job:</strong> Scheduled Remark Chain Verification</p>
        </div>
        <hr style="border: none; border-top: 2px solid #dc3545; margin: 30px 0;">
        <p style="color: #999; font-size: 12px;">This is an automated security alert from the ScholarTrack system. Contact the development team with questions.</p>
    </div>
</body>
</html>
`, adminName, totalApplications, validApplications, len(failedApplications), failedList, errorListHTML, time.Now().Format("2006-01-02 15:04:05 MST"))

	return s.sendEmail(to, subject, body)
}

// sendEmail sends an email using SMTP
func (s *Service) sendEmail(to, subject, body string) error {
	// Create the email message
	headers := make(map[string]string)
	headers["From"] = s.config.SMTPFrom
	headers["To"] = to
	headers["Subject"] = subject
	headers["MIME-Version"] = "1.0"
	headers["Content-Type"] = "text/html; charset=UTF-8"

	// Build the message
	var message bytes.Buffer
	for k, v := range headers {
		message.WriteString(fmt.Sprintf("%s: %s\r\n", k, v))
	}
	message.WriteString("\r\n")
	message.WriteString(body)

	// Connect to SMTP server
	addr := net.JoinHostPort(s.config.SMTPHost, s.config.SMTPPort)
	slog.Debug("Attempting to connect to SMTP server",
		"address", addr,
		"host", s.config.SMTPHost,
		"port", s.config.SMTPPort,
	)

	// Establish connection
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		slog.Error("Failed to connect to SMTP server",
			"address", addr,
			"error", err,
		)
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer func(conn net.Conn) {
		err := conn.Close()
		if err != nil {
			slog.Error("Failed to close SMTP connection", "error", err)
		}
	}(conn)

	// Create SMTP client
	client, err := smtp.NewClient(conn, s.config.SMTPHost)
	if err != nil {
		slog.Error("Failed to create SMTP client", "error", err)
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer func(client *smtp.Client) {
		err := client.Close()
		if err != nil {
			slog.Error("Failed to close SMTP client", "error", err)
		}
	}(client)

	// Authenticate only if credentials are provided and not empty
	// For development (e.g., Mailpit), no authentication is needed
	if s.config.SMTPUsername != "" && s.config.SMTPPassword != "" {
		auth := smtp.PlainAuth("", s.config.SMTPUsername, s.config.SMTPPassword, s.config.SMTPHost)
		// Try to authenticate, but don't fail if it's not supported (e.g., Mailpit)
		_ = client.Auth(auth)
	}

	// Set sender
	if err := client.Mail(s.config.SMTPFrom); err != nil {
		slog.Error("Failed to set sender",
			"from", s.config.SMTPFrom,
			"error", err,
		)
		return fmt.Errorf("failed to set sender: %w", err)
	}

	// Set recipient
	if err := client.Rcpt(to); err != nil {
		slog.Error("Failed to set recipient",
			"to", to,
			"error", err,
		)
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	// Send message
	wc, err := client.Data()
	if err != nil {
		slog.Error("Failed to initiate data transfer", "error", err)
		return fmt.Errorf("failed to initiate data transfer: %w", err)
	}
	defer func(wc io.WriteCloser) {
		err := wc.Close()
		if err != nil {
			slog.Error("Failed to close write closer", "error", err)
		}
	}(wc)

	if _, err := wc.Write(message.Bytes()); err != nil {
		slog.Error("Failed to write message", "error", err)
		return fmt.Errorf("failed to write message: %w", err)
	}

	slog.Info("Email sent successfully", "to", to)

	return nil
}
