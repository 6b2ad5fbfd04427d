// internal/services/notification_service.go
package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/farmveda/agritrust-backend/internal/config"
	"github.com/farmveda/agritrust-backend/internal/models"
)

// NotificationService emails farmers about verification decisions. Delivery
// is best effort and never blocks or fails a workflow transition.
type NotificationService struct {
	db     *gorm.DB
	config *config.Config
}

func NewNotificationService(db *gorm.DB, config *config.Config) *NotificationService {
	return &NotificationService{
		db:     db,
		config: config,
	}
}

// SendVerificationDecision notifies the farmer that a verification record
// reached a decision.
func (s *NotificationService) SendVerificationDecision(farmerID uuid.UUID, verificationID string, status models.RecordStatus, reason string) {
	var farmer models.User
	if err := s.db.First(&farmer, farmerID).Error; err != nil {
		logrus.WithError(err).WithField("farmer_id", farmerID).Warn("Cannot notify farmer: lookup failed")
		return
	}

	var subject, tmpl string
	switch status {
	case models.RecordStatusApproved:
		subject = "Your product passed verification"
		tmpl = approvedEmailTemplate
	case models.RecordStatusRejected:
		subject = "Your product verification was rejected"
		tmpl = rejectedEmailTemplate
	case models.RecordStatusRequiresMoreInfo:
		subject = "More information needed for your product verification"
		tmpl = moreInfoEmailTemplate
	default:
		return
	}

	data := map[string]interface{}{
		"Username":       farmer.Username,
		"VerificationID": verificationID,
		"Reason":         reason,
		"DashboardURL":   fmt.Sprintf("%s/dashboard/verifications", s.config.Frontend.BaseURL),
		"PlatformName":   "AgriTrust",
	}

	body, err := s.renderTemplate(tmpl, data)
	if err != nil {
		logrus.WithError(err).Error("Failed to render verification email")
		return
	}

	if err := s.sendEmail(farmer.Email, subject, body); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"farmer_id":       farmerID,
			"verification_id": verificationID,
		}).Warn("Failed to send verification email")
	}
}

func (s *NotificationService) renderTemplate(tmpl string, data map[string]interface{}) (string, error) {
	t, err := template.New("email").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse email template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute email template: %w", err)
	}

	return buf.String(), nil
}

func (s *NotificationService) sendEmail(to, subject, body string) error {
	if s.config.Email.SMTPUsername == "" {
		// Local development without SMTP credentials.
		logrus.WithFields(logrus.Fields{"to": to, "subject": subject}).Info("Email suppressed (no SMTP credentials)")
		return nil
	}

	auth := smtp.PlainAuth("", s.config.Email.SMTPUsername, s.config.Email.SMTPPassword, s.config.Email.SMTPHost)
	addr := s.config.Email.SMTPHost + ":" + s.config.Email.SMTPPort

	msg := []byte(fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.config.Email.FromName, s.config.Email.FromEmail, to, subject, body))

	return smtp.SendMail(addr, auth, s.config.Email.FromEmail, []string{to}, msg)
}

const approvedEmailTemplate = `
<html><body>
<h2>Congratulations, {{.Username}}!</h2>
<p>Your product has been verified as authentic. Its verification code is
<strong>{{.VerificationID}}</strong> and the decision has been anchored on the
{{.PlatformName}} ledger. Buyers can now see your listing.</p>
<p><a href="{{.DashboardURL}}">View your verifications</a></p>
</body></html>`

const rejectedEmailTemplate = `
<html><body>
<h2>Hello {{.Username}},</h2>
<p>Unfortunately your product verification <strong>{{.VerificationID}}</strong>
was rejected.</p>
<p>Reason: {{.Reason}}</p>
<p>You may list the product again after addressing the issues; it will go
through a fresh verification.</p>
<p><a href="{{.DashboardURL}}">View your verifications</a></p>
</body></html>`

const moreInfoEmailTemplate = `
<html><body>
<h2>Hello {{.Username}},</h2>
<p>Our verification team needs more information to complete the review of
<strong>{{.VerificationID}}</strong>. Please upload the requested evidence from
your dashboard to resume the process.</p>
<p><a href="{{.DashboardURL}}">Provide more information</a></p>
</body></html>`
