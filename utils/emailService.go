package utils

import (
	"fmt"
	"html"
	"log"
	"time"

	"github.com/roxas19/DRP/config"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Mailer sends one HTML message to each recipient.
type Mailer interface {
	SendEmail(to []string, subject string, htmlBody string) error
}

// SendGridMailer delivers mail through the SendGrid v3 API. With an empty
// APIKey messages are logged and dropped.
type SendGridMailer struct {
	APIKey string
	Sender string
}

func NewSendGridMailer() *SendGridMailer {
	return &SendGridMailer{APIKey: config.AppConfig.SendGridAPIKey, Sender: config.AppConfig.EmailSender}
}

// Generic Send Email
func (m *SendGridMailer) SendEmail(to []string, subject string, htmlBody string) error {
	if len(to) == 0 {
		return nil
	}
	if m.APIKey == "" {
		log.Printf("[EMAIL] SendGrid not configured, skipping %q to %d recipient(s)", subject, len(to))
		return nil
	}

	msg := mail.NewV3Mail()
	msg.SetFrom(mail.NewEmail("E-Learning", m.Sender))
	msg.Subject = subject
	// one personalization per recipient keeps addresses private
	for _, addr := range to {
		p := mail.NewPersonalization()
		p.AddTos(mail.NewEmail("", addr))
		msg.AddPersonalizations(p)
	}
	msg.AddContent(mail.NewContent("text/html", htmlBody))

	resp, err := sendgrid.NewSendClient(m.APIKey).Send(msg)
	if err != nil {
		log.Printf("[EMAIL] Error sending %q: %v", subject, err)
		return err
	}
	if resp.StatusCode >= 300 {
		log.Printf("[EMAIL] SendGrid rejected %q: %d %s", subject, resp.StatusCode, resp.Body)
		return fmt.Errorf("sendgrid: status %d", resp.StatusCode)
	}
	log.Printf("[EMAIL] Sent %q to %d recipient(s)", subject, len(to))
	return nil
}

func getEmailTemplate(title string, bodyContent string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #F6F6F6; margin: 0; padding: 0; }
			.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; }
			.header { background-color: #1B3A5C; padding: 30px; text-align: center; }
			.header h1 { color: #FFFFFF; margin: 0; font-size: 24px; }
			.content { padding: 40px 30px; color: #1B3A5C; line-height: 1.6; }
			.info-box { background: #E8F0FE; padding: 15px; border-radius: 4px; margin: 20px 0; }
			.footer { background-color: #F6F6F6; padding: 20px; text-align: center; font-size: 12px; color: #666666; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header"><h1>E-LEARNING</h1></div>
			<div class="content">
				<h2>%s</h2>
				%s
			</div>
			<div class="footer">You are receiving this because you are enrolled on the platform.</div>
		</div>
	</body>
	</html>
	`, title, bodyContent)
}

// EnrollmentEmail builds the confirmation sent after a successful enrollment.
func EnrollmentEmail(name, courseTitle string) (string, string) {
	subject := "Enrollment confirmed: " + courseTitle
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>You are now enrolled in <strong>%s</strong>.</p>
		<div class="info-box">Open the course to see this week's tasks and resources.</div>
	`, html.EscapeString(name), html.EscapeString(courseTitle))
	return subject, getEmailTemplate("Welcome to the course", body)
}

// LivestreamReminderEmail builds the reminder for a stream scheduled today.
func LivestreamReminderEmail(courseTitle, streamTitle string, start time.Time) (string, string) {
	subject := fmt.Sprintf("Reminder: %s goes live today", courseTitle)
	body := fmt.Sprintf(`
		<p>A livestream for <strong>%s</strong> is scheduled today.</p>
		<div class="info-box"><strong>%s</strong><br>Starts at %s</div>
	`, html.EscapeString(courseTitle), html.EscapeString(streamTitle), start.Format("15:04 MST"))
	return subject, getEmailTemplate("Livestream today", body)
}

// SendEnrollmentEmail fires the confirmation without blocking the caller.
func SendEnrollmentEmail(m Mailer, email, name, courseTitle string) {
	subject, body := EnrollmentEmail(name, courseTitle)
	go func() {
		if err := m.SendEmail([]string{email}, subject, body); err != nil {
			log.Printf("[ENROLLMENT] confirmation mail to %s failed: %v", email, err)
		}
	}()
}
