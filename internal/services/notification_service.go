package services

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"
	"text/template"

	"github.com/labstack/gommon/log"
)

// Notifier delivers outbound mail. Delivery failures must never fail the
// operation that triggered them; callers fire and forget.
type Notifier interface {
	SendEmail(ctx context.Context, recipient, subject, body string) error
}

const onboardingTemplate = `Hello {{.FirstName}},

An account has been created for you at {{.OrganizationName}}.

Sign in with:
  Email:    {{.Email}}
  Password: {{.Password}}

Please change your password after your first login.
`

// OnboardingEmail renders the invite mail sent to a newly created staff
// member, including the generated one-time password.
func OnboardingEmail(firstName, organizationName, email, password string) (string, error) {
	tmpl, err := template.New("onboarding").Parse(onboardingTemplate)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	err = tmpl.Execute(&buf, map[string]string{
		"FirstName":        firstName,
		"OrganizationName": organizationName,
		"Email":            email,
		"Password":         password,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

type smtpNotifier struct {
	addr string
	from string
	auth smtp.Auth
}

// NewSMTPNotifier sends mail through a plain SMTP relay. Host and from are
// required; username may be empty for an unauthenticated relay.
func NewSMTPNotifier(addr, from, username, password, host string) Notifier {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &smtpNotifier{addr: addr, from: from, auth: auth}
}

func (n *smtpNotifier) SendEmail(_ context.Context, recipient, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", n.from, recipient, subject, body)
	return smtp.SendMail(n.addr, n.auth, n.from, []string{recipient}, []byte(msg))
}

type logNotifier struct{}

// NewLogNotifier logs mail instead of sending it. Used in development and
// whenever no SMTP relay is configured.
func NewLogNotifier() Notifier {
	return &logNotifier{}
}

func (n *logNotifier) SendEmail(_ context.Context, recipient, subject, _ string) error {
	log.Infof("email (not sent): to=%s subject=%q", recipient, subject)
	return nil
}
