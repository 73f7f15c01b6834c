// Package notify delivers notifications by e-mail through Resend.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/google/uuid"
	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"
)

// Message is a single outgoing e-mail.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
	Tags    map[string]string
}

// Mailer sends e-mail. Implementations must be safe for concurrent use.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
	Enabled() bool
}

// emailSender is the subset of resend.EmailsSvc used here.
type emailSender interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

type ResendMailer struct {
	emails emailSender
	from   string
	logger *zap.Logger
}

// NewResendMailer returns a Mailer backed by the Resend API.
func NewResendMailer(apiKey, fromEmail, fromName string, logger *zap.Logger) *ResendMailer {
	client := resend.NewClient(apiKey)
	return newResendMailer(client.Emails, fromEmail, fromName, logger)
}

func newResendMailer(emails emailSender, fromEmail, fromName string, logger *zap.Logger) *ResendMailer {
	from := fromEmail
	if fromName != "" {
		from = fmt.Sprintf("%s <%s>", fromName, fromEmail)
	}
	return &ResendMailer{emails: emails, from: from, logger: logger}
}

func (m *ResendMailer) Enabled() bool { return true }

func (m *ResendMailer) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return fmt.Errorf("recipient is required")
	}

	tags := make([]resend.Tag, 0, len(msg.Tags))
	for k, v := range msg.Tags {
		tags = append(tags, resend.Tag{Name: k, Value: v})
	}

	params := &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
		Headers: map[string]string{
			"X-Entity-Ref-ID": uuid.New().String(),
		},
		Tags: tags,
	}

	sent, err := m.emails.SendWithContext(ctx, params)
	if err != nil {
		m.logger.Error("failed to send email",
			zap.Error(err),
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject))
		return fmt.Errorf("failed to send email: %w", err)
	}

	m.logger.Info("email sent",
		zap.String("email_id", sent.Id),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject))
	return nil
}

// NopMailer discards every message. Used when no API key is configured.
type NopMailer struct{}

func (NopMailer) Send(context.Context, Message) error { return nil }
func (NopMailer) Enabled() bool                       { return false }

// New returns a ResendMailer, or a NopMailer when apiKey is empty.
func New(apiKey, fromEmail, fromName string, logger *zap.Logger) Mailer {
	if apiKey == "" {
		return NopMailer{}
	}
	return NewResendMailer(apiKey, fromEmail, fromName, logger)
}

// NotificationEmail is the data rendered into a notification e-mail.
type NotificationEmail struct {
	To        string
	FullName  string
	Title     string
	Body      string
	Priority  string
	Type      string
	ActionURL string
}

var notificationHTML = template.Must(template.New("notification").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif;">
  <p>Hi {{.FullName}},</p>
  <h2>{{.Title}}</h2>
  <p>{{.Body}}</p>
  {{if .ActionURL}}<p><a href="{{.ActionURL}}">Open in taxflow</a></p>{{end}}
</body>
</html>`))

// RenderNotification builds the e-mail for a notification.
func RenderNotification(n NotificationEmail) (Message, error) {
	var buf bytes.Buffer
	if err := notificationHTML.Execute(&buf, n); err != nil {
		return Message{}, fmt.Errorf("failed to render notification email: %w", err)
	}

	text := fmt.Sprintf("Hi %s,\n\n%s\n\n%s\n", n.FullName, n.Title, n.Body)
	if n.ActionURL != "" {
		text += "\n" + n.ActionURL + "\n"
	}

	subject := n.Title
	if n.Priority == "urgent" {
		subject = "[URGENT] " + subject
	}

	return Message{
		To:      n.To,
		Subject: subject,
		HTML:    buf.String(),
		Text:    text,
		Tags: map[string]string{
			"category": "notification",
			"type":     n.Type,
		},
	}, nil
}
