package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/resend/resend-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSender struct {
	got *resend.SendEmailRequest
	err error
}

func (f *fakeSender) SendWithContext(_ context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	f.got = params
	if f.err != nil {
		return nil, f.err
	}
	return &resend.SendEmailResponse{Id: "email-1"}, nil
}

func TestResendMailerSend(t *testing.T) {
	sender := &fakeSender{}
	m := newResendMailer(sender, "noreply@taxflow.id", "Taxflow", zap.NewNop())

	err := m.Send(context.Background(), Message{
		To:      "finance@example.com",
		Subject: "Approval Required: PO",
		HTML:    "<p>hi</p>",
		Text:    "hi",
		Tags:    map[string]string{"type": "approval_request"},
	})
	require.NoError(t, err)
	require.NotNil(t, sender.got)
	assert.Equal(t, "Taxflow <noreply@taxflow.id>", sender.got.From)
	assert.Equal(t, []string{"finance@example.com"}, sender.got.To)
	assert.Equal(t, "Approval Required: PO", sender.got.Subject)
	assert.Equal(t, []resend.Tag{{Name: "type", Value: "approval_request"}}, sender.got.Tags)
	assert.NotEmpty(t, sender.got.Headers["X-Entity-Ref-ID"])
}

func TestResendMailerErrors(t *testing.T) {
	sender := &fakeSender{err: errors.New("rate limited")}
	m := newResendMailer(sender, "noreply@taxflow.id", "", zap.NewNop())

	err := m.Send(context.Background(), Message{To: "a@b.c", Subject: "x"})
	assert.ErrorContains(t, err, "rate limited")
	assert.Equal(t, "noreply@taxflow.id", sender.got.From)

	err = m.Send(context.Background(), Message{To: "  "})
	assert.Error(t, err)
}

func TestNewWithoutKeyIsNop(t *testing.T) {
	m := New("", "noreply@taxflow.id", "Taxflow", zap.NewNop())
	assert.False(t, m.Enabled())
	assert.NoError(t, m.Send(context.Background(), Message{}))
}

func TestRenderNotification(t *testing.T) {
	msg, err := RenderNotification(NotificationEmail{
		To:        "budi@example.com",
		FullName:  "Budi",
		Title:     "PO Rejected",
		Body:      "Your PO has been rejected. Reason: <missing NPWP>",
		Priority:  "urgent",
		Type:      "approval_rejected",
		ActionURL: "https://app.taxflow.id/po/123",
	})
	require.NoError(t, err)
	assert.Equal(t, "[URGENT] PO Rejected", msg.Subject)
	assert.Contains(t, msg.HTML, "&lt;missing NPWP&gt;")
	assert.Contains(t, msg.HTML, `href="https://app.taxflow.id/po/123"`)
	assert.Contains(t, msg.Text, "https://app.taxflow.id/po/123")
	assert.Equal(t, "approval_rejected", msg.Tags["type"])
}
