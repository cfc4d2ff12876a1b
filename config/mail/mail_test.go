package mail

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRenderPasswordReset(t *testing.T) {
	subject, body, err := RenderPasswordReset(PasswordReset{
		To:        "a@h.org",
		ResetURL:  "http://localhost:3000/reset-password/staff/abc123",
		Role:      "staff",
		ExpiresIn: 10 * time.Minute,
	})
	require.NoError(t, err)

	assert.Equal(t, "Password Reset Request", subject)
	assert.Contains(t, body, `href="http://localhost:3000/reset-password/staff/abc123"`)
	assert.Contains(t, body, "your staff account")
	assert.Contains(t, body, "expire in 10 minutes")
}

func TestRenderPasswordReset_EscapesInput(t *testing.T) {
	_, body, err := RenderPasswordReset(PasswordReset{Role: "<script>", ResetURL: "javascript:alert(1)"})
	require.NoError(t, err)
	assert.NotContains(t, body, "<script>")
	assert.NotContains(t, body, `href="javascript:`)
}

func TestLogSender(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := LogSender{Logger: zap.New(core)}

	err := s.SendPasswordReset(context.Background(), PasswordReset{To: "a@h.org", ResetURL: "http://x/reset", Role: "admin"})
	require.NoError(t, err)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "http://x/reset", logs.All()[0].ContextMap()["reset_url"])
}

func TestSMTPSender_BadRecipient(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{Host: "localhost", Port: 2525, From: `"Patient Registration" <noreply@patientregistration.com>`})
	err := s.SendPasswordReset(context.Background(), PasswordReset{To: "not an address", ResetURL: "http://x"})
	require.Error(t, err)
}
