package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

type PasswordReset struct {
	To        string
	ResetURL  string
	Role      string
	ExpiresIn time.Duration
}

// Sender delivers the password reset email. A returned error means the
// message was not handed to the mail server.
type Sender interface {
	SendPasswordReset(ctx context.Context, msg PasswordReset) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Secure   bool
	User     string
	Password string
	From     string
}

type SMTPSender struct {
	cfg SMTPConfig
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) client() (*gomail.Client, error) {
	opts := []gomail.Option{
		gomail.WithPort(s.cfg.Port),
		gomail.WithTimeout(15 * time.Second),
	}
	if s.cfg.Secure {
		opts = append(opts, gomail.WithSSL())
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSOpportunistic))
	}
	if s.cfg.User != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.cfg.User),
			gomail.WithPassword(s.cfg.Password),
		)
	}
	return gomail.NewClient(s.cfg.Host, opts...)
}

func (s *SMTPSender) SendPasswordReset(ctx context.Context, msg PasswordReset) error {
	subject, body, err := RenderPasswordReset(msg)
	if err != nil {
		return err
	}

	m := gomail.NewMsg()
	if err := m.From(s.cfg.From); err != nil {
		return fmt.Errorf("mail from %q: %w", s.cfg.From, err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("mail to %q: %w", msg.To, err)
	}
	m.Subject(subject)
	m.SetBodyString(gomail.TypeTextHTML, body)

	c, err := s.client()
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// LogSender writes the reset link to the log instead of mailing it. Used in
// development when no SMTP account is configured.
type LogSender struct {
	Logger *zap.Logger
}

func (l LogSender) SendPasswordReset(_ context.Context, msg PasswordReset) error {
	l.Logger.Info("password reset email (not sent)",
		zap.String("to", msg.To),
		zap.String("role", msg.Role),
		zap.String("reset_url", msg.ResetURL),
	)
	return nil
}

const resetSubject = "Password Reset Request"

var resetTemplate = template.Must(template.New("password-reset").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #0d6efd;">Password Reset Request</h2>
  <p>You requested a password reset for your {{.Role}} account at Patient Registration System.</p>
  <p>Please click the link below to reset your password:</p>
  <p style="margin: 20px 0;">
    <a href="{{.ResetURL}}" style="background-color: #0d6efd; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px;" clicktracking="off">Reset Password</a>
  </p>
  <p>Alternatively, you can copy and paste this link in your browser:</p>
  <p style="background-color: #f8f9fa; padding: 10px; border-radius: 5px;">{{.ResetURL}}</p>
  <p>This link will expire in {{.Minutes}} minutes.</p>
  <p>If you didn't request this, please ignore this email and your password will remain unchanged.</p>
  <hr style="border-top: 1px solid #eee; margin: 20px 0;" />
  <p style="color: #6c757d; font-size: 12px;">This is an automated email. Please do not reply.</p>
</div>
`))

func RenderPasswordReset(msg PasswordReset) (subject, body string, err error) {
	minutes := int(msg.ExpiresIn.Minutes())
	if minutes <= 0 {
		minutes = 10
	}
	var buf bytes.Buffer
	err = resetTemplate.Execute(&buf, struct {
		Role     string
		ResetURL string
		Minutes  int
	}{msg.Role, msg.ResetURL, minutes})
	if err != nil {
		return "", "", fmt.Errorf("render reset email: %w", err)
	}
	return resetSubject, buf.String(), nil
}
