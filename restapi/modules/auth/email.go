// Package auth provides email services for password resets.
package auth

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"os"

	"go.uber.org/zap"
)

// Notifier delivers an out-of-band message to an account holder
type Notifier interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// ResetNotifier is implemented by notifiers that deliver reset emails out of process.
// They receive the recipient only and never see the reset link.
type ResetNotifier interface {
	SendPasswordReset(ctx context.Context, to string) error
}

// EmailConfig holds email service configuration
type EmailConfig struct {
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string
}

// LoadEmailConfig loads email configuration from environment
func LoadEmailConfig() *EmailConfig {
	return &EmailConfig{
		SMTPHost:     getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		FromEmail:    getEnv("SMTP_FROM_EMAIL", "noreply@storefront.local"),
		FromName:     getEnv("SMTP_FROM_NAME", "Storefront"),
	}
}

// Configured reports whether SMTP credentials are present
func (c *EmailConfig) Configured() bool {
	return c.SMTPUsername != "" && c.SMTPPassword != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// SMTPNotifier sends mail directly through an SMTP relay.
// Without credentials it only logs the recipient and subject.
type SMTPNotifier struct {
	config *EmailConfig
	logger *zap.Logger
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPNotifier returns a notifier using config
func NewSMTPNotifier(config *EmailConfig, logger *zap.Logger) *SMTPNotifier {
	return &SMTPNotifier{config: config, logger: logger, send: smtp.SendMail}
}

// Send delivers an HTML email
func (n *SMTPNotifier) Send(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if !n.config.Configured() {
		n.logger.Warn("SMTP not configured, email not sent", zap.String("to", to), zap.String("subject", subject))
		return nil
	}

	auth := smtp.PlainAuth("", n.config.SMTPUsername, n.config.SMTPPassword, n.config.SMTPHost)
	addr := fmt.Sprintf("%s:%s", n.config.SMTPHost, n.config.SMTPPort)
	return n.send(addr, auth, n.config.FromEmail, []string{to}, buildMessage(n.config, to, subject, htmlBody))
}

func buildMessage(config *EmailConfig, to, subject, htmlBody string) []byte {
	return []byte(fmt.Sprintf(
		"From: %s <%s>\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s",
		config.FromName, config.FromEmail, to, subject, htmlBody,
	))
}

// ResetEmailData holds data for the password reset template
type ResetEmailData struct {
	Name      string
	ResetLink string
}

// resetEmailSubject is the subject line of the reset email
const resetEmailSubject = "Reset Password"

var resetEmailTemplate = template.Must(template.New("reset").Parse(`
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
</head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
	<h2>Password Reset Request</h2>
	<p>Hi {{.Name}},</p>
	<p>Click here to reset your password:</p>
	<p><a href="{{.ResetLink}}" style="background-color: #4CAF50; color: white; padding: 10px 20px; text-decoration: none; border-radius: 4px; display: inline-block;">Reset Password</a></p>
	<p>If you didn't request this, please ignore this email.</p>
</body>
</html>
`))

// renderResetEmail renders the password reset email body
func renderResetEmail(data ResetEmailData) (string, error) {
	var buf bytes.Buffer
	if err := resetEmailTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func resetLink(base, token string) string {
	return base + "/" + token
}

// ResetMailRenderer renders reset emails from the token currently stored on an account.
// The email worker uses it so reset links never leave the process in a queued event.
type ResetMailRenderer struct {
	store    UserStore
	linkBase string
}

// NewResetMailRenderer returns a renderer linking to linkBase + "/" + token
func NewResetMailRenderer(store UserStore, linkBase string) *ResetMailRenderer {
	return &ResetMailRenderer{store: store, linkBase: linkBase}
}

// RenderPasswordReset returns subject and body of the reset email for email.
// It fails with ErrInvalidToken when no reset is pending, e.g. it was already used.
func (r *ResetMailRenderer) RenderPasswordReset(ctx context.Context, email string) (string, string, error) {
	user, err := r.store.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return "", "", storeError(err, "RESET_RENDER_FAILED", "FindByEmail")
	}
	if user.ResetToken == "" {
		return "", "", ErrInvalidToken
	}

	body, err := renderResetEmail(ResetEmailData{Name: user.Name, ResetLink: resetLink(r.linkBase, user.ResetToken)})
	if err != nil {
		return "", "", err
	}
	return resetEmailSubject, body, nil
}
