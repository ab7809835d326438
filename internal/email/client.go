// Package email sends transactional mail over SMTP.
package email

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/mail.v2"
)

// Client holds SMTP connection settings.
type Client struct {
	smtpHost string
	smtpPort int
	username string
	password string
	from     string
}

// NewClient builds an SMTP mail client.
func NewClient(smtpHost string, smtpPort int, username, password, from string) *Client {
	return &Client{
		smtpHost: smtpHost,
		smtpPort: smtpPort,
		username: username,
		password: password,
		from:     from,
	}
}

// SendPasswordReset mails a password reset link.  The link expires
// after an hour; the body says so because the token store enforces it.
func (c *Client) SendPasswordReset(to, resetLink string) error {
	body := strings.TrimSpace(fmt.Sprintf(`
QNow Password Reset

Hello,

We received a request to reset the password for your QNow account.

To reset your password, open the following link:

%s

This link will expire in 1 hour for security reasons.

If you didn't request a password reset, you can safely ignore this
email. Your password will remain unchanged.

Best regards,
The QNow Team

---
This is an automated email, please do not reply.
(c) %d QNow. All rights reserved.
`, resetLink, time.Now().Year()))

	m := mail.NewMessage()
	m.SetHeader("From", c.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "QNow Password Reset")
	m.SetBody("text/plain", body)

	d := mail.NewDialer(c.smtpHost, c.smtpPort, c.username, c.password)
	return d.DialAndSend(m)
}
