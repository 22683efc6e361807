package notifications

import (
	"MedOffice/config"
	"context"
	"fmt"
	"html"

	"gopkg.in/gomail.v2"
)

// mailDialer is satisfied by *gomail.Dialer.
type mailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailSender delivers alerts over SMTP.
type EmailSender struct {
	dialer mailDialer
	from   string
}

func NewEmailSender(cfg config.SMTPConfig) *EmailSender {
	return &EmailSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.User,
	}
}

func (s *EmailSender) Send(ctx context.Context, destination, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", destination)
	m.SetHeader("Subject", "Payment reminder")
	m.SetBody("text/plain", message)

	htmlBody := `
	<!DOCTYPE html>
	<html>
	<head>
		<title>Payment reminder</title>
		<style>
			body {
				font-family: Arial, sans-serif;
				background-color: #f4f4f4;
			}
			.container {
				background-color: #ffffff;
				margin: 20px auto;
				padding: 20px;
				border-radius: 8px;
				max-width: 600px;
			}
		</style>
	</head>
	<body>
		<div class="container">
			<p>` + html.EscapeString(message) + `</p>
		</div>
	</body>
	</html>
	`
	m.AddAlternative("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", destination, err)
	}
	return nil
}
