package services

import (
	"fmt"
	"log"

	"notary_flow_go/config"

	"github.com/resend/resend-go/v2"
)

// Email represents an email message
type Email struct {
	To       []string
	Subject  string
	HTMLBody string
	TextBody string
}

// EmailSender delivers emails through Resend. In test mode messages are
// logged instead of sent.
type EmailSender struct {
	cfg    *config.Config
	client *resend.Client
}

// NewEmailSender creates an email sender from the loaded configuration
func NewEmailSender(cfg *config.Config) *EmailSender {
	var client *resend.Client
	if cfg.ResendAPIKey != "" {
		client = resend.NewClient(cfg.ResendAPIKey)
	}
	return &EmailSender{cfg: cfg, client: client}
}

// Send delivers one email. Failures are returned so the caller can log
// them; nothing in this core treats a send failure as fatal.
func (s *EmailSender) Send(email *Email) error {
	if s.cfg.EmailTestMode || s.client == nil {
		log.Printf("[EMAIL TEST MODE] To: %v | Subject: %s | Body: %s", email.To, email.Subject, email.TextBody)
		return nil
	}

	from := fmt.Sprintf("%s <%s>", s.cfg.EmailFromName, s.cfg.EmailFrom)
	params := &resend.SendEmailRequest{
		From:    from,
		To:      email.To,
		Subject: email.Subject,
		Html:    email.HTMLBody,
		Text:    email.TextBody,
	}
	if _, err := s.client.Emails.Send(params); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
