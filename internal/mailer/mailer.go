package mailer

import (
	"context"
	"fmt"
	"log"

	"gopkg.in/gomail.v2"

	"tweetline/internal/config"
)

type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// dialer is satisfied by *gomail.Dialer.
type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type SMTPMailer struct {
	dialer dialer
	from   string
}

// New returns an SMTP mailer, or a LogMailer when no SMTP host is configured.
func New(cfg config.SMTP) Mailer {
	if cfg.Host == "" {
		log.Println("warning: SMTP_HOST is empty, outgoing mail is only logged")
		return LogMailer{}
	}
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.From,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	message := gomail.NewMessage()
	message.SetHeader("From", m.from)
	message.SetHeader("To", msg.To)
	message.SetHeader("Subject", msg.Subject)
	message.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		message.AddAlternative("text/html", msg.HTML)
	}

	done := make(chan error, 1)
	go func() { done <- m.dialer.DialAndSend(message) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send mail to %s: %w", msg.To, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type LogMailer struct{}

func (LogMailer) Send(_ context.Context, msg Message) error {
	log.Printf("mail to=%s subject=%q\n%s", msg.To, msg.Subject, msg.Text)
	return nil
}
