package mailer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"tweetline/internal/config"
)

type fakeDialer struct {
	sent []*gomail.Message
	err  error
}

func (d *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	d.sent = append(d.sent, m...)
	return d.err
}

func TestNew(t *testing.T) {
	assert.IsType(t, LogMailer{}, New(config.SMTP{}))
	assert.IsType(t, &SMTPMailer{}, New(config.SMTP{Host: "smtp.example.com", Port: 2525}))
}

func TestSMTPMailer_Send(t *testing.T) {
	d := &fakeDialer{}
	m := &SMTPMailer{dialer: d, from: "no-reply@example.com"}

	err := m.Send(context.Background(), Message{To: "alice@example.com", Subject: "Reset", Text: "link"})

	require.NoError(t, err)
	require.Len(t, d.sent, 1)
	assert.Equal(t, []string{"alice@example.com"}, d.sent[0].GetHeader("To"))
	assert.Equal(t, []string{"Reset"}, d.sent[0].GetHeader("Subject"))
}

func TestSMTPMailer_SendFailure(t *testing.T) {
	m := &SMTPMailer{dialer: &fakeDialer{err: errors.New("535 auth failed")}, from: "x@example.com"}

	err := m.Send(context.Background(), Message{To: "alice@example.com"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to send mail to alice@example.com")
}

func TestSMTPMailer_CanceledContext(t *testing.T) {
	d := &fakeDialer{}
	m := &SMTPMailer{dialer: d}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, m.Send(ctx, Message{To: "a@example.com"}), context.Canceled)
	assert.Empty(t, d.sent)
}
