package mailservice

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestService(mc *MockMessageConsumer, mailer *MockMailer) *MailService {
	ctx, cancel := context.WithCancel(context.Background())
	return &MailService{
		mb:     mc,
		m:      mailer,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		ctx:    ctx,
		cancel: cancel,
	}
}

func TestSendVerificationEmail(t *testing.T) {
	mailer := &MockMailer{}
	s := newTestService(&MockMessageConsumer{Body: `{"Email": "test@example.com", "Token": "testtoken"}`}, mailer)
	defer s.Close()

	s.SendVerificationEmail()

	assert.Eventually(t, func() bool {
		return len(mailer.sentTo()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, []string{"test@example.com"}, mailer.sentTo())
	assert.Equal(t, []string{"verification_email.html"}, mailer.sentTemplates())
}

func TestSendPasswordResetEmail(t *testing.T) {
	mailer := &MockMailer{}
	s := newTestService(&MockMessageConsumer{Body: `{"Email": "reset@example.com", "Token": "resettoken"}`}, mailer)
	defer s.Close()

	s.SendPasswordResetEmail()

	assert.Eventually(t, func() bool {
		return len(mailer.sentTo()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, []string{"reset@example.com"}, mailer.sentTo())
	assert.Equal(t, []string{"password_reset_email.html"}, mailer.sentTemplates())
}

func TestMalformedMessageIsSkipped(t *testing.T) {
	mailer := &MockMailer{}
	s := newTestService(&MockMessageConsumer{Body: `not json`}, mailer)
	defer s.Close()

	s.SendVerificationEmail()

	time.Sleep(200 * time.Millisecond)
	assert.Empty(t, mailer.sentTo())
}
