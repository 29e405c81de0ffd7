package mailservice

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sushihentaime/blogmate/internal/common"
	"golang.org/x/exp/rand"
)

func NewMailService(mb common.MessageConsumer, host, username, password, sender string, port int, logger *slog.Logger) *MailService {
	ctx, cancel := context.WithCancel(context.Background())
	return &MailService{
		mb:     mb,
		m:      NewMailer(host, port, username, password, sender, NewTemplate()),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// SendVerificationEmail consumes user.created events and mails each new
// user their email verification token.
func (s *MailService) SendVerificationEmail() {
	s.consume(common.UserCreatedKey, common.UserCreatedQueue, "verification_email.html", "verification email")
}

// SendPasswordResetEmail consumes user.reset_password events and mails
// the user their password reset token.
func (s *MailService) SendPasswordResetEmail() {
	s.consume(common.UserResetPasswordKey, common.UserResetPasswordQueue, "password_reset_email.html", "password reset email")
}

// consume drains one queue in a background goroutine, rendering the
// given template for each event. Sends are retried with exponential
// backoff and jitter; a message that exhausts its retries is acked
// anyway so a dead recipient cannot wedge the queue.
func (s *MailService) consume(key common.BindingKey, queue common.Queue, templateFile, label string) {
	msgs, err := s.mb.Consume(key, common.UserExchange, queue)
	if err != nil {
		s.logger.Error("could not consume message", slog.String("queue", string(queue)), slog.String("error", err.Error()))
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				s.handleMessage(msg, templateFile, label)

			case <-s.ctx.Done():
				s.logger.Info("stopping mail consumer", slog.String("queue", string(queue)))
				return
			}
		}
	}()
}

func (s *MailService) handleMessage(msg amqp.Delivery, templateFile, label string) {
	var data struct {
		Email string
		Token string
	}

	if err := json.Unmarshal(msg.Body, &data); err != nil {
		s.logger.Error("could not unmarshal message", slog.String("error", err.Error()))
		msg.Ack(false)
		return
	}

	payload := struct {
		Token string
	}{
		Token: data.Token,
	}

	const maxRetries = 5
	const baseDelay = 500 * time.Millisecond

	var attempt int
	for attempt = 0; attempt < maxRetries; attempt++ {
		err := s.m.send(data.Email, payload, templateFile)
		if err == nil {
			s.logger.Info(label+" sent", slog.String("email", data.Email))
			msg.Ack(false)
			return
		}

		delay := time.Duration(rand.Int63n(int64(baseDelay) << uint(attempt)))
		s.logger.Info("delaying "+label, slog.String("email", data.Email), slog.Int("attempt", attempt), slog.Duration("delay", delay))
		time.Sleep(delay)
	}

	s.logger.Error("could not send "+label, slog.String("email", data.Email))
	msg.Ack(false)
}

func (s *MailService) Close() {
	s.cancel()
	s.wg.Wait()
}
