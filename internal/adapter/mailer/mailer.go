package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/resend/resend-go/v2"

	"github.com/polkiloo/melodiemacher/internal/metrics"
)

// Email is one templated message.
type Email struct {
	To       string
	Template string
	Data     map[string]string
}

// Mailer sends templated emails.
type Mailer interface {
	Send(ctx context.Context, email Email) error
}

// emailSender is the subset of the Resend client used here.
type emailSender interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

const (
	maxSendTries        = 3
	initialSendInterval = 500 * time.Millisecond
	maxSendInterval     = 5 * time.Second
)

// ResendMailer delivers emails through the Resend API.
type ResendMailer struct {
	sender   emailSender
	renderer *Renderer
	from     string
	logger   *slog.Logger
	metrics  *metrics.Metrics

	initialInterval time.Duration
}

// NewResendMailer builds a mailer for the given API key.
func NewResendMailer(apiKey, from string, renderer *Renderer, logger *slog.Logger, m *metrics.Metrics) *ResendMailer {
	client := resend.NewClient(apiKey)
	return newResendMailer(client.Emails, from, renderer, logger, m)
}

func newResendMailer(sender emailSender, from string, renderer *Renderer, logger *slog.Logger, m *metrics.Metrics) *ResendMailer {
	return &ResendMailer{
		sender:          sender,
		renderer:        renderer,
		from:            from,
		logger:          logger,
		metrics:         m,
		initialInterval: initialSendInterval,
	}
}

// Send renders the template and posts it, retrying transient failures.
func (m *ResendMailer) Send(ctx context.Context, email Email) error {
	if email.To == "" {
		m.metrics.Email(email.Template, "rejected")
		return errors.New("email recipient is empty")
	}
	subject, body, err := m.renderer.Render(email.Template, email.Data)
	if err != nil {
		m.metrics.Email(email.Template, "rejected")
		return err
	}

	req := &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{email.To},
		Subject: subject,
		Html:    body,
		Tags:    []resend.Tag{{Name: "template", Value: email.Template}},
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = m.initialInterval
	bo.MaxInterval = maxSendInterval

	resp, err := backoff.Retry(ctx, func() (*resend.SendEmailResponse, error) {
		return m.sender.SendWithContext(ctx, req)
	}, backoff.WithBackOff(bo), backoff.WithMaxTries(maxSendTries))
	if err != nil {
		m.metrics.Email(email.Template, "failed")
		return fmt.Errorf("send %s email: %w", email.Template, err)
	}

	m.metrics.Email(email.Template, "sent")
	m.logger.Info("email sent",
		slog.String("template", email.Template),
		slog.String("id", resp.Id),
	)
	return nil
}

// LogMailer renders emails and logs them instead of sending.
type LogMailer struct {
	renderer *Renderer
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewLogMailer builds a mailer used when no email API key is configured.
func NewLogMailer(renderer *Renderer, logger *slog.Logger, m *metrics.Metrics) *LogMailer {
	return &LogMailer{renderer: renderer, logger: logger, metrics: m}
}

// Send renders the email and writes it to the log.
func (m *LogMailer) Send(_ context.Context, email Email) error {
	subject, _, err := m.renderer.Render(email.Template, email.Data)
	if err != nil {
		m.metrics.Email(email.Template, "rejected")
		return err
	}
	m.metrics.Email(email.Template, "logged")
	m.logger.Info("email not sent, provider disabled",
		slog.String("template", email.Template),
		slog.String("to", email.To),
		slog.String("subject", subject),
	)
	return nil
}
