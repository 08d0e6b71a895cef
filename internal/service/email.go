package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"

	"github.com/goalstash/goalstash/internal/validation"
)

// EmailService delivers notification emails through Resend. In development
// (or without an API key) it logs instead of sending, so the rest of the
// pipeline behaves identically.
type EmailService struct {
	client    *resend.Client
	fromEmail string
	appURL    string
	appName   string
	isDev     bool
}

func NewEmailService(apiKey, fromEmail, appURL, appName string, isDev bool) *EmailService {
	var client *resend.Client
	if apiKey != "" && !isDev {
		client = resend.NewClient(apiKey)
	}

	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		appURL:    appURL,
		appName:   appName,
		isDev:     isDev,
	}
}

func (s *EmailService) send(ctx context.Context, kind, to, subject, body string) error {
	if err := validation.ValidateEmail(to); err != nil {
		return fmt.Errorf("refusing to send %s email: %w", kind, err)
	}

	if s.isDev {
		slog.Info("email sent (dev mode)", "type", kind, "to", to, "subject", subject)
		return nil
	}

	if s.client == nil {
		return fmt.Errorf("email service not configured (missing RESEND_API_KEY)")
	}

	params := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{to},
		Subject: subject,
		Text:    body,
	}

	_, err := s.client.Emails.SendWithContext(ctx, params)
	if err == nil {
		slog.Info("email sent", "type", kind, "to", to)
	}
	return err
}

func (s *EmailService) SendPaymentDueEmail(ctx context.Context, to, name, goalName, recommended, dueDate string) error {
	subject, body := paymentDueEmailTemplate(name, goalName, recommended, dueDate, s.appURL, s.appName)
	return s.send(ctx, "payment_due", to, subject, body)
}

func (s *EmailService) SendMilestoneEmail(ctx context.Context, to, name, goalName string, threshold int) error {
	subject, body := milestoneEmailTemplate(name, goalName, threshold, s.appName)
	return s.send(ctx, "milestone", to, subject, body)
}

func (s *EmailService) SendGoalCompletedEmail(ctx context.Context, to, name, goalName string) error {
	subject, body := goalCompletedEmailTemplate(name, goalName, s.appURL, s.appName)
	return s.send(ctx, "goal_completed", to, subject, body)
}
