package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"lendhub-backend/internal/logger"
)

type emailService struct {
	apiKey    string
	fromEmail string
	fromName  string
}

func NewEmailService(apiKey, fromEmail, fromName string) EmailService {
	return &emailService{
		apiKey:    apiKey,
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (s *emailService) send(ctx context.Context, to, toName, subject, plainText string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	recipient := mail.NewEmail(toName, to)
	message := mail.NewSingleEmail(from, subject, recipient, plainText, "")

	logger.ExternalServiceCall("sendgrid", "send", "to", to, "subject", subject)
	client := sendgrid.NewSendClient(s.apiKey)
	response, err := client.SendWithContext(ctx, message)
	if err != nil {
		logger.ExternalServiceResult("sendgrid", "send", err)
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		err = fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
		logger.ExternalServiceResult("sendgrid", "send", err)
		return err
	}
	logger.ExternalServiceResult("sendgrid", "send", nil)
	return nil
}

func (s *emailService) SendReservationReminder(ctx context.Context, email, name, typeName string, from, until time.Time, count int) error {
	subject := fmt.Sprintf("Your reservation starts %s", from.Format("Monday, 02 Jan 2006"))
	body := fmt.Sprintf(
		"Hello %s,\n\nyour reservation of %d x %s runs from %s to %s. Please pick the items up at the lending desk on the first day.\n\nBest regards,\nThe LendHub Team",
		name, count, typeName, from.Format("2006-01-02"), until.Format("2006-01-02"),
	)
	return s.send(ctx, email, name, subject, body)
}

func (s *emailService) SendDueReminder(ctx context.Context, email, name, unitLabel string, due time.Time) error {
	subject := fmt.Sprintf("Return due %s", due.Format("Monday, 02 Jan 2006"))
	body := fmt.Sprintf(
		"Hello %s,\n\nthe item %s is due back on %s. Bring it to the lending desk on the return day, or extend the loan if you still need it.\n\nBest regards,\nThe LendHub Team",
		name, unitLabel, due.Format("2006-01-02"),
	)
	return s.send(ctx, email, name, subject, body)
}

func (s *emailService) SendMissingReturnNotice(ctx context.Context, email, name, unitLabel string, due time.Time) error {
	subject := fmt.Sprintf("Missed return: %s", unitLabel)
	body := fmt.Sprintf(
		"Hello %s,\n\nthe item %s was due back on %s and has not been returned. Please bring it to the lending desk as soon as possible.\n\nBest regards,\nThe LendHub Team",
		name, unitLabel, due.Format("2006-01-02"),
	)
	return s.send(ctx, email, name, subject, body)
}

func (s *emailService) SendReservationConfirmation(ctx context.Context, email, name, typeName string, from, until time.Time, count int) error {
	subject := fmt.Sprintf("Reservation confirmed: %s", typeName)
	body := fmt.Sprintf(
		"Hello %s,\n\nwe reserved %d x %s for you from %s to %s. You will get a reminder the day before the handout.\n\nBest regards,\nThe LendHub Team",
		name, count, typeName, from.Format("2006-01-02"), until.Format("2006-01-02"),
	)
	return s.send(ctx, email, name, subject, body)
}

func (s *emailService) SendCancellationNotice(ctx context.Context, email, name, typeName string, from, until time.Time) error {
	subject := fmt.Sprintf("Reservation canceled: %s", typeName)
	body := fmt.Sprintf(
		"Hello %s,\n\nyour reservation of %s from %s to %s has been canceled.\n\nBest regards,\nThe LendHub Team",
		name, typeName, from.Format("2006-01-02"), until.Format("2006-01-02"),
	)
	return s.send(ctx, email, name, subject, body)
}

func (s *emailService) SendHandoutReceipt(ctx context.Context, email, name, typeName string, count int, due time.Time) error {
	subject := fmt.Sprintf("Handed out: %d x %s", count, typeName)
	body := fmt.Sprintf(
		"Hello %s,\n\nyou picked up %d x %s today. Everything is due back on %s.\n\nBest regards,\nThe LendHub Team",
		name, count, typeName, due.Format("2006-01-02"),
	)
	return s.send(ctx, email, name, subject, body)
}

func (s *emailService) SendExtensionConfirmation(ctx context.Context, email, name, unitLabel string, due time.Time) error {
	subject := fmt.Sprintf("Loan extended: %s", unitLabel)
	body := fmt.Sprintf(
		"Hello %s,\n\nthe loan of %s was extended. The new return date is %s.\n\nBest regards,\nThe LendHub Team",
		name, unitLabel, due.Format("2006-01-02"),
	)
	return s.send(ctx, email, name, subject, body)
}
