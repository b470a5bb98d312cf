package service

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type emailService struct {
	apiKey    string
	fromEmail string
	fromName  string
}

// NewEmailService sends lifecycle emails through SendGrid. With an empty
// API key it becomes a no-op, which is what tests and local development
// want.
func NewEmailService(apiKey, fromEmail, fromName string) EmailService {
	return &emailService{apiKey: apiKey, fromEmail: fromEmail, fromName: fromName}
}

func (s *emailService) send(ctx context.Context, to, subject, body string) error {
	if s.apiKey == "" || to == "" {
		return nil
	}

	from := mail.NewEmail(s.fromName, s.fromEmail)
	recipient := mail.NewEmail("", to)
	message := mail.NewSingleEmail(from, subject, recipient, body, "")

	client := sendgrid.NewSendClient(s.apiKey)
	response, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d", response.StatusCode)
	}
	return nil
}

func (s *emailService) SendLendingRequestNotification(ctx context.Context, email, fromName, itemName string) error {
	subject := fmt.Sprintf("New borrow request: %s", itemName)
	body := fmt.Sprintf("%s wants to borrow your %s. Review the request on LendTrust.", fromName, itemName)
	return s.send(ctx, email, subject, body)
}

func (s *emailService) SendLendingAcceptedNotification(ctx context.Context, email, byName, itemName string) error {
	subject := fmt.Sprintf("Lending accepted: %s", itemName)
	body := fmt.Sprintf("%s accepted the lending terms for %s.", byName, itemName)
	return s.send(ctx, email, subject, body)
}

func (s *emailService) SendLendingDeclinedNotification(ctx context.Context, email, byName, itemName, reason string) error {
	subject := fmt.Sprintf("Lending declined: %s", itemName)
	body := fmt.Sprintf("%s declined the lending for %s.", byName, itemName)
	if reason != "" {
		body += fmt.Sprintf(" Reason: %s", reason)
	}
	return s.send(ctx, email, subject, body)
}

func (s *emailService) SendReturnReminderNotification(ctx context.Context, email, itemName string, overdue bool) error {
	if overdue {
		return s.send(ctx, email, fmt.Sprintf("Overdue: %s", itemName),
			fmt.Sprintf("The return date for %s has passed. Please return it as soon as possible.", itemName))
	}
	return s.send(ctx, email, fmt.Sprintf("Return reminder: %s", itemName),
		fmt.Sprintf("The return date for %s is coming up.", itemName))
}

func (s *emailService) SendLendingCompletedNotification(ctx context.Context, email, itemName string) error {
	subject := fmt.Sprintf("Lending completed: %s", itemName)
	body := fmt.Sprintf("The lending of %s is complete. Don't forget to rate the other party.", itemName)
	return s.send(ctx, email, subject, body)
}
