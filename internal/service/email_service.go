package service

import (
	"context"
	"fmt"
	"html"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// Notifier sends the parent-facing emails. EmailService implements it.
type Notifier interface {
	IsEnabled() bool
	SendWelcomeEmail(ctx context.Context, toEmail, toName string) error
	SendBookSubmittedEmail(ctx context.Context, toEmail, toName, childName, title, author string) error
	SendAccountDeletedEmail(ctx context.Context, toEmail, toName string) error
}

// EmailService handles sending emails via Amazon SES
type EmailService struct {
	client     *sesv2.Client
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
	debug      bool
}

// NewEmailService creates a new email service. Without a sender address the
// service is disabled and every send is a logged no-op.
func NewEmailService(awsRegion, fromEmail, fromName, appBaseURL string, debug bool) (*EmailService, error) {
	if fromEmail == "" {
		log.Println("Email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{
			enabled: false,
			debug:   debug,
		}, nil
	}

	if debug {
		log.Printf("[DEBUG] Initializing email service with AWS SES region=%s from=%s", awsRegion, fromEmail)
	}

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(awsRegion),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Printf("Email service enabled: from=%s, region=%s", fromEmail, awsRegion)

	return &EmailService{
		client:     sesv2.NewFromConfig(cfg),
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: appBaseURL,
		enabled:    true,
		debug:      debug,
	}, nil
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

type message struct {
	subject  string
	htmlBody string
	textBody string
}

const emailTemplate = `
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.header { background-color: #4CAF50; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
		.content { background-color: #f9f9f9; padding: 30px; border-radius: 0 0 5px 5px; }
		.button { display: inline-block; padding: 12px 30px; background-color: #4CAF50; color: white; text-decoration: none; border-radius: 5px; margin: 20px 0; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="container">
		<div class="header">
			<h1>%s</h1>
		</div>
		<div class="content">
			%s
		</div>
		<div class="footer">
			<p>This is an automated email from BookBuddy. Please do not reply.</p>
		</div>
	</div>
</body>
</html>
`

const textFooter = "\n---\nThis is an automated email from BookBuddy. Please do not reply.\n"

func welcomeMessage(toName, appBaseURL string) message {
	name := html.EscapeString(toName)
	return message{
		subject: "Welcome to BookBuddy!",
		htmlBody: fmt.Sprintf(emailTemplate, "Welcome to BookBuddy!", fmt.Sprintf(`
			<p>Hi %s,</p>
			<p>Thanks for creating your BookBuddy account. Add your children, set how much each book is worth, and start approving the books they read.</p>
			<p style="text-align: center;"><a href="%s" class="button">Get Started</a></p>`, name, appBaseURL)),
		textBody: fmt.Sprintf("Hi %s,\n\nThanks for creating your BookBuddy account. Add your children, set how much each book is worth, and start approving the books they read.\n\nGet started: %s\n", toName, appBaseURL) + textFooter,
	}
}

func bookSubmittedMessage(toName, childName, title, author, appBaseURL string) message {
	return message{
		subject: fmt.Sprintf("%s finished a book!", childName),
		htmlBody: fmt.Sprintf(emailTemplate, "A new book is waiting for review", fmt.Sprintf(`
			<p>Hi %s,</p>
			<p>%s just finished <strong>%s</strong> by %s and sent it to you for approval.</p>
			<p style="text-align: center;"><a href="%s/review" class="button">Review Books</a></p>`,
			html.EscapeString(toName), html.EscapeString(childName), html.EscapeString(title), html.EscapeString(author), appBaseURL)),
		textBody: fmt.Sprintf("Hi %s,\n\n%s just finished \"%s\" by %s and sent it to you for approval.\n\nReview books: %s/review\n",
			toName, childName, title, author, appBaseURL) + textFooter,
	}
}

func accountDeletedMessage(toName string) message {
	return message{
		subject: "Your BookBuddy account has been deleted",
		htmlBody: fmt.Sprintf(emailTemplate, "Account deleted", fmt.Sprintf(`
			<p>Hi %s,</p>
			<p>Your BookBuddy account and all of your children's reading history, rewards and prizes have been permanently deleted.</p>
			<p>If you did not request this, please contact support.</p>`, html.EscapeString(toName))),
		textBody: fmt.Sprintf("Hi %s,\n\nYour BookBuddy account and all of your children's reading history, rewards and prizes have been permanently deleted.\n\nIf you did not request this, please contact support.\n", toName) + textFooter,
	}
}

// SendWelcomeEmail sends a welcome email to new parents
func (s *EmailService) SendWelcomeEmail(ctx context.Context, toEmail, toName string) error {
	return s.send(ctx, toEmail, "welcome", welcomeMessage(toName, s.appBaseURL))
}

// SendBookSubmittedEmail tells a parent a child has a book awaiting review
func (s *EmailService) SendBookSubmittedEmail(ctx context.Context, toEmail, toName, childName, title, author string) error {
	return s.send(ctx, toEmail, "book submitted", bookSubmittedMessage(toName, childName, title, author, s.appBaseURL))
}

// SendAccountDeletedEmail confirms an account deletion
func (s *EmailService) SendAccountDeletedEmail(ctx context.Context, toEmail, toName string) error {
	return s.send(ctx, toEmail, "account deleted", accountDeletedMessage(toName))
}

func (s *EmailService) send(ctx context.Context, toEmail, kind string, msg message) error {
	if !s.enabled {
		log.Printf("Skipping email send (service disabled): %s to %s", kind, toEmail)
		return nil
	}
	if s.debug {
		log.Printf("[DEBUG] Sending %s email: subject=%s, to=%s, html=%d bytes", kind, msg.subject, toEmail, len(msg.htmlBody))
	}
	return s.sendEmail(ctx, toEmail, msg)
}

// sendEmail sends an email using Amazon SES
func (s *EmailService) sendEmail(ctx context.Context, toEmail string, msg message) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(msg.subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(msg.htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(msg.textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	if s.debug && result.MessageId != nil {
		log.Printf("[DEBUG] SES message ID: %s", *result.MessageId)
	}
	log.Printf("Email sent successfully: to=%s, subject=%s", toEmail, msg.subject)
	return nil
}
