package service

import (
	"context"
	"strings"
	"testing"
)

func TestDisabledEmailService(t *testing.T) {
	svc, err := NewEmailService("us-east-1", "", "BookBuddy", "http://localhost", false)
	if err != nil {
		t.Fatalf("NewEmailService() error = %v", err)
	}
	if svc.IsEnabled() {
		t.Fatal("service without a sender should be disabled")
	}
	if err := svc.SendBookSubmittedEmail(context.Background(), "p@example.com", "Pat", "Robin", "Holes", "Louis Sachar"); err != nil {
		t.Errorf("disabled send should be a no-op, got %v", err)
	}
}

func TestBookSubmittedMessageEscapesInput(t *testing.T) {
	msg := bookSubmittedMessage("Pat", "Robin", "<script>alert(1)</script>", "A & B", "https://app.example.com")

	if !strings.Contains(msg.subject, "Robin") {
		t.Errorf("subject = %q", msg.subject)
	}
	if strings.Contains(msg.htmlBody, "<script>") {
		t.Error("html body must escape submitted titles")
	}
	if !strings.Contains(msg.htmlBody, "A &amp; B") {
		t.Error("html body should contain the escaped author")
	}
	if !strings.Contains(msg.textBody, "https://app.example.com/review") {
		t.Errorf("text body missing review link: %q", msg.textBody)
	}
}
