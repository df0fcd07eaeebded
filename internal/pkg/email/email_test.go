package email

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestSendWithoutCredentialsOnlyLogs(t *testing.T) {
	var buf strings.Builder
	sender := NewSMTPSender(SMTPConfig{Host: "localhost", Port: 25}, zerolog.New(&buf))

	if err := sender.Send(context.Background(), "a@x.test", "Hi", "<p>body</p>"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !strings.Contains(buf.String(), "a@x.test") {
		t.Fatalf("expected the recipient to be logged, got %q", buf.String())
	}
}

func TestPasswordResetBody(t *testing.T) {
	body := PasswordResetBody("Ann", "http://app.test/reset-password?token=abc", 15*time.Minute)
	if !strings.Contains(body, "http://app.test/reset-password?token=abc") {
		t.Fatal("link missing from body")
	}
	if !strings.Contains(body, "15 minutes") {
		t.Fatal("validity missing from body")
	}
}
