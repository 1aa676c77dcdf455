package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestSessionIsExpired(t *testing.T) {
	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{
			name:      "future expiration",
			expiresAt: time.Now().Add(1 * time.Hour),
			want:      false,
		},
		{
			name:      "just expired",
			expiresAt: time.Now().Add(-1 * time.Second),
			want:      true,
		},
		{
			name:      "expired yesterday",
			expiresAt: time.Now().Add(-24 * time.Hour),
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := Session{
				ID:        "test-session",
				ParentID:  1,
				ExpiresAt: tt.expiresAt,
				CreatedAt: time.Now().Add(-1 * time.Hour),
			}
			if got := session.IsExpired(); got != tt.want {
				t.Errorf("Session.IsExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParentJSONOmitsSecrets(t *testing.T) {
	parent := Parent{ID: 1, Email: "p@example.com", PasswordHash: "secret-hash", OAuthSubject: "sub-123"}

	data, err := json.Marshal(parent)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	if strings.Contains(string(data), "secret-hash") || strings.Contains(string(data), "sub-123") {
		t.Errorf("parent JSON leaked secrets: %s", data)
	}
}

func TestBookJSONOmitsAbsentMetadata(t *testing.T) {
	book := Book{ID: 1, Title: "Matilda", Status: BookPending}

	data, err := json.Marshal(book)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	for _, field := range []string{"cover_url", "reading_level", "interest_level", "approved_at"} {
		if strings.Contains(string(data), field) {
			t.Errorf("expected %s to be omitted, got %s", field, data)
		}
	}
}
