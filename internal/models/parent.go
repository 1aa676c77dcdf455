package models

import "time"

// Parent is an authenticated account owning children and prizes
type Parent struct {
	ID            int64     `json:"id" yaml:"id"`
	Email         string    `json:"email" yaml:"email"`
	PasswordHash  string    `json:"-" yaml:"-"`
	FullName      string    `json:"full_name" yaml:"full_name"`
	OAuthProvider string    `json:"oauth_provider,omitempty" yaml:"oauth_provider,omitempty"`
	OAuthSubject  string    `json:"-" yaml:"-"`
	CreatedAt     time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" yaml:"updated_at"`
}

// Session backs an issued access token so it can be revoked
type Session struct {
	ID        string
	ParentID  int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
