package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"bookbuddy/internal/models"
	"bookbuddy/internal/repository"
	"bookbuddy/internal/security"
	"bookbuddy/internal/validation"
)

var (
	ErrEmailTaken         = errors.New("email already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
	ErrEmailNotVerified   = errors.New("email not verified by provider")
)

// LoginResult is handed back to the client after a successful sign-in
type LoginResult struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	Parent    *models.Parent `json:"parent"`
}

// AuthService handles parent accounts, tokens and sessions
type AuthService struct {
	parentRepo      *repository.ParentRepository
	tokens          *security.TokenIssuer
	email           Notifier
	sessionDuration time.Duration
}

// NewAuthService creates a new auth service
func NewAuthService(parentRepo *repository.ParentRepository, tokens *security.TokenIssuer, email Notifier, sessionDuration time.Duration) *AuthService {
	return &AuthService{
		parentRepo:      parentRepo,
		tokens:          tokens,
		email:           email,
		sessionDuration: sessionDuration,
	}
}

// Register creates a new parent account
func (s *AuthService) Register(ctx context.Context, email, password, fullName string) (*models.Parent, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	fullName = strings.TrimSpace(fullName)

	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}
	if err := validation.ValidateName(fullName); err != nil {
		return nil, err
	}

	existing, err := s.parentRepo.GetParentByEmail(email)
	if err != nil {
		return nil, unavailable("check existing parent", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	parent, err := s.parentRepo.CreateParent(email, passwordHash, fullName)
	if err != nil {
		return nil, unavailable("create parent", err)
	}

	if s.email != nil {
		if err := s.email.SendWelcomeEmail(ctx, parent.Email, parent.FullName); err != nil {
			log.Printf("Warning: failed to send welcome email to %s: %v", parent.Email, err)
		}
	}

	return parent, nil
}

// Login checks credentials and issues an access token backed by a session
func (s *AuthService) Login(email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	parent, err := s.parentRepo.GetParentByEmail(email)
	if err != nil {
		return nil, unavailable("get parent", err)
	}
	if parent == nil || !security.CheckPassword(password, parent.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.issue(parent)
}

func (s *AuthService) issue(parent *models.Parent) (*LoginResult, error) {
	sessionID := security.GenerateSessionID()
	expiresAt := time.Now().Add(s.sessionDuration)

	if _, err := s.parentRepo.CreateSession(sessionID, parent.ID, expiresAt); err != nil {
		return nil, unavailable("create session", err)
	}

	token, err := s.tokens.Issue(parent.ID, sessionID, expiresAt)
	if err != nil {
		return nil, err
	}

	return &LoginResult{Token: token, ExpiresAt: expiresAt, Parent: parent}, nil
}

// ValidateToken verifies an access token and its backing session and
// returns the parent along with the session ID
func (s *AuthService) ValidateToken(token string) (*models.Parent, string, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, "", ErrSessionNotFound
	}

	session, err := s.parentRepo.GetSession(claims.SessionID)
	if err != nil {
		return nil, "", unavailable("get session", err)
	}
	if session == nil || session.ParentID != claims.ParentID {
		return nil, "", ErrSessionNotFound
	}

	if session.IsExpired() {
		_ = s.parentRepo.DeleteSession(session.ID)
		return nil, "", ErrSessionExpired
	}

	parent, err := s.parentRepo.GetParentByID(session.ParentID)
	if err != nil {
		return nil, "", unavailable("get parent", err)
	}
	if parent == nil {
		return nil, "", ErrSessionNotFound
	}

	return parent, session.ID, nil
}

// Logout revokes a session so its token stops validating
func (s *AuthService) Logout(sessionID string) error {
	if err := s.parentRepo.DeleteSession(sessionID); err != nil {
		return unavailable("logout", err)
	}
	return nil
}

// CleanupExpiredSessions removes expired sessions from the database
func (s *AuthService) CleanupExpiredSessions() (int64, error) {
	n, err := s.parentRepo.DeleteExpiredSessions()
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup sessions: %w", err)
	}
	return n, nil
}

// OAuthLogin signs in a parent through an OAuth provider, linking an
// existing password account with the same email or creating a new one
func (s *AuthService) OAuthLogin(provider, subject, email, name string, emailVerified bool) (*LoginResult, error) {
	if provider == "" || subject == "" {
		return nil, errors.New("missing oauth provider information")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}

	parent, err := s.parentRepo.GetParentByOAuth(provider, subject)
	if err != nil {
		return nil, unavailable("lookup oauth parent", err)
	}

	if parent == nil {
		// an unverified address must not claim or create an account
		if !emailVerified {
			return nil, ErrEmailNotVerified
		}
		existing, err := s.parentRepo.GetParentByEmail(email)
		if err != nil {
			return nil, unavailable("check existing parent", err)
		}
		if existing != nil {
			if existing.OAuthProvider != "" && existing.OAuthProvider != provider {
				return nil, ErrEmailTaken
			}
			if err := s.parentRepo.LinkOAuthProvider(existing.ID, provider, subject); err != nil {
				return nil, fmt.Errorf("failed to link oauth provider: %w", err)
			}
			parent = existing
		} else {
			if name == "" {
				name = strings.Split(email, "@")[0]
			}
			parent, err = s.parentRepo.CreateOAuthParent(email, name, provider, subject)
			if err != nil {
				return nil, unavailable("create oauth parent", err)
			}
		}
	}

	return s.issue(parent)
}

// GetProfile returns the signed-in parent's profile
func (s *AuthService) GetProfile(parentID int64) (*models.Parent, error) {
	parent, err := s.parentRepo.GetParentByID(parentID)
	if err != nil {
		return nil, unavailable("get parent", err)
	}
	if parent == nil {
		return nil, ErrParentNotFound
	}
	return parent, nil
}

// UpdateProfile changes the parent's display name
func (s *AuthService) UpdateProfile(parentID int64, fullName string) (*models.Parent, error) {
	fullName = strings.TrimSpace(fullName)
	if err := validation.ValidateName(fullName); err != nil {
		return nil, err
	}
	if err := s.parentRepo.UpdateProfile(parentID, fullName); err != nil {
		return nil, unavailable("update profile", err)
	}
	return s.GetProfile(parentID)
}

// DeleteAccount permanently removes the parent and everything they own.
// The confirmation email is best-effort.
func (s *AuthService) DeleteAccount(ctx context.Context, parentID int64) error {
	parent, err := s.GetProfile(parentID)
	if err != nil {
		return err
	}

	deleted, err := s.parentRepo.DeleteParent(parentID)
	if err != nil {
		return unavailable("delete account", err)
	}
	if !deleted {
		return ErrParentNotFound
	}
	log.Printf("Deleted account for parent %d", parentID)

	if s.email != nil {
		if err := s.email.SendAccountDeletedEmail(ctx, parent.Email, parent.FullName); err != nil {
			log.Printf("Warning: failed to send account deletion email to %s: %v", parent.Email, err)
		}
	}
	return nil
}
