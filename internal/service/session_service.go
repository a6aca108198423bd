package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go-auth-service/internal/model"
	"go-auth-service/internal/security"
)

// SessionService owns the server-side session lifecycle. Session ids are
// opaque to the client; expiry is absolute, fixed at creation.
type SessionService struct {
	sessions SessionStore
	users    UserStore
	audit    *AuditService
	ttl      time.Duration
}

func NewSessionService(sessions SessionStore, users UserStore, audit *AuditService, ttl time.Duration) *SessionService {
	return &SessionService{sessions: sessions, users: users, audit: audit, ttl: ttl}
}

func (s *SessionService) TTL() time.Duration {
	return s.ttl
}

func (s *SessionService) Create(ctx context.Context, user model.User) (model.Session, error) {
	id, err := security.NewSessionID()
	if err != nil {
		return model.Session{}, err
	}

	now := time.Now().UTC()
	session := model.Session{
		ID:          id,
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.ttl),
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return model.Session{}, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// Load resolves a session id to its record. The referenced user is
// re-checked on every load; a session whose user vanished is destroyed on
// the spot so account deletion invalidates outstanding cookies.
func (s *SessionService) Load(ctx context.Context, sessionID string) (model.Session, error) {
	if sessionID == "" {
		return model.Session{}, model.ErrSessionNotFound
	}

	session, err := s.sessions.Find(ctx, sessionID)
	if err != nil {
		return model.Session{}, err
	}

	if _, err := s.users.FindByID(ctx, session.UserID); err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			_ = s.sessions.Delete(ctx, sessionID)
			return model.Session{}, model.ErrSessionNotFound
		}
		return model.Session{}, err
	}

	return session, nil
}

// Destroy is idempotent; destroying an absent or already destroyed session
// succeeds.
func (s *SessionService) Destroy(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.sessions.Delete(ctx, sessionID)
}

func (s *SessionService) DestroyForUser(ctx context.Context, userID string) error {
	return s.sessions.DeleteForUser(ctx, userID)
}

// StartSweeper reaps expired sessions and stale audit events periodically.
// Lookups already treat expired sessions as absent, so this is storage
// hygiene only.
func (s *SessionService) StartSweeper(ctx context.Context, interval time.Duration, auditRetention time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx, auditRetention)
		}
	}
}

func (s *SessionService) sweep(ctx context.Context, auditRetention time.Duration) {
	removed, err := s.sessions.DeleteExpired(ctx)
	if err != nil {
		slog.Error("session sweep failed", "error", err)
	} else if removed > 0 {
		slog.Info("session sweep", "removed", removed)
		s.audit.Record(ctx, model.EventSessionExpired, "", "", "", fmt.Sprintf("swept %d expired sessions", removed))
	}

	if pruned := s.audit.PruneOlderThan(ctx, auditRetention); pruned > 0 {
		slog.Info("audit prune", "removed", pruned)
	}
}
