package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"go-auth-service/internal/model"
	"go-auth-service/internal/security"
	"go-auth-service/pkg/apierror"
)

// AuthService orchestrates the credential store, password hasher, token
// manager and session manager. It owns all hashing and policy decisions;
// the stores hold passive records only.
type AuthService struct {
	users    UserStore
	sessions *SessionService
	hasher   *security.PasswordHasher
	tokens   *security.TokenManager
	audit    *AuditService
}

func NewAuthService(users UserStore, sessions *SessionService, hasher *security.PasswordHasher, tokens *security.TokenManager, audit *AuditService) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		tokens:   tokens,
		audit:    audit,
	}
}

// unauthorized is the single failure returned for every credential problem:
// unknown email, wrong password, expired token, wrong token kind, vanished
// user. Callers must not be able to tell these apart.
func unauthorized() *apierror.APIError {
	return apierror.New("UNAUTHORIZED", "invalid credentials", http.StatusUnauthorized)
}

func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest, clientIP string) (model.AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	name := strings.TrimSpace(req.Name)

	if violations := security.CheckPasswordStrength(req.Password); len(violations) > 0 {
		return model.AuthResult{}, apierror.Validation("password does not meet the strength policy", violations)
	}

	// Advisory pre-check for a friendly error; the store's unique index is
	// the real guarantee under concurrent registration.
	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return model.AuthResult{}, err
	}
	if exists {
		return model.AuthResult{}, apierror.New("ALREADY_EXISTS", "email already in use", http.StatusConflict)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return model.AuthResult{}, err
	}

	now := time.Now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		DisplayName:  name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, model.ErrUserAlreadyExists) {
			return model.AuthResult{}, apierror.New("ALREADY_EXISTS", "email already in use", http.StatusConflict)
		}
		return model.AuthResult{}, err
	}

	pair, err := s.tokens.IssuePair(user.ID, user.Email)
	if err != nil {
		return model.AuthResult{}, err
	}

	s.audit.Record(ctx, model.EventRegister, user.ID, user.Email, clientIP, "")

	return authResult(user, pair), nil
}

func (s *AuthService) Login(ctx context.Context, email string, password string, clientIP string) (model.AuthResult, error) {
	user, err := s.authenticate(ctx, email, password, clientIP)
	if err != nil {
		return model.AuthResult{}, err
	}

	pair, err := s.tokens.IssuePair(user.ID, user.Email)
	if err != nil {
		return model.AuthResult{}, err
	}

	s.audit.Record(ctx, model.EventLogin, user.ID, user.Email, clientIP, "")

	return authResult(user, pair), nil
}

// Refresh exchanges a valid refresh token for a fresh pair. Refresh tokens
// are stateless by construction: nothing is persisted or revoked here, the
// token stands or falls on signature, expiry and kind alone.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, clientIP string) (model.TokenPair, error) {
	claims, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		s.audit.Record(ctx, model.EventRefreshFailed, "", "", clientIP, err.Error())
		return model.TokenPair{}, unauthorized()
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			s.audit.Record(ctx, model.EventRefreshFailed, claims.UserID, claims.Email, clientIP, "user no longer exists")
			return model.TokenPair{}, unauthorized()
		}
		return model.TokenPair{}, err
	}

	pair, err := s.tokens.IssuePair(user.ID, user.Email)
	if err != nil {
		return model.TokenPair{}, err
	}

	s.audit.Record(ctx, model.EventRefresh, user.ID, user.Email, clientIP, "")

	return pair, nil
}

// ValidateAccessToken backs the bearer middleware.
func (s *AuthService) ValidateAccessToken(tokenString string) (*model.TokenClaims, error) {
	return s.tokens.ValidateAccess(tokenString)
}

// Identify returns the current user snapshot for validated access token
// claims. A vanished user surfaces as the generic authentication failure,
// not a 404, to avoid an existence oracle.
func (s *AuthService) Identify(ctx context.Context, userID string) (model.UserProfile, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return model.UserProfile{}, unauthorized()
		}
		return model.UserProfile{}, err
	}
	return user.Profile(), nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID string, currentPassword string, newPassword string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return unauthorized()
		}
		return err
	}

	if !s.hasher.Verify(currentPassword, user.PasswordHash) {
		return unauthorized()
	}

	if violations := security.CheckPasswordStrength(newPassword); len(violations) > 0 {
		return apierror.Validation("password does not meet the strength policy", violations)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}

	// Outstanding sessions were established under the old password.
	if err := s.sessions.DestroyForUser(ctx, userID); err != nil {
		slog.Error("destroy sessions after password change", "user_id", userID, "error", err)
	}

	return nil
}

// SessionLogin authenticates exactly like Login but establishes a
// server-side session instead of issuing tokens.
func (s *AuthService) SessionLogin(ctx context.Context, email string, password string, clientIP string) (model.Session, model.UserProfile, error) {
	user, err := s.authenticate(ctx, email, password, clientIP)
	if err != nil {
		return model.Session{}, model.UserProfile{}, err
	}

	session, err := s.sessions.Create(ctx, user)
	if err != nil {
		return model.Session{}, model.UserProfile{}, err
	}

	s.audit.Record(ctx, model.EventSessionLogin, user.ID, user.Email, clientIP, "")

	return session, user.Profile(), nil
}

func (s *AuthService) SessionIdentify(ctx context.Context, sessionID string) (model.UserProfile, error) {
	session, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, model.ErrSessionNotFound) {
			return model.UserProfile{}, unauthorized()
		}
		return model.UserProfile{}, err
	}

	// The session snapshot may be stale; answer from the user row.
	return s.Identify(ctx, session.UserID)
}

// SessionLogout succeeds regardless of whether the session existed.
func (s *AuthService) SessionLogout(ctx context.Context, sessionID string, clientIP string) error {
	if err := s.sessions.Destroy(ctx, sessionID); err != nil {
		return err
	}

	s.audit.Record(ctx, model.EventSessionLogout, "", "", clientIP, "")
	return nil
}

func (s *AuthService) authenticate(ctx context.Context, email string, password string, clientIP string) (model.User, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.FindByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			s.audit.Record(ctx, model.EventLoginFailed, "", normalized, clientIP, "unknown email")
			return model.User{}, unauthorized()
		}
		return model.User{}, fmt.Errorf("authenticate: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.audit.Record(ctx, model.EventLoginFailed, user.ID, user.Email, clientIP, "password mismatch")
		return model.User{}, unauthorized()
	}

	return user, nil
}

func authResult(user model.User, pair model.TokenPair) model.AuthResult {
	return model.AuthResult{
		User:         user.Profile(),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    pair.ExpiresIn,
	}
}
