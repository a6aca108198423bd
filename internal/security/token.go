package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"go-auth-service/internal/model"
)

const (
	TokenKindAccess  = "access"
	TokenKindRefresh = "refresh"
)

// TokenManager signs and validates the two bearer token kinds. Each kind
// has its own secret, so a leaked access signing key cannot mint refresh
// tokens and vice versa. Tokens are stateless: validity is a function of
// signature, expiry and the embedded type claim only.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenManager(accessSecret string, refreshSecret string, accessTTL time.Duration, refreshTTL time.Duration) (*TokenManager, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, errors.New("token secrets are required")
	}
	if accessSecret == refreshSecret {
		return nil, errors.New("access and refresh token secrets must differ")
	}

	return &TokenManager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}, nil
}

func (m *TokenManager) AccessTTL() time.Duration {
	return m.accessTTL
}

func (m *TokenManager) RefreshTTL() time.Duration {
	return m.refreshTTL
}

// IssuePair signs a fresh access+refresh token pair for the user.
func (m *TokenManager) IssuePair(userID string, email string) (model.TokenPair, error) {
	accessToken, err := m.sign(userID, email, TokenKindAccess, m.accessSecret, m.accessTTL)
	if err != nil {
		return model.TokenPair{}, err
	}

	refreshToken, err := m.sign(userID, email, TokenKindRefresh, m.refreshSecret, m.refreshTTL)
	if err != nil {
		return model.TokenPair{}, err
	}

	return model.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(m.accessTTL.Seconds()),
	}, nil
}

func (m *TokenManager) ValidateAccess(tokenString string) (*model.TokenClaims, error) {
	return m.validate(tokenString, TokenKindAccess, m.accessSecret)
}

func (m *TokenManager) ValidateRefresh(tokenString string) (*model.TokenClaims, error) {
	return m.validate(tokenString, TokenKindRefresh, m.refreshSecret)
}

func (m *TokenManager) sign(userID string, email string, kind string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"type":  kind,
		"jti":   uuid.NewString(),
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	})

	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, nil
}

// validate checks signature, expiry and kind, in that order. The returned
// errors stay distinguishable for logging and audit; callers must collapse
// them to one generic response before anything leaves the process.
func (m *TokenManager) validate(tokenString string, expectedKind string, secret []byte) (*model.TokenClaims, error) {
	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", token.Method.Alg())
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, model.ErrTokenExpired
		}
		return nil, model.ErrTokenInvalid
	}
	if !parsed.Valid {
		return nil, model.ErrTokenInvalid
	}

	claimsMap, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, model.ErrTokenInvalid
	}

	// A refresh token presented at the access entry point is rejected even
	// when signature and expiry check out, and vice versa.
	kind, _ := claimsMap["type"].(string)
	if kind != expectedKind {
		return nil, model.ErrTokenWrongKind
	}

	claims := &model.TokenClaims{Kind: kind}
	claims.UserID, _ = claimsMap["sub"].(string)
	claims.Email, _ = claimsMap["email"].(string)
	claims.TokenID, _ = claimsMap["jti"].(string)

	if claims.UserID == "" {
		return nil, model.ErrTokenInvalid
	}

	return claims, nil
}
