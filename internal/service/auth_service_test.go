package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-auth-service/internal/model"
	"go-auth-service/internal/repository"
	"go-auth-service/internal/security"
	"go-auth-service/pkg/apierror"
)

type authFixture struct {
	users    *repository.MemoryUserStore
	sessions *repository.MemorySessionStore
	audit    *repository.MemoryAuditStore
	service  *AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	users := repository.NewMemoryUserStore()
	sessions := repository.NewMemorySessionStore()
	audit := repository.NewMemoryAuditStore()

	tokens, err := security.NewTokenManager("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)

	hasher := security.NewPasswordHasher(4)
	auditService := NewAuditService(audit)
	sessionService := NewSessionService(sessions, users, auditService, time.Hour)

	return &authFixture{
		users:    users,
		sessions: sessions,
		audit:    audit,
		service:  NewAuthService(users, sessionService, hasher, tokens, auditService),
	}
}

func registerRequest(email string) model.RegisterRequest {
	return model.RegisterRequest{Email: email, Password: "Abc12345!", Name: "A"}
}

func TestAuthService_Register(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()

	result, err := fx.service.Register(ctx, registerRequest("A@X.com"), "127.0.0.1")
	require.NoError(t, err)

	assert.Equal(t, "a@x.com", result.User.Email, "email is case-normalized")
	assert.NotEmpty(t, result.User.ID)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)

	stored, err := fx.users.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.NotEmpty(t, stored.PasswordHash)
	assert.NotEqual(t, "Abc12345!", stored.PasswordHash)
}

func TestAuthService_RegisterWeakPassword(t *testing.T) {
	fx := newAuthFixture(t)

	_, err := fx.service.Register(context.Background(), model.RegisterRequest{
		Email:    "a@x.com",
		Password: "weak",
		Name:     "A",
	}, "")
	require.Error(t, err)

	var apiErr *apierror.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.HTTPStatus)
	assert.Greater(t, len(apiErr.Details), 1, "all violated rules are reported")
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()

	_, err := fx.service.Register(ctx, registerRequest("a@x.com"), "")
	require.NoError(t, err)

	_, err = fx.service.Register(ctx, registerRequest("A@x.COM"), "")
	require.Error(t, err)

	var apiErr *apierror.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 409, apiErr.HTTPStatus)
}

func TestAuthService_RegisterConcurrentDuplicate(t *testing.T) {
	fx := newAuthFixture(t)

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = fx.service.Register(context.Background(), registerRequest("race@x.com"), "")
		}(i)
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one concurrent registration wins")

	count, err := fx.users.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestAuthService_Login(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()

	_, err := fx.service.Register(ctx, registerRequest("a@x.com"), "")
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		result, err := fx.service.Login(ctx, "a@x.com", "Abc12345!", "")
		require.NoError(t, err)
		assert.Equal(t, "a@x.com", result.User.Email)
		assert.NotEmpty(t, result.AccessToken)
	})

	t.Run("wrong password and unknown email are indistinguishable", func(t *testing.T) {
		_, wrongPassword := fx.service.Login(ctx, "a@x.com", "Wrong1234!", "")
		require.Error(t, wrongPassword)

		_, unknownEmail := fx.service.Login(ctx, "nobody@x.com", "Abc12345!", "")
		require.Error(t, unknownEmail)

		assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
	})
}

func TestAuthService_Refresh(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()

	registered, err := fx.service.Register(ctx, registerRequest("a@x.com"), "")
	require.NoError(t, err)

	t.Run("issues a new pair for the same subject", func(t *testing.T) {
		pair, err := fx.service.Refresh(ctx, registered.RefreshToken, "")
		require.NoError(t, err)

		claims, err := fx.service.ValidateAccessToken(pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, registered.User.ID, claims.UserID)
	})

	t.Run("access token rejected at refresh entry point", func(t *testing.T) {
		_, err := fx.service.Refresh(ctx, registered.AccessToken, "")
		assert.Error(t, err)
	})

	t.Run("rejected after the user vanishes", func(t *testing.T) {
		require.NoError(t, fx.users.Delete(ctx, registered.User.ID))

		_, err := fx.service.Refresh(ctx, registered.RefreshToken, "")
		assert.Error(t, err)
	})
}

func TestAuthService_IdentifyVanishedUser(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()

	registered, err := fx.service.Register(ctx, registerRequest("a@x.com"), "")
	require.NoError(t, err)
	require.NoError(t, fx.users.Delete(ctx, registered.User.ID))

	_, err = fx.service.Identify(ctx, registered.User.ID)
	require.Error(t, err)

	var apiErr *apierror.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.HTTPStatus, "vanished user is a generic auth failure, not a 404")
}

func TestAuthService_ChangePassword(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()

	registered, err := fx.service.Register(ctx, registerRequest("a@x.com"), "")
	require.NoError(t, err)

	session, _, err := fx.service.SessionLogin(ctx, "a@x.com", "Abc12345!", "")
	require.NoError(t, err)

	t.Run("wrong current password rejected", func(t *testing.T) {
		err := fx.service.ChangePassword(ctx, registered.User.ID, "Wrong1234!", "New12345!")
		assert.Error(t, err)
	})

	t.Run("success rotates credentials and destroys sessions", func(t *testing.T) {
		require.NoError(t, fx.service.ChangePassword(ctx, registered.User.ID, "Abc12345!", "New12345!"))

		_, err := fx.service.Login(ctx, "a@x.com", "Abc12345!", "")
		assert.Error(t, err, "old password no longer works")

		_, err = fx.service.Login(ctx, "a@x.com", "New12345!", "")
		assert.NoError(t, err)

		_, err = fx.service.SessionIdentify(ctx, session.ID)
		assert.Error(t, err, "existing sessions are invalidated")
	})
}

func TestAuthService_AuditTrailKeepsCausesDistinct(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()

	_, err := fx.service.Register(ctx, registerRequest("a@x.com"), "10.0.0.1")
	require.NoError(t, err)

	_, _ = fx.service.Login(ctx, "a@x.com", "Wrong1234!", "10.0.0.1")
	_, _ = fx.service.Refresh(ctx, "garbage", "10.0.0.1")

	events := fx.audit.Events()
	require.Len(t, events, 3)
	assert.Equal(t, model.EventRegister, events[0].Event)
	assert.Equal(t, model.EventLoginFailed, events[1].Event)
	assert.Equal(t, "password mismatch", events[1].Detail)
	assert.Equal(t, model.EventRefreshFailed, events[2].Event)
	assert.Equal(t, model.ErrTokenInvalid.Error(), events[2].Detail)
}

func TestAuthService_SessionLogoutAlwaysSucceeds(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()

	assert.NoError(t, fx.service.SessionLogout(ctx, "never-existed", ""))
	assert.NoError(t, fx.service.SessionLogout(ctx, "", ""))
}

func TestAuthService_GenericUnauthorizedShape(t *testing.T) {
	err := unauthorized()
	assert.Equal(t, 401, err.HTTPStatus)
	assert.True(t, errors.As(error(err), new(*apierror.APIError)))
}
