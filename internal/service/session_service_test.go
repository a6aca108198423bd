package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-auth-service/internal/model"
	"go-auth-service/internal/repository"
)

func newSessionFixture(t *testing.T, ttl time.Duration) (*SessionService, *repository.MemoryUserStore) {
	t.Helper()

	users := repository.NewMemoryUserStore()
	sessions := repository.NewMemorySessionStore()
	audit := NewAuditService(repository.NewMemoryAuditStore())
	return NewSessionService(sessions, users, audit, ttl), users
}

func seedUser(t *testing.T, users *repository.MemoryUserStore) model.User {
	t.Helper()

	user := model.User{
		ID:           uuid.NewString(),
		Email:        "a@x.com",
		PasswordHash: "$2a$10$placeholderplaceholderplaceholder",
		DisplayName:  "A",
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	require.NoError(t, users.Create(context.Background(), user))
	return user
}

func TestSessionService_CreateLoadDestroy(t *testing.T) {
	svc, users := newSessionFixture(t, time.Hour)
	user := seedUser(t, users)
	ctx := context.Background()

	session, err := svc.Create(ctx, user)
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	assert.Equal(t, user.ID, session.UserID)
	assert.Equal(t, user.Email, session.Email)
	assert.True(t, session.ExpiresAt.After(time.Now()))

	loaded, err := svc.Load(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, loaded.ID)

	require.NoError(t, svc.Destroy(ctx, session.ID))

	_, err = svc.Load(ctx, session.ID)
	assert.ErrorIs(t, err, model.ErrSessionNotFound)
}

func TestSessionService_DestroyIdempotent(t *testing.T) {
	svc, _ := newSessionFixture(t, time.Hour)
	ctx := context.Background()

	assert.NoError(t, svc.Destroy(ctx, "absent"))
	assert.NoError(t, svc.Destroy(ctx, "absent"))
	assert.NoError(t, svc.Destroy(ctx, ""))
}

func TestSessionService_LoadExpired(t *testing.T) {
	svc, users := newSessionFixture(t, -time.Minute)
	user := seedUser(t, users)
	ctx := context.Background()

	session, err := svc.Create(ctx, user)
	require.NoError(t, err)

	_, err = svc.Load(ctx, session.ID)
	assert.ErrorIs(t, err, model.ErrSessionNotFound)
}

func TestSessionService_LoadAfterUserDeleted(t *testing.T) {
	svc, users := newSessionFixture(t, time.Hour)
	user := seedUser(t, users)
	ctx := context.Background()

	session, err := svc.Create(ctx, user)
	require.NoError(t, err)

	require.NoError(t, users.Delete(ctx, user.ID))

	// The stale session is destroyed on load, not just hidden.
	_, err = svc.Load(ctx, session.ID)
	assert.ErrorIs(t, err, model.ErrSessionNotFound)

	_, err = svc.Load(ctx, session.ID)
	assert.ErrorIs(t, err, model.ErrSessionNotFound)
}

func TestSessionService_ConcurrentLogoutAndLoad(t *testing.T) {
	svc, users := newSessionFixture(t, time.Hour)
	user := seedUser(t, users)
	ctx := context.Background()

	session, err := svc.Create(ctx, user)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = svc.Destroy(ctx, session.ID)
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Either a live record or not-found; never a crash or error of
			// another kind.
			if _, err := svc.Load(ctx, session.ID); err != nil {
				assert.ErrorIs(t, err, model.ErrSessionNotFound)
			}
		}()
	}
	wg.Wait()

	_, err = svc.Load(ctx, session.ID)
	assert.ErrorIs(t, err, model.ErrSessionNotFound)
}

func TestSessionService_DestroyForUser(t *testing.T) {
	svc, users := newSessionFixture(t, time.Hour)
	user := seedUser(t, users)
	ctx := context.Background()

	first, err := svc.Create(ctx, user)
	require.NoError(t, err)
	second, err := svc.Create(ctx, user)
	require.NoError(t, err)

	require.NoError(t, svc.DestroyForUser(ctx, user.ID))

	_, err = svc.Load(ctx, first.ID)
	assert.ErrorIs(t, err, model.ErrSessionNotFound)
	_, err = svc.Load(ctx, second.ID)
	assert.ErrorIs(t, err, model.ErrSessionNotFound)
}

func TestSessionService_SweepReapsAndAudits(t *testing.T) {
	users := repository.NewMemoryUserStore()
	sessions := repository.NewMemorySessionStore()
	auditStore := repository.NewMemoryAuditStore()
	svc := NewSessionService(sessions, users, NewAuditService(auditStore), time.Hour)
	user := seedUser(t, users)
	ctx := context.Background()

	// An already expired session row, written past the service's TTL.
	expired := model.Session{
		ID:        "expired-session",
		UserID:    user.ID,
		Email:     user.Email,
		CreatedAt: time.Now().UTC().Add(-2 * time.Hour),
		ExpiresAt: time.Now().UTC().Add(-time.Hour),
	}
	require.NoError(t, sessions.Create(ctx, expired))

	// An audit entry older than the retention window.
	stale := model.AuthEvent{
		OccurredAt: time.Now().UTC().Add(-48 * time.Hour),
		Event:      model.EventLogin,
	}
	require.NoError(t, auditStore.Record(ctx, stale))

	live, err := svc.Create(ctx, user)
	require.NoError(t, err)

	svc.sweep(ctx, 24*time.Hour)

	_, err = sessions.Find(ctx, expired.ID)
	assert.ErrorIs(t, err, model.ErrSessionNotFound)
	_, err = svc.Load(ctx, live.ID)
	assert.NoError(t, err)

	events := auditStore.Events()
	require.Len(t, events, 1)
	assert.Equal(t, model.EventSessionExpired, events[0].Event)
}
