package service

import (
	"context"
	"time"

	"go-auth-service/internal/model"
)

// Store interfaces are declared here, on the consumer side. The pgx-backed
// repositories satisfy them in production; the in-memory stores satisfy
// them in tests.

type UserStore interface {
	Create(ctx context.Context, u model.User) error
	FindByID(ctx context.Context, id string) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	UpdatePassword(ctx context.Context, userID string, passwordHash string) error
}

type SessionStore interface {
	Create(ctx context.Context, s model.Session) error
	Find(ctx context.Context, sessionID string) (model.Session, error)
	Delete(ctx context.Context, sessionID string) error
	DeleteForUser(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

type AuditStore interface {
	Record(ctx context.Context, e model.AuthEvent) error
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
