package service

import (
	"context"
	"log/slog"
	"time"

	"go-auth-service/internal/model"
)

// AuditService records auth events best-effort: a failing audit write is
// logged and never fails the request that triggered it.
type AuditService struct {
	store AuditStore
}

func NewAuditService(store AuditStore) *AuditService {
	return &AuditService{store: store}
}

func (s *AuditService) Record(ctx context.Context, event string, userID string, email string, clientIP string, detail string) {
	if s == nil || s.store == nil {
		return
	}

	entry := model.AuthEvent{
		OccurredAt: time.Now().UTC(),
		Event:      event,
		UserID:     userID,
		Email:      email,
		ClientIP:   clientIP,
		Detail:     detail,
	}

	// The write should survive the request being abandoned mid-flight.
	if err := s.store.Record(context.WithoutCancel(ctx), entry); err != nil {
		slog.Error("audit record failed", "event", event, "error", err)
	}
}

// PruneOlderThan drops events past the retention window. Like Record it is
// best-effort; the sweep that calls it must not die on a failed prune.
func (s *AuditService) PruneOlderThan(ctx context.Context, retention time.Duration) int64 {
	if s == nil || s.store == nil || retention <= 0 {
		return 0
	}

	removed, err := s.store.PruneOlderThan(ctx, time.Now().UTC().Add(-retention))
	if err != nil {
		slog.Error("audit prune failed", "error", err)
		return 0
	}
	return removed
}
