package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"go-auth-service/internal/model"
)

type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

func (r *AuditRepository) Record(ctx context.Context, e model.AuthEvent) error {
	var userID any
	if e.UserID != "" {
		userID = e.UserID
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO auth_events (occurred_at, event, user_id, email, client_ip, detail)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		e.OccurredAt, e.Event, userID, e.Email, e.ClientIP, e.Detail)
	if err != nil {
		return fmt.Errorf("record auth event: %w", err)
	}
	return nil
}

// PruneOlderThan trims the trail for storage hygiene.
func (r *AuditRepository) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM auth_events WHERE occurred_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune auth events: %w", err)
	}
	return tag.RowsAffected(), nil
}
