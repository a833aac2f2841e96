package postgres

import (
	"context"
	"database/sql"

	"github.com/fadedwholesale/wholesale-service/internal/application/ports"
	"github.com/fadedwholesale/wholesale-service/internal/infrastructure/monitoring"
)

type ActivityLogRepository struct {
	db *sql.DB
}

func NewActivityLogRepository(conn *Connection) *ActivityLogRepository {
	return &ActivityLogRepository{
		db: conn.GetDB(),
	}
}

func (r *ActivityLogRepository) Record(ctx context.Context, entry ports.ActivityEntry) error {
	query := `
		INSERT INTO activity_log (actor, action, kind, message, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	detail := entry.Detail
	if len(detail) == 0 {
		detail = []byte("{}")
	}

	_, err := monitoring.InstrumentExec(ctx, r.db, "INSERT", "activity_log", query,
		entry.Actor, entry.Action, entry.Kind, entry.Message, detail, entry.CreatedAt,
	)
	return err
}

func (r *ActivityLogRepository) Recent(ctx context.Context, limit int) ([]ports.ActivityEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := `
		SELECT actor, action, kind, message, detail, created_at
		FROM activity_log
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := monitoring.InstrumentQuery(ctx, r.db, "SELECT", "activity_log", query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []ports.ActivityEntry
	for rows.Next() {
		var e ports.ActivityEntry
		if err := rows.Scan(&e.Actor, &e.Action, &e.Kind, &e.Message, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
