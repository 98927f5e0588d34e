package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/cryptopia-com/cryptopia-world/internal/services/pirates/storage"
)

// AppendAuditEvent persists evt.
func (s *Store) AppendAuditEvent(ctx context.Context, evt storage.AuditEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(evt.ID) == "" {
		return fmt.Errorf("event id is required")
	}
	if strings.TrimSpace(evt.EventName) == "" {
		return fmt.Errorf("event name is required")
	}
	if evt.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO audit_events (id, event_name, actor, attacker, target, outcome, detail, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`,
		evt.ID,
		evt.EventName,
		evt.Actor,
		evt.Attacker,
		evt.Target,
		evt.Outcome,
		evt.Detail,
		toNanos(evt.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

// ListAuditEvents returns up to limit events about target, newest first.
func (s *Store) ListAuditEvents(ctx context.Context, target string, limit int) ([]storage.AuditEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, event_name, actor, attacker, target, outcome, detail, created_at
FROM audit_events WHERE target = ?
ORDER BY created_at DESC, rowid DESC
LIMIT ?
`, target, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []storage.AuditEvent
	for rows.Next() {
		var (
			evt       storage.AuditEvent
			createdAt int64
		)
		if err := rows.Scan(&evt.ID, &evt.EventName, &evt.Actor, &evt.Attacker, &evt.Target,
			&evt.Outcome, &evt.Detail, &createdAt); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		evt.Timestamp = fromNanos(createdAt)
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
