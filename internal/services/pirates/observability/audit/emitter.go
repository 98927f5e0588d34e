package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/cryptopia-com/cryptopia-world/internal/platform/id"
	"github.com/cryptopia-com/cryptopia-world/internal/services/pirates/storage"
)

// Emitter records audit events.
type Emitter struct {
	store storage.AuditEventStore
	clock func() time.Time
	newID func() (string, error)
}

// NewEmitter creates a new audit event emitter.
func NewEmitter(store storage.AuditEventStore) *Emitter {
	return &Emitter{store: store, clock: time.Now, newID: id.NewID}
}

// Emit records an audit event. It is a no-op when the store is nil.
func (e *Emitter) Emit(ctx context.Context, evt storage.AuditEvent) error {
	if e == nil || e.store == nil {
		return nil
	}
	if evt.Timestamp.IsZero() {
		if e.clock == nil {
			evt.Timestamp = time.Now().UTC()
		} else {
			evt.Timestamp = e.clock().UTC()
		}
	}
	if evt.ID == "" {
		newID := e.newID
		if newID == nil {
			newID = id.NewID
		}
		value, err := newID()
		if err != nil {
			return fmt.Errorf("audit event id: %w", err)
		}
		evt.ID = value
	}
	return e.store.AppendAuditEvent(ctx, evt)
}
