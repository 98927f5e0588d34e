// Package storage defines persistence contracts shared by the pirates
// service stores.
//
// Confrontation and plunder records are declared by the confrontation domain
// package, which owns them; this package only carries the sentinel errors and
// the audit trail contract so both sides can depend on it.
package storage

import (
	"context"
	"time"

	apperrors "github.com/cryptopia-com/cryptopia-world/internal/platform/errors"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// ErrNonceUsed indicates an authorization nonce was already consumed.
var ErrNonceUsed = apperrors.New(apperrors.CodeOfferNonceUsed, "nonce already used")

// AuditEvent is one append-only record of a confrontation transition.
type AuditEvent struct {
	ID        string
	Timestamp time.Time
	EventName string
	Actor     string
	Attacker  string
	Target    string
	Outcome   string
	Detail    string
}

// AuditEventStore persists audit events.
type AuditEventStore interface {
	AppendAuditEvent(ctx context.Context, evt AuditEvent) error
	ListAuditEvents(ctx context.Context, target string, limit int) ([]AuditEvent, error)
}
