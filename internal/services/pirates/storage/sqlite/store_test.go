package sqlite

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/cryptopia-com/cryptopia-world/internal/services/pirates/domain/confrontation"
	"github.com/cryptopia-com/cryptopia-world/internal/services/pirates/storage"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "pirates.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(""); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "pirates.db")
	first, err := Open(path)
	if err != nil {
		t.Fatalf("open first: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close first: %v", err)
	}
	second, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if err := second.Close(); err != nil {
		t.Fatalf("close second: %v", err)
	}
}

func TestConfrontationRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 987_654_321, time.UTC)
	arrival := now.Add(1234567 * time.Nanosecond)

	input := confrontation.Confrontation{
		Attacker:   "pirate",
		Target:     "trader",
		Location:   42,
		Arrival:    arrival,
		Deadline:   now.Add(10 * time.Minute),
		Expiration: now.Add(20 * time.Minute),
		CreatedAt:  now,
	}
	if err := store.Commit(ctx, confrontation.Change{Confrontation: &input}); err != nil {
		t.Fatalf("commit: %v", err)
	}

	got, err := store.GetConfrontation(ctx, "trader")
	if err != nil {
		t.Fatalf("get confrontation: %v", err)
	}
	if got.Attacker != "pirate" || got.Location != 42 {
		t.Fatalf("confrontation = %+v, want attacker pirate at 42", got)
	}
	if !got.Arrival.Equal(arrival) {
		t.Fatalf("arrival = %v, want %v", got.Arrival, arrival)
	}
	if !got.Deadline.Equal(input.Deadline) {
		t.Fatalf("deadline = %v, want %v", got.Deadline, input.Deadline)
	}
	if !got.Expiration.Equal(input.Expiration) {
		t.Fatalf("expiration = %v, want %v", got.Expiration, input.Expiration)
	}
	if !got.CreatedAt.Equal(now) {
		t.Fatalf("created at = %v, want %v", got.CreatedAt, now)
	}
	if got.ConcludedAt != nil {
		t.Fatalf("concluded at = %v, want nil", got.ConcludedAt)
	}

	concludedAt := now.Add(time.Minute)
	input.ConcludedAt = &concludedAt
	input.Outcome = confrontation.OutcomeEscaped
	input.EscapeAttempted = true
	if err := store.Commit(ctx, confrontation.Change{Confrontation: &input}); err != nil {
		t.Fatalf("commit concluded: %v", err)
	}

	got, err = store.GetConfrontationByAttacker(ctx, "pirate")
	if err != nil {
		t.Fatalf("get by attacker: %v", err)
	}
	if got.ConcludedAt == nil || !got.ConcludedAt.Equal(concludedAt) {
		t.Fatalf("concluded at = %v, want %v", got.ConcludedAt, concludedAt)
	}
	if !got.EscapeAttempted {
		t.Fatal("expected escape attempted to persist")
	}
	if got.Outcome != confrontation.OutcomeEscaped {
		t.Fatalf("outcome = %q, want %q", got.Outcome, confrontation.OutcomeEscaped)
	}
}

func TestGetConfrontationByAttackerReturnsNewest(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, target := range []string{"trader-1", "trader-2"} {
		c := confrontation.Confrontation{
			Attacker:   "pirate",
			Target:     target,
			Deadline:   now,
			Expiration: now,
			CreatedAt:  now.Add(time.Duration(i) * time.Minute),
		}
		if err := store.Commit(ctx, confrontation.Change{Confrontation: &c}); err != nil {
			t.Fatalf("commit %s: %v", target, err)
		}
	}

	got, err := store.GetConfrontationByAttacker(ctx, "pirate")
	if err != nil {
		t.Fatalf("get by attacker: %v", err)
	}
	if got.Target != "trader-2" {
		t.Fatalf("target = %q, want %q", got.Target, "trader-2")
	}
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	if _, err := store.GetConfrontation(ctx, "nobody"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get confrontation error = %v, want %v", err, storage.ErrNotFound)
	}
	if _, err := store.GetPlunder(ctx, "pirate", "nobody"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get plunder error = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestPlunderRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 123_456_789, time.UTC)

	claim := confrontation.Plunder{Attacker: "pirate", Target: "trader", Deadline: now.Add(10 * time.Minute), CreatedAt: now}
	if err := store.Commit(ctx, confrontation.Change{Plunder: &claim}); err != nil {
		t.Fatalf("commit plunder: %v", err)
	}
	got, err := store.GetPlunder(ctx, "pirate", "trader")
	if err != nil {
		t.Fatalf("get plunder: %v", err)
	}
	if got.LootHash != nil || got.LootedAt != nil {
		t.Fatalf("plunder = %+v, want no loot yet", got)
	}
	if !got.Deadline.Equal(claim.Deadline) {
		t.Fatalf("deadline = %v, want %v", got.Deadline, claim.Deadline)
	}

	looted := now.Add(time.Minute)
	claim.LootedAt = &looted
	claim.LootHash = []byte{0xde, 0xad}
	if err := store.Commit(ctx, confrontation.Change{Plunder: &claim}); err != nil {
		t.Fatalf("commit loot: %v", err)
	}
	got, err = store.GetPlunder(ctx, "pirate", "trader")
	if err != nil {
		t.Fatalf("get plunder: %v", err)
	}
	if !bytes.Equal(got.LootHash, claim.LootHash) {
		t.Fatalf("loot hash = %x, want %x", got.LootHash, claim.LootHash)
	}
	if got.LootedAt == nil || !got.LootedAt.Equal(looted) {
		t.Fatalf("looted at = %v, want %v", got.LootedAt, looted)
	}
}

func TestCommitRollsBackOnReusedNonce(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	nonce := confrontation.Nonce{Subject: "trader", Value: "n-1"}

	if err := store.Commit(ctx, confrontation.Change{Nonce: &nonce}); err != nil {
		t.Fatalf("commit nonce: %v", err)
	}
	used, err := store.NonceUsed(ctx, nonce)
	if err != nil {
		t.Fatalf("nonce used: %v", err)
	}
	if !used {
		t.Fatal("expected nonce to be used")
	}

	c := confrontation.Confrontation{Attacker: "pirate", Target: "trader"}
	err = store.Commit(ctx, confrontation.Change{Confrontation: &c, Nonce: &nonce})
	if !errors.Is(err, storage.ErrNonceUsed) {
		t.Fatalf("commit error = %v, want %v", err, storage.ErrNonceUsed)
	}
	if _, err := store.GetConfrontation(ctx, "trader"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected rolled back confrontation, got %v", err)
	}
}

func TestAuditEventsNewestFirst(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, name := range []string{"intercept", "attempt_escape", "plunder"} {
		evt := storage.AuditEvent{
			ID:        name,
			EventName: "pirates.confrontation." + name,
			Target:    "trader",
			Timestamp: now.Add(time.Duration(i) * time.Second),
		}
		if err := store.AppendAuditEvent(ctx, evt); err != nil {
			t.Fatalf("append %s: %v", name, err)
		}
	}

	events, err := store.ListAuditEvents(ctx, "trader", 2)
	if err != nil {
		t.Fatalf("list audit events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	if events[0].ID != "plunder" || events[1].ID != "attempt_escape" {
		t.Fatalf("events = %+v, want newest first", events)
	}
}

func TestAppendAuditEventRequiresFields(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if err := store.AppendAuditEvent(context.Background(), storage.AuditEvent{EventName: "x"}); err == nil {
		t.Fatal("expected missing id error")
	}
}
