// Package memory provides an in-process store for confrontation records,
// used by tests and single-node development runs.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/cryptopia-com/cryptopia-world/internal/services/pirates/domain/confrontation"
	"github.com/cryptopia-com/cryptopia-world/internal/services/pirates/storage"
)

type plunderKey struct {
	attacker string
	target   string
}

// Store keeps records in maps guarded by one mutex.
type Store struct {
	mu             sync.RWMutex
	confrontations map[string]confrontation.Confrontation
	byAttacker     map[string]string
	plunders       map[plunderKey]confrontation.Plunder
	nonces         map[confrontation.Nonce]struct{}
	audit          []storage.AuditEvent
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		confrontations: make(map[string]confrontation.Confrontation),
		byAttacker:     make(map[string]string),
		plunders:       make(map[plunderKey]confrontation.Plunder),
		nonces:         make(map[confrontation.Nonce]struct{}),
	}
}

// GetConfrontation returns the target's record.
func (s *Store) GetConfrontation(ctx context.Context, target string) (confrontation.Confrontation, error) {
	if err := ctx.Err(); err != nil {
		return confrontation.Confrontation{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.confrontations[target]
	if !ok {
		return confrontation.Confrontation{}, storage.ErrNotFound
	}
	return cloneConfrontation(c), nil
}

// GetConfrontationByAttacker returns the record the attacker last opened, if
// it still belongs to them.
func (s *Store) GetConfrontationByAttacker(ctx context.Context, attacker string) (confrontation.Confrontation, error) {
	if err := ctx.Err(); err != nil {
		return confrontation.Confrontation{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	target, ok := s.byAttacker[attacker]
	if !ok {
		return confrontation.Confrontation{}, storage.ErrNotFound
	}
	c, ok := s.confrontations[target]
	if !ok || c.Attacker != attacker {
		return confrontation.Confrontation{}, storage.ErrNotFound
	}
	return cloneConfrontation(c), nil
}

// GetPlunder returns the plunder record of the pair.
func (s *Store) GetPlunder(ctx context.Context, attacker, target string) (confrontation.Plunder, error) {
	if err := ctx.Err(); err != nil {
		return confrontation.Plunder{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.plunders[plunderKey{attacker: attacker, target: target}]
	if !ok {
		return confrontation.Plunder{}, storage.ErrNotFound
	}
	return clonePlunder(p), nil
}

// NonceUsed reports whether nonce was consumed.
func (s *Store) NonceUsed(ctx context.Context, nonce confrontation.Nonce) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.nonces[nonce]
	return ok, nil
}

// Commit applies change under the write lock.
func (s *Store) Commit(ctx context.Context, change confrontation.Change) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if change.Nonce != nil {
		if _, ok := s.nonces[*change.Nonce]; ok {
			return storage.ErrNonceUsed
		}
		s.nonces[*change.Nonce] = struct{}{}
	}
	if c := change.Confrontation; c != nil {
		s.confrontations[c.Target] = cloneConfrontation(*c)
		s.byAttacker[c.Attacker] = c.Target
	}
	if p := change.Plunder; p != nil {
		s.plunders[plunderKey{attacker: p.Attacker, target: p.Target}] = clonePlunder(*p)
	}
	return nil
}

// AppendAuditEvent stores evt.
func (s *Store) AppendAuditEvent(ctx context.Context, evt storage.AuditEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = append(s.audit, evt)
	return nil
}

// ListAuditEvents returns the newest events about target, newest first.
func (s *Store) ListAuditEvents(ctx context.Context, target string, limit int) ([]storage.AuditEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var events []storage.AuditEvent
	for i := len(s.audit) - 1; i >= 0 && (limit <= 0 || len(events) < limit); i-- {
		if s.audit[i].Target == target {
			events = append(events, s.audit[i])
		}
	}
	return events, nil
}

func cloneConfrontation(c confrontation.Confrontation) confrontation.Confrontation {
	if c.ConcludedAt != nil {
		value := *c.ConcludedAt
		c.ConcludedAt = &value
	}
	return c
}

func clonePlunder(p confrontation.Plunder) confrontation.Plunder {
	p.LootHash = slices.Clone(p.LootHash)
	if p.LootedAt != nil {
		value := *p.LootedAt
		p.LootedAt = &value
	}
	return p
}
