package confrontation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/cryptopia-com/cryptopia-world/internal/platform/errors"
	"github.com/cryptopia-com/cryptopia-world/internal/random"
	"github.com/cryptopia-com/cryptopia-world/internal/services/pirates/domain/battle"
	"github.com/cryptopia-com/cryptopia-world/internal/services/pirates/domain/escape"
	"github.com/cryptopia-com/cryptopia-world/internal/services/pirates/domain/plunder"
	"github.com/cryptopia-com/cryptopia-world/internal/services/pirates/storage"
)

const tracerName = "github.com/cryptopia-com/cryptopia-world/internal/services/pirates/domain/confrontation"

// Operation names used for spans, metrics and audit events.
const (
	OpIntercept        = "intercept"
	OpAcceptOffer      = "accept_offer"
	OpAttemptEscape    = "attempt_escape"
	OpBattleAsTarget   = "battle_as_target"
	OpBattleAsAttacker = "battle_as_attacker"
	OpPlunder          = "plunder"

	eventNamePrefix  = "pirates.confrontation."
	seedCallerPrefix = "confrontation:"
)

// Deps are the collaborators a Manager needs.
type Deps struct {
	Registry   Registry
	World      World
	Inventory  Inventory
	Verifier   OfferVerifier
	Transactor Transactor
	Store      Store
	Seeds      Seeder
}

// Manager drives confrontation transitions.
type Manager struct {
	registry  Registry
	world     World
	inventory Inventory
	verifier  OfferVerifier
	tx        Transactor
	store     Store
	seeds     Seeder

	rules         Rules
	battleMode    battle.Mode
	escapeParams  escape.Params
	plunderParams plunder.Params

	audit    AuditEmitter
	recorder Recorder
	tracer   trace.Tracer
	clock    func() time.Time

	locks keyedLocks
}

// Option configures a Manager.
type Option func(*Manager)

// WithRules overrides DefaultRules.
func WithRules(rules Rules) Option {
	return func(m *Manager) { m.rules = rules }
}

// WithClock overrides time.Now.
func WithClock(clock func() time.Time) Option {
	return func(m *Manager) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// WithBattleMode selects the health model of battles.
func WithBattleMode(mode battle.Mode) Option {
	return func(m *Manager) { m.battleMode = mode }
}

// WithEscapeParams overrides escape.DefaultParams.
func WithEscapeParams(params escape.Params) Option {
	return func(m *Manager) { m.escapeParams = params }
}

// WithPlunderParams overrides plunder.DefaultParams.
func WithPlunderParams(params plunder.Params) Option {
	return func(m *Manager) { m.plunderParams = params }
}

// WithAudit records an audit event per committed transition.
func WithAudit(emitter AuditEmitter) Option {
	return func(m *Manager) { m.audit = emitter }
}

// WithRecorder counts transitions.
func WithRecorder(recorder Recorder) Option {
	return func(m *Manager) { m.recorder = recorder }
}

// WithTracer overrides the global tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(m *Manager) {
		if tracer != nil {
			m.tracer = tracer
		}
	}
}

// NewManager builds a Manager.
func NewManager(deps Deps, opts ...Option) (*Manager, error) {
	switch {
	case deps.Registry == nil:
		return nil, errors.New("registry is required")
	case deps.World == nil:
		return nil, errors.New("world is required")
	case deps.Inventory == nil:
		return nil, errors.New("inventory is required")
	case deps.Verifier == nil:
		return nil, errors.New("offer verifier is required")
	case deps.Transactor == nil:
		return nil, errors.New("transactor is required")
	case deps.Store == nil:
		return nil, errors.New("store is required")
	case deps.Seeds == nil:
		return nil, errors.New("seeder is required")
	}

	m := &Manager{
		registry:      deps.Registry,
		world:         deps.World,
		inventory:     deps.Inventory,
		verifier:      deps.Verifier,
		tx:            deps.Transactor,
		store:         deps.Store,
		seeds:         deps.Seeds,
		rules:         DefaultRules(),
		battleMode:    battle.ModeLiteral,
		escapeParams:  escape.DefaultParams(),
		plunderParams: plunder.DefaultParams(),
		tracer:        otel.Tracer(tracerName),
		clock:         time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if err := m.rules.Validate(); err != nil {
		return nil, fmt.Errorf("rules: %w", err)
	}
	return m, nil
}

// Rules returns the active rules.
func (m *Manager) Rules() Rules {
	return m.rules
}

// run executes one transition as a critical section over keys.
func (m *Manager) run(ctx context.Context, op string, keys []string, fn func(ctx context.Context, now time.Time) error) error {
	ctx, span := m.tracer.Start(ctx, "confrontation."+op, trace.WithAttributes(
		attribute.StringSlice("pirates.keys", keys),
	))
	defer span.End()

	unlock := m.locks.lock(keys...)
	defer unlock()

	err := fn(ctx, m.clock().UTC())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		var appErr *apperrors.Error
		if errors.As(err, &appErr) {
			span.SetAttributes(attribute.String("pirates.rejection", string(appErr.Code)))
		}
	}
	if m.recorder != nil {
		m.recorder.Transition(ctx, op, err)
	}
	return err
}

// commit applies collaborator mutations then the store change in one
// transaction scope.
func (m *Manager) commit(ctx context.Context, mutate func(ctx context.Context) (Change, error)) error {
	return m.tx.WithinTx(ctx, func(ctx context.Context) error {
		change, err := mutate(ctx)
		if err != nil {
			return err
		}
		if err := m.store.Commit(ctx, change); err != nil {
			if errors.Is(err, storage.ErrNonceUsed) {
				return err
			}
			return fmt.Errorf("commit: %w", err)
		}
		return nil
	})
}

func (m *Manager) seed(op, actor string) (random.Roller, error) {
	roller, err := m.seeds.Roll(seedCallerPrefix + op + ":" + actor)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeSeedUnavailable, "generate seed", err)
	}
	return roller, nil
}

func (m *Manager) emit(ctx context.Context, op, actor, attacker, target, outcome, detail string) {
	if m.audit == nil {
		return
	}
	err := m.audit.Emit(ctx, storage.AuditEvent{
		EventName: eventNamePrefix + op,
		Actor:     actor,
		Attacker:  attacker,
		Target:    target,
		Outcome:   outcome,
		Detail:    detail,
	})
	if err != nil {
		log.Printf("audit emit %s for %s: %v", op, target, err)
	}
}

// loadConfrontation returns the target's record, or found=false.
func (m *Manager) loadConfrontation(ctx context.Context, target string) (Confrontation, bool, error) {
	c, err := m.store.GetConfrontation(ctx, target)
	if errors.Is(err, storage.ErrNotFound) {
		return Confrontation{}, false, nil
	}
	if err != nil {
		return Confrontation{}, false, fmt.Errorf("load confrontation of %s: %w", target, err)
	}
	return c, true, nil
}

func (m *Manager) loadByAttacker(ctx context.Context, attacker string) (Confrontation, bool, error) {
	c, err := m.store.GetConfrontationByAttacker(ctx, attacker)
	if errors.Is(err, storage.ErrNotFound) {
		return Confrontation{}, false, nil
	}
	if err != nil {
		return Confrontation{}, false, fmt.Errorf("load confrontation by %s: %w", attacker, err)
	}
	return c, true, nil
}

func (m *Manager) loadPlunder(ctx context.Context, attacker, target string) (Plunder, bool, error) {
	p, err := m.store.GetPlunder(ctx, attacker, target)
	if errors.Is(err, storage.ErrNotFound) {
		return Plunder{}, false, nil
	}
	if err != nil {
		return Plunder{}, false, fmt.Errorf("load plunder of %s by %s: %w", target, attacker, err)
	}
	return p, true, nil
}

// activeForTarget loads the target's confrontation and checks it still binds
// both parties.
func (m *Manager) activeForTarget(ctx context.Context, target string, now time.Time) (Confrontation, error) {
	c, found, err := m.loadConfrontation(ctx, target)
	if err != nil {
		return Confrontation{}, err
	}
	if !found {
		return Confrontation{}, notFound("confrontation", target)
	}
	if !c.Active(now) {
		return Confrontation{}, reject(apperrors.CodeConfrontationEnded, "confrontation has ended", pair(c.Attacker, target))
	}
	return c, nil
}

func normalize(values ...*string) {
	for _, v := range values {
		*v = strings.TrimSpace(*v)
	}
}
