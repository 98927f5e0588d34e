package confrontation

import (
	"context"
	"time"

	"github.com/cryptopia-com/cryptopia-world/internal/random"
	"github.com/cryptopia-com/cryptopia-world/internal/services/pirates/domain/authz"
	"github.com/cryptopia-com/cryptopia-world/internal/services/pirates/domain/plunder"
	"github.com/cryptopia-com/cryptopia-world/internal/services/pirates/storage"
)

// TravelState is a player's position and movement as the registry sees it.
type TravelState struct {
	InWorld   bool
	Idle      bool
	Traveling bool
	Embarked  bool
	Tile      int
	Route     []int
	// Arrival marks the current voyage leg.
	Arrival time.Time
}

// CombatStats are one ship's battle figures.
type CombatStats struct {
	Attack  uint64
	Defence uint64
	Health  uint64
	Damage  uint64
}

// Registry reads and mutates player state.
type Registry interface {
	TravelState(ctx context.Context, actor string) (TravelState, error)
	IsPirateAligned(ctx context.Context, actor string) (bool, error)
	MarkPirateAligned(ctx context.Context, actor string) error
	CombatStats(ctx context.Context, a, b string) (CombatStats, CombatStats, error)
	Luck(ctx context.Context, a, b string) (uint64, uint64, error)
	Mobility(ctx context.Context, a, b string) (uint64, uint64, error)
	Charisma(ctx context.Context, actor string) (uint64, error)
	AwardProgress(ctx context.Context, actor string, xp uint64, alignment int) error
}

// World answers map questions and locks player movement.
type World interface {
	AreaSafety(ctx context.Context, tile int) (uint64, error)
	IsReachableByRoute(ctx context.Context, from int, route []int, index int, to int, arrival time.Time) (bool, error)
	IsAdjacent(ctx context.Context, a, b int) (bool, error)
	Freeze(ctx context.Context, actor, counterparty string, until time.Time) error
	Unfreeze(ctx context.Context, actor, counterparty string) error
}

// Inventory moves assets between players and the sink.
type Inventory interface {
	ChargeFuel(ctx context.Context, actor string, amount uint64) error
	TransferAssets(ctx context.Context, from, to string, items []plunder.Item) error
	DivertToSink(ctx context.Context, owner string, item plunder.Item) error
}

// OfferVerifier checks the signature set attached to an offer.
type OfferVerifier interface {
	Verify(ctx context.Context, req authz.Request) error
}

// Transactor runs fn so that every collaborator mutation made inside it is
// undone when fn returns an error.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Seeder produces a fresh roller per resolution.
type Seeder interface {
	Roll(caller string) (random.Roller, error)
}

// Store persists confrontation and plunder records. Get methods return
// storage.ErrNotFound for missing records.
type Store interface {
	GetConfrontation(ctx context.Context, target string) (Confrontation, error)
	// GetConfrontationByAttacker returns the most recent record the attacker
	// is linked to.
	GetConfrontationByAttacker(ctx context.Context, attacker string) (Confrontation, error)
	GetPlunder(ctx context.Context, attacker, target string) (Plunder, error)
	NonceUsed(ctx context.Context, nonce Nonce) (bool, error)
	// Commit applies change atomically; a consumed nonce fails with
	// storage.ErrNonceUsed.
	Commit(ctx context.Context, change Change) error
}

// AuditEmitter records transition audit events.
type AuditEmitter interface {
	Emit(ctx context.Context, evt storage.AuditEvent) error
}

// Recorder counts transitions.
type Recorder interface {
	Transition(ctx context.Context, operation string, err error)
	Battle(ctx context.Context, initiator string, outcome Outcome)
	Escape(ctx context.Context, success bool)
	Loot(ctx context.Context, transferred, diverted uint64)
}
