package local

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/cryptopia-com/cryptopia-world/internal/services/pirates/domain/authz"
	"github.com/cryptopia-com/cryptopia-world/internal/services/pirates/domain/confrontation"
	"github.com/cryptopia-com/cryptopia-world/internal/services/pirates/domain/plunder"
)

var (
	// ErrUnknownPlayer is returned for mutations on players absent from the
	// fixture.
	ErrUnknownPlayer = errors.New("unknown player")
	// ErrUnknownTile is returned for tiles absent from the fixture.
	ErrUnknownTile = errors.New("unknown tile")
	// ErrInsufficientAssets is returned when a player cannot cover a charge or
	// transfer.
	ErrInsufficientAssets = errors.New("insufficient assets")
)

type tile struct {
	safety    uint64
	neighbors []int
}

type player struct {
	tile     int
	embarked bool
	idle     bool
	route    []int
	arrival  time.Time
	pirate   bool

	attack  uint64
	defence uint64
	health  uint64
	damage  uint64

	luck     uint64
	mobility uint64
	charisma uint64

	xp        uint64
	alignment int

	fuel      uint64
	resources map[string]uint64

	// tokens maps a non-fungible asset to the token id held.
	tokens map[string]uint64
}

func (p *player) clone() *player {
	out := *p
	out.route = slices.Clone(p.route)
	out.resources = maps.Clone(p.resources)
	out.tokens = maps.Clone(p.tokens)
	return &out
}

type freeze struct {
	counterparty string
	until        time.Time
}

type state struct {
	players map[string]*player
	frozen  map[string]freeze
	sink    map[string]uint64
}

// World is the in-process registry, map, inventory and signer directory.
// It is safe for concurrent use.
type World struct {
	// tx serializes transactions so a rollback never discards another
	// transaction's writes.
	tx sync.Mutex

	mu      sync.RWMutex
	tiles   map[int]tile
	players map[string]*player
	frozen  map[string]freeze
	sink    map[string]uint64
	signers authz.StaticAccounts
	clock   func() time.Time
}

func newWorld() *World {
	return &World{
		tiles:   map[int]tile{},
		players: map[string]*player{},
		frozen:  map[string]freeze{},
		sink:    map[string]uint64{},
		signers: authz.StaticAccounts{},
		clock:   time.Now,
	}
}

// SetClock overrides time.Now for voyage and freeze checks.
func (w *World) SetClock(clock func() time.Time) {
	if clock == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.clock = clock
}

// WithinTx runs fn and restores every player, freeze and sink balance when
// it fails.
func (w *World) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	w.tx.Lock()
	defer w.tx.Unlock()

	saved := w.snapshot()
	if err := fn(ctx); err != nil {
		w.restore(saved)
		return err
	}
	return nil
}

func (w *World) snapshot() state {
	w.mu.RLock()
	defer w.mu.RUnlock()
	players := make(map[string]*player, len(w.players))
	for id, p := range w.players {
		players[id] = p.clone()
	}
	return state{players: players, frozen: maps.Clone(w.frozen), sink: maps.Clone(w.sink)}
}

func (w *World) restore(saved state) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.players = saved.players
	w.frozen = saved.frozen
	w.sink = saved.sink
}

func (w *World) get(actor string) (*player, error) {
	p, ok := w.players[actor]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlayer, actor)
	}
	return p, nil
}

func (w *World) pair(a, b string) (*player, *player, error) {
	pa, err := w.get(a)
	if err != nil {
		return nil, nil, err
	}
	pb, err := w.get(b)
	if err != nil {
		return nil, nil, err
	}
	return pa, pb, nil
}

// TravelState reports an unknown player as not in the world.
func (w *World) TravelState(_ context.Context, actor string) (confrontation.TravelState, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	p, ok := w.players[actor]
	if !ok {
		return confrontation.TravelState{}, nil
	}
	return confrontation.TravelState{
		InWorld:   true,
		Idle:      p.idle,
		Traveling: len(p.route) > 0 && w.clock().Before(p.arrival),
		Embarked:  p.embarked,
		Tile:      p.tile,
		Route:     slices.Clone(p.route),
		Arrival:   p.arrival,
	}, nil
}

func (w *World) IsPirateAligned(_ context.Context, actor string) (bool, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	p, err := w.get(actor)
	if err != nil {
		return false, err
	}
	return p.pirate, nil
}

func (w *World) MarkPirateAligned(_ context.Context, actor string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	p, err := w.get(actor)
	if err != nil {
		return err
	}
	p.pirate = true
	return nil
}

func (w *World) CombatStats(_ context.Context, a, b string) (confrontation.CombatStats, confrontation.CombatStats, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	pa, pb, err := w.pair(a, b)
	if err != nil {
		return confrontation.CombatStats{}, confrontation.CombatStats{}, err
	}
	return combatStats(pa), combatStats(pb), nil
}

func combatStats(p *player) confrontation.CombatStats {
	return confrontation.CombatStats{Attack: p.attack, Defence: p.defence, Health: p.health, Damage: p.damage}
}

func (w *World) Luck(_ context.Context, a, b string) (uint64, uint64, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	pa, pb, err := w.pair(a, b)
	if err != nil {
		return 0, 0, err
	}
	return pa.luck, pb.luck, nil
}

func (w *World) Mobility(_ context.Context, a, b string) (uint64, uint64, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	pa, pb, err := w.pair(a, b)
	if err != nil {
		return 0, 0, err
	}
	return pa.mobility, pb.mobility, nil
}

func (w *World) Charisma(_ context.Context, actor string) (uint64, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	p, err := w.get(actor)
	if err != nil {
		return 0, err
	}
	return p.charisma, nil
}

// AwardProgress adds xp and shifts alignment.
func (w *World) AwardProgress(_ context.Context, actor string, xp uint64, alignment int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	p, err := w.get(actor)
	if err != nil {
		return err
	}
	p.xp += xp
	p.alignment += alignment
	return nil
}

// Progress returns the accumulated xp and alignment of actor.
func (w *World) Progress(actor string) (uint64, int, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	p, ok := w.players[actor]
	if !ok {
		return 0, 0, false
	}
	return p.xp, p.alignment, true
}

func (w *World) AreaSafety(_ context.Context, tileID int) (uint64, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	t, ok := w.tiles[tileID]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownTile, tileID)
	}
	return t.safety, nil
}

func (w *World) IsAdjacent(_ context.Context, a, b int) (bool, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.adjacent(a, b)
}

func (w *World) adjacent(a, b int) (bool, error) {
	t, ok := w.tiles[a]
	if !ok {
		return false, fmt.Errorf("%w: %d", ErrUnknownTile, a)
	}
	if _, ok := w.tiles[b]; !ok {
		return false, fmt.Errorf("%w: %d", ErrUnknownTile, b)
	}
	return slices.Contains(t.neighbors, b), nil
}

// IsReachableByRoute reports whether the tile at route[index] lies on or
// next to from and is still ahead of a target currently on tile to.
func (w *World) IsReachableByRoute(_ context.Context, from int, route []int, index int, to int, arrival time.Time) (bool, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if index < 0 || index >= len(route) {
		return false, nil
	}
	if !w.clock().Before(arrival) {
		return false, nil
	}
	position := slices.Index(route, to)
	if position < 0 || position > index {
		return false, nil
	}
	waypoint := route[index]
	if waypoint == from {
		return true, nil
	}
	return w.adjacent(from, waypoint)
}

// Freeze locks actor in place until the given time.
func (w *World) Freeze(_ context.Context, actor, counterparty string, until time.Time) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.get(actor); err != nil {
		return err
	}
	w.frozen[actor] = freeze{counterparty: counterparty, until: until}
	return nil
}

func (w *World) Unfreeze(_ context.Context, actor, _ string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.get(actor); err != nil {
		return err
	}
	delete(w.frozen, actor)
	return nil
}

// FrozenUntil returns the time actor is frozen until. An elapsed freeze is
// reported as not frozen.
func (w *World) FrozenUntil(actor string) (time.Time, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	f, ok := w.frozen[actor]
	if !ok || !w.clock().Before(f.until) {
		return time.Time{}, false
	}
	return f.until, true
}

func (w *World) ChargeFuel(_ context.Context, actor string, amount uint64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	p, err := w.get(actor)
	if err != nil {
		return err
	}
	if p.fuel < amount {
		return fmt.Errorf("%w: %s has %d fuel, needs %d", ErrInsufficientAssets, actor, p.fuel, amount)
	}
	p.fuel -= amount
	return nil
}

// TransferAssets moves items from one player to another. Nothing moves when
// any item is not covered.
func (w *World) TransferAssets(_ context.Context, from, to string, items []plunder.Item) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	src, dst, err := w.pair(from, to)
	if err != nil {
		return err
	}
	for _, item := range items {
		if err := covers(from, src, item); err != nil {
			return err
		}
	}
	for _, item := range items {
		take(src, item)
		switch item.Kind {
		case plunder.KindNonFungible:
			dst.tokens[item.Asset] = item.TokenID
		default:
			dst.resources[item.Asset] += item.Amount
		}
	}
	return nil
}

// DivertToSink removes item from owner for good.
func (w *World) DivertToSink(_ context.Context, owner string, item plunder.Item) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	p, err := w.get(owner)
	if err != nil {
		return err
	}
	if err := covers(owner, p, item); err != nil {
		return err
	}
	take(p, item)
	w.sink[item.Asset] += item.Amount
	return nil
}

func covers(owner string, p *player, item plunder.Item) error {
	if item.Kind == plunder.KindNonFungible {
		if token, ok := p.tokens[item.Asset]; !ok || token != item.TokenID {
			return fmt.Errorf("%w: %s does not hold %s #%d", ErrInsufficientAssets, owner, item.Asset, item.TokenID)
		}
		return nil
	}
	if p.resources[item.Asset] < item.Amount {
		return fmt.Errorf("%w: %s has %d %s, needs %d", ErrInsufficientAssets, owner, p.resources[item.Asset], item.Asset, item.Amount)
	}
	return nil
}

func take(p *player, item plunder.Item) {
	if item.Kind == plunder.KindNonFungible {
		delete(p.tokens, item.Asset)
		return
	}
	p.resources[item.Asset] -= item.Amount
}

// Balance returns the fuel and resource amount actor holds of asset.
func (w *World) Balance(actor, asset string) (fuel uint64, amount uint64, ok bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	p, found := w.players[actor]
	if !found {
		return 0, 0, false
	}
	return p.fuel, p.resources[asset], true
}

// Sunk returns the total amount of asset diverted to the sink.
func (w *World) Sunk(asset string) uint64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.sink[asset]
}

// Signers resolves the offer signers registered for account.
func (w *World) Signers(ctx context.Context, account string) (authz.SignerSet, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.signers.Signers(ctx, account)
}

var (
	_ confrontation.Registry   = (*World)(nil)
	_ confrontation.World      = (*World)(nil)
	_ confrontation.Inventory  = (*World)(nil)
	_ confrontation.Transactor = (*World)(nil)
	_ authz.Accounts           = (*World)(nil)
)
