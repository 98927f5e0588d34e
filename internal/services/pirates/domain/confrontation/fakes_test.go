package confrontation_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cryptopia-com/cryptopia-world/internal/random"
	"github.com/cryptopia-com/cryptopia-world/internal/services/pirates/domain/authz"
	"github.com/cryptopia-com/cryptopia-world/internal/services/pirates/domain/confrontation"
	"github.com/cryptopia-com/cryptopia-world/internal/services/pirates/domain/plunder"
	"github.com/cryptopia-com/cryptopia-world/internal/services/pirates/storage"
	"github.com/cryptopia-com/cryptopia-world/internal/services/pirates/storage/memory"
)

var errCollaborator = errors.New("collaborator unavailable")

type award struct {
	actor     string
	xp        uint64
	alignment int
}

type fakeRegistry struct {
	mu       sync.Mutex
	calls    int
	travel   map[string]confrontation.TravelState
	pirates  map[string]bool
	stats    map[string]confrontation.CombatStats
	luck     map[string]uint64
	mobility map[string]uint64
	charisma map[string]uint64
	awards   []award
	marked   []string
	markErr  error
	awardErr error
}

func (r *fakeRegistry) touch() {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
}

func (r *fakeRegistry) TravelState(_ context.Context, actor string) (confrontation.TravelState, error) {
	r.touch()
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.travel[actor], nil
}

func (r *fakeRegistry) IsPirateAligned(_ context.Context, actor string) (bool, error) {
	r.touch()
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pirates[actor], nil
}

func (r *fakeRegistry) MarkPirateAligned(_ context.Context, actor string) error {
	r.touch()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.markErr != nil {
		return r.markErr
	}
	r.pirates[actor] = true
	r.marked = append(r.marked, actor)
	return nil
}

func (r *fakeRegistry) CombatStats(_ context.Context, a, b string) (confrontation.CombatStats, confrontation.CombatStats, error) {
	r.touch()
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats[a], r.stats[b], nil
}

func (r *fakeRegistry) Luck(_ context.Context, a, b string) (uint64, uint64, error) {
	r.touch()
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.luck[a], r.luck[b], nil
}

func (r *fakeRegistry) Mobility(_ context.Context, a, b string) (uint64, uint64, error) {
	r.touch()
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mobility[a], r.mobility[b], nil
}

func (r *fakeRegistry) Charisma(_ context.Context, actor string) (uint64, error) {
	r.touch()
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.charisma[actor], nil
}

func (r *fakeRegistry) AwardProgress(_ context.Context, actor string, xp uint64, alignment int) error {
	r.touch()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.awardErr != nil {
		return r.awardErr
	}
	r.awards = append(r.awards, award{actor: actor, xp: xp, alignment: alignment})
	return nil
}

type fakeWorld struct {
	mu          sync.Mutex
	calls       int
	safety      uint64
	adjacent    bool
	routeOK     bool
	frozen      map[string]time.Time
	freezeCalls int
	freezeErrAt int
}

func (w *fakeWorld) AreaSafety(context.Context, int) (uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	return w.safety, nil
}

func (w *fakeWorld) IsReachableByRoute(context.Context, int, []int, int, int, time.Time) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	return w.routeOK, nil
}

func (w *fakeWorld) IsAdjacent(context.Context, int, int) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	return w.adjacent, nil
}

func (w *fakeWorld) Freeze(_ context.Context, actor, _ string, until time.Time) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	w.freezeCalls++
	if w.freezeErrAt != 0 && w.freezeCalls == w.freezeErrAt {
		return errCollaborator
	}
	w.frozen[actor] = until
	return nil
}

func (w *fakeWorld) Unfreeze(_ context.Context, actor, _ string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	delete(w.frozen, actor)
	return nil
}

func (w *fakeWorld) frozenUntil(actor string) (time.Time, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	until, ok := w.frozen[actor]
	return until, ok
}

type transfer struct {
	from, to string
	items    []plunder.Item
}

type fakeInventory struct {
	mu        sync.Mutex
	calls     int
	fuel      map[string]uint64
	transfers []transfer
	sunk      []plunder.Item
	err       error
}

func (i *fakeInventory) ChargeFuel(_ context.Context, actor string, amount uint64) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.calls++
	if i.err != nil {
		return i.err
	}
	i.fuel[actor] += amount
	return nil
}

func (i *fakeInventory) TransferAssets(_ context.Context, from, to string, items []plunder.Item) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.calls++
	if i.err != nil {
		return i.err
	}
	i.transfers = append(i.transfers, transfer{from: from, to: to, items: items})
	return nil
}

func (i *fakeInventory) DivertToSink(_ context.Context, _ string, item plunder.Item) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.calls++
	if i.err != nil {
		return i.err
	}
	i.sunk = append(i.sunk, item)
	return nil
}

type fakeVerifier struct {
	mu    sync.Mutex
	calls int
	last  authz.Request
	err   error
}

func (v *fakeVerifier) Verify(_ context.Context, req authz.Request) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.calls++
	v.last = req
	return v.err
}

type fakeTx struct {
	mu         sync.Mutex
	calls      int
	rolledBack int
}

func (t *fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	t.calls++
	t.mu.Unlock()
	if err := fn(ctx); err != nil {
		t.mu.Lock()
		t.rolledBack++
		t.mu.Unlock()
		return err
	}
	return nil
}

type fakeSeeder struct {
	mu     sync.Mutex
	calls  int
	roller random.Roller
	err    error
}

func (s *fakeSeeder) Roll(string) (random.Roller, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.roller, nil
}

type fakeAudit struct {
	mu     sync.Mutex
	events []storage.AuditEvent
}

func (a *fakeAudit) Emit(_ context.Context, evt storage.AuditEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, evt)
	return nil
}

type harness struct {
	now       time.Time
	clockMu   sync.Mutex
	registry  *fakeRegistry
	world     *fakeWorld
	inventory *fakeInventory
	verifier  *fakeVerifier
	tx        *fakeTx
	seeds     *fakeSeeder
	store     *memory.Store
	audit     *fakeAudit
	manager   *confrontation.Manager
}

var (
	start   = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	arrival = start.Add(-time.Hour)
)

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		now: start,
		registry: &fakeRegistry{
			travel: map[string]confrontation.TravelState{
				"pirate":   {InWorld: true, Embarked: true, Tile: 7},
				"pirate-2": {InWorld: true, Embarked: true, Tile: 7},
				"trader":   {InWorld: true, Embarked: true, Traveling: true, Tile: 7, Route: []int{7, 8, 9}, Arrival: arrival},
				"trader-2": {InWorld: true, Embarked: true, Traveling: true, Tile: 7, Route: []int{7, 8}, Arrival: arrival},
			},
			pirates:  map[string]bool{},
			stats:    map[string]confrontation.CombatStats{},
			luck:     map[string]uint64{},
			mobility: map[string]uint64{},
			charisma: map[string]uint64{"trader": 100},
		},
		world:     &fakeWorld{safety: 50, frozen: map[string]time.Time{}},
		inventory: &fakeInventory{fuel: map[string]uint64{}},
		verifier:  &fakeVerifier{},
		tx:        &fakeTx{},
		seeds:     &fakeSeeder{roller: random.Fixed{5000}},
		store:     memory.NewStore(),
		audit:     &fakeAudit{},
	}
	manager, err := confrontation.NewManager(confrontation.Deps{
		Registry:   h.registry,
		World:      h.world,
		Inventory:  h.inventory,
		Verifier:   h.verifier,
		Transactor: h.tx,
		Store:      h.store,
		Seeds:      h.seeds,
	},
		confrontation.WithClock(h.clock),
		confrontation.WithAudit(h.audit),
	)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	h.manager = manager
	return h
}

func (h *harness) clock() time.Time {
	h.clockMu.Lock()
	defer h.clockMu.Unlock()
	return h.now
}

func (h *harness) advance(d time.Duration) {
	h.clockMu.Lock()
	defer h.clockMu.Unlock()
	h.now = h.now.Add(d)
}

func (h *harness) collaboratorCalls() int {
	return h.registry.calls + h.world.calls + h.inventory.calls + h.verifier.calls + h.tx.calls + h.seeds.calls
}

func (h *harness) intercept(t *testing.T, attacker, target string) confrontation.Confrontation {
	t.Helper()
	c, err := h.manager.Intercept(context.Background(), confrontation.InterceptRequest{Attacker: attacker, Target: target})
	if err != nil {
		t.Fatalf("intercept %s by %s: %v", target, attacker, err)
	}
	return c
}

var (
	strongShip = confrontation.CombatStats{Attack: 1000, Defence: 100, Health: 100}
	weakShip   = confrontation.CombatStats{Attack: 1, Defence: 1000, Health: 1000}
)
